package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
)

// PendingUserRepository stores registrations awaiting email verification.
type PendingUserRepository interface {
	// UpsertPendingUser creates or replaces the pending registration for the user's email.
	// Any previously issued verification code is discarded.
	UpsertPendingUser(ctx context.Context, pending *model.PendingUser) (*model.PendingUser, error)

	GetPendingUserByEmail(ctx context.Context, email string) (*model.PendingUser, error)

	// SetVerificationCode stores a code and its expiry on the pending registration.
	SetVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error

	DeletePendingUser(ctx context.Context, email string) error
}

const pendingUserCollection = "pending_users"

type pendingUserMongoRepository struct {
	db *mongo.Database
}

func NewPendingUserMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) PendingUserRepository {
	collection := db.Collection(pendingUserCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create pending user indexes")
	}

	return &pendingUserMongoRepository{db: db}
}

func (r *pendingUserMongoRepository) UpsertPendingUser(
	ctx context.Context,
	pending *model.PendingUser,
) (*model.PendingUser, error) {
	now := time.Now()

	update := bson.M{
		"$set": bson.M{
			"name":       pending.Name,
			"password":   pending.Password,
			"updated_at": now,
		},
		"$unset": bson.M{
			"email_verification_code":    "",
			"email_verification_expires": "",
		},
		"$setOnInsert": bson.M{
			"email":      pending.Email,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved model.PendingUser
	err := r.db.Collection(pendingUserCollection).
		FindOneAndUpdate(ctx, bson.M{"email": pending.Email}, update, opts).
		Decode(&saved)
	if err != nil {
		return nil, err
	}

	return &saved, nil
}

func (r *pendingUserMongoRepository) GetPendingUserByEmail(
	ctx context.Context,
	email string,
) (*model.PendingUser, error) {
	var pending model.PendingUser
	err := r.db.Collection(pendingUserCollection).FindOne(ctx, bson.M{"email": email}).Decode(&pending)
	if err != nil {
		return nil, err
	}

	return &pending, nil
}

func (r *pendingUserMongoRepository) SetVerificationCode(
	ctx context.Context,
	email, code string,
	expiresAt time.Time,
) error {
	update := bson.M{
		"$set": bson.M{
			"email_verification_code":    code,
			"email_verification_expires": expiresAt,
			"updated_at":                 time.Now(),
		},
	}

	result, err := r.db.Collection(pendingUserCollection).UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *pendingUserMongoRepository) DeletePendingUser(ctx context.Context, email string) error {
	_, err := r.db.Collection(pendingUserCollection).DeleteOne(ctx, bson.M{"email": email})
	return err
}

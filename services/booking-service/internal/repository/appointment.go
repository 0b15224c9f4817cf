package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
)

// AppointmentRepository defines the interface for appointment storage.
type AppointmentRepository interface {
	// CreateAppointment inserts an appointment. A conflicting active appointment is reported as
	// ErrSlotTaken or ErrDayTaken depending on which unique index rejected the insert.
	CreateAppointment(ctx context.Context, appointment *model.Appointment) (*model.Appointment, error)

	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)

	// FindActiveBySlot returns the active appointment holding (date, time), if any.
	FindActiveBySlot(ctx context.Context, date time.Time, slot string) (*model.Appointment, error)

	// FindActiveByUserAndDate returns the user's active appointment on date, if any.
	FindActiveByUserAndDate(ctx context.Context, userID string, date time.Time) (*model.Appointment, error)

	// ListBookedTimes returns the slot times held by active appointments on date.
	ListBookedTimes(ctx context.Context, date time.Time) ([]string, error)

	// CancelAppointment marks an active appointment cancelled and releases its slot.
	CancelAppointment(ctx context.Context, id string) (*model.Appointment, error)

	ListAppointments(ctx context.Context, params FilterAppointmentsParams) ([]*model.Appointment, error)
	CountAppointments(ctx context.Context, params FilterAppointmentsParams) (int64, error)
}

// FilterAppointmentsParams defines the parameters for filtering and paginating appointments.
// Results are ordered by (date, time), descending unless SortAsc is set.
type FilterAppointmentsParams struct {
	UserID  *string
	Date    *time.Time
	Status  *model.AppointmentStatus
	Limit   int64
	Offset  int64
	SortAsc bool
}

const (
	appointmentCollection = "appointments"

	slotIndexName    = "appointments_slot_unique"
	userDayIndexName = "appointments_user_day_unique"
)

type appointmentMongoRepository struct {
	db *mongo.Database
}

func NewAppointmentMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) AppointmentRepository {
	collection := db.Collection(appointmentCollection)

	active := bson.M{"active": true}

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(active).
				SetName(slotIndexName),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(active).
				SetName(userDayIndexName),
		},
		{
			Keys: bson.D{{Key: "user_email", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create appointment indexes")
	}

	return &appointmentMongoRepository{db: db}
}

func (r *appointmentMongoRepository) CreateAppointment(
	ctx context.Context,
	appointment *model.Appointment,
) (*model.Appointment, error) {
	now := time.Now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now
	appointment.Active = appointment.Status != model.AppointmentStatusCancelled

	result, err := r.db.Collection(appointmentCollection).InsertOne(ctx, appointment)
	if err != nil {
		return nil, classifyDuplicate(err)
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		appointment.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return appointment, nil
}

func (r *appointmentMongoRepository) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *appointmentMongoRepository) FindActiveBySlot(
	ctx context.Context,
	date time.Time,
	slot string,
) (*model.Appointment, error) {
	return r.findOne(ctx, bson.M{"date": date, "time": slot, "active": true})
}

func (r *appointmentMongoRepository) FindActiveByUserAndDate(
	ctx context.Context,
	userID string,
	date time.Time,
) (*model.Appointment, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "date": date, "active": true})
}

func (r *appointmentMongoRepository) ListBookedTimes(ctx context.Context, date time.Time) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"time": 1})

	cursor, err := r.db.Collection(appointmentCollection).Find(ctx, bson.M{"date": date, "active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var booked []struct {
		Time string `bson:"time"`
	}
	if err := cursor.All(ctx, &booked); err != nil {
		return nil, err
	}

	times := make([]string, 0, len(booked))
	for _, b := range booked {
		times = append(times, b.Time)
	}

	return times, nil
}

func (r *appointmentMongoRepository) CancelAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	filter := bson.M{"_id": objectID, "active": true}
	update := bson.M{
		"$set": bson.M{
			"status":     model.AppointmentStatusCancelled,
			"active":     false,
			"updated_at": time.Now(),
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var appointment model.Appointment
	err = r.db.Collection(appointmentCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&appointment)
	if err != nil {
		return nil, err
	}

	return &appointment, nil
}

func (r *appointmentMongoRepository) ListAppointments(
	ctx context.Context,
	params FilterAppointmentsParams,
) ([]*model.Appointment, error) {
	order := -1
	if params.SortAsc {
		order = 1
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: order}, {Key: "time", Value: order}}).
		SetSkip(params.Offset)
	if params.Limit > 0 {
		opts.SetLimit(params.Limit)
	}

	cursor, err := r.db.Collection(appointmentCollection).Find(ctx, buildAppointmentFilter(params), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	appointments := []*model.Appointment{}
	if err := cursor.All(ctx, &appointments); err != nil {
		return nil, err
	}

	return appointments, nil
}

func (r *appointmentMongoRepository) CountAppointments(
	ctx context.Context,
	params FilterAppointmentsParams,
) (int64, error) {
	return r.db.Collection(appointmentCollection).CountDocuments(ctx, buildAppointmentFilter(params))
}

func (r *appointmentMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Appointment, error) {
	var appointment model.Appointment
	if err := r.db.Collection(appointmentCollection).FindOne(ctx, filter).Decode(&appointment); err != nil {
		return nil, err
	}

	return &appointment, nil
}

func buildAppointmentFilter(params FilterAppointmentsParams) bson.M {
	filter := bson.M{}

	if params.UserID != nil {
		filter["user_id"] = *params.UserID
	}
	if params.Date != nil {
		filter["date"] = *params.Date
	}
	if params.Status != nil {
		filter["status"] = *params.Status
	}

	return filter
}

// classifyDuplicate maps a duplicate key error to the conflict it represents, identified by the
// name of the violated index. Duplicates on an unknown index are treated as a slot conflict.
func classifyDuplicate(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, writeErr := range we.WriteErrors {
			if strings.Contains(writeErr.Message, userDayIndexName) {
				return ErrDayTaken
			}
		}
	}

	return ErrSlotTaken
}

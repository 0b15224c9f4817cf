package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PendingUser is a registration that has not been confirmed by email yet.
// It is keyed by email and promoted into a User once a verification code matches.
type PendingUser struct {
	ID                       bson.ObjectID `bson:"_id,omitempty"`
	Name                     string        `bson:"name"`
	Email                    string        `bson:"email"`
	Password                 string        `bson:"password"`
	EmailVerificationCode    string        `bson:"email_verification_code,omitempty"`
	EmailVerificationExpires *time.Time    `bson:"email_verification_expires,omitempty"`
	CreatedAt                time.Time     `bson:"created_at"`
	UpdatedAt                time.Time     `bson:"updated_at"`
}

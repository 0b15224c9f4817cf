package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a registered account. Password is empty for accounts created through
// Google sign-in.
type User struct {
	ID                       bson.ObjectID `bson:"_id,omitempty"`
	Name                     string        `bson:"name"`
	Email                    string        `bson:"email"`
	Password                 string        `bson:"password,omitempty"`
	GoogleID                 string        `bson:"google_id,omitempty"`
	Avatar                   string        `bson:"avatar"`
	IsEmailVerified          bool          `bson:"is_email_verified"`
	EmailVerificationCode    string        `bson:"email_verification_code,omitempty"`
	EmailVerificationExpires *time.Time    `bson:"email_verification_expires,omitempty"`
	CreatedAt                time.Time     `bson:"created_at"`
	UpdatedAt                time.Time     `bson:"updated_at"`
}

// HasPassword reports whether the account can log in with a password.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

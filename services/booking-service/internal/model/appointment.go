package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment is a booking of one calendar slot.
// Date is midnight UTC of the booked calendar day and Time is the "HH:MM" slot start.
// Active mirrors Status != cancelled and backs the partial unique indexes.
type Appointment struct {
	ID        bson.ObjectID     `bson:"_id,omitempty"`
	UserID    string            `bson:"user_id"`
	UserEmail string            `bson:"user_email"`
	UserName  string            `bson:"user_name"`
	Date      time.Time         `bson:"date"`
	Time      string            `bson:"time"`
	Status    AppointmentStatus `bson:"status"`
	Active    bool              `bson:"active"`
	CreatedAt time.Time         `bson:"created_at"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

package repository

import "errors"

var (
	ErrInvalidID = errors.New("invalid object id")
	ErrSlotTaken = errors.New("an active appointment already holds this slot")
	ErrDayTaken  = errors.New("user already has an active appointment on this date")
)

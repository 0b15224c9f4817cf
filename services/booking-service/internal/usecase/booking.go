package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/calendar"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/repository"
)

const (
	defaultUserPageLimit  = 50
	defaultAdminPageLimit = 100
	maxPageLimit          = 100
)

// BookingUsecase defines the appointment booking operations.
type BookingUsecase interface {
	Availability(ctx context.Context, date string) (*Availability, error)
	Book(ctx context.Context, params BookParams) (*model.Appointment, error)
	Cancel(ctx context.Context, appointmentID, userID string) (*model.Appointment, error)
	ListForUser(ctx context.Context, params ListParams) (*AppointmentPage, error)
	ListAll(ctx context.Context, params AdminListParams) (*AppointmentPage, error)
}

// BookParams defines the parameters for booking a slot. AuthEmail is the email of the
// authenticated user and must match UserEmail.
type BookParams struct {
	UserID    string
	AuthEmail string
	UserEmail string
	UserName  string
	Date      string
	Time      string
}

// ListParams defines the parameters for listing the caller's appointments.
// Zero Page and Limit select the defaults.
type ListParams struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

// AdminListParams defines the parameters for listing every appointment.
// Malformed Date or Status values are ignored rather than rejected.
type AdminListParams struct {
	Date   string
	Status string
	Page   int
	Limit  int
}

// Availability is the slot grid of one day.
type Availability struct {
	Date           string
	Slots          []calendar.Slot
	TotalSlots     int
	AvailableCount int
}

type Pagination struct {
	Page  int
	Limit int
	Total int64
	Pages int64
}

type AppointmentPage struct {
	Appointments []*model.Appointment
	Pagination   Pagination
}

var (
	ErrSlotUnavailable      = errors.New("time slot not available")
	ErrDuplicateDateBooking = errors.New("you already have an appointment on this date")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrAlreadyCancelled     = errors.New("appointment is already cancelled")
	ErrCancellationTooLate  = errors.New("cannot cancel appointment less than 1 hour before scheduled time")
)

type bookingUsecase struct {
	logger          *zerolog.Logger
	appointmentRepo repository.AppointmentRepository
	location        *time.Location
	now             func() time.Time
}

// NewBookingUsecase creates a BookingUsecase. loc is the business time zone used to decide
// which day is "today" and when an appointment starts.
func NewBookingUsecase(
	logger *zerolog.Logger,
	appointmentRepo repository.AppointmentRepository,
	loc *time.Location,
) BookingUsecase {
	if loc == nil {
		loc = time.UTC
	}

	return &bookingUsecase{
		logger:          logger,
		appointmentRepo: appointmentRepo,
		location:        loc,
		now:             time.Now,
	}
}

func (u *bookingUsecase) Availability(ctx context.Context, date string) (*Availability, error) {
	if date == "" {
		return nil, newValidationError(CodeInvalidDate, "Date parameter is required in YYYY-MM-DD format")
	}

	day, err := u.parseBookableDay(date, "Cannot check availability for past dates")
	if err != nil {
		return nil, err
	}

	booked, err := u.appointmentRepo.ListBookedTimes(ctx, day)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		taken[t] = struct{}{}
	}

	slots := calendar.Slots()
	available := 0
	for i := range slots {
		_, isTaken := taken[slots[i].Time]
		slots[i].Available = !isTaken
		if !isTaken {
			available++
		}
	}

	return &Availability{
		Date:           date,
		Slots:          slots,
		TotalSlots:     len(slots),
		AvailableCount: available,
	}, nil
}

func (u *bookingUsecase) Book(ctx context.Context, params BookParams) (*model.Appointment, error) {
	date := strings.TrimSpace(params.Date)
	slot := strings.TrimSpace(params.Time)
	userEmail := normalizeEmail(params.UserEmail)
	userName := strings.TrimSpace(params.UserName)

	if date == "" || slot == "" || userEmail == "" || userName == "" {
		return nil, newValidationError(CodeMissingFields, "All fields are required: date, time, userEmail, userName")
	}

	if _, err := calendar.ParseDate(date); err != nil {
		return nil, newValidationError(CodeInvalidDateFormat, "Invalid date format. Use YYYY-MM-DD")
	}

	slot, err := calendar.NormalizeSlot(slot)
	switch {
	case errors.Is(err, calendar.ErrInvalidTime):
		return nil, newValidationError(CodeInvalidTimeFormat, "Invalid time format. Use HH:MM")
	case errors.Is(err, calendar.ErrOffGrid):
		return nil, newValidationError(
			CodeInvalidTimeSlot,
			"Time must be within business hours (09:00-17:30) in 30-minute intervals",
		)
	case err != nil:
		return nil, err
	}

	day, err := u.parseBookableDay(date, "Cannot book appointments for past dates")
	if err != nil {
		return nil, err
	}

	if userEmail != normalizeEmail(params.AuthEmail) {
		return nil, newValidationError(CodeEmailMismatch, "Email must match authenticated user")
	}

	if _, err := u.appointmentRepo.FindActiveBySlot(ctx, day, slot); err == nil {
		return nil, ErrSlotUnavailable
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if _, err := u.appointmentRepo.FindActiveByUserAndDate(ctx, params.UserID, day); err == nil {
		return nil, ErrDuplicateDateBooking
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// The checks above can race with another booking; the unique indexes settle it.
	appointment, err := u.appointmentRepo.CreateAppointment(ctx, &model.Appointment{
		UserID:    params.UserID,
		UserEmail: userEmail,
		UserName:  userName,
		Date:      day,
		Time:      slot,
		Status:    model.AppointmentStatusConfirmed,
	})
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return nil, ErrSlotUnavailable
	case errors.Is(err, repository.ErrDayTaken):
		return nil, ErrDuplicateDateBooking
	case err != nil:
		return nil, err
	}

	u.logger.Info().
		Str("appointment_id", appointment.ID.Hex()).
		Str("user_id", appointment.UserID).
		Str("date", date).
		Str("time", slot).
		Msg("appointment booked")

	return appointment, nil
}

func (u *bookingUsecase) Cancel(ctx context.Context, appointmentID, userID string) (*model.Appointment, error) {
	appointment, err := u.appointmentRepo.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, repository.ErrInvalidID) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if appointment.UserID != userID {
		return nil, ErrAppointmentNotFound
	}

	if appointment.Status == model.AppointmentStatusCancelled {
		return nil, ErrAlreadyCancelled
	}

	ok, err := calendar.CanCancel(appointment.Date, appointment.Time, u.location, u.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCancellationTooLate
	}

	cancelled, err := u.appointmentRepo.CancelAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAlreadyCancelled
		}
		return nil, err
	}

	u.logger.Info().Str("appointment_id", appointmentID).Str("user_id", userID).Msg("appointment cancelled")

	return cancelled, nil
}

func (u *bookingUsecase) ListForUser(ctx context.Context, params ListParams) (*AppointmentPage, error) {
	filter := repository.FilterAppointmentsParams{UserID: &params.UserID}

	if params.Status != "" {
		status := model.AppointmentStatus(params.Status)
		if !status.Valid() {
			return nil, newValidationError(
				CodeInvalidStatus,
				"Invalid status. Must be: pending, confirmed, or cancelled",
			)
		}
		filter.Status = &status
	}

	return u.list(ctx, filter, params.Page, params.Limit, defaultUserPageLimit)
}

func (u *bookingUsecase) ListAll(ctx context.Context, params AdminListParams) (*AppointmentPage, error) {
	filter := repository.FilterAppointmentsParams{SortAsc: true}

	if day, err := calendar.ParseDate(params.Date); err == nil {
		filter.Date = &day
	}

	if status := model.AppointmentStatus(params.Status); status.Valid() {
		filter.Status = &status
	}

	return u.list(ctx, filter, params.Page, params.Limit, defaultAdminPageLimit)
}

func (u *bookingUsecase) list(
	ctx context.Context,
	filter repository.FilterAppointmentsParams,
	page, limit, defaultLimit int,
) (*AppointmentPage, error) {
	page, limit = paginate(page, limit, defaultLimit)

	filter.Limit = int64(limit)
	filter.Offset = int64((page - 1) * limit)

	appointments, err := u.appointmentRepo.ListAppointments(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := u.appointmentRepo.CountAppointments(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &AppointmentPage{
		Appointments: appointments,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + int64(limit) - 1) / int64(limit),
		},
	}, nil
}

// parseBookableDay parses date and rejects days before today in the business time zone.
func (u *bookingUsecase) parseBookableDay(date, pastMessage string) (time.Time, error) {
	day, err := calendar.ParseDate(date)
	if err != nil {
		return time.Time{}, newValidationError(CodeInvalidDateFormat, "Invalid date format. Use YYYY-MM-DD")
	}

	if calendar.IsPastDay(day, u.now(), u.location) {
		return time.Time{}, newValidationError(CodePastDate, pastMessage)
	}

	return day, nil
}

// paginate applies defaults and bounds: a zero limit selects defaultLimit, limits are clamped
// to [1, maxPageLimit] and pages start at 1.
func paginate(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}

	if limit == 0 {
		limit = defaultLimit
	}
	limit = max(1, min(limit, maxPageLimit))

	return page, limit
}

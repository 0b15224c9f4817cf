package payload

import (
	"time"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/calendar"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/usecase"
)

// BookAppointmentRequest is checked field by field by the booking usecase, which reports
// distinct codes for each failure.
type BookAppointmentRequest struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

type AppointmentResponse struct {
	ID        string                  `json:"id"`
	UserID    string                  `json:"userId"`
	UserEmail string                  `json:"userEmail"`
	UserName  string                  `json:"userName"`
	Date      string                  `json:"date"`
	Time      string                  `json:"time"`
	Status    model.AppointmentStatus `json:"status"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
}

func NewAppointmentResponse(a *model.Appointment) *AppointmentResponse {
	return &AppointmentResponse{
		ID:        a.ID.Hex(),
		UserID:    a.UserID,
		UserEmail: a.UserEmail,
		UserName:  a.UserName,
		Date:      calendar.FormatDate(a.Date),
		Time:      a.Time,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type AppointmentActionResponse struct {
	Success     bool                 `json:"success"`
	Message     string               `json:"message"`
	Appointment *AppointmentResponse `json:"appointment"`
}

type AvailabilityResponse struct {
	Slots          []calendar.Slot `json:"slots"`
	Date           string          `json:"date"`
	TotalSlots     int             `json:"totalSlots"`
	AvailableCount int             `json:"availableCount"`
}

func NewAvailabilityResponse(a *usecase.Availability) *AvailabilityResponse {
	return &AvailabilityResponse{
		Slots:          a.Slots,
		Date:           a.Date,
		TotalSlots:     a.TotalSlots,
		AvailableCount: a.AvailableCount,
	}
}

type PaginationResponse struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type AppointmentListResponse struct {
	Appointments []*AppointmentResponse `json:"appointments"`
	Pagination   PaginationResponse     `json:"pagination"`
}

func NewAppointmentListResponse(page *usecase.AppointmentPage) *AppointmentListResponse {
	appointments := make([]*AppointmentResponse, 0, len(page.Appointments))
	for _, a := range page.Appointments {
		appointments = append(appointments, NewAppointmentResponse(a))
	}

	return &AppointmentListResponse{
		Appointments: appointments,
		Pagination:   PaginationResponse(page.Pagination),
	}
}

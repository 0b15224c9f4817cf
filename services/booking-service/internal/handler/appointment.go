package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/payload"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/usecase"
)

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.bookingUsecase.Availability(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		if h.writeBookingError(w, err) {
			return
		}
		h.writeInternalError(w, err, "Failed to fetch available slots", "FETCH_SLOTS_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, payload.NewAvailabilityResponse(availability))
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token required", "UNAUTHORIZED")
		return
	}

	var req payload.BookAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return
	}

	appointment, err := h.bookingUsecase.Book(r.Context(), usecase.BookParams{
		UserID:    user.ID.Hex(),
		AuthEmail: user.Email,
		UserEmail: req.UserEmail,
		UserName:  req.UserName,
		Date:      req.Date,
		Time:      req.Time,
	})
	if err != nil {
		h.observe(func() { h.metrics.BookingsTotal.WithLabelValues(bookingResult(err)).Inc() })
		if h.writeBookingError(w, err) {
			return
		}
		h.writeInternalError(w, err, "Failed to book appointment", "BOOKING_ERROR")
		return
	}

	h.observe(func() { h.metrics.BookingsTotal.WithLabelValues("success").Inc() })

	writeJSON(w, http.StatusCreated, payload.AppointmentActionResponse{
		Success:     true,
		Message:     "Appointment booked successfully",
		Appointment: payload.NewAppointmentResponse(appointment),
	})
}

func (h *Handler) MyAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token required", "UNAUTHORIZED")
		return
	}

	query := r.URL.Query()
	page, err := h.bookingUsecase.ListForUser(r.Context(), usecase.ListParams{
		UserID: user.ID.Hex(),
		Status: query.Get("status"),
		Page:   queryInt(query.Get("page")),
		Limit:  queryInt(query.Get("limit")),
	})
	if err != nil {
		if h.writeBookingError(w, err) {
			return
		}
		h.writeInternalError(w, err, "Failed to fetch appointments", "FETCH_APPOINTMENTS_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, payload.NewAppointmentListResponse(page))
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Access token required", "UNAUTHORIZED")
		return
	}

	appointment, err := h.bookingUsecase.Cancel(r.Context(), chi.URLParam(r, "appointmentID"), user.ID.Hex())
	if err != nil {
		h.observe(func() { h.metrics.CancellationsTotal.WithLabelValues(bookingResult(err)).Inc() })
		if h.writeBookingError(w, err) {
			return
		}
		h.writeInternalError(w, err, "Failed to cancel appointment", "CANCELLATION_ERROR")
		return
	}

	h.observe(func() { h.metrics.CancellationsTotal.WithLabelValues("success").Inc() })

	writeJSON(w, http.StatusOK, payload.AppointmentActionResponse{
		Success:     true,
		Message:     "Appointment cancelled successfully",
		Appointment: payload.NewAppointmentResponse(appointment),
	})
}

// AllAppointments lists every appointment. Any authenticated user may call it.
func (h *Handler) AllAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.bookingUsecase.ListAll(r.Context(), usecase.AdminListParams{
		Date:   query.Get("date"),
		Status: query.Get("status"),
		Page:   queryInt(query.Get("page")),
		Limit:  queryInt(query.Get("limit")),
	})
	if err != nil {
		h.writeInternalError(w, err, "Failed to fetch all appointments", "FETCH_ALL_APPOINTMENTS_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, payload.NewAppointmentListResponse(page))
}

// writeBookingError answers the user-facing booking errors and reports whether err was one.
func (h *Handler) writeBookingError(w http.ResponseWriter, err error) bool {
	var verr *usecase.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message, verr.Code)
	case errors.Is(err, usecase.ErrSlotUnavailable):
		writeError(w, http.StatusConflict, "Time slot is no longer available", "SLOT_UNAVAILABLE")
	case errors.Is(err, usecase.ErrDuplicateDateBooking):
		writeError(w, http.StatusConflict, "You already have an appointment on this date", "DUPLICATE_DATE_BOOKING")
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "Appointment not found", "APPOINTMENT_NOT_FOUND")
	case errors.Is(err, usecase.ErrAlreadyCancelled):
		writeError(w, http.StatusBadRequest, "Appointment is already cancelled", "ALREADY_CANCELLED")
	case errors.Is(err, usecase.ErrCancellationTooLate):
		writeError(w, http.StatusBadRequest,
			"Cannot cancel appointment less than 1 hour before scheduled time", "CANCELLATION_TOO_LATE")
	default:
		return false
	}
	return true
}

func bookingResult(err error) string {
	var verr *usecase.ValidationError
	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, usecase.ErrSlotUnavailable), errors.Is(err, usecase.ErrDuplicateDateBooking),
		errors.Is(err, usecase.ErrAlreadyCancelled), errors.Is(err, usecase.ErrCancellationTooLate):
		return "conflict"
	case errors.Is(err, usecase.ErrAppointmentNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// queryInt parses a pagination parameter. Anything unparsable selects the default.
func queryInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

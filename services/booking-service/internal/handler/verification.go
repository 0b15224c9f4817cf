package handler

import (
	"errors"
	"net/http"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/payload"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/usecase"
)

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.SendOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeVerificationError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeVerificationError(w, http.StatusBadRequest, "Email is required")
		return
	}

	if err := h.verificationUsecase.IssueCode(r.Context(), req.Email); err != nil {
		h.observe(func() { h.metrics.VerificationCodesTotal.WithLabelValues("issue", "failure").Inc() })

		switch {
		case errors.Is(err, usecase.ErrSignupNotFound):
			writeVerificationError(w, http.StatusNotFound, "No signup found for this email")
		case errors.Is(err, usecase.ErrMailerNotConfigured):
			h.logger.Error().Err(err).Msg("verification code requested while mailer is not configured")
			writeVerificationError(w, http.StatusInternalServerError, "Email service not configured")
		default:
			h.logger.Error().Err(err).Msg("failed to send verification code")
			body := payload.SuccessResponse{Success: false, Error: "Failed to send verification code"}
			if h.config.Development {
				body.Details = err.Error()
			}
			writeJSON(w, http.StatusInternalServerError, body)
		}
		return
	}

	h.observe(func() { h.metrics.VerificationCodesTotal.WithLabelValues("issue", "success").Inc() })

	writeJSON(w, http.StatusOK, payload.SuccessResponse{
		Success: true,
		Message: "Verification code sent successfully",
	})
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyOTPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeVerificationError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeVerificationError(w, http.StatusBadRequest, "Email and code are required")
		return
	}

	session, err := h.verificationUsecase.VerifyCode(r.Context(), req.Email, req.Code)
	if err != nil {
		h.observe(func() { h.metrics.VerificationCodesTotal.WithLabelValues("verify", "failure").Inc() })

		switch {
		case errors.Is(err, usecase.ErrVerificationNotFound):
			writeVerificationError(w, http.StatusNotFound, "No active verification code. Please request a new code.")
		case errors.Is(err, usecase.ErrNoActiveCode):
			writeVerificationError(w, http.StatusBadRequest, "No active verification code. Please request a new code.")
		case errors.Is(err, usecase.ErrCodeExpired):
			writeVerificationError(w, http.StatusBadRequest, "Verification code has expired")
		case errors.Is(err, usecase.ErrInvalidCode):
			writeVerificationError(w, http.StatusBadRequest, "Invalid verification code")
		default:
			h.logger.Error().Err(err).Msg("failed to verify code")
			writeVerificationError(w, http.StatusInternalServerError, "Internal error")
		}
		return
	}

	h.observe(func() { h.metrics.VerificationCodesTotal.WithLabelValues("verify", "success").Inc() })

	writeJSON(w, http.StatusOK, payload.AuthResponse{
		Success: true,
		Token:   session.Token,
		User:    payload.NewUserResponse(session.User),
	})
}

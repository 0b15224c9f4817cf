package handler

import (
	"errors"
	"net/http"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/payload"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/usecase"
)

const forgotPasswordMessage = "If an account with that email exists, password reset instructions have been sent."

// ForgotPassword answers with the same message whether or not the account exists.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	if err := h.passwordResetUsecase.RequestPasswordReset(r.Context(), req.Email); err != nil {
		if errors.Is(err, usecase.ErrMailerNotConfigured) {
			h.writeInternalError(w, err, "Email service not configured", "EMAIL_NOT_CONFIGURED")
			return
		}
		h.writeInternalError(w, err, "Failed to process password reset request", "PASSWORD_RESET_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: forgotPasswordMessage})
}

func (h *Handler) ValidatePasswordResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Token is required", "MISSING_FIELDS")
		return
	}

	if err := h.passwordResetUsecase.ValidatePasswordResetToken(r.Context(), token); err != nil {
		h.writeResetTokenError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "Token is valid"})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	if err := h.passwordResetUsecase.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeResetTokenError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "Password has been reset successfully"})
}

func (h *Handler) writeResetTokenError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrTokenNotFound):
		writeError(w, http.StatusNotFound, "Password reset token not found", "TOKEN_NOT_FOUND")
	case errors.Is(err, usecase.ErrTokenAlreadyUsed):
		writeError(w, http.StatusConflict, "Password reset token has already been used", "TOKEN_ALREADY_USED")
	case errors.Is(err, usecase.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "Password reset token has expired", "TOKEN_EXPIRED")
	case errors.Is(err, usecase.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid password reset token", "INVALID_TOKEN")
	default:
		h.writeInternalError(w, err, "Failed to reset password", "PASSWORD_RESET_ERROR")
	}
}

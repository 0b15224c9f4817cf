package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/payload"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/usecase"
)

const oauthStateCookie = "oauth_state"

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.observe(func() { h.metrics.AuthRegistrationsTotal.WithLabelValues("invalid").Inc() })
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	pending, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.observe(func() { h.metrics.AuthRegistrationsTotal.WithLabelValues("failure").Inc() })

		var verr *usecase.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Message, verr.Code)
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			writeError(w, http.StatusBadRequest, "User already exists with this email", "USER_EXISTS")
		default:
			h.writeInternalError(w, err, "Internal server error", "REGISTRATION_ERROR")
		}
		return
	}

	h.observe(func() { h.metrics.AuthRegistrationsTotal.WithLabelValues("success").Inc() })

	writeJSON(w, http.StatusCreated, payload.RegisterResponse{
		Message:              "Signup started. Please verify your email.",
		Email:                pending.Email,
		RequiresVerification: true,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Email and password are required", "MISSING_FIELDS")
		return
	}

	session, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.observe(func() { h.metrics.AuthLoginsTotal.WithLabelValues("password", "failure").Inc() })

		switch {
		case errors.Is(err, usecase.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS")
		case errors.Is(err, usecase.ErrOAuthAccount):
			writeError(w, http.StatusUnauthorized,
				`This account was created with Google. Please use "Continue with Google" to sign in.`,
				"OAUTH_ACCOUNT")
		case errors.Is(err, usecase.ErrVerificationRequired):
			writeJSON(w, http.StatusForbidden, payload.ErrorResponse{
				Error:                "Email not verified",
				Code:                 "EMAIL_NOT_VERIFIED",
				RequiresVerification: true,
				Email:                strings.ToLower(strings.TrimSpace(req.Email)),
			})
		default:
			h.writeInternalError(w, err, "Internal server error", "LOGIN_ERROR")
		}
		return
	}

	h.observe(func() { h.metrics.AuthLoginsTotal.WithLabelValues("password", "success").Inc() })

	writeJSON(w, http.StatusOK, payload.AuthResponse{
		Message: "Login successful",
		Token:   session.Token,
		User:    payload.NewUserResponse(session.User),
	})
}

// Logout only acknowledges; sessions are stateless and the client drops its token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, payload.MessageResponse{Message: "Logout successful"})
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "No token provided", "UNAUTHORIZED")
		return
	}

	user, err := h.authUsecase.VerifySession(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUserNotFound):
			writeError(w, http.StatusUnauthorized, "User not found", "USER_NOT_FOUND")
		case errors.Is(err, usecase.ErrSessionInvalid), errors.Is(err, usecase.ErrSessionExpired):
			writeError(w, http.StatusUnauthorized, "Invalid token", "INVALID_TOKEN")
		default:
			h.writeInternalError(w, err, "Token verification failed", "AUTH_ERROR")
		}
		return
	}

	writeJSON(w, http.StatusOK, payload.VerifyResponse{User: payload.NewUserResponse(user)})
}

// GoogleRedirect sends the browser to Google's consent page. The state value is kept in a
// short-lived cookie and checked on the callback.
func (h *Handler) GoogleRedirect(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	authURL, err := h.authUsecase.GoogleAuthURL(state)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build google auth url")
		h.redirectToFrontend(w, r, url.Values{"error": {"Failed to initiate Google authentication"}})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   !h.config.Development,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, authURL, http.StatusFound)
}

// GoogleCallbackRedirect completes the browser flow and hands the session to the frontend
// through the redirect query string.
func (h *Handler) GoogleCallbackRedirect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if oauthErr := query.Get("error"); oauthErr != "" {
		h.logger.Warn().Str("error", oauthErr).Msg("google oauth returned an error")
		h.redirectToFrontend(w, r, url.Values{"error": {oauthErr}})
		return
	}

	code := query.Get("code")
	if code == "" {
		h.redirectToFrontend(w, r, url.Values{"error": {"No authorization code received"}})
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != query.Get("state") {
		h.logger.Warn().Msg("google oauth state mismatch")
		h.redirectToFrontend(w, r, url.Values{"error": {"Invalid authentication state"}})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	session, err := h.authUsecase.OAuthCallback(r.Context(), code)
	if err != nil {
		h.observe(func() { h.metrics.AuthLoginsTotal.WithLabelValues("google", "failure").Inc() })
		h.logger.Error().Err(err).Msg("google callback failed")
		h.redirectToFrontend(w, r, url.Values{"error": {"Authentication failed"}})
		return
	}

	h.observe(func() { h.metrics.AuthLoginsTotal.WithLabelValues("google", "success").Inc() })

	userJSON, err := json.Marshal(payload.NewUserResponse(session.User))
	if err != nil {
		h.redirectToFrontend(w, r, url.Values{"error": {"Authentication failed"}})
		return
	}

	h.redirectToFrontend(w, r, url.Values{
		"token": {session.Token},
		"user":  {string(userJSON)},
	})
}

func (h *Handler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	var req payload.GoogleCallbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Authorization code is required", "MISSING_FIELDS")
		return
	}

	session, err := h.authUsecase.OAuthCallback(r.Context(), req.Code)
	if err != nil {
		h.observe(func() { h.metrics.AuthLoginsTotal.WithLabelValues("google", "failure").Inc() })
		h.writeInternalError(w, err, "Google authentication failed", "GOOGLE_AUTH_ERROR")
		return
	}

	h.observe(func() { h.metrics.AuthLoginsTotal.WithLabelValues("google", "success").Inc() })

	writeJSON(w, http.StatusOK, payload.AuthResponse{
		Message: "Google authentication successful",
		Token:   session.Token,
		User:    payload.NewUserResponse(session.User),
	})
}

func (h *Handler) redirectToFrontend(w http.ResponseWriter, r *http.Request, query url.Values) {
	target := strings.TrimRight(h.config.FrontendURL, "/") + "/auth/google/callback?" + query.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

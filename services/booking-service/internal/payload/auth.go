package payload

import (
	"time"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
)

type RegisterRequest struct {
	Name     string `json:"name"     validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type RegisterResponse struct {
	Message              string `json:"message"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requiresVerification"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type GoogleCallbackRequest struct {
	Code string `json:"code" validate:"required"`
}

// AuthResponse is returned by every flow that opens a session.
type AuthResponse struct {
	Message string        `json:"message,omitempty"`
	Success bool          `json:"success,omitempty"`
	Token   string        `json:"token"`
	User    *UserResponse `json:"user"`
}

type VerifyResponse struct {
	User *UserResponse `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Avatar          string `json:"avatar,omitempty"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

func NewUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:              user.ID.Hex(),
		Name:            user.Name,
		Email:           user.Email,
		Avatar:          user.Avatar,
		IsEmailVerified: user.IsEmailVerified,
	}
}

type SendOTPRequest struct {
	Email string `json:"email" validate:"required"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required"`
	Code  string `json:"code"  validate:"required"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"    validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// ErrorResponse is the error body of every endpoint outside email verification.
type ErrorResponse struct {
	Error                string `json:"error"`
	Code                 string `json:"code,omitempty"`
	Details              string `json:"details,omitempty"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
	Email                string `json:"email,omitempty"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

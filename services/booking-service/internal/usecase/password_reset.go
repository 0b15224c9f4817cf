package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/repository"
	"github.com/vasapolrittideah/appointment-booking-api/shared/auth"
	"github.com/vasapolrittideah/appointment-booking-api/shared/security"
)

// PasswordResetUsecase defines the business logic for password reset token operations.
type PasswordResetUsecase interface {
	// RequestPasswordReset initiates the password reset process for a given email.
	// Unknown emails succeed silently.
	RequestPasswordReset(ctx context.Context, email string) error

	// ResetPassword sets a new password using a reset token from the emailed link.
	ResetPassword(ctx context.Context, token, newPassword string) error

	// ValidatePasswordResetToken checks that a reset token is genuine, unexpired and unused.
	ValidatePasswordResetToken(ctx context.Context, token string) error
}

// PasswordResetClaims are the claims carried by a password reset token. The JWT ID links the
// token to its stored record.
type PasswordResetClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ResetTokens signs and parses password reset tokens.
type ResetTokens interface {
	ExpiresIn() time.Duration
	RegisteredClaims(subject, id string) jwt.RegisteredClaims
	GenerateToken(claims jwt.Claims) (string, error)
	ValidateTokenWithClaims(token string, claims jwt.Claims) error
}

var (
	ErrTokenNotFound    = errors.New("password reset token not found")
	ErrTokenAlreadyUsed = errors.New("password reset token has already been used")
	ErrTokenExpired     = errors.New("password reset token has expired")
	ErrInvalidToken     = errors.New("invalid password reset token")
)

type passwordResetUsecase struct {
	logger    *zerolog.Logger
	userRepo  repository.UserRepository
	tokenRepo repository.PasswordResetTokenRepository
	tokens    ResetTokens
	mailer    Mailer
	resetURL  string
	now       func() time.Time
}

// NewPasswordResetUsecase creates a new instance of PasswordResetUsecase.
func NewPasswordResetUsecase(
	logger *zerolog.Logger,
	userRepo repository.UserRepository,
	tokenRepo repository.PasswordResetTokenRepository,
	tokens ResetTokens,
	mailer Mailer,
	resetURL string,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		logger:    logger,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		mailer:    mailer,
		resetURL:  resetURL,
		now:       time.Now,
	}
}

func (u *passwordResetUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			u.logger.Info().Str("email", email).Msg("password reset requested for unknown email")
			return nil
		}
		return err
	}

	if !u.mailer.Configured() {
		return ErrMailerNotConfigured
	}

	// Only the most recent link stays usable.
	if err := u.tokenRepo.InvalidateUserTokens(ctx, user.ID); err != nil {
		return err
	}

	tokenStr, jti, err := u.generatePasswordResetToken(user.ID.Hex(), user.Email)
	if err != nil {
		return err
	}

	if _, err := u.tokenRepo.CreateToken(ctx, &model.PasswordResetToken{
		JTI:       jti,
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: u.now().Add(u.tokens.ExpiresIn()),
	}); err != nil {
		return err
	}

	resetLink := fmt.Sprintf("%s?token=%s", u.resetURL, tokenStr)
	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset the password for your Auxin account.</p>
		<p>If you made this request, please click the link below to create a new password:</p>

		<p><a href="%s">%s</a></p>

		<p>This link will expire in %s.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>The Auxin Team</p>
	`, user.Name, resetLink, resetLink, u.tokens.ExpiresIn())

	if err := u.mailer.SendHTML([]string{user.Email}, "Password Reset Request", htmlBody); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	resetToken, err := u.checkToken(ctx, token)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	// Claim the token before touching the password so a link can only be spent once.
	if err := u.tokenRepo.MarkTokenAsUsed(ctx, resetToken.JTI); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTokenAlreadyUsed
		}
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, resetToken.UserID.Hex(), repository.UpdateUserParams{
		Password: &passwordHash,
	}); err != nil {
		return err
	}

	u.logger.Info().Str("user_id", resetToken.UserID.Hex()).Msg("password reset completed")

	return nil
}

func (u *passwordResetUsecase) ValidatePasswordResetToken(ctx context.Context, token string) error {
	_, err := u.checkToken(ctx, token)
	return err
}

// checkToken verifies the token signature and the state of its stored record.
func (u *passwordResetUsecase) checkToken(ctx context.Context, token string) (*model.PasswordResetToken, error) {
	claims := &PasswordResetClaims{}
	if err := u.tokens.ValidateTokenWithClaims(token, claims); err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims.ID == "" {
		return nil, ErrInvalidToken
	}

	resetToken, err := u.tokenRepo.GetTokenByJTI(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	if resetToken.Used {
		return nil, ErrTokenAlreadyUsed
	}

	if u.now().After(resetToken.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	return resetToken, nil
}

// generatePasswordResetToken creates a password reset JWT token with a unique JTI.
func (u *passwordResetUsecase) generatePasswordResetToken(userID, email string) (string, string, error) {
	jti, err := generateJTI()
	if err != nil {
		return "", "", err
	}

	tokenStr, err := u.tokens.GenerateToken(PasswordResetClaims{
		UserID:           userID,
		Email:            email,
		RegisteredClaims: u.tokens.RegisteredClaims(userID, jti),
	})
	if err != nil {
		return "", "", err
	}

	return tokenStr, jti, nil
}

// generateJTI generates a unique JTI.
func generateJTI() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

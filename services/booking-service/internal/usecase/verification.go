package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/repository"
	"github.com/vasapolrittideah/appointment-booking-api/shared/security"
)

// VerificationCodeTTL is how long an issued code stays valid.
const VerificationCodeTTL = 2 * time.Minute

// Mailer sends HTML email.
type Mailer interface {
	Configured() bool
	SendHTML(to []string, subject, htmlBody string) error
}

// SessionTokens issues and validates session tokens.
type SessionTokens interface {
	GenerateSessionToken(userID, email string) (string, error)
}

// Session is an authenticated user together with its session token.
type Session struct {
	Token string
	User  *model.User
}

// VerificationUsecase drives the pending signup and email code lifecycle.
type VerificationUsecase interface {
	// StartSignup records a pending registration, replacing any earlier one for the same email.
	StartSignup(ctx context.Context, params StartSignupParams) (*model.PendingUser, error)

	// IssueCode generates a fresh code for a user or pending signup and emails it.
	IssueCode(ctx context.Context, email string) error

	// VerifyCode checks a code and, on success, marks the account verified and opens a session.
	VerifyCode(ctx context.Context, email, code string) (*Session, error)
}

// StartSignupParams defines the parameters for a new registration.
type StartSignupParams struct {
	Name     string
	Email    string
	Password string
}

var (
	ErrUserAlreadyExists    = errors.New("user already exists with this email")
	ErrMailerNotConfigured  = errors.New("email service not configured")
	ErrSignupNotFound       = errors.New("no signup found for this email")
	ErrCodeDelivery         = errors.New("failed to send verification code")
	ErrVerificationNotFound = errors.New("no account found for this email")
	ErrNoActiveCode         = errors.New("no active verification code, please request a new code")
	ErrCodeExpired          = errors.New("verification code has expired")
	ErrInvalidCode          = errors.New("invalid verification code")
)

type verificationUsecase struct {
	accountLookup
	logger       *zerolog.Logger
	mailer       Mailer
	tokens       SessionTokens
	now          func() time.Time
	generateCode func() (string, error)
}

func NewVerificationUsecase(
	logger *zerolog.Logger,
	userRepo repository.UserRepository,
	pendingUserRepo repository.PendingUserRepository,
	mailer Mailer,
	tokens SessionTokens,
) VerificationUsecase {
	return &verificationUsecase{
		accountLookup: accountLookup{
			userRepo:        userRepo,
			pendingUserRepo: pendingUserRepo,
		},
		logger:       logger,
		mailer:       mailer,
		tokens:       tokens,
		now:          time.Now,
		generateCode: generateVerificationCode,
	}
}

func (u *verificationUsecase) StartSignup(
	ctx context.Context,
	params StartSignupParams,
) (*model.PendingUser, error) {
	name := strings.TrimSpace(params.Name)
	email := normalizeEmail(params.Email)
	if name == "" || email == "" || params.Password == "" {
		return nil, newValidationError(CodeMissingFields, "All fields are required")
	}

	_, err := u.userRepo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	return u.pendingUserRepo.UpsertPendingUser(ctx, &model.PendingUser{
		Name:     name,
		Email:    email,
		Password: passwordHash,
	})
}

func (u *verificationUsecase) IssueCode(ctx context.Context, email string) error {
	if !u.mailer.Configured() {
		return ErrMailerNotConfigured
	}

	email = normalizeEmail(email)

	account, err := u.lookupAccount(ctx, email)
	if err != nil {
		return err
	}

	if account.Kind == AccountNotFound {
		return ErrSignupNotFound
	}

	code, err := u.generateCode()
	if err != nil {
		return err
	}
	expiresAt := u.now().Add(VerificationCodeTTL)

	if account.Kind == AccountPending {
		if err := u.pendingUserRepo.SetVerificationCode(ctx, email, code, expiresAt); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrSignupNotFound
			}
			return err
		}
	} else {
		if _, err := u.userRepo.UpdateUser(ctx, account.User.ID.Hex(), repository.UpdateUserParams{
			VerificationCode:    &code,
			VerificationExpires: &expiresAt,
		}); err != nil {
			return err
		}
	}

	if err := u.mailer.SendHTML([]string{email}, "Your Auxin Verification Code", verificationEmailBody(code)); err != nil {
		u.logger.Error().Err(err).Str("email", email).Msg("failed to deliver verification code")
		return fmt.Errorf("%w: %v", ErrCodeDelivery, err)
	}

	return nil
}

func (u *verificationUsecase) VerifyCode(ctx context.Context, email, code string) (*Session, error) {
	email = normalizeEmail(email)

	account, err := u.lookupAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	var (
		storedCode string
		expiresAt  *time.Time
	)

	switch account.Kind {
	case AccountNotFound:
		return nil, ErrVerificationNotFound
	case AccountVerified:
		return u.openSession(account.User)
	case AccountRegisteredUnverified:
		storedCode, expiresAt = account.User.EmailVerificationCode, account.User.EmailVerificationExpires
	case AccountPending:
		storedCode, expiresAt = account.Pending.EmailVerificationCode, account.Pending.EmailVerificationExpires
	}

	if storedCode == "" || expiresAt == nil {
		return nil, ErrNoActiveCode
	}

	if u.now().After(*expiresAt) {
		return nil, ErrCodeExpired
	}

	if subtle.ConstantTimeCompare([]byte(storedCode), []byte(code)) != 1 {
		return nil, ErrInvalidCode
	}

	var user *model.User
	if account.Kind == AccountPending {
		user, err = u.promote(ctx, account.Pending)
	} else {
		verified := true
		user, err = u.userRepo.UpdateUser(ctx, account.User.ID.Hex(), repository.UpdateUserParams{
			IsEmailVerified:       &verified,
			ClearVerificationCode: true,
		})
	}
	if err != nil {
		return nil, err
	}

	return u.openSession(user)
}

// promote turns a pending signup into a verified user. The user is created first; if the pending
// record cannot be removed afterwards the signup still succeeds, since a later lookup prefers the user.
func (u *verificationUsecase) promote(ctx context.Context, pending *model.PendingUser) (*model.User, error) {
	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:            pending.Name,
		Email:           pending.Email,
		Password:        pending.Password,
		IsEmailVerified: true,
	})
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}

		// Promoted concurrently by another request.
		user, err = u.userRepo.GetUserByEmail(ctx, pending.Email)
		if err != nil {
			return nil, err
		}
	}

	if err := u.pendingUserRepo.DeletePendingUser(ctx, pending.Email); err != nil {
		u.logger.Error().Err(err).Str("email", pending.Email).Msg("failed to delete promoted pending user")
	}

	return user, nil
}

func (u *verificationUsecase) openSession(user *model.User) (*Session, error) {
	token, err := u.tokens.GenerateSessionToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, User: user}, nil
}

// generateVerificationCode returns a uniformly random six digit code.
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func verificationEmailBody(code string) string {
	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto">
	<div style="background:#000;padding:20px;text-align:center">
		<h1 style="color:#39FF14;margin:0">AUXIN</h1>
	</div>
	<div style="background:#fff;padding:30px">
		<h2 style="color:#333;margin-top:0">Verify Your Email</h2>
		<p style="color:#666;font-size:16px">Thank you for signing up! Please enter the following verification code to complete your registration:</p>
		<div style="background:#f5f5f5;border:2px solid #39FF14;padding:20px;text-align:center;margin:30px 0;border-radius:8px">
			<div style="font-size:32px;letter-spacing:12px;font-weight:bold;color:#39FF14;font-family:'Courier New',monospace">%s</div>
		</div>
		<p style="color:#666;font-size:14px">This code will expire in %d minutes.</p>
		<p style="color:#999;font-size:12px;margin-top:30px;padding-top:20px;border-top:1px solid #eee">If you didn't create an account with Auxin, please ignore this email.</p>
	</div>
</div>`, code, int(VerificationCodeTTL.Minutes()))
}

package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/repository"
	"github.com/vasapolrittideah/appointment-booking-api/shared/auth"
	"github.com/vasapolrittideah/appointment-booking-api/shared/provider"
	"github.com/vasapolrittideah/appointment-booking-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.PendingUser, error)
	Login(ctx context.Context, params LoginParams) (*Session, error)
	GoogleAuthURL(state string) (string, error)
	OAuthCallback(ctx context.Context, code string) (*Session, error)
	VerifySession(ctx context.Context, token string) (*model.User, error)
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// SessionValidator validates session tokens.
type SessionValidator interface {
	SessionTokens
	ValidateSessionToken(token string) (*auth.SessionClaims, error)
}

// OAuthProvider runs an authorization code flow against an identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*provider.UserInfo, error)
}

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrVerificationRequired = errors.New("email not verified")
	ErrOAuthAccount         = errors.New("this account was created with Google, please use \"Continue with Google\" to sign in")
	ErrOAuthNotConfigured   = errors.New("google sign-in is not configured")
	ErrOAuthExchange        = errors.New("google authentication failed")
	ErrSessionInvalid       = errors.New("invalid or expired token")
	ErrSessionExpired       = errors.New("token has expired")
	ErrUserNotFound         = errors.New("user not found")
)

type authUsecase struct {
	accountLookup
	logger       *zerolog.Logger
	verification VerificationUsecase
	tokens       SessionValidator
	oauth        OAuthProvider
}

// NewAuthUsecase creates an AuthUsecase. oauth may be nil when Google sign-in is not configured.
func NewAuthUsecase(
	logger *zerolog.Logger,
	userRepo repository.UserRepository,
	pendingUserRepo repository.PendingUserRepository,
	verification VerificationUsecase,
	tokens SessionValidator,
	oauth OAuthProvider,
) AuthUsecase {
	return &authUsecase{
		accountLookup: accountLookup{
			userRepo:        userRepo,
			pendingUserRepo: pendingUserRepo,
		},
		logger:       logger,
		verification: verification,
		tokens:       tokens,
		oauth:        oauth,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.PendingUser, error) {
	return u.verification.StartSignup(ctx, StartSignupParams(params))
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*Session, error) {
	email := normalizeEmail(params.Email)

	account, err := u.lookupAccount(ctx, email)
	if err != nil {
		return nil, err
	}

	switch account.Kind {
	case AccountNotFound:
		return nil, ErrInvalidCredentials
	case AccountPending:
		ok, err := security.VerifyPassword(params.Password, account.Pending.Password)
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, ErrVerificationRequired
		}
		return nil, ErrInvalidCredentials
	}

	user := account.User
	if !user.HasPassword() {
		return nil, ErrOAuthAccount
	}

	ok, err := security.VerifyPassword(params.Password, user.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if account.Kind == AccountRegisteredUnverified {
		return nil, ErrVerificationRequired
	}

	if !security.IsHashed(user.Password) {
		u.upgradePassword(ctx, user, params.Password)
	}

	return u.openSession(user)
}

func (u *authUsecase) GoogleAuthURL(state string) (string, error) {
	if u.oauth == nil {
		return "", ErrOAuthNotConfigured
	}

	return u.oauth.AuthCodeURL(state), nil
}

func (u *authUsecase) OAuthCallback(ctx context.Context, code string) (*Session, error) {
	if u.oauth == nil {
		return nil, ErrOAuthNotConfigured
	}

	info, err := u.oauth.Exchange(ctx, code)
	if err != nil {
		u.logger.Error().Err(err).Msg("failed to exchange google authorization code")
		return nil, ErrOAuthExchange
	}

	email := normalizeEmail(info.Email)

	user, err := u.userRepo.GetUserByEmailOrGoogleID(ctx, email, info.GoogleID)
	switch {
	case err == nil:
		if user.GoogleID == "" {
			user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
				GoogleID: &info.GoogleID,
				Avatar:   &info.Avatar,
			})
			if err != nil {
				return nil, err
			}
		}
	case errors.Is(err, mongo.ErrNoDocuments):
		user, err = u.createOAuthUser(ctx, email, info)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return u.openSession(user)
}

func (u *authUsecase) VerifySession(ctx context.Context, token string) (*model.User, error) {
	claims, err := u.tokens.ValidateSessionToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, ErrSessionInvalid
	}

	user, err := u.userRepo.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, repository.ErrInvalidID) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

func (u *authUsecase) createOAuthUser(ctx context.Context, email string, info *provider.UserInfo) (*model.User, error) {
	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:            info.Name,
		Email:           email,
		GoogleID:        info.GoogleID,
		Avatar:          info.Avatar,
		IsEmailVerified: true,
	})
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}

		user, err = u.userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
	}

	// Google has verified the address, so an abandoned password signup no longer applies.
	if err := u.pendingUserRepo.DeletePendingUser(ctx, email); err != nil {
		u.logger.Warn().Err(err).Str("email", email).Msg("failed to delete pending user after google sign-in")
	}

	return user, nil
}

// upgradePassword replaces a legacy plaintext password with its hash. Failure leaves the
// login unaffected.
func (u *authUsecase) upgradePassword(ctx context.Context, user *model.User, password string) {
	hash, err := security.HashPassword(password)
	if err != nil {
		u.logger.Error().Err(err).Msg("failed to hash legacy password")
		return
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{Password: &hash}); err != nil {
		u.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to upgrade legacy password")
		return
	}

	u.logger.Info().Str("user_id", user.ID.Hex()).Msg("upgraded legacy password hash")
}

func (u *authUsecase) openSession(user *model.User) (*Session, error) {
	token, err := u.tokens.GenerateSessionToken(user.ID.Hex(), user.Email)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, User: user}, nil
}

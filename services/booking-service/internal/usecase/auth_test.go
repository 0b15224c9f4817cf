package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/appointment-booking-api/services/booking-service/internal/model"
	"github.com/vasapolrittideah/appointment-booking-api/shared/auth"
	"github.com/vasapolrittideah/appointment-booking-api/shared/logger"
	"github.com/vasapolrittideah/appointment-booking-api/shared/provider"
	"github.com/vasapolrittideah/appointment-booking-api/shared/security"
)

type fakeOAuthProvider struct {
	info *provider.UserInfo
	err  error
}

func (p *fakeOAuthProvider) AuthCodeURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (p *fakeOAuthProvider) Exchange(_ context.Context, _ string) (*provider.UserInfo, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.info, nil
}

type authFixture struct {
	users   *fakeUserRepo
	pending *fakePendingUserRepo
	tokens  *auth.JWTAuthenticator
	oauth   *fakeOAuthProvider
	usecase AuthUsecase
}

func newAuthFixture(t *testing.T, users []*model.User, pending []*model.PendingUser) *authFixture {
	t.Helper()

	f := &authFixture{
		users:   newFakeUserRepo(users...),
		pending: newFakePendingUserRepo(pending...),
		tokens:  auth.NewJWTAuthenticator("test-secret", "booking-service", "booking-clients", time.Hour),
		oauth:   &fakeOAuthProvider{},
	}

	verification := NewVerificationUsecase(logger.Nop(), f.users, f.pending, &fakeMailer{configured: true}, f.tokens)
	f.usecase = NewAuthUsecase(logger.Nop(), f.users, f.pending, verification, f.tokens, f.oauth)

	return f
}

func mustHash(t *testing.T, password string) string {
	t.Helper()

	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	return hash
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t, nil, nil)

	pending, err := f.usecase.Register(context.Background(), RegisterParams{
		Name:     "Ada",
		Email:    "Ada@Example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", pending.Email)
	assert.Nil(t, f.users.byEmail("ada@example.com"))
}

func TestLogin(t *testing.T) {
	hash := mustHash(t, "secret1")

	verified := &model.User{Name: "Ada", Email: "ada@example.com", Password: hash, IsEmailVerified: true}
	unverified := &model.User{Name: "Bob", Email: "bob@example.com", Password: hash}
	google := &model.User{Name: "Cy", Email: "cy@example.com", GoogleID: "g-1", IsEmailVerified: true}
	pending := &model.PendingUser{Name: "Di", Email: "di@example.com", Password: hash}

	f := newAuthFixture(t, []*model.User{verified, unverified, google}, []*model.PendingUser{pending})
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"success", " ADA@example.com", "secret1", nil},
		{"wrong password", "ada@example.com", "nope", ErrInvalidCredentials},
		{"unknown email", "eve@example.com", "secret1", ErrInvalidCredentials},
		{"unverified user", "bob@example.com", "secret1", ErrVerificationRequired},
		{"unverified user wrong password", "bob@example.com", "nope", ErrInvalidCredentials},
		{"google account", "cy@example.com", "secret1", ErrOAuthAccount},
		{"pending signup", "di@example.com", "secret1", ErrVerificationRequired},
		{"pending signup wrong password", "di@example.com", "nope", ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := f.usecase.Login(ctx, LoginParams{Email: tt.email, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ada@example.com", session.User.Email)

			claims, err := f.tokens.ValidateSessionToken(session.Token)
			require.NoError(t, err)
			assert.Equal(t, session.User.ID.Hex(), claims.UserID)
		})
	}
}

func TestLogin_UpgradesLegacyPassword(t *testing.T) {
	legacy := &model.User{Email: "ada@example.com", Password: "plain-secret", IsEmailVerified: true}
	f := newAuthFixture(t, []*model.User{legacy}, nil)

	_, err := f.usecase.Login(context.Background(), LoginParams{Email: "ada@example.com", Password: "plain-secret"})
	require.NoError(t, err)

	stored := f.users.byEmail("ada@example.com")
	assert.True(t, security.IsHashed(stored.Password))

	_, err = f.usecase.Login(context.Background(), LoginParams{Email: "ada@example.com", Password: "plain-secret"})
	assert.NoError(t, err)
}

func TestOAuthCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a verified user and drops a pending signup", func(t *testing.T) {
		f := newAuthFixture(t, nil, []*model.PendingUser{{Email: "ada@example.com", Password: "x"}})
		f.oauth.info = &provider.UserInfo{GoogleID: "g-1", Email: "Ada@Example.com", Name: "Ada", Avatar: "https://img/a.png"}

		session, err := f.usecase.OAuthCallback(ctx, "code")
		require.NoError(t, err)

		assert.Equal(t, "ada@example.com", session.User.Email)
		assert.True(t, session.User.IsEmailVerified)
		assert.Equal(t, "g-1", session.User.GoogleID)
		assert.False(t, session.User.HasPassword())
		assert.Nil(t, f.pending.get("ada@example.com"))
	})

	t.Run("links google to an existing password account", func(t *testing.T) {
		existing := &model.User{Email: "ada@example.com", Password: "hash", IsEmailVerified: true}
		f := newAuthFixture(t, []*model.User{existing}, nil)
		f.oauth.info = &provider.UserInfo{GoogleID: "g-1", Email: "ada@example.com", Avatar: "https://img/a.png"}

		session, err := f.usecase.OAuthCallback(ctx, "code")
		require.NoError(t, err)

		assert.Equal(t, existing.ID, session.User.ID)
		assert.Equal(t, "g-1", session.User.GoogleID)
		assert.Equal(t, "https://img/a.png", session.User.Avatar)
		assert.Equal(t, "hash", session.User.Password)
	})

	t.Run("keeps an existing google link", func(t *testing.T) {
		existing := &model.User{Email: "ada@example.com", GoogleID: "g-1", Avatar: "old.png", IsEmailVerified: true}
		f := newAuthFixture(t, []*model.User{existing}, nil)
		f.oauth.info = &provider.UserInfo{GoogleID: "g-1", Email: "ada@example.com", Avatar: "new.png"}

		session, err := f.usecase.OAuthCallback(ctx, "code")
		require.NoError(t, err)
		assert.Equal(t, "old.png", session.User.Avatar)
	})

	t.Run("exchange failure", func(t *testing.T) {
		f := newAuthFixture(t, nil, nil)
		f.oauth.err = errors.New("invalid_grant")

		_, err := f.usecase.OAuthCallback(ctx, "code")
		assert.ErrorIs(t, err, ErrOAuthExchange)
	})

	t.Run("not configured", func(t *testing.T) {
		f := newAuthFixture(t, nil, nil)
		u := NewAuthUsecase(logger.Nop(), f.users, f.pending, nil, f.tokens, nil)

		_, err := u.OAuthCallback(ctx, "code")
		assert.ErrorIs(t, err, ErrOAuthNotConfigured)

		_, err = u.GoogleAuthURL("state")
		assert.ErrorIs(t, err, ErrOAuthNotConfigured)
	})
}

func TestVerifySession(t *testing.T) {
	user := &model.User{Email: "ada@example.com", IsEmailVerified: true}
	f := newAuthFixture(t, []*model.User{user}, nil)
	ctx := context.Background()

	token, err := f.tokens.GenerateSessionToken(user.ID.Hex(), user.Email)
	require.NoError(t, err)

	got, err := f.usecase.VerifySession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.usecase.VerifySession(ctx, "garbage")
	assert.ErrorIs(t, err, ErrSessionInvalid)

	ghost, err := f.tokens.GenerateSessionToken(bson.NewObjectID().Hex(), "ghost@example.com")
	require.NoError(t, err)
	_, err = f.usecase.VerifySession(ctx, ghost)
	assert.ErrorIs(t, err, ErrUserNotFound)

	malformed, err := f.tokens.GenerateSessionToken("not-an-object-id", "ghost@example.com")
	require.NoError(t, err)
	_, err = f.usecase.VerifySession(ctx, malformed)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifySession_Expired(t *testing.T) {
	user := &model.User{Email: "ada@example.com"}
	f := newAuthFixture(t, []*model.User{user}, nil)

	issuedAt := time.Now().Add(-2 * time.Hour)
	old := auth.NewJWTAuthenticator("test-secret", "booking-service", "booking-clients", time.Hour).
		WithClock(func() time.Time { return issuedAt })

	token, err := old.GenerateSessionToken(user.ID.Hex(), user.Email)
	require.NoError(t, err)

	_, err = f.usecase.VerifySession(context.Background(), token)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

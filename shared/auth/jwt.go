package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTAuthenticator issues and validates HS256 signed tokens for a single secret.
type JWTAuthenticator struct {
	secret    []byte
	issuer    string
	audience  string
	expiresIn time.Duration
	now       func() time.Time
}

// NewJWTAuthenticator creates a new JWTAuthenticator instance.
func NewJWTAuthenticator(secret, issuer, audience string, expiresIn time.Duration) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (a *JWTAuthenticator) WithClock(now func() time.Time) *JWTAuthenticator {
	a.now = now
	return a
}

// ExpiresIn returns the lifetime of tokens issued by this authenticator.
func (a *JWTAuthenticator) ExpiresIn() time.Duration {
	return a.expiresIn
}

// RegisteredClaims builds the standard claims for a new token about subject.
func (a *JWTAuthenticator) RegisteredClaims(subject, id string) jwt.RegisteredClaims {
	now := a.now()
	return jwt.RegisteredClaims{
		ID:        id,
		Subject:   subject,
		Issuer:    a.issuer,
		Audience:  jwt.ClaimStrings{a.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.expiresIn)),
	}
}

// GenerateToken signs the given claims.
func (a *JWTAuthenticator) GenerateToken(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenStr, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	return tokenStr, nil
}

// ValidateTokenWithClaims validates a token and parses it into claims, which must be a pointer.
// Expired tokens return ErrTokenExpired, everything else that fails returns ErrInvalidToken.
func (a *JWTAuthenticator) ValidateTokenWithClaims(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return a.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(a.audience),
		jwt.WithIssuer(a.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return ErrInvalidToken
	}

	return nil
}

// GenerateSessionToken issues a session token for the given user.
func (a *JWTAuthenticator) GenerateSessionToken(userID, email string) (string, error) {
	return a.GenerateToken(SessionClaims{
		UserID:           userID,
		Email:            email,
		RegisteredClaims: a.RegisteredClaims(userID, ""),
	})
}

// ValidateSessionToken validates a session token and returns its claims.
func (a *JWTAuthenticator) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := a.ValidateTokenWithClaims(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

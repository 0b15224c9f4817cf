package provider

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleoauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

var (
	ErrMissingGoogleConfig = errors.New("missing google oauth configuration")
	ErrMissingGoogleEmail  = errors.New("google account has no email address")
)

// GoogleConfig holds the OAuth client credentials registered with Google.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URI"`
}

// UserInfo is the subset of the Google profile the service relies on.
type UserInfo struct {
	GoogleID string
	Email    string
	Name     string
	Avatar   string
}

// GoogleOAuthProvider runs the authorization code flow against Google.
type GoogleOAuthProvider struct {
	config *oauth2.Config
}

// NewGoogleOAuthProvider creates a provider for the given client credentials.
func NewGoogleOAuthProvider(cfg GoogleConfig) (*GoogleOAuthProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, ErrMissingGoogleConfig
	}

	return &GoogleOAuthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes: []string{
				googleoauth2.UserinfoEmailScope,
				googleoauth2.UserinfoProfileScope,
			},
		},
	}, nil
}

// AuthCodeURL returns the consent page URL for the given state.
func (p *GoogleOAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(
		state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for the user's Google profile.
func (p *GoogleOAuthProvider) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	oauth2Service, err := googleoauth2.NewService(ctx, option.WithTokenSource(p.config.TokenSource(ctx, token)))
	if err != nil {
		return nil, err
	}

	userInfo, err := oauth2Service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch google user info: %w", err)
	}

	if userInfo.Email == "" {
		return nil, ErrMissingGoogleEmail
	}

	return &UserInfo{
		GoogleID: userInfo.Id,
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Avatar:   userInfo.Picture,
	}, nil
}

package spotify

import (
	"context"
	"fmt"

	"github.com/desertthunder/trackline/internal/shared"
	"golang.org/x/oauth2"
)

const (
	authURL  = "https://accounts.spotify.com/authorize"
	tokenURL = "https://accounts.spotify.com/api/token"
)

// Authenticator performs the two token-endpoint exchanges of the
// authorization-code flow. It holds no session state; callers apply the
// returned grants to a session themselves.
type Authenticator struct {
	config *oauth2.Config
}

// NewAuthenticator creates an Authenticator from client credentials.
func NewAuthenticator(clientID, clientSecret, redirectURI string) (*Authenticator, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	if redirectURI == "" {
		redirectURI = "http://localhost:5000/callback"
	}

	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes: []string{
				"playlist-read-private",
				"playlist-read-collaborative",
				"user-library-read",
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
	}, nil
}

// AuthCodeURL returns the provider login URL for the given state nonce.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a credential set.
//
// A grant without an access token is treated the same as a rejected
// exchange.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: provider returned no access token", shared.ErrAuthFailed)
	}
	return token, nil
}

// Refresh trades a refresh token for a new credential set.
//
// The provider may omit a replacement refresh token; oauth2 carries the
// prior one forward so the caller never loses it.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	source := a.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: provider returned no access token", shared.ErrRefreshFailed)
	}
	return token, nil
}

// ABOUTME: Intercom OAuth authorization URL generation and code exchange
// ABOUTME: Codes are traded at Intercom's nonstandard eagle token endpoint
package oauth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// Endpoint describes Intercom's OAuth endpoints.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://app.intercom.com/oauth",
	TokenURL:  "https://api.intercom.io/auth/eagle/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Flow drives the authorization-code flow against Intercom.
type Flow struct {
	config *oauth2.Config
}

func NewFlow(clientID, clientSecret, redirectURL string) *Flow {
	return &Flow{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     Endpoint,
		},
	}
}

// AuthorizeURL returns the URL the user visits to grant workspace access.
// The state is round-tripped back to the redirect URL unchanged.
func (f *Flow) AuthorizeURL(state string) string {
	return f.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (f *Flow) Exchange(ctx context.Context, code string) (string, error) {
	token, err := f.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token.AccessToken, nil
}

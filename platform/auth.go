package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/brandrank/audit-backend/models"
)

// Auth implements AuthProvider against the hosted auth endpoints.
type Auth struct {
	client *Client
}

func NewAuth(client *Client) *Auth {
	return &Auth{client: client}
}

// Me returns the user behind a session token. An empty or rejected token
// yields an authentication ServiceError (category authentication).
func (a *Auth) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := a.client.do(ctx, http.MethodGet, "/auth/me", nil, nil, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// LoginRedirectURL builds the hosted login URL that returns the user to the
// page that required authentication.
func (a *Auth) LoginRedirectURL(returnURL string) string {
	query := url.Values{}
	query.Set("from_url", returnURL)
	return a.client.baseURL + "/login?" + query.Encode()
}

func (a *Auth) Logout(ctx context.Context, token string) error {
	return a.client.do(ctx, http.MethodPost, "/auth/logout", nil, nil, token, nil)
}

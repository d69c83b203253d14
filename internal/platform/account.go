package platform

import (
	"context"
	"net/http"

	"github.com/execos/execos/internal/model"
)

// Account provides access to the platform's auth endpoints.
type Account struct {
	client *Client
}

// NewAccount creates an Account service over the client.
func NewAccount(c *Client) *Account {
	return &Account{client: c}
}

// Session is an authenticated platform session: the user plus the
// bearer token future requests must carry.
type Session struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a new user account and returns a fresh session.
func (a *Account) Register(ctx context.Context, email, password, name string) (*Session, error) {
	req := registerRequest{Email: email, Password: password, Name: name}

	var session Session
	if err := a.client.do(ctx, "auth.register", http.MethodPost, "/v1/auth/register", nil, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Login exchanges credentials for a session.
func (a *Account) Login(ctx context.Context, email, password string) (*Session, error) {
	req := loginRequest{Email: email, Password: password}

	var session Session
	if err := a.client.do(ctx, "auth.login", http.MethodPost, "/v1/auth/login", nil, req, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout invalidates the session token the client currently carries.
func (a *Account) Logout(ctx context.Context) error {
	return a.client.do(ctx, "auth.logout", http.MethodPost, "/v1/auth/logout", nil, nil, nil)
}

// Me returns the user the current session token belongs to.
func (a *Account) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := a.client.do(ctx, "auth.me", http.MethodGet, "/v1/auth/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Role is the account role returned by the backend
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents the account record the backend returns
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Credentials represents the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration represents the register request body
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the data payload of login and register
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// ErrIncompleteAuth is returned when a 2xx auth response lacks the token or user.
var ErrIncompleteAuth = errors.New("authentication response is missing token or user")

func (r *AuthResponse) validate() error {
	if r.Token == "" || r.User.ID == 0 {
		return ErrIncompleteAuth
	}
	return nil
}

// Login authenticates the user and returns the token and user record
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPost, "/auth/login", "", creds, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account; the returned session is immediately usable
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.send(ctx, http.MethodPost, "/auth/register", "", reg, &resp); err != nil {
		return nil, err
	}
	if err := resp.validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Me returns the user the stored token belongs to. Both `{"user": {...}}` and
// a bare user object are accepted as the data payload.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, ErrIncompleteAuth
	}
	return &user, nil
}

// Logout asks the backend to invalidate token. Callers treat it as best effort.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.send(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

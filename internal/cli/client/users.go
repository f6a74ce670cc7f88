package client

import (
	"context"
	"fmt"
	"net/http"
)

// ListUsers returns every account (admin only)
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUserRole changes a user's role (admin only)
func (c *Client) UpdateUserRole(ctx context.Context, id int64, role Role) (*User, error) {
	body := map[string]Role{"role": role}
	var user User
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/role", id), body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user by ID (admin only)
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
}

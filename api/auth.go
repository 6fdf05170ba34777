package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// ErrMissingToken is returned by Login when a 2xx response carries no token.
var ErrMissingToken = errors.New("api: login response without token")

// Login exchanges credentials for an identity.
func (c *Client) Login(ctx context.Context, email, password string) (Identity, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return Identity{}, err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{Token: env.Token, Role: env.Role, DisplayName: env.DisplayName}
	if id.Token == "" && env.User != nil {
		id = *env.User
	}
	if id.Token == "" {
		return Identity{}, ErrMissingToken
	}
	return id, nil
}

// Register creates an account and returns the backend's confirmation message. The
// account still has to sign in.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/register", reg)
	if err != nil {
		return "", err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ForgotPassword asks the backend to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/forgot-password", map[string]string{"email": email})
	if err != nil {
		return "", err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// ResetPassword sets a new password using the token from the reset link.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	req, err := jsonRequest(http.MethodPut, "/auth/reset-password/"+url.PathEscape(token), map[string]string{"password": password})
	if err != nil {
		return "", err
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

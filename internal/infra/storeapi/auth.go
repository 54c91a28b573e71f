package storeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pastita/storefront-bfa-go/internal/domain"
)

// --- Auth API (implements port.AuthGateway) ---

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an upstream token plus profile.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Login, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.Login")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodPost, c.rootPath("/auth/login/"), "", "login", loginPayload{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var login domain.Login
	if err := json.Unmarshal(body, &login); err != nil {
		return nil, &domain.ErrUpstream{Endpoint: "login", Err: fmt.Errorf("decode: %w", err)}
	}
	return &login, nil
}

// Register creates an account; the upstream signs the new user in and
// returns the same shape as login.
func (c *Client) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Login, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.Register")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodPost, c.rootPath("/auth/register/"), "", "register", req)
	if err != nil {
		return nil, err
	}

	var login domain.Login
	if err := json.Unmarshal(body, &login); err != nil {
		return nil, &domain.ErrUpstream{Endpoint: "register", Err: fmt.Errorf("decode: %w", err)}
	}
	return &login, nil
}

// Logout revokes the upstream token. Callers clear local state regardless of
// the result.
func (c *Client) Logout(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "StoreAPI.Logout")
	defer span.End()

	_, err := c.doRequest(ctx, http.MethodPost, c.rootPath("/auth/logout/"), token, "logout", nil)
	return err
}

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.GetProfile")
	defer span.End()

	var user domain.User
	if err := c.getWithResilience(ctx, c.rootPath("/users/profile/"), token, "profile", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile patches the profile with the non-nil fields of update.
func (c *Client) UpdateProfile(ctx context.Context, token string, update *domain.ProfileUpdate) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "StoreAPI.UpdateProfile")
	defer span.End()

	body, err := c.doRequest(ctx, http.MethodPatch, c.rootPath("/users/profile/"), token, "profile", update)
	if err != nil {
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &domain.ErrUpstream{Endpoint: "profile", Err: fmt.Errorf("decode: %w", err)}
	}
	return &user, nil
}

package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

// SignUp creates an email/password account. A non-empty displayName is set
// with a follow-up profile update.
func (c *Client) SignUp(ctx context.Context, email, password, displayName string) (*model.User, error) {
	resp, err := c.authenticate(ctx, "/api/auth/signup", map[string]string{"email": email, "password": password}, false)
	if err != nil {
		return nil, err
	}
	user := resp.User
	if displayName != "" {
		updated, err := c.UpdateProfile(ctx, &displayName, nil)
		if err != nil {
			slog.Warn("failed to set display name after sign up", "error", err)
		} else {
			user = *updated
		}
	}
	c.tokens.Set(Session{Token: c.tokens.Token(), ExpiresAt: expiry(resp.ExpiresAt), User: user}, true)
	return &user, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	resp, err := c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password}, true)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// SignInWithGoogle exchanges a Google ID token for a session
func (c *Client) SignInWithGoogle(ctx context.Context, idToken string) (*model.User, error) {
	resp, err := c.authenticate(ctx, "/api/auth/google", map[string]string{"id_token": idToken}, true)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) authenticate(ctx context.Context, path string, body any, notify bool) (*model.AuthResponse, error) {
	var resp model.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	c.tokens.Set(Session{Token: resp.Token, ExpiresAt: expiry(resp.ExpiresAt), User: resp.User}, notify)
	return &resp, nil
}

// Refresh forces a token refresh and returns the stored profile. It does not
// notify subscribers.
func (c *Client) Refresh(ctx context.Context) (*model.User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var resp model.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", nil, &resp); err != nil {
		return nil, err
	}
	c.tokens.Set(Session{Token: resp.Token, ExpiresAt: expiry(resp.ExpiresAt), User: resp.User}, false)
	return &resp.User, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	var u model.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile changes the non-nil fields
func (c *Client) UpdateProfile(ctx context.Context, displayName, photoURL *string) (*model.User, error) {
	if err := c.requireSession(); err != nil {
		return nil, err
	}
	body := map[string]*string{"display_name": displayName, "photo_url": photoURL}
	var u model.User
	if err := c.doJSON(ctx, http.MethodPatch, "/api/auth/profile", body, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SignOut clears the local session. The server call only drops the page
// cookie, so its failure is returned but the local state is cleared anyway.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.tokens.Clear()
	if err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func expiry(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().Add(time.Hour)
	}
	return t
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
)

// ErrInvalidGoogleToken is returned when Google rejects or cannot vouch for an ID token
var ErrInvalidGoogleToken = errors.New("invalid Google ID token")

// GoogleIdentity is the verified subset of a Google ID token
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// GoogleVerifier checks Google ID tokens
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// tokenInfoResponse is the tokeninfo endpoint's body; numeric claims arrive as strings
type tokenInfoResponse struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	Exp           string `json:"exp"`
	ErrorDesc     string `json:"error_description"`
}

// TokenInfoVerifier validates ID tokens with Google's tokeninfo endpoint
type TokenInfoVerifier struct {
	config     *config.GoogleConfig
	httpClient *http.Client
}

func NewTokenInfoVerifier(cfg *config.GoogleConfig) *TokenInfoVerifier {
	return &TokenInfoVerifier{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (v *TokenInfoVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if idToken == "" {
		return nil, ErrInvalidGoogleToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.config.TokenInfoURL+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if info.ErrorDesc != "" {
			return nil, fmt.Errorf("%w: %s", ErrInvalidGoogleToken, info.ErrorDesc)
		}
		return nil, ErrInvalidGoogleToken
	}
	if v.config.ClientID != "" && info.Aud != v.config.ClientID {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidGoogleToken)
	}
	if exp, err := strconv.ParseInt(info.Exp, 10, 64); err == nil && time.Unix(exp, 0).Before(time.Now()) {
		return nil, fmt.Errorf("%w: token expired", ErrInvalidGoogleToken)
	}
	if info.Sub == "" || info.Email == "" || info.EmailVerified != "true" {
		return nil, fmt.Errorf("%w: email not verified", ErrInvalidGoogleToken)
	}

	return &GoogleIdentity{
		Subject: info.Sub,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

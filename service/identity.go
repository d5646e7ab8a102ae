package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrGoogleDisabled     = errors.New("Google sign-in is not configured")
)

const minPasswordLength = 6

// IdentityService is the server's identity provider: password and Google
// sign-in, profile refresh and profile updates.
type IdentityService struct {
	users  store.UserStore
	hasher *PasswordHasher
	google GoogleVerifier // nil disables Google sign-in
}

func NewIdentityService(users store.UserStore, hasher *PasswordHasher, google GoogleVerifier) *IdentityService {
	return &IdentityService{users: users, hasher: hasher, google: google}
}

func (s *IdentityService) SignUp(ctx context.Context, email, password, displayName string) (*store.Account, error) {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	acct := &store.Account{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		Provider:     store.ProviderPassword,
	}
	if err := s.users.CreateUser(ctx, acct); err != nil {
		return nil, err
	}
	slog.Info("account created", "uid", acct.UID, "provider", acct.Provider)
	return acct, nil
}

func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*store.Account, error) {
	acct, err := s.users.UserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if acct.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, acct.PasswordHash)
	if err != nil {
		slog.Warn("stored password hash is unreadable", "uid", acct.UID, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return acct, nil
}

// SignInWithGoogle verifies idToken and returns the matching account,
// creating it on first sign-in
func (s *IdentityService) SignInWithGoogle(ctx context.Context, idToken string) (*store.Account, error) {
	if s.google == nil {
		return nil, ErrGoogleDisabled
	}
	id, err := s.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	acct, err := s.users.UserByGoogleSub(ctx, id.Subject)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// Google vouches for the email, so an existing password account is reused
	acct, err = s.users.UserByEmail(ctx, id.Email)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	acct = &store.Account{
		Email:       id.Email,
		DisplayName: id.Name,
		PhotoURL:    id.Picture,
		Provider:    store.ProviderGoogle,
		GoogleSub:   id.Subject,
	}
	if err := s.users.CreateUser(ctx, acct); err != nil {
		return nil, err
	}
	slog.Info("account created", "uid", acct.UID, "provider", acct.Provider)
	return acct, nil
}

// Account re-reads the stored profile; used for forced token refresh
func (s *IdentityService) Account(ctx context.Context, uid string) (*store.Account, error) {
	return s.users.UserByID(ctx, uid)
}

func (s *IdentityService) UpdateProfile(ctx context.Context, uid string, upd store.ProfileUpdate) (*store.Account, error) {
	if upd.DisplayName != nil {
		trimmed := strings.TrimSpace(*upd.DisplayName)
		upd.DisplayName = &trimmed
	}
	return s.users.UpdateProfile(ctx, uid, upd)
}

// Seed creates the configured accounts that do not exist yet
func (s *IdentityService) Seed(ctx context.Context, users []config.User) error {
	for _, u := range users {
		_, err := s.users.UserByEmail(ctx, u.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if _, err := s.SignUp(ctx, u.Email, u.Password, u.DisplayName); err != nil {
			return fmt.Errorf("failed to seed %s: %w", u.Email, err)
		}
	}
	return nil
}

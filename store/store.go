// Package store persists accounts and per-user trade lanes.
//
// Trade lanes live in a per-user collection addressed as
// users/<uid>/tradeLanes; every lane operation takes the owner uid and never
// reaches another user's collection.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

var (
	// ErrNotFound is returned when a record does not exist in the caller's scope
	ErrNotFound = errors.New("not found")
	// ErrEmailInUse is returned when an account with the email already exists
	ErrEmailInUse = errors.New("email already in use")
)

// Sign-in providers recorded on an account
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

// Account is the stored identity record
type Account struct {
	UID          string
	Email        string
	DisplayName  string
	PhotoURL     string
	PasswordHash string
	Provider     string
	GoogleSub    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile returns the normalized user view of the account
func (a *Account) Profile() model.User {
	return model.User{
		UID:         a.UID,
		Email:       a.Email,
		DisplayName: a.DisplayName,
		PhotoURL:    a.PhotoURL,
	}
}

// ProfileUpdate carries optional profile changes; nil fields are left alone
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}

// UserStore stores accounts
type UserStore interface {
	CreateUser(ctx context.Context, acct *Account) error
	UserByID(ctx context.Context, uid string) (*Account, error)
	UserByEmail(ctx context.Context, email string) (*Account, error)
	UserByGoogleSub(ctx context.Context, sub string) (*Account, error)
	UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) (*Account, error)
}

// TradeLaneStore stores trade lanes in per-user collections
type TradeLaneStore interface {
	// AddLane writes the lane and returns it with the storage-assigned id
	AddLane(ctx context.Context, uid string, lane model.TradeLane) (model.TradeLane, error)
	// ListLanes returns the user's lanes oldest first
	ListLanes(ctx context.Context, uid string) ([]model.TradeLane, error)
	// DeleteLane removes one lane; ErrNotFound if it is not in the user's collection
	DeleteLane(ctx context.Context, uid, id string) error
}

// CollectionPath is the document path of a user's trade-lane collection
func CollectionPath(uid string) string {
	return "users/" + uid + "/tradeLanes"
}

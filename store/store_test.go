package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

type testStore interface {
	UserStore
	TradeLaneStore
}

func backends(t *testing.T) map[string]testStore {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "clearance.db"),
	}
	sqlStore, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlStore.Close() })

	return map[string]testStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlStore,
	}
}

func TestCreateAndLookupUser(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			acct := &Account{
				Email:        "  Trader@Example.com ",
				DisplayName:  "Trader",
				PasswordHash: "hash",
				Provider:     ProviderPassword,
			}
			if err := s.CreateUser(ctx, acct); err != nil {
				t.Fatalf("CreateUser failed: %v", err)
			}
			if acct.UID == "" {
				t.Fatal("Expected a uid to be assigned")
			}

			got, err := s.UserByEmail(ctx, "TRADER@example.com")
			if err != nil {
				t.Fatalf("UserByEmail failed: %v", err)
			}
			if got.UID != acct.UID || got.Email != "trader@example.com" {
				t.Errorf("Expected %s/trader@example.com, got %s/%s", acct.UID, got.UID, got.Email)
			}

			byID, err := s.UserByID(ctx, acct.UID)
			if err != nil {
				t.Fatalf("UserByID failed: %v", err)
			}
			if byID.PasswordHash != "hash" {
				t.Errorf("Expected password hash to round-trip, got %q", byID.PasswordHash)
			}

			dup := &Account{Email: "trader@example.com", Provider: ProviderPassword}
			if err := s.CreateUser(ctx, dup); !errors.Is(err, ErrEmailInUse) {
				t.Errorf("Expected ErrEmailInUse, got %v", err)
			}
		})
	}
}

func TestUserNotFound(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.UserByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("UserByID: expected ErrNotFound, got %v", err)
			}
			if _, err := s.UserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
				t.Errorf("UserByEmail: expected ErrNotFound, got %v", err)
			}
			if _, err := s.UserByGoogleSub(ctx, ""); !errors.Is(err, ErrNotFound) {
				t.Errorf("UserByGoogleSub: expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestUserByGoogleSub(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			acct := &Account{Email: "g@example.com", Provider: ProviderGoogle, GoogleSub: "1234"}
			if err := s.CreateUser(ctx, acct); err != nil {
				t.Fatalf("CreateUser failed: %v", err)
			}
			got, err := s.UserByGoogleSub(ctx, "1234")
			if err != nil {
				t.Fatalf("UserByGoogleSub failed: %v", err)
			}
			if got.UID != acct.UID {
				t.Errorf("Expected uid %s, got %s", acct.UID, got.UID)
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			acct := &Account{Email: "p@example.com", DisplayName: "Old", PhotoURL: "http://a/1.png", Provider: ProviderPassword}
			if err := s.CreateUser(ctx, acct); err != nil {
				t.Fatalf("CreateUser failed: %v", err)
			}

			newName := "New"
			got, err := s.UpdateProfile(ctx, acct.UID, ProfileUpdate{DisplayName: &newName})
			if err != nil {
				t.Fatalf("UpdateProfile failed: %v", err)
			}
			if got.DisplayName != "New" {
				t.Errorf("Expected display name New, got %s", got.DisplayName)
			}
			if got.PhotoURL != "http://a/1.png" {
				t.Errorf("Expected photo url untouched, got %s", got.PhotoURL)
			}

			reread, _ := s.UserByID(ctx, acct.UID)
			if reread.DisplayName != "New" {
				t.Errorf("Expected persisted display name New, got %s", reread.DisplayName)
			}

			if _, err := s.UpdateProfile(ctx, "missing", ProfileUpdate{DisplayName: &newName}); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestTradeLanesAreOrderedAndScoped(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			lanes := []model.TradeLane{
				{From: "India", To: "Nepal", Category: "Food", CreatedAt: base.Add(2 * time.Minute)},
				{From: "China", To: "India", Category: "Electronics", CreatedAt: base},
				{From: "India", To: "Nepal", Category: "Food", CreatedAt: base.Add(time.Minute)},
			}
			for _, l := range lanes {
				added, err := s.AddLane(ctx, "alice", l)
				if err != nil {
					t.Fatalf("AddLane failed: %v", err)
				}
				if added.ID == "" {
					t.Error("Expected an id to be assigned")
				}
			}
			if _, err := s.AddLane(ctx, "bob", model.TradeLane{From: "Nepal", To: "Nepal", Category: "Textiles"}); err != nil {
				t.Fatalf("AddLane failed: %v", err)
			}

			got, err := s.ListLanes(ctx, "alice")
			if err != nil {
				t.Fatalf("ListLanes failed: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("Expected 3 lanes for alice, got %d", len(got))
			}
			if got[0].From != "China" || !got[1].CreatedAt.Equal(base.Add(time.Minute)) {
				t.Errorf("Expected oldest first, got %+v", got)
			}

			bob, _ := s.ListLanes(ctx, "bob")
			if len(bob) != 1 {
				t.Fatalf("Expected 1 lane for bob, got %d", len(bob))
			}

			if err := s.DeleteLane(ctx, "alice", bob[0].ID); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound deleting another user's lane, got %v", err)
			}
			if err := s.DeleteLane(ctx, "alice", got[0].ID); err != nil {
				t.Fatalf("DeleteLane failed: %v", err)
			}
			after, _ := s.ListLanes(ctx, "alice")
			if len(after) != 2 {
				t.Errorf("Expected 2 lanes after delete, got %d", len(after))
			}
		})
	}
}

func TestListLanesEmpty(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.ListLanes(context.Background(), "nobody")
			if err != nil {
				t.Fatalf("ListLanes failed: %v", err)
			}
			if got == nil || len(got) != 0 {
				t.Errorf("Expected empty non-nil slice, got %#v", got)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	s := &SQLStore{postgres: true}
	got := s.rebind("SELECT a FROM t WHERE x = ? AND y = ?")
	if got != "SELECT a FROM t WHERE x = $1 AND y = $2" {
		t.Errorf("Unexpected rebind result: %s", got)
	}
	s.postgres = false
	if got := s.rebind("x = ?"); got != "x = ?" {
		t.Errorf("Expected sqlite query untouched, got %s", got)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open(context.Background(), &config.DatabaseConfig{Driver: "oracle"}); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestCollectionPath(t *testing.T) {
	if got := CollectionPath("u1"); got != "users/u1/tradeLanes" {
		t.Errorf("Expected users/u1/tradeLanes, got %s", got)
	}
}

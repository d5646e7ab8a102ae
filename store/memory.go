package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/google/uuid"
)

// MemoryStore is an in-memory UserStore and TradeLaneStore.
// Lanes are kept per collection path.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[string]*Account
	collections map[string]map[string]model.TradeLane
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[string]*Account),
		collections: make(map[string]map[string]model.TradeLane),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct.Email = normalizeEmail(acct.Email)
	for _, existing := range s.accounts {
		if existing.Email == acct.Email {
			return ErrEmailInUse
		}
	}
	if acct.UID == "" {
		acct.UID = uuid.New().String()
	}
	now := time.Now()
	acct.CreatedAt, acct.UpdatedAt = now, now

	cp := *acct
	s.accounts[acct.UID] = &cp
	return nil
}

func (s *MemoryStore) UserByID(ctx context.Context, uid string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.accounts[uid]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (*Account, error) {
	return s.find(func(a *Account) bool { return a.Email == normalizeEmail(email) })
}

func (s *MemoryStore) UserByGoogleSub(ctx context.Context, sub string) (*Account, error) {
	if sub == "" {
		return nil, ErrNotFound
	}
	return s.find(func(a *Account) bool { return a.GoogleSub == sub })
}

func (s *MemoryStore) find(match func(*Account) bool) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if match(a) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[uid]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.DisplayName != nil {
		a.DisplayName = *upd.DisplayName
	}
	if upd.PhotoURL != nil {
		a.PhotoURL = *upd.PhotoURL
	}
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) AddLane(ctx context.Context, uid string, lane model.TradeLane) (model.TradeLane, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := CollectionPath(uid)
	coll, ok := s.collections[path]
	if !ok {
		coll = make(map[string]model.TradeLane)
		s.collections[path] = coll
	}
	lane.ID = uuid.New().String()
	if lane.CreatedAt.IsZero() {
		lane.CreatedAt = time.Now()
	}
	coll[lane.ID] = lane
	return lane, nil
}

func (s *MemoryStore) ListLanes(ctx context.Context, uid string) ([]model.TradeLane, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coll := s.collections[CollectionPath(uid)]
	lanes := make([]model.TradeLane, 0, len(coll))
	for _, l := range coll {
		lanes = append(lanes, l)
	}
	sort.Slice(lanes, func(i, j int) bool {
		if lanes[i].CreatedAt.Equal(lanes[j].CreatedAt) {
			return lanes[i].ID < lanes[j].ID
		}
		return lanes[i].CreatedAt.Before(lanes[j].CreatedAt)
	})
	return lanes, nil
}

func (s *MemoryStore) DeleteLane(ctx context.Context, uid, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collections[CollectionPath(uid)]
	if _, ok := coll[id]; !ok {
		return ErrNotFound
	}
	delete(coll, id)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

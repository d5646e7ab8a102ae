package client

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/localstore"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

const sessionKey = "session"

// Session is the signed-in state kept by the client
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// TokenStore holds the current session and notifies subscribers whenever
// the signed-in user changes. A nil persist keeps it in memory only.
type TokenStore struct {
	mu      sync.Mutex
	current *Session
	persist *localstore.Store
	subs    map[int]chan *model.User
	nextSub int
	now     func() time.Time
}

func NewTokenStore(persist *localstore.Store) *TokenStore {
	t := &TokenStore{
		persist: persist,
		subs:    make(map[int]chan *model.User),
		now:     time.Now,
	}
	if persist != nil {
		var s Session
		ok, err := persist.Get(sessionKey, &s)
		if err != nil {
			slog.Warn("ignoring unreadable saved session", "error", err)
		}
		if ok && s.Token != "" && t.now().Before(s.ExpiresAt) {
			t.current = &s
		}
	}
	return t
}

// Token returns the bearer token, or "" when signed out or expired
func (t *TokenStore) Token() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil || !t.now().Before(t.current.ExpiresAt) {
		return ""
	}
	return t.current.Token
}

// User returns a copy of the signed-in user, or nil
func (t *TokenStore) User() *model.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	u := t.current.User
	return &u
}

// Set stores s; subscribers are told only when notify is set, so a token
// refresh does not re-trigger listeners that refresh on notification
func (t *TokenStore) Set(s Session, notify bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = &s
	t.save()
	if notify {
		u := s.User
		t.broadcast(&u)
	}
}

// Clear signs the store out and notifies subscribers
func (t *TokenStore) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
	t.save()
	t.broadcast(nil)
}

// Subscribe returns a channel that first receives the current user and then
// every change. Only the latest state is buffered. cancel closes the channel.
func (t *TokenStore) Subscribe() (<-chan *model.User, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++
	ch := make(chan *model.User, 1)
	t.subs[id] = ch
	if t.current != nil {
		u := t.current.User
		ch <- &u
	} else {
		ch <- nil
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast must be called with the lock held
func (t *TokenStore) broadcast(u *model.User) {
	for _, ch := range t.subs {
		select {
		case <-ch:
		default:
		}
		ch <- u
	}
}

// save must be called with the lock held
func (t *TokenStore) save() {
	if t.persist == nil {
		return
	}
	var err error
	if t.current == nil {
		err = t.persist.Delete(sessionKey)
	} else {
		err = t.persist.Set(sessionKey, t.current)
	}
	if err != nil {
		slog.Warn("failed to persist session", "error", err)
	}
}

// Subscribe exposes the token store's auth-state stream
func (c *Client) Subscribe() (<-chan *model.User, func()) {
	return c.tokens.Subscribe()
}

// Package session tracks the signed-in user for the client. A Provider is
// created once and handed to every consumer that needs the current user.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

// IdentityProvider is the auth backend the session listens to
type IdentityProvider interface {
	// Subscribe delivers the current user (nil when signed out) and every change
	Subscribe() (<-chan *model.User, func())
	// Refresh forces a token refresh and returns the up-to-date profile
	Refresh(ctx context.Context) (*model.User, error)
	SignOut(ctx context.Context) error
}

type Provider struct {
	idp IdentityProvider

	mu       sync.RWMutex
	user     *model.User
	loading  bool
	ready    chan struct{}
	watchers map[int]chan *model.User
	nextID   int

	startOnce sync.Once
	stopOnce  sync.Once
	unsub     func()
	done      chan struct{}
}

func New(idp IdentityProvider) *Provider {
	return &Provider{
		idp:      idp,
		loading:  true,
		ready:    make(chan struct{}),
		watchers: make(map[int]chan *model.User),
		done:     make(chan struct{}),
	}
}

// Start subscribes to the identity provider. Calls after the first are no-ops.
func (p *Provider) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		updates, unsub := p.idp.Subscribe()
		p.mu.Lock()
		p.unsub = unsub
		p.mu.Unlock()
		go p.run(ctx, updates)
	})
}

func (p *Provider) run(ctx context.Context, updates <-chan *model.User) {
	defer close(p.done)
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			p.handle(ctx, u)
		}
	}
}

func (p *Provider) handle(ctx context.Context, u *model.User) {
	var record *model.User
	if u != nil {
		profile := *u
		refreshed, err := p.idp.Refresh(ctx)
		if err != nil {
			slog.Warn("token refresh failed, using cached profile", "uid", u.UID, "error", err)
		} else {
			profile = *refreshed
		}
		record = &model.User{
			UID:         profile.UID,
			Email:       profile.Email,
			DisplayName: profile.DisplayName,
			PhotoURL:    profile.PhotoURL,
		}
	}
	p.set(record)

	p.mu.Lock()
	if p.loading {
		p.loading = false
		close(p.ready)
	}
	p.mu.Unlock()
}

func (p *Provider) set(u *model.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.user = u
	for _, ch := range p.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- copyUser(u)
	}
}

// Stop unsubscribes and waits for the listener to exit
func (p *Provider) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		unsub := p.unsub
		p.mu.Unlock()
		if unsub == nil {
			return
		}
		unsub()
		<-p.done
	})
}

// Current returns a copy of the signed-in user, or nil
func (p *Provider) Current() *model.User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyUser(p.user)
}

// Loading is true until the first auth notification has been handled
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Ready is closed once Loading turns false
func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

// Logout signs out of the identity provider and clears the user. Failures
// are logged only.
func (p *Provider) Logout(ctx context.Context) {
	if err := p.idp.SignOut(ctx); err != nil {
		slog.Error("logout failed", "error", err)
	}
	p.set(nil)
}

// Watch delivers the current user and every later change, latest only
func (p *Provider) Watch() (<-chan *model.User, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	ch := make(chan *model.User, 1)
	ch <- copyUser(p.user)
	p.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.watchers, id)
			close(ch)
		})
	}
}

func copyUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// Package tradelane drives the two-step trade-lane wizard and the list of a
// user's saved lanes.
package tradelane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

var (
	ErrIncomplete      = errors.New("select both origin and destination")
	ErrNoCategory      = errors.New("select a product category")
	ErrUnknownCountry  = errors.New("unknown country")
	ErrUnknownCategory = errors.New("unknown category")
	ErrWrongStep       = errors.New("not available in this step")
	ErrCancelled       = errors.New("removal cancelled")
	ErrLaneNotFound    = errors.New("trade lane not found")
)

// Alerts shown to the user
const (
	AlertSaveFailed   = "Save failed"
	AlertRemoveFailed = "Failed to remove. Try again."
	AlertLoadFailed   = "Failed to load trade lanes"
)

// Backend is the per-user trade-lane collection
type Backend interface {
	ListLanes(ctx context.Context) ([]model.TradeLane, error)
	AddLane(ctx context.Context, lane model.TradeLane) (model.TradeLane, error)
	DeleteLane(ctx context.Context, id string) error
}

// ChecklistSource is the static reference table
type ChecklistSource interface {
	Supports(from, to string) bool
	Items(from, to, category string) []model.ChecklistItem
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// State is one of Listing, RouteStep or CategoryStep
type State interface {
	isState()
}

// Listing shows the saved lanes; the wizard is closed
type Listing struct{}

// RouteStep collects origin and destination
type RouteStep struct {
	From string
	To   string
}

// CategoryStep collects the product category for a chosen route
type CategoryStep struct {
	From     string
	To       string
	Category string
}

func (Listing) isState()      {}
func (RouteStep) isState()    {}
func (CategoryStep) isState() {}

type Wizard struct {
	backend Backend
	source  ChecklistSource
	confirm Confirmer
	now     func() time.Time

	mu       sync.Mutex
	state    State
	lanes    []model.TradeLane
	selected string
	saving   bool
	alert    string
}

func New(backend Backend, source ChecklistSource, confirm Confirmer) *Wizard {
	return &Wizard{
		backend: backend,
		source:  source,
		confirm: confirm,
		now:     time.Now,
		state:   Listing{},
	}
}

// Load fetches the user's lanes and selects the first one
func (w *Wizard) Load(ctx context.Context) error {
	lanes, err := w.backend.ListLanes(ctx)
	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		slog.Error("failed to load trade lanes", "error", err)
		w.alert = AlertLoadFailed
		return err
	}
	w.lanes = append([]model.TradeLane(nil), lanes...)
	w.selected = ""
	if len(w.lanes) > 0 {
		w.selected = w.lanes[0].ID
	}
	return nil
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wizard) Lanes() []model.TradeLane {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.TradeLane(nil), w.lanes...)
}

// Selected returns the selected lane, or nil
func (w *Wizard) Selected() *model.TradeLane {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedLane()
}

func (w *Wizard) selectedLane() *model.TradeLane {
	for i := range w.lanes {
		if w.lanes[i].ID == w.selected {
			l := w.lanes[i]
			return &l
		}
	}
	return nil
}

func (w *Wizard) Select(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, l := range w.lanes {
		if l.ID == id {
			w.selected = id
			return nil
		}
	}
	return ErrLaneNotFound
}

// Alert returns and clears the pending alert
func (w *Wizard) Alert() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	a := w.alert
	w.alert = ""
	return a
}

// Saving is true while a save is outstanding
func (w *Wizard) Saving() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saving
}

// Open starts the wizard at the route step with empty fields
func (w *Wizard) Open() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = RouteStep{}
}

// Cancel closes the wizard and drops its fields
func (w *Wizard) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Listing{}
}

func (w *Wizard) SetFrom(country string) error {
	return w.setRoute(country, func(s *RouteStep) { s.From = country })
}

func (w *Wizard) SetTo(country string) error {
	return w.setRoute(country, func(s *RouteStep) { s.To = country })
}

func (w *Wizard) setRoute(country string, apply func(*RouteStep)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.state.(RouteStep)
	if !ok {
		return ErrWrongStep
	}
	if !model.IsKnownCountry(country) {
		return fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}
	apply(&s)
	w.state = s
	return nil
}

// Next moves from the route step to the category step. Origin and
// destination may be the same country.
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.state.(RouteStep)
	if !ok {
		return ErrWrongStep
	}
	if s.From == "" || s.To == "" {
		return ErrIncomplete
	}
	w.state = CategoryStep{From: s.From, To: s.To}
	return nil
}

// Back returns from the category step to the route step, keeping the route
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.state.(CategoryStep)
	if !ok {
		return ErrWrongStep
	}
	w.state = RouteStep{From: s.From, To: s.To}
	return nil
}

func (w *Wizard) SetCategory(category string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.state.(CategoryStep)
	if !ok {
		return ErrWrongStep
	}
	if !model.IsKnownCategory(category) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.Category = category
	w.state = s
	return nil
}

// Save writes the lane from the category step. On success the lane is
// appended and selected and the wizard closes; on failure nothing changes
// locally and an alert is raised.
func (w *Wizard) Save(ctx context.Context) (model.TradeLane, error) {
	w.mu.Lock()
	s, ok := w.state.(CategoryStep)
	switch {
	case !ok:
		w.mu.Unlock()
		return model.TradeLane{}, ErrWrongStep
	case s.Category == "":
		w.mu.Unlock()
		return model.TradeLane{}, ErrNoCategory
	case w.saving:
		w.mu.Unlock()
		return model.TradeLane{}, ErrWrongStep
	}
	w.saving = true
	w.mu.Unlock()

	lane, err := w.backend.AddLane(ctx, model.TradeLane{
		From:      s.From,
		To:        s.To,
		Category:  s.Category,
		CreatedAt: w.now(),
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.saving = false
	if err != nil {
		slog.Error("failed to save trade lane", "route", s.From+" to "+s.To, "error", err)
		w.alert = AlertSaveFailed
		return model.TradeLane{}, err
	}
	w.lanes = append(w.lanes, lane)
	w.selected = lane.ID
	w.state = Listing{}
	return lane, nil
}

// Remove deletes a lane after the user confirms. A selected lane falls back
// to the first remaining one.
func (w *Wizard) Remove(ctx context.Context, id string) error {
	w.mu.Lock()
	var lane *model.TradeLane
	for i := range w.lanes {
		if w.lanes[i].ID == id {
			l := w.lanes[i]
			lane = &l
		}
	}
	w.mu.Unlock()
	if lane == nil {
		return ErrLaneNotFound
	}

	if !w.confirm.Confirm(RemovePrompt(*lane)) {
		return ErrCancelled
	}

	if err := w.backend.DeleteLane(ctx, id); err != nil {
		slog.Error("failed to remove trade lane", "id", id, "error", err)
		w.mu.Lock()
		w.alert = AlertRemoveFailed
		w.mu.Unlock()
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.lanes[:0]
	for _, l := range w.lanes {
		if l.ID != id {
			kept = append(kept, l)
		}
	}
	w.lanes = kept
	if w.selected == id {
		w.selected = ""
		if len(w.lanes) > 0 {
			w.selected = w.lanes[0].ID
		}
	}
	return nil
}

// RemovePrompt is the confirmation question for removing lane
func RemovePrompt(lane model.TradeLane) string {
	return fmt.Sprintf("Remove \"%s\"?", lane.Route())
}

// Checklist returns the reference data for the selected lane. Pairs the
// source does not cover come back with Available false and no lookup.
func (w *Wizard) Checklist() (model.Checklist, bool) {
	lane := w.Selected()
	if lane == nil {
		return model.Checklist{}, false
	}
	return Lookup(w.source, lane.From, lane.To, lane.Category), true
}

// Lookup indexes source by lower-cased category for supported pairs
func Lookup(source ChecklistSource, from, to, category string) model.Checklist {
	result := model.Checklist{From: from, To: to, Category: category}
	if !source.Supports(from, to) {
		return result
	}
	result.Available = true
	result.Items = source.Items(from, to, strings.ToLower(category))
	return result
}

// MatchCountries filters the country list by a case-insensitive substring
func MatchCountries(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []string
	for _, c := range model.Countries {
		if strings.Contains(strings.ToLower(c), q) {
			out = append(out, c)
		}
	}
	return out
}

package tradelane

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/checklist"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/google/go-cmp/cmp"
)

type fakeBackend struct {
	lanes     []model.TradeLane
	nextID    int
	addErr    error
	deleteErr error
	listErr   error
	deleted   []string
}

func (f *fakeBackend) ListLanes(ctx context.Context) ([]model.TradeLane, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.TradeLane(nil), f.lanes...), nil
}

func (f *fakeBackend) AddLane(ctx context.Context, lane model.TradeLane) (model.TradeLane, error) {
	if f.addErr != nil {
		return model.TradeLane{}, f.addErr
	}
	f.nextID++
	lane.ID = "lane-" + strconv.Itoa(f.nextID)
	f.lanes = append(f.lanes, lane)
	return lane, nil
}

func (f *fakeBackend) DeleteLane(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

// countingSource wraps a source and counts Items calls
type countingSource struct {
	ChecklistSource
	calls []string
}

func (s *countingSource) Items(from, to, category string) []model.ChecklistItem {
	s.calls = append(s.calls, from+"/"+to+"/"+category)
	return s.ChecklistSource.Items(from, to, category)
}

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newWizard(backend *fakeBackend, confirm bool) (*Wizard, *[]string) {
	var prompts []string
	w := New(backend, checklist.Bundled(), ConfirmFunc(func(p string) bool {
		prompts = append(prompts, p)
		return confirm
	}))
	w.now = func() time.Time { return fixedNow }
	return w, &prompts
}

func fillWizard(t *testing.T, w *Wizard, from, to, category string) {
	t.Helper()
	w.Open()
	if err := w.SetFrom(from); err != nil {
		t.Fatalf("SetFrom failed: %v", err)
	}
	if err := w.SetTo(to); err != nil {
		t.Fatalf("SetTo failed: %v", err)
	}
	if err := w.Next(); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if err := w.SetCategory(category); err != nil {
		t.Fatalf("SetCategory failed: %v", err)
	}
}

func TestSaveAppendsAndSelects(t *testing.T) {
	backend := &fakeBackend{}
	w, _ := newWizard(backend, true)
	fillWizard(t, w, "India", "Nepal", "Electronics")

	lane, err := w.Save(context.Background())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := model.TradeLane{ID: "lane-1", From: "India", To: "Nepal", Category: "Electronics", CreatedAt: fixedNow}
	if diff := cmp.Diff(want, lane); diff != "" {
		t.Errorf("Saved lane mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]model.TradeLane{want}, w.Lanes()); diff != "" {
		t.Errorf("Lanes mismatch (-want +got):\n%s", diff)
	}
	if sel := w.Selected(); sel == nil || sel.ID != "lane-1" {
		t.Errorf("Expected lane-1 selected, got %+v", sel)
	}
	if _, ok := w.State().(Listing); !ok {
		t.Errorf("Expected wizard closed, got %#v", w.State())
	}

	// reopening starts from empty fields
	w.Open()
	if diff := cmp.Diff(State(RouteStep{}), w.State()); diff != "" {
		t.Errorf("Expected reset fields (-want +got):\n%s", diff)
	}
}

func TestDuplicatesAllowed(t *testing.T) {
	backend := &fakeBackend{}
	w, _ := newWizard(backend, true)
	for i := 0; i < 2; i++ {
		fillWizard(t, w, "China", "Nepal", "Food")
		if _, err := w.Save(context.Background()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}
	if n := len(w.Lanes()); n != 2 {
		t.Errorf("Expected 2 lanes, got %d", n)
	}
}

func TestGuards(t *testing.T) {
	w, _ := newWizard(&fakeBackend{}, true)

	if err := w.SetFrom("India"); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Expected ErrWrongStep before Open, got %v", err)
	}

	w.Open()
	w.SetFrom("India")
	if err := w.Next(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("Expected ErrIncomplete, got %v", err)
	}
	if err := w.SetTo("Atlantis"); !errors.Is(err, ErrUnknownCountry) {
		t.Errorf("Expected ErrUnknownCountry, got %v", err)
	}

	w.SetTo("India")
	if err := w.Next(); err != nil {
		t.Errorf("Expected same-country route to be allowed, got %v", err)
	}
	if _, err := w.Save(context.Background()); !errors.Is(err, ErrNoCategory) {
		t.Errorf("Expected ErrNoCategory, got %v", err)
	}
	if err := w.SetCategory("Toys"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("Expected ErrUnknownCategory, got %v", err)
	}
}

func TestBackKeepsRoute(t *testing.T) {
	w, _ := newWizard(&fakeBackend{}, true)
	fillWizard(t, w, "Sri Lanka", "India", "Textiles")
	if err := w.Back(); err != nil {
		t.Fatalf("Back failed: %v", err)
	}
	want := State(RouteStep{From: "Sri Lanka", To: "India"})
	if diff := cmp.Diff(want, w.State()); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}
	if err := w.Back(); !errors.Is(err, ErrWrongStep) {
		t.Errorf("Expected ErrWrongStep from route step, got %v", err)
	}
}

func TestSaveFailureLeavesStateAlone(t *testing.T) {
	backend := &fakeBackend{addErr: errors.New("permission denied")}
	w, _ := newWizard(backend, true)
	fillWizard(t, w, "India", "Nepal", "Food")

	if _, err := w.Save(context.Background()); err == nil {
		t.Fatal("Expected save error")
	}
	if len(w.Lanes()) != 0 {
		t.Error("Expected no local lanes after failure")
	}
	if got := w.Alert(); got != AlertSaveFailed {
		t.Errorf("Expected alert %q, got %q", AlertSaveFailed, got)
	}
	if w.Alert() != "" {
		t.Error("Expected alert to be cleared after reading")
	}
	if _, ok := w.State().(CategoryStep); !ok {
		t.Errorf("Expected wizard to stay on category step, got %#v", w.State())
	}
	if w.Saving() {
		t.Error("Expected saving flag cleared")
	}
}

func TestLoadSelectsFirst(t *testing.T) {
	backend := &fakeBackend{lanes: []model.TradeLane{
		{ID: "a", From: "India", To: "Nepal", Category: "Food"},
		{ID: "b", From: "China", To: "Nepal", Category: "Machinery"},
	}}
	w, _ := newWizard(backend, true)
	if err := w.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sel := w.Selected(); sel == nil || sel.ID != "a" {
		t.Errorf("Expected a selected, got %+v", sel)
	}
	if err := w.Select("b"); err != nil {
		t.Errorf("Select failed: %v", err)
	}
	if err := w.Select("zzz"); !errors.Is(err, ErrLaneNotFound) {
		t.Errorf("Expected ErrLaneNotFound, got %v", err)
	}
}

func TestLoadFailureRaisesAlert(t *testing.T) {
	w, _ := newWizard(&fakeBackend{listErr: errors.New("offline")}, true)
	if err := w.Load(context.Background()); err == nil {
		t.Fatal("Expected load error")
	}
	if got := w.Alert(); got != AlertLoadFailed {
		t.Errorf("Expected %q, got %q", AlertLoadFailed, got)
	}
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name         string
		remove       string
		selected     string
		wantLanes    []string
		wantSelected string
	}{
		{"selected falls back to first remaining", "a", "a", []string{"b", "c"}, "b"},
		{"unselected keeps selection", "c", "b", []string{"a", "b"}, "b"},
		{"last lane leaves none selected", "a", "a", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lanes := []model.TradeLane{
				{ID: "a", From: "India", To: "Nepal", Category: "Food"},
				{ID: "b", From: "China", To: "Nepal", Category: "Food"},
				{ID: "c", From: "Nepal", To: "India", Category: "Food"},
			}
			if tt.wantLanes == nil {
				lanes = lanes[:1]
			}
			backend := &fakeBackend{lanes: lanes}
			w, prompts := newWizard(backend, true)
			w.Load(context.Background())
			w.Select(tt.selected)

			if err := w.Remove(context.Background(), tt.remove); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}
			var ids []string
			for _, l := range w.Lanes() {
				ids = append(ids, l.ID)
			}
			if diff := cmp.Diff(tt.wantLanes, ids); diff != "" {
				t.Errorf("Lanes mismatch (-want +got):\n%s", diff)
			}
			got := ""
			if sel := w.Selected(); sel != nil {
				got = sel.ID
			}
			if got != tt.wantSelected {
				t.Errorf("Expected selected %q, got %q", tt.wantSelected, got)
			}
			if diff := cmp.Diff([]string{tt.remove}, backend.deleted); diff != "" {
				t.Errorf("Deleted mismatch (-want +got):\n%s", diff)
			}
			if len(*prompts) != 1 {
				t.Errorf("Expected one confirmation, got %v", *prompts)
			}
		})
	}
}

func TestRemovePrompt(t *testing.T) {
	backend := &fakeBackend{lanes: []model.TradeLane{{ID: "a", From: "India", To: "Nepal", Category: "Food"}}}
	w, prompts := newWizard(backend, false)
	w.Load(context.Background())

	if err := w.Remove(context.Background(), "a"); !errors.Is(err, ErrCancelled) {
		t.Fatalf("Expected ErrCancelled, got %v", err)
	}
	if diff := cmp.Diff([]string{`Remove "India to Nepal"?`}, *prompts); diff != "" {
		t.Errorf("Prompt mismatch (-want +got):\n%s", diff)
	}
	if len(backend.deleted) != 0 || len(w.Lanes()) != 1 {
		t.Error("Expected nothing removed when not confirmed")
	}
}

func TestRemoveFailure(t *testing.T) {
	backend := &fakeBackend{
		lanes:     []model.TradeLane{{ID: "a", From: "India", To: "Nepal", Category: "Food"}},
		deleteErr: errors.New("offline"),
	}
	w, _ := newWizard(backend, true)
	w.Load(context.Background())

	if err := w.Remove(context.Background(), "a"); err == nil {
		t.Fatal("Expected remove error")
	}
	if got := w.Alert(); got != AlertRemoveFailed {
		t.Errorf("Expected %q, got %q", AlertRemoveFailed, got)
	}
	if len(w.Lanes()) != 1 {
		t.Error("Expected lane kept after failed delete")
	}
}

func TestChecklistLookup(t *testing.T) {
	src := &countingSource{ChecklistSource: checklist.Bundled()}

	india := Lookup(src, "India", "Nepal", "Pharmaceuticals")
	if !india.Available || len(india.Items) == 0 {
		t.Fatalf("Expected India to Nepal items, got %+v", india)
	}
	for _, item := range india.Items {
		tb := item.TaxBreakdown
		if tb.TotalPercent() != tb.ImportDutyPercent+tb.VATPercent+tb.OtherChargesPercent {
			t.Errorf("%s: total does not add up", item.Name)
		}
	}
	if diff := cmp.Diff([]string{"India/Nepal/pharmaceuticals"}, src.calls); diff != "" {
		t.Errorf("Lookup calls mismatch (-want +got):\n%s", diff)
	}

	for _, pair := range [][2]string{{"China", "Nepal"}, {"Nepal", "India"}, {"India", "India"}} {
		got := Lookup(src, pair[0], pair[1], "Food")
		if got.Available || len(got.Items) != 0 {
			t.Errorf("%s to %s: expected coming-soon placeholder, got %+v", pair[0], pair[1], got)
		}
	}
	if len(src.calls) != 1 {
		t.Errorf("Expected no lookups for unsupported pairs, got %v", src.calls)
	}
}

func TestWizardChecklistFollowsSelection(t *testing.T) {
	backend := &fakeBackend{}
	w, _ := newWizard(backend, true)
	if _, ok := w.Checklist(); ok {
		t.Error("Expected no checklist without a selection")
	}
	fillWizard(t, w, "India", "Nepal", "Machinery")
	w.Save(context.Background())
	result, ok := w.Checklist()
	if !ok || !result.Available {
		t.Errorf("Expected available checklist, got %+v", result)
	}
}

func TestMatchCountries(t *testing.T) {
	if diff := cmp.Diff([]string{"India"}, MatchCountries("ind")); diff != "" {
		t.Errorf("Match mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Countries, MatchCountries("")); diff != "" {
		t.Errorf("Empty query mismatch (-want +got):\n%s", diff)
	}
	if got := MatchCountries("xyz"); len(got) != 0 {
		t.Errorf("Expected no matches, got %v", got)
	}
}

package checklist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestBundledIndiaToNepal(t *testing.T) {
	table := Bundled()

	if !table.Supports("India", "Nepal") {
		t.Fatal("Expected bundled data for India to Nepal")
	}

	result := table.Lookup("India", "Nepal", "Electronics")
	if !result.Available {
		t.Fatal("Expected checklist to be available")
	}
	if len(result.Items) == 0 {
		t.Fatal("Expected electronics items")
	}
	for _, item := range result.Items {
		tb := item.TaxBreakdown
		want := tb.ImportDutyPercent + tb.VATPercent + tb.OtherChargesPercent
		if tb.TotalPercent() != want {
			t.Errorf("%s: expected total %v, got %v", item.Name, want, tb.TotalPercent())
		}
		if item.HSCode == "" {
			t.Errorf("%s: expected an HS code", item.Name)
		}
		if len(item.RequiredDocuments) == 0 {
			t.Errorf("%s: expected required documents", item.Name)
		}
	}
}

func TestLookupCategoryIsCaseInsensitive(t *testing.T) {
	table := Bundled()
	upper := table.Lookup("India", "Nepal", "PHARMACEUTICALS")
	lower := table.Lookup("India", "Nepal", "pharmaceuticals")
	if len(upper.Items) == 0 || len(upper.Items) != len(lower.Items) {
		t.Errorf("Expected same non-empty items, got %d and %d", len(upper.Items), len(lower.Items))
	}
}

func TestLookupUnsupportedPair(t *testing.T) {
	table := Bundled()
	tests := []struct{ from, to string }{
		{"Nepal", "India"},
		{"China", "Nepal"},
		{"India", "India"},
		{"Sri Lanka", "China"},
	}
	for _, tt := range tests {
		result := table.Lookup(tt.from, tt.to, "Electronics")
		if result.Available {
			t.Errorf("%s to %s: expected coming-soon placeholder", tt.from, tt.to)
		}
		if len(result.Items) != 0 {
			t.Errorf("%s to %s: expected no items, got %d", tt.from, tt.to, len(result.Items))
		}
	}
}

func TestLookupUnknownCategoryOnSupportedPair(t *testing.T) {
	result := Bundled().Lookup("India", "Nepal", "Toys")
	if !result.Available {
		t.Error("Expected pair to be available")
	}
	if len(result.Items) != 0 {
		t.Errorf("Expected no items, got %d", len(result.Items))
	}
}

func TestPairKey(t *testing.T) {
	if got := PairKey(" Sri Lanka", "India "); got != "sri_lanka_to_india" {
		t.Errorf("Expected sri_lanka_to_india, got %s", got)
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	table := Bundled()
	items := table.Items("India", "Nepal", "Food")
	items[0].Name = "mutated"
	if table.Items("India", "Nepal", "Food")[0].Name == "mutated" {
		t.Error("Expected Items to return a copy")
	}
}

func TestWatcherReloadsOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checklist.json")
	if err := os.WriteFile(path, []byte(`{"india_to_nepal":{"food":{"items":[]}}}`), 0o644); err != nil {
		t.Fatalf("Failed to write override: %v", err)
	}

	table, err := LoadFile(path)
	if err != nil {
		t.Fatalf("Failed to load override: %v", err)
	}
	if table.Supports("China", "Nepal") {
		t.Fatal("Expected China to Nepal to be unsupported before reload")
	}

	reloaded := make(chan error, 4)
	w := NewWatcher(path, table, func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	})
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// give the watcher a moment to register the directory
	time.Sleep(50 * time.Millisecond)

	next := `{"china_to_nepal":{"electronics":{"items":[{"id":"x","name":"Routers","hs_code":"8517.62","tax_breakdown":{"import_duty_percent":5,"vat_percent":13,"other_charges_percent":0},"required_documents":["Commercial Invoice"]}]}}}`
	if err := os.WriteFile(path, []byte(next), 0o644); err != nil {
		t.Fatalf("Failed to rewrite override: %v", err)
	}

	// a reload may observe a half-written file; wait for one that succeeds
	deadline := time.After(3 * time.Second)
	for ok := false; !ok; {
		select {
		case err := <-reloaded:
			ok = err == nil
		case <-deadline:
			t.Fatal("Timed out waiting for reload")
		}
	}

	if !table.Supports("China", "Nepal") {
		t.Error("Expected China to Nepal after reload")
	}
	if got := table.Lookup("China", "Nepal", "electronics"); len(got.Items) != 1 {
		t.Errorf("Expected 1 item after reload, got %d", len(got.Items))
	}
}

// Package checklist serves the static customs reference table.
//
// The table is keyed by "<origin>_to_<destination>" and then by the
// lower-cased product category. The bundled data covers India to Nepal only;
// every other pair is reported as not available.
package checklist

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

//go:embed data/checklist.json
var bundled []byte

type categoryEntry struct {
	Items []model.ChecklistItem `json:"items"`
}

type data map[string]map[string]categoryEntry

// Table is a concurrency-safe, replaceable lookup table
type Table struct {
	mu    sync.RWMutex
	pairs data
}

// Bundled returns a table backed by the embedded dataset
func Bundled() *Table {
	t, err := Parse(bundled)
	if err != nil {
		panic(fmt.Sprintf("checklist: bundled data is invalid: %v", err))
	}
	return t
}

// Parse builds a table from raw JSON
func Parse(raw []byte) (*Table, error) {
	d, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &Table{pairs: d}, nil
}

// LoadFile builds a table from a JSON file on disk
func LoadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checklist: %w", err)
	}
	return Parse(raw)
}

func decode(raw []byte) (data, error) {
	var d data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse checklist: %w", err)
	}
	normalized := make(data, len(d))
	for pair, cats := range d {
		byCat := make(map[string]categoryEntry, len(cats))
		for cat, entry := range cats {
			byCat[strings.ToLower(cat)] = entry
		}
		normalized[strings.ToLower(pair)] = byCat
	}
	return normalized, nil
}

// Replace swaps the table contents with freshly parsed JSON
func (t *Table) Replace(raw []byte) error {
	d, err := decode(raw)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.pairs = d
	t.mu.Unlock()
	return nil
}

// PairKey builds the table key for a country pair, e.g. "sri_lanka_to_india"
func PairKey(from, to string) string {
	norm := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	}
	return norm(from) + "_to_" + norm(to)
}

// Supports reports whether the table has any data for the pair
func (t *Table) Supports(from, to string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.pairs[PairKey(from, to)]
	return ok
}

// Items returns the items for a category of a supported pair.
// The category is matched case-insensitively.
func (t *Table) Items(from, to, category string) []model.ChecklistItem {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.pairs[PairKey(from, to)][strings.ToLower(category)]
	if !ok {
		return nil
	}
	return append([]model.ChecklistItem(nil), entry.Items...)
}

// Lookup answers a checklist request for a lane. Unsupported pairs come back
// with Available=false and the category index is not consulted.
func (t *Table) Lookup(from, to, category string) model.Checklist {
	result := model.Checklist{From: from, To: to, Category: category, Items: []model.ChecklistItem{}}
	if !t.Supports(from, to) {
		return result
	}
	result.Available = true
	if items := t.Items(from, to, category); items != nil {
		result.Items = items
	}
	return result
}

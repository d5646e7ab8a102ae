package model

import (
	"time"
)

// TradeLane is a user-owned (origin, destination, category) tuple.
// Records are never mutated after creation.
type TradeLane struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Route renders the lane as shown in lists and confirmations, e.g. "India to Nepal"
func (l TradeLane) Route() string {
	return l.From + " to " + l.To
}

// Countries offered by the wizard
var Countries = []string{"India", "Nepal", "China", "Sri Lanka"}

// Categories offered by the wizard
var Categories = []string{"Electronics", "Food", "Textiles", "Machinery", "Pharmaceuticals"}

// IsKnownCountry reports whether name is one of Countries
func IsKnownCountry(name string) bool {
	return contains(Countries, name)
}

// IsKnownCategory reports whether name is one of Categories
func IsKnownCategory(name string) bool {
	return contains(Categories, name)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

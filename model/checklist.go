package model

// TaxBreakdown holds the percentage charges applied to an item
type TaxBreakdown struct {
	ImportDutyPercent   float64 `json:"import_duty_percent"`
	VATPercent          float64 `json:"vat_percent"`
	OtherChargesPercent float64 `json:"other_charges_percent"`
	Notes               string  `json:"notes,omitempty"`
}

// TotalPercent is duty + VAT + other charges
func (t TaxBreakdown) TotalPercent() float64 {
	return t.ImportDutyPercent + t.VATPercent + t.OtherChargesPercent
}

// ChecklistItem is read-only customs reference data for one product
type ChecklistItem struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	HSCode            string       `json:"hs_code"`
	TaxBreakdown      TaxBreakdown `json:"tax_breakdown"`
	RequiredDocuments []string     `json:"required_documents"`
}

// Checklist is the answer to a lookup for a lane.
// Available is false when the country pair has no data yet ("coming soon").
type Checklist struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Category  string          `json:"category"`
	Available bool            `json:"available"`
	Items     []ChecklistItem `json:"items"`
}

package domain

import "github.com/shopspring/decimal"

// LineKind distinguishes plain product lines from combo lines. The two live
// in separate lists but share one line shape.
type LineKind string

const (
	LineProduct LineKind = "product"
	LineCombo   LineKind = "combo"
)

// CartLine is one entry in the cart. While a mutation is in flight the line
// carries a locally generated placeholder ID; placeholder IDs are never sent
// upstream as update or delete targets.
type CartLine struct {
	LineID      string          `json:"cart_item_id"`
	Placeholder bool            `json:"-"`
	Kind        LineKind        `json:"kind"`
	RefID       string          `json:"id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ImageURL    string          `json:"image,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	Options     map[string]any  `json:"options,omitempty"`
}

// Subtotal is unit price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the view returned to the app: both line lists plus derived totals.
type Cart struct {
	Lines      []CartLine      `json:"items"`
	ComboLines []CartLine      `json:"combo_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Total      decimal.Decimal `json:"total"`
}

// CartSnapshot is the shape persisted to the local key-value store.
type CartSnapshot struct {
	Lines      []CartLine `json:"products"`
	ComboLines []CartLine `json:"combos"`
}

// LinesTotal sums the subtotals of a line list.
func LinesTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// LinesCount sums quantities across a line list.
func LinesCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

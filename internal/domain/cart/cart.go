package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrLineNotFound is returned when a quantity update or removal targets a key
// that is not in the ledger.
var ErrLineNotFound = errors.New("cart line not found")

// Line is one sellable unit in the in-progress cart. Key is the merge
// identity: the variant ID when the line was resolved to a variant, otherwise
// the product ID. UnitPrice is bound at resolution time and is never
// re-validated against the live catalog until commit.
type Line struct {
	Key       string          `json:"key"`
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	Variant   string          `json:"variant,omitempty"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	// Stock captured at resolution time. Display only.
	Stock int `json:"stock,omitempty"`
	// ServiceSessions is carried from the product for recurring-service
	// lines; checkout opens a treatment package when it is non-zero.
	ServiceSessions int `json:"service_sessions,omitempty"`
}

// Total returns UnitPrice * Quantity for this line.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Ledger is the in-memory cart. Lines keep insertion order; adding a line
// whose Key is already present merges by incrementing the existing quantity.
// The zero value is ready to use.
type Ledger struct {
	lines []Line
}

// Add merges the given line into the ledger. A quantity below 1 is clamped
// to 1 before merging.
func (g *Ledger) Add(line Line) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}
	for i := range g.lines {
		if g.lines[i].Key == line.Key {
			g.lines[i].Quantity += line.Quantity
			return
		}
	}
	g.lines = append(g.lines, line)
}

// SetQuantity updates the quantity of the line with the given key. Values
// below 1 are clamped to 1: a line never holds a zero or negative quantity,
// removal is always explicit.
func (g *Ledger) SetQuantity(key string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	for i := range g.lines {
		if g.lines[i].Key == key {
			g.lines[i].Quantity = quantity
			return nil
		}
	}
	return ErrLineNotFound
}

// Remove deletes the line with the given key.
func (g *Ledger) Remove(key string) error {
	for i := range g.lines {
		if g.lines[i].Key == key {
			g.lines = append(g.lines[:i], g.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// Lines returns a copy of the ledger's lines in insertion order. Mutating the
// returned slice does not affect the ledger.
func (g *Ledger) Lines() []Line {
	out := make([]Line, len(g.lines))
	copy(out, g.lines)
	return out
}

// Len returns the number of distinct lines.
func (g *Ledger) Len() int {
	return len(g.lines)
}

// Empty reports whether the ledger holds no lines.
func (g *Ledger) Empty() bool {
	return len(g.lines) == 0
}

// Replace swaps the ledger content for the given lines, merging duplicates
// through Add. Used when recalling a held bill or loading an order for edit.
func (g *Ledger) Replace(lines []Line) {
	g.lines = g.lines[:0]
	for _, l := range lines {
		g.Add(l)
	}
}

// Subtract removes the quantities captured in a snapshot, dropping lines
// that reach zero. Quantity added after the snapshot was taken stays in the
// ledger, so input that raced a suspending operation is not lost.
func (g *Ledger) Subtract(lines []Line) {
	for _, s := range lines {
		for i := range g.lines {
			if g.lines[i].Key != s.Key {
				continue
			}
			g.lines[i].Quantity -= s.Quantity
			if g.lines[i].Quantity < 1 {
				g.lines = append(g.lines[:i], g.lines[i+1:]...)
			}
			break
		}
	}
}

// Clear empties the ledger.
func (g *Ledger) Clear() {
	g.lines = nil
}

// Subtotal returns the sum of line totals.
func (g *Ledger) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range g.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

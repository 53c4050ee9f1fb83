// Package hold suspends and resumes in-progress carts under a label, the POS
// equivalent of a bar tab. A held bill is consumed on recall; two holds never
// share an identity.
package hold

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
)

var (
	// ErrEmptyCart rejects holding a cart with no lines.
	ErrEmptyCart = errors.New("cannot hold an empty cart")
	// ErrNotFound is returned when a hold ID does not exist (or was
	// already recalled).
	ErrNotFound = errors.New("held bill not found")
)

// Bill is a named snapshot of a cart plus its customer context.
type Bill struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	CustomerID string          `json:"customer_id,omitempty"`
	Note       string          `json:"note,omitempty"`
	TerminalID string          `json:"terminal_id,omitempty"`
	Lines      []cart.Line     `json:"lines"`
	HeldAt     time.Time       `json:"held_at"`
}

// Store keeps held bills. Hold assigns the identity; Recall removes and
// returns the bill; Delete is an idempotent no-op when the ID is absent.
type Store interface {
	Hold(ctx context.Context, bill Bill) (string, error)
	Recall(ctx context.Context, id string) (*Bill, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Bill, error)
}

// Package checkout drives the multi-step commit sequence that turns an
// in-progress cart into a durable order: validate payment input, persist the
// order record, decrement inventory per line, and optionally open treatment
// packages. Once commit begins it runs to Settled unconditionally; inventory
// and package bookkeeping are best-effort and never roll the order back.
package checkout

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// State enumerates the checkout state machine. A terminal re-enters Idle with
// an editing order ID set when a completed order is reopened.
type State string

const (
	StateIdle            State = "idle"
	StateAwaitingPayment State = "awaiting_payment"
	StateCommitting      State = "committing"
	StateSettled         State = "settled"
)

var (
	// ErrEmptyCart blocks the Idle -> AwaitingPayment transition.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTender blocks commit when the tendered amount is negative,
	// or zero against a positive total.
	ErrInvalidTender = errors.New("tendered amount must not be negative and must cover a positive total")
	// ErrNotAwaitingPayment is returned when confirm arrives outside the
	// AwaitingPayment state.
	ErrNotAwaitingPayment = errors.New("no payment awaiting confirmation")
)

// Session identifies who is operating the terminal. Actor attribution in the
// payment history is a pure function of this value; nothing is read from
// ambient state.
type Session struct {
	ActorID    string
	ActorName  string
	TerminalID string
}

// PaymentInput is the fixed payment parameters at confirm time.
type PaymentInput struct {
	Method   string
	Tendered decimal.Decimal
}

// Validate rejects non-positive tender. A zero tender is allowed only against
// a zero total (an over-discounted cart is a valid, payable-for-free state).
func (p PaymentInput) Validate(total decimal.Decimal) error {
	if p.Tendered.IsNegative() {
		return ErrInvalidTender
	}
	if p.Tendered.IsZero() && total.IsPositive() {
		return ErrInvalidTender
	}
	return nil
}

package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is derived from the payment history, never stored independently.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentEvent is one entry of an order's append-only payment history. The
// change/shortfall is recorded as it was at the moment of the payment.
type PaymentEvent struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	PaidAt time.Time       `json:"paid_at"`
	PaidBy string          `json:"paid_by"`
	// Change is the signed paid-minus-total at this moment: positive is
	// change returned, negative an outstanding shortfall.
	Change decimal.Decimal `json:"change"`
}

// Order is the durable record created on commit. Lines are a snapshot of the
// cart at commit time; totals are stored as computed then and are never
// recomputed. Only the payment history grows afterwards.
type Order struct {
	ID             string
	Lines          []cart.Line
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Gratuity       decimal.Decimal
	Total          decimal.Decimal
	VoucherCode    string
	CustomerID     string
	Note           string
	PaymentMethod  string
	PaymentHistory []PaymentEvent
	Cancelled      bool
	CreatedAt      time.Time
}

// Received returns the cumulative amount received across the payment history.
func (o *Order) Received() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range o.PaymentHistory {
		sum = sum.Add(p.Amount)
	}
	return sum
}

// Status derives the order status: completed iff cumulative received covers
// the total, unless the order was explicitly cancelled.
func (o *Order) Status() Status {
	if o.Cancelled {
		return StatusCancelled
	}
	if o.Received().GreaterThanOrEqual(o.Total) {
		return StatusCompleted
	}
	return StatusPending
}

// Outstanding returns the remaining shortfall, floored at zero.
func (o *Order) Outstanding() decimal.Decimal {
	out := o.Total.Sub(o.Received())
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Repository defines persistence operations for orders. Delete is idempotent.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	Delete(ctx context.Context, id string) error
	// AppendPayment appends one event to the order's payment history and
	// returns the updated order. History entries are never mutated or
	// reordered.
	AppendPayment(ctx context.Context, id string, event PaymentEvent) (*Order, error)
}

package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/customer"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/order"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/pricing"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/treatment"
)

// CommitRequest carries everything the commit sequence needs. Lines and
// Totals are the cart state at confirm time; EditingOrderID is set when the
// commit replaces a previously completed order.
type CommitRequest struct {
	Lines          []cart.Line
	Totals         pricing.Totals
	Payment        PaymentInput
	Session        Session
	CustomerID     string
	VoucherCode    string
	Note           string
	EditingOrderID string
}

// LineOutcome records the result of one best-effort side step (inventory
// decrement or package creation) for one line.
type LineOutcome struct {
	Key       string
	VariantID string
	Quantity  int
	Err       error
}

// Result is the outcome of a settled commit. Order is the immutable created
// record; Inventory and Packages report per-line side-step results so the
// boundary can surface a partial-failure summary instead of swallowing it.
type Result struct {
	Order     *order.Order
	Inventory []LineOutcome
	Packages  []LineOutcome
}

// Failed reports whether any best-effort step failed.
func (r *Result) Failed() bool {
	for _, lo := range r.Inventory {
		if lo.Err != nil {
			return true
		}
	}
	for _, lo := range r.Packages {
		if lo.Err != nil {
			return true
		}
	}
	return false
}

// Orchestrator performs the commit sequence against the external
// collaborators.
type Orchestrator struct {
	inventory  catalog.Inventory
	orders     order.Repository
	customers  customer.Directory
	treatments treatment.Repository
	lg         *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates an Orchestrator with the required collaborators.
func New(
	inventory catalog.Inventory,
	orders order.Repository,
	customers customer.Directory,
	treatments treatment.Repository,
	lg *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		inventory:  inventory,
		orders:     orders,
		customers:  customers,
		treatments: treatments,
		lg:         lg,
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// Commit runs the Committing sequence. An error return means the order was
// NOT created (validation failure or order persistence failure) and no state
// changed. A nil error means Settled was reached: the order exists even when
// inventory or package steps individually failed; those failures live in
// the Result.
func (o *Orchestrator) Commit(ctx context.Context, req CommitRequest) (*Result, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	if err := req.Payment.Validate(req.Totals.Total); err != nil {
		return nil, err
	}

	now := o.now()

	// The first payment history entry is synthesized at confirm time with
	// the change/shortfall as of this moment.
	firstPayment := order.PaymentEvent{
		Amount: req.Payment.Tendered,
		Method: req.Payment.Method,
		PaidAt: now,
		PaidBy: req.Session.ActorName,
		Change: pricing.Change(req.Payment.Tendered, req.Totals.Total),
	}

	// Editing replaces, never mutates: the prior record is hard-deleted
	// before the new one is created. A crash between the two steps loses
	// the sale; known gap, logged before entering the window.
	if req.EditingOrderID != "" {
		o.lg.Warn("deleting prior order before recreate",
			zap.String("order_id", req.EditingOrderID),
			zap.String("terminal", req.Session.TerminalID))
		if err := o.orders.Delete(ctx, req.EditingOrderID); err != nil {
			return nil, errors.Wrapf(err, "delete order %s", req.EditingOrderID)
		}
	}

	lines := make([]cart.Line, len(req.Lines))
	copy(lines, req.Lines)

	ord := &order.Order{
		ID:             o.newID(),
		Lines:          lines,
		Subtotal:       req.Totals.Subtotal,
		Discount:       req.Totals.Discount,
		Gratuity:       req.Totals.Gratuity,
		Total:          req.Totals.Total,
		VoucherCode:    req.VoucherCode,
		CustomerID:     req.CustomerID,
		Note:           req.Note,
		PaymentMethod:  req.Payment.Method,
		PaymentHistory: []order.PaymentEvent{firstPayment},
		CreatedAt:      now,
	}
	if err := o.orders.Create(ctx, ord); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// From here on nothing aborts the transition to Settled.
	res := &Result{Order: ord}
	res.Inventory = o.decrementInventory(ctx, ord)
	res.Packages = o.openPackages(ctx, ord)

	return res, nil
}

// decrementInventory issues one decrement per line carrying a bound variant
// identity. Calls run in parallel; each is independent, failures are logged
// and skipped, never rolled back or retried.
func (o *Orchestrator) decrementInventory(ctx context.Context, ord *order.Order) []LineOutcome {
	var targets []int
	for i, l := range ord.Lines {
		if l.VariantID != "" {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	outcomes := make([]LineOutcome, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for slot, idx := range targets {
		l := ord.Lines[idx]
		outcomes[slot] = LineOutcome{Key: l.Key, VariantID: l.VariantID, Quantity: l.Quantity}
		g.Go(func() error {
			err := o.inventory.DecrementStock(gctx, catalog.DecrementRequest{
				VariantID: l.VariantID,
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				OrderID:   ord.ID,
				Reason:    "sale",
			})
			if err != nil {
				outcomes[slot].Err = err
				o.lg.Warn("inventory decrement failed",
					zap.String("order_id", ord.ID),
					zap.String("variant_id", l.VariantID),
					zap.Int("quantity", l.Quantity),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// openPackages creates a treatment package for every recurring-service line,
// but only when a registered customer is attached to the sale. Walk-in sales
// never open packages.
func (o *Orchestrator) openPackages(ctx context.Context, ord *order.Order) []LineOutcome {
	if ord.CustomerID == "" {
		return nil
	}

	var serviceLines []cart.Line
	for _, l := range ord.Lines {
		if l.ServiceSessions > 0 {
			serviceLines = append(serviceLines, l)
		}
	}
	if len(serviceLines) == 0 {
		return nil
	}

	cust, err := o.customers.GetByID(ctx, ord.CustomerID)
	if err != nil {
		o.lg.Warn("customer lookup failed, skipping package creation",
			zap.String("order_id", ord.ID),
			zap.String("customer_id", ord.CustomerID),
			zap.Error(err))
		outcomes := make([]LineOutcome, len(serviceLines))
		for i, l := range serviceLines {
			outcomes[i] = LineOutcome{Key: l.Key, VariantID: l.VariantID, Quantity: l.Quantity, Err: err}
		}
		return outcomes
	}

	outcomes := make([]LineOutcome, len(serviceLines))
	for i, l := range serviceLines {
		outcomes[i] = LineOutcome{Key: l.Key, VariantID: l.VariantID, Quantity: l.Quantity}
		pkg := &treatment.Package{
			ID:            o.newID(),
			CustomerID:    cust.ID,
			ProductID:     l.ProductID,
			ProductName:   l.Name,
			OrderID:       ord.ID,
			TotalSessions: l.ServiceSessions * l.Quantity,
			CreatedAt:     o.now(),
		}
		if err := o.treatments.Create(ctx, pkg); err != nil {
			outcomes[i].Err = err
			o.lg.Warn("treatment package creation failed",
				zap.String("order_id", ord.ID),
				zap.String("product_id", l.ProductID),
				zap.Error(err))
		}
	}
	return outcomes
}

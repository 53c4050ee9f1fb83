// Package register is the terminal-facing core of the POS: it owns one
// in-progress cart and its discount state, feeds scanner/keyboard input
// through the classifier and resolver, and exposes the three commands the
// presentation layer drives (commit, hold, recall) plus a synchronous
// snapshot getter. All mutations are serialized behind one mutex; external
// collaborator calls happen outside it.
package register

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hieplevanqts/salepa-checkout/internal/checkout"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/order"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/pricing"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/voucher"
	"github.com/hieplevanqts/salepa-checkout/internal/hold"
	"github.com/hieplevanqts/salepa-checkout/internal/resolve"
	"github.com/hieplevanqts/salepa-checkout/internal/scan"
)

var (
	// ErrCartNotEmpty rejects recalling a held bill into a non-empty cart;
	// the operator must hold or clear the active cart first.
	ErrCartNotEmpty = errors.New("active cart is not empty")
	// ErrNotEditing is returned when cancel-edit arrives with no edit in
	// progress.
	ErrNotEditing = errors.New("no order is being edited")
)

// Snapshot is the synchronous view the presentation layer renders from.
type Snapshot struct {
	State          checkout.State
	EditingOrderID string
	Lines          []cart.Line
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Gratuity       decimal.Decimal
	Total          decimal.Decimal
	VoucherCode    string
	Manual         pricing.ManualDiscount
	CustomerID     string
	Note           string
	// Tendered and Change are meaningful only in AwaitingPayment. Change
	// is the signed paid-minus-total: positive change owed, negative
	// outstanding shortfall.
	Tendered decimal.Decimal
	Change   decimal.Decimal
	// Notices are transient operator notifications (failed scans, partial
	// commit warnings). Reading them does not clear them; Dismiss does.
	Notices []string
}

// ClickOutcome reports a click resolution. When Options is non-empty the
// product is multi-variant and an explicit Choose call must follow.
type ClickOutcome struct {
	Added   bool
	Options []catalog.Variant
}

// Register binds one terminal's classifier, cart, discount state and the
// checkout orchestrator.
type Register struct {
	terminalID string
	resolver   *resolve.Resolver
	vouchers   voucher.Validator
	orch       *checkout.Orchestrator
	orders     order.Repository
	holds      hold.Store
	lg         *zap.Logger

	classifier *scan.Classifier

	mu             sync.Mutex
	ledger         cart.Ledger
	manual         pricing.ManualDiscount
	voucherCode    string
	voucherAmount  decimal.Decimal
	gratuity       decimal.Decimal
	customerID     string
	note           string
	state          checkout.State
	pendingPayment checkout.PaymentInput
	editingOrderID string
	notices        []string
}

// New creates a Register for one terminal.
func New(
	terminalID string,
	scanCfg scan.Config,
	resolver *resolve.Resolver,
	vouchers voucher.Validator,
	orch *checkout.Orchestrator,
	orders order.Repository,
	holds hold.Store,
	lg *zap.Logger,
) *Register {
	r := &Register{
		terminalID:    terminalID,
		resolver:      resolver,
		vouchers:      vouchers,
		orch:          orch,
		orders:        orders,
		holds:         holds,
		lg:            lg.With(zap.String("terminal", terminalID)),
		state:         checkout.StateIdle,
		voucherAmount: decimal.Zero,
		gratuity:      decimal.Zero,
	}
	r.classifier = scan.New(scanCfg, r.onSubmit)
	return r
}

// Keys feeds raw character appends from the terminal's input channel into the
// classifier, timestamped at arrival. Submits surface asynchronously through
// the snapshot.
func (r *Register) Keys(chunk string) {
	r.classifier.Append(chunk)
}

// KeysAt is Keys with a client-supplied capture timestamp. Burst
// classification depends on inter-key deltas, so remote terminals send the
// time the characters were captured rather than letting network jitter decide.
func (r *Register) KeysAt(chunk string, at time.Time) {
	r.classifier.AppendAt(chunk, at)
}

// Terminate signals the explicit input terminator (scanner suffix or Enter).
func (r *Register) Terminate() {
	r.classifier.Terminate()
}

// onSubmit is the classifier's submit callback: resolve the code and add the
// line. A failed lookup clears the buffer and re-arms for the next scan; it
// never blocks subsequent input.
func (r *Register) onSubmit(code string, origin scan.Origin) {
	if err := r.Scan(context.Background(), code); err != nil {
		r.lg.Info("scan did not resolve",
			zap.String("code", code),
			zap.String("origin", string(origin)),
			zap.Error(err))
		r.classifier.Reset()
		r.notify("code " + code + " not found")
	}
}

// Scan resolves a normalized barcode and appends the line to the cart. Out of
// order completion of concurrent scans is harmless: lines are appended (or
// merged), never positionally inserted.
func (r *Register) Scan(ctx context.Context, code string) error {
	line, err := r.resolver.ResolveBarcode(ctx, scan.Normalize(code))
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.ledger.Add(line)
	r.mu.Unlock()
	return nil
}

// Click resolves a catalog-entry click. A multi-variant product yields the
// variant options instead of a line; the cart is unchanged until Choose.
func (r *Register) Click(ctx context.Context, productID string) (*ClickOutcome, error) {
	line, err := r.resolver.ResolveClick(ctx, productID)
	if err != nil {
		var ambErr *resolve.AmbiguousError
		if errors.As(err, &ambErr) {
			return &ClickOutcome{Options: ambErr.Variants}, nil
		}
		return nil, err
	}

	r.mu.Lock()
	r.ledger.Add(line)
	r.mu.Unlock()
	return &ClickOutcome{Added: true}, nil
}

// Choose completes an ambiguous click with an explicit variant choice.
func (r *Register) Choose(ctx context.Context, productID, variantID string) error {
	line, err := r.resolver.ResolveChoice(ctx, productID, variantID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.ledger.Add(line)
	r.mu.Unlock()
	return nil
}

// SetQuantity updates a line's quantity (clamped to >= 1).
func (r *Register) SetQuantity(key string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.SetQuantity(key, quantity)
}

// RemoveLine removes a line from the cart.
func (r *Register) RemoveLine(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledger.Remove(key)
}

// SetManualDiscount replaces the manual discount. Quick-percentage buttons
// and free-form input both land here; they set the same value and are never
// additive.
func (r *Register) SetManualDiscount(m pricing.ManualDiscount) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	r.manual = m
	r.mu.Unlock()
	return nil
}

// ApplyVoucher validates the code against the current subtotal and activates
// it, replacing any previously active voucher.
func (r *Register) ApplyVoucher(ctx context.Context, code string) error {
	r.mu.Lock()
	subtotal := r.ledger.Subtotal()
	r.mu.Unlock()

	d, err := r.vouchers.Validate(ctx, scan.Normalize(code), subtotal)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.voucherCode = d.Code
	r.voucherAmount = d.Amount
	r.mu.Unlock()
	return nil
}

// RemoveVoucher deactivates the active voucher.
func (r *Register) RemoveVoucher() {
	r.mu.Lock()
	r.voucherCode = ""
	r.voucherAmount = decimal.Zero
	r.mu.Unlock()
}

// SetGratuity sets the optional gratuity.
func (r *Register) SetGratuity(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return pricing.ErrNegativeGratuity
	}
	r.mu.Lock()
	r.gratuity = amount
	r.mu.Unlock()
	return nil
}

// SetCustomer attaches a registered customer (empty means walk-in).
func (r *Register) SetCustomer(customerID string) {
	r.mu.Lock()
	r.customerID = customerID
	r.mu.Unlock()
}

// SetNote sets the free-form order note.
func (r *Register) SetNote(note string) {
	r.mu.Lock()
	r.note = note
	r.mu.Unlock()
}

// BeginPayment fixes the payment input and enters AwaitingPayment. It
// refuses an empty cart with a validation failure, not a crash.
func (r *Register) BeginPayment(input checkout.PaymentInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ledger.Empty() {
		return checkout.ErrEmptyCart
	}
	r.pendingPayment = input
	r.state = checkout.StateAwaitingPayment
	return nil
}

// CancelPayment discards in-memory payment-form state. It does not cancel a
// commit already in flight.
func (r *Register) CancelPayment() {
	r.mu.Lock()
	if r.state == checkout.StateAwaitingPayment {
		r.pendingPayment = checkout.PaymentInput{}
		r.state = checkout.StateIdle
	}
	r.mu.Unlock()
}

// Confirm triggers AwaitingPayment -> Committing with the previously fixed
// payment input.
func (r *Register) Confirm(ctx context.Context, session checkout.Session) (*checkout.Result, error) {
	r.mu.Lock()
	if r.state != checkout.StateAwaitingPayment {
		r.mu.Unlock()
		return nil, checkout.ErrNotAwaitingPayment
	}
	input := r.pendingPayment
	r.mu.Unlock()

	return r.Commit(ctx, session, input)
}

// Commit drives the full commit sequence for the current cart. On success
// the committed lines leave the register and the per-sale state resets; the
// returned result carries the immutable created order and any partial
// best-effort failures.
func (r *Register) Commit(ctx context.Context, session checkout.Session, input checkout.PaymentInput) (*checkout.Result, error) {
	r.mu.Lock()
	if r.ledger.Empty() {
		r.mu.Unlock()
		return nil, checkout.ErrEmptyCart
	}
	session.TerminalID = r.terminalID
	lines := r.ledger.Lines()
	totals := r.quoteLocked(lines)
	req := checkout.CommitRequest{
		Lines:          lines,
		Totals:         totals,
		Payment:        input,
		Session:        session,
		CustomerID:     r.customerID,
		VoucherCode:    r.voucherCode,
		Note:           r.note,
		EditingOrderID: r.editingOrderID,
	}
	if err := input.Validate(totals.Total); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.state = checkout.StateCommitting
	r.mu.Unlock()

	res, err := r.orch.Commit(ctx, req)
	if err != nil {
		// Validation or order persistence failed: nothing changed,
		// the operator can retry.
		r.mu.Lock()
		r.state = checkout.StateIdle
		r.mu.Unlock()
		return nil, err
	}

	// Input may have arrived while the orchestrator was in flight. Remove
	// only the committed snapshot so a concurrent scan starts the next sale
	// instead of vanishing.
	r.mu.Lock()
	r.ledger.Subtract(req.Lines)
	r.clearSaleLocked()
	if res.Failed() {
		r.notices = append(r.notices, "order "+res.Order.ID+" placed with bookkeeping warnings")
	}
	r.mu.Unlock()
	return res, nil
}

// Hold suspends the current cart under a label and clears the register.
func (r *Register) Hold(ctx context.Context, label string) (string, error) {
	r.mu.Lock()
	if r.ledger.Empty() {
		r.mu.Unlock()
		return "", hold.ErrEmptyCart
	}
	bill := hold.Bill{
		Label:      label,
		CustomerID: r.customerID,
		Note:       r.note,
		TerminalID: r.terminalID,
		Lines:      r.ledger.Lines(),
	}
	r.mu.Unlock()

	id, err := r.holds.Hold(ctx, bill)
	if err != nil {
		return "", err
	}

	// Same race as Commit: subtract the held snapshot, keep anything scanned
	// while the store call was pending.
	r.mu.Lock()
	r.ledger.Subtract(bill.Lines)
	r.clearSaleLocked()
	r.mu.Unlock()
	return id, nil
}

// Recall loads a held bill into the register, replacing (never appending to)
// the active cart. A non-empty cart must be held or cleared first.
func (r *Register) Recall(ctx context.Context, holdID string) error {
	r.mu.Lock()
	if !r.ledger.Empty() {
		r.mu.Unlock()
		return ErrCartNotEmpty
	}
	r.mu.Unlock()

	bill, err := r.holds.Recall(ctx, holdID)
	if err != nil {
		return err
	}

	// The emptiness precondition was checked before the store call; a scan
	// racing the recall may have added lines since. Merge rather than
	// replace, and never clobber state set in the meantime: the bill was
	// already consumed from the store, so dropping anything here loses it.
	r.mu.Lock()
	for _, l := range bill.Lines {
		r.ledger.Add(l)
	}
	if r.customerID == "" {
		r.customerID = bill.CustomerID
	}
	if r.note == "" {
		r.note = bill.Note
	}
	r.mu.Unlock()
	return nil
}

// BeginEdit loads a completed order for in-place editing. Lines are
// re-resolved against the live catalog by identity; the stored snapshot's
// prices are not trusted. The original record stays untouched until commit,
// which deletes and recreates it.
func (r *Register) BeginEdit(ctx context.Context, orderID string) error {
	ord, err := r.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	var lines []cart.Line
	var dropped []string
	for _, stored := range ord.Lines {
		if stored.VariantID == "" {
			lines = append(lines, stored)
			continue
		}
		live, err := r.resolver.ResolveChoice(ctx, stored.ProductID, stored.VariantID)
		if err != nil {
			dropped = append(dropped, stored.Name)
			continue
		}
		live.Quantity = stored.Quantity
		lines = append(lines, live)
	}

	r.mu.Lock()
	r.resetLocked()
	r.ledger.Replace(lines)
	r.customerID = ord.CustomerID
	r.note = ord.Note
	r.editingOrderID = ord.ID
	for _, name := range dropped {
		r.notices = append(r.notices, "line "+name+" no longer in catalog, dropped from edit")
	}
	r.mu.Unlock()
	return nil
}

// CancelEdit abandons an edit, leaving the original order untouched.
func (r *Register) CancelEdit() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.editingOrderID == "" {
		return ErrNotEditing
	}
	r.resetLocked()
	return nil
}

// Snapshot returns the current register view.
func (r *Register) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := r.ledger.Lines()
	totals := r.quoteLocked(lines)

	s := Snapshot{
		State:          r.state,
		EditingOrderID: r.editingOrderID,
		Lines:          lines,
		Subtotal:       totals.Subtotal,
		Discount:       totals.Discount,
		Gratuity:       totals.Gratuity,
		Total:          totals.Total,
		VoucherCode:    r.voucherCode,
		Manual:         r.manual,
		CustomerID:     r.customerID,
		Note:           r.note,
		Notices:        append([]string(nil), r.notices...),
	}
	if r.state == checkout.StateAwaitingPayment {
		s.Tendered = r.pendingPayment.Tendered
		s.Change = pricing.Change(r.pendingPayment.Tendered, totals.Total)
	}
	return s
}

// Dismiss clears the transient operator notices.
func (r *Register) Dismiss() {
	r.mu.Lock()
	r.notices = nil
	r.mu.Unlock()
}

// Clear empties the cart and all per-sale state without committing.
func (r *Register) Clear() {
	r.mu.Lock()
	r.resetLocked()
	r.mu.Unlock()
}

func (r *Register) notify(msg string) {
	r.mu.Lock()
	r.notices = append(r.notices, msg)
	r.mu.Unlock()
}

func (r *Register) quoteLocked(lines []cart.Line) pricing.Totals {
	return pricing.Quote(lines, r.voucherAmount, r.manual, r.gratuity)
}

// resetLocked restores the empty defaults after cancel-edit or clear.
// Notices survive the reset so warnings are not lost.
func (r *Register) resetLocked() {
	r.ledger.Clear()
	r.clearSaleLocked()
}

// clearSaleLocked resets the per-sale state around the ledger. Commit and
// Hold subtract their snapshot instead of clearing the ledger so lines that
// raced the suspending call survive into the next sale.
func (r *Register) clearSaleLocked() {
	r.manual = pricing.ManualDiscount{}
	r.voucherCode = ""
	r.voucherAmount = decimal.Zero
	r.gratuity = decimal.Zero
	r.customerID = ""
	r.note = ""
	r.pendingPayment = checkout.PaymentInput{}
	r.editingOrderID = ""
	r.state = checkout.StateIdle
}

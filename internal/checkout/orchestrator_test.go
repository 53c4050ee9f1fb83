package checkout

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/customer"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/order"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/pricing"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/treatment"
)

// --- Mock collaborators ---

type mockInventory struct {
	mu       sync.Mutex
	calls    []catalog.DecrementRequest
	failFor  map[string]error
	failAll  error
}

func (m *mockInventory) DecrementStock(_ context.Context, req catalog.DecrementRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.failAll != nil {
		return m.failAll
	}
	if err, ok := m.failFor[req.VariantID]; ok {
		return err
	}
	return nil
}

type mockOrderRepo struct {
	created   []*order.Order
	deleted   []string
	createErr error
	deleteErr error
	// ops records the interleaving of delete and create calls.
	ops []string
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, o)
	m.ops = append(m.ops, "create:"+o.ID)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	for _, o := range m.created {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	m.ops = append(m.ops, "delete:"+id)
	return nil
}

func (m *mockOrderRepo) AppendPayment(_ context.Context, id string, _ order.PaymentEvent) (*order.Order, error) {
	return nil, order.ErrNotFound
}

type mockDirectory struct {
	customers map[string]*customer.Customer
}

func (m *mockDirectory) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

type mockTreatmentRepo struct {
	created   []*treatment.Package
	createErr error
}

func (m *mockTreatmentRepo) Create(_ context.Context, p *treatment.Package) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, p)
	return nil
}

func (m *mockTreatmentRepo) ListByCustomer(_ context.Context, _ string) ([]treatment.Package, error) {
	return nil, nil
}

// --- Helpers ---

type fixture struct {
	inv    *mockInventory
	orders *mockOrderRepo
	dir    *mockDirectory
	pkgs   *mockTreatmentRepo
	orch   *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		inv:    &mockInventory{failFor: map[string]error{}},
		orders: &mockOrderRepo{},
		dir:    &mockDirectory{customers: map[string]*customer.Customer{}},
		pkgs:   &mockTreatmentRepo{},
	}
	f.orch = New(f.inv, f.orders, f.dir, f.pkgs, zap.NewNop())
	f.orch.now = func() time.Time { return time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC) }
	n := 0
	f.orch.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return f
}

func shirtLine(qty int) cart.Line {
	return cart.Line{
		Key: "v-shirt-m", ProductID: "p-shirt", VariantID: "v-shirt-m",
		Name: "Linen Shirt", UnitPrice: decimal.NewFromInt(100000), Quantity: qty,
	}
}

func commitReq(lines ...cart.Line) CommitRequest {
	totals := pricing.Quote(lines, decimal.Zero, pricing.ManualDiscount{}, decimal.Zero)
	return CommitRequest{
		Lines:   lines,
		Totals:  totals,
		Payment: PaymentInput{Method: "cash", Tendered: totals.Total},
		Session: Session{ActorID: "u1", ActorName: "lan", TerminalID: "t1"},
	}
}

// --- Tests ---

func TestCommit_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Commit(context.Background(), CommitRequest{})
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.orders.created)
}

func TestCommit_InvalidTender(t *testing.T) {
	f := newFixture(t)

	req := commitReq(shirtLine(1))
	req.Payment.Tendered = decimal.NewFromInt(-1)
	_, err := f.orch.Commit(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidTender)

	req.Payment.Tendered = decimal.Zero
	_, err = f.orch.Commit(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidTender)

	assert.Empty(t, f.orders.created)
	assert.Empty(t, f.inv.calls)
}

func TestCommit_ZeroTenderAllowedForZeroTotal(t *testing.T) {
	f := newFixture(t)

	lines := []cart.Line{shirtLine(1)}
	totals := pricing.Quote(lines, decimal.NewFromInt(200000), pricing.ManualDiscount{}, decimal.Zero)
	require.True(t, totals.Total.IsZero())

	res, err := f.orch.Commit(context.Background(), CommitRequest{
		Lines:   lines,
		Totals:  totals,
		Payment: PaymentInput{Method: "cash", Tendered: decimal.Zero},
	})
	require.NoError(t, err)
	assert.True(t, res.Order.Total.IsZero())
}

func TestCommit_CreatesOrderWithFirstPayment(t *testing.T) {
	f := newFixture(t)

	req := commitReq(shirtLine(2))
	req.Payment.Tendered = decimal.NewFromInt(250000)
	res, err := f.orch.Commit(context.Background(), req)
	require.NoError(t, err)

	ord := res.Order
	require.Len(t, f.orders.created, 1)
	assert.True(t, ord.Subtotal.Equal(decimal.NewFromInt(200000)))
	assert.True(t, ord.Total.Equal(decimal.NewFromInt(200000)))

	require.Len(t, ord.PaymentHistory, 1)
	pe := ord.PaymentHistory[0]
	assert.True(t, pe.Amount.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, "cash", pe.Method)
	assert.Equal(t, "lan", pe.PaidBy)
	assert.True(t, pe.Change.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, order.StatusCompleted, ord.Status())
}

func TestCommit_SnapshotIsACopy(t *testing.T) {
	f := newFixture(t)

	lines := []cart.Line{shirtLine(2)}
	req := commitReq(lines...)
	req.Lines = lines
	res, err := f.orch.Commit(context.Background(), req)
	require.NoError(t, err)

	// Later cart mutation must not alter the committed order.
	lines[0].Quantity = 99
	assert.Equal(t, 2, res.Order.Lines[0].Quantity)
	assert.True(t, res.Order.Subtotal.Equal(decimal.NewFromInt(200000)))
}

func TestCommit_DecrementsInventoryPerLine(t *testing.T) {
	f := newFixture(t)

	other := cart.Line{
		Key: "v-soda", ProductID: "p-soda", VariantID: "v-soda",
		Name: "Soda", UnitPrice: decimal.NewFromInt(12000), Quantity: 3,
	}
	res, err := f.orch.Commit(context.Background(), commitReq(shirtLine(2), other))
	require.NoError(t, err)

	require.Len(t, f.inv.calls, 2)
	byVariant := map[string]catalog.DecrementRequest{}
	for _, c := range f.inv.calls {
		byVariant[c.VariantID] = c
	}
	assert.Equal(t, 2, byVariant["v-shirt-m"].Quantity)
	assert.Equal(t, 3, byVariant["v-soda"].Quantity)
	assert.Equal(t, res.Order.ID, byVariant["v-soda"].OrderID)
	assert.Equal(t, "sale", byVariant["v-soda"].Reason)
	assert.False(t, res.Failed())
}

func TestCommit_InventoryFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.inv.failFor["v-shirt-m"] = errors.New("stock service down")

	res, err := f.orch.Commit(context.Background(), commitReq(shirtLine(1)))
	require.NoError(t, err, "commit settles even when decrements fail")

	require.Len(t, f.orders.created, 1)
	assert.True(t, res.Failed())
	require.Len(t, res.Inventory, 1)
	assert.Error(t, res.Inventory[0].Err)
	assert.Equal(t, "v-shirt-m", res.Inventory[0].VariantID)
}

func TestCommit_NoVariantIdentityNoDecrements(t *testing.T) {
	f := newFixture(t)

	bare := cart.Line{Key: "p-misc", ProductID: "p-misc", Name: "Misc", UnitPrice: decimal.NewFromInt(5000), Quantity: 1}
	res, err := f.orch.Commit(context.Background(), commitReq(bare))
	require.NoError(t, err)

	assert.Empty(t, f.inv.calls)
	assert.Empty(t, res.Inventory)
	require.Len(t, f.orders.created, 1)
}

func TestCommit_EditDeletesBeforeCreate(t *testing.T) {
	f := newFixture(t)

	req := commitReq(shirtLine(3))
	req.EditingOrderID = "old-order"
	res, err := f.orch.Commit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, f.orders.ops, 2)
	assert.Equal(t, "delete:old-order", f.orders.ops[0])
	assert.Equal(t, "create:"+res.Order.ID, f.orders.ops[1])
	assert.NotEqual(t, "old-order", res.Order.ID)
	assert.True(t, res.Order.Subtotal.Equal(decimal.NewFromInt(300000)))
}

func TestCommit_EditDeleteFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.orders.deleteErr = errors.New("db down")

	req := commitReq(shirtLine(1))
	req.EditingOrderID = "old-order"
	_, err := f.orch.Commit(context.Background(), req)

	require.Error(t, err)
	assert.Empty(t, f.orders.created)
	assert.Empty(t, f.inv.calls)
}

func TestCommit_OrderCreateFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.orders.createErr = errors.New("db down")

	_, err := f.orch.Commit(context.Background(), commitReq(shirtLine(1)))
	require.Error(t, err)
	assert.Empty(t, f.inv.calls, "no decrements without an order record")
}

func TestCommit_OpensPackageForRegisteredCustomer(t *testing.T) {
	f := newFixture(t)
	f.dir.customers["c1"] = &customer.Customer{ID: "c1", Name: "Mai"}

	svc := cart.Line{
		Key: "v-massage", ProductID: "p-massage", VariantID: "v-massage",
		Name: "Hot Stone Massage", UnitPrice: decimal.NewFromInt(500000),
		Quantity: 2, ServiceSessions: 5,
	}
	req := commitReq(svc)
	req.CustomerID = "c1"
	res, err := f.orch.Commit(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, f.pkgs.created, 1)
	pkg := f.pkgs.created[0]
	assert.Equal(t, "c1", pkg.CustomerID)
	assert.Equal(t, "p-massage", pkg.ProductID)
	assert.Equal(t, res.Order.ID, pkg.OrderID)
	assert.Equal(t, 10, pkg.TotalSessions)
	assert.False(t, res.Failed())
}

func TestCommit_WalkInNeverOpensPackages(t *testing.T) {
	f := newFixture(t)

	svc := cart.Line{
		Key: "v-massage", ProductID: "p-massage", VariantID: "v-massage",
		Name: "Massage", UnitPrice: decimal.NewFromInt(500000), Quantity: 1, ServiceSessions: 5,
	}
	res, err := f.orch.Commit(context.Background(), commitReq(svc))
	require.NoError(t, err)

	assert.Empty(t, f.pkgs.created)
	assert.Empty(t, res.Packages)
}

func TestCommit_UnknownCustomerSkipsPackagesButSettles(t *testing.T) {
	f := newFixture(t)

	svc := cart.Line{
		Key: "v-massage", ProductID: "p-massage", VariantID: "v-massage",
		Name: "Massage", UnitPrice: decimal.NewFromInt(500000), Quantity: 1, ServiceSessions: 5,
	}
	req := commitReq(svc)
	req.CustomerID = "ghost"
	res, err := f.orch.Commit(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, f.pkgs.created)
	assert.True(t, res.Failed())
	require.Len(t, res.Packages, 1)
	assert.Error(t, res.Packages[0].Err)
}

func TestCommit_PackageCreateFailureDoesNotRollBack(t *testing.T) {
	f := newFixture(t)
	f.dir.customers["c1"] = &customer.Customer{ID: "c1"}
	f.pkgs.createErr = errors.New("db down")

	svc := cart.Line{
		Key: "v-massage", ProductID: "p-massage", VariantID: "v-massage",
		Name: "Massage", UnitPrice: decimal.NewFromInt(500000), Quantity: 1, ServiceSessions: 3,
	}
	req := commitReq(svc)
	req.CustomerID = "c1"
	res, err := f.orch.Commit(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, f.orders.created, 1)
	assert.True(t, res.Failed())
}

func TestCommit_RoundTripSubtotal(t *testing.T) {
	f := newFixture(t)

	lines := []cart.Line{shirtLine(2), {
		Key: "v-soda", ProductID: "p-soda", VariantID: "v-soda",
		UnitPrice: decimal.NewFromInt(12000), Quantity: 5,
	}}
	res, err := f.orch.Commit(context.Background(), commitReq(lines...))
	require.NoError(t, err)

	// Stored subtotal equals an independently computed sum(price*qty).
	want := decimal.NewFromInt(100000*2 + 12000*5)
	assert.True(t, res.Order.Subtotal.Equal(want))
}

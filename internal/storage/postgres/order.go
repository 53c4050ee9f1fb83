package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, lines, subtotal, discount, gratuity, total, voucher_code,
		 customer_id, note, payment_method, payment_history, cancelled, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	orderColumns = `id, lines, subtotal, discount, gratuity, total, voucher_code,
		customer_id, note, payment_method, payment_history, cancelled, created_at`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		ORDER BY created_at DESC LIMIT $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	appendPaymentSQL = `UPDATE orders
		SET payment_history = payment_history || $2::jsonb
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Cart
// lines and the payment history are stored as JSONB snapshots.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}
	historyJSON, err := json.Marshal(o.PaymentHistory)
	if err != nil {
		return fmt.Errorf("marshaling payment history: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, linesJSON, o.Subtotal, o.Discount, o.Gratuity, o.Total,
		o.VoucherCode, o.CustomerID, o.Note, o.PaymentMethod,
		historyJSON, o.Cancelled, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// List returns the most recent orders, newest first.
func (r *OrderRepository) List(ctx context.Context, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Delete removes an order. Deleting an unknown ID is a no-op.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteOrderSQL, id); err != nil {
		return fmt.Errorf("deleting order %q: %w", id, err)
	}
	return nil
}

// AppendPayment appends one event to the order's JSONB payment history and
// returns the updated order.
func (r *OrderRepository) AppendPayment(ctx context.Context, id string, event order.PaymentEvent) (*order.Order, error) {
	eventJSON, err := json.Marshal([]order.PaymentEvent{event})
	if err != nil {
		return nil, fmt.Errorf("marshaling payment event: %w", err)
	}

	tag, err := r.pool.Exec(ctx, appendPaymentSQL, id, eventJSON)
	if err != nil {
		return nil, fmt.Errorf("appending payment to order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, order.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o           order.Order
		linesJSON   []byte
		historyJSON []byte
	)
	err := row.Scan(
		&o.ID, &linesJSON, &o.Subtotal, &o.Discount, &o.Gratuity, &o.Total,
		&o.VoucherCode, &o.CustomerID, &o.Note, &o.PaymentMethod,
		&historyJSON, &o.Cancelled, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return o, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	if err := json.Unmarshal(historyJSON, &o.PaymentHistory); err != nil {
		return o, fmt.Errorf("unmarshaling payment history: %w", err)
	}
	if o.Lines == nil {
		o.Lines = []cart.Line{}
	}
	return o, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/treatment"
)

const (
	createPackageSQL = `INSERT INTO treatment_packages
		(id, customer_id, product_id, product_name, order_id, total_sessions, used_sessions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	listPackagesByCustomerSQL = `SELECT id, customer_id, product_id, product_name,
		order_id, total_sessions, used_sessions, created_at
		FROM treatment_packages WHERE customer_id = $1 ORDER BY created_at`
)

var _ treatment.Repository = (*TreatmentRepository)(nil)

// TreatmentRepository implements treatment.Repository backed by PostgreSQL.
type TreatmentRepository struct {
	pool *pgxpool.Pool
}

// NewTreatmentRepository returns a TreatmentRepository that uses the given pool.
func NewTreatmentRepository(pool *pgxpool.Pool) *TreatmentRepository {
	return &TreatmentRepository{pool: pool}
}

// Create persists a new treatment package.
func (r *TreatmentRepository) Create(ctx context.Context, p *treatment.Package) error {
	_, err := r.pool.Exec(ctx, createPackageSQL,
		p.ID, p.CustomerID, p.ProductID, p.ProductName,
		p.OrderID, p.TotalSessions, p.UsedSessions, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating treatment package %q: %w", p.ID, err)
	}
	return nil
}

// ListByCustomer returns a customer's packages, oldest first.
func (r *TreatmentRepository) ListByCustomer(ctx context.Context, customerID string) ([]treatment.Package, error) {
	rows, err := r.pool.Query(ctx, listPackagesByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing packages of %q: %w", customerID, err)
	}
	return pgx.CollectRows(rows, scanPackage)
}

func scanPackage(row pgx.CollectableRow) (treatment.Package, error) {
	var p treatment.Package
	err := row.Scan(
		&p.ID, &p.CustomerID, &p.ProductID, &p.ProductName,
		&p.OrderID, &p.TotalSessions, &p.UsedSessions, &p.CreatedAt,
	)
	return p, err
}

package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
)

const (
	getProductSQL = `SELECT id, name, category, description, image, service_sessions
		FROM products WHERE id = $1`

	listProductsSQL = `SELECT id, name, category, description, image, service_sessions
		FROM products ORDER BY id`

	variantByBarcodeSQL = `SELECT id, product_id, barcode, label, price, stock
		FROM variants WHERE barcode = $1`

	variantsByProductSQL = `SELECT id, product_id, barcode, label, price, stock
		FROM variants WHERE product_id = $1 ORDER BY id`

	stockByVariantSQL = `SELECT stock FROM variants WHERE id = $1`

	decrementStockSQL = `UPDATE variants SET stock = stock - $2 WHERE id = $1`

	recordMovementSQL = `INSERT INTO stock_movements (variant_id, order_id, quantity, reason)
		VALUES ($1, $2, $3, $4)`

	upsertProductSQL = `INSERT INTO products (id, name, category, description, image, service_sessions)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			description = EXCLUDED.description,
			image = EXCLUDED.image,
			service_sessions = EXCLUDED.service_sessions`

	upsertVariantSQL = `INSERT INTO variants (id, product_id, barcode, label, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			barcode = EXCLUDED.barcode,
			label = EXCLUDED.label,
			price = EXCLUDED.price,
			stock = EXCLUDED.stock`
)

var (
	_ catalog.Repository = (*CatalogRepository)(nil)
	_ catalog.Inventory  = (*CatalogRepository)(nil)
)

// CatalogRepository implements catalog lookups and inventory decrements
// backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// GetProduct returns a single product by its identifier.
func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// ListProducts returns the full catalog ordered by ID.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// VariantByBarcode returns the variant carrying the given barcode.
func (r *CatalogRepository) VariantByBarcode(ctx context.Context, barcode string) (*catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, variantByBarcodeSQL, barcode)
	if err != nil {
		return nil, fmt.Errorf("getting variant by barcode %q: %w", barcode, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVariant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting variant by barcode %q: %w", barcode, err)
	}
	return &v, nil
}

// VariantsByProduct returns all variants of a product ordered by ID.
func (r *CatalogRepository) VariantsByProduct(ctx context.Context, productID string) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, variantsByProductSQL, productID)
	if err != nil {
		return nil, fmt.Errorf("listing variants of %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

// StockByVariant returns the current stock level of a variant.
func (r *CatalogRepository) StockByVariant(ctx context.Context, variantID string) (int, error) {
	var stock int
	err := r.pool.QueryRow(ctx, stockByVariantSQL, variantID).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, catalog.ErrNotFound
		}
		return 0, fmt.Errorf("getting stock of %q: %w", variantID, err)
	}
	return stock, nil
}

// DecrementStock subtracts the sold quantity from the variant and records a
// movement row in the same transaction. Stock may go negative; oversell is
// reconciled by stocktaking, not blocked at the till.
func (r *CatalogRepository) DecrementStock(ctx context.Context, req catalog.DecrementRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning stock transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, decrementStockSQL, req.VariantID, req.Quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock of %q: %w", req.VariantID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}

	if _, err := tx.Exec(ctx, recordMovementSQL,
		req.VariantID, req.OrderID, -req.Quantity, req.Reason,
	); err != nil {
		return fmt.Errorf("recording stock movement for %q: %w", req.VariantID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing stock transaction: %w", err)
	}
	return nil
}

// UpsertProduct inserts or replaces a product. Used by the seed tool.
func (r *CatalogRepository) UpsertProduct(ctx context.Context, p catalog.Product) error {
	_, err := r.pool.Exec(ctx, upsertProductSQL,
		p.ID, p.Name, p.Category, p.Description, p.Image, p.ServiceSessions,
	)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.ID, err)
	}
	return nil
}

// UpsertVariant inserts or replaces a variant. Used by the seed tool.
func (r *CatalogRepository) UpsertVariant(ctx context.Context, v catalog.Variant) error {
	_, err := r.pool.Exec(ctx, upsertVariantSQL,
		v.ID, v.ProductID, v.Barcode, v.Label, v.Price, v.Stock,
	)
	if err != nil {
		return fmt.Errorf("upserting variant %q: %w", v.ID, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Image, &p.ServiceSessions)
	return p, err
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var v catalog.Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.Barcode, &v.Label, &v.Price, &v.Stock)
	return v, err
}

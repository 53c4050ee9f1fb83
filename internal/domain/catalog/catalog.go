package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product or variant does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// Product represents a catalog entry describing a product family. It is not
// directly sellable; the Variants attached to it are.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	// ServiceSessions is non-zero for recurring-service products (spa
	// treatments sold as a package of N sessions).
	ServiceSessions int `json:"service_sessions,omitempty"`
}

// Variant is the sellable unit: the priced, stocked entity actually
// transacted. Price and stock live here, not on the parent product.
type Variant struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Barcode   string          `json:"barcode,omitempty"`
	Label     string          `json:"label,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
}

// Repository defines read operations for the product catalog.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	VariantByBarcode(ctx context.Context, barcode string) (*Variant, error)
	VariantsByProduct(ctx context.Context, productID string) ([]Variant, error)
	StockByVariant(ctx context.Context, variantID string) (int, error)
}

// DecrementRequest describes one stock decrement issued during checkout.
// OrderID and Reason tag the movement for bookkeeping.
type DecrementRequest struct {
	VariantID string
	ProductID string
	Quantity  int
	OrderID   string
	Reason    string
}

// Inventory defines stock mutation operations. Decrement failures are
// non-fatal to callers: the sales ledger wins over inventory bookkeeping.
type Inventory interface {
	DecrementStock(ctx context.Context, req DecrementRequest) error
}

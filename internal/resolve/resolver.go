// Package resolve maps normalized product references (barcodes from the
// scan channel, catalog clicks) to concrete cart lines with price and
// stock bound at resolution time.
package resolve

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
)

var (
	// ErrNotFound is returned when a barcode resolves to nothing. No fuzzy
	// matching: an unknown code is reported, never guessed.
	ErrNotFound = errors.New("no sellable unit for code")
	// ErrNotSellable is returned for a catalog entry with no variants; it
	// can never be added to a cart.
	ErrNotSellable = errors.New("product has no sellable unit")
)

// AmbiguousError signals a click on a multi-variant product. The caller must
// obtain an explicit choice among Variants before a line can be added.
type AmbiguousError struct {
	ProductID string
	Variants  []catalog.Variant
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("product %s has %d variants, explicit choice required", e.ProductID, len(e.Variants))
}

// Resolver looks up sellable units in the catalog. Every line it produces
// carries a unit price and stock figure captured at resolution time; neither
// is re-validated against live data until commit.
type Resolver struct {
	catalog catalog.Repository
}

// New creates a Resolver over the given catalog.
func New(repo catalog.Repository) *Resolver {
	return &Resolver{catalog: repo}
}

// ResolveBarcode resolves a scanned barcode directly to its variant and binds
// price and stock from the variant, not the parent product.
func (r *Resolver) ResolveBarcode(ctx context.Context, code string) (cart.Line, error) {
	v, err := r.catalog.VariantByBarcode(ctx, code)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return cart.Line{}, ErrNotFound
		}
		return cart.Line{}, errors.Wrap(err, "lookup barcode")
	}

	p, err := r.catalog.GetProduct(ctx, v.ProductID)
	if err != nil {
		return cart.Line{}, errors.Wrapf(err, "lookup parent product %s", v.ProductID)
	}

	return buildLine(p, v), nil
}

// ResolveClick resolves a catalog-entry click. Exactly one variant resolves
// directly; more than one yields an AmbiguousError; zero yields
// ErrNotSellable.
func (r *Resolver) ResolveClick(ctx context.Context, productID string) (cart.Line, error) {
	p, err := r.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return cart.Line{}, ErrNotFound
		}
		return cart.Line{}, errors.Wrap(err, "lookup product")
	}

	variants, err := r.catalog.VariantsByProduct(ctx, productID)
	if err != nil {
		return cart.Line{}, errors.Wrap(err, "lookup variants")
	}

	switch len(variants) {
	case 0:
		return cart.Line{}, ErrNotSellable
	case 1:
		return buildLine(p, &variants[0]), nil
	default:
		return cart.Line{}, &AmbiguousError{ProductID: productID, Variants: variants}
	}
}

// ResolveChoice resolves the explicit follow-up choice after an ambiguous
// click.
func (r *Resolver) ResolveChoice(ctx context.Context, productID, variantID string) (cart.Line, error) {
	p, err := r.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return cart.Line{}, ErrNotFound
		}
		return cart.Line{}, errors.Wrap(err, "lookup product")
	}

	variants, err := r.catalog.VariantsByProduct(ctx, productID)
	if err != nil {
		return cart.Line{}, errors.Wrap(err, "lookup variants")
	}

	for i := range variants {
		if variants[i].ID == variantID {
			return buildLine(p, &variants[i]), nil
		}
	}
	return cart.Line{}, ErrNotFound
}

func buildLine(p *catalog.Product, v *catalog.Variant) cart.Line {
	return cart.Line{
		Key:             v.ID,
		ProductID:       p.ID,
		VariantID:       v.ID,
		Name:            p.Name,
		Variant:         v.Label,
		Image:           p.Image,
		UnitPrice:       v.Price,
		Quantity:        1,
		Stock:           v.Stock,
		ServiceSessions: p.ServiceSessions,
	}
}

package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
)

// catalogEntry pairs a product with its sellable variants so the click
// surface can render name, price and stock without a second round trip.
type catalogEntry struct {
	catalog.Product
	Variants []catalog.Variant `json:"variants"`
}

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	entries := make([]catalogEntry, 0, len(products))
	for _, p := range products {
		variants, err := h.catalog.VariantsByProduct(r.Context(), p.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if variants == nil {
			variants = []catalog.Variant{}
		}
		entries = append(entries, catalogEntry{Product: p, Variants: variants})
	}
	writeJSON(w, r, http.StatusOK, entries)
}

type packageResponse struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	OrderID       string    `json:"order_id"`
	TotalSessions int       `json:"total_sessions"`
	UsedSessions  int       `json:"used_sessions"`
	Remaining     int       `json:"remaining"`
	CreatedAt     time.Time `json:"created_at"`
}

func (h *Handler) listCustomerPackages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.treatments.ListByCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]packageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, packageResponse{
			ID:            p.ID,
			CustomerID:    p.CustomerID,
			ProductID:     p.ProductID,
			ProductName:   p.ProductName,
			OrderID:       p.OrderID,
			TotalSessions: p.TotalSessions,
			UsedSessions:  p.UsedSessions,
			Remaining:     p.TotalSessions - p.UsedSessions,
			CreatedAt:     p.CreatedAt,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

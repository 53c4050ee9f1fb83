// Package handler exposes the POS core over HTTP. It is a thin presentation
// adapter: one Register per terminal id does the actual work, handlers only
// decode, validate, delegate and map errors.
package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/order"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/treatment"
	"github.com/hieplevanqts/salepa-checkout/internal/hold"
	"github.com/hieplevanqts/salepa-checkout/internal/register"
)

// OrderStore is the order access the HTTP surface needs: the repository
// operations plus recent-order listing.
type OrderStore interface {
	order.Repository
	List(ctx context.Context, limit int) ([]order.Order, error)
}

// Handler holds the dependencies shared by all routes.
type Handler struct {
	hub        *register.Hub
	orders     OrderStore
	holds      hold.Store
	catalog    catalog.Repository
	treatments treatment.Repository
	validate   *validator.Validate

	now func() time.Time
}

// NewHandler constructs a Handler over the register hub and stores.
func NewHandler(
	hub *register.Hub,
	orders OrderStore,
	holds hold.Store,
	cat catalog.Repository,
	treatments treatment.Repository,
) *Handler {
	return &Handler{
		hub:        hub,
		orders:     orders,
		holds:      holds,
		catalog:    cat,
		treatments: treatments,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// Routes mounts all API routes on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/terminals/{tid}", func(r chi.Router) {
			r.Get("/snapshot", h.getSnapshot)
			r.Post("/scan", h.postScan)
			r.Post("/keys", h.postKeys)
			r.Post("/click", h.postClick)
			r.Post("/choose", h.postChoose)
			r.Post("/lines/{key}", h.postLine)
			r.Delete("/lines/{key}", h.deleteLine)
			r.Post("/discount", h.postDiscount)
			r.Post("/voucher", h.postVoucher)
			r.Delete("/voucher", h.deleteVoucher)
			r.Post("/gratuity", h.postGratuity)
			r.Post("/customer", h.postCustomer)
			r.Post("/note", h.postNote)
			r.Post("/commit", h.postCommit)
			r.Post("/hold", h.postHold)
			r.Post("/recall", h.postRecall)
			r.Post("/edit", h.postEdit)
			r.Post("/cancel-edit", h.postCancelEdit)
			r.Post("/clear", h.postClear)
			r.Post("/dismiss", h.postDismiss)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Get("/{id}", h.getOrder)
			r.Delete("/{id}", h.deleteOrder)
			r.Post("/{id}/payments", h.postPayment)
		})

		r.Get("/catalog", h.listCatalog)
		r.Get("/customers/{id}/packages", h.listCustomerPackages)
		r.Get("/holds", h.listHolds)
	})
}

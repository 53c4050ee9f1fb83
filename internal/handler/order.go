package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/order"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/pricing"
	"github.com/hieplevanqts/salepa-checkout/internal/hold"
)

const defaultOrderListLimit = 50

type orderResponse struct {
	ID             string               `json:"id"`
	Lines          []cart.Line          `json:"lines"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	Discount       decimal.Decimal      `json:"discount"`
	Gratuity       decimal.Decimal      `json:"gratuity"`
	Total          decimal.Decimal      `json:"total"`
	VoucherCode    string               `json:"voucher_code,omitempty"`
	CustomerID     string               `json:"customer_id,omitempty"`
	Note           string               `json:"note,omitempty"`
	PaymentMethod  string               `json:"payment_method"`
	PaymentHistory []order.PaymentEvent `json:"payment_history"`
	Status         string               `json:"status"`
	Received       decimal.Decimal      `json:"received"`
	Outstanding    decimal.Decimal      `json:"outstanding"`
	CreatedAt      time.Time            `json:"created_at"`
}

func newOrderResponse(o *order.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		Lines:          o.Lines,
		Subtotal:       o.Subtotal,
		Discount:       o.Discount,
		Gratuity:       o.Gratuity,
		Total:          o.Total,
		VoucherCode:    o.VoucherCode,
		CustomerID:     o.CustomerID,
		Note:           o.Note,
		PaymentMethod:  o.PaymentMethod,
		PaymentHistory: o.PaymentHistory,
		Status:         string(o.Status()),
		Received:       o.Received(),
		Outstanding:    o.Outstanding(),
		CreatedAt:      o.CreatedAt,
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit := defaultOrderListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	orders, err := h.orders.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = newOrderResponse(&orders[i])
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newOrderResponse(o))
}

// deleteOrder hard-deletes an order. Deleting an already absent order still
// acknowledges with 204.
func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"required"`
	PaidBy string          `json:"paid_by"`
}

// postPayment appends one event to the order's payment history. The recorded
// change reflects the cumulative position after this payment.
func (h *Handler) postPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Amount.IsNegative() {
		writeError(w, r, errBadRequest)
		return
	}

	id := chi.URLParam(r, "id")
	o, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	event := order.PaymentEvent{
		Amount: req.Amount,
		Method: req.Method,
		PaidAt: h.now(),
		PaidBy: req.PaidBy,
		Change: pricing.Change(o.Received().Add(req.Amount), o.Total),
	}
	updated, err := h.orders.AppendPayment(r.Context(), id, event)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newOrderResponse(updated))
}

func (h *Handler) listHolds(w http.ResponseWriter, r *http.Request) {
	bills, err := h.holds.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if bills == nil {
		bills = []hold.Bill{}
	}
	writeJSON(w, r, http.StatusOK, bills)
}

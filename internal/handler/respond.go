package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hieplevanqts/salepa-checkout/internal/checkout"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/customer"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/order"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/pricing"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/voucher"
	"github.com/hieplevanqts/salepa-checkout/internal/hold"
	"github.com/hieplevanqts/salepa-checkout/internal/register"
	"github.com/hieplevanqts/salepa-checkout/internal/resolve"
)

type errorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks undecodable request bodies.
var errBadRequest = errors.New("malformed request body")

// writeJSON encodes v with the given status. Encoding failures after the
// status line are logged and dropped.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Warn("encoding response", zap.Error(err))
	}
}

// decode unmarshals and validates the request body into dst.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return h.validate.Struct(dst)
}

// writeError maps domain errors onto HTTP statuses: malformed input is 400,
// unknown identities are 404, rule violations are 422.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, hold.ErrNotFound),
		errors.Is(err, resolve.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound):
		status = http.StatusNotFound
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidTender),
		errors.Is(err, checkout.ErrNotAwaitingPayment),
		errors.Is(err, register.ErrCartNotEmpty),
		errors.Is(err, register.ErrNotEditing),
		errors.Is(err, resolve.ErrNotSellable),
		errors.Is(err, voucher.ErrInvalidVoucher),
		errors.Is(err, voucher.ErrVoucherExpired),
		errors.Is(err, pricing.ErrInvalidPercentage),
		errors.Is(err, pricing.ErrNegativeDiscount),
		errors.Is(err, pricing.ErrNegativeGratuity),
		errors.Is(err, hold.ErrEmptyCart):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeJSON(w, r, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

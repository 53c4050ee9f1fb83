package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/hieplevanqts/salepa-checkout/internal/checkout"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/catalog"
	"github.com/hieplevanqts/salepa-checkout/internal/domain/pricing"
)

type snapshotResponse struct {
	State          string          `json:"state"`
	EditingOrderID string          `json:"editing_order_id,omitempty"`
	Lines          []cart.Line     `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	Gratuity       decimal.Decimal `json:"gratuity"`
	Total          decimal.Decimal `json:"total"`
	VoucherCode    string          `json:"voucher_code,omitempty"`
	CustomerID     string          `json:"customer_id,omitempty"`
	Note           string          `json:"note,omitempty"`
	Tendered       decimal.Decimal `json:"tendered"`
	Change         decimal.Decimal `json:"change"`
	Notices        []string        `json:"notices,omitempty"`
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.hub.Get(chi.URLParam(r, "tid")).Snapshot()
	lines := snap.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	// Line stock was captured at resolution time; refresh it for display so a
	// long-lived cart does not show stale counts. Best effort, a lookup
	// failure keeps the captured value.
	for i := range lines {
		if lines[i].VariantID == "" {
			continue
		}
		if stock, err := h.catalog.StockByVariant(r.Context(), lines[i].VariantID); err == nil {
			lines[i].Stock = stock
		}
	}
	writeJSON(w, r, http.StatusOK, snapshotResponse{
		State:          string(snap.State),
		EditingOrderID: snap.EditingOrderID,
		Lines:          lines,
		Subtotal:       snap.Subtotal,
		Discount:       snap.Discount,
		Gratuity:       snap.Gratuity,
		Total:          snap.Total,
		VoucherCode:    snap.VoucherCode,
		CustomerID:     snap.CustomerID,
		Note:           snap.Note,
		Tendered:       snap.Tendered,
		Change:         snap.Change,
		Notices:        snap.Notices,
	})
}

func (h *Handler) getSnapshot(w http.ResponseWriter, r *http.Request) {
	h.writeSnapshot(w, r)
}

type scanRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) postScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.hub.Get(chi.URLParam(r, "tid")).Scan(r.Context(), req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

type keysRequest struct {
	Chars string `json:"chars"`
	// At is the client-side capture time in Unix milliseconds. Burst
	// classification runs on inter-key deltas, so the terminal reports when
	// the characters were captured; zero means "use arrival time".
	At        int64 `json:"at"`
	Terminate bool  `json:"terminate"`
}

func (h *Handler) postKeys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reg := h.hub.Get(chi.URLParam(r, "tid"))
	if req.Chars != "" {
		var at time.Time
		if req.At > 0 {
			at = time.UnixMilli(req.At)
		}
		reg.KeysAt(req.Chars, at)
	}
	if req.Terminate {
		reg.Terminate()
	}
	h.writeSnapshot(w, r)
}

type clickRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type clickResponse struct {
	Added   bool              `json:"added"`
	Options []catalog.Variant `json:"options,omitempty"`
}

func (h *Handler) postClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.hub.Get(chi.URLParam(r, "tid")).Click(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, clickResponse{Added: out.Added, Options: out.Options})
}

type chooseRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id" validate:"required"`
}

func (h *Handler) postChoose(w http.ResponseWriter, r *http.Request) {
	var req chooseRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.hub.Get(chi.URLParam(r, "tid")).Choose(r.Context(), req.ProductID, req.VariantID); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) postLine(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reg := h.hub.Get(chi.URLParam(r, "tid"))
	if err := reg.SetQuantity(chi.URLParam(r, "key"), req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

func (h *Handler) deleteLine(w http.ResponseWriter, r *http.Request) {
	reg := h.hub.Get(chi.URLParam(r, "tid"))
	if err := reg.RemoveLine(chi.URLParam(r, "key")); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

type discountRequest struct {
	Type  string          `json:"type" validate:"required,oneof=percentage fixed"`
	Value decimal.Decimal `json:"value"`
}

func (h *Handler) postDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	m := pricing.ManualDiscount{Type: pricing.ManualType(req.Type), Value: req.Value}
	if err := h.hub.Get(chi.URLParam(r, "tid")).SetManualDiscount(m); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

type voucherRequest struct {
	Code string `json:"code" validate:"required"`
}

func (h *Handler) postVoucher(w http.ResponseWriter, r *http.Request) {
	var req voucherRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.hub.Get(chi.URLParam(r, "tid")).ApplyVoucher(r.Context(), req.Code); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

func (h *Handler) deleteVoucher(w http.ResponseWriter, r *http.Request) {
	h.hub.Get(chi.URLParam(r, "tid")).RemoveVoucher()
	h.writeSnapshot(w, r)
}

type gratuityRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *Handler) postGratuity(w http.ResponseWriter, r *http.Request) {
	var req gratuityRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.hub.Get(chi.URLParam(r, "tid")).SetGratuity(req.Amount); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

type customerRequest struct {
	CustomerID string `json:"customer_id"`
}

func (h *Handler) postCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.hub.Get(chi.URLParam(r, "tid")).SetCustomer(req.CustomerID)
	h.writeSnapshot(w, r)
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) postNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	h.hub.Get(chi.URLParam(r, "tid")).SetNote(req.Note)
	h.writeSnapshot(w, r)
}

type commitRequest struct {
	Method    string          `json:"method" validate:"required"`
	Tendered  decimal.Decimal `json:"tendered"`
	ActorID   string          `json:"actor_id"`
	ActorName string          `json:"actor_name"`
}

type commitResponse struct {
	OrderID  string          `json:"order_id"`
	Total    decimal.Decimal `json:"total"`
	Change   decimal.Decimal `json:"change"`
	Warnings []string        `json:"warnings,omitempty"`
}

func (h *Handler) postCommit(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reg := h.hub.Get(chi.URLParam(r, "tid"))
	res, err := reg.Commit(r.Context(),
		checkout.Session{ActorID: req.ActorID, ActorName: req.ActorName},
		checkout.PaymentInput{Method: req.Method, Tendered: req.Tendered},
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := commitResponse{
		OrderID: res.Order.ID,
		Total:   res.Order.Total,
	}
	if len(res.Order.PaymentHistory) > 0 {
		resp.Change = res.Order.PaymentHistory[0].Change
	}
	for _, lo := range append(res.Inventory, res.Packages...) {
		if lo.Err != nil {
			resp.Warnings = append(resp.Warnings, lo.Key+": "+lo.Err.Error())
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type holdRequest struct {
	Label string `json:"label"`
}

type holdResponse struct {
	HoldID string `json:"hold_id"`
}

func (h *Handler) postHold(w http.ResponseWriter, r *http.Request) {
	var req holdRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.hub.Get(chi.URLParam(r, "tid")).Hold(r.Context(), req.Label)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, holdResponse{HoldID: id})
}

type recallRequest struct {
	HoldID string `json:"hold_id" validate:"required"`
}

func (h *Handler) postRecall(w http.ResponseWriter, r *http.Request) {
	var req recallRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.hub.Get(chi.URLParam(r, "tid")).Recall(r.Context(), req.HoldID); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

type editRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

func (h *Handler) postEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.hub.Get(chi.URLParam(r, "tid")).BeginEdit(r.Context(), req.OrderID); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

func (h *Handler) postCancelEdit(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Get(chi.URLParam(r, "tid")).CancelEdit(); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeSnapshot(w, r)
}

func (h *Handler) postClear(w http.ResponseWriter, r *http.Request) {
	h.hub.Get(chi.URLParam(r, "tid")).Clear()
	h.writeSnapshot(w, r)
}

func (h *Handler) postDismiss(w http.ResponseWriter, r *http.Request) {
	h.hub.Get(chi.URLParam(r, "tid")).Dismiss()
	h.writeSnapshot(w, r)
}

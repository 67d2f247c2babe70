package web

import (
	"context"
	"net/http"

	"harmono-erp/internal/app"
)

// issueOrder handles POST /api/orders.
func (h *Handler) issueOrder(w http.ResponseWriter, r *http.Request) {
	var req app.IssueOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.IssueOrder(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Order)
}

// listOrders handles GET /api/orders. Non-admins only see their own orders.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	result, err := h.svc.ListOrders(r.Context(), actorFromContext(r.Context()), status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Orders)
}

// getOrder handles GET /api/orders/{id}.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetOrder(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// completeOrder handles POST /api/orders/{id}/complete.
func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	h.settleOrder(w, r, h.svc.CompleteOrder)
}

// deliverOrder handles POST /api/orders/{id}/deliver.
func (h *Handler) deliverOrder(w http.ResponseWriter, r *http.Request) {
	h.settleOrder(w, r, h.svc.DeliverOrder)
}

// settleOrder decodes the shared settlement payload and dispatches to the
// given lifecycle operation. An empty body means settlement without proof.
func (h *Handler) settleOrder(w http.ResponseWriter, r *http.Request,
	settle func(ctx context.Context, actor app.Actor, orderID int, req app.SettleOrderRequest) (*app.OrderResult, error)) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.SettleOrderRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}
	result, err := settle(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

// cancelOrder handles POST /api/orders/{id}/cancel.
func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.CancelOrder(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Order)
}

package web

import (
	"net/http"
	"strconv"

	"harmono-erp/internal/app"
)

// listItems handles GET /api/items.
func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListItems(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Items)
}

// getItem handles GET /api/items/{id}.
func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	result, err := h.svc.GetItem(r.Context(), actorFromContext(r.Context()), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Item)
}

// createItem handles POST /api/items.
func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var req app.CreateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.CreateItem(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, result.Item)
}

// adjustStock handles PATCH /api/items/{id}/stock.
func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.AdjustStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.AdjustStock(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Item)
}

// setRecipe handles PUT /api/items/{id}/recipe.
func (h *Handler) setRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.SetRecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.SetRecipe(r.Context(), actorFromContext(r.Context()), id, req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Item)
}

// manufacture handles POST /api/manufacture.
func (h *Handler) manufacture(w http.ResponseWriter, r *http.Request) {
	var req app.ManufactureRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.Manufacture(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Item)
}

// listTransactions handles GET /api/transactions.
func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := app.TransactionQuery{
		Kind: r.URL.Query().Get("kind"),
	}
	q.ItemID, _ = strconv.Atoi(r.URL.Query().Get("item_id"))
	q.OrderID, _ = strconv.Atoi(r.URL.Query().Get("order_id"))
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.svc.ListTransactions(r.Context(), actorFromContext(r.Context()), q)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, result.Entries)
}

// deleteTransaction handles DELETE /api/transactions/{id}.
func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteTransaction(r.Context(), actorFromContext(r.Context()), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

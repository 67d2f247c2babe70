package web

import "net/http"

// dashboard handles GET /api/reports/dashboard.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDashboard(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, d)
}

// stockReport handles GET /api/reports/stock.
func (h *Handler) stockReport(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.GetStockReport(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, rows)
}

// transactionReport handles GET /api/reports/transactions?from=2026-01-01&to=2026-01-31.
func (h *Handler) transactionReport(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	rows, err := h.svc.GetTransactionReport(r.Context(), actorFromContext(r.Context()), from, to)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, rows)
}

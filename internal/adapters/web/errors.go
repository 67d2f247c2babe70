package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"harmono-erp/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the core error taxonomy onto HTTP statuses. Unknown
// errors are logged and reported as a plain 500 without leaking internals.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *core.ValidationError
		notFoundErr   *core.NotFoundError
		stockErr      *core.InsufficientStockError
		recipeErr     *core.NoRecipeError
		settledErr    *core.AlreadySettledError
		authzErr      *core.AuthorizationError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, r, validationErr.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
	case errors.As(err, &notFoundErr):
		writeError(w, r, notFoundErr.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &stockErr):
		writeError(w, r, stockErr.Error(), "INSUFFICIENT_STOCK", http.StatusUnprocessableEntity)
	case errors.As(err, &recipeErr):
		writeError(w, r, recipeErr.Error(), "NO_RECIPE", http.StatusBadRequest)
	case errors.As(err, &settledErr):
		writeError(w, r, settledErr.Error(), "ALREADY_SETTLED", http.StatusConflict)
	case errors.As(err, &authzErr):
		writeError(w, r, authzErr.Error(), "FORBIDDEN", http.StatusForbidden)
	default:
		h.log.WithFields(logrusFields(r)).WithError(err).Error("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}

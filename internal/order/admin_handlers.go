package order

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-gerai/internal/common"
)

// AdminStore extends Store with transition-guarded updates.
type AdminStore interface {
	Store
	GetStatus(ctx context.Context, id uuid.UUID) (string, error)
	// UpdateStatusIfPending flips the order status only when it is still
	// PENDING. It reports whether a row changed.
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status string) (bool, error)
}

// AdminHandler provides administrative order management endpoints.
type AdminHandler struct {
	Store AdminStore
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus updates the order status with state-machine validation.
// COD orders start PENDING and are settled here once the courier collects.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order store not configured", nil)
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if req.Status == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "status is required", nil)
		return
	}
	if !isAllowedAdminTarget(req.Status) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", nil)
		return
	}
	current, err := h.Store.GetStatus(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	if current != StatusPending {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "only pending orders can transition", nil)
		return
	}
	changed, err := h.Store.UpdateStatusIfPending(r.Context(), orderID, req.Status)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order status", nil)
		return
	}
	if !changed {
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", "state transition not allowed", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isAllowedAdminTarget(status string) bool {
	switch status {
	case StatusPaid, StatusCanceled:
		return true
	}
	return false
}

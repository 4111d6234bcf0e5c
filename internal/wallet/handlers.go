package wallet

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-gerai/internal/common"
)

// Handler exposes wallet endpoints for users and administrators.
type Handler struct {
	Svc *Service
}

// Get returns the authenticated user's wallet balance.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	balance, err := h.Svc.Balance(r.Context(), userID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load wallet", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"balance": balance}})
}

// Transactions lists the authenticated user's wallet log.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	entries, err := h.Svc.Transactions(r.Context(), userID, int32(perPage), int32((page-1)*perPage))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load transactions", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       entries,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: len(entries)},
	})
}

type adjustRequest struct {
	Amount int64  `json:"amount"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Adjust credits or debits an arbitrary user's wallet (admin only; the route
// carries the role check).
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "wallet service not configured", nil)
		return
	}
	target, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return
	}
	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	account, err := h.Svc.Adjust(r.Context(), target, req.Amount, EntryType(req.Type), req.Reason)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			common.JSONError(w, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "wallet balance insufficient", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": account})
}

func authUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return uuid.Nil, false
	}
	return id, true
}

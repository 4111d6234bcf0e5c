package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-gerai/internal/common"
	"github.com/noah-isme/backend-gerai/internal/payment"
	"github.com/noah-isme/backend-gerai/internal/pricing"
)

type Handler struct {
	Svc *Service
}

// Checkout handles POST /api/v1/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	out, err := h.Svc.PlaceOrder(r.Context(), userID, payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

// Quote handles POST /api/v1/checkout/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	out, err := h.Svc.Quote(r.Context(), userID, payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (uuid.UUID, Input, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return uuid.Nil, Input{}, false
	}
	raw, ok := common.UserID(r.Context())
	if !ok || raw == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return uuid.Nil, Input{}, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
		return uuid.Nil, Input{}, false
	}
	var payload Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return uuid.Nil, Input{}, false
	}
	return userID, payload, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
	case errors.Is(err, ErrEmptyOrder):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "order has no items", nil)
	case errors.Is(err, ErrInvalidPaymentMethod):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported payment method", nil)
	case errors.Is(err, pricing.ErrInvalidQuantity):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "quantity must be positive", nil)
	case errors.Is(err, ErrAddressNotFound):
		common.JSONError(w, http.StatusUnprocessableEntity, "ADDRESS_NOT_FOUND", "address not found", nil)
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusUnprocessableEntity, "PRODUCT_NOT_FOUND", "product not found", nil)
	case errors.Is(err, pricing.ErrMissingPrice):
		common.JSONError(w, http.StatusUnprocessableEntity, "PRICE_UNAVAILABLE", "product has no price", nil)
	case errors.Is(err, pricing.ErrOutOfStock):
		common.JSONError(w, http.StatusConflict, "OUT_OF_STOCK", "insufficient stock", nil)
	case errors.Is(err, payment.ErrVerification):
		common.JSONError(w, http.StatusUnprocessableEntity, "PAYMENT_VERIFICATION_FAILED", "payment proof invalid", nil)
	default:
		var appErr *common.AppError
		if errors.As(err, &appErr) {
			status := appErr.HTTPStatus
			if status == 0 {
				status = http.StatusBadRequest
			}
			code := appErr.Code
			if code == "" {
				code = "BAD_REQUEST"
			}
			common.JSONError(w, status, code, appErr.Message, appErr.Details)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
	}
}

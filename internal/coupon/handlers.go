package coupon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-gerai/internal/common"
)

// ErrDuplicateCode is returned by admin stores when a coupon code already exists.
var ErrDuplicateCode = errors.New("coupon code already exists")

// AdminStore extends Store with the mutations used by admin endpoints.
type AdminStore interface {
	CreateCoupon(ctx context.Context, c Coupon) (Coupon, error)
	UpdateCoupon(ctx context.Context, c Coupon) (Coupon, error)
}

// Handler exposes coupon management and preview endpoints.
type Handler struct {
	Admin    AdminStore
	Svc      *Service
	Validate *validator.Validate
}

type couponPayload struct {
	Code         string     `json:"code" validate:"required"`
	Kind         string     `json:"kind" validate:"omitempty,oneof=fixed percent"`
	Value        int64      `json:"value" validate:"gte=0"`
	PercentBps   *int32     `json:"percentBps" validate:"omitempty,gt=0,lte=10000"`
	MinSpend     int64      `json:"minSpend" validate:"gte=0"`
	MaxDiscount  *int64     `json:"maxDiscount" validate:"omitempty,gte=0"`
	StartsAt     *time.Time `json:"startsAt"`
	EndsAt       *time.Time `json:"endsAt"`
	UsageLimit   *int32     `json:"usageLimit" validate:"omitempty,gte=0"`
	PerUserLimit *int32     `json:"perUserLimit" validate:"omitempty,gt=0"`
}

type applyRequest struct {
	Code     string `json:"code" validate:"required"`
	Subtotal int64  `json:"subtotal" validate:"gt=0"`
}

// Create inserts a new coupon rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Admin == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	c, err := h.buildCoupon(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Admin.CreateCoupon(r.Context(), c)
	if err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to create coupon", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update mutates an existing coupon identified by code.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Admin == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	code := NormalizeCode(chi.URLParam(r, "code"))
	if code == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "code is required", nil)
		return
	}
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	payload.Code = code
	c, err := h.buildCoupon(payload)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.Admin.UpdateCoupon(r.Context(), c)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update coupon", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

// Apply evaluates a coupon for the authenticated user and surfaces the
// verdict. Unlike checkout, ineligibility here is a user-facing error.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.validate(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	var userID *uuid.UUID
	if raw, ok := common.UserID(r.Context()); ok && raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid user id", nil)
			return
		}
		userID = &parsed
	}
	quote, err := h.Svc.Evaluate(r.Context(), req.Code, userID, req.Subtotal)
	if err != nil {
		verdict := Verdict(err)
		if verdict == VerdictNotFound && !isVerdictError(err) {
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon lookup failed", nil)
			return
		}
		common.JSONError(w, http.StatusUnprocessableEntity, verdict, err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

func (h *Handler) buildCoupon(payload couponPayload) (Coupon, error) {
	if err := h.validate(payload); err != nil {
		return Coupon{}, err
	}
	code := NormalizeCode(payload.Code)
	if code == "" {
		return Coupon{}, errors.New("code is required")
	}
	kind := strings.ToLower(strings.TrimSpace(payload.Kind))
	if kind == "" {
		kind = KindFixed
	}
	switch kind {
	case KindFixed:
		if payload.Value <= 0 {
			return Coupon{}, errors.New("fixed coupons require a positive value")
		}
	case KindPercent:
		if payload.PercentBps == nil {
			return Coupon{}, errors.New("percent coupons require percentBps")
		}
	default:
		return Coupon{}, errors.New("invalid kind")
	}
	if payload.StartsAt != nil && payload.EndsAt != nil && !payload.EndsAt.After(*payload.StartsAt) {
		return Coupon{}, errors.New("endsAt must be after startsAt")
	}
	return Coupon{
		Code:         code,
		Kind:         kind,
		Value:        payload.Value,
		PercentBps:   payload.PercentBps,
		MinSpend:     payload.MinSpend,
		MaxDiscount:  payload.MaxDiscount,
		StartsAt:     payload.StartsAt,
		EndsAt:       payload.EndsAt,
		UsageLimit:   payload.UsageLimit,
		PerUserLimit: payload.PerUserLimit,
	}, nil
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}

func isVerdictError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInactive) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrMinSpendUnmet) ||
		errors.Is(err, ErrUsageLimitReached) ||
		errors.Is(err, ErrPerUserLimitReached)
}

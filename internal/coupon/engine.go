package coupon

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no coupon matches the supplied code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInactive is returned when the coupon window has not opened yet.
	ErrInactive = errors.New("coupon not active")
	// ErrExpired is returned when the coupon window has already closed.
	ErrExpired = errors.New("coupon expired")
	// ErrMinSpendUnmet indicates the subtotal did not reach the coupon requirement.
	ErrMinSpendUnmet = errors.New("coupon minimum purchase not met")
	// ErrUsageLimitReached indicates the coupon exhausted its global redemption quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrPerUserLimitReached indicates the caller exceeded the per-user allowance.
	ErrPerUserLimitReached = errors.New("coupon per-user usage limit reached")
)

// Discount kinds accepted by the engine.
const (
	KindFixed   = "fixed"
	KindPercent = "percent"
)

// Rule captures the runtime constraints of a coupon at evaluation time.
type Rule struct {
	Code           string
	Kind           string
	Value          int64
	PercentBps     *int32
	MinSpend       int64
	MaxDiscount    *int64
	StartsAt       *time.Time
	EndsAt         *time.Time
	UsageLimit     *int32
	UsedCount      int32
	PerUserLimit   *int32
	DefaultLimit   int
	PerUserUsed    int32
	EffectiveLimit int32
}

// NormalizeCode canonicalises a coupon code for case-insensitive lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the rule against the provided instant and order subtotal.
// The global limit is checked before the per-user limit so an exhausted
// coupon reports GLOBAL_LIMIT_REACHED for every caller.
func (r Rule) Validate(now time.Time, subtotal int64) error {
	if r.StartsAt != nil && now.Before(*r.StartsAt) {
		return ErrInactive
	}
	if r.EndsAt != nil && now.After(*r.EndsAt) {
		return ErrExpired
	}
	if subtotal < r.MinSpend {
		return ErrMinSpendUnmet
	}
	if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	if r.EffectiveLimit > 0 && r.PerUserUsed >= r.EffectiveLimit {
		return ErrPerUserLimitReached
	}
	return nil
}

// Compute determines the discount amount for a rule that passed validation.
// Percentage discounts are clamped to MaxDiscount when set; the cap is also
// applied to fixed discounts defensively. The result never exceeds the
// subtotal, so a coupon alone cannot drive the payable amount negative.
func Compute(subtotal int64, r Rule) int64 {
	if subtotal <= 0 {
		return 0
	}
	discount := r.Value
	if strings.EqualFold(r.Kind, KindPercent) {
		if r.PercentBps == nil || *r.PercentBps <= 0 {
			return 0
		}
		discount = (subtotal * int64(*r.PercentBps)) / 10000
	}
	if r.MaxDiscount != nil && *r.MaxDiscount >= 0 && discount > *r.MaxDiscount {
		discount = *r.MaxDiscount
	}
	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		return 0
	}
	return discount
}

// Advisory verdict codes used for logging and telemetry when a coupon is
// turned down. The checkout path records these instead of failing the order.
const (
	VerdictValid              = "VALID"
	VerdictNotFound           = "NOT_FOUND"
	VerdictExpired            = "EXPIRED"
	VerdictMinPurchaseNotMet  = "MIN_PURCHASE_NOT_MET"
	VerdictGlobalLimitReached = "GLOBAL_LIMIT_REACHED"
	VerdictUserLimitReached   = "USER_LIMIT_REACHED"
)

// Verdict maps an evaluation error to its advisory code. A nil error maps to
// VALID; both window errors collapse into EXPIRED, matching what callers see.
func Verdict(err error) string {
	switch {
	case err == nil:
		return VerdictValid
	case errors.Is(err, ErrNotFound):
		return VerdictNotFound
	case errors.Is(err, ErrInactive), errors.Is(err, ErrExpired):
		return VerdictExpired
	case errors.Is(err, ErrMinSpendUnmet):
		return VerdictMinPurchaseNotMet
	case errors.Is(err, ErrUsageLimitReached):
		return VerdictGlobalLimitReached
	case errors.Is(err, ErrPerUserLimitReached):
		return VerdictUserLimitReached
	default:
		return VerdictNotFound
	}
}

package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Coupon is the persisted discount rule managed by admins.
type Coupon struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Kind         string     `json:"kind"`
	Value        int64      `json:"value"`
	PercentBps   *int32     `json:"percentBps,omitempty"`
	MinSpend     int64      `json:"minSpend"`
	MaxDiscount  *int64     `json:"maxDiscount,omitempty"`
	StartsAt     *time.Time `json:"startsAt,omitempty"`
	EndsAt       *time.Time `json:"endsAt,omitempty"`
	UsageLimit   *int32     `json:"usageLimit,omitempty"`
	UsedCount    int32      `json:"usedCount"`
	PerUserLimit *int32     `json:"perUserLimit,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// RedemptionParams records one successful coupon application to an order.
type RedemptionParams struct {
	CouponID uuid.UUID
	OrderID  uuid.UUID
	UserID   uuid.UUID
	Amount   int64
}

// Store captures the persistence operations required by the coupon service.
type Store interface {
	// GetCouponByCode looks up a coupon by canonical code, returning
	// ErrNotFound when no rule matches.
	GetCouponByCode(ctx context.Context, code string) (Coupon, error)
	// CountRedemptionsByUser reports how many times the user redeemed the coupon.
	CountRedemptionsByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error)
	// HasRedemptionForOrder reports whether the order already settled this coupon.
	HasRedemptionForOrder(ctx context.Context, couponID, orderID uuid.UUID) (bool, error)
	// InsertRedemption appends a redemption record.
	InsertRedemption(ctx context.Context, params RedemptionParams) error
	// IncrementUsedCount bumps the global counter only while the usage limit
	// still has headroom, reporting whether the increment was applied.
	IncrementUsedCount(ctx context.Context, couponID uuid.UUID) (bool, error)
}

// Quote is the outcome of evaluating a coupon without mutating state.
type Quote struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
	coupon   Coupon
}

// Coupon returns the underlying rule the quote was computed from.
func (q Quote) Coupon() Coupon { return q.coupon }

// Coupons without an explicit per-user limit are redeemable once per user.
const defaultPerUserLimit = 1

// Service evaluates coupon rules and settles redemptions. Preview and
// checkout share the same Evaluate path; only Redeem mutates counters.
type Service struct {
	Store Store
	Now   func() time.Time
	// DefaultPerUserLimit overrides the once-per-user fallback for rules
	// that carry no explicit limit. Zero means the fallback applies.
	DefaultPerUserLimit int
}

func (s *Service) perUserDefault() int {
	if s != nil && s.DefaultPerUserLimit > 0 {
		return s.DefaultPerUserLimit
	}
	return defaultPerUserLimit
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Evaluate performs a side-effect-free eligibility check and discount
// computation for the given subtotal and user. Calling it repeatedly with
// the same inputs yields the same verdict.
func (s *Service) Evaluate(ctx context.Context, code string, userID *uuid.UUID, subtotal int64) (Quote, error) {
	if s == nil || s.Store == nil {
		return Quote{}, errors.New("coupon service not configured")
	}
	canonical := NormalizeCode(code)
	if canonical == "" {
		return Quote{}, ErrNotFound
	}
	c, err := s.Store.GetCouponByCode(ctx, canonical)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}
	rule := ruleFromCoupon(c)
	rule.DefaultLimit = s.perUserDefault()

	limit := effectivePerUserLimit(rule)
	if limit > 0 {
		rule.EffectiveLimit = limit
		if userID != nil {
			used, err := s.Store.CountRedemptionsByUser(ctx, c.ID, *userID)
			if err != nil {
				return Quote{}, err
			}
			rule.PerUserUsed = int32(used)
		}
	}

	if err := rule.Validate(s.now(), subtotal); err != nil {
		return Quote{}, err
	}
	discount := Compute(subtotal, rule)
	return Quote{Code: c.Code, Discount: discount, coupon: c}, nil
}

// Redeem records coupon usage for a placed order. The global counter bump is
// conditional on the usage limit, so two concurrent orders cannot push
// UsedCount past the cap; losing the race surfaces ErrUsageLimitReached.
// Settling the same order twice is a no-op.
func (s *Service) Redeem(ctx context.Context, code string, orderID, userID uuid.UUID, amount int64) error {
	if s == nil || s.Store == nil {
		return errors.New("coupon service not configured")
	}
	canonical := NormalizeCode(code)
	if canonical == "" || orderID == uuid.Nil {
		return nil
	}
	c, err := s.Store.GetCouponByCode(ctx, canonical)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	settled, err := s.Store.HasRedemptionForOrder(ctx, c.ID, orderID)
	if err != nil {
		return err
	}
	if settled {
		return nil
	}
	if amount < 0 {
		amount = 0
	}
	applied, err := s.Store.IncrementUsedCount(ctx, c.ID)
	if err != nil {
		return err
	}
	if !applied {
		return ErrUsageLimitReached
	}
	return s.Store.InsertRedemption(ctx, RedemptionParams{
		CouponID: c.ID,
		OrderID:  orderID,
		UserID:   userID,
		Amount:   amount,
	})
}

func ruleFromCoupon(c Coupon) Rule {
	return Rule{
		Code:         c.Code,
		Kind:         c.Kind,
		Value:        c.Value,
		PercentBps:   c.PercentBps,
		MinSpend:     c.MinSpend,
		MaxDiscount:  c.MaxDiscount,
		StartsAt:     c.StartsAt,
		EndsAt:       c.EndsAt,
		UsageLimit:   c.UsageLimit,
		UsedCount:    c.UsedCount,
		PerUserLimit: c.PerUserLimit,
	}
}

func effectivePerUserLimit(rule Rule) int32 {
	if rule.PerUserLimit != nil && *rule.PerUserLimit > 0 {
		return *rule.PerUserLimit
	}
	if rule.DefaultLimit > 0 {
		return int32(rule.DefaultLimit)
	}
	return 0
}

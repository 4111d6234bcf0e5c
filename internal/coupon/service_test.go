package coupon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type stubStore struct {
	coupon     Coupon
	missing    bool
	userUsed   int64
	settled    bool
	inserted   int
	increments int
	headroom   bool
}

func (s *stubStore) GetCouponByCode(ctx context.Context, code string) (Coupon, error) {
	if s.missing || s.coupon.Code != code {
		return Coupon{}, ErrNotFound
	}
	return s.coupon, nil
}

func (s *stubStore) CountRedemptionsByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	return s.userUsed, nil
}

func (s *stubStore) HasRedemptionForOrder(ctx context.Context, couponID, orderID uuid.UUID) (bool, error) {
	return s.settled, nil
}

func (s *stubStore) InsertRedemption(ctx context.Context, params RedemptionParams) error {
	s.inserted++
	s.settled = true
	return nil
}

func (s *stubStore) IncrementUsedCount(ctx context.Context, couponID uuid.UUID) (bool, error) {
	s.increments++
	return s.headroom, nil
}

func fixedCoupon(value int64) Coupon {
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	return Coupon{
		ID:       uuid.New(),
		Code:     "PROMO",
		Kind:     KindFixed,
		Value:    value,
		StartsAt: &start,
		EndsAt:   &end,
	}
}

func TestEvaluateCaseInsensitiveLookup(t *testing.T) {
	store := &stubStore{coupon: fixedCoupon(500), headroom: true}
	svc := &Service{Store: store, DefaultPerUserLimit: 1}
	quote, err := svc.Evaluate(context.Background(), " promo ", nil, 10_000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Discount != 500 || quote.Code != "PROMO" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestEvaluateNotFound(t *testing.T) {
	svc := &Service{Store: &stubStore{missing: true}, DefaultPerUserLimit: 1}
	_, err := svc.Evaluate(context.Background(), "NOPE", nil, 10_000)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEvaluateDefaultPerUserLimit(t *testing.T) {
	// Without an explicit per-user limit the service default of one applies.
	store := &stubStore{coupon: fixedCoupon(500), userUsed: 1}
	svc := &Service{Store: store, DefaultPerUserLimit: 1}
	userID := uuid.New()
	_, err := svc.Evaluate(context.Background(), "PROMO", &userID, 10_000)
	if !errors.Is(err, ErrPerUserLimitReached) {
		t.Fatalf("expected ErrPerUserLimitReached, got %v", err)
	}
}

func TestEvaluateOncePerUserWithoutConfiguredDefault(t *testing.T) {
	// A service built with only a store still enforces once per user for
	// rules that carry no explicit limit.
	store := &stubStore{coupon: fixedCoupon(500), userUsed: 1}
	svc := &Service{Store: store}
	userID := uuid.New()
	_, err := svc.Evaluate(context.Background(), "PROMO", &userID, 10_000)
	if !errors.Is(err, ErrPerUserLimitReached) {
		t.Fatalf("expected ErrPerUserLimitReached, got %v", err)
	}

	second := int32(2)
	store.coupon.PerUserLimit = &second
	quote, err := svc.Evaluate(context.Background(), "PROMO", &userID, 10_000)
	if err != nil {
		t.Fatalf("explicit limit should override the default: %v", err)
	}
	if quote.Discount != 500 {
		t.Fatalf("unexpected discount %d", quote.Discount)
	}
}

func TestEvaluateNoSideEffects(t *testing.T) {
	store := &stubStore{coupon: fixedCoupon(500)}
	svc := &Service{Store: store, DefaultPerUserLimit: 1}
	for i := 0; i < 3; i++ {
		if _, err := svc.Evaluate(context.Background(), "PROMO", nil, 10_000); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if store.increments != 0 || store.inserted != 0 {
		t.Fatalf("evaluation mutated state: %+v", store)
	}
}

func TestRedeemIdempotentPerOrder(t *testing.T) {
	store := &stubStore{coupon: fixedCoupon(500), headroom: true}
	svc := &Service{Store: store, DefaultPerUserLimit: 1}
	orderID := uuid.New()
	userID := uuid.New()
	if err := svc.Redeem(context.Background(), "PROMO", orderID, userID, 500); err != nil {
		t.Fatalf("first redeem failed: %v", err)
	}
	if err := svc.Redeem(context.Background(), "PROMO", orderID, userID, 500); err != nil {
		t.Fatalf("second redeem failed: %v", err)
	}
	if store.inserted != 1 {
		t.Fatalf("expected exactly one redemption row, got %d", store.inserted)
	}
}

func TestRedeemLosingRaceSurfacesLimit(t *testing.T) {
	store := &stubStore{coupon: fixedCoupon(500), headroom: false}
	svc := &Service{Store: store, DefaultPerUserLimit: 1}
	err := svc.Redeem(context.Background(), "PROMO", uuid.New(), uuid.New(), 500)
	if !errors.Is(err, ErrUsageLimitReached) {
		t.Fatalf("expected ErrUsageLimitReached, got %v", err)
	}
	if store.inserted != 0 {
		t.Fatalf("redemption row written despite exhausted limit")
	}
}

func TestRedeemUnknownCodeIsNoop(t *testing.T) {
	store := &stubStore{missing: true}
	svc := &Service{Store: store}
	if err := svc.Redeem(context.Background(), "GONE", uuid.New(), uuid.New(), 100); err != nil {
		t.Fatalf("expected silent no-op, got %v", err)
	}
}

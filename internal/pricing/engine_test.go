package pricing

import (
	"errors"
	"math/rand"
	"testing"
)

func money(v int64) *Money {
	m := Money(v)
	return &m
}

func TestPriceLineOfferWins(t *testing.T) {
	line, err := PriceLine(ProductSnapshot{ListPrice: money(25_000), OfferPrice: money(20_000), Stock: 5, StockKnown: true}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.UnitPrice != 20_000 || line.UnitMrp != 25_000 {
		t.Fatalf("unexpected unit prices: %+v", line)
	}
	if line.LineSubtotal != 40_000 || line.LineMrpTotal != 50_000 {
		t.Fatalf("unexpected line totals: %+v", line)
	}
}

func TestPriceLineZeroOfferHonoured(t *testing.T) {
	// A set offer price of exactly zero is a real price, not a missing one.
	line, err := PriceLine(ProductSnapshot{ListPrice: money(10_000), OfferPrice: money(0)}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.UnitPrice != 0 {
		t.Fatalf("expected zero unit price, got %d", line.UnitPrice)
	}
	if line.UnitMrp != 10_000 {
		t.Fatalf("expected mrp 10000, got %d", line.UnitMrp)
	}
}

func TestPriceLineListFallback(t *testing.T) {
	line, err := PriceLine(ProductSnapshot{ListPrice: money(9_900)}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.UnitPrice != 9_900 || line.UnitMrp != 9_900 {
		t.Fatalf("expected list price fallback, got %+v", line)
	}
}

func TestPriceLineMissingPrice(t *testing.T) {
	_, err := PriceLine(ProductSnapshot{}, 1)
	if !errors.Is(err, ErrMissingPrice) {
		t.Fatalf("expected ErrMissingPrice, got %v", err)
	}
}

func TestPriceLineOutOfStock(t *testing.T) {
	_, err := PriceLine(ProductSnapshot{OfferPrice: money(100), Stock: 1, StockKnown: true}, 2)
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected ErrOutOfStock, got %v", err)
	}
}

func TestPriceLineUnknownStockSkipsCheck(t *testing.T) {
	if _, err := PriceLine(ProductSnapshot{OfferPrice: money(100)}, 99); err != nil {
		t.Fatalf("unexpected error with unknown stock: %v", err)
	}
}

func TestAggregateEmpty(t *testing.T) {
	subtotal, mrp := Aggregate(nil)
	if subtotal != 0 || mrp != 0 {
		t.Fatalf("expected zero totals, got %d/%d", subtotal, mrp)
	}
}

func TestAggregateOrderIndependent(t *testing.T) {
	lines := make([]LinePrice, 0, 8)
	for i := 1; i <= 8; i++ {
		lines = append(lines, LinePrice{LineSubtotal: Money(i * 1_000), LineMrpTotal: Money(i * 1_250)})
	}
	wantSub, wantMrp := Aggregate(lines)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(lines), func(a, b int) { lines[a], lines[b] = lines[b], lines[a] })
		sub, mrp := Aggregate(lines)
		if sub != wantSub || mrp != wantMrp {
			t.Fatalf("aggregation depends on order: %d/%d vs %d/%d", sub, mrp, wantSub, wantMrp)
		}
	}
}

func TestComputeTwoLineScenario(t *testing.T) {
	// product A offer 200 list 250 qty 2; product B offer 100 list 100 qty 1
	a, err := PriceLine(ProductSnapshot{ListPrice: money(250), OfferPrice: money(200)}, 2)
	if err != nil {
		t.Fatal(err)
	}
	b, err := PriceLine(ProductSnapshot{ListPrice: money(100), OfferPrice: money(100)}, 1)
	if err != nil {
		t.Fatal(err)
	}
	sum := Compute([]LinePrice{a, b}, 0, 0, 0)
	if sum.Subtotal != 500 || sum.TotalMrp != 600 || sum.ProductDiscount != 100 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestComputeNeverNegative(t *testing.T) {
	line := LinePrice{LineSubtotal: 1_000, LineMrpTotal: 1_000}
	sum := Compute([]LinePrice{line}, 5_000, 5_000, 0)
	if sum.CouponDiscount != 1_000 {
		t.Fatalf("coupon discount not clamped: %+v", sum)
	}
	if sum.WalletDeducted != 0 {
		t.Fatalf("wallet deduction not clamped after coupon: %+v", sum)
	}
	if sum.Total != 0 {
		t.Fatalf("total went negative: %+v", sum)
	}
}

func TestComputeWalletCoversShipping(t *testing.T) {
	line := LinePrice{LineSubtotal: 500, LineMrpTotal: 500}
	sum := Compute([]LinePrice{line}, 0, 10_000, 50)
	if sum.WalletDeducted != 550 {
		t.Fatalf("expected wallet clamped to 550, got %d", sum.WalletDeducted)
	}
	if sum.Total != 0 {
		t.Fatalf("expected total 0, got %d", sum.Total)
	}
}

func TestComputeWalletAfterCoupon(t *testing.T) {
	line := LinePrice{LineSubtotal: 1_000, LineMrpTotal: 1_200}
	sum := Compute([]LinePrice{line}, 80, 250, 0)
	if sum.Total != 670 {
		t.Fatalf("expected total 670, got %d", sum.Total)
	}
	if sum.ProductDiscount != 200 {
		t.Fatalf("expected product discount 200, got %d", sum.ProductDiscount)
	}
}

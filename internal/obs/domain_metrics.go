package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersPlacedTotal counts placed orders by payment method and resulting status.
	OrdersPlacedTotal *prometheus.CounterVec
	// CheckoutFailuresTotal counts rejected checkout attempts by reason.
	CheckoutFailuresTotal *prometheus.CounterVec
	// CouponVerdictTotal counts coupon evaluation outcomes by verdict code.
	CouponVerdictTotal *prometheus.CounterVec
	// CouponRedemptionsTotal counts committed coupon redemptions.
	CouponRedemptionsTotal prometheus.Counter
	// WalletDebitsTotal counts wallet debits applied during checkout.
	WalletDebitsTotal prometheus.Counter
	// OrderTotalAmount records final order totals in minor currency units.
	OrderTotalAmount *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersPlacedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Count of placed orders by payment method and status.",
		}, []string{"payment_method", "status"})
		CheckoutFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Count of rejected checkout attempts by reason.",
		}, []string{"reason"})
		CouponVerdictTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_verdict_total",
			Help:      "Count of coupon evaluation outcomes by verdict.",
		}, []string{"verdict"})
		CouponRedemptionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemptions_total",
			Help:      "Total number of committed coupon redemptions.",
		})
		WalletDebitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_debits_total",
			Help:      "Total number of wallet debits applied at checkout.",
		})
		OrderTotalAmount = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_total_amount",
			Help:      "Final order totals in minor currency units.",
			Buckets:   []float64{1000, 5000, 10000, 50000, 100000, 250000, 500000, 1000000, 5000000},
		}, []string{"payment_method"})

		mustRegisterCollector(reg, OrdersPlacedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersPlacedTotal = v
			}
		})
		mustRegisterCollector(reg, CheckoutFailuresTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutFailuresTotal = v
			}
		})
		mustRegisterCollector(reg, CouponVerdictTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponVerdictTotal = v
			}
		})
		mustRegisterCollector(reg, CouponRedemptionsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CouponRedemptionsTotal = v
			}
		})
		mustRegisterCollector(reg, WalletDebitsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				WalletDebitsTotal = v
			}
		})
		mustRegisterCollector(reg, OrderTotalAmount, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				OrderTotalAmount = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated   = "order.created"
	TopicOrderPaid      = "order.paid"
	TopicOrderCanceled  = "order.canceled"
	TopicCouponRedeemed = "coupon.redeemed"
	TopicWalletDebited  = "wallet.debited"
	TopicWalletAdjusted = "wallet.adjusted"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPaid,
		TopicOrderCanceled,
		TopicCouponRedeemed,
		TopicWalletDebited,
		TopicWalletAdjusted,
	}
}

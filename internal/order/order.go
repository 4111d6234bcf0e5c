package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no order matches the lookup.
var ErrNotFound = errors.New("order not found")

// Order lifecycle statuses.
const (
	StatusPending  = "PENDING"
	StatusPaid     = "PAID"
	StatusCanceled = "CANCELED"
)

// Order is an immutable record of a completed checkout. The amounts are
// captured at purchase time and never recomputed from the catalog.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"userId"`
	Status          string     `json:"status"`
	PaymentMethod   string     `json:"paymentMethod"`
	AddressID       uuid.UUID  `json:"addressId"`
	CouponCode      *string    `json:"couponCode,omitempty"`
	Subtotal        int64      `json:"subtotal"`
	TotalMrp        int64      `json:"totalMrp"`
	ProductDiscount int64      `json:"productDiscount"`
	CouponDiscount  int64      `json:"couponDiscount"`
	WalletDeducted  int64      `json:"walletDeducted"`
	Shipping        int64      `json:"shipping"`
	Total           int64      `json:"total"`
	Currency        string     `json:"currency"`
	CreatedAt       time.Time  `json:"createdAt"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
}

// Item is a priced order line frozen at purchase time.
type Item struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"orderId"`
	ProductID uuid.UUID `json:"productId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Qty       int32     `json:"qty"`
	UnitPrice int64     `json:"unitPrice"`
	UnitMrp   int64     `json:"unitMrp"`
	Subtotal  int64     `json:"subtotal"`
}

// Store is the persistence surface for reading and updating orders.
type Store interface {
	CountOrdersForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Order, error)
	GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (Order, error)
	ListItems(ctx context.Context, orderID uuid.UUID) ([]Item, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

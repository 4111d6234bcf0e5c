package pricing

import "errors"

// Money represents a monetary value stored in minor units.
type Money = int64

var (
	// ErrMissingPrice is returned when a product carries neither an offer nor a list price.
	ErrMissingPrice = errors.New("pricing: product has no price")
	// ErrOutOfStock is returned when the requested quantity exceeds the known stock level.
	ErrOutOfStock = errors.New("pricing: quantity exceeds stock")
	// ErrInvalidQuantity is returned for non-positive quantities.
	ErrInvalidQuantity = errors.New("pricing: quantity must be positive")
)

// ProductSnapshot captures the price and stock attributes of a product at
// evaluation time. Prices are optional: a nil pointer means the field is not
// set, while a pointer to zero is a legitimate zero price.
type ProductSnapshot struct {
	ListPrice  *Money
	OfferPrice *Money
	Stock      int32
	StockKnown bool
}

// LinePrice is the result of pricing a single cart line.
type LinePrice struct {
	UnitPrice    Money
	UnitMrp      Money
	Qty          int
	LineSubtotal Money
	LineMrpTotal Money
}

// PriceLine resolves the effective unit price for one line. The offer price
// wins when set, otherwise the list price applies; a set price of exactly
// zero is honoured, never treated as absent.
func PriceLine(p ProductSnapshot, qty int) (LinePrice, error) {
	if qty < 1 {
		return LinePrice{}, ErrInvalidQuantity
	}
	if p.StockKnown && int32(qty) > p.Stock {
		return LinePrice{}, ErrOutOfStock
	}

	var unitPrice Money
	switch {
	case p.OfferPrice != nil:
		unitPrice = *p.OfferPrice
	case p.ListPrice != nil:
		unitPrice = *p.ListPrice
	default:
		return LinePrice{}, ErrMissingPrice
	}
	unitMrp := unitPrice
	if p.ListPrice != nil {
		unitMrp = *p.ListPrice
	}
	if unitPrice < 0 {
		unitPrice = 0
	}
	if unitMrp < 0 {
		unitMrp = 0
	}
	return LinePrice{
		UnitPrice:    unitPrice,
		UnitMrp:      unitMrp,
		Qty:          qty,
		LineSubtotal: Money(qty) * unitPrice,
		LineMrpTotal: Money(qty) * unitMrp,
	}, nil
}

// Aggregate reduces priced lines into subtotal and MRP totals. The result is
// independent of line order.
func Aggregate(lines []LinePrice) (subtotal, totalMrp Money) {
	for _, l := range lines {
		subtotal += l.LineSubtotal
		totalMrp += l.LineMrpTotal
	}
	return subtotal, totalMrp
}

// Summary aggregates the computed pricing components for an order.
type Summary struct {
	Subtotal        Money `json:"subtotal"`
	TotalMrp        Money `json:"totalMrp"`
	ProductDiscount Money `json:"productDiscount"`
	CouponDiscount  Money `json:"couponDiscount"`
	WalletDeducted  Money `json:"walletDeducted"`
	Shipping        Money `json:"shipping"`
	Total           Money `json:"total"`
}

// Compute assembles order totals from aggregated line values and the applied
// deductions. The coupon discount is clamped to the subtotal and the wallet
// deduction to whatever remains, so the total never goes negative.
func Compute(lines []LinePrice, couponDiscount, walletDeducted, shipping Money) Summary {
	subtotal, totalMrp := Aggregate(lines)
	if couponDiscount > subtotal {
		couponDiscount = subtotal
	}
	if couponDiscount < 0 {
		couponDiscount = 0
	}
	if shipping < 0 {
		shipping = 0
	}
	payable := subtotal - couponDiscount + shipping
	if walletDeducted > payable {
		walletDeducted = payable
	}
	if walletDeducted < 0 {
		walletDeducted = 0
	}
	total := payable - walletDeducted
	if total < 0 {
		total = 0
	}
	productDiscount := totalMrp - subtotal
	if productDiscount < 0 {
		productDiscount = 0
	}
	return Summary{
		Subtotal:        subtotal,
		TotalMrp:        totalMrp,
		ProductDiscount: productDiscount,
		CouponDiscount:  couponDiscount,
		WalletDeducted:  walletDeducted,
		Shipping:        shipping,
		Total:           total,
	}
}

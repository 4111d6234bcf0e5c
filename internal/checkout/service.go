package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-gerai/internal/catalog"
	"github.com/noah-isme/backend-gerai/internal/coupon"
	"github.com/noah-isme/backend-gerai/internal/events"
	"github.com/noah-isme/backend-gerai/internal/lock"
	"github.com/noah-isme/backend-gerai/internal/obs"
	"github.com/noah-isme/backend-gerai/internal/order"
	"github.com/noah-isme/backend-gerai/internal/payment"
	"github.com/noah-isme/backend-gerai/internal/pricing"
	"github.com/noah-isme/backend-gerai/internal/wallet"
)

var (
	ErrEmptyOrder           = errors.New("order has no items")
	ErrAddressNotFound      = errors.New("address not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
)

// Address is the delivery destination resolved at checkout time.
type Address struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"userId"`
	ReceiverName string    `json:"receiverName"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	PostalCode   string    `json:"postalCode"`
	AddressLine  string    `json:"addressLine"`
}

// Store is the transactional persistence surface for placing orders. All
// methods run inside the caller's transaction.
type Store interface {
	GetAddressForUser(ctx context.Context, tx pgx.Tx, id, userID uuid.UUID) (Address, error)
	GetProductsForUpdate(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error)
	// DecrementStock reduces stock only when enough remains. It reports
	// whether a row changed.
	DecrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int32) (bool, error)
	InsertOrder(ctx context.Context, tx pgx.Tx, o order.Order) error
	InsertOrderItems(ctx context.Context, tx pgx.Tx, items []order.Item) error
	// Coupons and Wallets return tx-bound views so coupon settlement and
	// wallet debit commit or roll back with the order.
	Coupons(tx pgx.Tx) coupon.Store
	Wallets(tx pgx.Tx) wallet.Store
}

// LineInput is a single requested order line.
type LineInput struct {
	ProductID string `json:"productId"`
	Qty       int32  `json:"qty"`
}

// Input is the checkout request body, shared by quote and place-order.
type Input struct {
	Items         []LineInput    `json:"items"`
	BuyNow        *LineInput     `json:"buyNow"`
	CouponCode    *string        `json:"couponCode"`
	UseWallet     bool           `json:"useWallet"`
	PaymentMethod string         `json:"paymentMethod"`
	AddressID     string         `json:"addressId"`
	Payment       *payment.Proof `json:"payment"`
}

// orderLines picks the effective line set. Buy-now orders exactly one item
// and takes precedence over the cart lines.
func (in Input) orderLines() []LineInput {
	if in.BuyNow != nil {
		return []LineInput{*in.BuyNow}
	}
	return in.Items
}

// CouponResult carries the advisory outcome of coupon evaluation. Verdict is
// one of the coupon verdict codes; a non-VALID verdict never blocks checkout.
type CouponResult struct {
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
	Verdict  string `json:"verdict"`
}

// QuoteLine is a priced line in a quote response.
type QuoteLine struct {
	ProductID uuid.UUID `json:"productId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Qty       int32     `json:"qty"`
	UnitPrice int64     `json:"unitPrice"`
	UnitMrp   int64     `json:"unitMrp"`
	Subtotal  int64     `json:"subtotal"`
}

// QuoteOutput is the side-effect-free pricing preview.
type QuoteOutput struct {
	Lines         []QuoteLine     `json:"lines"`
	Summary       pricing.Summary `json:"summary"`
	Coupon        *CouponResult   `json:"coupon,omitempty"`
	WalletBalance int64           `json:"walletBalance"`
}

// Output is the result of a placed order.
type Output struct {
	OrderID string          `json:"orderId"`
	Status  string          `json:"status"`
	Summary pricing.Summary `json:"summary"`
	Coupon  *CouponResult   `json:"coupon,omitempty"`
}

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Service assembles order totals from the catalog, coupon, and wallet
// components and persists the result atomically.
type Service struct {
	Pool     TxBeginner
	Store    Store
	Catalog  catalog.Store
	Coupons  *coupon.Service
	Wallet   *wallet.Service
	Verifier payment.Verifier
	Events   *events.Bus
	Locks    *lock.Locker
	Log      zerolog.Logger

	Currency        string
	ShippingFee     int64
	FreeShippingMin int64
}

type resolvedLine struct {
	product catalog.Product
	qty     int32
	price   pricing.LinePrice
}

// Quote prices the requested items without touching stock, coupon counters,
// or the wallet. It reuses the same evaluation paths as PlaceOrder so a
// preview and the eventual order can only differ when shared state moved in
// between.
func (s *Service) Quote(ctx context.Context, userID uuid.UUID, in Input) (QuoteOutput, error) {
	if s == nil || s.Catalog == nil {
		return QuoteOutput{}, errors.New("checkout service not configured")
	}
	merged, err := mergeLines(in.orderLines())
	if err != nil {
		return QuoteOutput{}, err
	}
	ids := make([]uuid.UUID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	products, err := s.Catalog.GetProductsByID(ctx, ids)
	if err != nil {
		return QuoteOutput{}, fmt.Errorf("load products: %w", err)
	}
	byID := make(map[uuid.UUID]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	lines, err := resolveLines(merged, byID)
	if err != nil {
		return QuoteOutput{}, err
	}

	priced := make([]pricing.LinePrice, 0, len(lines))
	quoteLines := make([]QuoteLine, 0, len(lines))
	for _, l := range lines {
		priced = append(priced, l.price)
		quoteLines = append(quoteLines, QuoteLine{
			ProductID: l.product.ID,
			Title:     l.product.Title,
			Slug:      l.product.Slug,
			Qty:       l.qty,
			UnitPrice: l.price.UnitPrice,
			UnitMrp:   l.price.UnitMrp,
			Subtotal:  l.price.LineSubtotal,
		})
	}
	subtotal, _ := pricing.Aggregate(priced)

	couponResult, discount := s.evaluateCoupon(ctx, in.CouponCode, &userID, subtotal)
	shipping := s.shippingFor(subtotal)

	balance := int64(0)
	if s.Wallet != nil {
		balance, err = s.Wallet.Balance(ctx, userID)
		if err != nil {
			return QuoteOutput{}, fmt.Errorf("load wallet: %w", err)
		}
	}
	pre := pricing.Compute(priced, discount, 0, shipping)
	deducted := wallet.Usable(balance, pre.Total, in.UseWallet)
	summary := pricing.Compute(priced, discount, deducted, shipping)

	return QuoteOutput{
		Lines:         quoteLines,
		Summary:       summary,
		Coupon:        couponResult,
		WalletBalance: balance,
	}, nil
}

// PlaceOrder runs the strict checkout pipeline: payment proof, address,
// pricing, coupon, wallet, then a single transaction that decrements stock,
// settles the coupon, debits the wallet, and persists the order. An
// ineligible coupon degrades to zero discount instead of failing the order.
func (s *Service) PlaceOrder(ctx context.Context, userID uuid.UUID, in Input) (Output, error) {
	if s == nil || s.Pool == nil || s.Store == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	method, err := normalizeMethod(in.PaymentMethod)
	if err != nil {
		return Output{}, err
	}
	// Prepaid proofs are verified structurally before any pricing work;
	// only the amount-vs-total check waits for the computed summary.
	if method == payment.MethodPrepaid {
		if in.Payment == nil {
			return Output{}, payment.ErrVerification
		}
		if err := s.Verifier.Verify(*in.Payment); err != nil {
			return Output{}, err
		}
	}
	addressID, err := uuid.Parse(in.AddressID)
	if err != nil {
		return Output{}, ErrAddressNotFound
	}
	merged, err := mergeLines(in.orderLines())
	if err != nil {
		return Output{}, err
	}

	var out Output
	run := func(ctx context.Context) error {
		out, err = s.placeOrderTx(ctx, userID, addressID, method, merged, in)
		return err
	}
	if s.Locks != nil {
		key := "checkout:user:" + userID.String()
		return out, s.Locks.WithLock(ctx, key, 30*time.Second, run)
	}
	return out, run(ctx)
}

func (s *Service) placeOrderTx(ctx context.Context, userID, addressID uuid.UUID, method string, merged map[uuid.UUID]int32, in Input) (Output, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Output{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := s.Store.GetAddressForUser(ctx, tx, addressID, userID); err != nil {
		return Output{}, err
	}

	ids := make([]uuid.UUID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	products, err := s.Store.GetProductsForUpdate(ctx, tx, ids)
	if err != nil {
		return Output{}, fmt.Errorf("load products: %w", err)
	}
	lines, err := resolveLines(merged, products)
	if err != nil {
		return Output{}, err
	}
	priced := make([]pricing.LinePrice, 0, len(lines))
	for _, l := range lines {
		priced = append(priced, l.price)
	}
	subtotal, _ := pricing.Aggregate(priced)

	couponSvc := s.txCoupons(tx)
	couponResult, discount := evaluateWith(ctx, couponSvc, s.Log, in.CouponCode, &userID, subtotal)

	orderID := uuid.New()

	// Settle the coupon before the order row exists so a lost race on the
	// global counter can still degrade the discount instead of aborting.
	if discount > 0 && couponResult != nil {
		if err := couponSvc.Redeem(ctx, couponResult.Code, orderID, userID, discount); err != nil {
			if errors.Is(err, coupon.ErrUsageLimitReached) {
				s.Log.Warn().Str("coupon", couponResult.Code).Str("order_id", orderID.String()).
					Msg("coupon redemption lost usage-limit race, dropping discount")
				couponResult.Verdict = coupon.VerdictGlobalLimitReached
				couponResult.Discount = 0
				discount = 0
			} else {
				return Output{}, fmt.Errorf("redeem coupon: %w", err)
			}
		}
	}

	shipping := s.shippingFor(subtotal)

	walletSvc := s.txWallet(tx)
	deducted := int64(0)
	if in.UseWallet && walletSvc != nil {
		balance, err := walletSvc.Balance(ctx, userID)
		if err != nil {
			return Output{}, fmt.Errorf("load wallet: %w", err)
		}
		pre := pricing.Compute(priced, discount, 0, shipping)
		deducted = wallet.Usable(balance, pre.Total, true)
	}
	summary := pricing.Compute(priced, discount, deducted, shipping)

	if method == payment.MethodPrepaid {
		if in.Payment == nil {
			return Output{}, payment.ErrVerification
		}
		if err := s.Verifier.VerifyAmount(*in.Payment, summary.Total); err != nil {
			return Output{}, err
		}
	}

	status := order.StatusPaid
	if method == payment.MethodCOD && summary.Total > 0 {
		status = order.StatusPending
	}

	for _, l := range lines {
		applied, err := s.Store.DecrementStock(ctx, tx, l.product.ID, l.qty)
		if err != nil {
			return Output{}, fmt.Errorf("decrement stock: %w", err)
		}
		if !applied {
			return Output{}, fmt.Errorf("%w: %s", pricing.ErrOutOfStock, l.product.Slug)
		}
	}

	if deducted > 0 {
		if err := walletSvc.DebitForOrder(ctx, userID, deducted); err != nil {
			return Output{}, fmt.Errorf("debit wallet: %w", err)
		}
	}

	now := time.Now().UTC()
	ord := order.Order{
		ID:              orderID,
		UserID:          userID,
		Status:          status,
		PaymentMethod:   method,
		AddressID:       addressID,
		Subtotal:        summary.Subtotal,
		TotalMrp:        summary.TotalMrp,
		ProductDiscount: summary.ProductDiscount,
		CouponDiscount:  summary.CouponDiscount,
		WalletDeducted:  summary.WalletDeducted,
		Shipping:        summary.Shipping,
		Total:           summary.Total,
		Currency:        s.Currency,
		CreatedAt:       now,
	}
	if status == order.StatusPaid {
		paidAt := now
		ord.PaidAt = &paidAt
	}
	if couponResult != nil && couponResult.Discount > 0 {
		code := couponResult.Code
		ord.CouponCode = &code
	}
	if err := s.Store.InsertOrder(ctx, tx, ord); err != nil {
		return Output{}, fmt.Errorf("insert order: %w", err)
	}
	items := make([]order.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, order.Item{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: l.product.ID,
			Title:     l.product.Title,
			Slug:      l.product.Slug,
			Qty:       l.qty,
			UnitPrice: l.price.UnitPrice,
			UnitMrp:   l.price.UnitMrp,
			Subtotal:  l.price.LineSubtotal,
		})
	}
	if err := s.Store.InsertOrderItems(ctx, tx, items); err != nil {
		return Output{}, fmt.Errorf("insert order items: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Output{}, err
	}

	s.emitEvents(ctx, ord, couponResult, deducted)
	recordOrderMetrics(ord, couponResult, deducted)

	return Output{
		OrderID: orderID.String(),
		Status:  status,
		Summary: summary,
		Coupon:  couponResult,
	}, nil
}

func (s *Service) emitEvents(ctx context.Context, ord order.Order, couponResult *CouponResult, deducted int64) {
	if s.Events == nil {
		return
	}
	payload := map[string]any{
		"orderId": ord.ID.String(),
		"userId":  ord.UserID.String(),
		"status":  ord.Status,
		"total":   ord.Total,
	}
	if _, err := s.Events.Emit(ctx, events.TopicOrderCreated, ord.ID, payload); err != nil {
		s.Log.Warn().Err(err).Msg("emit order.created")
	}
	if couponResult != nil && couponResult.Discount > 0 {
		_, err := s.Events.Emit(ctx, events.TopicCouponRedeemed, ord.ID, map[string]any{
			"orderId":  ord.ID.String(),
			"code":     couponResult.Code,
			"discount": couponResult.Discount,
		})
		if err != nil {
			s.Log.Warn().Err(err).Msg("emit coupon.redeemed")
		}
	}
	if deducted > 0 {
		_, err := s.Events.Emit(ctx, events.TopicWalletDebited, ord.ID, map[string]any{
			"orderId": ord.ID.String(),
			"userId":  ord.UserID.String(),
			"amount":  deducted,
		})
		if err != nil {
			s.Log.Warn().Err(err).Msg("emit wallet.debited")
		}
	}
}

func recordOrderMetrics(ord order.Order, couponResult *CouponResult, deducted int64) {
	if obs.OrdersPlacedTotal != nil {
		obs.OrdersPlacedTotal.WithLabelValues(ord.PaymentMethod, ord.Status).Inc()
	}
	if obs.OrderTotalAmount != nil {
		obs.OrderTotalAmount.WithLabelValues(ord.PaymentMethod).Observe(float64(ord.Total))
	}
	if couponResult != nil && obs.CouponVerdictTotal != nil {
		obs.CouponVerdictTotal.WithLabelValues(couponResult.Verdict).Inc()
	}
	if couponResult != nil && couponResult.Discount > 0 && obs.CouponRedemptionsTotal != nil {
		obs.CouponRedemptionsTotal.Inc()
	}
	if deducted > 0 && obs.WalletDebitsTotal != nil {
		obs.WalletDebitsTotal.Inc()
	}
}

func (s *Service) evaluateCoupon(ctx context.Context, code *string, userID *uuid.UUID, subtotal int64) (*CouponResult, int64) {
	return evaluateWith(ctx, s.Coupons, s.Log, code, userID, subtotal)
}

// evaluateWith degrades any coupon failure to a zero discount with an
// advisory verdict. Store-level failures are logged and reported NOT_FOUND
// rather than failing the pipeline.
func evaluateWith(ctx context.Context, svc *coupon.Service, log zerolog.Logger, code *string, userID *uuid.UUID, subtotal int64) (*CouponResult, int64) {
	if code == nil || coupon.NormalizeCode(*code) == "" || svc == nil {
		return nil, 0
	}
	canonical := coupon.NormalizeCode(*code)
	quote, err := svc.Evaluate(ctx, canonical, userID, subtotal)
	if err != nil {
		verdict := coupon.Verdict(err)
		log.Warn().Str("coupon", canonical).Str("verdict", verdict).Err(err).
			Msg("coupon ineligible, continuing without discount")
		return &CouponResult{Code: canonical, Verdict: verdict}, 0
	}
	return &CouponResult{Code: quote.Code, Discount: quote.Discount, Verdict: coupon.VerdictValid}, quote.Discount
}

func (s *Service) txCoupons(tx pgx.Tx) *coupon.Service {
	if s.Coupons == nil {
		return nil
	}
	svc := *s.Coupons
	svc.Store = s.Store.Coupons(tx)
	return &svc
}

func (s *Service) txWallet(tx pgx.Tx) *wallet.Service {
	if s.Wallet == nil {
		return nil
	}
	svc := *s.Wallet
	svc.Store = s.Store.Wallets(tx)
	return &svc
}

func (s *Service) shippingFor(subtotal int64) int64 {
	if s.ShippingFee <= 0 {
		return 0
	}
	if s.FreeShippingMin > 0 && subtotal >= s.FreeShippingMin {
		return 0
	}
	return s.ShippingFee
}

func normalizeMethod(method string) (string, error) {
	switch method {
	case payment.MethodCOD, payment.MethodPrepaid:
		return method, nil
	case "":
		return payment.MethodCOD, nil
	default:
		return "", ErrInvalidPaymentMethod
	}
}

// mergeLines folds duplicate product lines into one and validates quantities.
func mergeLines(items []LineInput) (map[uuid.UUID]int32, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	merged := make(map[uuid.UUID]int32, len(items))
	for _, it := range items {
		id, err := uuid.Parse(it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, it.ProductID)
		}
		if it.Qty <= 0 {
			return nil, pricing.ErrInvalidQuantity
		}
		merged[id] += it.Qty
	}
	return merged, nil
}

func resolveLines(merged map[uuid.UUID]int32, products map[uuid.UUID]catalog.Product) ([]resolvedLine, error) {
	lines := make([]resolvedLine, 0, len(merged))
	for id, qty := range merged {
		p, ok := products[id]
		if !ok || !p.Active {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		lp, err := pricing.PriceLine(p.Snapshot(), int(qty))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Slug, err)
		}
		lines = append(lines, resolvedLine{product: p, qty: qty, price: lp})
	}
	return lines, nil
}

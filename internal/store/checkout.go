package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-gerai/internal/catalog"
	"github.com/noah-isme/backend-gerai/internal/checkout"
	"github.com/noah-isme/backend-gerai/internal/coupon"
	"github.com/noah-isme/backend-gerai/internal/order"
	"github.com/noah-isme/backend-gerai/internal/wallet"
)

// CheckoutRepo implements the transactional surface of order placement.
// Every method runs on the transaction handed in by the checkout service.
type CheckoutRepo struct{}

func (CheckoutRepo) GetAddressForUser(ctx context.Context, tx pgx.Tx, id, userID uuid.UUID) (checkout.Address, error) {
	var a checkout.Address
	err := tx.QueryRow(ctx,
		`SELECT id, user_id, receiver_name, phone, city, postal_code, address_line
		 FROM addresses WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&a.ID, &a.UserID, &a.ReceiverName, &a.Phone, &a.City, &a.PostalCode, &a.AddressLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return checkout.Address{}, checkout.ErrAddressNotFound
		}
		return checkout.Address{}, err
	}
	return a, nil
}

// GetProductsForUpdate row-locks the products so concurrent checkouts
// serialise on stock.
func (CheckoutRepo) GetProductsForUpdate(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]catalog.Product, error) {
	rows, err := tx.Query(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ANY($1) AND active FOR UPDATE",
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]catalog.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (CheckoutRepo) DecrementStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int32) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE products
		 SET stock = stock - $2, updated_at = now()
		 WHERE id = $1 AND stock >= $2`,
		productID, qty,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (CheckoutRepo) InsertOrder(ctx context.Context, tx pgx.Tx, o order.Order) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, status, payment_method, address_id, coupon_code,
		   subtotal, total_mrp, product_discount, coupon_discount, wallet_deducted, shipping, total,
		   currency, created_at, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		o.ID, o.UserID, o.Status, o.PaymentMethod, o.AddressID, o.CouponCode,
		o.Subtotal, o.TotalMrp, o.ProductDiscount, o.CouponDiscount, o.WalletDeducted, o.Shipping, o.Total,
		o.Currency, o.CreatedAt, o.PaidAt,
	)
	return err
}

func (CheckoutRepo) InsertOrderItems(ctx context.Context, tx pgx.Tx, items []order.Item) error {
	for _, it := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, title, slug, qty, unit_price, unit_mrp, subtotal)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, it.OrderID, it.ProductID, it.Title, it.Slug, it.Qty, it.UnitPrice, it.UnitMrp, it.Subtotal,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (CheckoutRepo) Coupons(tx pgx.Tx) coupon.Store { return CouponRepo{DB: tx} }
func (CheckoutRepo) Wallets(tx pgx.Tx) wallet.Store { return WalletRepo{DB: tx} }

var _ checkout.Store = CheckoutRepo{}

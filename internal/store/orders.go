package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-gerai/internal/order"
)

// OrderRepo reads and updates persisted orders.
type OrderRepo struct {
	DB Querier
}

const orderColumns = "id, user_id, status, payment_method, address_id, coupon_code, subtotal, total_mrp, product_discount, coupon_discount, wallet_deducted, shipping, total, currency, created_at, paid_at"

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PaymentMethod, &o.AddressID, &o.CouponCode,
		&o.Subtotal, &o.TotalMrp, &o.ProductDiscount, &o.CouponDiscount, &o.WalletDeducted,
		&o.Shipping, &o.Total, &o.Currency, &o.CreatedAt, &o.PaidAt)
	return o, err
}

func (r OrderRepo) CountOrdersForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, "SELECT count(*) FROM orders WHERE user_id = $1", userID).Scan(&n)
	return n, err
}

func (r OrderRepo) ListOrdersForUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]order.Order, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r OrderRepo) GetOrderForUser(ctx context.Context, id, userID uuid.UUID) (order.Order, error) {
	row := r.DB.QueryRow(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = $1 AND user_id = $2", id, userID)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, order.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (r OrderRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]order.Item, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, order_id, product_id, title, slug, qty, unit_price, unit_mrp, subtotal
		 FROM order_items WHERE order_id = $1`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []order.Item
	for rows.Next() {
		var it order.Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Title, &it.Slug, &it.Qty, &it.UnitPrice, &it.UnitMrp, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.DB.Exec(ctx, "UPDATE orders SET status = $2 WHERE id = $1", id, status)
	return err
}

func (r OrderRepo) GetStatus(ctx context.Context, id uuid.UUID) (string, error) {
	var status string
	err := r.DB.QueryRow(ctx, "SELECT status FROM orders WHERE id = $1", id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", order.ErrNotFound
		}
		return "", err
	}
	return status, nil
}

func (r OrderRepo) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE orders
		 SET status = $2, paid_at = CASE WHEN $2 = 'PAID' THEN now() ELSE paid_at END
		 WHERE id = $1 AND status = 'PENDING'`,
		id, status,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

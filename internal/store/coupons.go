package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-gerai/internal/coupon"
)

// CouponRepo persists coupon rules and their redemptions.
type CouponRepo struct {
	DB Querier
}

const couponColumns = "id, code, kind, value, percent_bps, min_spend, max_discount, starts_at, ends_at, usage_limit, used_count, per_user_limit, created_at, updated_at"

func scanCoupon(row pgx.Row) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.Kind, &c.Value, &c.PercentBps, &c.MinSpend, &c.MaxDiscount,
		&c.StartsAt, &c.EndsAt, &c.UsageLimit, &c.UsedCount, &c.PerUserLimit, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r CouponRepo) GetCouponByCode(ctx context.Context, code string) (coupon.Coupon, error) {
	row := r.DB.QueryRow(ctx, "SELECT "+couponColumns+" FROM coupons WHERE code = $1", code)
	c, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.Coupon{}, coupon.ErrNotFound
		}
		return coupon.Coupon{}, err
	}
	return c, nil
}

func (r CouponRepo) CountRedemptionsByUser(ctx context.Context, couponID, userID uuid.UUID) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx,
		"SELECT count(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2",
		couponID, userID,
	).Scan(&n)
	return n, err
}

func (r CouponRepo) HasRedemptionForOrder(ctx context.Context, couponID, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM coupon_redemptions WHERE coupon_id = $1 AND order_id = $2)",
		couponID, orderID,
	).Scan(&exists)
	return exists, err
}

func (r CouponRepo) InsertRedemption(ctx context.Context, params coupon.RedemptionParams) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO coupon_redemptions (id, coupon_id, order_id, user_id, amount)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (coupon_id, order_id) DO NOTHING`,
		uuid.New(), params.CouponID, params.OrderID, params.UserID, params.Amount,
	)
	return err
}

// IncrementUsedCount bumps the counter only while the usage limit has
// headroom. The WHERE clause is the guard against concurrent over-redemption.
func (r CouponRepo) IncrementUsedCount(ctx context.Context, couponID uuid.UUID) (bool, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE coupons
		 SET used_count = used_count + 1, updated_at = now()
		 WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)`,
		couponID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r CouponRepo) CreateCoupon(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row := r.DB.QueryRow(ctx,
		`INSERT INTO coupons (id, code, kind, value, percent_bps, min_spend, max_discount, starts_at, ends_at, usage_limit, per_user_limit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+couponColumns,
		id, c.Code, c.Kind, c.Value, c.PercentBps, c.MinSpend, c.MaxDiscount,
		c.StartsAt, c.EndsAt, c.UsageLimit, c.PerUserLimit,
	)
	created, err := scanCoupon(row)
	if err != nil {
		if isUniqueViolation(err) {
			return coupon.Coupon{}, coupon.ErrDuplicateCode
		}
		return coupon.Coupon{}, err
	}
	return created, nil
}

// UpdateCoupon rewrites the rule fields for an existing code. The usage
// counter is untouched.
func (r CouponRepo) UpdateCoupon(ctx context.Context, c coupon.Coupon) (coupon.Coupon, error) {
	row := r.DB.QueryRow(ctx,
		`UPDATE coupons
		 SET kind = $2, value = $3, percent_bps = $4, min_spend = $5, max_discount = $6,
		     starts_at = $7, ends_at = $8, usage_limit = $9, per_user_limit = $10, updated_at = $11
		 WHERE code = $1
		 RETURNING `+couponColumns,
		c.Code, c.Kind, c.Value, c.PercentBps, c.MinSpend, c.MaxDiscount,
		c.StartsAt, c.EndsAt, c.UsageLimit, c.PerUserLimit, time.Now().UTC(),
	)
	updated, err := scanCoupon(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.Coupon{}, coupon.ErrNotFound
		}
		return coupon.Coupon{}, err
	}
	return updated, nil
}

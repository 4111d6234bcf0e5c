package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-gerai/internal/checkout"
)

// AddressRepo manages the per-user address book.
type AddressRepo struct {
	DB Querier
}

func (r AddressRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]checkout.Address, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, receiver_name, phone, city, postal_code, address_line
		 FROM addresses WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checkout.Address
	for rows.Next() {
		var a checkout.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.ReceiverName, &a.Phone, &a.City, &a.PostalCode, &a.AddressLine); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r AddressRepo) Get(ctx context.Context, id, userID uuid.UUID) (checkout.Address, error) {
	var a checkout.Address
	err := r.DB.QueryRow(ctx,
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

func (r AddressRepo) Create(ctx context.Context, a checkout.Address) (checkout.Address, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.DB.Exec(ctx,
		`INSERT INTO addresses (id, user_id, receiver_name, phone, city, postal_code, address_line)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.ReceiverName, a.Phone, a.City, a.PostalCode, a.AddressLine,
	)
	if err != nil {
		return checkout.Address{}, err
	}
	return a, nil
}

func (r AddressRepo) Update(ctx context.Context, a checkout.Address) (checkout.Address, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE addresses SET receiver_name = $3, phone = $4, city = $5, postal_code = $6, address_line = $7, updated_at = now()
		 WHERE id = $1 AND user_id = $2`,
		a.ID, a.UserID, a.ReceiverName, a.Phone, a.City, a.PostalCode, a.AddressLine,
	)
	if err != nil {
		return checkout.Address{}, err
	}
	if tag.RowsAffected() == 0 {
		return checkout.Address{}, checkout.ErrAddressNotFound
	}
	return a, nil
}

func (r AddressRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, "DELETE FROM addresses WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return checkout.ErrAddressNotFound
	}
	return nil
}

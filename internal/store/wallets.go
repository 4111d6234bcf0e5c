package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/backend-gerai/internal/wallet"
)

// WalletRepo persists wallet balances and their entry log.
type WalletRepo struct {
	DB Querier
}

func (r WalletRepo) GetAccount(ctx context.Context, userID uuid.UUID) (wallet.Account, error) {
	var a wallet.Account
	err := r.DB.QueryRow(ctx,
		"SELECT user_id, balance, updated_at FROM wallets WHERE user_id = $1", userID,
	).Scan(&a.UserID, &a.Balance, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wallet.Account{}, wallet.ErrNotFound
		}
		return wallet.Account{}, err
	}
	return a, nil
}

// ApplyEntry adjusts the balance and appends the log entry in one
// transaction. A debit that would go negative matches no row and surfaces
// ErrInsufficientBalance; credits materialise the account on first use.
func (r WalletRepo) ApplyEntry(ctx context.Context, userID uuid.UUID, amount int64, kind wallet.EntryType, reason string) (wallet.Account, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return wallet.Account{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var a wallet.Account
	if kind == wallet.Debit {
		err = tx.QueryRow(ctx,
			`UPDATE wallets
			 SET balance = balance - $2, updated_at = now()
			 WHERE user_id = $1 AND balance >= $2
			 RETURNING user_id, balance, updated_at`,
			userID, amount,
		).Scan(&a.UserID, &a.Balance, &a.UpdatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return wallet.Account{}, wallet.ErrInsufficientBalance
			}
			return wallet.Account{}, err
		}
	} else {
		err = tx.QueryRow(ctx,
			`INSERT INTO wallets (user_id, balance)
			 VALUES ($1, $2)
			 ON CONFLICT (user_id) DO UPDATE SET balance = wallets.balance + $2, updated_at = now()
			 RETURNING user_id, balance, updated_at`,
			userID, amount,
		).Scan(&a.UserID, &a.Balance, &a.UpdatedAt)
		if err != nil {
			return wallet.Account{}, err
		}
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO wallet_entries (id, user_id, amount, type, reason) VALUES ($1, $2, $3, $4, $5)",
		uuid.New(), userID, amount, string(kind), reason,
	); err != nil {
		return wallet.Account{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return wallet.Account{}, err
	}
	return a, nil
}

func (r WalletRepo) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]wallet.Entry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, amount, type, reason, created_at
		 FROM wallet_entries
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []wallet.Entry
	for rows.Next() {
		var e wallet.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Type, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

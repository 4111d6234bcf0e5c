package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a user has no wallet account yet.
var ErrNotFound = errors.New("wallet not found")

// ErrInsufficientBalance is returned when a debit exceeds the stored balance.
var ErrInsufficientBalance = errors.New("wallet balance insufficient")

// Store captures the persistence operations required by the wallet service.
type Store interface {
	// GetAccount loads the wallet for a user, returning ErrNotFound when the
	// user never received funds.
	GetAccount(ctx context.Context, userID uuid.UUID) (Account, error)
	// ApplyEntry atomically adjusts the balance and appends the log entry.
	// Debits must fail with ErrInsufficientBalance rather than drive the
	// balance negative.
	ApplyEntry(ctx context.Context, userID uuid.UUID, amount int64, kind EntryType, reason string) (Account, error)
	// ListEntries returns the transaction log, newest first.
	ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Entry, error)
}

// Service wraps wallet balance reads and movements.
type Service struct {
	Store Store
}

// Balance returns the current balance for a user. A missing account reads as
// zero; it is materialised on first credit.
func (s *Service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if s == nil || s.Store == nil {
		return 0, errors.New("wallet service not configured")
	}
	account, err := s.Store.GetAccount(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Balance, nil
}

// DebitForOrder consumes wallet funds as partial payment for an order.
func (s *Service) DebitForOrder(ctx context.Context, userID uuid.UUID, amount int64) error {
	if s == nil || s.Store == nil {
		return errors.New("wallet service not configured")
	}
	if amount <= 0 {
		return nil
	}
	if _, err := s.Store.ApplyEntry(ctx, userID, amount, Debit, ReasonOrderPayment); err != nil {
		return fmt.Errorf("debit wallet: %w", err)
	}
	return nil
}

// Adjust credits or debits a wallet on behalf of an administrator.
func (s *Service) Adjust(ctx context.Context, userID uuid.UUID, amount int64, kind EntryType, reason string) (Account, error) {
	if s == nil || s.Store == nil {
		return Account{}, errors.New("wallet service not configured")
	}
	if amount <= 0 {
		return Account{}, errors.New("amount must be positive")
	}
	switch kind {
	case Credit, Debit:
	default:
		return Account{}, fmt.Errorf("invalid entry type %q", kind)
	}
	if reason == "" {
		reason = ReasonAdminAdjust
	}
	return s.Store.ApplyEntry(ctx, userID, amount, kind, reason)
}

// Transactions returns a page of the wallet log for a user.
func (s *Service) Transactions(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]Entry, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("wallet service not configured")
	}
	if limit <= 0 {
		limit = 20
	}
	return s.Store.ListEntries(ctx, userID, limit, offset)
}

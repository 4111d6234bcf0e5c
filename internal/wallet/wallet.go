package wallet

import (
	"time"

	"github.com/google/uuid"
)

// EntryType distinguishes the direction of a wallet movement.
type EntryType string

const (
	// Credit adds funds to the wallet.
	Credit EntryType = "CREDIT"
	// Debit removes funds from the wallet.
	Debit EntryType = "DEBIT"
)

// Well-known entry reasons recorded on the transaction log.
const (
	ReasonOrderPayment = "ORDER_PAYMENT"
	ReasonAdminAdjust  = "ADMIN_ADJUSTMENT"
	ReasonRefund       = "ORDER_REFUND"
)

// Account is a per-user stored-value balance.
type Account struct {
	UserID    uuid.UUID `json:"userId"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Entry is one movement in the append-only wallet transaction log.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Amount    int64     `json:"amount"`
	Type      EntryType `json:"type"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

// Usable computes the portion of the balance that can cover the amount due.
// It never exceeds either side and is zero when the caller did not opt in.
func Usable(balance, amountDue int64, useWallet bool) int64 {
	if !useWallet || balance <= 0 || amountDue <= 0 {
		return 0
	}
	if balance < amountDue {
		return balance
	}
	return amountDue
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the direction of a ledger entry.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// Delta returns the signed balance change for an entry of this type.
func (t TransactionType) Delta(amount int64) int64 {
	if t == TransactionTypeDebit {
		return -amount
	}
	return amount
}

// Transaction is an immutable ledger entry against a wallet. Once committed
// it is never updated or deleted. Amount is strictly positive, in minor
// currency units; the direction is carried by Type.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	Amount         int64           `json:"amount"`
	Type           TransactionType `json:"type"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

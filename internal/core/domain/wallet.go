package domain

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds a user's materialized running balance in minor currency units.
// The balance is mutated only by transaction creation; the row is never
// deleted. One wallet per owner, enforced by a unique constraint on owner_id.
type Wallet struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanDebit reports whether the wallet covers a debit of amount.
// A debit of exactly the full balance is valid (balance reaches zero).
func (w *Wallet) CanDebit(amount int64) bool {
	return amount <= w.Balance
}

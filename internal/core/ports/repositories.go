package ports

import (
	"context"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepository defines persistence operations for wallets.
// Methods accepting pgx.Tx run inside a unit of work and may take row locks.
type WalletRepository interface {
	// Create inserts a wallet. Returns an AppError of kind
	// WalletAlreadyExists when the owner already has one.
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
	// FindOrCreateForUpdate resolves the wallet for ownerID inside tx,
	// creating a zero-balance row if absent, and returns it locked for the
	// remainder of the unit. Race-safe: concurrent first calls for the same
	// owner yield exactly one row.
	FindOrCreateForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error
}

// TransactionRepository defines persistence operations for ledger entries.
type TransactionRepository interface {
	// Create inserts an immutable ledger entry inside tx. Returns an
	// AppError of kind DuplicateRequest when the idempotency key is already
	// committed.
	Create(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) error
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error)
	// GetByIdempotencyKeyTx re-checks the key inside the unit of work to
	// close the race window between concurrent identical requests.
	GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Transaction, error)
	// ListByWalletID returns entries newest first, optionally filtered by type.
	ListByWalletID(ctx context.Context, walletID uuid.UUID, typeFilter *domain.TransactionType) ([]domain.Transaction, error)
	// SumByType returns the credit and debit totals for a wallet.
	SumByType(ctx context.Context, walletID uuid.UUID) (credits int64, debits int64, err error)
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts a user. Returns an AppError of kind EmailTaken when the
	// email is already registered.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DBTransactor runs a function as one atomic unit of work. The scoped tx
// handle is valid only inside fn; the unit commits when fn returns nil and
// rolls back otherwise, so partial application is never observable.
type DBTransactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}

package ports

import (
	"context"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// --- Service Ports (Business Logic) ---

// CreateTransactionRequest carries the inputs for a ledger entry. OwnerID is
// the resolved principal, never taken from the request body.
type CreateTransactionRequest struct {
	OwnerID        uuid.UUID
	Amount         int64
	Type           domain.TransactionType
	IdempotencyKey *string
}

// LedgerService owns the wallet/transaction data model.
type LedgerService interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*domain.Transaction, error)
	// GetBalance is an O(1) read of the materialized balance.
	GetBalance(ctx context.Context, ownerID uuid.UUID) (int64, error)
	// GetAggregatedBalance recomputes credits - debits from the ledger
	// entries. Divergence from the materialized balance is surfaced as a
	// ConsistencyMismatch, never corrected.
	GetAggregatedBalance(ctx context.Context, ownerID uuid.UUID) (int64, error)
	ListTransactions(ctx context.Context, ownerID uuid.UUID, typeFilter *domain.TransactionType) ([]domain.Transaction, error)
	// ProvisionWallet is the internal service-to-service entry point.
	ProvisionWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
}

// RegisterRequest is the input for user registration.
type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User   *domain.User
	Token  string
	Expiry time.Time
}

// AuthService handles registration and login. Registration provisions a
// wallet best-effort through the resilience wrapper; a provisioning failure
// never fails user creation.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// UpdateUserRequest carries optional profile updates.
type UpdateUserRequest struct {
	Email     *string
	Password  *string
	FirstName *string
	LastName  *string
}

// UserService handles profile management.
type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// WalletProvisioner is the outbound wallet-provisioning call made during
// registration (HTTP in production, wrapped by the resilience executor).
type WalletProvisioner interface {
	CreateWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error)
}

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations for both user-facing and
// internal service-to-service authentication.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (uuid.UUID, error)
	GenerateInternal() (string, error)
	ValidateInternal(tokenString string) error
}

// IdempotencyCache is the Redis-layer replay check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. The unique constraint on owner_id turns a
// concurrent or repeated provisioning attempt into a WalletAlreadyExists
// conflict rather than a second row.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, w.ID, w.OwnerID, w.Balance, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrWalletAlreadyExists()
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByOwnerID fetches a wallet by its owner (non-locking read).
func (r *WalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_id, balance, created_at, updated_at
		FROM wallets WHERE owner_id = $1`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(
		&w.ID, &w.OwnerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet by owner id: %w", err)
	}
	return w, nil
}

// FindOrCreateForUpdate resolves the owner's wallet inside tx, creating a
// zero-balance row if absent, and locks it for the remainder of the unit.
// ON CONFLICT DO NOTHING makes concurrent first transactions for the same
// owner converge on a single row; the follow-up SELECT ... FOR UPDATE then
// serializes them. This MUST be called within a transaction.
func (r *WalletRepo) FindOrCreateForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	now := time.Now().UTC()
	insert := `INSERT INTO wallets (id, owner_id, balance, created_at, updated_at)
		VALUES ($1, $2, 0, $3, $3)
		ON CONFLICT (owner_id) DO NOTHING`

	if _, err := tx.Exec(ctx, insert, uuid.New(), ownerID, now); err != nil {
		return nil, fmt.Errorf("upsert wallet: %w", err)
	}

	query := `SELECT id, owner_id, balance, created_at, updated_at
		FROM wallets WHERE owner_id = $1 FOR UPDATE`

	w := &domain.Wallet{}
	err := tx.QueryRow(ctx, query, ownerID).Scan(
		&w.ID, &w.OwnerID, &w.Balance, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("lock wallet for owner: %w", err)
	}
	return w, nil
}

// UpdateBalance sets a wallet's materialized balance within a transaction.
// The caller must already hold the row lock from FindOrCreateForUpdate.
func (r *WalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error {
	query := `UPDATE wallets SET balance = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, newBalance, walletID)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

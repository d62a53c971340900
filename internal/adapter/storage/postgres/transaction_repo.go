package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TransactionRepo implements ports.TransactionRepository.
type TransactionRepo struct {
	pool Pool
}

// NewTransactionRepo creates a new TransactionRepo.
func NewTransactionRepo(pool Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

// Create inserts an immutable ledger entry within a database transaction.
// A unique violation on idempotency_key is translated to a DuplicateRequest
// so the caller can read back and return the winner's record.
func (r *TransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	query := `INSERT INTO transactions (id, wallet_id, amount, type, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, t.ID, t.WalletID, t.Amount, t.Type, t.IdempotencyKey, t.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.New(apperror.KindDuplicateRequest, "LDG_005",
				"Transaction with this idempotency key already committed", 409)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByIdempotencyKey fetches a committed transaction by key (pool read,
// used for the optimistic replay check outside the atomic unit).
func (r *TransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	query := `SELECT id, wallet_id, amount, type, idempotency_key, created_at
		FROM transactions WHERE idempotency_key = $1`

	return scanTransaction(r.pool.QueryRow(ctx, query, key))
}

// GetByIdempotencyKeyTx re-checks the key inside the unit of work, closing
// the race window between concurrent identical requests.
func (r *TransactionRepo) GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Transaction, error) {
	query := `SELECT id, wallet_id, amount, type, idempotency_key, created_at
		FROM transactions WHERE idempotency_key = $1`

	return scanTransaction(tx.QueryRow(ctx, query, key))
}

// ListByWalletID returns the wallet's ledger entries newest first, optionally
// filtered to one type.
func (r *TransactionRepo) ListByWalletID(ctx context.Context, walletID uuid.UUID, typeFilter *domain.TransactionType) ([]domain.Transaction, error) {
	query := `SELECT id, wallet_id, amount, type, idempotency_key, created_at
		FROM transactions WHERE wallet_id = $1`
	args := []any{walletID}

	if typeFilter != nil {
		query += ` AND type = $2`
		args = append(args, *typeFilter)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t := domain.Transaction{}
		err := rows.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Type, &t.IdempotencyKey, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}

// SumByType returns the credit and debit totals for a wallet in one grouped
// aggregate, for the audit-only reconciliation view.
func (r *TransactionRepo) SumByType(ctx context.Context, walletID uuid.UUID) (int64, int64, error) {
	query := `SELECT
		COALESCE(SUM(amount) FILTER (WHERE type = 'CREDIT'), 0) AS credits,
		COALESCE(SUM(amount) FILTER (WHERE type = 'DEBIT'), 0) AS debits
		FROM transactions WHERE wallet_id = $1`

	var credits, debits int64
	err := r.pool.QueryRow(ctx, query, walletID).Scan(&credits, &debits)
	if err != nil {
		return 0, 0, fmt.Errorf("sum transactions by type: %w", err)
	}
	return credits, debits, nil
}

// scanTransaction is a helper to scan a single row into a Transaction.
func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(&t.ID, &t.WalletID, &t.Amount, &t.Type, &t.IdempotencyKey, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return t, nil
}

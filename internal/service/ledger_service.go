package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// LedgerServiceImpl implements ports.LedgerService.
type LedgerServiceImpl struct {
	txRepo     ports.TransactionRepository
	walletRepo ports.WalletRepository
	idempCache ports.IdempotencyCache
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewLedgerService creates a new LedgerServiceImpl.
func NewLedgerService(
	txRepo ports.TransactionRepository,
	walletRepo ports.WalletRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		txRepo:     txRepo,
		walletRepo: walletRepo,
		idempCache: idempCache,
		transactor: transactor,
		log:        log,
	}
}

// CreateTransaction appends a CREDIT or DEBIT entry and moves the
// materialized balance in one atomic unit. The wallet row is locked for the
// whole unit, so concurrent entries against the same wallet serialize and
// every balance check sees the latest committed state.
func (s *LedgerServiceImpl) CreateTransaction(ctx context.Context, req ports.CreateTransactionRequest) (*domain.Transaction, error) {
	if req.Amount <= 0 {
		return nil, apperror.Validation("amount must be a positive integer")
	}
	if !req.Type.IsValid() {
		return nil, apperror.Validation("type must be CREDIT or DEBIT")
	}
	if req.IdempotencyKey != nil && *req.IdempotencyKey == "" {
		return nil, apperror.Validation("idempotency key must not be empty")
	}

	// Layer 1: Redis idempotency check
	if req.IdempotencyKey != nil {
		cached, err := s.idempCache.Get(ctx, *req.IdempotencyKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", *req.IdempotencyKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return s.unmarshalCachedTransaction(cached)
		}

		// Layer 2: DB idempotency check
		existing, err := s.txRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if existing != nil {
			return existing, nil
		}
	}

	var txn *domain.Transaction
	err := s.transactor.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		// Re-check the key inside the unit: a concurrent identical request
		// may have committed between the fast-path check and our lock.
		if req.IdempotencyKey != nil {
			committed, err := s.txRepo.GetByIdempotencyKeyTx(ctx, tx, *req.IdempotencyKey)
			if err != nil {
				return apperror.InternalError(fmt.Errorf("in-tx idempotency check: %w", err))
			}
			if committed != nil {
				txn = committed
				return nil
			}
		}

		// Lock (or create) the owner's wallet
		wallet, err := s.walletRepo.FindOrCreateForUpdate(ctx, tx, req.OwnerID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}

		// Business rule: a debit never overdraws
		if req.Type == domain.TransactionTypeDebit && !wallet.CanDebit(req.Amount) {
			return apperror.ErrInsufficientFunds()
		}

		newBalance := wallet.Balance + req.Type.Delta(req.Amount)

		entry := &domain.Transaction{
			ID:             uuid.New(),
			WalletID:       wallet.ID,
			Amount:         req.Amount,
			Type:           req.Type,
			IdempotencyKey: req.IdempotencyKey,
			CreatedAt:      time.Now().UTC(),
		}

		// Persist: append ledger entry (the unique index on idempotency_key
		// is the last line of defense against a concurrent duplicate)
		if err := s.txRepo.Create(ctx, tx, entry); err != nil {
			return err
		}

		// Persist: move the materialized balance
		if err := s.walletRepo.UpdateBalance(ctx, tx, wallet.ID, newBalance); err != nil {
			return apperror.InternalError(fmt.Errorf("update balance: %w", err))
		}

		txn = entry
		return nil
	})
	if err != nil {
		// A concurrent identical request won the insert race. Its unit has
		// committed (we held no lock on its row), so read back the winner.
		if apperror.IsKind(err, apperror.KindDuplicateRequest) && req.IdempotencyKey != nil {
			winner, lookupErr := s.txRepo.GetByIdempotencyKey(ctx, *req.IdempotencyKey)
			if lookupErr == nil && winner != nil {
				return winner, nil
			}
		}
		return nil, err
	}

	// Post-process: cache in Redis (best-effort)
	if req.IdempotencyKey != nil {
		if respJSON, mErr := json.Marshal(txn); mErr == nil {
			if cErr := s.idempCache.Set(ctx, *req.IdempotencyKey, respJSON, idempotencyTTL); cErr != nil {
				s.log.Warn().Err(cErr).Str("key", *req.IdempotencyKey).Msg("failed to cache idempotency in redis")
			}
		}
	}

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("wallet_id", txn.WalletID.String()).
		Str("type", string(txn.Type)).
		Int64("amount", txn.Amount).
		Msg("ledger entry committed")

	return txn, nil
}

// GetBalance returns the materialized balance (O(1) read).
func (s *LedgerServiceImpl) GetBalance(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrWalletNotFound()
	}
	return wallet.Balance, nil
}

// GetAggregatedBalance recomputes the balance from the ledger entries and
// cross-checks it against the materialized column. A divergence means the
// ledger invariant was violated somewhere; it is reported, never repaired.
func (s *LedgerServiceImpl) GetAggregatedBalance(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return 0, apperror.ErrWalletNotFound()
	}

	credits, debits, err := s.txRepo.SumByType(ctx, wallet.ID)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("aggregate ledger: %w", err))
	}
	aggregated := credits - debits

	if aggregated != wallet.Balance {
		s.log.Error().
			Str("wallet_id", wallet.ID.String()).
			Int64("materialized", wallet.Balance).
			Int64("aggregated", aggregated).
			Msg("materialized balance diverged from ledger")
		return 0, apperror.ErrConsistencyMismatch(wallet.Balance, aggregated)
	}

	return aggregated, nil
}

// ListTransactions returns the owner's ledger entries newest first.
func (s *LedgerServiceImpl) ListTransactions(ctx context.Context, ownerID uuid.UUID, typeFilter *domain.TransactionType) ([]domain.Transaction, error) {
	if typeFilter != nil && !typeFilter.IsValid() {
		return nil, apperror.Validation("type filter must be CREDIT or DEBIT")
	}

	wallet, err := s.walletRepo.GetByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	txns, err := s.txRepo.ListByWalletID(ctx, wallet.ID, typeFilter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, nil
}

// ProvisionWallet creates a zero-balance wallet for ownerID. Conflicts
// surface as WalletAlreadyExists so callers can treat replays as settled.
func (s *LedgerServiceImpl) ProvisionWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	now := time.Now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet_id", wallet.ID.String()).
		Str("owner_id", ownerID.String()).
		Msg("wallet provisioned")

	return wallet, nil
}

// unmarshalCachedTransaction deserializes a cached transaction.
func (s *LedgerServiceImpl) unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached tx: %w", err))
	}
	return txn, nil
}

package integration

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory User Repo ---

type inMemoryUserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func newInMemoryUserRepo() *inMemoryUserRepo {
	return &inMemoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *inMemoryUserRepo) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.ErrEmailTaken()
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *inMemoryUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryUserRepo) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return apperror.ErrUserNotFound()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *inMemoryUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return apperror.ErrUserNotFound()
	}
	delete(r.users, id)
	return nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu      sync.RWMutex
	wallets map[uuid.UUID]*domain.Wallet
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{wallets: make(map[uuid.UUID]*domain.Wallet)}
}

func (r *inMemoryWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.wallets {
		if existing.OwnerID == w.OwnerID {
			return apperror.ErrWalletAlreadyExists()
		}
	}
	cp := *w
	r.wallets[w.ID] = &cp
	return nil
}

func (r *inMemoryWalletRepo) GetByOwnerID(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.wallets {
		if w.OwnerID == ownerID {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

// FindOrCreateForUpdate relies on the transactor's serialization: the global
// unit-of-work lock is held while this runs, standing in for the row lock the
// real implementation takes.
func (r *inMemoryWalletRepo) FindOrCreateForUpdate(ctx context.Context, tx pgx.Tx, ownerID uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.wallets {
		if w.OwnerID == ownerID {
			cp := *w
			return &cp, nil
		}
	}
	now := time.Now().UTC()
	w := &domain.Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.wallets[w.ID] = w
	cp := *w
	return &cp, nil
}

func (r *inMemoryWalletRepo) UpdateBalance(ctx context.Context, tx pgx.Tx, walletID uuid.UUID, newBalance int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[walletID]
	if !ok {
		return apperror.ErrWalletNotFound()
	}
	w.Balance = newBalance
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// --- In-Memory Transaction Repo ---

type inMemoryTransactionRepo struct {
	mu      sync.RWMutex
	entries []*domain.Transaction
}

func newInMemoryTransactionRepo() *inMemoryTransactionRepo {
	return &inMemoryTransactionRepo{}
}

func (r *inMemoryTransactionRepo) Create(ctx context.Context, tx pgx.Tx, t *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.IdempotencyKey != nil {
		for _, existing := range r.entries {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *t.IdempotencyKey {
				return apperror.New(apperror.KindDuplicateRequest, "LDG_005",
					"Duplicate request", http.StatusConflict)
			}
		}
	}
	cp := *t
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *inMemoryTransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByKeyLocked(key), nil
}

func (r *inMemoryTransactionRepo) GetByIdempotencyKeyTx(ctx context.Context, tx pgx.Tx, key string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.findByKeyLocked(key), nil
}

func (r *inMemoryTransactionRepo) findByKeyLocked(key string) *domain.Transaction {
	for _, t := range r.entries {
		if t.IdempotencyKey != nil && *t.IdempotencyKey == key {
			cp := *t
			return &cp
		}
	}
	return nil
}

func (r *inMemoryTransactionRepo) ListByWalletID(ctx context.Context, walletID uuid.UUID, typeFilter *domain.TransactionType) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transaction
	for _, t := range r.entries {
		if t.WalletID != walletID {
			continue
		}
		if typeFilter != nil && t.Type != *typeFilter {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *inMemoryTransactionRepo) SumByType(ctx context.Context, walletID uuid.UUID) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var credits, debits int64
	for _, t := range r.entries {
		if t.WalletID != walletID {
			continue
		}
		switch t.Type {
		case domain.TransactionTypeCredit:
			credits += t.Amount
		case domain.TransactionTypeDebit:
			debits += t.Amount
		}
	}
	return credits, debits, nil
}

// --- In-Memory Transactor ---

// inMemoryTransactor serializes all units of work behind one mutex. That is
// coarser than the per-row locks the PostgreSQL implementation takes, but it
// gives the same observable guarantee the ledger depends on: two units
// touching the same wallet never interleave.
type inMemoryTransactor struct {
	mu sync.Mutex
}

func newInMemoryTransactor() *inMemoryTransactor {
	return &inMemoryTransactor{}
}

func (t *inMemoryTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, &noopTx{})
}

// --- In-Memory Idempotency Cache ---

type inMemoryIdempotencyCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newInMemoryIdempotencyCache() *inMemoryIdempotencyCache {
	return &inMemoryIdempotencyCache{entries: make(map[string][]byte)}
}

func (c *inMemoryIdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (c *inMemoryIdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }

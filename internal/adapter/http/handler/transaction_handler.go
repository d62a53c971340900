package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/adapter/http/middleware"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles ledger endpoints.
type TransactionHandler struct {
	ledgerSvc ports.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerSvc ports.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerSvc: ledgerSvc}
}

// Create handles POST /api/v1/transactions.
func (h *TransactionHandler) Create(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	var idempKey *string
	if key := c.GetHeader(middleware.HeaderIdempotencyKey); key != "" {
		idempKey = &key
	}

	txn, err := h.ledgerSvc.CreateTransaction(c.Request.Context(), ports.CreateTransactionRequest{
		OwnerID:        userID.(uuid.UUID),
		Amount:         req.Amount,
		Type:           domain.TransactionType(req.Type),
		IdempotencyKey: idempKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(txn))
}

// List handles GET /api/v1/transactions?type=CREDIT|DEBIT.
func (h *TransactionHandler) List(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var typeFilter *domain.TransactionType
	if raw := c.Query("type"); raw != "" {
		t := domain.TransactionType(raw)
		typeFilter = &t
	}

	txns, err := h.ledgerSvc.ListTransactions(c.Request.Context(), userID.(uuid.UUID), typeFilter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(txns))
	for i := range txns {
		items = append(items, toTransactionResponse(&txns[i]))
	}

	response.OK(c, items)
}

// GetBalance handles GET /api/v1/balance (materialized, O(1)).
func (h *TransactionHandler) GetBalance(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	balance, err := h.ledgerSvc.GetBalance(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{Balance: balance, Source: "materialized"})
}

// GetBalanceAudit handles GET /api/v1/balance/audit (recomputed from the
// ledger and cross-checked against the materialized column).
func (h *TransactionHandler) GetBalanceAudit(c *gin.Context) {
	userID, ok := c.Get(middleware.CtxUserID)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	balance, err := h.ledgerSvc.GetAggregatedBalance(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{Balance: balance, Source: "aggregated"})
}

// toTransactionResponse converts domain.Transaction to DTO.
func toTransactionResponse(tx *domain.Transaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:             tx.ID.String(),
		WalletID:       tx.WalletID.String(),
		Amount:         tx.Amount,
		Type:           string(tx.Type),
		IdempotencyKey: tx.IdempotencyKey,
		CreatedAt:      tx.CreatedAt.Format(time.RFC3339),
	}
}

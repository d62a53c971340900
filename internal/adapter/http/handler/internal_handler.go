package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InternalHandler handles service-to-service endpoints.
type InternalHandler struct {
	ledgerSvc ports.LedgerService
}

// NewInternalHandler creates a new InternalHandler.
func NewInternalHandler(ledgerSvc ports.LedgerService) *InternalHandler {
	return &InternalHandler{ledgerSvc: ledgerSvc}
}

// ProvisionWallet handles POST /internal/wallets.
func (h *InternalHandler) ProvisionWallet(c *gin.Context) {
	var req dto.ProvisionWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ownerID, err := uuid.Parse(req.OwnerID)
	if err != nil {
		response.Error(c, apperror.Validation("owner_id must be a UUID"))
		return
	}

	wallet, err := h.ledgerSvc.ProvisionWallet(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(wallet))
}

func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:        w.ID.String(),
		OwnerID:   w.OwnerID.String(),
		Balance:   w.Balance,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/resilience"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const dependencyName = "wallet-provisioner"

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// WalletClient calls the internal wallet provisioning endpoint. It implements
// ports.WalletProvisioner; transport failures and 5xx responses come back as
// DownstreamFailure so the resilience layer can classify them.
type WalletClient struct {
	baseURL    string
	httpClient HTTPClient
	tokenSvc   ports.TokenService
	log        zerolog.Logger
}

// NewWalletClient creates a new WalletClient.
func NewWalletClient(baseURL string, httpClient HTTPClient, tokenSvc ports.TokenService, log zerolog.Logger) *WalletClient {
	return &WalletClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		tokenSvc:   tokenSvc,
		log:        log,
	}
}

type createWalletRequest struct {
	OwnerID uuid.UUID `json:"owner_id"`
}

type createWalletResponse struct {
	Data *domain.Wallet `json:"data"`
}

// CreateWallet provisions a wallet for ownerID over HTTP. A 409 means a
// wallet already exists; the caller decides whether that settles the request.
func (c *WalletClient) CreateWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	body, err := json.Marshal(createWalletRequest{OwnerID: ownerID})
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal provisioning request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/wallets", bytes.NewReader(body))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("build provisioning request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokenSvc.GenerateInternal()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("mint internal token: %w", err))
	}
	req.Header.Set("X-Internal-Token", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.ErrDownstreamFailure(dependencyName, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusCreated:
		var out createWalletResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Data == nil {
			return nil, apperror.ErrDownstreamFailure(dependencyName, fmt.Errorf("malformed provisioning response: %w", err))
		}
		return out.Data, nil

	case resp.StatusCode == http.StatusConflict:
		return nil, apperror.ErrWalletAlreadyExists()

	case resp.StatusCode >= 500:
		return nil, apperror.ErrDownstreamFailure(dependencyName, fmt.Errorf("provisioning returned %d", resp.StatusCode))

	default:
		// Client-class response: our request was understood and rejected,
		// retrying an identical call cannot change the outcome.
		return nil, apperror.New(apperror.KindValidation, "RES_003",
			fmt.Sprintf("provisioning rejected with status %d", resp.StatusCode), resp.StatusCode)
	}
}

// ResilientProvisioner decorates a WalletProvisioner with a circuit breaker
// and bounded retry so registration degrades gracefully when the wallet
// endpoint is slow or down.
type ResilientProvisioner struct {
	inner ports.WalletProvisioner
	exec  *resilience.Executor
}

// NewResilientProvisioner wraps inner with the given executor.
func NewResilientProvisioner(inner ports.WalletProvisioner, exec *resilience.Executor) *ResilientProvisioner {
	return &ResilientProvisioner{inner: inner, exec: exec}
}

// CreateWallet runs the provisioning call under the resilience policy.
func (p *ResilientProvisioner) CreateWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	var wallet *domain.Wallet
	err := p.exec.Execute(ctx, func(ctx context.Context) error {
		var callErr error
		wallet, callErr = p.inner.CreateWallet(ctx, ownerID)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

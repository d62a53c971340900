package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wallet-ledger/internal/adapter/client"
	httpHandler "wallet-ledger/internal/adapter/http/handler"
	redisStorage "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/service"
	"wallet-ledger/pkg/logger"
	"wallet-ledger/pkg/resilience"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds a full application stack on in-memory storage: miniredis
// behind the real idempotency cache, in-memory repos behind the real
// services, and the real HTTP layer on top. Provisioning during registration
// goes through the real resilience executor; only the HTTP hop to the
// provisioning endpoint is replaced by an in-process call.

type testApp struct {
	server   *httptest.Server
	redis    *miniredis.Miniredis
	tokenSvc ports.TokenService
}

// ledgerProvisioner provisions wallets through the ledger service directly.
// Production wires the HTTP wallet client here instead.
type ledgerProvisioner struct {
	ledger ports.LedgerService
}

func (p *ledgerProvisioner) CreateWallet(ctx context.Context, ownerID uuid.UUID) (*domain.Wallet, error) {
	return p.ledger.ProvisionWallet(ctx, ownerID)
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	// Start miniredis
	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	idempotencyCache := redisStorage.NewIdempotencyCache(rdb)

	// In-memory repos
	userRepo := newInMemoryUserRepo()
	walletRepo := newInMemoryWalletRepo()
	txRepo := newInMemoryTransactionRepo()
	transactor := newInMemoryTransactor()

	log := logger.New("wallet-ledger", "debug", false)

	// Core services with real implementations
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService("test-jwt-secret-key-32bytes!!", "test-internal-secret", 24*time.Hour, "test-issuer")

	// Business services
	ledgerSvc := service.NewLedgerService(txRepo, walletRepo, idempotencyCache, transactor, log)

	exec := resilience.NewExecutor("wallet-provisioner", resilience.Config{
		FailureThreshold: 3,
		ResetTimeout:     100 * time.Millisecond,
		MaxRetries:       2,
		BaseDelay:        time.Millisecond,
		BackoffFactor:    2.0,
		AttemptTimeout:   time.Second,
	}, log)
	provisioner := client.NewResilientProvisioner(&ledgerProvisioner{ledger: ledgerSvc}, exec)

	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc, provisioner, log)
	userSvc := service.NewUserService(userRepo, hashSvc, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:   authSvc,
		LedgerSvc: ledgerSvc,
		UserSvc:   userSvc,
		TokenSvc:  tokenSvc,
		Logger:    log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:   server,
		redis:    mr,
		tokenSvc: tokenSvc,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIntegration_RegisterProvisionsWallet(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	regBody, _ := json.Marshal(map[string]string{
		"email":      "alice@example.com",
		"password":   "StrongPass123!",
		"first_name": "Alice",
		"last_name":  "Nguyen",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var regResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&regResp))
	data := regResp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	user := data["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])

	// Registration provisioned a wallet: balance reads back zero, not 404.
	token := data["token"].(string)
	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/balance", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	respBal, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer respBal.Body.Close()

	assert.Equal(t, http.StatusOK, respBal.StatusCode)
	var balResp map[string]interface{}
	require.NoError(t, json.NewDecoder(respBal.Body).Decode(&balResp))
	balData := balResp["data"].(map[string]interface{})
	assert.Equal(t, float64(0), balData["balance"])
	assert.Equal(t, "materialized", balData["source"])
}

func TestIntegration_LoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	registerUser(t, app, "bob@example.com")

	loginBody, _ := json.Marshal(map[string]string{
		"email":    "bob@example.com",
		"password": "wrong-password",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	regBody, _ := json.Marshal(map[string]string{
		"email":    "carol@example.com",
		"password": "StrongPass123!",
	})

	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp2, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)

	var errResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&errResp))
	assert.Equal(t, "AUTH_002", errResp["error_code"])
}

func TestIntegration_CreditDebitBalance(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerUser(t, app, "dave@example.com")

	createTransaction(t, app, token, 1000, "CREDIT", "")
	createTransaction(t, app, token, 400, "DEBIT", "")

	assert.Equal(t, int64(600), getBalance(t, app, token, "/api/v1/balance"))

	// The audited balance recomputes from the entries and agrees.
	assert.Equal(t, int64(600), getBalance(t, app, token, "/api/v1/balance/audit"))
}

func TestIntegration_DebitInsufficientFunds(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerUser(t, app, "erin@example.com")
	createTransaction(t, app, token, 100, "CREDIT", "")

	body, _ := json.Marshal(map[string]interface{}{"amount": int64(101), "type": "DEBIT"})
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/transactions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "LDG_001", errResp["error_code"])

	// The failed debit left no entry and no balance change.
	assert.Equal(t, int64(100), getBalance(t, app, token, "/api/v1/balance"))
}

func TestIntegration_IdempotentReplay(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerUser(t, app, "frank@example.com")

	first := createTransaction(t, app, token, 500, "CREDIT", "topup-2026-08-001")
	replay := createTransaction(t, app, token, 500, "CREDIT", "topup-2026-08-001")

	assert.Equal(t, first["id"], replay["id"])
	assert.Equal(t, int64(500), getBalance(t, app, token, "/api/v1/balance"))
}

func TestIntegration_ListTransactionsFiltered(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerUser(t, app, "grace@example.com")
	createTransaction(t, app, token, 1000, "CREDIT", "")
	createTransaction(t, app, token, 300, "DEBIT", "")
	createTransaction(t, app, token, 200, "DEBIT", "")

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/transactions?type=DEBIT", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	entries := body["data"].([]interface{})
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "DEBIT", e.(map[string]interface{})["type"])
	}
}

func TestIntegration_UserProfile(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	token := registerUser(t, app, "heidi@example.com")

	// Update name
	updBody, _ := json.Marshal(map[string]string{"first_name": "Heidi"})
	reqUpd, _ := http.NewRequest(http.MethodPut, app.server.URL+"/api/v1/users/me", bytes.NewReader(updBody))
	reqUpd.Header.Set("Content-Type", "application/json")
	reqUpd.Header.Set("Authorization", "Bearer "+token)
	respUpd, err := http.DefaultClient.Do(reqUpd)
	require.NoError(t, err)
	respUpd.Body.Close()
	assert.Equal(t, http.StatusOK, respUpd.StatusCode)

	// Read back
	reqGet, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/users/me", nil)
	reqGet.Header.Set("Authorization", "Bearer "+token)
	respGet, err := http.DefaultClient.Do(reqGet)
	require.NoError(t, err)
	defer respGet.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(respGet.Body).Decode(&body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Heidi", data["first_name"])
}

func TestIntegration_InternalProvisionEndpoint(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	internalToken, err := app.tokenSvc.GenerateInternal()
	require.NoError(t, err)

	ownerID := uuid.New()
	body, _ := json.Marshal(map[string]string{"owner_id": ownerID.String()})

	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/internal/wallets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Token", internalToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var provResp map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&provResp))
	data := provResp["data"].(map[string]interface{})
	assert.Equal(t, ownerID.String(), data["owner_id"])
	assert.Equal(t, float64(0), data["balance"])

	// Provisioning twice for the same owner conflicts.
	req2, _ := http.NewRequest(http.MethodPost, app.server.URL+"/internal/wallets", bytes.NewReader(body))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("X-Internal-Token", internalToken)
	resp2, err := http.DefaultClient.Do(req2)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusConflict, resp2.StatusCode)
}

func TestIntegration_InternalEndpointRejectsUserToken(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	userToken := registerUser(t, app, "mallory@example.com")

	body, _ := json.Marshal(map[string]string{"owner_id": uuid.New().String()})
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/internal/wallets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Token", userToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIntegration_Unauthorized(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	req, _ := http.NewRequest(http.MethodGet, app.server.URL+"/api/v1/balance", nil)
	// No Authorization header
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// --- Helpers ---

func registerUser(t *testing.T, app *testApp, email string) string {
	t.Helper()
	regBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": "StrongPass123!",
	})
	resp, err := http.Post(app.server.URL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	require.NoError(t, err)
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "register response: %s", string(bodyBytes))

	var regResp map[string]interface{}
	require.NoError(t, json.Unmarshal(bodyBytes, &regResp))
	data := regResp["data"].(map[string]interface{})
	return data["token"].(string)
}

func createTransaction(t *testing.T, app *testApp, token string, amount int64, txType, idempotencyKey string) map[string]interface{} {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{"amount": amount, "type": txType})
	req, _ := http.NewRequest(http.MethodPost, app.server.URL+"/api/v1/transactions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "transaction response: %s", string(bodyBytes))

	var txResp map[string]interface{}
	require.NoError(t, json.Unmarshal(bodyBytes, &txResp))
	return txResp["data"].(map[string]interface{})
}

func getBalance(t *testing.T, app *testApp, token, path string) int64 {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, app.server.URL+path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	data := body["data"].(map[string]interface{})
	return int64(data["balance"].(float64))
}

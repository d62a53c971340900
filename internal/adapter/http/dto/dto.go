package dto

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is the response body for register and login.
type AuthResponse struct {
	User   UserResponse `json:"user"`
	Token  string       `json:"token"`
	Expiry int64        `json:"expiry"` // Unix timestamp
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CreatedAt string `json:"created_at"`
}

// UpdateUserRequest is the request body for profile updates.
type UpdateUserRequest struct {
	Email     *string `json:"email,omitempty" binding:"omitempty,email,max=254"`
	Password  *string `json:"password,omitempty" binding:"omitempty,min=8,max=128"`
	FirstName *string `json:"first_name,omitempty" binding:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" binding:"omitempty,max=100"`
}

// CreateTransactionRequest is the request body for a ledger entry. The
// idempotency key travels in the Idempotency-Key header, not the body.
type CreateTransactionRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Type   string `json:"type" binding:"required,oneof=CREDIT DEBIT"`
}

// TransactionResponse is the response body for ledger entries.
type TransactionResponse struct {
	ID             string  `json:"id"`
	WalletID       string  `json:"wallet_id"`
	Amount         int64   `json:"amount"`
	Type           string  `json:"type"`
	IdempotencyKey *string `json:"idempotency_key,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// BalanceResponse is the response for balance queries. Source says which
// path produced the figure: "materialized" or "aggregated".
type BalanceResponse struct {
	Balance int64  `json:"balance"`
	Source  string `json:"source"`
}

// ProvisionWalletRequest is the request body for internal wallet provisioning.
type ProvisionWalletRequest struct {
	OwnerID string `json:"owner_id" binding:"required,uuid"`
}

// WalletResponse is the response body for wallet provisioning.
type WalletResponse struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	Balance   int64  `json:"balance"`
	CreatedAt string `json:"created_at"`
}

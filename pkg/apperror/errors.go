package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable discriminant for an AppError. Callers branch
// on Kind, never on message text.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindWalletNotFound
	KindInsufficientFunds
	KindDuplicateRequest
	KindWalletAlreadyExists
	KindUserNotFound
	KindEmailTaken
	KindInvalidCredentials
	KindInvalidToken
	KindCircuitOpen
	KindDownstreamFailure
	KindConsistencyMismatch
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindWalletNotFound:
		return "WALLET_NOT_FOUND"
	case KindInsufficientFunds:
		return "INSUFFICIENT_FUNDS"
	case KindDuplicateRequest:
		return "DUPLICATE_REQUEST"
	case KindWalletAlreadyExists:
		return "WALLET_ALREADY_EXISTS"
	case KindUserNotFound:
		return "USER_NOT_FOUND"
	case KindEmailTaken:
		return "EMAIL_TAKEN"
	case KindInvalidCredentials:
		return "INVALID_CREDENTIALS"
	case KindInvalidToken:
		return "INVALID_TOKEN"
	case KindCircuitOpen:
		return "CIRCUIT_OPEN"
	case KindDownstreamFailure:
		return "DOWNSTREAM_FAILURE"
	case KindConsistencyMismatch:
		return "CONSISTENCY_MISMATCH"
	default:
		return "INTERNAL"
	}
}

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Kind       Kind   `json:"-"`
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(kind Kind, code string, message string, httpStatus int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// KindOf extracts the Kind from err, or KindInternal if err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// ---- Ledger Business Logic (LDG) ----

func ErrInsufficientFunds() *AppError {
	return New(KindInsufficientFunds, "LDG_001", "Insufficient funds", http.StatusBadRequest)
}

func ErrWalletNotFound() *AppError {
	return New(KindWalletNotFound, "LDG_002", "Wallet not found", http.StatusNotFound)
}

func ErrWalletAlreadyExists() *AppError {
	return New(KindWalletAlreadyExists, "LDG_003", "Wallet already exists for this owner", http.StatusConflict)
}

func ErrConsistencyMismatch(materialized, aggregated int64) *AppError {
	return New(KindConsistencyMismatch, "LDG_004",
		fmt.Sprintf("Balance mismatch: materialized=%d aggregated=%d", materialized, aggregated),
		http.StatusInternalServerError)
}

// ---- Validation (VAL) ----

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return New(KindValidation, "VAL_001", message, http.StatusBadRequest)
}

// ---- Users & Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New(KindInvalidCredentials, "AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrEmailTaken() *AppError {
	return New(KindEmailTaken, "AUTH_002", "Email already registered", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New(KindInvalidToken, "AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrUserNotFound() *AppError {
	return New(KindUserNotFound, "AUTH_004", "User not found", http.StatusNotFound)
}

// ---- Resilience (RES) ----

func ErrCircuitOpen(dependency string) *AppError {
	return New(KindCircuitOpen, "RES_001",
		fmt.Sprintf("Circuit breaker open for %s", dependency),
		http.StatusServiceUnavailable)
}

func ErrDownstreamFailure(dependency string, err error) *AppError {
	return Wrap(KindDownstreamFailure, "RES_002",
		fmt.Sprintf("Call to %s failed", dependency),
		http.StatusBadGateway, err)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(KindInternal, "SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap(KindInternal, "SYS_002", "Internal database error", http.StatusInternalServerError, err)
}

package service

import (
	"context"
	"fmt"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	userRepo    ports.UserRepository
	hashSvc     ports.HashService
	tokenSvc    ports.TokenService
	provisioner ports.WalletProvisioner
	log         zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl. The provisioner is expected
// to carry its own resilience policy; Register treats it as best-effort.
func NewAuthService(
	userRepo ports.UserRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	provisioner ports.WalletProvisioner,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		userRepo:    userRepo,
		hashSvc:     hashSvc,
		tokenSvc:    tokenSvc,
		provisioner: provisioner,
		log:         log,
	}
}

// Register creates a user account and provisions their wallet. The wallet
// call is best-effort: registration has already committed by the time it
// runs, so a provisioning failure is logged and the account is returned
// anyway. The ledger's find-or-create path heals the missing wallet on the
// user's first transaction.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, apperror.Validation("email and password are required")
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrEmailTaken()
	}

	passwordHash, err := s.hashSvc.Hash(req.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index on email closes the race with a concurrent signup.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// Best-effort wallet provisioning. AlreadyExists means a previous
	// attempt (or a concurrent one) won; either way the wallet is there.
	if _, err := s.provisioner.CreateWallet(ctx, user.ID); err != nil {
		if !apperror.IsKind(err, apperror.KindWalletAlreadyExists) {
			s.log.Error().Err(err).
				Str("user_id", user.ID.String()).
				Msg("wallet provisioning failed, account created without wallet")
		}
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Msg("user registered")

	return &ports.AuthResult{User: user, Token: token, Expiry: expiry}, nil
}

// Login validates credentials and returns a JWT token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		return nil, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(user.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return &ports.AuthResult{User: user, Token: token, Expiry: expiry}, nil
}

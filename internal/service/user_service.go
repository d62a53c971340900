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

// UserServiceImpl implements ports.UserService.
type UserServiceImpl struct {
	userRepo ports.UserRepository
	hashSvc  ports.HashService
	log      zerolog.Logger
}

// NewUserService creates a new UserServiceImpl.
func NewUserService(userRepo ports.UserRepository, hashSvc ports.HashService, log zerolog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		hashSvc:  hashSvc,
		log:      log,
	}
}

// GetByID fetches a user's profile.
func (s *UserServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}
	return user, nil
}

// Update applies the provided fields to a user's profile. A changed email
// must remain unique; a changed password is rehashed.
func (s *UserServiceImpl) Update(ctx context.Context, id uuid.UUID, req ports.UpdateUserRequest) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrUserNotFound()
	}

	if req.Email != nil && *req.Email != user.Email {
		taken, err := s.userRepo.GetByEmail(ctx, *req.Email)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
		}
		if taken != nil {
			return nil, apperror.ErrEmailTaken()
		}
		user.Email = *req.Email
	}

	if req.Password != nil {
		hash, err := s.hashSvc.Hash(*req.Password)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
		}
		user.PasswordHash = hash
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes a user account.
func (s *UserServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Str("user_id", id.String()).Msg("user deleted")
	return nil
}

package service

import (
	"context"
	"testing"
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/internal/core/ports/mocks"
	"wallet-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type authMocks struct {
	userRepo    *mocks.MockUserRepository
	hashSvc     *mocks.MockHashService
	tokenSvc    *mocks.MockTokenService
	provisioner *mocks.MockWalletProvisioner
}

func newAuthService(t *testing.T) (*AuthServiceImpl, authMocks) {
	ctrl := gomock.NewController(t)
	m := authMocks{
		userRepo:    mocks.NewMockUserRepository(ctrl),
		hashSvc:     mocks.NewMockHashService(ctrl),
		tokenSvc:    mocks.NewMockTokenService(ctrl),
		provisioner: mocks.NewMockWalletProvisioner(ctrl),
	}
	svc := NewAuthService(m.userRepo, m.hashSvc, m.tokenSvc, m.provisioner, zerolog.Nop())
	return svc, m
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, m := newAuthService(t)

	m.userRepo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").Return(nil, nil)
	m.hashSvc.EXPECT().Hash("s3cret").Return("$argon2id$...", nil)
	m.userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	m.provisioner.EXPECT().CreateWallet(gomock.Any(), gomock.Any()).
		Return(&domain.Wallet{ID: uuid.New()}, nil)
	m.tokenSvc.EXPECT().Generate(gomock.Any()).Return("token-abc", time.Now().Add(time.Hour), nil)

	result, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:     "alice@example.com",
		Password:  "s3cret",
		FirstName: "Alice",
		LastName:  "Nguyen",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, "token-abc", result.Token)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	svc, m := newAuthService(t)

	m.userRepo.EXPECT().GetByEmail(gomock.Any(), "bob@example.com").
		Return(&domain.User{ID: uuid.New(), Email: "bob@example.com"}, nil)

	_, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "bob@example.com",
		Password: "pw",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindEmailTaken))
}

func TestAuthService_Register_ProvisioningFailureDoesNotFailRegistration(t *testing.T) {
	svc, m := newAuthService(t)

	m.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.hashSvc.EXPECT().Hash(gomock.Any()).Return("$argon2id$...", nil)
	m.userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	m.provisioner.EXPECT().CreateWallet(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrCircuitOpen("wallet-provisioner"))
	m.tokenSvc.EXPECT().Generate(gomock.Any()).Return("token-def", time.Now().Add(time.Hour), nil)

	result, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "carol@example.com",
		Password: "pw",
	})
	require.NoError(t, err)
	assert.NotNil(t, result.User)
}

func TestAuthService_Register_WalletAlreadyExistsIsSettled(t *testing.T) {
	svc, m := newAuthService(t)

	m.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.hashSvc.EXPECT().Hash(gomock.Any()).Return("$argon2id$...", nil)
	m.userRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	m.provisioner.EXPECT().CreateWallet(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrWalletAlreadyExists())
	m.tokenSvc.EXPECT().Generate(gomock.Any()).Return("token-ghi", time.Now().Add(time.Hour), nil)

	_, err := svc.Register(context.Background(), ports.RegisterRequest{
		Email:    "dave@example.com",
		Password: "pw",
	})
	assert.NoError(t, err)
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), ports.RegisterRequest{Email: "", Password: ""})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, m := newAuthService(t)

	userID := uuid.New()
	m.userRepo.EXPECT().GetByEmail(gomock.Any(), "alice@example.com").
		Return(&domain.User{ID: userID, Email: "alice@example.com", PasswordHash: "hash"}, nil)
	m.hashSvc.EXPECT().Verify("s3cret", "hash").Return(true, nil)
	m.tokenSvc.EXPECT().Generate(userID).Return("token-jkl", time.Now().Add(time.Hour), nil)

	result, err := svc.Login(context.Background(), "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, userID, result.User.ID)
	assert.Equal(t, "token-jkl", result.Token)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc, m := newAuthService(t)

	m.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).Return(nil, nil)

	_, err := svc.Login(context.Background(), "ghost@example.com", "pw")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidCredentials))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, m := newAuthService(t)

	m.userRepo.EXPECT().GetByEmail(gomock.Any(), gomock.Any()).
		Return(&domain.User{ID: uuid.New(), PasswordHash: "hash"}, nil)
	m.hashSvc.EXPECT().Verify("wrong", "hash").Return(false, nil)

	_, err := svc.Login(context.Background(), "alice@example.com", "wrong")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidCredentials))
}

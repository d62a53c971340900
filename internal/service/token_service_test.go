package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService() *JWTTokenService {
	return NewJWTTokenService("user-secret-0123456789", "internal-secret-0123456789", time.Hour, "wallet-ledger")
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc := newTokenService()
	userID := uuid.New()

	token, expiry, err := svc.Generate(userID)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, 5*time.Second)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestTokenService_Validate_WrongSecret(t *testing.T) {
	svc := newTokenService()
	other := NewJWTTokenService("different-secret", "internal-secret-0123456789", time.Hour, "wallet-ledger")

	token, _, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenService_Validate_Garbage(t *testing.T) {
	svc := newTokenService()

	_, err := svc.Validate("not.a.jwt")
	assert.Error(t, err)
}

func TestTokenService_Validate_Expired(t *testing.T) {
	svc := NewJWTTokenService("user-secret-0123456789", "internal-secret-0123456789", -time.Minute, "wallet-ledger")

	token, _, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestTokenService_InternalToken(t *testing.T) {
	svc := newTokenService()

	token, err := svc.GenerateInternal()
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateInternal(token))
}

func TestTokenService_InternalToken_RejectsUserToken(t *testing.T) {
	svc := newTokenService()

	// A user token is signed with the user secret and lacks the internal
	// scope; it must not pass the internal check.
	userToken, _, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	assert.Error(t, svc.ValidateInternal(userToken))
}

func TestTokenService_UserValidateRejectsInternalToken(t *testing.T) {
	svc := newTokenService()

	internal, err := svc.GenerateInternal()
	require.NoError(t, err)

	_, err = svc.Validate(internal)
	assert.Error(t, err)
}

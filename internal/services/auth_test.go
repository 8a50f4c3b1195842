package services

import (
	"testing"

	"github.com/hildolfr/dazza-sub007/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterThenLogin(t *testing.T) {
	s := NewAuthService(testDB(t), "test-secret")

	regToken, err := s.Register("bazza", "rustyute88")
	require.NoError(t, err)
	require.NotEmpty(t, regToken)

	loginToken, err := s.Login("bazza", "rustyute88")
	require.NoError(t, err)

	regID, err := s.ValidateToken(regToken)
	require.NoError(t, err)
	loginID, err := s.ValidateToken(loginToken)
	require.NoError(t, err)
	assert.Equal(t, regID, loginID)
}

func TestAuthService_UsernameStoredLowercase(t *testing.T) {
	db := testDB(t)
	s := NewAuthService(db, "test-secret")

	_, err := s.Register("  Shazza ", "rustyute88")
	require.NoError(t, err)

	var host models.Host
	require.NoError(t, db.First(&host).Error)
	assert.Equal(t, "shazza", host.Username)

	// Any casing logs into the same account.
	_, err = s.Login("SHAZZA", "rustyute88")
	assert.NoError(t, err)
}

func TestAuthService_DuplicateUsernameRejected(t *testing.T) {
	s := NewAuthService(testDB(t), "test-secret")

	_, err := s.Register("bazza", "rustyute88")
	require.NoError(t, err)

	_, err = s.Register("Bazza", "differentpass")
	assert.EqualError(t, err, "username already taken")
}

func TestAuthService_RejectsBadInput(t *testing.T) {
	s := NewAuthService(testDB(t), "test-secret")

	_, err := s.Register("   ", "rustyute88")
	assert.EqualError(t, err, "username is required")

	_, err = s.Register("bazza", "short7c")
	assert.EqualError(t, err, "password must be at least 8 characters")
}

func TestAuthService_LoginRejectsBadCredentials(t *testing.T) {
	s := NewAuthService(testDB(t), "test-secret")

	_, err := s.Register("bazza", "rustyute88")
	require.NoError(t, err)

	_, err = s.Login("bazza", "wrongpass1")
	assert.EqualError(t, err, "invalid credentials")

	// Unknown user gets the same error, nothing to enumerate.
	_, err = s.Login("nobody", "rustyute88")
	assert.EqualError(t, err, "invalid credentials")
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	s := NewAuthService(testDB(t), "test-secret")

	token, err := s.GenerateToken(42)
	require.NoError(t, err)

	id, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestAuthService_ValidateTokenRejectsForgeries(t *testing.T) {
	db := testDB(t)
	s := NewAuthService(db, "test-secret")

	_, err := s.ValidateToken("not-a-token")
	assert.Error(t, err)

	_, err = s.ValidateToken("")
	assert.Error(t, err)

	// A token minted under another secret does not verify here.
	other := NewAuthService(db, "other-secret")
	forged, err := other.GenerateToken(7)
	require.NoError(t, err)

	_, err = s.ValidateToken(forged)
	assert.Error(t, err)
}

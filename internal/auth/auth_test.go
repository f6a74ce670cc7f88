package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager("secret", time.Hour)
	require.NoError(t, err)

	token, err := m.GenerateToken(7, "jon@winterfell.com", "admin")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "jon@winterfell.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	a, _ := NewTokenManager("one", time.Hour)
	b, _ := NewTokenManager("two", time.Hour)

	token, err := a.GenerateToken(1, "a@b.com", "user")
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	m, _ := NewTokenManager("secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateToken(1, "a@b.com", "user")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	m, _ := NewTokenManager("secret", time.Hour)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, JWTClaims{UserID: 1, Role: "admin"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestRevoke(t *testing.T) {
	m, _ := NewTokenManager("secret", time.Hour)
	first, _ := m.GenerateToken(1, "a@b.com", "user")
	second, _ := m.GenerateToken(1, "a@b.com", "user")

	claims, err := m.ValidateToken(first)
	require.NoError(t, err)
	m.Revoke(claims)

	_, err = m.ValidateToken(first)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Other sessions of the same user stay valid
	_, err = m.ValidateToken(second)
	assert.NoError(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("valar morghulis")
	require.NoError(t, err)
	assert.NotEqual(t, "valar morghulis", hash)
	assert.True(t, VerifyPassword(hash, "valar morghulis"))
	assert.False(t, VerifyPassword(hash, "valar dohaeris"))
	assert.False(t, VerifyPassword("not-a-hash", "valar morghulis"))
}

func TestSessionData_IsAdmin(t *testing.T) {
	var nilSession *SessionData
	assert.False(t, nilSession.IsAdmin())
	assert.False(t, (&SessionData{Role: "user"}).IsAdmin())
	assert.True(t, (&SessionData{Role: "admin"}).IsAdmin())
}

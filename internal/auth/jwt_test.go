package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("test-secret", 24*time.Hour)

	tok, err := m.GenerateAccessToken(7, "admin", "admin")
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestManager_Expired(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	tok, err := m.GenerateAccessToken(1, "admin", "admin")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = m.VerifyAccessToken(tok)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = m.VerifyAccessToken(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestManager_RejectsForeignTokens(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	other, err := NewManager("another-secret", time.Hour).GenerateAccessToken(1, "admin", "admin")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(other)
	assert.Error(t, err, "wrong signing secret")

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	none, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(none)
	assert.Error(t, err, "alg none")

	_, err = m.VerifyAccessToken("not-a-token")
	assert.Error(t, err)
}

func TestManager_RequiresSubject(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	tok, err := m.GenerateAccessToken(0, "ghost", "admin")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(tok)
	assert.Error(t, err)
}

func TestManager_RequiresExpiry(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: 1, Role: "admin"}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(tok)
	assert.Error(t, err)
}

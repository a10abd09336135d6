package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "group-task-api", "clients", 15*time.Minute)

	token, expiresAt, err := issuer.IssueAccessToken(42, "alice", "alice@example.com")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	claims, err := issuer.ParseAccessToken(token)
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), userID)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "group-task-api", "clients", 15*time.Minute)
	token, _, err := issuer.IssueAccessToken(1, "bob", "bob@example.com")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenIssuer("other-secret", "group-task-api", "clients", 15*time.Minute)
		_, err := other.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewTokenIssuer("secret", "group-task-api", "someone-else", 15*time.Minute)
		_, err := other.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenIssuer("secret", "impostor", "clients", 15*time.Minute)
		_, err := other.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewTokenIssuer("secret", "group-task-api", "clients", 15*time.Minute)
		later.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err := later.ParseAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.ParseAccessToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidAccessToken)
	})
}

func TestRefreshTokens(t *testing.T) {
	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "=")
	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, HashToken(a), HashToken(b))
}

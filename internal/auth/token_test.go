package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueParseRoundtrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	token, err := tokens.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, 42, userID)
}

func TestParseRejectsGarbage(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)

	_, err := tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	issued, err := NewTokens("secret-a", time.Hour).Issue(42)
	require.NoError(t, err)

	_, err = NewTokens("secret-b", time.Hour).Parse(issued)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	tokens := NewTokens("test-secret", -time.Minute)

	issued, err := tokens.Issue(42)
	require.NoError(t, err)

	_, err = tokens.Parse(issued)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "hunter2hunter2"))
	assert.False(t, CheckPassword(hash, "wrong-password"))
}

package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m, err := NewManager(Config{Secret: "test-secret", TTL: time.Hour})
	require.NoError(t, err)

	id, token, err := m.Issue()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	got, err := m.Parse(token)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestParseRejectsOtherSecret(t *testing.T) {
	a, _ := NewManager(Config{Secret: "a"})
	b, _ := NewManager(Config{Secret: "b"})

	_, token, err := a.Issue()
	require.NoError(t, err)

	_, err = b.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	m, _ := NewManager(Config{Secret: "s", TTL: time.Minute})
	start := time.Now()
	m.now = func() time.Time { return start }
	_, token, err := m.Issue()
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = m.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsNonSessionSubject(t *testing.T) {
	m, _ := NewManager(Config{Secret: "s"})
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s"))
	require.NoError(t, err)

	_, err = m.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(Config{})
	require.Error(t, err)
}

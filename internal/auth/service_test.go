package auth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Typerace/internal/auth"
	"github.com/dkeye/Typerace/internal/domain"
)

func newService(t *testing.T, secret string) *auth.Service {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"login": "alice", "password": "wonderland"},
		{"login": "bob", "password": "builder"}
	]`), 0o644))
	return auth.NewService(secret, auth.NewUserRepository(path))
}

func TestIssueAndVerify(t *testing.T) {
	svc := newService(t, "test-secret")

	token, err := svc.Issue("alice", "wonderland")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	player, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerID("alice"), player)
}

func TestIssueRejectsBadCredentials(t *testing.T) {
	svc := newService(t, "test-secret")

	tests := []struct {
		name     string
		login    string
		password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "mallory", "whatever"},
		{"empty login", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Issue(tt.login, tt.password)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	svc := newService(t, "test-secret")

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := svc.Verify("")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newService(t, "other-secret")
		token, err := other.Issue("alice", "wonderland")
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestUserRepositoryMissingFile(t *testing.T) {
	repo := auth.NewUserRepository(filepath.Join(t.TempDir(), "nope.json"))
	assert.Empty(t, repo.GetAll())

	_, ok := repo.GetByLogin("alice")
	assert.False(t, ok)
}

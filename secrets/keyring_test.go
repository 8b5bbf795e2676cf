package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func newTestStore(env map[string]string) *Store {
	keyring.MockInit()
	return &Store{lookupEnv: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
}

func TestAPIKeyMissing(t *testing.T) {
	s := newTestStore(nil)

	_, err := s.APIKey()
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.False(t, s.HasAPIKey())
}

func TestSetGetDeleteAPIKey(t *testing.T) {
	s := newTestStore(nil)

	require.NoError(t, s.SetAPIKey("  sk-abc \n"))
	key, err := s.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", key)

	require.NoError(t, s.DeleteAPIKey())
	_, err = s.APIKey()
	assert.ErrorIs(t, err, ErrNoAPIKey)

	// deleting twice is fine
	assert.NoError(t, s.DeleteAPIKey())
}

func TestSetAPIKeyRejectsEmpty(t *testing.T) {
	s := newTestStore(nil)
	assert.Error(t, s.SetAPIKey("   "))
}

func TestEnvironmentOverridesKeychain(t *testing.T) {
	s := newTestStore(map[string]string{EnvAPIKey: "sk-env"})
	require.NoError(t, s.SetAPIKey("sk-keychain"))

	key, err := s.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", key)
}

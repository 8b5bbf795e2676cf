package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	serviceName = "textrewriter"
	apiKeyUser  = "textrewriter_openai_api_key"

	// EnvAPIKey overrides the keychain entry when set
	EnvAPIKey = "OPENAI_API_KEY"
)

// ErrNoAPIKey is returned when no API key is stored
var ErrNoAPIKey = errors.New("no API key configured")

// Store reads and writes the completion API key in the OS keychain
type Store struct {
	lookupEnv func(string) (string, bool)
}

// NewStore creates a new keychain-backed secret store
func NewStore() *Store {
	return &Store{lookupEnv: os.LookupEnv}
}

// APIKey returns the API key, preferring the environment over the keychain
func (s *Store) APIKey() (string, error) {
	if v, ok := s.lookupEnv(EnvAPIKey); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}

	key, err := keyring.Get(serviceName, apiKeyUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoAPIKey
	}
	if err != nil {
		return "", fmt.Errorf("failed to read API key from keychain: %w", err)
	}
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// SetAPIKey stores the API key in the keychain
func (s *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key is empty")
	}
	if err := keyring.Set(serviceName, apiKeyUser, key); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the API key from the keychain. Deleting a missing key is not an error.
func (s *Store) DeleteAPIKey() error {
	err := keyring.Delete(serviceName, apiKeyUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	return nil
}

// HasAPIKey reports whether an API key is available
func (s *Store) HasAPIKey() bool {
	_, err := s.APIKey()
	return err == nil
}

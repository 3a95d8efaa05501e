// Package credential keeps the upstream API key in the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"

	"github.com/Lawguy81/cnslr-legal-platform/internal/config"
)

const (
	serviceName = "cnslr"
	// APIKeyItem is the keyring item holding the agency API key.
	APIKeyItem = "upstream-api-key"
)

// ErrNotFound is returned when no key is stored.
var ErrNotFound = errors.New("credential not found")

// Open returns the system keyring for cnslr.
func Open() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/cnslr/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("cnslr-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return ring, nil
}

// Store reads and writes the API key in a keyring.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps ring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// APIKey returns the stored key.
func (s *Store) APIKey() (string, error) {
	item, err := s.ring.Get(APIKeyItem)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential %q: %w", APIKeyItem, err)
	}
	return strings.TrimSpace(string(item.Data)), nil
}

// SetAPIKey stores key.
func (s *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("set credential: empty key")
	}
	err := s.ring.Set(keyring.Item{
		Key:         APIKeyItem,
		Data:        []byte(key),
		Label:       "cnslr upstream API key",
		Description: "Bearer token for the agency disputes API",
	})
	if err != nil {
		return fmt.Errorf("set credential %q: %w", APIKeyItem, err)
	}
	return nil
}

// DeleteAPIKey removes the stored key.
func (s *Store) DeleteAPIKey() error {
	err := s.ring.Remove(APIKeyItem)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete credential %q: %w", APIKeyItem, err)
	}
	return nil
}

// Resolve fills cfg.Upstream.APIKey from the keyring when live mode has no
// key from the file or environment. open is called only when needed.
func Resolve(cfg *config.Config, open func() (keyring.Keyring, error)) error {
	if cfg.Upstream.Mode != config.ModeLive || cfg.Upstream.APIKey != "" {
		return cfg.ValidateLive()
	}

	ring, err := open()
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrMissingAPIKey, err)
	}
	key, err := NewStore(ring).APIKey()
	if errors.Is(err, ErrNotFound) {
		return config.ErrMissingAPIKey
	}
	if err != nil {
		return err
	}
	cfg.Upstream.APIKey = key
	return cfg.ValidateLive()
}

// Package credential persists the bearer token across process restarts.
// The system keyring is the durable store; everything else in the client is
// in-memory only.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "inboxfw"

// tokenKey is the single storage key the client ever uses.
const tokenKey = "inboxfw:token"

// ErrNotFound is returned when no credential is persisted. Callers treat it
// as the logged-out state, not a failure.
var ErrNotFound = errors.New("no persisted credential")

// Store reads and writes the persisted credential.
type Store struct {
	cfg keyring.Config
}

// Open returns a Store backed by the system keyring. fileDir is the
// fallback location for the encrypted file backend (used on headless
// systems and in tests); empty means the default config directory.
func Open(fileDir string) *Store {
	if fileDir == "" {
		fileDir = "~/.config/inboxfw/credentials"
	}
	return &Store{
		cfg: keyring.Config{
			ServiceName: serviceName,
			AllowedBackends: []keyring.BackendType{
				keyring.KeychainBackend,
				keyring.SecretServiceBackend,
				keyring.WinCredBackend,
				keyring.PassBackend,
				keyring.FileBackend,
			},
			FileDir:                  fileDir,
			FilePasswordFunc:         keyring.FixedStringPrompt("inboxfw-file-key"),
			KeychainTrustApplication: true,
		},
	}
}

// OpenFile returns a Store pinned to the encrypted file backend in dir.
// Tests use this to avoid touching the real system keyring.
func OpenFile(dir string) *Store {
	return &Store{
		cfg: keyring.Config{
			ServiceName:      serviceName,
			AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
			FileDir:          dir,
			FilePasswordFunc: keyring.FixedStringPrompt("inboxfw-file-key"),
		},
	}
}

// Token retrieves the persisted bearer token. Returns ErrNotFound when
// nothing is stored.
func (s *Store) Token() (string, error) {
	ring, err := keyring.Open(s.cfg)
	if err != nil {
		return "", fmt.Errorf("opening keyring: %w", err)
	}

	item, err := ring.Get(tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("getting credential: %w", err)
	}
	return string(item.Data), nil
}

// SetToken stores the bearer token.
func (s *Store) SetToken(token string) error {
	ring, err := keyring.Open(s.cfg)
	if err != nil {
		return fmt.Errorf("opening keyring: %w", err)
	}

	if err := ring.Set(keyring.Item{Key: tokenKey, Data: []byte(token)}); err != nil {
		return fmt.Errorf("setting credential: %w", err)
	}
	return nil
}

// Clear erases the persisted token. Clearing an absent token is a no-op so
// logout cannot fail on a half-cleared state.
func (s *Store) Clear() error {
	ring, err := keyring.Open(s.cfg)
	if err != nil {
		return fmt.Errorf("opening keyring: %w", err)
	}

	if err := ring.Remove(tokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

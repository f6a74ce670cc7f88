// Package auth holds the durable client storage for the session: two named
// string slots, the bearer token and the serialized user record.
package auth

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/zalando/go-keyring"
)

const (
	service = "game-of-bones"

	// TokenKey is the slot holding the bearer token.
	TokenKey = "token"
	// UserKey is the slot holding the JSON user snapshot.
	UserKey = "user"
)

// ErrNotFound is returned by Get when a slot is empty.
var ErrNotFound = errors.New("not found in durable storage")

// Storage defines the slot operations the session relies on.
// This allows us to swap the keyring for a file or a mock in tests.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// KeyringStorage persists slots in the OS keychain/credential manager.
// Slots are namespaced by API host so sessions for different backends do not collide.
type KeyringStorage struct {
	namespace string
}

// NewKeyringStorage creates keyring-backed storage for the given API URL.
func NewKeyringStorage(apiURL string) *KeyringStorage {
	return &KeyringStorage{namespace: Namespace(apiURL)}
}

// Namespace reduces an API URL to the host part used to key stored slots.
func Namespace(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return apiURL
	}
	return u.Host
}

func (k *KeyringStorage) keyFor(slot string) string {
	return fmt.Sprintf("%s-%s", slot, k.namespace)
}

// Get reads a slot from the keyring.
func (k *KeyringStorage) Get(key string) (string, error) {
	value, err := keyring.Get(service, k.keyFor(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to load %s: %w", key, err)
	}
	return value, nil
}

// Set writes a slot to the keyring.
func (k *KeyringStorage) Set(key, value string) error {
	if err := keyring.Set(service, k.keyFor(key), value); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Delete removes a slot from the keyring. Deleting an empty slot is not an error.
func (k *KeyringStorage) Delete(key string) error {
	if err := keyring.Delete(service, k.keyFor(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Clear removes both session slots, returning the first failure.
func Clear(s Storage) error {
	var firstErr error
	for _, key := range []string{TokenKey, UserKey} {
		if err := s.Delete(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

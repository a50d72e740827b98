package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const defaultKeyringService = "taplogin"

// Keyring persists records in the operating system credential store, keeping
// tokens out of plain files on desktop hosts.
type Keyring struct {
	service string
}

// NewKeyring creates a keyring-backed storage. An empty service name falls
// back to the default.
func NewKeyring(service string) *Keyring {
	if service == "" {
		service = defaultKeyringService
	}
	return &Keyring{service: service}
}

// Load implements Storage.
func (k *Keyring) Load(_ context.Context, key string) ([]byte, error) {
	secret, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load record %v: %w", key, err)
	}
	return []byte(secret), nil
}

// Save implements Storage.
func (k *Keyring) Save(_ context.Context, key string, data []byte) error {
	if err := keyring.Set(k.service, key, string(data)); err != nil {
		return fmt.Errorf("failed to save record %v: %w", key, err)
	}
	return nil
}

// Delete implements Storage.
func (k *Keyring) Delete(_ context.Context, key string) error {
	if err := keyring.Delete(k.service, key); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete record %v: %w", key, err)
	}
	return nil
}

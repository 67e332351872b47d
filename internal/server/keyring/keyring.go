// Package keyring holds the vault master keys and wraps per-user private
// keys under them (AES-256-GCM, user id as additional data).
//
// A ring can hold several keys; sealed blobs are tagged with the id of the
// key that produced them, so adding a new current key later does not break
// existing records.
package keyring

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/cryptox"
)

// KeySize is the required master key length (AES-256).
const KeySize = 32

type Keyring struct {
	mu      sync.RWMutex
	current string
	keys    map[string][]byte
}

// New returns a ring whose current key is key.
func New(key []byte) (*Keyring, error) {
	k := &Keyring{keys: make(map[string][]byte)}
	if _, err := k.Add(key, true); err != nil {
		return nil, err
	}
	return k, nil
}

// KeyID derives the public identifier of a master key.
func KeyID(key []byte) string {
	return cryptox.Fingerprint(key)[:16]
}

// Add registers key and optionally makes it the key used by Wrap.
func (k *Keyring) Add(key []byte, makeCurrent bool) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("master key must be %d bytes, got %d", KeySize, len(key))
	}

	id := KeyID(key)

	k.mu.Lock()
	defer k.mu.Unlock()

	k.keys[id] = append([]byte(nil), key...)
	if makeCurrent {
		k.current = id
	}
	return id, nil
}

// CurrentID returns the id of the key used by Wrap.
func (k *Keyring) CurrentID() string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.current
}

// Wrap seals plaintext under the current key.
func (k *Keyring) Wrap(aad, plaintext []byte) (string, []byte, error) {
	k.mu.RLock()
	id, key := k.current, k.keys[k.current]
	k.mu.RUnlock()

	sealed, err := cryptox.Seal(key, plaintext, aad)
	if err != nil {
		return "", nil, fmt.Errorf("wrapping key: %w", err)
	}
	return id, sealed, nil
}

// Unwrap opens a blob produced by Wrap with the key named id.
func (k *Keyring) Unwrap(id string, aad, sealed []byte) ([]byte, error) {
	k.mu.RLock()
	key, ok := k.keys[id]
	k.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownMasterKey, id)
	}

	plaintext, err := cryptox.Open(key, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("unwrapping key: %w", err)
	}
	return plaintext, nil
}

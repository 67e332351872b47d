package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

// ErrCiphertextTooShort is returned by Open when the input cannot hold a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Seal encrypts plaintext with AES-GCM under key and returns nonce||ciphertext.
// A fresh random nonce is generated per call. aad is authenticated but not
// encrypted and must be supplied again to Open.
//
// The key must be 16, 24, or 32 bytes long.
func Seal(key, plaintext, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize(), aesgcm.NonceSize()+len(plaintext)+aesgcm.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	return aesgcm.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal. Any modification of sealed or aad makes it fail.
func Open(key, sealed, aad []byte) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ns := aesgcm.NonceSize()
	if len(sealed) < ns+aesgcm.Overhead() {
		return nil, ErrCiphertextTooShort
	}

	return aesgcm.Open(nil, sealed[:ns], sealed[ns:], aad)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

type fakeAuth struct {
	loginErr error
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	if email == "user1@example.com" && password == "password11" {
		return "good-token", nil
	}
	return "", common.ErrInvalidCredentials
}

func (f *fakeAuth) Verify(_ context.Context, token string) (models.UserIdentity, error) {
	switch token {
	case "good-token":
		return models.UserIdentity{ID: "u-1", Email: "user1@example.com"}, nil
	case "other-token":
		return models.UserIdentity{ID: "u-2", Email: "user2@example.com"}, nil
	case "old-token":
		return models.UserIdentity{}, common.ErrTokenExpired
	}
	return models.UserIdentity{}, common.ErrTokenInvalid
}

type fakeVault struct {
	mu    sync.Mutex
	pairs map[string]models.PublicKeyPair
	err   error
}

func newFakeVault() *fakeVault {
	return &fakeVault{pairs: map[string]models.PublicKeyPair{}}
}

func (f *fakeVault) EnsureKeyPair(_ context.Context, userID string) (models.PublicKeyPair, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.PublicKeyPair{}, false, f.err
	}
	if p, ok := f.pairs[userID]; ok {
		return p, false, nil
	}
	p := models.PublicKeyPair{
		UserID:       userID,
		PublicKeyPEM: "-----BEGIN PUBLIC KEY-----\n" + userID + "\n-----END PUBLIC KEY-----\n",
		Fingerprint:  "fp-" + userID,
		Algorithm:    models.AlgorithmRSA2048,
		CreatedAt:    time.Date(2026, 3, 4, 10, 0, 0, 123000, time.UTC),
	}
	f.pairs[userID] = p
	return p, true, nil
}

func (f *fakeVault) PublicKey(_ context.Context, userID string) (models.PublicKeyPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pairs[userID]
	if !ok {
		return models.PublicKeyPair{}, common.ErrNoKeyPair
	}
	return p, nil
}

// Encrypt prefixes the user id so a cross-user decrypt is detectable.
func (f *fakeVault) Encrypt(ctx context.Context, userID string, plaintext []byte) ([]byte, error) {
	if _, err := f.PublicKey(ctx, userID); err != nil {
		return nil, err
	}
	if len(plaintext) > 190 {
		return nil, fmt.Errorf("%w: %d bytes", common.ErrPayloadTooLarge, len(plaintext))
	}
	return append([]byte(userID+":"), plaintext...), nil
}

func (f *fakeVault) Decrypt(ctx context.Context, userID string, ciphertext []byte) ([]byte, error) {
	if _, err := f.PublicKey(ctx, userID); err != nil {
		return nil, err
	}
	prefix := userID + ":"
	if len(ciphertext) < len(prefix) || string(ciphertext[:len(prefix)]) != prefix {
		return nil, common.ErrMalformedRequest
	}
	return ciphertext[len(prefix):], nil
}

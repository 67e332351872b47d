package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/cryptox"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/keyring"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/keys"
)

// DefaultRSABits is the modulus size of generated key pairs.
const DefaultRSABits = 2048

var allowedRSABits = []int{2048, 3072, 4096}

// KeyGenerator produces an RSA private key; rsa.GenerateKey by default.
type KeyGenerator func(random io.Reader, bits int) (*rsa.PrivateKey, error)

// KeyVaultService provisions one RSA key pair per user and performs
// RSA-OAEP (SHA-256) operations with it. Private keys are only ever
// handled in unwrapped form inside this type.
type KeyVaultService struct {
	store   keys.Repository
	ring    *keyring.Keyring
	bits    int
	keyGen  KeyGenerator
	random  io.Reader
	metrics metrics.Recorder
	logger  logging.Logger
	now     func() time.Time

	flights singleflight.Group
}

type VaultOption func(*KeyVaultService)

func WithRSABits(bits int) VaultOption {
	return func(s *KeyVaultService) { s.bits = bits }
}

func WithKeyGenerator(gen KeyGenerator) VaultOption {
	return func(s *KeyVaultService) { s.keyGen = gen }
}

func WithVaultMetrics(m metrics.Recorder) VaultOption {
	return func(s *KeyVaultService) { s.metrics = m }
}

func WithVaultLogger(l logging.Logger) VaultOption {
	return func(s *KeyVaultService) { s.logger = l }
}

// WithVaultClock replaces time.Now for record timestamps.
func WithVaultClock(now func() time.Time) VaultOption {
	return func(s *KeyVaultService) { s.now = now }
}

func NewKeyVaultService(store keys.Repository, ring *keyring.Keyring, opts ...VaultOption) (*KeyVaultService, error) {
	s := &KeyVaultService{
		store:   store,
		ring:    ring,
		bits:    DefaultRSABits,
		keyGen:  rsa.GenerateKey,
		random:  rand.Reader,
		metrics: metrics.Nop{},
		logger:  logging.Nop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !slices.Contains(allowedRSABits, s.bits) {
		return nil, fmt.Errorf("unsupported RSA key size %d, want one of %v", s.bits, allowedRSABits)
	}

	s.logger = s.logger.With("module", "vault")
	return s, nil
}

type provisioned struct {
	pair    models.PublicKeyPair
	created bool
}

// EnsureKeyPair returns the user's key pair, generating and storing one if
// none exists. created reports whether this call stored it.
//
// Concurrent calls for one user share a single generation. The generation
// is detached from ctx: a caller that gives up gets ctx.Err() while the key
// pair is still stored for the next call.
func (s *KeyVaultService) EnsureKeyPair(ctx context.Context, userID string) (models.PublicKeyPair, bool, error) {
	if userID == "" {
		return models.PublicKeyPair{}, false, common.ErrMalformedRequest
	}

	rec, err := s.store.Get(ctx, userID)
	if err == nil {
		s.metrics.RecordKeyPair(false)
		return publicView(rec), false, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "key pair lookup failed", "user_id", userID, "error", err)
		return models.PublicKeyPair{}, false, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	// Only the caller whose function singleflight runs sets leader.
	leader := false
	detached := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(userID, func() (any, error) {
		leader = true
		return s.provision(detached, userID)
	})

	select {
	case <-ctx.Done():
		return models.PublicKeyPair{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.PublicKeyPair{}, false, res.Err
		}
		p := res.Val.(provisioned)
		created := p.created && leader
		s.metrics.RecordKeyPair(created)
		return p.pair, created, nil
	}
}

func (s *KeyVaultService) provision(ctx context.Context, userID string) (provisioned, error) {
	// A previous flight may have finished between our Get and DoChan.
	if rec, err := s.store.Get(ctx, userID); err == nil {
		return provisioned{pair: publicView(rec)}, nil
	}

	start := time.Now()
	priv, err := s.keyGen(s.random, s.bits)
	if err != nil {
		s.logger.Error(ctx, "key generation failed", "user_id", userID, "bits", s.bits, "error", err)
		return provisioned{}, fmt.Errorf("%w: %v", common.ErrKeyGenerationFailure, err)
	}
	s.metrics.RecordKeyGeneration(time.Since(start))

	rec, err := s.seal(userID, priv)
	if err != nil {
		s.logger.Error(ctx, "sealing private key failed", "user_id", userID, "error", err)
		return provisioned{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	stored, inserted, err := s.store.PutIfAbsent(ctx, rec)
	if err != nil {
		s.logger.Error(ctx, "storing key pair failed", "user_id", userID, "error", err)
		return provisioned{}, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if inserted {
		s.logger.Info(ctx, "key pair generated", "user_id", userID, "algorithm", rec.Algorithm, "master_key_id", rec.MasterKeyID)
	} else {
		s.logger.Info(ctx, "key pair already stored by another writer", "user_id", userID)
	}

	return provisioned{pair: publicView(stored), created: inserted}, nil
}

func (s *KeyVaultService) seal(userID string, priv *rsa.PrivateKey) (*models.KeyPairRecord, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	defer common.WipeByteArray(der)

	pub, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}

	keyID, sealed, err := s.ring.Wrap([]byte(userID), der)
	if err != nil {
		return nil, err
	}

	return &models.KeyPairRecord{
		UserID:              userID,
		PublicKey:           pub,
		PrivateKeyEncrypted: sealed,
		MasterKeyID:         keyID,
		Algorithm:           models.RSAAlgorithm(priv.N.BitLen()),
		CreatedAt:           s.now().UTC().Truncate(time.Microsecond),
	}, nil
}

// PublicKey returns the user's public key pair view without generating.
func (s *KeyVaultService) PublicKey(ctx context.Context, userID string) (models.PublicKeyPair, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		return models.PublicKeyPair{}, err
	}
	return publicView(rec), nil
}

// MaxPlaintextSize is the largest message RSA-OAEP with SHA-256 can encrypt
// under a key of the given modulus size in bytes.
func MaxPlaintextSize(modulusBytes int) int {
	return modulusBytes - 2*sha256.Size - 2
}

// Encrypt encrypts plaintext for the user with RSA-OAEP (SHA-256).
func (s *KeyVaultService) Encrypt(ctx context.Context, userID string, plaintext []byte) ([]byte, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		s.metrics.RecordCryptoOp("encrypt", metrics.OutcomeRejected)
		return nil, err
	}

	pub, err := parsePublicKey(rec.PublicKey)
	if err != nil {
		s.metrics.RecordCryptoOp("encrypt", metrics.OutcomeError)
		s.logger.Error(ctx, "stored public key unusable", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	if limit := MaxPlaintextSize(pub.Size()); len(plaintext) > limit {
		s.metrics.RecordCryptoOp("encrypt", metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: %d bytes, at most %d", common.ErrPayloadTooLarge, len(plaintext), limit)
	}

	ct, err := rsa.EncryptOAEP(sha256.New(), s.random, pub, plaintext, nil)
	if err != nil {
		s.metrics.RecordCryptoOp("encrypt", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.metrics.RecordCryptoOp("encrypt", metrics.OutcomeOK)
	return ct, nil
}

// Decrypt reverses Encrypt. The private key is unwrapped for the duration
// of the call only.
func (s *KeyVaultService) Decrypt(ctx context.Context, userID string, ciphertext []byte) ([]byte, error) {
	rec, err := s.load(ctx, userID)
	if err != nil {
		s.metrics.RecordCryptoOp("decrypt", metrics.OutcomeRejected)
		return nil, err
	}

	pub, err := parsePublicKey(rec.PublicKey)
	if err != nil {
		s.metrics.RecordCryptoOp("decrypt", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if len(ciphertext) != pub.Size() {
		s.metrics.RecordCryptoOp("decrypt", metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: ciphertext must be %d bytes", common.ErrMalformedRequest, pub.Size())
	}

	der, err := s.ring.Unwrap(rec.MasterKeyID, []byte(userID), rec.PrivateKeyEncrypted)
	if err != nil {
		s.metrics.RecordCryptoOp("decrypt", metrics.OutcomeError)
		s.logger.Error(ctx, "unwrapping private key failed", "user_id", userID, "master_key_id", rec.MasterKeyID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	defer common.WipeByteArray(der)

	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		s.metrics.RecordCryptoOp("decrypt", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		s.metrics.RecordCryptoOp("decrypt", metrics.OutcomeError)
		return nil, fmt.Errorf("%w: stored key is %T", common.ErrorInternal, key)
	}

	pt, err := rsa.DecryptOAEP(sha256.New(), nil, priv, ciphertext, nil)
	if err != nil {
		s.metrics.RecordCryptoOp("decrypt", metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: decryption failed", common.ErrMalformedRequest)
	}

	s.metrics.RecordCryptoOp("decrypt", metrics.OutcomeOK)
	return pt, nil
}

func (s *KeyVaultService) load(ctx context.Context, userID string) (*models.KeyPairRecord, error) {
	if userID == "" {
		return nil, common.ErrMalformedRequest
	}
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrNoKeyPair
		}
		s.logger.Error(ctx, "key pair lookup failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return rec, nil
}

func parsePublicKey(der []byte) (*rsa.PublicKey, error) {
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("stored public key is %T", key)
	}
	return pub, nil
}

func publicView(rec *models.KeyPairRecord) models.PublicKeyPair {
	return models.PublicKeyPair{
		UserID:       rec.UserID,
		PublicKeyPEM: string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: rec.PublicKey})),
		Fingerprint:  cryptox.Fingerprint(rec.PublicKey),
		Algorithm:    rec.Algorithm,
		CreatedAt:    rec.CreatedAt,
	}
}

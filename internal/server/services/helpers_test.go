package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/cryptox"
	"github.com/dmitrijs2005/keyvault/internal/server/auth"
	"github.com/dmitrijs2005/keyvault/internal/server/keyring"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/keys"
)

var (
	testParams = cryptox.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
	testSecret = []byte("0123456789abcdef0123456789abcdef")
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func hashWithTestParams(p string) (string, error) { return cryptox.HashPassword(p, testParams) }

// newAuthFixture seeds the demo users into a memory store.
func newAuthFixture(t *testing.T, clock *fakeClock, opts ...AuthOption) (*AuthService, *credentials.MemoryRepository) {
	t.Helper()

	repo := credentials.NewMemoryRepository()
	_, err := credentials.Seed(context.Background(), repo, credentials.DemoUsers, hashWithTestParams)
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(testSecret, auth.DefaultLifetime,
		auth.WithClock(clock.Now), auth.WithIssuer("keyvault"))
	require.NoError(t, err)

	opts = append([]AuthOption{WithPasswordParams(testParams), WithAuthClock(clock.Now)}, opts...)
	s, err := NewAuthService(repo, tokens, opts...)
	require.NoError(t, err)
	return s, repo
}

var (
	poolOnce sync.Once
	pool     []*rsa.PrivateKey
)

// keyPool returns RSA-2048 keys generated once per test binary.
func keyPool(t *testing.T) []*rsa.PrivateKey {
	t.Helper()
	poolOnce.Do(func() {
		for i := 0; i < 4; i++ {
			k, err := rsa.GenerateKey(rand.Reader, 2048)
			if err != nil {
				panic(err)
			}
			pool = append(pool, k)
		}
	})
	return pool
}

// poolGen hands out pool keys in turn and counts calls. If gate is set,
// every call waits for it to close first.
type poolGen struct {
	keys  []*rsa.PrivateKey
	calls atomic.Int32
	gate  chan struct{}
	fail  error
}

func newPoolGen(t *testing.T) *poolGen {
	return &poolGen{keys: keyPool(t)}
}

func (g *poolGen) Generate(_ io.Reader, _ int) (*rsa.PrivateKey, error) {
	n := g.calls.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	if g.fail != nil {
		return nil, g.fail
	}
	return g.keys[int(n-1)%len(g.keys)], nil
}

func newTestRing(t *testing.T) *keyring.Keyring {
	t.Helper()
	ring, err := keyring.New(common.GenerateRandByteArray(keyring.KeySize))
	require.NoError(t, err)
	return ring
}

func newVaultFixture(t *testing.T, store keys.Repository, opts ...VaultOption) (*KeyVaultService, *poolGen) {
	t.Helper()
	gen := newPoolGen(t)
	opts = append([]VaultOption{WithKeyGenerator(gen.Generate)}, opts...)
	s, err := NewKeyVaultService(store, newTestRing(t), opts...)
	require.NoError(t, err)
	return s, gen
}

var errStoreDown = errors.New("store down")

// brokenCredentials fails every lookup.
type brokenCredentials struct{}

func (brokenCredentials) GetByEmail(context.Context, string) (*models.Credential, error) {
	return nil, errStoreDown
}

func (brokenCredentials) Create(context.Context, *models.Credential) error { return errStoreDown }

// brokenKeys fails every call.
type brokenKeys struct{}

func (brokenKeys) Get(context.Context, string) (*models.KeyPairRecord, error) {
	return nil, errStoreDown
}

func (brokenKeys) PutIfAbsent(context.Context, *models.KeyPairRecord) (*models.KeyPairRecord, bool, error) {
	return nil, false, errStoreDown
}

// recorder captures metric calls.
type recorder struct {
	mu       sync.Mutex
	signIns  map[string]int
	verifies map[string]int
	keyPairs map[bool]int
	ops      map[string]int
	gens     int
}

func newRecorder() *recorder {
	return &recorder{
		signIns:  map[string]int{},
		verifies: map[string]int{},
		keyPairs: map[bool]int{},
		ops:      map[string]int{},
	}
}

func (r *recorder) RecordSignIn(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signIns[o]++
}

func (r *recorder) RecordTokenVerification(o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifies[o]++
}

func (r *recorder) RecordKeyPair(created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keyPairs[created]++
}

func (r *recorder) RecordKeyGeneration(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gens++
}

func (r *recorder) RecordCryptoOp(op, o string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[op+"/"+o]++
}

func (r *recorder) RecordRequest(string, int) {}

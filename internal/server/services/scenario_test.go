package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/keys"
)

// Sign in, provision twice, encrypt, then let the session lapse.
func TestScenario_SignInProvisionExpire(t *testing.T) {
	clock := newFakeClock()
	authSvc, _ := newAuthFixture(t, clock)
	vault, _ := newVaultFixture(t, keys.NewMemoryRepository(), WithVaultClock(clock.Now))
	ctx := context.Background()

	token, err := authSvc.Login(ctx, "user1@example.com", "password11")
	require.NoError(t, err)

	id, err := authSvc.Verify(ctx, token)
	require.NoError(t, err)

	first, created, err := vault.EnsureKeyPair(ctx, id.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := vault.EnsureKeyPair(ctx, id.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.PublicKeyPEM, second.PublicKeyPEM)

	ct, err := vault.Encrypt(ctx, id.ID, []byte("hello"))
	require.NoError(t, err)
	pt, err := vault.Decrypt(ctx, id.ID, ct)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))

	clock.Advance(5*time.Minute + time.Second)
	_, err = authSvc.Verify(ctx, token)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

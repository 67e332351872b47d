package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/keyvault/internal/client/client"
	"github.com/dmitrijs2005/keyvault/internal/client/config"
	"github.com/dmitrijs2005/keyvault/internal/common"
)

type stubService struct {
	signedIn   bool
	lastEmail  string
	lastPass   string
	hasKeyPair bool
	closed     bool
	pingErr    error
}

func (s *stubService) SignIn(_ context.Context, email, password string) error {
	if password != "password11" {
		return common.ErrInvalidCredentials
	}
	s.signedIn, s.lastEmail, s.lastPass = true, email, password
	return nil
}

func (s *stubService) SignOut()       { s.signedIn = false }
func (s *stubService) SignedIn() bool { return s.signedIn }

func (s *stubService) GenerateKeyPair(context.Context) (client.KeyPair, bool, error) {
	if !s.signedIn {
		return client.KeyPair{}, false, client.ErrNotSignedIn
	}
	created := !s.hasKeyPair
	s.hasKeyPair = true
	return testKeyPair(), created, nil
}

func (s *stubService) PublicKey(context.Context) (client.KeyPair, error) {
	if !s.hasKeyPair {
		return client.KeyPair{}, common.ErrNoKeyPair
	}
	return testKeyPair(), nil
}

func (s *stubService) Encrypt(_ context.Context, pt []byte) ([]byte, error) {
	if len(pt) > 190 {
		return nil, common.ErrPayloadTooLarge
	}
	return append([]byte("ct:"), pt...), nil
}

func (s *stubService) Decrypt(_ context.Context, ct []byte) ([]byte, error) {
	if !bytes.HasPrefix(ct, []byte("ct:")) {
		return nil, common.ErrMalformedRequest
	}
	return bytes.Clone(ct[3:]), nil
}

func (s *stubService) Ping(context.Context) error { return s.pingErr }
func (s *stubService) Close() error               { s.closed = true; return nil }

func testKeyPair() client.KeyPair {
	return client.KeyPair{
		PublicKeyPEM: "-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----\n",
		Fingerprint:  "f00d",
		Algorithm:    "RSA-2048",
		CreatedAt:    time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	prev := getPassword
	getPassword = func(io.Writer) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = prev })
}

func runScript(t *testing.T, svc *stubService, cfg *config.Config, script string) string {
	t.Helper()
	var out bytes.Buffer
	app := newApp(cfg, svc, strings.NewReader(script), &out)
	require.NoError(t, app.Run(context.Background()))
	return out.String()
}

func defaultConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func TestREPL_FullSession(t *testing.T) {
	stubPassword(t, "password11")
	svc := &stubService{}

	out := runScript(t, svc, defaultConfig(), strings.Join([]string{
		"login",
		"user1@example.com",
		"keypair",
		"keypair",
		"pubkey",
		"encrypt hello world",
		"decrypt Y3Q6aGVsbG8gd29ybGQ=",
		"logout",
		"exit",
	}, "\n")+"\n")

	assert.Equal(t, "user1@example.com", svc.lastEmail)
	assert.Contains(t, out, "Signed in as user1@example.com")
	assert.Contains(t, out, "keyvault (user1@example.com)> ")
	assert.Contains(t, out, "Key pair created")
	assert.Contains(t, out, "Key pair already exists")
	assert.Contains(t, out, "Fingerprint: f00d")
	assert.Contains(t, out, "Y3Q6aGVsbG8gd29ybGQ=\n")
	assert.Contains(t, out, "hello world\n")
	assert.Contains(t, out, "Signed out")
	assert.Contains(t, out, "Bye!")
	assert.True(t, svc.closed)
}

func TestREPL_EmailFromConfig(t *testing.T) {
	stubPassword(t, "password11")
	svc := &stubService{}
	cfg := defaultConfig()
	cfg.Email = "user2@example.com"

	runScript(t, svc, cfg, "login\n")
	assert.Equal(t, "user2@example.com", svc.lastEmail)
}

func TestREPL_Errors(t *testing.T) {
	stubPassword(t, "wrong")
	svc := &stubService{pingErr: client.ErrUnavailable}

	out := runScript(t, svc, defaultConfig(), strings.Join([]string{
		"login",
		"user1@example.com",
		"keypair",
		"pubkey",
		"encrypt " + strings.Repeat("x", 191),
		"encrypt",
		"decrypt",
		"decrypt !!!",
		"decrypt eA==",
		"ping",
		"frobnicate",
		"help",
	}, "\n"))

	assert.Contains(t, out, "Invalid email or password")
	assert.Contains(t, out, "Not signed in, use 'login' first")
	assert.Contains(t, out, "No key pair yet")
	assert.Contains(t, out, "Text is too long")
	assert.Contains(t, out, "Usage: encrypt <text>")
	assert.Contains(t, out, "Usage: decrypt <base64>")
	assert.Contains(t, out, "ciphertext is not base64")
	assert.Contains(t, out, "Error: malformed request")
	assert.Contains(t, out, "Server unavailable")
	assert.Contains(t, out, "Unknown command: frobnicate")
	assert.Contains(t, out, "Available commands")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Session expired, use 'login' again", describe(common.ErrTokenExpired))
	assert.Equal(t, "Too many attempts, try again later", describe(common.ErrTooManyAttempts))
	assert.Equal(t, "Error: boom", describe(errors.New("boom")))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer

	got, err := GetSimpleText(bufio.NewReader(strings.NewReader("  user1@example.com \n")), "Enter email", &out)
	require.NoError(t, err)
	assert.Equal(t, "user1@example.com", got)
	assert.Equal(t, "Enter email\n> ", out.String())

	got, err = GetSimpleText(bufio.NewReader(strings.NewReader("partial")), "p", io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)

	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("")), "p", io.Discard)
	assert.ErrorIs(t, err, io.EOF)
}

func TestGetPassword(t *testing.T) {
	prev := readPassword
	t.Cleanup(func() { readPassword = prev })

	readPassword = func(int) ([]byte, error) { return []byte("secret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), pw)
	assert.Equal(t, "Enter password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }
	_, err = GetPassword(io.Discard)
	assert.Error(t, err)
}

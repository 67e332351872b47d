package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/keyvault/internal/server/auth"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":50051", cfg.GRPCAddr)
	assert.Equal(t, 5*time.Minute, cfg.TokenTTL)
	assert.Zero(t, cfg.TokenLeeway)
	assert.Equal(t, 2048, cfg.RSABits)
	assert.Equal(t, StoreMemory, cfg.CredentialStore)
	assert.Equal(t, StoreMemory, cfg.VaultStore)
	assert.Equal(t, "ephemeral", cfg.MasterKeySource)
	assert.True(t, cfg.SeedDemoUsers)
	assert.Equal(t, 1.0, cfg.LoginRate)
	assert.Equal(t, 5, cfg.LoginBurst)
}

func TestLoad_Precedence(t *testing.T) {
	file := writeFile(t, "cfg.json", `{
		"http_addr": ":1000",
		"grpc_addr": ":2000",
		"token_ttl": "10m",
		"rsa_bits": 3072,
		"token_issuer": "from-file"
	}`)

	environ := map[string]string{
		"KEYVAULT_GRPC_ADDR":  ":3000",
		"KEYVAULT_TOKEN_TTL":  "7m",
		"KEYVAULT_LOGIN_RATE": "2.5",
		"UNRELATED":           "x",
	}
	args := []string{"-c", file, "--token-ttl=3m", "-b", "4096"}

	cfg, err := Load(args, environ)
	require.NoError(t, err)

	assert.Equal(t, ":1000", cfg.HTTPAddr, "file over defaults")
	assert.Equal(t, "from-file", cfg.TokenIssuer)
	assert.Equal(t, ":3000", cfg.GRPCAddr, "env over file")
	assert.Equal(t, 2.5, cfg.LoginRate)
	assert.Equal(t, 3*time.Minute, cfg.TokenTTL, "flags over env")
	assert.Equal(t, 4096, cfg.RSABits, "flags over file")
}

func TestLoad_YAMLFile(t *testing.T) {
	file := writeFile(t, "cfg.yaml", `
vault_store: memory
token_leeway: 2s
seed_demo_users: false
login_burst: 9
`)

	cfg, err := Load([]string{"--config", file}, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.TokenLeeway)
	assert.False(t, cfg.SeedDemoUsers)
	assert.Equal(t, 9, cfg.LoginBurst)
	assert.Equal(t, ":8080", cfg.HTTPAddr, "absent keys keep defaults")
}

func TestLoad_FileErrors(t *testing.T) {
	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "missing.json")}, map[string]string{})
	assert.ErrorContains(t, err, "reading config file")

	bad := writeFile(t, "bad.json", `{"token_ttl": "forever"}`)
	_, err = Load([]string{"-c", bad}, map[string]string{})
	assert.ErrorContains(t, err, "parsing config file")
}

func TestLoad_BadEnvAndFlags(t *testing.T) {
	_, err := Load(nil, map[string]string{"KEYVAULT_RSA_BITS": "lots"})
	assert.ErrorContains(t, err, "parsing environment")

	_, err = Load([]string{"--no-such-flag"}, map[string]string{})
	assert.ErrorContains(t, err, "parsing flags")

	_, err = Load([]string{"--help"}, map[string]string{})
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
		wantIs  error
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "no listeners", mutate: func(c *Config) { c.HTTPAddr, c.GRPCAddr = "", "" }, wantErr: "at least one"},
		{name: "http only", mutate: func(c *Config) { c.GRPCAddr = "" }},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: "token ttl"},
		{name: "negative leeway", mutate: func(c *Config) { c.TokenLeeway = -time.Second }, wantErr: "leeway"},
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "secret key is empty"},
		{
			name:   "development secret in production",
			mutate: func(c *Config) { c.Environment = "production" },
			wantIs: auth.ErrWeakSecret,
		},
		{
			name:   "short secret in production",
			mutate: func(c *Config) { c.Environment = "production"; c.SecretKey = "short" },
			wantIs: auth.ErrWeakSecret,
		},
		{
			name:   "strong secret in production",
			mutate: func(c *Config) { c.Environment = "production"; c.SecretKey = strongSecret },
		},
		{name: "odd rsa size", mutate: func(c *Config) { c.RSABits = 1024 }, wantErr: "rsa bits"},
		{name: "unknown credential store", mutate: func(c *Config) { c.CredentialStore = "ldap" }, wantErr: "credential store"},
		{name: "unknown vault store", mutate: func(c *Config) { c.VaultStore = "disk" }, wantErr: "vault store"},
		{
			name:    "ephemeral master key with persistent vault",
			mutate:  func(c *Config) { c.VaultStore = StoreRedis },
			wantErr: "ephemeral master key",
		},
		{
			name:   "file master key with persistent vault",
			mutate: func(c *Config) { c.VaultStore = StoreRedis; c.MasterKeySource = "file" },
		},
		{name: "unknown master key source", mutate: func(c *Config) { c.MasterKeySource = "hsm" }, wantErr: "unknown master key source"},
		{
			name:    "postgres without dsn",
			mutate:  func(c *Config) { c.CredentialStore = StorePostgres; c.DatabaseDSN = "" },
			wantErr: "database dsn",
		},
		{
			name:    "s3 without bucket",
			mutate:  func(c *Config) { c.VaultStore = StoreS3; c.MasterKeySource = "env"; c.S3Bucket = "" },
			wantErr: "s3 bucket",
		},
		{
			name:    "redis without url",
			mutate:  func(c *Config) { c.VaultStore = StoreRedis; c.MasterKeySource = "env"; c.RedisURL = "" },
			wantErr: "redis url",
		},
		{name: "negative login rate", mutate: func(c *Config) { c.LoginRate = -1 }, wantErr: "login rate"},
		{name: "zero burst", mutate: func(c *Config) { c.LoginBurst = 0 }, wantErr: "login burst"},
		{name: "throttling disabled", mutate: func(c *Config) { c.LoginRate = 0; c.LoginBurst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			switch {
			case tt.wantIs != nil:
				assert.ErrorIs(t, err, tt.wantIs)
			case tt.wantErr != "":
				assert.ErrorContains(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestUsesPostgres(t *testing.T) {
	cfg := &Config{CredentialStore: StoreMemory, VaultStore: StoreMemory}
	assert.False(t, cfg.UsesPostgres())

	cfg.VaultStore = StorePostgres
	assert.True(t, cfg.UsesPostgres())
}

func TestFlagUsage(t *testing.T) {
	usage := FlagUsage()
	assert.Contains(t, usage, "--http-addr")
	assert.Contains(t, usage, "--master-key-source")
	assert.Contains(t, usage, "-c, --config")
}

func TestEnvMap(t *testing.T) {
	m := envMap([]string{"A=1", "B=x=y", "broken"})
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y"}, m)
}

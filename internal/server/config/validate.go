package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/keyvault/internal/server/auth"
	"github.com/dmitrijs2005/keyvault/internal/server/keyring"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreS3       = "s3"
)

var (
	CredentialStores = []string{StoreMemory, StorePostgres}
	VaultStores      = []string{StoreMemory, StorePostgres, StoreRedis, StoreS3}
	RSAKeySizes      = []int{2048, 3072, 4096}
)

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPAddr == "" && c.GRPCAddr == "" {
		errs = append(errs, errors.New("at least one of the HTTP and gRPC addresses must be set"))
	}

	if c.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL))
	}
	if c.TokenLeeway < 0 {
		errs = append(errs, fmt.Errorf("token leeway must not be negative, got %s", c.TokenLeeway))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is empty"))
	} else if !c.IsDevelopment() && (c.SecretKey == DevelopmentSecretKey || len(c.SecretKey) < auth.MinSecretLength) {
		errs = append(errs, fmt.Errorf("%w: at least %d bytes and not the development default are required in %q",
			auth.ErrWeakSecret, auth.MinSecretLength, c.Environment))
	}

	if !slices.Contains(RSAKeySizes, c.RSABits) {
		errs = append(errs, fmt.Errorf("rsa bits must be one of %v, got %d", RSAKeySizes, c.RSABits))
	}

	if !slices.Contains(CredentialStores, c.CredentialStore) {
		errs = append(errs, fmt.Errorf("credential store must be one of %v, got %q", CredentialStores, c.CredentialStore))
	}
	if !slices.Contains(VaultStores, c.VaultStore) {
		errs = append(errs, fmt.Errorf("vault store must be one of %v, got %q", VaultStores, c.VaultStore))
	}
	if c.UsesPostgres() && c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn is required for the postgres store"))
	}
	if c.VaultStore == StoreRedis && c.RedisURL == "" {
		errs = append(errs, errors.New("redis url is required for the redis vault store"))
	}
	if c.VaultStore == StoreS3 && c.S3Bucket == "" {
		errs = append(errs, errors.New("s3 bucket is required for the s3 vault store"))
	}

	src, err := keyring.ParseSource(c.MasterKeySource)
	if err != nil {
		errs = append(errs, err)
	} else if src == keyring.SourceEphemeral && c.VaultStore != StoreMemory {
		errs = append(errs, fmt.Errorf("ephemeral master key cannot be used with the %q vault store: stored keys would become unreadable after restart", c.VaultStore))
	}

	if c.LoginRate < 0 {
		errs = append(errs, fmt.Errorf("login rate must not be negative, got %v", c.LoginRate))
	}
	if c.LoginRate > 0 && c.LoginBurst < 1 {
		errs = append(errs, fmt.Errorf("login burst must be at least 1, got %d", c.LoginBurst))
	}

	return errors.Join(errs...)
}

// UsesPostgres reports whether any store needs the database.
func (c *Config) UsesPostgres() bool {
	return c.CredentialStore == StorePostgres || c.VaultStore == StorePostgres
}

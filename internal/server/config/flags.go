package config

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

func newFlagSet(config *Config, configFile *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("keyvault", pflag.ContinueOnError)

	fs.StringVarP(configFile, "config", "c", "", "path to config file (JSON or YAML)")
	fs.StringVar(&config.Environment, "env", config.Environment, "environment name (development enables insecure defaults)")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "enable debug logging")

	fs.StringVarP(&config.HTTPAddr, "http-addr", "a", config.HTTPAddr, "HTTP listen address, empty disables")
	fs.StringVarP(&config.GRPCAddr, "grpc-addr", "g", config.GRPCAddr, "gRPC listen address, empty disables")

	fs.StringVarP(&config.SecretKey, "secret-key", "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.TokenIssuer, "token-issuer", config.TokenIssuer, "token issuer claim")
	fs.DurationVarP(&config.TokenTTL, "token-ttl", "t", config.TokenTTL, "session token lifetime")
	fs.DurationVar(&config.TokenLeeway, "token-leeway", config.TokenLeeway, "clock skew tolerated when checking expiry")

	fs.IntVarP(&config.RSABits, "rsa-bits", "b", config.RSABits, "RSA modulus size (2048, 3072 or 4096)")

	fs.StringVar(&config.CredentialStore, "credential-store", config.CredentialStore, "credential backend (memory, postgres)")
	fs.StringVar(&config.VaultStore, "vault-store", config.VaultStore, "key vault backend (memory, postgres, redis, s3)")
	fs.StringVarP(&config.DatabaseDSN, "database-dsn", "d", config.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&config.RedisURL, "redis-url", config.RedisURL, "Redis URL")

	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Prefix, "s3-prefix", config.S3Prefix, "S3 object key prefix")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "s3-base-endpoint", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3RootUser, "s3-root-user", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "s3-root-password", config.S3RootPassword, "S3 secret key")

	fs.StringVar(&config.MasterKeySource, "master-key-source", config.MasterKeySource, "master key source (env, file, age, ephemeral)")
	fs.StringVar(&config.MasterKeyFile, "master-key-file", config.MasterKeyFile, "master key file (plain base64, or age-encrypted)")
	fs.StringVar(&config.AgeIdentityFile, "age-identity-file", config.AgeIdentityFile, "age identity file for the age master key source")

	fs.BoolVar(&config.SeedDemoUsers, "seed-demo-users", config.SeedDemoUsers, "create the demo users at startup")
	fs.Float64Var(&config.LoginRate, "login-rate", config.LoginRate, "sign-in attempts per second per email, 0 disables throttling")
	fs.IntVar(&config.LoginBurst, "login-burst", config.LoginBurst, "sign-in attempt burst per email")

	fs.DurationVar(&config.ShutdownTimeout, "shutdown-timeout", config.ShutdownTimeout, "graceful shutdown timeout")

	return fs
}

// FlagUsage describes every server flag with its default.
func FlagUsage() string {
	cfg := &Config{}
	cfg.LoadDefaults()
	var configFile string
	return newFlagSet(cfg, &configFile).FlagUsages()
}

// parseFlags overlays command-line flags onto config. -h/--help yields an
// error wrapping pflag.ErrHelp.
func parseFlags(config *Config, args []string) error {
	var configFile string

	fs := newFlagSet(config, &configFile)
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return nil
}

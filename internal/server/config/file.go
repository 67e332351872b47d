package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/keyvault/internal/timex"
)

// FileConfig is the on-disk shape of the configuration. Absent keys keep
// the value from the previous layer. Durations accept "5m" or nanoseconds.
type FileConfig struct {
	Environment *string `json:"environment" yaml:"environment"`
	Debug       *bool   `json:"debug" yaml:"debug"`

	HTTPAddr *string `json:"http_addr" yaml:"http_addr"`
	GRPCAddr *string `json:"grpc_addr" yaml:"grpc_addr"`

	SecretKey   *string         `json:"secret_key" yaml:"secret_key"`
	TokenIssuer *string         `json:"token_issuer" yaml:"token_issuer"`
	TokenTTL    *timex.Duration `json:"token_ttl" yaml:"token_ttl"`
	TokenLeeway *timex.Duration `json:"token_leeway" yaml:"token_leeway"`

	RSABits *int `json:"rsa_bits" yaml:"rsa_bits"`

	CredentialStore *string `json:"credential_store" yaml:"credential_store"`
	VaultStore      *string `json:"vault_store" yaml:"vault_store"`
	DatabaseDSN     *string `json:"database_dsn" yaml:"database_dsn"`
	RedisURL        *string `json:"redis_url" yaml:"redis_url"`

	S3Bucket       *string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Prefix       *string `json:"s3_prefix" yaml:"s3_prefix"`
	S3Region       *string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3RootUser     *string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password" yaml:"s3_root_password"`

	MasterKeySource *string `json:"master_key_source" yaml:"master_key_source"`
	MasterKeyFile   *string `json:"master_key_file" yaml:"master_key_file"`
	AgeIdentityFile *string `json:"age_identity_file" yaml:"age_identity_file"`

	SeedDemoUsers *bool    `json:"seed_demo_users" yaml:"seed_demo_users"`
	LoginRate     *float64 `json:"login_rate" yaml:"login_rate"`
	LoginBurst    *int     `json:"login_burst" yaml:"login_burst"`

	ShutdownTimeout *timex.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// parseFile overlays the JSON or YAML file at path onto config. The format
// is picked by extension; anything but .yaml/.yml is read as JSON.
func parseFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (fc *FileConfig) apply(c *Config) {
	set(&c.Environment, fc.Environment)
	set(&c.Debug, fc.Debug)
	set(&c.HTTPAddr, fc.HTTPAddr)
	set(&c.GRPCAddr, fc.GRPCAddr)
	set(&c.SecretKey, fc.SecretKey)
	set(&c.TokenIssuer, fc.TokenIssuer)
	if fc.TokenTTL != nil {
		c.TokenTTL = fc.TokenTTL.Duration
	}
	if fc.TokenLeeway != nil {
		c.TokenLeeway = fc.TokenLeeway.Duration
	}
	set(&c.RSABits, fc.RSABits)
	set(&c.CredentialStore, fc.CredentialStore)
	set(&c.VaultStore, fc.VaultStore)
	set(&c.DatabaseDSN, fc.DatabaseDSN)
	set(&c.RedisURL, fc.RedisURL)
	set(&c.S3Bucket, fc.S3Bucket)
	set(&c.S3Prefix, fc.S3Prefix)
	set(&c.S3Region, fc.S3Region)
	set(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	set(&c.S3RootUser, fc.S3RootUser)
	set(&c.S3RootPassword, fc.S3RootPassword)
	set(&c.MasterKeySource, fc.MasterKeySource)
	set(&c.MasterKeyFile, fc.MasterKeyFile)
	set(&c.AgeIdentityFile, fc.AgeIdentityFile)
	set(&c.SeedDemoUsers, fc.SeedDemoUsers)
	set(&c.LoginRate, fc.LoginRate)
	set(&c.LoginBurst, fc.LoginBurst)
	if fc.ShutdownTimeout != nil {
		c.ShutdownTimeout = fc.ShutdownTimeout.Duration
	}
}

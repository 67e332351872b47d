// Package config holds the CLI client settings. Sources, in increasing
// precedence: defaults, a JSON file (-c/--config), KEYVAULT_CLIENT_*
// environment variables, flags.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/keyvault/internal/flagx"
	"github.com/dmitrijs2005/keyvault/internal/timex"
)

const EnvPrefix = "KEYVAULT_CLIENT_"

type Config struct {
	ServerAddr     string        `env:"SERVER_ADDR"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	Email          string        `env:"EMAIL"`
}

// fileConfig is the JSON shape of the config file.
type fileConfig struct {
	ServerAddr     *string         `json:"server_addr"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	Email          *string         `json:"email"`
}

func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:50051"
	c.RequestTimeout = 30 * time.Second
}

// LoadConfig reads os.Args and the process environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], env.ToMap(os.Environ()))
}

// Load builds the configuration from args and environ.
func Load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path := flagx.ConfigFile(args); path != "" {
		if err := parseJSON(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}

	if cfg.ServerAddr == "" {
		return nil, fmt.Errorf("server address is required")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return cfg, nil
}

func parseJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.ServerAddr != nil {
		cfg.ServerAddr = *fc.ServerAddr
	}
	if fc.RequestTimeout != nil {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.Email != nil {
		cfg.Email = *fc.Email
	}
	return nil
}

func newFlagSet(cfg *Config, configFile *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("keyvault-cli", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVarP(configFile, "config", "c", "", "path to a JSON config file")
	fs.StringVarP(&cfg.ServerAddr, "server-addr", "a", cfg.ServerAddr, "gRPC address of the KeyVault server")
	fs.DurationVarP(&cfg.RequestTimeout, "timeout", "t", cfg.RequestTimeout, "per-request timeout")
	fs.StringVarP(&cfg.Email, "email", "e", cfg.Email, "email to sign in with")
	return fs
}

// FlagUsage renders the flag help text.
func FlagUsage() string {
	cfg := &Config{}
	cfg.LoadDefaults()
	var configFile string
	return newFlagSet(cfg, &configFile).FlagUsages()
}

func parseFlags(cfg *Config, args []string) error {
	var configFile string
	if err := newFlagSet(cfg, &configFile).Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerAddr)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.Email)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"server_addr":"file:1","request_timeout":"5s","email":"file@example.com"}`), 0o600))

	cfg, err := Load([]string{"-c", path}, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "file:1", cfg.ServerAddr)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "file@example.com", cfg.Email)

	cfg, err = Load([]string{"-c", path}, map[string]string{"KEYVAULT_CLIENT_SERVER_ADDR": "env:2"})
	require.NoError(t, err)
	assert.Equal(t, "env:2", cfg.ServerAddr)

	cfg, err = Load([]string{"-c", path, "--server-addr", "flag:3", "-t", "1s"},
		map[string]string{"KEYVAULT_CLIENT_SERVER_ADDR": "env:2"})
	require.NoError(t, err)
	assert.Equal(t, "flag:3", cfg.ServerAddr)
	assert.Equal(t, time.Second, cfg.RequestTimeout)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		environ map[string]string
	}{
		{"missing file", []string{"-c", "/nonexistent/client.json"}, nil},
		{"bad env duration", nil, map[string]string{"KEYVAULT_CLIENT_REQUEST_TIMEOUT": "soon"}},
		{"unknown flag", []string{"--nope"}, nil},
		{"empty address", []string{"-a", ""}, nil},
		{"zero timeout", []string{"-t", "0s"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_addr":`), 0o600))

	_, err := Load([]string{"--config", path}, nil)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestFlagUsage(t *testing.T) {
	u := FlagUsage()
	assert.Contains(t, u, "--server-addr")
	assert.Contains(t, u, "--email")
}

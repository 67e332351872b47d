package keyring

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/filex"
)

// Source names where the master key comes from.
type Source string

const (
	// SourceEnv reads a base64 key from Options.EnvValue (KEYVAULT_MASTER_KEY).
	SourceEnv Source = "env"
	// SourceFile reads a base64 key from Options.File.
	SourceFile Source = "file"
	// SourceAge decrypts Options.File with the age identities in
	// Options.AgeIdentityFile; the plaintext is the base64 key.
	SourceAge Source = "age"
	// SourceEphemeral generates a random key that dies with the process.
	SourceEphemeral Source = "ephemeral"
)

// Sources lists every recognised Source.
var Sources = []Source{SourceEnv, SourceFile, SourceAge, SourceEphemeral}

// ErrUnknownSource is returned for a Source outside Sources.
var ErrUnknownSource = errors.New("unknown master key source")

// Options configures Load.
type Options struct {
	Source          Source
	EnvValue        string
	File            string
	AgeIdentityFile string
}

// ParseSource validates s against Sources.
func ParseSource(s string) (Source, error) {
	for _, src := range Sources {
		if string(src) == s {
			return src, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

// Load builds a Keyring from the configured source.
func Load(opts Options) (*Keyring, error) {
	var (
		key []byte
		err error
	)

	switch opts.Source {
	case SourceEnv:
		if opts.EnvValue == "" {
			return nil, errors.New("master key source env: KEYVAULT_MASTER_KEY is empty")
		}
		key, err = decodeKey([]byte(opts.EnvValue))
	case SourceFile:
		key, err = readKeyFile(opts.File)
	case SourceAge:
		key, err = readAgeKeyFile(opts.File, opts.AgeIdentityFile)
	case SourceEphemeral:
		key = common.GenerateRandByteArray(KeySize)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, opts.Source)
	}
	if err != nil {
		return nil, fmt.Errorf("master key source %s: %w", opts.Source, err)
	}
	defer common.WipeByteArray(key)

	return New(key)
}

func readKeyFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("no key file configured")
	}
	raw, err := filex.ReadSecretFile(path)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(raw)
	return decodeKey(raw)
}

func readAgeKeyFile(path, identityPath string) ([]byte, error) {
	if path == "" || identityPath == "" {
		return nil, errors.New("both the key file and the age identity file are required")
	}

	idData, err := filex.ReadSecretFile(identityPath)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(idData)

	identities, err := age.ParseIdentities(bytes.NewReader(idData))
	if err != nil {
		return nil, fmt.Errorf("parsing age identities: %w", err)
	}

	sealed, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r, err := age.Decrypt(bytes.NewReader(sealed), identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted key: %w", err)
	}
	defer common.WipeByteArray(raw)

	return decodeKey(raw)
}

func decodeKey(raw []byte) ([]byte, error) {
	s := strings.TrimSpace(string(raw))
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 key: %w", err)
	}
	if len(key) != KeySize {
		common.WipeByteArray(key)
		return nil, fmt.Errorf("master key must be %d bytes, got %d", KeySize, len(key))
	}
	return key, nil
}

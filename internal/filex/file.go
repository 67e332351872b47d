// Package filex reads files that hold key material.
package filex

import (
	"errors"
	"fmt"
	"os"
	"runtime"
)

// ErrInsecurePermissions is returned for a secret file that group or others
// can access.
var ErrInsecurePermissions = errors.New("secret file is accessible by group or others")

// ReadSecretFile reads path after checking it is a regular file with no
// group or other permission bits. The check is skipped on Windows.
func ReadSecretFile(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("no file configured")
	}

	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", path)
	}
	if runtime.GOOS != "windows" && fi.Mode().Perm()&0o077 != 0 {
		return nil, fmt.Errorf("%w: %s has mode %04o", ErrInsecurePermissions, path, fi.Mode().Perm())
	}

	return os.ReadFile(path)
}

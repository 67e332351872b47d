// Package common defines shared constants and sentinel errors used across
// client and server layers of KeyVault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Request errors.
	ErrMalformedRequest = errors.New("malformed request")
	ErrTooManyAttempts  = errors.New("too many attempts")

	// Authentication errors. ErrInvalidCredentials covers both an unknown
	// email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token lifecycle errors.
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Vault errors.
	ErrNoKeyPair            = errors.New("no key pair")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrKeyGenerationFailure = errors.New("key generation failure")
	ErrUnknownMasterKey     = errors.New("unknown master key")
)

// Package client is the gRPC client for the keyvault.v1.KeyVault service.
//
// GRPCClient keeps the access token returned by SignIn and attaches it to
// every later call through a unary interceptor. Server statuses are mapped
// back to the sentinel errors in internal/common, plus ErrUnavailable for
// transport failures, so callers can match them with errors.Is.
package client

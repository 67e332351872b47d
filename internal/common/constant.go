// Package common contains shared constants and sentinel errors used across
// KeyVault components.
package common

// AccessTokenHeaderName is the gRPC metadata key (and HTTP header) used to
// carry the bearer access token on inbound requests.
const AccessTokenHeaderName = "authorization"

// BearerPrefix is the scheme prefix expected in AccessTokenHeaderName values.
const BearerPrefix = "Bearer "

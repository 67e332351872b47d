// Package auth issues and verifies the short-lived HS256 session tokens.
// Tokens are stateless: nothing is stored server-side, so the only two
// observable states are valid and rejected.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// DefaultLifetime is the session token validity.
const DefaultLifetime = 5 * time.Minute

// MinSecretLength is the shortest secret accepted by RequireStrongSecret.
const MinSecretLength = 32

// ErrWeakSecret rejects a signing secret shorter than MinSecretLength.
var ErrWeakSecret = errors.New("token secret is too weak")

// Claims carries the standard claims plus the user's email so Verify can
// resolve a full identity without a store read.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// TokenService signs tokens with a process-wide HMAC secret. It is safe
// for concurrent use; nothing in it changes after construction.
type TokenService struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
	leeway   time.Duration
	now      func() time.Time

	strict bool
}

type Option func(*TokenService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// WithLeeway tolerates clock skew when checking exp. Zero means strict
// now < exp.
func WithLeeway(d time.Duration) Option {
	return func(s *TokenService) { s.leeway = d }
}

// WithIssuer sets the iss claim written and required.
func WithIssuer(issuer string) Option {
	return func(s *TokenService) { s.issuer = issuer }
}

// RequireStrongSecret makes NewTokenService fail with ErrWeakSecret for
// secrets shorter than MinSecretLength.
func RequireStrongSecret() Option {
	return func(s *TokenService) { s.strict = true }
}

func NewTokenService(secret []byte, lifetime time.Duration, opts ...Option) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is empty")
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", lifetime)
	}

	s := &TokenService{
		secret:   append([]byte(nil), secret...),
		lifetime: lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.strict && len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrWeakSecret, len(secret), MinSecretLength)
	}
	if s.leeway < 0 {
		return nil, fmt.Errorf("token leeway must not be negative, got %s", s.leeway)
	}
	return s, nil
}

// Lifetime returns the configured validity of issued tokens.
func (s *TokenService) Lifetime() time.Duration {
	return s.lifetime
}

// Issue mints a token for identity. iat is truncated to whole seconds, so
// exp is exactly iat + lifetime.
func (s *TokenService) Issue(identity models.UserIdentity) (string, error) {
	if identity.ID == "" {
		return "", errors.New("cannot issue token without subject")
	}

	issuedAt := s.now().Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.lifetime)),
		},
		Email: identity.Email,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature first and the time claims second, so a
// tampered token is always common.ErrTokenInvalid, never
// common.ErrTokenExpired.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, common.ErrTokenInvalid
	}

	validator := jwt.NewValidator(
		jwt.WithTimeFunc(s.now),
		jwt.WithLeeway(s.leeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(s.issuer),
	)
	if err := validator.Validate(claims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenInvalid, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", common.ErrTokenInvalid)
	}
	return claims, nil
}

// Identity returns the identity the claims were issued for.
func (c *Claims) Identity() models.UserIdentity {
	return models.UserIdentity{ID: c.Subject, Email: c.Email}
}

// Package services holds the server's business logic: AuthService signs
// users in and resolves session tokens, KeyVaultService provisions and uses
// the per-user RSA key pairs.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/cryptox"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/auth"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
	"github.com/dmitrijs2005/keyvault/internal/server/repositories/credentials"
)

const maxEmailLength = 254

// AuthService verifies credentials and issues/verifies session tokens.
type AuthService struct {
	credentials credentials.Repository
	tokens      *auth.TokenService
	limiter     *attemptLimiter
	metrics     metrics.Recorder
	logger      logging.Logger
	now         func() time.Time

	passwordParams cryptox.Argon2Params
	// dummyHash is verified against when the email is unknown so both
	// failure paths cost one password hash.
	dummyHash string
}

type AuthOption func(*AuthService)

// WithLoginRateLimit throttles sign-in attempts per normalised email.
// A zero limit disables throttling.
func WithLoginRateLimit(limit rate.Limit, burst int) AuthOption {
	return func(s *AuthService) {
		if limit > 0 {
			s.limiter = newAttemptLimiter(limit, burst)
		}
	}
}

func WithAuthMetrics(m metrics.Recorder) AuthOption {
	return func(s *AuthService) { s.metrics = m }
}

func WithAuthLogger(l logging.Logger) AuthOption {
	return func(s *AuthService) { s.logger = l }
}

// WithAuthClock replaces time.Now for the attempt limiter.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

// WithPasswordParams sets the argon2id cost of the dummy hash. It should
// match the cost of the stored hashes.
func WithPasswordParams(p cryptox.Argon2Params) AuthOption {
	return func(s *AuthService) { s.passwordParams = p }
}

func NewAuthService(creds credentials.Repository, tokens *auth.TokenService, opts ...AuthOption) (*AuthService, error) {
	s := &AuthService{
		credentials:    creds,
		tokens:         tokens,
		metrics:        metrics.Nop{},
		logger:         logging.Nop{},
		now:            time.Now,
		passwordParams: cryptox.DefaultArgon2Params,
	}
	for _, opt := range opts {
		opt(s)
	}

	dummy, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	s.dummyHash, err = cryptox.HashPassword(dummy, s.passwordParams)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	s.logger = s.logger.With("module", "auth")
	return s, nil
}

// Login exchanges an email and password for a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = credentials.NormalizeEmail(email)
	if !validEmail(email) || password == "" {
		s.metrics.RecordSignIn(metrics.OutcomeRejected)
		return "", common.ErrMalformedRequest
	}

	if s.limiter != nil && !s.limiter.allow(email, s.now()) {
		s.metrics.RecordSignIn("throttled")
		s.logger.Warn(ctx, "sign-in throttled", "email", email)
		return "", common.ErrTooManyAttempts
	}

	cred, err := s.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = cryptox.VerifyPassword(s.dummyHash, password)
			s.metrics.RecordSignIn(metrics.OutcomeRejected)
			return "", common.ErrInvalidCredentials
		}
		s.metrics.RecordSignIn(metrics.OutcomeError)
		s.logger.Error(ctx, "credential lookup failed", "error", err)
		return "", common.ErrorInternal
	}

	ok, err := cryptox.VerifyPassword(cred.PasswordHash, password)
	if err != nil {
		s.metrics.RecordSignIn(metrics.OutcomeError)
		s.logger.Error(ctx, "stored password hash unusable", "user_id", cred.UserID, "error", err)
		return "", common.ErrorInternal
	}
	if !ok {
		s.metrics.RecordSignIn(metrics.OutcomeRejected)
		s.logger.Debug(ctx, "wrong password", "user_id", cred.UserID)
		return "", common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(cred.Identity())
	if err != nil {
		s.metrics.RecordSignIn(metrics.OutcomeError)
		s.logger.Error(ctx, "token issue failed", "user_id", cred.UserID, "error", err)
		return "", common.ErrorInternal
	}

	s.metrics.RecordSignIn(metrics.OutcomeOK)
	s.logger.Info(ctx, "signed in", "user_id", cred.UserID)
	return token, nil
}

// Verify resolves a session token to the identity it was issued for.
// It fails with common.ErrTokenExpired or common.ErrTokenInvalid.
func (s *AuthService) Verify(_ context.Context, token string) (models.UserIdentity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			s.metrics.RecordTokenVerification(metrics.OutcomeExpired)
		} else {
			s.metrics.RecordTokenVerification(metrics.OutcomeRejected)
		}
		return models.UserIdentity{}, err
	}

	s.metrics.RecordTokenVerification(metrics.OutcomeOK)
	return claims.Identity(), nil
}

func validEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

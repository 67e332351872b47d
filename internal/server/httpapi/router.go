package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/keyvault/internal/logging"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 64 << 10

type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, token string) (models.UserIdentity, error)
}

type VaultService interface {
	EnsureKeyPair(ctx context.Context, userID string) (models.PublicKeyPair, bool, error)
	PublicKey(ctx context.Context, userID string) (models.PublicKeyPair, error)
	Encrypt(ctx context.Context, userID string, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, userID string, ciphertext []byte) ([]byte, error)
}

// Deps are the router's collaborators. Metrics and MetricsHandler are
// optional.
type Deps struct {
	Auth           AuthService
	Vault          VaultService
	Logger         logging.Logger
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
}

// NewRouter wires the routes and the middleware chain:
//
//	RequestID -> RealIP -> request log -> Recoverer -> body limit
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logging.Nop{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	h := &handler{auth: deps.Auth, vault: deps.Vault, logger: deps.Logger.With("module", "http")}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(h.logger, deps.Metrics))
	r.Use(chimw.Recoverer)
	r.Use(limitBody(MaxBodyBytes))

	r.Get("/healthz", h.healthz)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/sign-in", h.signIn)

		r.Group(func(r chi.Router) {
			r.Use(bearerAuth(deps.Auth, h))

			r.Post("/generate-key-pair", h.generateKeyPair)
			r.Get("/public-key", h.publicKey)
			r.Post("/encrypt", h.encrypt)
			r.Post("/decrypt", h.decrypt)
		})
	})

	return r
}

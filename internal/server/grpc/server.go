// Package grpc exposes AuthService and KeyVaultService as the
// keyvault.v1.KeyVault gRPC service, next to the standard health service.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/keyvault/internal/logging"
	pb "github.com/dmitrijs2005/keyvault/internal/proto"
	"github.com/dmitrijs2005/keyvault/internal/server/metrics"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

// MaxRecvMsgSize leaves room for a 64 KiB body after base64.
const MaxRecvMsgSize = 128 << 10

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

type GRPCServer struct {
	address string
	auth    AuthService
	vault   VaultService
	logger  logging.Logger
	metrics metrics.Recorder
}

func NewGRPCServer(a string, l logging.Logger, as AuthService, vs VaultService, m metrics.Recorder) *GRPCServer {
	if m == nil {
		m = metrics.Nop{}
	}
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		auth:    as,
		vault:   vs,
		metrics: m,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(MaxRecvMsgSize),
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
	)

	pb.RegisterKeyVaultServer(srv, &handler{auth: s.auth, vault: s.vault, logger: s.logger})

	hs := health.NewServer()
	hs.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}

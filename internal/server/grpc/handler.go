package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/logging"
	pb "github.com/dmitrijs2005/keyvault/internal/proto"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

type handler struct {
	auth   AuthService
	vault  VaultService
	logger logging.Logger
}

var statusTable = []struct {
	err  error
	code codes.Code
}{
	{common.ErrMalformedRequest, codes.InvalidArgument},
	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrTokenInvalid, codes.Unauthenticated},
	{common.ErrNoKeyPair, codes.FailedPrecondition},
	{common.ErrPayloadTooLarge, codes.InvalidArgument},
	{common.ErrTooManyAttempts, codes.ResourceExhausted},
	{common.ErrKeyGenerationFailure, codes.Internal},
}

// toStatus maps a service error to a gRPC status carrying only the
// sentinel's message.
func toStatus(err error) error {
	for _, e := range statusTable {
		if errors.Is(err, e.err) {
			return status.Error(e.code, e.err.Error())
		}
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}

func (h *handler) fail(ctx context.Context, method string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		h.logger.Error(ctx, "rpc failed", "method", method, "error", err)
	}
	return st
}

func keyPair(p models.PublicKeyPair) *pb.KeyPair {
	return &pb.KeyPair{
		PublicKey:   p.PublicKeyPEM,
		Fingerprint: p.Fingerprint,
		Algorithm:   p.Algorithm,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (h *handler) SignIn(ctx context.Context, req *pb.SignInRequest) (*pb.SignInResponse, error) {
	token, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, h.fail(ctx, "SignIn", err)
	}
	return &pb.SignInResponse{AccessToken: token}, nil
}

func (h *handler) GenerateKeyPair(ctx context.Context, _ *pb.GenerateKeyPairRequest) (*pb.GenerateKeyPairResponse, error) {
	id, _ := identityFrom(ctx)

	p, created, err := h.vault.EnsureKeyPair(ctx, id.ID)
	if err != nil {
		return nil, h.fail(ctx, "GenerateKeyPair", err)
	}
	return &pb.GenerateKeyPairResponse{KeyPair: keyPair(p), Created: created}, nil
}

func (h *handler) GetPublicKey(ctx context.Context, _ *pb.GetPublicKeyRequest) (*pb.GetPublicKeyResponse, error) {
	id, _ := identityFrom(ctx)

	p, err := h.vault.PublicKey(ctx, id.ID)
	if err != nil {
		return nil, h.fail(ctx, "GetPublicKey", err)
	}
	return &pb.GetPublicKeyResponse{KeyPair: keyPair(p)}, nil
}

func (h *handler) Encrypt(ctx context.Context, req *pb.EncryptRequest) (*pb.EncryptResponse, error) {
	id, _ := identityFrom(ctx)

	ct, err := h.vault.Encrypt(ctx, id.ID, req.Plaintext)
	if err != nil {
		return nil, h.fail(ctx, "Encrypt", err)
	}
	return &pb.EncryptResponse{Ciphertext: ct}, nil
}

func (h *handler) Decrypt(ctx context.Context, req *pb.DecryptRequest) (*pb.DecryptResponse, error) {
	id, _ := identityFrom(ctx)

	pt, err := h.vault.Decrypt(ctx, id.ID, req.Ciphertext)
	if err != nil {
		return nil, h.fail(ctx, "Decrypt", err)
	}
	return &pb.DecryptResponse{Plaintext: pt}, nil
}

func (h *handler) Ping(context.Context, *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

package grpc

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/keyvault/internal/common"
	pb "github.com/dmitrijs2005/keyvault/internal/proto"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
)

type ctxKey string

const identityKey ctxKey = "identity"

// protectedMethods need a valid access token.
var protectedMethods = map[string]bool{
	pb.KeyVault_GenerateKeyPair_FullMethodName: true,
	pb.KeyVault_GetPublicKey_FullMethodName:    true,
	pb.KeyVault_Encrypt_FullMethodName:         true,
	pb.KeyVault_Decrypt_FullMethodName:         true,
}

func identityFrom(ctx context.Context) (models.UserIdentity, bool) {
	id, ok := ctx.Value(identityKey).(models.UserIdentity)
	return id, ok
}

// accessToken reads the "authorization" metadata. Both "Bearer <t>" and a
// bare token are accepted.
func accessToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	v := strings.TrimLeft(values[0], " \t")
	// A scheme with no credentials carries no token.
	if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(common.BearerPrefix)) {
		return ""
	}
	if len(v) >= len(common.BearerPrefix) && strings.EqualFold(v[:len(common.BearerPrefix)], common.BearerPrefix) {
		v = v[len(common.BearerPrefix):]
	}
	return strings.TrimSpace(v)
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	token := accessToken(ctx)
	if token == "" {
		return nil, toStatus(common.ErrTokenInvalid)
	}

	id, err := s.auth.Verify(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}

	return handler(context.WithValue(ctx, identityKey, id), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	s.metrics.RecordRequest("grpc", int(code))
	s.logger.Info(ctx, "rpc", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))

	return resp, err
}

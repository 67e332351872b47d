package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/keyvault/internal/common"
	pb "github.com/dmitrijs2005/keyvault/internal/proto"
)

// KeyPair is the public part of the caller's key pair.
type KeyPair struct {
	PublicKeyPEM string
	Fingerprint  string
	Algorithm    string
	CreatedAt    time.Time
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.KeyVaultClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewKeyVaultClient connects lazily to endpointURL. Extra dial options are
// appended after the defaults (insecure transport, token interceptor).
func NewKeyVaultClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewKeyVaultClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// SignedIn reports whether a token is held.
func (s *GRPCClient) SignedIn() bool {
	return s.token() != ""
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) error {
	resp, err := s.client.SignIn(ctx, &pb.SignInRequest{Email: email, Password: password})
	if err != nil {
		return s.mapError(err)
	}

	s.mu.Lock()
	s.accessToken = resp.AccessToken
	s.mu.Unlock()
	return nil
}

// SignOut forgets the token locally; tokens are not revocable server-side.
func (s *GRPCClient) SignOut() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

func (s *GRPCClient) GenerateKeyPair(ctx context.Context) (KeyPair, bool, error) {
	if !s.SignedIn() {
		return KeyPair{}, false, ErrNotSignedIn
	}
	resp, err := s.client.GenerateKeyPair(ctx, &pb.GenerateKeyPairRequest{})
	if err != nil {
		return KeyPair{}, false, s.mapError(err)
	}
	kp, err := fromProto(resp.KeyPair)
	return kp, resp.Created, err
}

func (s *GRPCClient) PublicKey(ctx context.Context) (KeyPair, error) {
	if !s.SignedIn() {
		return KeyPair{}, ErrNotSignedIn
	}
	resp, err := s.client.GetPublicKey(ctx, &pb.GetPublicKeyRequest{})
	if err != nil {
		return KeyPair{}, s.mapError(err)
	}
	return fromProto(resp.KeyPair)
}

func (s *GRPCClient) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if !s.SignedIn() {
		return nil, ErrNotSignedIn
	}
	resp, err := s.client.Encrypt(ctx, &pb.EncryptRequest{Plaintext: plaintext})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Ciphertext, nil
}

func (s *GRPCClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if !s.SignedIn() {
		return nil, ErrNotSignedIn
	}
	resp, err := s.client.Decrypt(ctx, &pb.DecryptRequest{Ciphertext: ciphertext})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Plaintext, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

func fromProto(p *pb.KeyPair) (KeyPair, error) {
	if p == nil {
		return KeyPair{}, fmt.Errorf("empty key pair in response")
	}
	created, err := time.Parse(time.RFC3339Nano, p.CreatedAt)
	if err != nil {
		return KeyPair{}, fmt.Errorf("bad created_at: %w", err)
	}
	return KeyPair{
		PublicKeyPEM: p.PublicKey,
		Fingerprint:  p.Fingerprint,
		Algorithm:    p.Algorithm,
		CreatedAt:    created,
	}, nil
}

// knownErrors are matched against the status message, which the server
// sets to the sentinel's text.
var knownErrors = []error{
	common.ErrMalformedRequest,
	common.ErrInvalidCredentials,
	common.ErrTokenExpired,
	common.ErrTokenInvalid,
	common.ErrNoKeyPair,
	common.ErrPayloadTooLarge,
	common.ErrTooManyAttempts,
	common.ErrKeyGenerationFailure,
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	}
	for _, known := range knownErrors {
		if st.Message() == known.Error() {
			return known
		}
	}
	return fmt.Errorf("rpc error: %w", err)
}

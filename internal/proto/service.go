package proto

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "keyvault.v1.KeyVault"

const (
	KeyVault_SignIn_FullMethodName          = "/keyvault.v1.KeyVault/SignIn"
	KeyVault_GenerateKeyPair_FullMethodName = "/keyvault.v1.KeyVault/GenerateKeyPair"
	KeyVault_GetPublicKey_FullMethodName    = "/keyvault.v1.KeyVault/GetPublicKey"
	KeyVault_Encrypt_FullMethodName         = "/keyvault.v1.KeyVault/Encrypt"
	KeyVault_Decrypt_FullMethodName         = "/keyvault.v1.KeyVault/Decrypt"
	KeyVault_Ping_FullMethodName            = "/keyvault.v1.KeyVault/Ping"
)

// KeyVaultServer is the server API for the keyvault.v1.KeyVault service.
type KeyVaultServer interface {
	SignIn(context.Context, *SignInRequest) (*SignInResponse, error)
	GenerateKeyPair(context.Context, *GenerateKeyPairRequest) (*GenerateKeyPairResponse, error)
	GetPublicKey(context.Context, *GetPublicKeyRequest) (*GetPublicKeyResponse, error)
	Encrypt(context.Context, *EncryptRequest) (*EncryptResponse, error)
	Decrypt(context.Context, *DecryptRequest) (*DecryptResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

func RegisterKeyVaultServer(s grpc.ServiceRegistrar, srv KeyVaultServer) {
	s.RegisterService(&KeyVault_ServiceDesc, srv)
}

// unary builds a MethodHandler for one request type.
func unary[Req any, Resp any](fullMethod string, call func(KeyVaultServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(KeyVaultServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(KeyVaultServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var KeyVault_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KeyVaultServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SignIn", Handler: unary(KeyVault_SignIn_FullMethodName, KeyVaultServer.SignIn)},
		{MethodName: "GenerateKeyPair", Handler: unary(KeyVault_GenerateKeyPair_FullMethodName, KeyVaultServer.GenerateKeyPair)},
		{MethodName: "GetPublicKey", Handler: unary(KeyVault_GetPublicKey_FullMethodName, KeyVaultServer.GetPublicKey)},
		{MethodName: "Encrypt", Handler: unary(KeyVault_Encrypt_FullMethodName, KeyVaultServer.Encrypt)},
		{MethodName: "Decrypt", Handler: unary(KeyVault_Decrypt_FullMethodName, KeyVaultServer.Decrypt)},
		{MethodName: "Ping", Handler: unary(KeyVault_Ping_FullMethodName, KeyVaultServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "keyvault/v1/keyvault.proto",
}

// KeyVaultClient is the client API for the keyvault.v1.KeyVault service.
type KeyVaultClient interface {
	SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInResponse, error)
	GenerateKeyPair(ctx context.Context, in *GenerateKeyPairRequest, opts ...grpc.CallOption) (*GenerateKeyPairResponse, error)
	GetPublicKey(ctx context.Context, in *GetPublicKeyRequest, opts ...grpc.CallOption) (*GetPublicKeyResponse, error)
	Encrypt(ctx context.Context, in *EncryptRequest, opts ...grpc.CallOption) (*EncryptResponse, error)
	Decrypt(ctx context.Context, in *DecryptRequest, opts ...grpc.CallOption) (*DecryptResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type keyVaultClient struct {
	cc grpc.ClientConnInterface
}

func NewKeyVaultClient(cc grpc.ClientConnInterface) KeyVaultClient {
	return &keyVaultClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *keyVaultClient) SignIn(ctx context.Context, in *SignInRequest, opts ...grpc.CallOption) (*SignInResponse, error) {
	return invoke[SignInResponse](ctx, c.cc, KeyVault_SignIn_FullMethodName, in, opts)
}

func (c *keyVaultClient) GenerateKeyPair(ctx context.Context, in *GenerateKeyPairRequest, opts ...grpc.CallOption) (*GenerateKeyPairResponse, error) {
	return invoke[GenerateKeyPairResponse](ctx, c.cc, KeyVault_GenerateKeyPair_FullMethodName, in, opts)
}

func (c *keyVaultClient) GetPublicKey(ctx context.Context, in *GetPublicKeyRequest, opts ...grpc.CallOption) (*GetPublicKeyResponse, error) {
	return invoke[GetPublicKeyResponse](ctx, c.cc, KeyVault_GetPublicKey_FullMethodName, in, opts)
}

func (c *keyVaultClient) Encrypt(ctx context.Context, in *EncryptRequest, opts ...grpc.CallOption) (*EncryptResponse, error) {
	return invoke[EncryptResponse](ctx, c.cc, KeyVault_Encrypt_FullMethodName, in, opts)
}

func (c *keyVaultClient) Decrypt(ctx context.Context, in *DecryptRequest, opts ...grpc.CallOption) (*DecryptResponse, error) {
	return invoke[DecryptResponse](ctx, c.cc, KeyVault_Decrypt_FullMethodName, in, opts)
}

func (c *keyVaultClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, KeyVault_Ping_FullMethodName, in, opts)
}

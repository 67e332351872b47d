// Package proto declares the keyvault.v1 gRPC contract described in
// keyvault/v1/keyvault.proto: request and response messages, the service
// descriptor and a client stub.
//
// Messages are tagged Go structs in the classic protoc-gen-go layout and
// travel through gRPC's default "proto" codec, so any protobuf client of
// keyvault.v1.KeyVault can talk to the server.
package proto

import (
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/protoadapt"
)

func compactText(m protoadapt.MessageV1) string {
	return prototext.MarshalOptions{}.Format(protoadapt.MessageV2Of(m))
}

type SignInRequest struct {
	Email    string `protobuf:"bytes,1,opt,name=email,proto3" json:"email,omitempty"`
	Password string `protobuf:"bytes,2,opt,name=password,proto3" json:"password,omitempty"`
}

func (m *SignInRequest) Reset()         { *m = SignInRequest{} }
func (m *SignInRequest) String() string { return compactText(m) }
func (*SignInRequest) ProtoMessage()    {}

func (m *SignInRequest) GetEmail() string {
	if m != nil {
		return m.Email
	}
	return ""
}

func (m *SignInRequest) GetPassword() string {
	if m != nil {
		return m.Password
	}
	return ""
}

type SignInResponse struct {
	AccessToken string `protobuf:"bytes,1,opt,name=access_token,json=accessToken,proto3" json:"access_token,omitempty"`
}

func (m *SignInResponse) Reset()         { *m = SignInResponse{} }
func (m *SignInResponse) String() string { return compactText(m) }
func (*SignInResponse) ProtoMessage()    {}

func (m *SignInResponse) GetAccessToken() string {
	if m != nil {
		return m.AccessToken
	}
	return ""
}

type GenerateKeyPairRequest struct{}

func (m *GenerateKeyPairRequest) Reset()         { *m = GenerateKeyPairRequest{} }
func (m *GenerateKeyPairRequest) String() string { return compactText(m) }
func (*GenerateKeyPairRequest) ProtoMessage()    {}

type GetPublicKeyRequest struct{}

func (m *GetPublicKeyRequest) Reset()         { *m = GetPublicKeyRequest{} }
func (m *GetPublicKeyRequest) String() string { return compactText(m) }
func (*GetPublicKeyRequest) ProtoMessage()    {}

// KeyPair is the public part of a user's key pair. CreatedAt is RFC 3339.
type KeyPair struct {
	PublicKey   string `protobuf:"bytes,1,opt,name=public_key,json=publicKey,proto3" json:"public_key,omitempty"`
	Fingerprint string `protobuf:"bytes,2,opt,name=fingerprint,proto3" json:"fingerprint,omitempty"`
	Algorithm   string `protobuf:"bytes,3,opt,name=algorithm,proto3" json:"algorithm,omitempty"`
	CreatedAt   string `protobuf:"bytes,4,opt,name=created_at,json=createdAt,proto3" json:"created_at,omitempty"`
}

func (m *KeyPair) Reset()         { *m = KeyPair{} }
func (m *KeyPair) String() string { return compactText(m) }
func (*KeyPair) ProtoMessage()    {}

func (m *KeyPair) GetPublicKey() string {
	if m != nil {
		return m.PublicKey
	}
	return ""
}

func (m *KeyPair) GetFingerprint() string {
	if m != nil {
		return m.Fingerprint
	}
	return ""
}

func (m *KeyPair) GetAlgorithm() string {
	if m != nil {
		return m.Algorithm
	}
	return ""
}

func (m *KeyPair) GetCreatedAt() string {
	if m != nil {
		return m.CreatedAt
	}
	return ""
}

type GenerateKeyPairResponse struct {
	KeyPair *KeyPair `protobuf:"bytes,1,opt,name=key_pair,json=keyPair,proto3" json:"key_pair,omitempty"`
	Created bool     `protobuf:"varint,2,opt,name=created,proto3" json:"created,omitempty"`
}

func (m *GenerateKeyPairResponse) Reset()         { *m = GenerateKeyPairResponse{} }
func (m *GenerateKeyPairResponse) String() string { return compactText(m) }
func (*GenerateKeyPairResponse) ProtoMessage()    {}

func (m *GenerateKeyPairResponse) GetKeyPair() *KeyPair {
	if m != nil {
		return m.KeyPair
	}
	return nil
}

func (m *GenerateKeyPairResponse) GetCreated() bool {
	if m != nil {
		return m.Created
	}
	return false
}

type GetPublicKeyResponse struct {
	KeyPair *KeyPair `protobuf:"bytes,1,opt,name=key_pair,json=keyPair,proto3" json:"key_pair,omitempty"`
}

func (m *GetPublicKeyResponse) Reset()         { *m = GetPublicKeyResponse{} }
func (m *GetPublicKeyResponse) String() string { return compactText(m) }
func (*GetPublicKeyResponse) ProtoMessage()    {}

func (m *GetPublicKeyResponse) GetKeyPair() *KeyPair {
	if m != nil {
		return m.KeyPair
	}
	return nil
}

type EncryptRequest struct {
	Plaintext []byte `protobuf:"bytes,1,opt,name=plaintext,proto3" json:"plaintext,omitempty"`
}

func (m *EncryptRequest) Reset()         { *m = EncryptRequest{} }
func (m *EncryptRequest) String() string { return compactText(m) }
func (*EncryptRequest) ProtoMessage()    {}

func (m *EncryptRequest) GetPlaintext() []byte {
	if m != nil {
		return m.Plaintext
	}
	return nil
}

type EncryptResponse struct {
	Ciphertext []byte `protobuf:"bytes,1,opt,name=ciphertext,proto3" json:"ciphertext,omitempty"`
}

func (m *EncryptResponse) Reset()         { *m = EncryptResponse{} }
func (m *EncryptResponse) String() string { return compactText(m) }
func (*EncryptResponse) ProtoMessage()    {}

func (m *EncryptResponse) GetCiphertext() []byte {
	if m != nil {
		return m.Ciphertext
	}
	return nil
}

type DecryptRequest struct {
	Ciphertext []byte `protobuf:"bytes,1,opt,name=ciphertext,proto3" json:"ciphertext,omitempty"`
}

func (m *DecryptRequest) Reset()         { *m = DecryptRequest{} }
func (m *DecryptRequest) String() string { return compactText(m) }
func (*DecryptRequest) ProtoMessage()    {}

func (m *DecryptRequest) GetCiphertext() []byte {
	if m != nil {
		return m.Ciphertext
	}
	return nil
}

type DecryptResponse struct {
	Plaintext []byte `protobuf:"bytes,1,opt,name=plaintext,proto3" json:"plaintext,omitempty"`
}

func (m *DecryptResponse) Reset()         { *m = DecryptResponse{} }
func (m *DecryptResponse) String() string { return compactText(m) }
func (*DecryptResponse) ProtoMessage()    {}

func (m *DecryptResponse) GetPlaintext() []byte {
	if m != nil {
		return m.Plaintext
	}
	return nil
}

type PingRequest struct{}

func (m *PingRequest) Reset()         { *m = PingRequest{} }
func (m *PingRequest) String() string { return compactText(m) }
func (*PingRequest) ProtoMessage()    {}

type PingResponse struct {
	Status string `protobuf:"bytes,1,opt,name=status,proto3" json:"status,omitempty"`
}

func (m *PingResponse) Reset()         { *m = PingResponse{} }
func (m *PingResponse) String() string { return compactText(m) }
func (*PingResponse) ProtoMessage()    {}

func (m *PingResponse) GetStatus() string {
	if m != nil {
		return m.Status
	}
	return ""
}

package models

import (
	"fmt"
	"time"
)

// AlgorithmRSA2048 is the default key-pair algorithm label.
const AlgorithmRSA2048 = "RSA-2048"

// KeyPairRecord is what the vault persists per user. PrivateKeyEncrypted is
// PKCS#8 DER sealed under the master key identified by MasterKeyID, with the
// user id as additional data. It never leaves the vault package.
type KeyPairRecord struct {
	UserID              string    `cbor:"1,keyasint"`
	PublicKey           []byte    `cbor:"2,keyasint"` // PKIX DER
	PrivateKeyEncrypted []byte    `cbor:"3,keyasint"`
	MasterKeyID         string    `cbor:"4,keyasint"`
	Algorithm           string    `cbor:"5,keyasint"`
	CreatedAt           time.Time `cbor:"6,keyasint"`
}

// PublicKeyPair is the public view of a KeyPairRecord.
type PublicKeyPair struct {
	UserID       string
	PublicKeyPEM string
	Fingerprint  string
	Algorithm    string
	CreatedAt    time.Time
}

// RSAAlgorithm labels an RSA key pair of the given modulus size.
func RSAAlgorithm(bits int) string {
	return fmt.Sprintf("RSA-%d", bits)
}

// Package crypto implements the secp256k1 curve engine behind the privacy
// protocol.
//
// It provides Pedersen commitments in the 33-byte confidential-transaction
// encoding, blind sums, ECDSA, ECDH and bulletproof range proofs. The key
// operations of Engine are built on PrivateKey and PublicKey, which also serve
// the command line for WIF keys.
//
// Key formats:
//   - Private keys: WIF (Wallet Import Format) or raw 32 bytes
//   - Public keys: Compressed 33-byte format (0x02/0x03 prefix + x-coordinate)
//   - Commitments: 33 bytes (0x08/0x09 prefix + x-coordinate)
//   - Signatures: DER-encoded, low S
package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// WIF version bytes
const (
	WIFMainnet = 0x80
	WIFTestnet = 0xef
)

// PrivateKey wraps a secp256k1 private key
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// PublicKey wraps a secp256k1 public key
type PublicKey struct {
	key *secp256k1.PublicKey
}

// PrivateKeyFromBytes creates a private key from raw bytes. The value must be
// in [1, n).
func PrivateKeyFromBytes(keyBytes []byte) (*PrivateKey, error) {
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("%w: private key must be 32 bytes, got %d", privacy.ErrInvalidScalar, len(keyBytes))
	}

	var b [32]byte
	copy(b[:], keyBytes)
	k, err := parseScalar(&b)
	if err != nil {
		return nil, err
	}
	return &PrivateKey{key: secp256k1.NewPrivateKey(&k)}, nil
}

// ParsePrivateKeyWIF parses a WIF-encoded private key
//
// WIF format: version_byte || private_key (32 bytes) || [0x01] || checksum (4 bytes)
func ParsePrivateKeyWIF(wif string) (*PrivateKey, error) {
	payload, version, err := base58.CheckDecode(wif)
	if err != nil {
		return nil, fmt.Errorf("invalid WIF: %w", err)
	}
	if version != WIFMainnet && version != WIFTestnet {
		return nil, fmt.Errorf("invalid WIF version byte: 0x%02x", version)
	}

	switch {
	case len(payload) == 32:
	case len(payload) == 33 && payload[32] == 0x01:
		payload = payload[:32]
	default:
		return nil, errors.New("invalid WIF length")
	}
	return PrivateKeyFromBytes(payload)
}

// EncodeWIF encodes a private key to WIF format
func EncodeWIF(privateKey []byte, compressed bool, testnet bool) (string, error) {
	if len(privateKey) != 32 {
		return "", errors.New("private key must be 32 bytes")
	}

	version := byte(WIFMainnet)
	if testnet {
		version = WIFTestnet
	}

	payload := make([]byte, 0, 33)
	payload = append(payload, privateKey...)
	if compressed {
		payload = append(payload, 0x01)
	}
	return base58.CheckEncode(payload, version), nil
}

// Sign creates a low-S ECDSA signature (RFC 6979 nonce) in DER form
func (pk *PrivateKey) Sign(hash [32]byte) []byte {
	return ecdsa.Sign(pk.key, hash[:]).Serialize()
}

// PublicKey derives the public key
func (pk *PrivateKey) PublicKey() *PublicKey {
	return &PublicKey{key: pk.key.PubKey()}
}

// Bytes returns the raw 32-byte private key
func (pk *PrivateKey) Bytes() []byte {
	return pk.key.Serialize()
}

// SharedSecret returns the ECDH secret with pub: SHA256 of the compressed
// encoding of k·pub. This is the default ECDH hash of libsecp256k1.
func (pk *PrivateKey) SharedSecret(pub *PublicKey) ([32]byte, error) {
	p := pub.jacobian()
	shared := scalarMult(&pk.key.Key, &p)
	encoded, err := encodePubKey(&shared)
	if err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(encoded[:]), nil
}

// SerializeCompressed returns the 33-byte compressed public key
func (pub *PublicKey) SerializeCompressed() [33]byte {
	var result [33]byte
	copy(result[:], pub.key.SerializeCompressed())
	return result
}

// Bytes returns the compressed public key bytes
func (pub *PublicKey) Bytes() []byte {
	return pub.key.SerializeCompressed()
}

// Verify checks a DER ECDSA signature over hash. Only low-S signatures are
// accepted.
func (pub *PublicKey) Verify(hash [32]byte, signature []byte) error {
	sig, err := ecdsa.ParseDERSignature(signature)
	if err != nil {
		return fmt.Errorf("%w: %v", privacy.ErrSignatureEncoding, err)
	}
	s := sig.S()
	if s.IsOverHalfOrder() {
		return fmt.Errorf("%w: high S value", privacy.ErrSignatureInvalid)
	}

	if !sig.Verify(hash[:], pub.key) {
		return privacy.ErrSignatureInvalid
	}
	return nil
}

func (pub *PublicKey) jacobian() secp256k1.JacobianPoint {
	var p secp256k1.JacobianPoint
	pub.key.AsJacobian(&p)
	return p
}

// ParsePublicKey parses a compressed or uncompressed SEC1 public key
func ParsePublicKey(pubKeyBytes []byte) (*PublicKey, error) {
	pubKey, err := secp256k1.ParsePubKey(pubKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", privacy.ErrInvalidPoint, err)
	}
	return &PublicKey{key: pubKey}, nil
}

// VerifySignature reports whether signature is a valid low-S DER signature
// of hash under pubkey.
func VerifySignature(pubkey *PublicKey, hash [32]byte, signature []byte) bool {
	return pubkey.Verify(hash, signature) == nil
}

func publicKeyFromPoint(p *secp256k1.JacobianPoint) (*PublicKey, error) {
	if isInfinity(p) {
		return nil, privacy.ErrPointAtInfinity
	}
	var a secp256k1.JacobianPoint
	a.Set(p)
	a.ToAffine()
	return &PublicKey{key: secp256k1.NewPublicKey(&a.X, &a.Y)}, nil
}

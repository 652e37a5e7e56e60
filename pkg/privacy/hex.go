package privacy

import (
	"encoding/hex"
)

// Fixed widths of values crossing the API boundary, in raw bytes.
const (
	ScalarSize       = 32   // Private keys and blinding factors
	PointSize        = 33   // Compressed public keys and serialized commitments
	DigestSize       = 32   // Messages signed by the excess protocol
	MaxSignatureSize = 72   // DER-encoded ECDSA signature
	MaxProofSize     = 2000 // Serialized range proof
)

// EncodeHex renders b as lowercase hexadecimal text.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex decodes s, which must encode exactly size bytes.
//
// A wrong width (for example 63 or 64 characters where 66 are required) or a
// non-hex character is an InvalidParameter error.
func DecodeHex(s string, size int) ([]byte, error) {
	if len(s) != 2*size {
		return nil, invalidParameter("expected %d hex chars, got %d", 2*size, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, newError(InvalidParameter, err)
	}
	return b, nil
}

// DecodeHexMax decodes a variable-width value of 1..max bytes.
func DecodeHexMax(s string, max int) ([]byte, error) {
	if len(s) == 0 || len(s)%2 != 0 || len(s) > 2*max {
		return nil, invalidParameter("expected 2..%d hex chars of even length, got %d", 2*max, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, newError(InvalidParameter, err)
	}
	return b, nil
}

// DecodeHexLoose decodes s without checking its width. Text that is not hex
// yields nil, which the protocol layer rejects as InvalidParameter once its
// own count limits have passed.
func DecodeHexLoose(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}

// DecodeHexList decodes every element of list with DecodeHexLoose.
//
// Element widths are left to the protocol layer, which checks them after its
// count limits: an oversized list reports OutOfRange even when an element is
// malformed.
func DecodeHexList(list []string) [][]byte {
	out := make([][]byte, len(list))
	for i, s := range list {
		out[i] = DecodeHexLoose(s)
	}
	return out
}

// Scalar is a 32-byte value modulo the curve order: a private key, a blinding
// factor or a blinding excess.
type Scalar [ScalarSize]byte

// PublicKey is a 33-byte compressed curve point.
type PublicKey [PointSize]byte

// Commitment is a serialized Pedersen commitment.
type Commitment [PointSize]byte

// RangeProof is an opaque bulletproof bound to one commitment.
type RangeProof []byte

// ExcessSignature is a DER-encoded ECDSA signature made with a blinding
// excess as the private key.
type ExcessSignature []byte

func (s Scalar) Bytes() []byte { return s[:] }
func (s Scalar) Hex() string   { return EncodeHex(s[:]) }

func (p PublicKey) Bytes() []byte  { return p[:] }
func (p PublicKey) Hex() string    { return EncodeHex(p[:]) }
func (p PublicKey) String() string { return p.Hex() }

func (c Commitment) Bytes() []byte  { return c[:] }
func (c Commitment) Hex() string    { return EncodeHex(c[:]) }
func (c Commitment) String() string { return c.Hex() }

func (r RangeProof) Hex() string      { return EncodeHex(r) }
func (s ExcessSignature) Hex() string { return EncodeHex(s) }

func toScalar(b []byte) (*[32]byte, error) {
	if len(b) != ScalarSize {
		return nil, invalidParameter("scalar must be %d bytes, got %d", ScalarSize, len(b))
	}
	var out [32]byte
	copy(out[:], b)
	return &out, nil
}

func toPoint(b []byte) (*[33]byte, error) {
	if len(b) != PointSize {
		return nil, invalidParameter("point must be %d bytes, got %d", PointSize, len(b))
	}
	var out [33]byte
	copy(out[:], b)
	return &out, nil
}

func toDigest(b []byte) (*[32]byte, error) {
	if len(b) != DigestSize {
		return nil, invalidParameter("message must be a %d-byte digest, got %d", DigestSize, len(b))
	}
	var out [32]byte
	copy(out[:], b)
	return &out, nil
}

// Text encodings, so the fixed-width types read and write as hex in JSON
// and YAML documents.

func (s Scalar) MarshalText() ([]byte, error) { return []byte(s.Hex()), nil }

func (s *Scalar) UnmarshalText(text []byte) error {
	return decodeFixed(s[:], string(text))
}

func (p PublicKey) MarshalText() ([]byte, error) { return []byte(p.Hex()), nil }

func (p *PublicKey) UnmarshalText(text []byte) error {
	return decodeFixed(p[:], string(text))
}

func (c Commitment) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c *Commitment) UnmarshalText(text []byte) error {
	return decodeFixed(c[:], string(text))
}

func (r RangeProof) MarshalText() ([]byte, error) { return []byte(r.Hex()), nil }

func (r *RangeProof) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = nil
		return nil
	}
	b, err := DecodeHexMax(string(text), MaxProofSize)
	if err != nil {
		return err
	}
	*r = b
	return nil
}

func (s ExcessSignature) MarshalText() ([]byte, error) { return []byte(s.Hex()), nil }

func (s *ExcessSignature) UnmarshalText(text []byte) error {
	b, err := DecodeHexMax(string(text), MaxSignatureSize)
	if err != nil {
		return err
	}
	*s = b
	return nil
}

func decodeFixed(dst []byte, s string) error {
	b, err := DecodeHex(s, len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

package privacy

import "errors"

// Element is a group element owned by the CurveEngine that produced it.
//
// The core never looks inside an Element: it only passes it back to the
// engine that created it. Mixing elements from different engines is an
// illegal argument.
type Element interface {
	// IsInfinity reports whether the element is the identity of the group.
	IsInfinity() bool
}

// CurveEngine is the capability set the protocol layer consumes from the
// elliptic-curve / bulletproof library.
//
// Implementations own their curve context and generator set. Range-proof
// calls may use a shared scratch workspace and must serialize themselves;
// every other call must be safe for concurrent use.
//
// Failures are reported with the sentinel errors below (wrapped as needed) so
// the core can choose the right ErrorCode for its call site.
type CurveEngine interface {
	// Commit computes blind·G + value·H.
	Commit(value uint64, blind *[32]byte) (Element, error)
	// ParseCommitment decodes a 33-byte serialized Pedersen commitment.
	ParseCommitment(data *[33]byte) (Element, error)
	// SerializeCommitment encodes a commitment as 33 bytes.
	SerializeCommitment(e Element) ([33]byte, error)

	// Identity returns the point at infinity.
	Identity() Element
	// Add returns a + b.
	Add(a, b Element) (Element, error)
	// Negate returns −a.
	Negate(a Element) (Element, error)

	// PubkeyCreate computes priv·G.
	PubkeyCreate(priv *[32]byte) (Element, error)
	// ParsePubkey decodes a compressed or uncompressed SEC1 public key.
	ParsePubkey(data []byte) (Element, error)
	// SerializePubkey encodes an element as a 33-byte compressed public key.
	SerializePubkey(e Element) ([33]byte, error)
	// ECDH returns the shared secret hash for priv·pub.
	ECDH(priv *[32]byte, pub Element) ([32]byte, error)

	// ECDSASign signs a 32-byte digest and returns the DER encoding.
	ECDSASign(priv *[32]byte, digest *[32]byte) ([]byte, error)
	// ECDSAVerify checks a DER signature over a 32-byte digest.
	ECDSAVerify(pub Element, digest *[32]byte, der []byte) error

	// BlindSum returns Σ blinds[:npositive] − Σ blinds[npositive:] mod n.
	BlindSum(blinds [][32]byte, npositive int) ([32]byte, error)
	// VerifyTally reports whether Σ pos − Σ neg is the identity.
	VerifyTally(pos, neg []Element) (bool, error)

	// RangeProofProve proves that value·H + blind·G commits to a value in
	// [0, 2^bits). nonce seeds the prover's randomness.
	RangeProofProve(value uint64, blind *[32]byte, nonce *[32]byte) ([]byte, error)
	// RangeProofVerify checks proof against commit.
	RangeProofVerify(commit Element, proof []byte) error
}

// Failure kinds a CurveEngine reports.
var (
	ErrInvalidScalar     = errors.New("scalar is zero or not below the group order")
	ErrInvalidPoint      = errors.New("bytes do not encode a curve point")
	ErrPointAtInfinity   = errors.New("point at infinity")
	ErrSignatureEncoding = errors.New("malformed DER signature")
	ErrSignatureInvalid  = errors.New("signature does not verify")
	ErrSigningFailed     = errors.New("ecdsa signing failed")
	ErrProofInvalid      = errors.New("range proof does not verify")
	ErrValueOutOfRange   = errors.New("value does not fit the proof bit width")

	// ErrIllegalArgument reports misuse of the engine API, such as passing
	// an Element from a different engine.
	ErrIllegalArgument = errors.New("illegal argument")
	// ErrInternalConsistency reports a broken engine invariant.
	ErrInternalConsistency = errors.New("internal consistency check failed")
)

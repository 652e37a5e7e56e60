package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// Serialized point prefixes
const (
	pubKeyEven    = 0x02 // Compressed public key, even y
	pubKeyOdd     = 0x03 // Compressed public key, odd y
	commitResidue = 0x08 // Commitment, y is a quadratic residue
	commitNonRes  = 0x09 // Commitment, y is not a quadratic residue
)

// Point is a secp256k1 group element. It is the privacy.Element produced and
// consumed by Engine.
type Point struct {
	jp secp256k1.JacobianPoint
}

// IsInfinity reports whether p is the identity.
func (p *Point) IsInfinity() bool {
	return isInfinity(&p.jp)
}

// asPoint unwraps an element produced by this package.
func asPoint(e privacy.Element) (*Point, error) {
	p, ok := e.(*Point)
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: element %T was not produced by the secp256k1 engine", privacy.ErrIllegalArgument, e)
	}
	return p, nil
}

// ============================================================================
// Jacobian point helpers
// ============================================================================
//
// Every point handled here is normalized: the decred routines return
// normalized results and the helpers below preserve that.

func isInfinity(p *secp256k1.JacobianPoint) bool {
	return (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero()
}

func addPoints(a, b *secp256k1.JacobianPoint) secp256k1.JacobianPoint {
	var r secp256k1.JacobianPoint
	secp256k1.AddNonConst(a, b, &r)
	return r
}

func negatePoint(a *secp256k1.JacobianPoint) secp256k1.JacobianPoint {
	var r secp256k1.JacobianPoint
	r.Set(a)
	if isInfinity(&r) {
		return r
	}
	r.ToAffine()
	r.Y.Negate(1).Normalize()
	return r
}

func scalarMult(k *secp256k1.ModNScalar, p *secp256k1.JacobianPoint) secp256k1.JacobianPoint {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(k, p, &r)
	return r
}

func scalarBaseMult(k *secp256k1.ModNScalar) secp256k1.JacobianPoint {
	var r secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &r)
	return r
}

// multiScalarMult computes Σ scalars[i]·points[i].
func multiScalarMult(scalars []secp256k1.ModNScalar, points []secp256k1.JacobianPoint) secp256k1.JacobianPoint {
	var acc secp256k1.JacobianPoint
	for i := range scalars {
		if scalars[i].IsZero() {
			continue
		}
		term := scalarMult(&scalars[i], &points[i])
		acc = addPoints(&acc, &term)
	}
	return acc
}

// isQuadResidue reports whether y has a square root modulo p.
func isQuadResidue(y *secp256k1.FieldVal) bool {
	var root secp256k1.FieldVal
	return root.SquareRootVal(y)
}

// liftX returns the point with the given x coordinate whose y has the
// requested parity.
func liftX(x *secp256k1.FieldVal, odd bool) (secp256k1.JacobianPoint, bool) {
	var y secp256k1.FieldVal
	if !secp256k1.DecompressY(x, odd, &y) {
		return secp256k1.JacobianPoint{}, false
	}
	var one secp256k1.FieldVal
	one.SetInt(1)
	return secp256k1.MakeJacobianPoint(x, &y, &one), true
}

// ============================================================================
// Encodings
// ============================================================================

// encodePubKey writes the 33-byte SEC1 compressed form of p.
func encodePubKey(p *secp256k1.JacobianPoint) ([33]byte, error) {
	var out [33]byte
	if isInfinity(p) {
		return out, privacy.ErrPointAtInfinity
	}
	var a secp256k1.JacobianPoint
	a.Set(p)
	a.ToAffine()

	out[0] = pubKeyEven
	if a.Y.IsOdd() {
		out[0] = pubKeyOdd
	}
	a.X.PutBytesUnchecked(out[1:])
	return out, nil
}

// decodePubKey parses a compressed or uncompressed SEC1 public key.
func decodePubKey(data []byte) (secp256k1.JacobianPoint, error) {
	pub, err := ParsePublicKey(data)
	if err != nil {
		return secp256k1.JacobianPoint{}, err
	}
	return pub.jacobian(), nil
}

// encodeCommitment writes the 33-byte commitment form of p: a prefix telling
// whether y is a quadratic residue, followed by x.
func encodeCommitment(p *secp256k1.JacobianPoint) ([33]byte, error) {
	var out [33]byte
	if isInfinity(p) {
		return out, privacy.ErrPointAtInfinity
	}
	var a secp256k1.JacobianPoint
	a.Set(p)
	a.ToAffine()

	out[0] = commitNonRes
	if isQuadResidue(&a.Y) {
		out[0] = commitResidue
	}
	a.X.PutBytesUnchecked(out[1:])
	return out, nil
}

// decodeCommitment is the inverse of encodeCommitment.
func decodeCommitment(data *[33]byte) (secp256k1.JacobianPoint, error) {
	if data[0]&0xfe != commitResidue {
		return secp256k1.JacobianPoint{}, fmt.Errorf("%w: commitment prefix 0x%02x", privacy.ErrInvalidPoint, data[0])
	}

	var xb [32]byte
	copy(xb[:], data[1:])
	var x secp256k1.FieldVal
	if overflow := x.SetBytes(&xb); overflow != 0 {
		return secp256k1.JacobianPoint{}, fmt.Errorf("%w: x not below the field prime", privacy.ErrInvalidPoint)
	}

	// Exactly one of the two roots is a residue since p ≡ 3 mod 4.
	p, ok := liftX(&x, false)
	if !ok {
		return p, fmt.Errorf("%w: x is not on the curve", privacy.ErrInvalidPoint)
	}
	wantResidue := data[0] == commitResidue
	if isQuadResidue(&p.Y) != wantResidue {
		p.Y.Negate(1).Normalize()
	}
	return p, nil
}

// parseScalar reads a 32-byte big-endian value that must be in [1, n).
func parseScalar(b *[32]byte) (secp256k1.ModNScalar, error) {
	var s secp256k1.ModNScalar
	if overflow := s.SetBytes(b); overflow != 0 {
		return s, fmt.Errorf("%w: not below the group order", privacy.ErrInvalidScalar)
	}
	if s.IsZero() {
		return s, fmt.Errorf("%w: zero", privacy.ErrInvalidScalar)
	}
	return s, nil
}

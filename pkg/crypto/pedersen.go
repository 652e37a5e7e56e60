package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// pedersenCommit computes blind·G + value·H.
func pedersenCommit(value uint64, blind *secp256k1.ModNScalar) secp256k1.JacobianPoint {
	v := scalarFromUint64(value)
	return pedersenCommitScalar(&v, blind)
}

// pedersenCommitScalar computes blind·G + v·H for a scalar v.
func pedersenCommitScalar(v, blind *secp256k1.ModNScalar) secp256k1.JacobianPoint {
	c := scalarBaseMult(blind)
	if v.IsZero() {
		return c
	}
	vh := scalarMult(v, &generatorH)
	return addPoints(&c, &vh)
}

// blindSum returns Σ blinds[:npositive] − Σ blinds[npositive:] mod n.
//
// Zero blinds are accepted, but every blind must be below the group order.
func blindSum(blinds [][32]byte, npositive int) ([32]byte, error) {
	if npositive < 0 || npositive > len(blinds) {
		return [32]byte{}, fmt.Errorf("%w: pivot %d for %d blinds", privacy.ErrIllegalArgument, npositive, len(blinds))
	}

	var acc secp256k1.ModNScalar
	for i := range blinds {
		var s secp256k1.ModNScalar
		if overflow := s.SetBytes(&blinds[i]); overflow != 0 {
			return [32]byte{}, fmt.Errorf("%w: blind %d not below the group order", privacy.ErrInvalidScalar, i)
		}
		if i >= npositive {
			s.Negate()
		}
		acc.Add(&s)
	}
	return acc.Bytes(), nil
}

// sumPoints returns Σ pos − Σ neg.
func sumPoints(pos, neg []*Point) secp256k1.JacobianPoint {
	var acc secp256k1.JacobianPoint
	for _, p := range pos {
		acc = addPoints(&acc, &p.jp)
	}
	for _, p := range neg {
		inv := negatePoint(&p.jp)
		acc = addPoints(&acc, &inv)
	}
	return acc
}

package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// innerProductProof shows knowledge of vectors a, b with
// P = <a,G> + <b,H> + <a,b>·Q in log2(n) rounds.
type innerProductProof struct {
	L [][33]byte
	R [][33]byte
	A secp256k1.ModNScalar
	B secp256k1.ModNScalar
}

// proveInnerProduct runs the prover side of the argument.
//
// a, b, g and h are folded in place and hold garbage afterwards; the caller
// passes workspace buffers.
func proveInnerProduct(tr *transcript, q *secp256k1.JacobianPoint,
	g, h []secp256k1.JacobianPoint, a, b []secp256k1.ModNScalar) (*innerProductProof, error) {

	proof := &innerProductProof{}
	n := len(a)
	for n > 1 {
		n /= 2
		aLo, aHi := a[:n], a[n:2*n]
		bLo, bHi := b[:n], b[n:2*n]
		gLo, gHi := g[:n], g[n:2*n]
		hLo, hHi := h[:n], h[n:2*n]

		cL := innerProduct(aLo, bHi)
		cR := innerProduct(aHi, bLo)

		left := foldCommit(aLo, gHi, bHi, hLo, &cL, q)
		right := foldCommit(aHi, gLo, bLo, hHi, &cR, q)

		lBytes, err := encodePubKey(&left)
		if err != nil {
			return nil, fmt.Errorf("inner product L: %w", err)
		}
		rBytes, err := encodePubKey(&right)
		if err != nil {
			return nil, fmt.Errorf("inner product R: %w", err)
		}
		proof.L = append(proof.L, lBytes)
		proof.R = append(proof.R, rBytes)

		tr.appendBytes("L", lBytes[:])
		tr.appendBytes("R", rBytes[:])
		u, err := tr.challenge("u")
		if err != nil {
			return nil, err
		}
		uInv := scalarInverse(&u)

		for i := 0; i < n; i++ {
			a[i] = linear(&aLo[i], &u, &aHi[i], &uInv)
			b[i] = linear(&bLo[i], &uInv, &bHi[i], &u)
			g[i] = foldPoint(&gLo[i], &uInv, &gHi[i], &u)
			h[i] = foldPoint(&hLo[i], &u, &hHi[i], &uInv)
		}
		a, b, g, h = a[:n], b[:n], g[:n], h[:n]
	}

	proof.A = a[0]
	proof.B = b[0]
	return proof, nil
}

// verifyInnerProduct checks proof against p. g and h are folded in place.
func verifyInnerProduct(tr *transcript, q *secp256k1.JacobianPoint,
	g, h []secp256k1.JacobianPoint, p secp256k1.JacobianPoint, proof *innerProductProof) error {

	n := len(g)
	if n != 1<<uint(len(proof.L)) || len(proof.L) != len(proof.R) {
		return fmt.Errorf("%w: %d inner product rounds for %d generators", privacy.ErrProofInvalid, len(proof.L), n)
	}

	for round := range proof.L {
		tr.appendBytes("L", proof.L[round][:])
		tr.appendBytes("R", proof.R[round][:])
		u, err := tr.challenge("u")
		if err != nil {
			return err
		}
		uInv := scalarInverse(&u)
		u2 := scalarMul(&u, &u)
		uInv2 := scalarMul(&uInv, &uInv)

		left, err := decodePubKey(proof.L[round][:])
		if err != nil {
			return fmt.Errorf("%w: inner product L", privacy.ErrProofInvalid)
		}
		right, err := decodePubKey(proof.R[round][:])
		if err != nil {
			return fmt.Errorf("%w: inner product R", privacy.ErrProofInvalid)
		}

		// P' = u²·L + P + u⁻²·R
		lTerm := scalarMult(&u2, &left)
		rTerm := scalarMult(&uInv2, &right)
		p = addPoints(&p, &lTerm)
		p = addPoints(&p, &rTerm)

		n /= 2
		for i := 0; i < n; i++ {
			g[i] = foldPoint(&g[i], &uInv, &g[n+i], &u)
			h[i] = foldPoint(&h[i], &u, &h[n+i], &uInv)
		}
		g, h = g[:n], h[:n]
	}

	ab := scalarMul(&proof.A, &proof.B)
	aG := scalarMult(&proof.A, &g[0])
	bH := scalarMult(&proof.B, &h[0])
	abQ := scalarMult(&ab, q)
	want := addPoints(&aG, &bH)
	want = addPoints(&want, &abQ)

	if !p.EquivalentNonConst(&want) {
		return fmt.Errorf("%w: inner product check", privacy.ErrProofInvalid)
	}
	return nil
}

// foldCommit computes <a,g> + <b,h> + c·q.
func foldCommit(a []secp256k1.ModNScalar, g []secp256k1.JacobianPoint,
	b []secp256k1.ModNScalar, h []secp256k1.JacobianPoint,
	c *secp256k1.ModNScalar, q *secp256k1.JacobianPoint) secp256k1.JacobianPoint {

	ag := multiScalarMult(a, g)
	bh := multiScalarMult(b, h)
	cq := scalarMult(c, q)
	out := addPoints(&ag, &bh)
	return addPoints(&out, &cq)
}

// linear returns x·s + y·t.
func linear(x, s, y, t *secp256k1.ModNScalar) secp256k1.ModNScalar {
	xs := scalarMul(x, s)
	yt := scalarMul(y, t)
	return scalarAdd(&xs, &yt)
}

// foldPoint returns s·p + t·q.
func foldPoint(p *secp256k1.JacobianPoint, s *secp256k1.ModNScalar,
	q *secp256k1.JacobianPoint, t *secp256k1.ModNScalar) secp256k1.JacobianPoint {

	sp := scalarMult(s, p)
	tq := scalarMult(t, q)
	return addPoints(&sp, &tq)
}

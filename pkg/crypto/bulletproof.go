package crypto

import (
	"fmt"
	"math/bits"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// ============================================================================
// Bulletproof range proofs
// ============================================================================
//
// A proof shows that V = γ·G + v·H commits to v ∈ [0, 2^n). The blinding
// generator is the curve base point G and the value generator is the
// commitment generator H, so proofs bind directly to Pedersen commitments.
//
// Wire layout (all points 33-byte compressed, all scalars 32-byte big-endian):
//
//	A ‖ S ‖ T1 ‖ T2 ‖ τx ‖ μ ‖ t̂ ‖ (L_i ‖ R_i) for log2(n) rounds ‖ a ‖ b
//
// For n = 64 a proof is 688 bytes.

// ProofSize returns the serialized size of a range proof over n bits.
func ProofSize(n int) int {
	rounds := bits.TrailingZeros(uint(n))
	return 4*33 + 3*32 + 2*rounds*33 + 2*32
}

type rangeProof struct {
	A, S, T1, T2   [33]byte
	TauX, Mu, THat secp256k1.ModNScalar
	IPP            innerProductProof
}

// Bytes serializes the proof.
func (p *rangeProof) Bytes() []byte {
	out := make([]byte, 0, 4*33+3*32+len(p.IPP.L)*66+64)
	for _, pt := range [][33]byte{p.A, p.S, p.T1, p.T2} {
		out = append(out, pt[:]...)
	}
	for _, s := range []*secp256k1.ModNScalar{&p.TauX, &p.Mu, &p.THat} {
		b := s.Bytes()
		out = append(out, b[:]...)
	}
	for i := range p.IPP.L {
		out = append(out, p.IPP.L[i][:]...)
		out = append(out, p.IPP.R[i][:]...)
	}
	a := p.IPP.A.Bytes()
	b := p.IPP.B.Bytes()
	out = append(out, a[:]...)
	return append(out, b[:]...)
}

// parseRangeProof decodes a proof over n bits. The length must be exact and
// every scalar canonical.
func parseRangeProof(data []byte, n int) (*rangeProof, error) {
	if len(data) != ProofSize(n) {
		return nil, fmt.Errorf("%w: proof is %d bytes, want %d", privacy.ErrProofInvalid, len(data), ProofSize(n))
	}

	p := &rangeProof{}
	off := 0
	readPoint := func() [33]byte {
		var pt [33]byte
		copy(pt[:], data[off:off+33])
		off += 33
		return pt
	}
	readScalar := func(s *secp256k1.ModNScalar) error {
		var b [32]byte
		copy(b[:], data[off:off+32])
		off += 32
		if s.SetBytes(&b) != 0 {
			return fmt.Errorf("%w: non-canonical scalar at offset %d", privacy.ErrProofInvalid, off-32)
		}
		return nil
	}

	p.A, p.S, p.T1, p.T2 = readPoint(), readPoint(), readPoint(), readPoint()
	for _, s := range []*secp256k1.ModNScalar{&p.TauX, &p.Mu, &p.THat} {
		if err := readScalar(s); err != nil {
			return nil, err
		}
	}

	rounds := bits.TrailingZeros(uint(n))
	p.IPP.L = make([][33]byte, rounds)
	p.IPP.R = make([][33]byte, rounds)
	for i := 0; i < rounds; i++ {
		p.IPP.L[i] = readPoint()
		p.IPP.R[i] = readPoint()
	}
	if err := readScalar(&p.IPP.A); err != nil {
		return nil, err
	}
	if err := readScalar(&p.IPP.B); err != nil {
		return nil, err
	}
	return p, nil
}

// workspace holds the vectors reused across proofs. It belongs to one Engine
// and is only touched under the engine's range-proof lock.
type workspace struct {
	l, r   []secp256k1.ModNScalar
	sL, sR []secp256k1.ModNScalar
	r1     []secp256k1.ModNScalar
	g, h   []secp256k1.JacobianPoint
}

func newWorkspace(n int) *workspace {
	return &workspace{
		l:  make([]secp256k1.ModNScalar, n),
		r:  make([]secp256k1.ModNScalar, n),
		sL: make([]secp256k1.ModNScalar, n),
		sR: make([]secp256k1.ModNScalar, n),
		r1: make([]secp256k1.ModNScalar, n),
		g:  make([]secp256k1.JacobianPoint, n),
		h:  make([]secp256k1.JacobianPoint, n),
	}
}

// loadGenerators fills the workspace generator buffers with G and
// H'_i = y^-i·H_i.
func (ws *workspace) loadGenerators(gens *GeneratorSet, n int, yInvPow []secp256k1.ModNScalar) {
	copy(ws.g[:n], gens.G[:n])
	for i := 0; i < n; i++ {
		ws.h[i] = scalarMult(&yInvPow[i], &gens.H[i])
	}
}

// proveRange builds a proof that value·H + gamma·G commits to a value in
// [0, 2^n).
func proveRange(gens *GeneratorSet, ws *workspace, n int, value uint64,
	gamma *secp256k1.ModNScalar, blind, nonce *[32]byte) (*rangeProof, error) {

	if n < 64 && value>>uint(n) != 0 {
		return nil, fmt.Errorf("%w: %d needs more than %d bits", privacy.ErrValueOutOfRange, value, n)
	}

	stream := newProverStream(nonce, blind)
	var alpha, rho, tau1, tau2 secp256k1.ModNScalar
	for _, s := range []struct {
		label string
		dst   *secp256k1.ModNScalar
	}{{"alpha", &alpha}, {"rho", &rho}, {"tau1", &tau1}, {"tau2", &tau2}} {
		v, err := stream.scalar(s.label, 0)
		if err != nil {
			return nil, err
		}
		*s.dst = v
	}
	sL, sR := ws.sL[:n], ws.sR[:n]
	if err := stream.vector("sL", sL); err != nil {
		return nil, err
	}
	if err := stream.vector("sR", sR); err != nil {
		return nil, err
	}

	gv, hv := gens.G[:n], gens.H[:n]
	proof := &rangeProof{}

	commit := pedersenCommit(value, gamma)
	vBytes, err := encodeCommitment(&commit)
	if err != nil {
		return nil, err
	}

	// A = α·G + <aL, Gv> + <aR, Hv> with aL the bits of value and aR = aL − 1.
	a := scalarBaseMult(&alpha)
	for i := 0; i < n; i++ {
		if value>>uint(i)&1 == 1 {
			a = addPoints(&a, &gv[i])
		} else {
			neg := negatePoint(&hv[i])
			a = addPoints(&a, &neg)
		}
	}
	s := scalarBaseMult(&rho)
	sg := multiScalarMult(sL, gv)
	sh := multiScalarMult(sR, hv)
	s = addPoints(&s, &sg)
	s = addPoints(&s, &sh)

	if proof.A, err = encodePubKey(&a); err != nil {
		return nil, err
	}
	if proof.S, err = encodePubKey(&s); err != nil {
		return nil, err
	}

	tr := newTranscript(n)
	tr.appendBytes("V", vBytes[:])
	tr.appendBytes("A", proof.A[:])
	tr.appendBytes("S", proof.S[:])
	y, err := tr.challenge("y")
	if err != nil {
		return nil, err
	}
	z, err := tr.challenge("z")
	if err != nil {
		return nil, err
	}

	var one, minusOne, two secp256k1.ModNScalar
	one.SetInt(1)
	minusOne.NegateVal(&one)
	two.SetInt(2)
	yPow := powers(&y, n)
	twoPow := powers(&two, n)
	z2 := scalarMul(&z, &z)

	// l(X) = (aL − z) + sL·X
	// r(X) = y^n ∘ (aR + z + sR·X) + z²·2^n
	l0, r0, r1 := ws.l[:n], ws.r[:n], ws.r1[:n]
	for i := 0; i < n; i++ {
		var aL, aR secp256k1.ModNScalar
		if value>>uint(i)&1 == 1 {
			aL = one
		} else {
			aR = minusOne
		}
		l0[i] = scalarSub(&aL, &z)

		aRz := scalarAdd(&aR, &z)
		yaRz := scalarMul(&yPow[i], &aRz)
		z22i := scalarMul(&z2, &twoPow[i])
		r0[i] = scalarAdd(&yaRz, &z22i)
		r1[i] = scalarMul(&yPow[i], &sR[i])
	}

	t1a := innerProduct(l0, r1)
	t1b := innerProduct(sL, r0)
	t1 := scalarAdd(&t1a, &t1b)
	t2 := innerProduct(sL, r1)

	bigT1 := pedersenCommitScalar(&t1, &tau1)
	bigT2 := pedersenCommitScalar(&t2, &tau2)
	if proof.T1, err = encodePubKey(&bigT1); err != nil {
		return nil, err
	}
	if proof.T2, err = encodePubKey(&bigT2); err != nil {
		return nil, err
	}

	tr.appendBytes("T1", proof.T1[:])
	tr.appendBytes("T2", proof.T2[:])
	x, err := tr.challenge("x")
	if err != nil {
		return nil, err
	}

	// Evaluate at x in place: l0 becomes l, r0 becomes r.
	for i := 0; i < n; i++ {
		sLx := scalarMul(&sL[i], &x)
		l0[i].Add(&sLx)
		r1x := scalarMul(&r1[i], &x)
		r0[i].Add(&r1x)
	}
	proof.THat = innerProduct(l0, r0)

	x2 := scalarMul(&x, &x)
	tau2x2 := scalarMul(&tau2, &x2)
	tau1x := scalarMul(&tau1, &x)
	z2gamma := scalarMul(&z2, gamma)
	proof.TauX = scalarAdd(&tau2x2, &tau1x)
	proof.TauX.Add(&z2gamma)

	rhoX := scalarMul(&rho, &x)
	proof.Mu = scalarAdd(&alpha, &rhoX)

	tr.appendScalar("tau_x", &proof.TauX)
	tr.appendScalar("mu", &proof.Mu)
	tr.appendScalar("t_hat", &proof.THat)
	w, err := tr.challenge("w")
	if err != nil {
		return nil, err
	}
	q := scalarMult(&w, &gens.U)

	yInv := scalarInverse(&y)
	ws.loadGenerators(gens, n, powers(&yInv, n))

	ipp, err := proveInnerProduct(tr, &q, ws.g[:n], ws.h[:n], l0, r0)
	if err != nil {
		return nil, err
	}
	proof.IPP = *ipp
	return proof, nil
}

// verifyRange checks data against the commitment point v.
func verifyRange(gens *GeneratorSet, ws *workspace, n int, v *secp256k1.JacobianPoint, data []byte) error {
	proof, err := parseRangeProof(data, n)
	if err != nil {
		return err
	}
	vBytes, err := encodeCommitment(v)
	if err != nil {
		return err
	}

	var points [4]secp256k1.JacobianPoint
	for i, raw := range [][33]byte{proof.A, proof.S, proof.T1, proof.T2} {
		if points[i], err = decodePubKey(raw[:]); err != nil {
			return fmt.Errorf("%w: %v", privacy.ErrProofInvalid, err)
		}
	}
	a, s, bigT1, bigT2 := &points[0], &points[1], &points[2], &points[3]

	tr := newTranscript(n)
	tr.appendBytes("V", vBytes[:])
	tr.appendBytes("A", proof.A[:])
	tr.appendBytes("S", proof.S[:])
	y, err := tr.challenge("y")
	if err != nil {
		return err
	}
	z, err := tr.challenge("z")
	if err != nil {
		return err
	}
	tr.appendBytes("T1", proof.T1[:])
	tr.appendBytes("T2", proof.T2[:])
	x, err := tr.challenge("x")
	if err != nil {
		return err
	}
	tr.appendScalar("tau_x", &proof.TauX)
	tr.appendScalar("mu", &proof.Mu)
	tr.appendScalar("t_hat", &proof.THat)
	w, err := tr.challenge("w")
	if err != nil {
		return err
	}

	var two secp256k1.ModNScalar
	two.SetInt(2)
	yPow := powers(&y, n)
	twoPow := powers(&two, n)
	yInv := scalarInverse(&y)
	yInvPow := powers(&yInv, n)
	z2 := scalarMul(&z, &z)
	z3 := scalarMul(&z2, &z)
	x2 := scalarMul(&x, &x)

	// δ(y,z) = (z − z²)·<1, y^n> − z³·<1, 2^n>
	zMinusZ2 := scalarSub(&z, &z2)
	sumY := sumOf(yPow)
	sumTwo := sumOf(twoPow)
	first := scalarMul(&zMinusZ2, &sumY)
	second := scalarMul(&z3, &sumTwo)
	delta := scalarSub(&first, &second)

	// t̂·H + τx·G == z²·V + δ·H + x·T1 + x²·T2
	lhs := pedersenCommitScalar(&proof.THat, &proof.TauX)
	z2v := scalarMult(&z2, v)
	deltaH := scalarMult(&delta, &generatorH)
	xT1 := scalarMult(&x, bigT1)
	x2T2 := scalarMult(&x2, bigT2)
	rhs := addPoints(&z2v, &deltaH)
	rhs = addPoints(&rhs, &xT1)
	rhs = addPoints(&rhs, &x2T2)
	if !lhs.EquivalentNonConst(&rhs) {
		return fmt.Errorf("%w: polynomial check", privacy.ErrProofInvalid)
	}

	// P = A + x·S − z·<1, Gv> + <z + z²·2^i·y^-i, Hv> − μ·G + t̂·Q
	gv, hv := gens.G[:n], gens.H[:n]
	var sumG secp256k1.JacobianPoint
	for i := range gv {
		sumG = addPoints(&sumG, &gv[i])
	}
	var negZ, negMu secp256k1.ModNScalar
	negZ.NegateVal(&z)
	negMu.NegateVal(&proof.Mu)

	hCoeff := ws.r[:n]
	for i := 0; i < n; i++ {
		c := scalarMul(&z2, &twoPow[i])
		c.Mul(&yInvPow[i])
		hCoeff[i] = scalarAdd(&z, &c)
	}

	q := scalarMult(&w, &gens.U)
	xS := scalarMult(&x, s)
	zG := scalarMult(&negZ, &sumG)
	hTerm := multiScalarMult(hCoeff, hv)
	muG := scalarBaseMult(&negMu)
	tQ := scalarMult(&proof.THat, &q)

	p := addPoints(a, &xS)
	p = addPoints(&p, &zG)
	p = addPoints(&p, &hTerm)
	p = addPoints(&p, &muG)
	p = addPoints(&p, &tQ)

	ws.loadGenerators(gens, n, yInvPow)
	return verifyInnerProduct(tr, &q, ws.g[:n], ws.h[:n], p, &proof.IPP)
}

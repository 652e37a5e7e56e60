package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	blake2b "github.com/minio/blake2b-simd"
)

// BLAKE2b personalizations (at most 16 bytes each)
const (
	GeneratorPersonalization = "CTPrivacy_Gens__"
	ProverPersonalization    = "CTPrivacy_Prover"
)

// blake2bNew256 creates a BLAKE2b-256 hash with the given personalization.
// The personalization is a distinct parameter of the hash function, not a key.
func blake2bNew256(personalization []byte) (hash.Hash, error) {
	return blake2b.New(&blake2b.Config{
		Size:   32,
		Person: personalization,
	})
}

// generatorH is the value generator of Pedersen commitments.
//
// Its x coordinate is SHA-256 of the uncompressed encoding of G and its y is
// the even root, giving 0250929b74c1a04954b78b4b6035e97a5e078a5a0f28ec96d547bfee9ace803ac0.
// Nobody knows log_G(H).
var generatorH = func() secp256k1.JacobianPoint {
	params := secp256k1.Params()
	var buf [65]byte
	buf[0] = 0x04
	params.Gx.FillBytes(buf[1:33])
	params.Gy.FillBytes(buf[33:65])
	digest := sha256.Sum256(buf[:])

	var x secp256k1.FieldVal
	x.SetBytes(&digest)
	h, ok := liftX(&x, false)
	if !ok {
		panic("crypto: SHA-256(G) is not an x coordinate")
	}
	return h
}()

// GeneratorSet holds the bulletproof vector generators.
//
// The first half of the set is the G vector and the second half the H vector;
// a proof over n bits uses the first n of each. U is the inner-product
// generator.
type GeneratorSet struct {
	G []secp256k1.JacobianPoint
	H []secp256k1.JacobianPoint
	U secp256k1.JacobianPoint
}

// NewGeneratorSet derives count generators plus U by hashing to the curve.
//
// Each point is found by try-and-increment: BLAKE2b(label ‖ index ‖ counter)
// is read as an x coordinate until it lies on the curve. The result is a
// nothing-up-my-sleeve set independent of G and H.
//
// Parameters:
//   - count: Total number of vector generators, must be even
func NewGeneratorSet(count int) (*GeneratorSet, error) {
	if count <= 0 || count%2 != 0 {
		return nil, fmt.Errorf("generator count must be positive and even, got %d", count)
	}

	half := count / 2
	set := &GeneratorSet{
		G: make([]secp256k1.JacobianPoint, half),
		H: make([]secp256k1.JacobianPoint, half),
	}
	for i := 0; i < half; i++ {
		g, err := hashToPoint("G", uint32(i))
		if err != nil {
			return nil, err
		}
		h, err := hashToPoint("H", uint32(i))
		if err != nil {
			return nil, err
		}
		set.G[i] = g
		set.H[i] = h
	}

	u, err := hashToPoint("U", 0)
	if err != nil {
		return nil, err
	}
	set.U = u
	return set, nil
}

// Size returns the number of vector generators per side.
func (s *GeneratorSet) Size() int {
	return len(s.G)
}

func hashToPoint(label string, index uint32) (secp256k1.JacobianPoint, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[:4], index)

	for counter := uint32(0); counter < 256; counter++ {
		binary.LittleEndian.PutUint32(buf[4:], counter)

		hasher, err := blake2bNew256([]byte(GeneratorPersonalization))
		if err != nil {
			return secp256k1.JacobianPoint{}, err
		}
		hasher.Write([]byte(label))
		hasher.Write(buf[:])

		var digest [32]byte
		copy(digest[:], hasher.Sum(nil))

		var x secp256k1.FieldVal
		if overflow := x.SetBytes(&digest); overflow != 0 {
			continue
		}
		if p, ok := liftX(&x, false); ok {
			return p, nil
		}
	}
	return secp256k1.JacobianPoint{}, fmt.Errorf("no curve point found for generator %s%d", label, index)
}

// proverStream derives the prover's blinding scalars from a nonce.
//
// The stream is keyed with the nonce and the blinding factor, so proofs are
// reproducible for equal inputs and unlinkable otherwise.
type proverStream struct {
	key [64]byte
}

func newProverStream(nonce, blind *[32]byte) *proverStream {
	s := &proverStream{}
	copy(s.key[:32], nonce[:])
	copy(s.key[32:], blind[:])
	return s
}

// scalar returns the index-th scalar labelled label.
func (s *proverStream) scalar(label string, index int) (secp256k1.ModNScalar, error) {
	hasher, err := blake2b.New(&blake2b.Config{
		Size:   64,
		Key:    s.key[:],
		Person: []byte(ProverPersonalization),
	})
	if err != nil {
		return secp256k1.ModNScalar{}, err
	}

	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(index))
	hasher.Write([]byte(label))
	hasher.Write(buf[:])
	return scalarFromWide(hasher.Sum(nil)), nil
}

// vector fills out with successive scalars labelled label.
func (s *proverStream) vector(label string, out []secp256k1.ModNScalar) error {
	for i := range out {
		v, err := s.scalar(label, i)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

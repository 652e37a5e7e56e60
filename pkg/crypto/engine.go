package crypto

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

var _ privacy.CurveEngine = (*Engine)(nil)

// Engine is the secp256k1 CurveEngine.
//
// The generator set is immutable after construction. Range-proof calls share
// one scratch workspace and are serialized by mu; all other calls only read
// immutable state and may run concurrently.
type Engine struct {
	bits int
	gens *GeneratorSet
	log  zerolog.Logger

	mu sync.Mutex // guards ws
	ws *workspace
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger attaches a logger to the engine.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine proving ranges of the given bit width over a
// generator set of the given size.
//
// Parameters:
//   - bits: Range-proof width (8, 16, 32 or 64)
//   - generators: Size of the generator set, even and at least 2·bits
//
// Deriving the generator set is the expensive part of construction; engines
// are meant to be built once and shared.
func NewEngine(bits, generators int, opts ...EngineOption) (*Engine, error) {
	switch bits {
	case 8, 16, 32, 64:
	default:
		return nil, fmt.Errorf("unsupported range proof width %d", bits)
	}
	if generators < 2*bits {
		return nil, fmt.Errorf("%d generators cannot serve %d-bit proofs", generators, bits)
	}

	gens, err := NewGeneratorSet(generators)
	if err != nil {
		return nil, fmt.Errorf("failed to derive generators: %w", err)
	}

	e := &Engine{
		bits: bits,
		gens: gens,
		log:  zerolog.Nop(),
		ws:   newWorkspace(bits),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.log.Debug().
		Int("bits", bits).
		Int("generators", generators).
		Msg("secp256k1 engine ready")
	return e, nil
}

// ============================================================================
// Commitments and group operations
// ============================================================================

func (e *Engine) Commit(value uint64, blind *[32]byte) (privacy.Element, error) {
	k, err := parseScalar(blind)
	if err != nil {
		return nil, err
	}
	c := pedersenCommit(value, &k)
	if isInfinity(&c) {
		return nil, privacy.ErrPointAtInfinity
	}
	return &Point{jp: c}, nil
}

func (e *Engine) ParseCommitment(data *[33]byte) (privacy.Element, error) {
	p, err := decodeCommitment(data)
	if err != nil {
		return nil, err
	}
	return &Point{jp: p}, nil
}

func (e *Engine) SerializeCommitment(el privacy.Element) ([33]byte, error) {
	p, err := asPoint(el)
	if err != nil {
		return [33]byte{}, err
	}
	return encodeCommitment(&p.jp)
}

func (e *Engine) Identity() privacy.Element {
	return &Point{}
}

func (e *Engine) Add(a, b privacy.Element) (privacy.Element, error) {
	pa, err := asPoint(a)
	if err != nil {
		return nil, err
	}
	pb, err := asPoint(b)
	if err != nil {
		return nil, err
	}
	return &Point{jp: addPoints(&pa.jp, &pb.jp)}, nil
}

func (e *Engine) Negate(a privacy.Element) (privacy.Element, error) {
	pa, err := asPoint(a)
	if err != nil {
		return nil, err
	}
	return &Point{jp: negatePoint(&pa.jp)}, nil
}

func (e *Engine) BlindSum(blinds [][32]byte, npositive int) ([32]byte, error) {
	return blindSum(blinds, npositive)
}

func (e *Engine) VerifyTally(pos, neg []privacy.Element) (bool, error) {
	unwrap := func(list []privacy.Element) ([]*Point, error) {
		out := make([]*Point, len(list))
		for i, el := range list {
			p, err := asPoint(el)
			if err != nil {
				return nil, err
			}
			out[i] = p
		}
		return out, nil
	}

	pp, err := unwrap(pos)
	if err != nil {
		return false, err
	}
	np, err := unwrap(neg)
	if err != nil {
		return false, err
	}
	sum := sumPoints(pp, np)
	return isInfinity(&sum), nil
}

// ============================================================================
// Keys and signatures
// ============================================================================

// The key operations below delegate to PrivateKey and PublicKey.

func (e *Engine) PubkeyCreate(priv *[32]byte) (privacy.Element, error) {
	key, err := PrivateKeyFromBytes(priv[:])
	if err != nil {
		return nil, err
	}
	return &Point{jp: key.PublicKey().jacobian()}, nil
}

func (e *Engine) ParsePubkey(data []byte) (privacy.Element, error) {
	pub, err := ParsePublicKey(data)
	if err != nil {
		return nil, err
	}
	return &Point{jp: pub.jacobian()}, nil
}

func (e *Engine) SerializePubkey(el privacy.Element) ([33]byte, error) {
	p, err := asPoint(el)
	if err != nil {
		return [33]byte{}, err
	}
	pub, err := publicKeyFromPoint(&p.jp)
	if err != nil {
		return [33]byte{}, err
	}
	return pub.SerializeCompressed(), nil
}

func (e *Engine) ECDH(priv *[32]byte, pub privacy.Element) ([32]byte, error) {
	key, err := PrivateKeyFromBytes(priv[:])
	if err != nil {
		return [32]byte{}, err
	}
	p, err := asPoint(pub)
	if err != nil {
		return [32]byte{}, err
	}
	other, err := publicKeyFromPoint(&p.jp)
	if err != nil {
		return [32]byte{}, err
	}
	return key.SharedSecret(other)
}

func (e *Engine) ECDSASign(priv *[32]byte, digest *[32]byte) ([]byte, error) {
	key, err := PrivateKeyFromBytes(priv[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", privacy.ErrSigningFailed, err)
	}
	return key.Sign(*digest), nil
}

// ECDSAVerify accepts only low-S signatures.
func (e *Engine) ECDSAVerify(pub privacy.Element, digest *[32]byte, der []byte) error {
	p, err := asPoint(pub)
	if err != nil {
		return err
	}
	key, err := publicKeyFromPoint(&p.jp)
	if err != nil {
		return privacy.ErrInvalidPoint
	}
	return key.Verify(*digest, der)
}

// ============================================================================
// Range proofs
// ============================================================================

func (e *Engine) RangeProofProve(value uint64, blind *[32]byte, nonce *[32]byte) ([]byte, error) {
	gamma, err := parseScalar(blind)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	proof, err := proveRange(e.gens, e.ws, e.bits, value, &gamma, blind, nonce)
	if err != nil {
		e.log.Debug().Err(err).Msg("range proof failed")
		return nil, err
	}
	return proof.Bytes(), nil
}

func (e *Engine) RangeProofVerify(commit privacy.Element, proof []byte) error {
	p, err := asPoint(commit)
	if err != nil {
		return err
	}
	if p.IsInfinity() {
		return privacy.ErrPointAtInfinity
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return verifyRange(e.gens, e.ws, e.bits, &p.jp, proof)
}

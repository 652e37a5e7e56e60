package privacy_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/ct-privacy/pkg/crypto"
	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

var (
	engineOnce sync.Once
	sharedEng  *crypto.Engine
)

// newTestPrivacy builds a facade over one shared secp256k1 engine.
func newTestPrivacy(t *testing.T, opts ...privacy.Option) *privacy.PrivacyEngine {
	t.Helper()
	engineOnce.Do(func() {
		e, err := crypto.NewEngine(64, 256)
		if err != nil {
			panic(err)
		}
		sharedEng = e
	})
	p, err := privacy.New(sharedEng, opts...)
	require.NoError(t, err)
	return p
}

func blind(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func requireCode(t *testing.T, want privacy.ErrorCode, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, privacy.CodeOf(err), "error: %v", err)
}

// ============================================================================
// Keys
// ============================================================================

func TestDerivePublicKeyOfOne(t *testing.T) {
	p := newTestPrivacy(t)

	one := make([]byte, 32)
	one[31] = 1
	pub, err := p.DerivePublicKey(one)
	require.NoError(t, err)
	assert.Equal(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", pub.Hex())
}

func TestDerivePublicKeyErrors(t *testing.T) {
	p := newTestPrivacy(t)

	_, err := p.DerivePublicKey(make([]byte, 31))
	requireCode(t, privacy.InvalidParameter, err)

	_, err = p.DerivePublicKey(make([]byte, 32))
	requireCode(t, privacy.PublicKeyCreationFailed, err)
}

type sequenceReader struct {
	chunks [][]byte
}

func (r *sequenceReader) Read(b []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, errors.New("exhausted")
	}
	n := copy(b, r.chunks[0])
	r.chunks = r.chunks[1:]
	return n, nil
}

func TestGenerateKeyPairSkipsInvalidDraws(t *testing.T) {
	valid := blind(0x42)
	p := newTestPrivacy(t, privacy.WithRandom(&sequenceReader{
		chunks: [][]byte{make([]byte, 32), bytes.Repeat([]byte{0xff}, 32), valid},
	}))

	pub, priv, err := p.GenerateKeyPair()
	require.NoError(t, err)
	assert.Equal(t, valid, priv.Bytes())

	want, err := p.DerivePublicKey(valid)
	require.NoError(t, err)
	assert.Equal(t, want, pub)
}

func TestGenerateKeyPairRandomFailures(t *testing.T) {
	zeros := make([][]byte, 16)
	for i := range zeros {
		zeros[i] = make([]byte, 32)
	}
	p := newTestPrivacy(t, privacy.WithRandom(&sequenceReader{chunks: zeros}))
	_, _, err := p.GenerateKeyPair()
	requireCode(t, privacy.RandomSourceError, err)

	p = newTestPrivacy(t, privacy.WithRandom(&sequenceReader{}))
	_, _, err = p.GenerateKeyPair()
	requireCode(t, privacy.RandomSourceError, err)
}

func TestGenerateKeyPairDefaultSource(t *testing.T) {
	p := newTestPrivacy(t)

	pub1, priv1, err := p.GenerateKeyPair()
	require.NoError(t, err)
	pub2, priv2, err := p.GenerateKeyPair()
	require.NoError(t, err)

	assert.NotEqual(t, priv1, priv2)
	assert.NotEqual(t, pub1, pub2)
	assert.NotEqual(t, privacy.Scalar{}, priv1)
}

func TestDeriveSharedBlindSymmetry(t *testing.T) {
	p := newTestPrivacy(t)

	pubA, privA, err := p.GenerateKeyPair()
	require.NoError(t, err)
	pubB, privB, err := p.GenerateKeyPair()
	require.NoError(t, err)

	ab, err := p.DeriveSharedBlind(privA.Bytes(), pubB.Bytes())
	require.NoError(t, err)
	ba, err := p.DeriveSharedBlind(privB.Bytes(), pubA.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestDeriveSharedBlindErrors(t *testing.T) {
	p := newTestPrivacy(t)

	pub, err := p.DerivePublicKey(blind(0x11))
	require.NoError(t, err)

	_, err = p.DeriveSharedBlind(blind(0x22)[:31], pub.Bytes())
	requireCode(t, privacy.InvalidParameter, err)

	_, err = p.DeriveSharedBlind(blind(0x22), pub.Bytes()[:32])
	requireCode(t, privacy.InvalidParameter, err)

	offCurve := make([]byte, 33)
	offCurve[0] = 0x02
	offCurve[32] = 5
	_, err = p.DeriveSharedBlind(blind(0x22), offCurve)
	requireCode(t, privacy.CommitmentParseFailed, err)

	_, err = p.DeriveSharedBlind(make([]byte, 32), pub.Bytes())
	requireCode(t, privacy.PublicKeyCreationFailed, err)
}

func TestCombinePublicKeys(t *testing.T) {
	p := newTestPrivacy(t)

	scalar := func(v byte) []byte {
		b := make([]byte, 32)
		b[31] = v
		return b
	}
	one, err := p.DerivePublicKey(scalar(1))
	require.NoError(t, err)
	two, err := p.DerivePublicKey(scalar(2))
	require.NoError(t, err)
	three, err := p.DerivePublicKey(scalar(3))
	require.NoError(t, err)

	sum, err := p.CombinePublicKeys([][]byte{one.Bytes(), two.Bytes()})
	require.NoError(t, err)
	assert.Equal(t, three, sum)

	_, err = p.CombinePublicKeys(nil)
	requireCode(t, privacy.InvalidParameter, err)

	many := make([][]byte, 101)
	for i := range many {
		many[i] = one.Bytes()
	}
	_, err = p.CombinePublicKeys(many)
	requireCode(t, privacy.OutOfRange, err)
}

// ============================================================================
// Commitments
// ============================================================================

func TestCommitmentRoundTrip(t *testing.T) {
	p := newTestPrivacy(t)

	for _, value := range []uint64{0, 1, 100, 1<<63 + 5} {
		c, err := p.CreateCommitment(value, blind(0x37))
		require.NoError(t, err)

		parsed, err := p.ParseCommitment(c.Bytes())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestCommitmentIsDeterministic(t *testing.T) {
	p := newTestPrivacy(t)

	one := make([]byte, 32)
	one[31] = 1
	for i := 0; i < 3; i++ {
		c, err := p.CreateCommitment(100, one)
		require.NoError(t, err)
		assert.Equal(t, "0850e6039e671fec8cf1a31005c61494c22aad00c27b9e44f1f43c6df2145b3973", c.Hex())
	}
}

func TestCreateCommitmentVectors(t *testing.T) {
	p := newTestPrivacy(t)

	c, err := p.CreateCommitment(1, blind(0x44))
	require.NoError(t, err)
	assert.Equal(t, "0837b273781da2842e5d3ecc04936195783e3af4ea7c37566710fb49ef8fe18f87", c.Hex())

	c, err = p.CreateCommitment(3, blind(0x88))
	require.NoError(t, err)
	assert.Equal(t, "0853c901dcca5aa5fd00115bc28607875c55d7b23e7e4c6d840c5589d4dcdd0bad", c.Hex())
}

func TestCommitmentErrors(t *testing.T) {
	p := newTestPrivacy(t)

	_, err := p.CreateCommitment(1, blind(0x44)[:31])
	requireCode(t, privacy.InvalidParameter, err)

	_, err = p.CreateCommitment(1, make([]byte, 32))
	requireCode(t, privacy.CommitmentCreationFailed, err)

	_, err = p.ParseCommitment(make([]byte, 32))
	requireCode(t, privacy.InvalidParameter, err)

	bad := make([]byte, 33)
	bad[0] = 0x08
	bad[32] = 5
	_, err = p.ParseCommitment(bad)
	requireCode(t, privacy.CommitmentParseFailed, err)
}

func TestTallyVerifyHomomorphism(t *testing.T) {
	p := newTestPrivacy(t)

	c, err := p.CreateCommitment(9, blind(0x12))
	require.NoError(t, err)
	require.NoError(t, p.TallyVerify([][]byte{c.Bytes()}, [][]byte{c.Bytes()}))

	five, err := p.CreateCommitment(5, blind(0x12))
	require.NoError(t, err)
	three, err := p.CreateCommitment(3, blind(0x12))
	require.NoError(t, err)
	err = p.TallyVerify([][]byte{five.Bytes()}, [][]byte{three.Bytes()})
	requireCode(t, privacy.TallyVerificationFailed, err)
}

func TestTallyVerifyVectors(t *testing.T) {
	p := newTestPrivacy(t)

	inputs := [][]byte{
		mustHex(t, "0871235f90f81a2fc5b1afbf2805667ab4c4a03c7af94f892712a64a61547393d0"),
		mustHex(t, "0837b273781da2842e5d3ecc04936195783e3af4ea7c37566710fb49ef8fe18f87"),
	}
	require.NoError(t, p.TallyVerify(inputs, [][]byte{
		mustHex(t, "0853c901dcca5aa5fd00115bc28607875c55d7b23e7e4c6d840c5589d4dcdd0bad"),
	}))

	err := p.TallyVerify(inputs, [][]byte{
		mustHex(t, "0853c901dcca5aa5fd00115bc28607875c55d7b23e7e4c6d840c5589d4dcdd0baf"),
	})
	requireCode(t, privacy.TallyVerificationFailed, err)
}

func TestTallyVerifyBounds(t *testing.T) {
	p := newTestPrivacy(t)

	garbage := func(n int) [][]byte {
		out := make([][]byte, n)
		for i := range out {
			out[i] = []byte{0x01}
		}
		return out
	}

	requireCode(t, privacy.OutOfRange, p.TallyVerify(garbage(101), garbage(1)))
	requireCode(t, privacy.OutOfRange, p.TallyVerify(garbage(1), garbage(102)))

	// 101 outputs pass the bound and fail on the first element instead.
	requireCode(t, privacy.InvalidParameter, p.TallyVerify(garbage(1), garbage(101)))

	bad := make([]byte, 33)
	bad[0] = 0x0a
	requireCode(t, privacy.CommitmentParseFailed, p.TallyVerify([][]byte{bad}, nil))
}

func TestSumCommitments(t *testing.T) {
	p := newTestPrivacy(t)

	c5, err := p.CreateCommitment(5, blind(0x33))
	require.NoError(t, err)
	c3, err := p.CreateCommitment(3, blind(0x11))
	require.NoError(t, err)

	diff, err := p.SumCommitments([][]byte{c5.Bytes()}, [][]byte{c3.Bytes()})
	require.NoError(t, err)

	c2, err := p.CreateCommitment(2, blind(0x22))
	require.NoError(t, err)
	assert.Equal(t, c2, diff)

	_, err = p.SumCommitments([][]byte{c5.Bytes()}, [][]byte{c5.Bytes()})
	requireCode(t, privacy.CommitmentSerializeFailed, err)
}

func TestConcurrentCommitments(t *testing.T) {
	p := newTestPrivacy(t)

	want, err := p.CreateCommitment(77, blind(0x19))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]privacy.Commitment, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := p.CreateCommitment(77, blind(0x19))
			if err == nil {
				results[i] = c
			}
		}(i)
	}
	wg.Wait()

	for _, c := range results {
		assert.Equal(t, want, c)
	}
}

// ============================================================================
// Range proofs
// ============================================================================

func TestRangeProof(t *testing.T) {
	p := newTestPrivacy(t)

	proof, err := p.RangeProofProve(blind(0x44), 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(proof), privacy.MaxProofSize)

	c, err := p.CreateCommitment(1, blind(0x44))
	require.NoError(t, err)
	require.NoError(t, p.RangeProofVerify(c.Bytes(), proof))

	other, err := p.CreateCommitment(1, blind(0x45))
	require.NoError(t, err)
	requireCode(t, privacy.RangeProofVerifyFailed, p.RangeProofVerify(other.Bytes(), proof))
}

func TestRangeProofMaxValue(t *testing.T) {
	p := newTestPrivacy(t)

	const max = ^uint64(0)
	proof, err := p.RangeProofProve(blind(0x61), max)
	require.NoError(t, err)

	c, err := p.CreateCommitment(max, blind(0x61))
	require.NoError(t, err)
	require.NoError(t, p.RangeProofVerify(c.Bytes(), proof))
}

func TestRangeProofErrors(t *testing.T) {
	p := newTestPrivacy(t)

	_, err := p.RangeProofProve(blind(0x44)[:31], 1)
	requireCode(t, privacy.InvalidParameter, err)

	_, err = p.RangeProofProve(make([]byte, 32), 1)
	requireCode(t, privacy.RangeProofProveFailed, err)

	c, err := p.CreateCommitment(1, blind(0x44))
	require.NoError(t, err)

	requireCode(t, privacy.InvalidParameter, p.RangeProofVerify(c.Bytes(), nil))
	requireCode(t, privacy.InvalidParameter, p.RangeProofVerify(c.Bytes(), make([]byte, privacy.MaxProofSize+1)))
	requireCode(t, privacy.InvalidParameter, p.RangeProofVerify(c.Bytes()[:32], []byte{1}))
	requireCode(t, privacy.RangeProofVerifyFailed, p.RangeProofVerify(c.Bytes(), []byte{1, 2, 3}))

	bad := c.Bytes()
	bad[0] = 0x02
	requireCode(t, privacy.CommitmentCreationFailed, p.RangeProofVerify(bad, []byte{1}))
}

func TestRangeProofRandomFailure(t *testing.T) {
	p := newTestPrivacy(t, privacy.WithRandom(&sequenceReader{}))

	_, err := p.RangeProofProve(blind(0x44), 1)
	requireCode(t, privacy.RandomSourceError, err)
}

// ============================================================================
// Excess signatures
// ============================================================================

var excessMsg = []byte("01234567890123456789012345678901")

const excessSigHex = "3044022071ae3feca895d87f202cb929e307c4ec7991d4245e2145f3f8b2f9a4da91878e022038003989687728828410c68151b7892a03a569d7fd8121c7f262e8ea5a6365d8"

func TestExcessSignVector(t *testing.T) {
	p := newTestPrivacy(t)

	sig, err := p.ExcessSign([][]byte{blind(0x22), blind(0x44)}, [][]byte{blind(0x88)}, excessMsg)
	require.NoError(t, err)
	assert.Equal(t, excessSigHex, sig.Hex())
}

func TestPedersenTallyVerifyVectors(t *testing.T) {
	p := newTestPrivacy(t)

	inputs := [][]byte{
		mustHex(t, "0814c5fdf7753ba8d99123ee4a09eba6c07c641bb7d9982ea7c6aa53faa0faf6c1"),
		mustHex(t, "0871235f90f81a2fc5b1afbf2805667ab4c4a03c7af94f892712a64a61547393d0"),
	}
	outputs := [][]byte{
		mustHex(t, "0853c901dcca5aa5fd00115bc28607875c55d7b23e7e4c6d840c5589d4dcdd0bad"),
	}
	sig := mustHex(t, excessSigHex)

	require.NoError(t, p.PedersenTallyVerify(inputs, outputs, excessMsg, sig))

	wrongMsg := []byte("01234567890123456789012345678902")
	requireCode(t, privacy.EcdsaVerifyFailed, p.PedersenTallyVerify(inputs, outputs, wrongMsg, sig))
}

func TestExcessBalance(t *testing.T) {
	p := newTestPrivacy(t)

	// 60 + 40 in, 75 + 25 out
	inBlinds := [][]byte{blind(0x15), blind(0x27)}
	outBlinds := [][]byte{blind(0x31), blind(0x06)}
	inValues := []uint64{60, 40}
	outValues := []uint64{75, 25}

	commit := func(values []uint64, blinds [][]byte) [][]byte {
		out := make([][]byte, len(values))
		for i := range values {
			c, err := p.CreateCommitment(values[i], blinds[i])
			require.NoError(t, err)
			out[i] = c.Bytes()
		}
		return out
	}
	inputs := commit(inValues, inBlinds)
	outputs := commit(outValues, outBlinds)

	msg := bytes.Repeat([]byte{0xab}, 32)
	sig, err := p.ExcessSign(inBlinds, outBlinds, msg)
	require.NoError(t, err)
	require.NoError(t, p.PedersenTallyVerify(inputs, outputs, msg, sig))

	// The excess commitment is excess·G.
	excess, err := p.ComputeExcess(inBlinds, outBlinds)
	require.NoError(t, err)
	excessPub, err := p.DerivePublicKey(excess.Bytes())
	require.NoError(t, err)
	require.NoError(t, p.EcdsaVerify(excessPub.Bytes(), msg, sig))

	// Perturbing one output amount breaks the signature check.
	perturbed := commit([]uint64{75, 26}, outBlinds)
	requireCode(t, privacy.EcdsaVerifyFailed, p.PedersenTallyVerify(inputs, perturbed, msg, sig))
}

func TestExcessSignZeroExcess(t *testing.T) {
	p := newTestPrivacy(t)

	// 0x11 + 0x22 = 0x30 + 0x03 blind for blind, so nothing is left to sign with.
	_, err := p.ExcessSign(
		[][]byte{blind(0x11), blind(0x22)},
		[][]byte{blind(0x30), blind(0x03)},
		bytes.Repeat([]byte{1}, 32))
	requireCode(t, privacy.EcdsaSignFailed, err)
}

func TestExcessBounds(t *testing.T) {
	p := newTestPrivacy(t)

	list := func(n int) [][]byte {
		out := make([][]byte, n)
		for i := range out {
			out[i] = blind(0x01)
		}
		return out
	}
	msg := bytes.Repeat([]byte{1}, 32)

	_, err := p.ComputeExcess(list(101), list(1))
	requireCode(t, privacy.OutOfRange, err)
	_, err = p.ExcessSign(list(1), list(101), msg)
	requireCode(t, privacy.OutOfRange, err)
	_, err = p.ExcessSign(list(1), [][]byte{blind(0x01)[:31]}, msg)
	requireCode(t, privacy.InvalidParameter, err)
	_, err = p.ExcessSign(list(1), list(1), msg[:31])
	requireCode(t, privacy.InvalidParameter, err)
	// Count limits win over a malformed message.
	_, err = p.ExcessSign(list(101), list(1), msg[:31])
	requireCode(t, privacy.OutOfRange, err)
	_, err = p.ExcessSign(list(1), list(101), nil)
	requireCode(t, privacy.OutOfRange, err)
	_, err = p.ComputeExcess([][]byte{bytes.Repeat([]byte{0xff}, 32)}, nil)
	requireCode(t, privacy.BlindSumFailed, err)

	c := mustHex(t, "0837b273781da2842e5d3ecc04936195783e3af4ea7c37566710fb49ef8fe18f87")
	commits := func(n int) [][]byte {
		out := make([][]byte, n)
		for i := range out {
			out[i] = c
		}
		return out
	}
	sig := mustHex(t, excessSigHex)
	requireCode(t, privacy.InvalidParameter, p.PedersenTallyVerify(nil, commits(1), msg, sig))
	requireCode(t, privacy.InvalidParameter, p.PedersenTallyVerify(commits(1), nil, msg, sig))
	requireCode(t, privacy.InvalidParameter, p.PedersenTallyVerify(commits(101), commits(1), msg, sig))
	requireCode(t, privacy.InvalidParameter, p.PedersenTallyVerify(commits(1), commits(101), msg, sig))
	requireCode(t, privacy.InvalidParameter, p.PedersenTallyVerify(commits(1), commits(1), msg[:31], sig))

	// Equal sides leave E at the identity, which has no public key form.
	requireCode(t, privacy.PublicKeySerializeFailed, p.PedersenTallyVerify(commits(1), commits(1), msg, sig))
}

func TestEcdsaSignAndVerify(t *testing.T) {
	p := newTestPrivacy(t)

	priv := blind(0x5c)
	pub, err := p.DerivePublicKey(priv)
	require.NoError(t, err)
	msg := bytes.Repeat([]byte{0x07}, 32)

	sig, err := p.EcdsaSign(priv, msg)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(sig), privacy.MaxSignatureSize)
	require.NoError(t, p.EcdsaVerify(pub.Bytes(), msg, sig))

	_, err = p.EcdsaSign(make([]byte, 32), msg)
	requireCode(t, privacy.EcdsaSignFailed, err)
	_, err = p.EcdsaSign(priv, msg[:16])
	requireCode(t, privacy.InvalidParameter, err)

	requireCode(t, privacy.InvalidParameter, p.EcdsaVerify(pub.Bytes()[:32], msg, sig))
	requireCode(t, privacy.InvalidParameter, p.EcdsaVerify(pub.Bytes(), msg[:31], sig))
	requireCode(t, privacy.InvalidParameter, p.EcdsaVerify(pub.Bytes(), msg, nil))
	requireCode(t, privacy.InvalidParameter, p.EcdsaVerify(pub.Bytes(), msg, make([]byte, 73)))
	requireCode(t, privacy.EcdsaParseFailed, p.EcdsaVerify(pub.Bytes(), msg, []byte{0x30, 0x00}))

	offCurve := make([]byte, 33)
	offCurve[0] = 0x03
	offCurve[32] = 7
	requireCode(t, privacy.PublicKeyParseFailed, p.EcdsaVerify(offCurve, msg, sig))

	other, err := p.DerivePublicKey(blind(0x5d))
	require.NoError(t, err)
	requireCode(t, privacy.EcdsaVerifyFailed, p.EcdsaVerify(other.Bytes(), msg, sig))
}

// ============================================================================
// Engine faults
// ============================================================================

type faultyEngine struct {
	privacy.CurveEngine
	commitErr error
}

func (f faultyEngine) Commit(uint64, *[32]byte) (privacy.Element, error) {
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	panic("scratch space corrupted")
}

func TestEnginePanicIsRecovered(t *testing.T) {
	p, err := privacy.New(faultyEngine{})
	require.NoError(t, err)

	_, err = p.CreateCommitment(1, blind(0x01))
	requireCode(t, privacy.EngineInternalError, err)

	var perr *privacy.Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "scratch space corrupted", perr.Detail)
	assert.Equal(t, "[privacy] illegal argument:BP library internal error,scratch space corrupted", privacy.Describe(err))
}

func TestEngineCallbackErrors(t *testing.T) {
	p, err := privacy.New(faultyEngine{commitErr: fmt.Errorf("%w: bad context", privacy.ErrIllegalArgument)})
	require.NoError(t, err)
	_, err = p.CreateCommitment(1, blind(0x01))
	requireCode(t, privacy.EngineInternalError, err)
	assert.Contains(t, privacy.Describe(err), "[privacy] illegal argument:illegal argument: bad context")

	p, err = privacy.New(faultyEngine{commitErr: privacy.ErrInternalConsistency})
	require.NoError(t, err)
	_, err = p.CreateCommitment(1, blind(0x01))
	requireCode(t, privacy.EngineInternalError, err)
	assert.Contains(t, privacy.Describe(err), "[privacy] internal consistency check failed:")
}

func TestNewValidation(t *testing.T) {
	_, err := privacy.New(nil)
	assert.Error(t, err)

	cfg := privacy.DefaultConfig()
	cfg.RangeProofBits = 12
	_, err = privacy.New(faultyEngine{}, privacy.WithConfig(cfg))
	assert.Error(t, err)

	_, err = privacy.New(faultyEngine{}, privacy.WithRandom(nil))
	assert.Error(t, err)
}

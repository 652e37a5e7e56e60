package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/gtank/merlin"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// RangeProofDomain separates range-proof transcripts from any other protocol.
const RangeProofDomain = "ct-privacy rangeproof v1"

// transcript is the Fiat-Shamir transcript shared by prover and verifier.
// Both sides append the same serialized bytes in the same order.
type transcript struct {
	t *merlin.Transcript
}

func newTranscript(bits int) *transcript {
	tr := &transcript{t: merlin.NewTranscript(RangeProofDomain)}
	tr.appendUint64("n", uint64(bits))
	return tr
}

func (tr *transcript) appendBytes(label string, b []byte) {
	tr.t.AppendMessage([]byte(label), b)
}

func (tr *transcript) appendUint64(label string, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	tr.appendBytes(label, buf[:])
}

func (tr *transcript) appendScalar(label string, s *secp256k1.ModNScalar) {
	b := s.Bytes()
	tr.appendBytes(label, b[:])
}

// challenge extracts a non-zero scalar.
func (tr *transcript) challenge(label string) (secp256k1.ModNScalar, error) {
	c := scalarFromWide(tr.t.ExtractBytes([]byte(label), 64))
	if c.IsZero() {
		return c, fmt.Errorf("%w: zero challenge %q", privacy.ErrProofInvalid, label)
	}
	return c, nil
}

package ct

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleTransfer builds a signed two-output transfer.
func sampleTransfer(t *testing.T) *Transfer {
	t.Helper()
	p := newTestPrivacy(t)
	alice := newParty(t, p, "alice")
	bob := newParty(t, p, "bob")

	b := NewBuilder(p)
	require.NoError(t, b.AddInput(ownedToken(t, p, alice, 300, 9), alice.priv))
	require.NoError(t, b.AddOutput("bob", bob.pub, 4))
	tx, err := b.Build("alice", alice.pub)
	require.NoError(t, err)
	return tx
}

func checkRoundTrip(t *testing.T, tx *Transfer) {
	t.Helper()

	data, err := SerializeTransfer(tx)
	require.NoError(t, err)

	parsed, err := ParseTransfer(data)
	require.NoError(t, err)

	again, err := SerializeTransfer(parsed)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, again), "round trip changed the encoding")
	assert.Equal(t, tx.Digest(), parsed.Digest())
}

func TestTransferRoundTrip(t *testing.T) {
	tx := sampleTransfer(t)
	checkRoundTrip(t, tx)

	// Ledger-assigned fields survive the binary form.
	tx.Outputs[0].ID = 1 << 40
	tx.Outputs[0].TxHash = "abcd"
	checkRoundTrip(t, tx)
}

func TestTransferRoundTripEmpty(t *testing.T) {
	checkRoundTrip(t, &Transfer{})
}

func TestTransferJSON(t *testing.T) {
	tx := sampleTransfer(t)

	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, key := range []string{"inputs", "outputs", "excess_msg", "excess_sig"} {
		assert.Contains(t, fields, key)
	}
	assert.Equal(t, "300", fields["inputs"].([]interface{})[0].(map[string]interface{})["id"])

	parsed, err := ParseTransferJSON(data)
	require.NoError(t, err)
	assert.Equal(t, tx, parsed)

	_, err = ParseTransferJSON([]byte(`{"excess_msg": "00"}`))
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestDigestIgnoresProofsAndLedgerFields(t *testing.T) {
	tx := sampleTransfer(t)
	d := tx.Digest()

	tx.Outputs[0].RangeProof = nil
	tx.Outputs[0].ID = 17
	tx.Outputs[0].TxHash = "ff"
	assert.Equal(t, d, tx.Digest())

	tx.Outputs[0].To = "mallory"
	assert.NotEqual(t, d, tx.Digest())
}

func TestParseTransferErrors(t *testing.T) {
	data, err := SerializeTransfer(sampleTransfer(t))
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte("CTT")},
		{"bad magic", append([]byte("CTXX"), data[4:]...)},
		{"bad version", func() []byte {
			d := append([]byte(nil), data...)
			binary.LittleEndian.PutUint32(d[4:8], 2)
			return d
		}()},
		{"truncated", data[:len(data)-1]},
		{"trailing bytes", append(append([]byte(nil), data...), 0x00)},
		{"huge count", append([]byte("CTTX\x01\x00\x00\x00"), 0xff, 0xff, 0xff, 0xff, 0x0f)},
		{"varint overflow", append([]byte("CTTX\x01\x00\x00\x00"),
			0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTransfer(tt.data)
			var pe *ParseError
			assert.True(t, errors.As(err, &pe), "error: %v", err)
		})
	}
}

func TestVarIntEncoding(t *testing.T) {
	for _, n := range []uint64{0, 1, 127, 128, 300, 1<<63 - 1, 1<<64 - 1} {
		var buf bytes.Buffer
		encodeVarInt(&buf, n)
		got, err := decodeVarInt(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}

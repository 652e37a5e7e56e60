package ct

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Transfer binary format: "CTTX" || version (u32le) || body
//
// Sequences carry a LEB128 varint length prefix, fixed-width fields (points,
// digests) are written raw, and optional fields use 0x00 for absent and 0x01
// for present.

const (
	MagicBytes       = "CTTX"
	TransferVersion1 = uint32(1)
)

// SerializeTransfer encodes a transfer to bytes.
func SerializeTransfer(t *Transfer) ([]byte, error) {
	buf := new(bytes.Buffer)

	buf.WriteString(MagicBytes)
	if err := binary.Write(buf, binary.LittleEndian, TransferVersion1); err != nil {
		return nil, err
	}

	encodeTransferBody(buf, t, true)
	buf.Write(t.ExcessMsg[:])
	encodeBytes(buf, t.ExcessSig)
	return buf.Bytes(), nil
}

// ParseTransfer decodes a transfer from bytes.
func ParseTransfer(data []byte) (*Transfer, error) {
	if len(data) < 8 {
		return nil, &ParseError{Message: "data too short"}
	}
	if string(data[0:4]) != MagicBytes {
		return nil, &ParseError{Message: "invalid magic bytes"}
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != TransferVersion1 {
		return nil, &ParseError{Message: fmt.Sprintf("unsupported version: %d", version)}
	}

	r := bytes.NewReader(data[8:])
	t, err := decodeTransfer(r)
	if err != nil {
		return nil, &ParseError{Message: "malformed transfer", Cause: err}
	}
	if r.Len() != 0 {
		return nil, &ParseError{Message: fmt.Sprintf("%d trailing bytes", r.Len())}
	}
	return t, nil
}

// ParseTransferJSON decodes a transfer in the token contract's JSON form.
func ParseTransferJSON(data []byte) (*Transfer, error) {
	var t Transfer
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, &ParseError{Message: "invalid transfer JSON", Cause: err}
	}
	return &t, nil
}

// Digest returns the message an excess signature over t must cover: SHA-256
// of the magic bytes and the transfer body without range proofs.
//
// Range proofs are left out because the ledger strips them on acceptance;
// ledger-assigned ids and hashes are left out because they do not exist yet
// when the sender signs.
func (t *Transfer) Digest() Digest {
	h := sha256.New()
	h.Write([]byte(MagicBytes))
	encodeTransferBody(h, t, false)

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func encodeTransferBody(w io.Writer, t *Transfer, withProofs bool) {
	encodeVarInt(w, uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		encodeVarInt(w, in.ID)
	}

	encodeVarInt(w, uint64(len(t.Outputs)))
	for i := range t.Outputs {
		encodeToken(w, &t.Outputs[i], withProofs)
	}
}

func encodeToken(w io.Writer, tok *Token, withProof bool) {
	if withProof {
		encodeVarInt(w, tok.ID)
	}
	w.Write(tok.Commit[:])
	encodeBytes(w, tok.EncryptedValue)
	w.Write(tok.FromPubkey[:])
	if withProof {
		encodeOptionBytes(w, tok.RangeProof)
	}
	encodeString(w, tok.To)
	if withProof {
		encodeString(w, tok.TxHash)
	}
}

func decodeTransfer(r *bytes.Reader) (*Transfer, error) {
	t := &Transfer{}

	n, err := decodeLength(r, 1)
	if err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	t.Inputs = make([]InputRef, n)
	for i := range t.Inputs {
		if t.Inputs[i].ID, err = decodeVarInt(r); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}

	n, err = decodeLength(r, 1)
	if err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}
	t.Outputs = make([]Token, n)
	for i := range t.Outputs {
		if err := decodeToken(r, &t.Outputs[i]); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}

	if _, err := io.ReadFull(r, t.ExcessMsg[:]); err != nil {
		return nil, fmt.Errorf("excess message: %w", err)
	}
	sig, err := decodeBytes(r)
	if err != nil {
		return nil, fmt.Errorf("excess signature: %w", err)
	}
	t.ExcessSig = sig
	return t, nil
}

func decodeToken(r *bytes.Reader, tok *Token) error {
	var err error
	if tok.ID, err = decodeVarInt(r); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, tok.Commit[:]); err != nil {
		return err
	}
	if tok.EncryptedValue, err = decodeBytes(r); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, tok.FromPubkey[:]); err != nil {
		return err
	}
	if tok.RangeProof, err = decodeOptionBytes(r); err != nil {
		return err
	}
	if tok.To, err = decodeString(r); err != nil {
		return err
	}
	if tok.TxHash, err = decodeString(r); err != nil {
		return err
	}
	return nil
}

// ============================================================================
// Primitives
// ============================================================================

func encodeVarInt(w io.Writer, n uint64) {
	// LEB128
	for {
		b := uint8(n & 0x7F)
		n >>= 7
		if n != 0 {
			b |= 0x80
		}
		w.Write([]byte{b})
		if n == 0 {
			break
		}
	}
}

func encodeString(w io.Writer, s string) {
	encodeBytes(w, []byte(s))
}

func encodeBytes(w io.Writer, b []byte) {
	encodeVarInt(w, uint64(len(b)))
	w.Write(b)
}

func encodeOptionBytes(w io.Writer, b []byte) {
	if len(b) == 0 {
		w.Write([]byte{0x00})
	} else {
		w.Write([]byte{0x01})
		encodeBytes(w, b)
	}
}

var errVarIntOverflow = errors.New("varint overflows 64 bits")

func decodeVarInt(r io.ByteReader) (uint64, error) {
	var result uint64
	var shift uint

	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift == 63 && b > 1 {
			return 0, errVarIntOverflow
		}

		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 63 {
			return 0, errVarIntOverflow
		}
	}

	return result, nil
}

// decodeLength reads a sequence length and checks that the remaining input
// can hold that many elements of at least minSize bytes each.
func decodeLength(r *bytes.Reader, minSize int) (int, error) {
	n, err := decodeVarInt(r)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.Len()/minSize) {
		return 0, fmt.Errorf("length %d exceeds remaining input", n)
	}
	return int(n), nil
}

func decodeBytes(r *bytes.Reader) ([]byte, error) {
	length, err := decodeLength(r, 1)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func decodeString(r *bytes.Reader) (string, error) {
	b, err := decodeBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeOptionBytes(r *bytes.Reader) ([]byte, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch flag {
	case 0x00:
		return nil, nil
	case 0x01:
		return decodeBytes(r)
	default:
		return nil, fmt.Errorf("invalid option flag 0x%02x", flag)
	}
}

package privacy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHexWidths(t *testing.T) {
	scalar := strings.Repeat("44", 32)

	b, err := DecodeHex(scalar, ScalarSize)
	require.NoError(t, err)
	assert.Len(t, b, 32)

	for _, s := range []string{scalar[:63], scalar + "4", scalar + "44", ""} {
		_, err := DecodeHex(s, ScalarSize)
		assert.Equal(t, InvalidParameter, CodeOf(err), "len %d", len(s))
	}

	// 64 chars where a 33-byte point is expected.
	_, err = DecodeHex(scalar, PointSize)
	assert.Equal(t, InvalidParameter, CodeOf(err))

	_, err = DecodeHex(strings.Repeat("zz", 32), ScalarSize)
	assert.Equal(t, InvalidParameter, CodeOf(err))
}

func TestDecodeHexMax(t *testing.T) {
	b, err := DecodeHexMax("3044", MaxSignatureSize)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x44}, b)

	for _, s := range []string{"", "304", strings.Repeat("ab", MaxSignatureSize+1), "xy"} {
		_, err := DecodeHexMax(s, MaxSignatureSize)
		assert.Equal(t, InvalidParameter, CodeOf(err), "%q", s)
	}
}

func TestDecodeHexList(t *testing.T) {
	list := DecodeHexList([]string{strings.Repeat("01", 33), strings.Repeat("02", 32), "not hex", ""})
	require.Len(t, list, 4)
	assert.Len(t, list[0], 33)
	// Widths are not checked here.
	assert.Len(t, list[1], 32)
	assert.Nil(t, list[2])
	assert.Empty(t, list[3])

	assert.Empty(t, DecodeHexList(nil))
}

func TestTypeHex(t *testing.T) {
	s := Scalar{0x0a}
	assert.Equal(t, "0a"+strings.Repeat("00", 31), s.Hex())

	pub := PublicKey{0x03, 0x01}
	assert.Equal(t, "0301"+strings.Repeat("00", 31), pub.String())
	assert.Equal(t, pub[:], pub.Bytes())
}

func TestTextEncoding(t *testing.T) {
	c := Commitment{0x08, 0x01, 0x02}
	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Len(t, text, 66)

	var back Commitment
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, c, back)
	assert.Error(t, back.UnmarshalText(text[:64]))

	var proof RangeProof
	require.NoError(t, proof.UnmarshalText(nil))
	assert.Nil(t, proof)
	require.NoError(t, proof.UnmarshalText([]byte("abcd")))
	assert.Equal(t, RangeProof{0xab, 0xcd}, proof)

	var sig ExcessSignature
	assert.Error(t, sig.UnmarshalText([]byte(strings.Repeat("00", MaxSignatureSize+1))))
}

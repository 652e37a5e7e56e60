package crypto

import (
	"encoding/binary"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// twoTo256ModN is 2^256 mod n, used to reduce 64-byte hash outputs.
var twoTo256ModN = func() secp256k1.ModNScalar {
	var s secp256k1.ModNScalar
	s.SetByteSlice([]byte{
		0x01, 0x45, 0x51, 0x23, 0x19, 0x50, 0xb7, 0x5f,
		0xc4, 0x40, 0x2d, 0xa1, 0x73, 0x2f, 0xc9, 0xbe, 0xbf,
	})
	return s
}()

func scalarFromUint64(v uint64) secp256k1.ModNScalar {
	var b [32]byte
	binary.BigEndian.PutUint64(b[24:], v)
	var s secp256k1.ModNScalar
	s.SetBytes(&b)
	return s
}

// scalarFromWide reduces a 64-byte big-endian integer modulo n.
func scalarFromWide(b []byte) secp256k1.ModNScalar {
	var hi, lo secp256k1.ModNScalar
	hi.SetByteSlice(b[:32])
	lo.SetByteSlice(b[32:64])
	hi.Mul(&twoTo256ModN).Add(&lo)
	return hi
}

func scalarAdd(a, b *secp256k1.ModNScalar) secp256k1.ModNScalar {
	var r secp256k1.ModNScalar
	r.Add2(a, b)
	return r
}

func scalarSub(a, b *secp256k1.ModNScalar) secp256k1.ModNScalar {
	var r secp256k1.ModNScalar
	r.NegateVal(b).Add(a)
	return r
}

func scalarMul(a, b *secp256k1.ModNScalar) secp256k1.ModNScalar {
	var r secp256k1.ModNScalar
	r.Mul2(a, b)
	return r
}

func scalarInverse(a *secp256k1.ModNScalar) secp256k1.ModNScalar {
	var r secp256k1.ModNScalar
	r.InverseValNonConst(a)
	return r
}

// powers returns 1, x, x², … with n terms.
func powers(x *secp256k1.ModNScalar, n int) []secp256k1.ModNScalar {
	out := make([]secp256k1.ModNScalar, n)
	if n == 0 {
		return out
	}
	out[0].SetInt(1)
	for i := 1; i < n; i++ {
		out[i].Mul2(&out[i-1], x)
	}
	return out
}

// sumOf returns Σ v[i].
func sumOf(v []secp256k1.ModNScalar) secp256k1.ModNScalar {
	var acc secp256k1.ModNScalar
	for i := range v {
		acc.Add(&v[i])
	}
	return acc
}

func innerProduct(a, b []secp256k1.ModNScalar) secp256k1.ModNScalar {
	var acc, term secp256k1.ModNScalar
	for i := range a {
		term.Mul2(&a[i], &b[i])
		acc.Add(&term)
	}
	return acc
}

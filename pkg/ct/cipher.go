package ct

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"strconv"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// maxCiphertextSize bounds an encrypted amount: 20 decimal digits plus the
// terminator fit in two blocks.
const maxCiphertextSize = 2 * aes.BlockSize

// EncryptValue encrypts an amount for the holder of key.
//
// key is the ECDH secret shared by sender and recipient. The AES-256 key is
// the ASCII text of its first 32 hex characters. The plaintext is the decimal
// amount followed by zero bytes up to the next block boundary, encrypted in
// CBC mode with a zero IV. A fresh one-time sender key per output keeps the
// zero IV from repeating under the same key.
func EncryptValue(key privacy.Scalar, value uint64) (Ciphertext, error) {
	block, err := aes.NewCipher(valueKey(key))
	if err != nil {
		return nil, &TransferError{Code: ErrDecryptFailed, Message: "failed to create cipher", Cause: err}
	}

	digits := strconv.FormatUint(value, 10)
	plain := make([]byte, (len(digits)/aes.BlockSize+1)*aes.BlockSize)
	copy(plain, digits)

	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, plain)
	return Ciphertext(out), nil
}

// DecryptValue reverses EncryptValue.
//
// A wrong key yields garbage that either fails to parse or parses to a value
// whose commitment does not match; callers confirm the result against the
// token commitment.
func DecryptValue(key privacy.Scalar, ct Ciphertext) (uint64, error) {
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 || len(ct) > maxCiphertextSize {
		return 0, &TransferError{Code: ErrDecryptFailed, Message: "ciphertext is not a whole number of blocks"}
	}

	block, err := aes.NewCipher(valueKey(key))
	if err != nil {
		return 0, &TransferError{Code: ErrDecryptFailed, Message: "failed to create cipher", Cause: err}
	}

	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(plain, ct)

	if i := bytes.IndexByte(plain, 0); i >= 0 {
		plain = plain[:i]
	}
	value, err := strconv.ParseUint(string(plain), 10, 64)
	if err != nil {
		return 0, &TransferError{Code: ErrDecryptFailed, Message: "plaintext is not an amount", Cause: err}
	}
	return value, nil
}

func valueKey(key privacy.Scalar) []byte {
	return []byte(key.Hex()[:32])
}

// Package ct implements confidential token transfers on top of the privacy
// protocol.
//
// Amounts travel as Pedersen commitments. Each output also carries its amount
// encrypted under the ECDH secret of a one-time sender key and the recipient
// key, so only the recipient can open it. The package provides:
//   - Token, Transfer and Issue: the wire model
//   - EncryptValue / DecryptValue: amount encryption
//   - Builder: assembles and signs a balanced transfer
//   - Ledger: the token registry that validates issues and transfers
//
// JSON field names follow the token contract, so documents produced here can
// be submitted to it unchanged.
package ct

import "github.com/suffix-labs/ct-privacy/pkg/privacy"

// Token is one confidential output.
//
// Commit hides the amount. EncryptedValue is the amount encrypted for the
// owner, and FromPubkey is the one-time key the owner combines with their
// private key to recover the blind. RangeProof and To are only present while
// the token is in flight; the ledger strips both when it stores the token.
type Token struct {
	ID             uint64             `json:"id,string,omitempty"`   // Assigned by the ledger
	Commit         privacy.Commitment `json:"commit"`                // value·H + blind·G
	EncryptedValue Ciphertext         `json:"encrypt_value"`         // AES-CBC encrypted amount
	FromPubkey     privacy.PublicKey  `json:"from_pubkey"`           // One-time sender key
	RangeProof     privacy.RangeProof `json:"range_proof,omitempty"` // Proof the amount is in range
	To             string             `json:"to,omitempty"`          // Recipient account
	TxHash         string             `json:"hash,omitempty"`        // Transaction that created it
}

// InputRef names a token being spent.
type InputRef struct {
	ID uint64 `json:"id,string"`
}

// Transfer spends tokens of one account and creates new ones.
//
// ExcessMsg is the digest the excess signature covers. It must equal
// Digest() of the transfer, which binds the signature to every input and
// output.
type Transfer struct {
	Inputs    []InputRef              `json:"inputs"`
	Outputs   []Token                 `json:"outputs"`
	ExcessMsg Digest                  `json:"excess_msg"`
	ExcessSig privacy.ExcessSignature `json:"excess_sig"`
}

// Issue creates the initial supply of a token and assigns it to the sender.
type Issue struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Token  Token  `json:"token"`
}

// TokenInfo is the registry-wide metadata written by the first Issue.
type TokenInfo struct {
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
	Version string `json:"version"`
}

// TokenVersion is the standard version stamped on every issued token.
const TokenVersion = "ETP10"

// Ciphertext is an encrypted amount. It reads and writes as hex.
type Ciphertext []byte

func (c Ciphertext) MarshalText() ([]byte, error) {
	return []byte(privacy.EncodeHex(c)), nil
}

func (c *Ciphertext) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*c = nil
		return nil
	}
	b, err := privacy.DecodeHexMax(string(text), maxCiphertextSize)
	if err != nil {
		return err
	}
	*c = b
	return nil
}

// Digest is the 32-byte message covered by an excess signature.
type Digest [privacy.DigestSize]byte

func (d Digest) MarshalText() ([]byte, error) {
	return []byte(privacy.EncodeHex(d[:])), nil
}

func (d *Digest) UnmarshalText(text []byte) error {
	b, err := privacy.DecodeHex(string(text), privacy.DigestSize)
	if err != nil {
		return err
	}
	copy(d[:], b)
	return nil
}

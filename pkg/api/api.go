// Package api provides the flat, hex-in/hex-out surface of the privacy
// protocol.
//
// This is the entry point for callers that cannot hold Go values across the
// boundary (CLIs, RPC handlers, foreign-language bindings). Every function
// takes lowercase hex text and returns an error code, its message and the
// results:
//
//  1. GenerateKeyPair / DerivePublicKey / DeriveSharedBlind - key material
//  2. CreateCommitment / ParseCommitment / TallyVerify - Pedersen commitments
//  3. RangeProofProve / RangeProofVerify - bulletproof range proofs
//  4. ComputeExcess / ExcessSign / PedersenTallyVerify - excess signatures
//  5. EcdsaSign / EcdsaVerify / CombinePublicKeys - standalone ECDSA helpers
//  6. ErrorMessage - code to text
//
// A code of 0 means success. Results are empty strings on failure.
package api

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/ct-privacy/pkg/crypto"
	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// API binds the flat functions to one secp256k1 engine instance.
type API struct {
	p *privacy.PrivacyEngine
}

// New builds the secp256k1 engine described by cfg and wraps it.
//
// Parameters:
//   - cfg: Range-proof width, generator count and transaction caps
//   - log: Logger shared by the engine and the protocol layer
//   - opts: Extra facade options (e.g. a deterministic random source)
func New(cfg privacy.Config, log zerolog.Logger, opts ...privacy.Option) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	engine, err := crypto.NewEngine(cfg.RangeProofBits, cfg.Generators, crypto.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("failed to create curve engine: %w", err)
	}

	opts = append([]privacy.Option{privacy.WithConfig(cfg), privacy.WithLogger(log)}, opts...)
	p, err := privacy.New(engine, opts...)
	if err != nil {
		return nil, err
	}
	return &API{p: p}, nil
}

// Privacy returns the typed facade behind the flat functions.
func (a *API) Privacy() *privacy.PrivacyEngine {
	return a.p
}

// ErrorMessage returns the message for a numeric code. Unknown codes map to
// the UnknownError text.
func ErrorMessage(code int64) string {
	return privacy.Message(privacy.ErrorCode(code))
}

// status converts err into the (code, message) pair every function returns.
func status(err error) (int64, string) {
	return int64(privacy.CodeOf(err)), privacy.Describe(err)
}

// ============================================================================
// Key material
// ============================================================================

// GenerateKeyPair draws a fresh key pair.
//
// Returns:
//   - code, message
//   - pub: 66 hex chars, compressed public key
//   - priv: 64 hex chars, private scalar
func (a *API) GenerateKeyPair() (code int64, msg string, pub string, priv string) {
	pk, sk, err := a.p.GenerateKeyPair()
	if err != nil {
		code, msg = status(err)
		return code, msg, "", ""
	}
	code, msg = status(nil)
	return code, msg, pk.Hex(), sk.Hex()
}

// DerivePublicKey computes the public key of a 64-hex-char private key.
func (a *API) DerivePublicKey(priv string) (code int64, msg string, pub string) {
	k, err := privacy.DecodeHex(priv, privacy.ScalarSize)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}

	pk, err := a.p.DerivePublicKey(k)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, pk.Hex()
}

// DeriveSharedBlind computes the ECDH blinding factor of priv and pub.
//
// Sender and recipient get the same 64-hex-char result from their own private
// key and the other side's public key.
func (a *API) DeriveSharedBlind(priv, pub string) (code int64, msg string, blind string) {
	k, err := privacy.DecodeHex(priv, privacy.ScalarSize)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	p, err := privacy.DecodeHex(pub, privacy.PointSize)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}

	b, err := a.p.DeriveSharedBlind(k, p)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, b.Hex()
}

// CombinePublicKeys returns the point sum of a list of public keys.
func (a *API) CombinePublicKeys(pubs []string) (code int64, msg string, sum string) {
	list := privacy.DecodeHexList(pubs)

	pk, err := a.p.CombinePublicKeys(list)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, pk.Hex()
}

// ============================================================================
// Commitments
// ============================================================================

// CreateCommitment commits to value under a 64-hex-char blind.
func (a *API) CreateCommitment(value uint64, blind string) (code int64, msg string, commit string) {
	b, err := privacy.DecodeHex(blind, privacy.ScalarSize)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}

	c, err := a.p.CreateCommitment(value, b)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, c.Hex()
}

// ParseCommitment validates a 66-hex-char commitment and returns its
// canonical form.
func (a *API) ParseCommitment(commit string) (code int64, msg string, canonical string) {
	b, err := privacy.DecodeHex(commit, privacy.PointSize)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}

	c, err := a.p.ParseCommitment(b)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, c.Hex()
}

// TallyVerify checks that the input commitments balance the output
// commitments.
func (a *API) TallyVerify(inputs, outputs []string) (code int64, msg string) {
	in := privacy.DecodeHexList(inputs)
	out := privacy.DecodeHexList(outputs)
	return status(a.p.TallyVerify(in, out))
}

// ============================================================================
// Range proofs
// ============================================================================

// RangeProofProve proves that the commitment to value under blind hides an
// amount in range. The proof is returned as hex.
func (a *API) RangeProofProve(blind string, value uint64) (code int64, msg string, proof string) {
	b, err := privacy.DecodeHex(blind, privacy.ScalarSize)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}

	rp, err := a.p.RangeProofProve(b, value)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, rp.Hex()
}

// RangeProofVerify checks a hex range proof against a hex commitment.
func (a *API) RangeProofVerify(commit, proof string) (code int64, msg string) {
	c, err := privacy.DecodeHex(commit, privacy.PointSize)
	if err != nil {
		return status(err)
	}
	rp, err := privacy.DecodeHexMax(proof, privacy.MaxProofSize)
	if err != nil {
		return status(err)
	}
	return status(a.p.RangeProofVerify(c, rp))
}

// ============================================================================
// Excess signatures
// ============================================================================

// ComputeExcess returns Σ inputBlinds − Σ outputBlinds as hex.
func (a *API) ComputeExcess(inputBlinds, outputBlinds []string) (code int64, msg string, excess string) {
	in := privacy.DecodeHexList(inputBlinds)
	out := privacy.DecodeHexList(outputBlinds)

	e, err := a.p.ComputeExcess(in, out)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, e.Hex()
}

// ExcessSign signs a 64-hex-char digest with the blinding excess.
//
// The digest is signed as given; callers hash the transaction body first.
func (a *API) ExcessSign(inputBlinds, outputBlinds []string, digest string) (code int64, msg string, sig string) {
	in := privacy.DecodeHexList(inputBlinds)
	out := privacy.DecodeHexList(outputBlinds)
	// The digest width is checked after the blind count limits.
	s, err := a.p.ExcessSign(in, out, privacy.DecodeHexLoose(digest))
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, s.Hex()
}

// PedersenTallyVerify runs the full transaction check: the commitments
// balance up to an excess point and sig signs digest under that point.
func (a *API) PedersenTallyVerify(inputs, outputs []string, digest, sig string) (code int64, msg string) {
	in := privacy.DecodeHexList(inputs)
	out := privacy.DecodeHexList(outputs)
	d, err := privacy.DecodeHex(digest, privacy.DigestSize)
	if err != nil {
		return status(err)
	}
	s, err := privacy.DecodeHexMax(sig, privacy.MaxSignatureSize)
	if err != nil {
		return status(err)
	}
	return status(a.p.PedersenTallyVerify(in, out, d, s))
}

// EcdsaSign signs a 64-hex-char digest with a private key.
func (a *API) EcdsaSign(priv, digest string) (code int64, msg string, sig string) {
	k, err := privacy.DecodeHex(priv, privacy.ScalarSize)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	d, err := privacy.DecodeHex(digest, privacy.DigestSize)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}

	s, err := a.p.EcdsaSign(k, d)
	if err != nil {
		code, msg = status(err)
		return code, msg, ""
	}
	code, msg = status(nil)
	return code, msg, s.Hex()
}

// EcdsaVerify checks a hex DER signature over a digest.
func (a *API) EcdsaVerify(pub, digest, sig string) (code int64, msg string) {
	p, err := privacy.DecodeHex(pub, privacy.PointSize)
	if err != nil {
		return status(err)
	}
	d, err := privacy.DecodeHex(digest, privacy.DigestSize)
	if err != nil {
		return status(err)
	}
	s, err := privacy.DecodeHexMax(sig, privacy.MaxSignatureSize)
	if err != nil {
		return status(err)
	}
	return status(a.p.EcdsaVerify(p, d, s))
}


package privacy

import "errors"

// ============================================================================
// Excess signature protocol
// ============================================================================
//
// A transaction balances when Σ input commitments − Σ output commitments has
// no H component. What remains is excess·G with excess = Σ input blinds −
// Σ output blinds. The sender proves knowledge of excess by signing a 32-byte
// message with it; verifiers recompute the point from the public commitments
// and check the signature under it.
//
// Messages are opaque 32-byte digests. Nothing here hashes them, so callers
// must hash the real transaction body themselves.

// ComputeExcess returns Σ inputBlinds − Σ outputBlinds modulo the group order.
//
// Parameters:
//   - inputBlinds: Up to MaxInputs 32-byte blinding factors
//   - outputBlinds: Up to MaxOutputs 32-byte blinding factors
//
// Returns OutOfRange when a list exceeds its limit, InvalidParameter on a
// wrong width, BlindSumFailed if a blind is not a valid scalar.
func (p *PrivacyEngine) ComputeExcess(inputBlinds, outputBlinds [][]byte) (excess Scalar, err error) {
	defer p.finish("ComputeExcess", &err)
	return p.computeExcess(inputBlinds, outputBlinds)
}

// checkBlindCounts enforces the input, output and total blind limits.
func (p *PrivacyEngine) checkBlindCounts(inputBlinds, outputBlinds [][]byte) error {
	if len(inputBlinds) > p.cfg.MaxInputs {
		return outOfRange("%d input blinds exceed the limit of %d", len(inputBlinds), p.cfg.MaxInputs)
	}
	if len(outputBlinds) > p.cfg.MaxOutputs {
		return outOfRange("%d output blinds exceed the limit of %d", len(outputBlinds), p.cfg.MaxOutputs)
	}
	total := len(inputBlinds) + len(outputBlinds)
	if total > p.cfg.MaxInputs+p.cfg.MaxOutputs {
		return outOfRange("%d blinds exceed the limit of %d", total, p.cfg.MaxInputs+p.cfg.MaxOutputs)
	}
	return nil
}

func (p *PrivacyEngine) computeExcess(inputBlinds, outputBlinds [][]byte) (Scalar, error) {
	if err := p.checkBlindCounts(inputBlinds, outputBlinds); err != nil {
		return Scalar{}, err
	}
	total := len(inputBlinds) + len(outputBlinds)

	// Inputs first: the pivot is the number of added terms.
	all := make([][32]byte, 0, total)
	for _, list := range [][][]byte{inputBlinds, outputBlinds} {
		for _, b := range list {
			k, err := toScalar(b)
			if err != nil {
				return Scalar{}, err
			}
			all = append(all, *k)
		}
	}

	sum, err := p.engine.BlindSum(all, len(inputBlinds))
	if err != nil {
		return Scalar{}, engineError(BlindSumFailed, err)
	}
	return Scalar(sum), nil
}

// ExcessSign computes the blinding excess and signs msg with it.
//
// Parameters:
//   - inputBlinds: Blinding factors of the spent commitments
//   - outputBlinds: Blinding factors of the created commitments
//   - msg: 32-byte digest of the transaction
//
// Returns the DER signature. Count limits are checked before the message
// width, so an oversized list is OutOfRange even with a malformed message. A
// zero excess cannot sign and is reported as EcdsaSignFailed.
func (p *PrivacyEngine) ExcessSign(inputBlinds, outputBlinds [][]byte, msg []byte) (sig ExcessSignature, err error) {
	defer p.finish("ExcessSign", &err)

	if err := p.checkBlindCounts(inputBlinds, outputBlinds); err != nil {
		return nil, err
	}
	digest, err := toDigest(msg)
	if err != nil {
		return nil, err
	}
	excess, err := p.computeExcess(inputBlinds, outputBlinds)
	if err != nil {
		return nil, err
	}

	k := [32]byte(excess)
	return p.sign(&k, digest)
}

// EcdsaSign signs a 32-byte digest with a private key and returns the DER
// encoding.
func (p *PrivacyEngine) EcdsaSign(priv, msg []byte) (sig ExcessSignature, err error) {
	defer p.finish("EcdsaSign", &err)

	k, err := toScalar(priv)
	if err != nil {
		return nil, err
	}
	digest, err := toDigest(msg)
	if err != nil {
		return nil, err
	}
	return p.sign(k, digest)
}

func (p *PrivacyEngine) sign(k, digest *[32]byte) (ExcessSignature, error) {
	der, err := p.engine.ECDSASign(k, digest)
	if err != nil {
		if errors.Is(err, ErrSignatureEncoding) {
			return nil, engineError(EcdsaSerializeFailed, err)
		}
		return nil, engineError(EcdsaSignFailed, err)
	}
	if len(der) > MaxSignatureSize {
		return nil, &Error{Code: EcdsaSerializeFailed, Detail: "signature exceeds the DER maximum"}
	}
	return ExcessSignature(der), nil
}

// EcdsaVerify checks a DER signature over a 32-byte digest.
//
// Parameters:
//   - pub: 33-byte compressed public key
//   - msg: 32-byte digest
//   - sig: DER signature of at most MaxSignatureSize bytes
//
// Returns InvalidParameter on wrong widths, PublicKeyParseFailed or
// EcdsaParseFailed on malformed inputs, EcdsaVerifyFailed when the signature
// does not verify.
func (p *PrivacyEngine) EcdsaVerify(pub, msg, sig []byte) (err error) {
	defer p.finish("EcdsaVerify", &err)
	return p.ecdsaVerify(pub, msg, sig)
}

func (p *PrivacyEngine) ecdsaVerify(pub, msg, sig []byte) error {
	raw, err := toPoint(pub)
	if err != nil {
		return err
	}
	digest, err := toDigest(msg)
	if err != nil {
		return err
	}
	if len(sig) == 0 || len(sig) > MaxSignatureSize {
		return invalidParameter("signature must be 1..%d bytes, got %d", MaxSignatureSize, len(sig))
	}

	key, err := p.engine.ParsePubkey(raw[:])
	if err != nil {
		return engineError(PublicKeyParseFailed, err)
	}

	if err := p.engine.ECDSAVerify(key, digest, sig); err != nil {
		if errors.Is(err, ErrSignatureEncoding) {
			return engineError(EcdsaParseFailed, err)
		}
		return engineError(EcdsaVerifyFailed, err)
	}
	return nil
}

// PedersenTallyVerify is the full transaction check: the commitments balance
// up to an excess point E, and sig is a valid signature of msg under E.
//
// Steps, each short-circuiting with its own code:
//  1. 1..MaxInputs inputs, 1..MaxOutputs outputs and a 32-byte msg, else
//     InvalidParameter.
//  2. E = Σinputs − Σoutputs, parsing every commitment.
//  3. E is encoded once as a public key and once as a commitment.
//  4. TallyVerify(inputs, outputs ∪ {E}).
//  5. EcdsaVerify(E, msg, sig).
//
// Only a signer who knows the scalar r with r·G = E can pass step 5, and E has
// that form only when the hidden amounts balance.
func (p *PrivacyEngine) PedersenTallyVerify(inputs, outputs [][]byte, msg, sig []byte) (err error) {
	defer p.finish("PedersenTallyVerify", &err)

	if len(inputs) < 1 || len(inputs) > p.cfg.MaxInputs {
		return invalidParameter("expected 1..%d inputs, got %d", p.cfg.MaxInputs, len(inputs))
	}
	if len(outputs) < 1 || len(outputs) > p.cfg.MaxOutputs {
		return invalidParameter("expected 1..%d outputs, got %d", p.cfg.MaxOutputs, len(outputs))
	}
	if len(msg) != DigestSize {
		return invalidParameter("message must be a %d-byte digest, got %d", DigestSize, len(msg))
	}

	excess, err := p.sumCommitments(inputs, outputs)
	if err != nil {
		return err
	}

	pub, err := p.engine.SerializePubkey(excess)
	if err != nil {
		return engineError(PublicKeySerializeFailed, err)
	}
	commit, err := p.engine.SerializeCommitment(excess)
	if err != nil {
		return engineError(CommitmentSerializeFailed, err)
	}

	withExcess := make([][]byte, 0, len(outputs)+1)
	withExcess = append(withExcess, outputs...)
	withExcess = append(withExcess, commit[:])
	if err := p.tallyVerify(inputs, withExcess); err != nil {
		return err
	}

	return p.ecdsaVerify(pub[:], msg, sig)
}

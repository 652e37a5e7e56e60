package privacy

// RangeProofProve proves that the commitment to value under blind hides an
// amount in [0, 2^bits), bits being the configured range-proof width.
//
// A fresh 32-byte nonce is drawn from the randomness source for every proof,
// so two proofs of the same opening differ.
//
// Parameters:
//   - blind: 32-byte blinding factor of the commitment
//   - value: The committed amount
//
// Returns InvalidParameter on a malformed blind, RandomSourceError if the
// nonce cannot be drawn, RangeProofProveFailed if the engine rejects the
// opening.
func (p *PrivacyEngine) RangeProofProve(blind []byte, value uint64) (proof RangeProof, err error) {
	defer p.finish("RangeProofProve", &err)

	k, err := toScalar(blind)
	if err != nil {
		return nil, err
	}

	b, err := p.readRandom(ScalarSize)
	if err != nil {
		return nil, err
	}
	var nonce [32]byte
	copy(nonce[:], b)

	out, err := p.engine.RangeProofProve(value, k, &nonce)
	if err != nil {
		return nil, engineError(RangeProofProveFailed, err)
	}
	if len(out) > MaxProofSize {
		return nil, &Error{Code: RangeProofProveFailed, Detail: "proof exceeds the maximum size"}
	}
	return RangeProof(out), nil
}

// RangeProofVerify checks proof against a serialized commitment.
//
// A proof verifies for exactly one commitment; it does not transfer to a
// commitment with the same value under a different blind.
//
// Returns InvalidParameter if the commitment is not 33 bytes or the proof is
// empty or oversized, CommitmentCreationFailed if the commitment does not
// parse, RangeProofVerifyFailed if the proof is rejected.
func (p *PrivacyEngine) RangeProofVerify(commitment, proof []byte) (err error) {
	defer p.finish("RangeProofVerify", &err)

	raw, err := toPoint(commitment)
	if err != nil {
		return err
	}
	if len(proof) == 0 || len(proof) > MaxProofSize {
		return invalidParameter("range proof must be 1..%d bytes, got %d", MaxProofSize, len(proof))
	}

	point, err := p.engine.ParseCommitment(raw)
	if err != nil {
		return engineError(CommitmentCreationFailed, err)
	}

	if err := p.engine.RangeProofVerify(point, proof); err != nil {
		return engineError(RangeProofVerifyFailed, err)
	}
	return nil
}

package privacy

// ============================================================================
// Pedersen commitments
// ============================================================================

// CreateCommitment computes C = blind·G + value·H.
//
// Construction is deterministic: the same value and blind always serialize to
// the same 33 bytes.
//
// Parameters:
//   - value: The amount to hide
//   - blind: 32-byte blinding factor
//
// Returns InvalidParameter on a wrong width, CommitmentCreationFailed if the
// engine rejects the blind (zero or not below the group order),
// CommitmentSerializeFailed if the point cannot be encoded.
func (p *PrivacyEngine) CreateCommitment(value uint64, blind []byte) (c Commitment, err error) {
	defer p.finish("CreateCommitment", &err)

	k, err := toScalar(blind)
	if err != nil {
		return c, err
	}

	point, err := p.engine.Commit(value, k)
	if err != nil {
		return c, engineError(CommitmentCreationFailed, err)
	}

	out, err := p.engine.SerializeCommitment(point)
	if err != nil {
		return c, engineError(CommitmentSerializeFailed, err)
	}
	return Commitment(out), nil
}

// ParseCommitment validates a serialized commitment and returns its canonical
// encoding.
func (p *PrivacyEngine) ParseCommitment(b []byte) (c Commitment, err error) {
	defer p.finish("ParseCommitment", &err)

	point, err := p.parseCommitment(b)
	if err != nil {
		return c, err
	}
	out, err := p.engine.SerializeCommitment(point)
	if err != nil {
		return c, engineError(CommitmentSerializeFailed, err)
	}
	return Commitment(out), nil
}

func (p *PrivacyEngine) parseCommitment(b []byte) (Element, error) {
	raw, err := toPoint(b)
	if err != nil {
		return nil, err
	}
	point, err := p.engine.ParseCommitment(raw)
	if err != nil {
		return nil, engineError(CommitmentParseFailed, err)
	}
	return point, nil
}

func (p *PrivacyEngine) parseCommitments(list [][]byte) ([]Element, error) {
	out := make([]Element, len(list))
	for i, b := range list {
		point, err := p.parseCommitment(b)
		if err != nil {
			return nil, err
		}
		out[i] = point
	}
	return out, nil
}

// TallyVerify checks that Σinputs − Σoutputs is the identity.
//
// Up to MaxInputs inputs and MaxOutputs+1 outputs are accepted; the extra
// output slot carries the excess commitment appended by PedersenTallyVerify.
// Every element is parsed before the balance check runs.
//
// Returns OutOfRange on too many elements, InvalidParameter or
// CommitmentParseFailed on a malformed element, TallyVerificationFailed when
// the sets do not balance.
func (p *PrivacyEngine) TallyVerify(inputs, outputs [][]byte) (err error) {
	defer p.finish("TallyVerify", &err)
	return p.tallyVerify(inputs, outputs)
}

func (p *PrivacyEngine) tallyVerify(inputs, outputs [][]byte) error {
	if len(inputs) > p.cfg.MaxInputs {
		return outOfRange("%d inputs exceed the limit of %d", len(inputs), p.cfg.MaxInputs)
	}
	if len(outputs) > p.cfg.MaxOutputs+1 {
		return outOfRange("%d outputs exceed the limit of %d", len(outputs), p.cfg.MaxOutputs+1)
	}

	pos, err := p.parseCommitments(inputs)
	if err != nil {
		return err
	}
	neg, err := p.parseCommitments(outputs)
	if err != nil {
		return err
	}

	ok, err := p.engine.VerifyTally(pos, neg)
	if err != nil {
		return engineError(TallyVerificationFailed, err)
	}
	if !ok {
		return newError(TallyVerificationFailed, nil)
	}
	return nil
}

// SumCommitments returns the serialized point Σpos − Σneg.
//
// The result is the excess commitment of a transaction when pos are its inputs
// and neg its outputs. A zero sum cannot be serialized and is reported as
// CommitmentSerializeFailed.
func (p *PrivacyEngine) SumCommitments(pos, neg [][]byte) (c Commitment, err error) {
	defer p.finish("SumCommitments", &err)

	point, err := p.sumCommitments(pos, neg)
	if err != nil {
		return c, err
	}
	out, err := p.engine.SerializeCommitment(point)
	if err != nil {
		return c, engineError(CommitmentSerializeFailed, err)
	}
	return Commitment(out), nil
}

func (p *PrivacyEngine) sumCommitments(pos, neg [][]byte) (Element, error) {
	acc := p.engine.Identity()
	for _, b := range pos {
		point, err := p.parseCommitment(b)
		if err != nil {
			return nil, err
		}
		if acc, err = p.engine.Add(acc, point); err != nil {
			return nil, engineError(CommitmentParseFailed, err)
		}
	}
	for _, b := range neg {
		point, err := p.parseCommitment(b)
		if err != nil {
			return nil, err
		}
		inv, err := p.engine.Negate(point)
		if err != nil {
			return nil, engineError(CommitmentParseFailed, err)
		}
		if acc, err = p.engine.Add(acc, inv); err != nil {
			return nil, engineError(CommitmentParseFailed, err)
		}
	}
	return acc, nil
}

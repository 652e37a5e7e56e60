package privacy

import "errors"

// GenerateKeyPair draws a fresh private key from the randomness source and
// derives its public key.
//
// Draws that are not a valid scalar (zero or not below the group order) are
// discarded. Running out of draws, or a failing source, is RandomSourceError.
func (p *PrivacyEngine) GenerateKeyPair() (pub PublicKey, priv Scalar, err error) {
	defer p.finish("GenerateKeyPair", &err)

	for i := 0; i < maxKeyDraws; i++ {
		b, rerr := p.readRandom(ScalarSize)
		if rerr != nil {
			return pub, priv, rerr
		}

		k, derr := p.derivePublicKey(b)
		if CodeOf(derr) == PublicKeyCreationFailed {
			continue
		}
		if derr != nil {
			return pub, priv, derr
		}

		copy(priv[:], b)
		return k, priv, nil
	}
	return pub, priv, &Error{Code: RandomSourceError, Cause: errors.New("no valid private scalar drawn")}
}

// DerivePublicKey computes priv·G as a compressed public key.
//
// Parameters:
//   - priv: 32-byte private scalar
//
// Returns InvalidParameter on a wrong width, PublicKeyCreationFailed if the
// scalar is zero or out of range, PublicKeySerializeFailed if the point cannot
// be compressed.
func (p *PrivacyEngine) DerivePublicKey(priv []byte) (pub PublicKey, err error) {
	defer p.finish("DerivePublicKey", &err)
	return p.derivePublicKey(priv)
}

func (p *PrivacyEngine) derivePublicKey(priv []byte) (PublicKey, error) {
	k, err := toScalar(priv)
	if err != nil {
		return PublicKey{}, err
	}

	point, err := p.engine.PubkeyCreate(k)
	if err != nil {
		return PublicKey{}, engineError(PublicKeyCreationFailed, err)
	}

	out, err := p.engine.SerializePubkey(point)
	if err != nil {
		return PublicKey{}, engineError(PublicKeySerializeFailed, err)
	}
	return PublicKey(out), nil
}

// DeriveSharedBlind derives a blinding factor shared between two parties.
//
// The result is the ECDH secret of priv and pub, so the sender (own private
// key, recipient public key) and the recipient (own private key, sender
// public key) compute the same value without transmitting it.
//
// Parameters:
//   - priv: 32-byte private scalar
//   - pub: 33-byte compressed public key of the counterparty
//
// Returns InvalidParameter on wrong widths, CommitmentParseFailed if pub is
// not a curve point, PublicKeyCreationFailed if the secret cannot be formed.
func (p *PrivacyEngine) DeriveSharedBlind(priv, pub []byte) (blind Scalar, err error) {
	defer p.finish("DeriveSharedBlind", &err)

	k, err := toScalar(priv)
	if err != nil {
		return blind, err
	}
	raw, err := toPoint(pub)
	if err != nil {
		return blind, err
	}

	point, err := p.engine.ParsePubkey(raw[:])
	if err != nil {
		return blind, engineError(CommitmentParseFailed, err)
	}

	secret, err := p.engine.ECDH(k, point)
	if err != nil {
		return blind, engineError(PublicKeyCreationFailed, err)
	}
	return Scalar(secret), nil
}

// CombinePublicKeys returns the point sum of 1..MaxInputs public keys.
func (p *PrivacyEngine) CombinePublicKeys(pubs [][]byte) (sum PublicKey, err error) {
	defer p.finish("CombinePublicKeys", &err)

	if len(pubs) == 0 {
		return sum, invalidParameter("at least one public key is required")
	}
	if len(pubs) > p.cfg.MaxInputs {
		return sum, outOfRange("%d public keys exceed the limit of %d", len(pubs), p.cfg.MaxInputs)
	}

	acc := p.engine.Identity()
	for _, b := range pubs {
		raw, err := toPoint(b)
		if err != nil {
			return sum, err
		}
		point, err := p.engine.ParsePubkey(raw[:])
		if err != nil {
			return sum, engineError(PublicKeyParseFailed, err)
		}
		if acc, err = p.engine.Add(acc, point); err != nil {
			return sum, engineError(PublicKeyParseFailed, err)
		}
	}

	out, err := p.engine.SerializePubkey(acc)
	if err != nil {
		return sum, engineError(PublicKeySerializeFailed, err)
	}
	return PublicKey(out), nil
}

package ct

import (
	"math/bits"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// OpenToken recovers the amount and blind of a token owned by priv.
//
// The blind is the ECDH secret of priv and the token's one-time sender key.
// The amount is decrypted with the same secret and confirmed against the
// commitment, so a token that decrypts to the wrong amount is rejected.
func OpenToken(p *privacy.PrivacyEngine, tok *Token, priv privacy.Scalar) (value uint64, blind privacy.Scalar, err error) {
	blind, err = p.DeriveSharedBlind(priv[:], tok.FromPubkey[:])
	if err != nil {
		return 0, blind, &TransferError{Code: ErrInvalidToken, Message: "failed to derive token blind", Cause: err}
	}

	value, err = DecryptValue(blind, tok.EncryptedValue)
	if err != nil {
		return 0, blind, err
	}

	c, err := p.CreateCommitment(value, blind[:])
	if err != nil {
		return 0, blind, &TransferError{Code: ErrInvalidToken, Message: "failed to recompute commitment", Cause: err}
	}
	if c != tok.Commit {
		return 0, blind, &TransferError{Code: ErrInvalidToken, Message: "token does not open under this key"}
	}
	return value, blind, nil
}

// NewOutput creates a token of value for the holder of recipient.
//
// A one-time key pair is drawn for the output. Its ECDH secret with the
// recipient key is both the commitment blind and the encryption key of the
// amount. The returned blind is needed to sign the transfer.
func NewOutput(p *privacy.PrivacyEngine, to string, recipient privacy.PublicKey, value uint64) (Token, privacy.Scalar, error) {
	ephPub, ephPriv, err := p.GenerateKeyPair()
	if err != nil {
		return Token{}, privacy.Scalar{}, &TransferError{Code: ErrInvalidToken, Message: "failed to draw one-time key", Cause: err}
	}

	blind, err := p.DeriveSharedBlind(ephPriv[:], recipient[:])
	if err != nil {
		return Token{}, privacy.Scalar{}, &TransferError{Code: ErrInvalidToken, Message: "invalid recipient key", Cause: err}
	}

	commit, err := p.CreateCommitment(value, blind[:])
	if err != nil {
		return Token{}, privacy.Scalar{}, &TransferError{Code: ErrInvalidToken, Message: "failed to commit to amount", Cause: err}
	}

	enc, err := EncryptValue(blind, value)
	if err != nil {
		return Token{}, privacy.Scalar{}, err
	}

	proof, err := p.RangeProofProve(blind[:], value)
	if err != nil {
		return Token{}, privacy.Scalar{}, &TransferError{Code: ErrInvalidRangeProof, Message: "failed to prove amount range", Cause: err}
	}

	tok := Token{
		Commit:         commit,
		EncryptedValue: enc,
		FromPubkey:     ephPub,
		RangeProof:     proof,
		To:             to,
	}
	return tok, blind, nil
}

// BuildIssue creates the initial supply of a token for owner.
func BuildIssue(p *privacy.PrivacyEngine, name, symbol string, owner privacy.PublicKey, value uint64) (*Issue, error) {
	if name == "" || symbol == "" {
		return nil, &TransferError{Code: ErrInvalidToken, Message: "name and symbol are required"}
	}

	tok, _, err := NewOutput(p, "", owner, value)
	if err != nil {
		return nil, err
	}
	return &Issue{Name: name, Symbol: symbol, Token: tok}, nil
}

type spend struct {
	id    uint64
	value uint64
	blind privacy.Scalar
}

type pendingOutput struct {
	token Token
	value uint64
	blind privacy.Scalar
}

// Builder assembles a balanced transfer.
//
// Typical use:
//
//	b := ct.NewBuilder(p)
//	b.AddInput(tok, myKey)
//	b.AddOutput("bob", bobPub, 40)
//	tx, err := b.Build("alice", myPub)
//
// Build adds a change output for any surplus and signs the transfer with the
// blinding excess.
type Builder struct {
	p       *privacy.PrivacyEngine
	inputs  []spend
	outputs []pendingOutput
}

// NewBuilder creates an empty Builder.
func NewBuilder(p *privacy.PrivacyEngine) *Builder {
	return &Builder{p: p}
}

// AddInput spends tok, which must open under priv.
func (b *Builder) AddInput(tok Token, priv privacy.Scalar) error {
	value, blind, err := OpenToken(b.p, &tok, priv)
	if err != nil {
		return err
	}
	b.inputs = append(b.inputs, spend{id: tok.ID, value: value, blind: blind})
	return nil
}

// AddOutput pays value to account to, whose public key is recipient.
func (b *Builder) AddOutput(to string, recipient privacy.PublicKey, value uint64) error {
	if to == "" {
		return &TransferError{Code: ErrInvalidToken, Message: "output has no recipient account"}
	}

	tok, blind, err := NewOutput(b.p, to, recipient, value)
	if err != nil {
		return err
	}
	b.outputs = append(b.outputs, pendingOutput{token: tok, value: value, blind: blind})
	return nil
}

// Build balances, signs and returns the transfer.
//
// A surplus of inputs over outputs goes back to changeTo under changeKey.
// The Builder is left unchanged, so Build may be retried after a failure.
func (b *Builder) Build(changeTo string, changeKey privacy.PublicKey) (*Transfer, error) {
	if len(b.inputs) == 0 {
		return nil, &TransferError{Code: ErrEmptyTransfer, Message: "transfer has no inputs"}
	}

	in, err := sumValues(len(b.inputs), func(i int) uint64 { return b.inputs[i].value })
	if err != nil {
		return nil, err
	}
	out, err := sumValues(len(b.outputs), func(i int) uint64 { return b.outputs[i].value })
	if err != nil {
		return nil, err
	}
	if out > in {
		return nil, &TransferError{Code: ErrInsufficientFunds, Message: "outputs exceed inputs"}
	}

	outputs := append([]pendingOutput(nil), b.outputs...)
	if in > out || len(outputs) == 0 {
		if changeTo == "" {
			return nil, &TransferError{Code: ErrInvalidToken, Message: "change output has no recipient account"}
		}
		tok, blind, err := NewOutput(b.p, changeTo, changeKey, in-out)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, pendingOutput{token: tok, value: in - out, blind: blind})
	}

	tx := &Transfer{
		Inputs:  make([]InputRef, len(b.inputs)),
		Outputs: make([]Token, len(outputs)),
	}
	inBlinds := make([][]byte, len(b.inputs))
	for i, s := range b.inputs {
		tx.Inputs[i] = InputRef{ID: s.id}
		inBlinds[i] = s.blind.Bytes()
	}
	outBlinds := make([][]byte, len(outputs))
	for i, o := range outputs {
		tx.Outputs[i] = o.token
		outBlinds[i] = o.blind.Bytes()
	}

	tx.ExcessMsg = tx.Digest()
	tx.ExcessSig, err = b.p.ExcessSign(inBlinds, outBlinds, tx.ExcessMsg[:])
	if err != nil {
		return nil, &TransferError{Code: ErrInvalidExcess, Message: "failed to sign excess", Cause: err}
	}

	// Check the result the way a ledger will. Input commitments are
	// recomputed from the opened amounts.
	inCommits := make([][]byte, 0, len(b.inputs))
	outCommits := make([][]byte, len(outputs))
	for i := range outputs {
		outCommits[i] = tx.Outputs[i].Commit.Bytes()
	}
	for _, s := range b.inputs {
		c, err := b.p.CreateCommitment(s.value, s.blind[:])
		if err != nil {
			return nil, &TransferError{Code: ErrInvalidToken, Message: "failed to recompute input commitment", Cause: err}
		}
		inCommits = append(inCommits, c.Bytes())
	}
	if err := b.p.PedersenTallyVerify(inCommits, outCommits, tx.ExcessMsg[:], tx.ExcessSig); err != nil {
		return nil, &TransferError{Code: ErrInvalidExcess, Message: "transfer does not balance", Cause: err}
	}
	return tx, nil
}

func sumValues(n int, value func(int) uint64) (uint64, error) {
	var total uint64
	for i := 0; i < n; i++ {
		var carry uint64
		total, carry = bits.Add64(total, value(i), 0)
		if carry != 0 {
			return 0, &TransferError{Code: ErrValueOverflow, Message: "amounts overflow 64 bits"}
		}
	}
	return total, nil
}

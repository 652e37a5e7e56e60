package ct

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suffix-labs/ct-privacy/pkg/crypto"
	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

var (
	engineOnce sync.Once
	sharedEng  *crypto.Engine
)

func newTestPrivacy(t *testing.T) *privacy.PrivacyEngine {
	t.Helper()
	engineOnce.Do(func() {
		e, err := crypto.NewEngine(64, 256)
		if err != nil {
			panic(err)
		}
		sharedEng = e
	})
	p, err := privacy.New(sharedEng)
	require.NoError(t, err)
	return p
}

type party struct {
	name string
	pub  privacy.PublicKey
	priv privacy.Scalar
}

func newParty(t *testing.T, p *privacy.PrivacyEngine, name string) party {
	t.Helper()
	pub, priv, err := p.GenerateKeyPair()
	require.NoError(t, err)
	return party{name: name, pub: pub, priv: priv}
}

func requireTransferCode(t *testing.T, code string, err error) {
	t.Helper()
	var te *TransferError
	require.True(t, errors.As(err, &te), "error: %v", err)
	assert.Equal(t, code, te.Code)
}

// ownedToken creates a token of value for owner with the given ledger id.
func ownedToken(t *testing.T, p *privacy.PrivacyEngine, owner party, id, value uint64) Token {
	t.Helper()
	tok, _, err := NewOutput(p, owner.name, owner.pub, value)
	require.NoError(t, err)
	tok.ID = id
	return tok
}

func TestNewOutputOpens(t *testing.T) {
	p := newTestPrivacy(t)
	bob := newParty(t, p, "bob")

	tok, blind, err := NewOutput(p, "bob", bob.pub, 77)
	require.NoError(t, err)
	assert.Equal(t, "bob", tok.To)
	assert.NotEmpty(t, tok.RangeProof)
	require.NoError(t, p.RangeProofVerify(tok.Commit[:], tok.RangeProof))

	value, opened, err := OpenToken(p, &tok, bob.priv)
	require.NoError(t, err)
	assert.Equal(t, uint64(77), value)
	assert.Equal(t, blind, opened)
}

func TestOpenTokenWrongKey(t *testing.T) {
	p := newTestPrivacy(t)
	bob := newParty(t, p, "bob")
	eve := newParty(t, p, "eve")

	tok, _, err := NewOutput(p, "bob", bob.pub, 5)
	require.NoError(t, err)

	_, _, err = OpenToken(p, &tok, eve.priv)
	require.Error(t, err)
}

func TestOpenTokenRejectsForgedAmount(t *testing.T) {
	p := newTestPrivacy(t)
	bob := newParty(t, p, "bob")

	tok, blind, err := NewOutput(p, "bob", bob.pub, 5)
	require.NoError(t, err)

	// Same key, different amount: decrypts but does not match the commitment.
	tok.EncryptedValue, err = EncryptValue(blind, 500)
	require.NoError(t, err)

	_, _, err = OpenToken(p, &tok, bob.priv)
	requireTransferCode(t, ErrInvalidToken, err)
}

func TestBuilderBalancesWithChange(t *testing.T) {
	p := newTestPrivacy(t)
	alice := newParty(t, p, "alice")
	bob := newParty(t, p, "bob")

	b := NewBuilder(p)
	require.NoError(t, b.AddInput(ownedToken(t, p, alice, 1, 60), alice.priv))
	require.NoError(t, b.AddInput(ownedToken(t, p, alice, 2, 40), alice.priv))
	require.NoError(t, b.AddOutput("bob", bob.pub, 75))

	tx, err := b.Build("alice", alice.pub)
	require.NoError(t, err)

	assert.Equal(t, []InputRef{{ID: 1}, {ID: 2}}, tx.Inputs)
	require.Len(t, tx.Outputs, 2)
	assert.Equal(t, tx.Digest(), tx.ExcessMsg)

	paid, _, err := OpenToken(p, &tx.Outputs[0], bob.priv)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), paid)

	change, _, err := OpenToken(p, &tx.Outputs[1], alice.priv)
	require.NoError(t, err)
	assert.Equal(t, uint64(25), change)
	assert.Equal(t, "alice", tx.Outputs[1].To)
}

func TestBuilderExactAmountHasNoChange(t *testing.T) {
	p := newTestPrivacy(t)
	alice := newParty(t, p, "alice")
	bob := newParty(t, p, "bob")

	b := NewBuilder(p)
	require.NoError(t, b.AddInput(ownedToken(t, p, alice, 1, 10), alice.priv))
	require.NoError(t, b.AddOutput("bob", bob.pub, 10))

	tx, err := b.Build("alice", alice.pub)
	require.NoError(t, err)
	assert.Len(t, tx.Outputs, 1)
}

func TestBuilderErrors(t *testing.T) {
	p := newTestPrivacy(t)
	alice := newParty(t, p, "alice")
	bob := newParty(t, p, "bob")

	_, err := NewBuilder(p).Build("alice", alice.pub)
	requireTransferCode(t, ErrEmptyTransfer, err)

	b := NewBuilder(p)
	require.NoError(t, b.AddInput(ownedToken(t, p, alice, 1, 10), alice.priv))
	require.NoError(t, b.AddOutput("bob", bob.pub, 11))
	_, err = b.Build("alice", alice.pub)
	requireTransferCode(t, ErrInsufficientFunds, err)

	err = b.AddOutput("", bob.pub, 1)
	requireTransferCode(t, ErrInvalidToken, err)

	err = b.AddInput(ownedToken(t, p, bob, 3, 10), alice.priv)
	require.Error(t, err)

	big := NewBuilder(p)
	require.NoError(t, big.AddInput(ownedToken(t, p, alice, 1, math.MaxUint64), alice.priv))
	require.NoError(t, big.AddInput(ownedToken(t, p, alice, 2, 1), alice.priv))
	_, err = big.Build("alice", alice.pub)
	requireTransferCode(t, ErrValueOverflow, err)
}

func TestBuildIssue(t *testing.T) {
	p := newTestPrivacy(t)
	alice := newParty(t, p, "alice")

	iss, err := BuildIssue(p, "Confidential", "CFT", alice.pub, 1000)
	require.NoError(t, err)
	assert.Equal(t, "CFT", iss.Symbol)
	assert.Empty(t, iss.Token.To)

	value, _, err := OpenToken(p, &iss.Token, alice.priv)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), value)

	_, err = BuildIssue(p, "", "CFT", alice.pub, 1)
	requireTransferCode(t, ErrInvalidToken, err)
}

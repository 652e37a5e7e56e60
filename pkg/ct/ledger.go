package ct

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// Ledger is the confidential token registry.
//
// It holds the token metadata written by Issue and the unspent tokens of every
// account. Issue and Transfer validate everything before touching state: on
// error the ledger is unchanged. Ledger is safe for concurrent use.
type Ledger struct {
	mu       sync.RWMutex
	p        *privacy.PrivacyEngine
	log      zerolog.Logger
	info     *TokenInfo
	accounts map[string][]Token
	maxID    uint64
}

// NewLedger creates an empty ledger that verifies with p.
func NewLedger(p *privacy.PrivacyEngine, log zerolog.Logger) *Ledger {
	return &Ledger{
		p:        p,
		log:      log.With().Str("component", "ledger").Logger(),
		accounts: make(map[string][]Token),
	}
}

// Issue records the token metadata and credits the issued token to sender.
// A ledger accepts exactly one Issue.
func (l *Ledger) Issue(sender string, iss *Issue, txHash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.info != nil {
		return &LedgerError{Code: ErrAlreadyIssued, Message: "already issued"}
	}
	if sender == "" || iss.Name == "" || iss.Symbol == "" {
		return &LedgerError{Code: ErrInvalidToken, Message: "sender, name and symbol are required"}
	}

	tok := iss.Token
	if tok.Commit == (privacy.Commitment{}) || tok.FromPubkey == (privacy.PublicKey{}) || len(tok.RangeProof) == 0 {
		return &LedgerError{Code: ErrInvalidToken, Message: "issued token is incomplete"}
	}
	if err := l.p.RangeProofVerify(tok.Commit[:], tok.RangeProof); err != nil {
		return &LedgerError{Code: ErrInvalidRangeProof, Message: "failed to verify range proof", Cause: err}
	}

	l.maxID++
	tok.ID = l.maxID
	tok.TxHash = txHash
	tok.RangeProof = nil
	tok.To = ""

	l.info = &TokenInfo{Name: iss.Name, Symbol: iss.Symbol, Version: TokenVersion}
	l.accounts[sender] = append(l.accounts[sender], tok)

	l.log.Info().
		Str("sender", sender).
		Str("symbol", iss.Symbol).
		Uint64("id", tok.ID).
		Msg("token issued")
	return nil
}

// Transfer spends tokens of sender and credits the outputs to their
// recipients.
//
// Every input must be an unspent token of sender. Every output must be
// complete and carry a valid range proof. The excess message must be the
// transfer digest, and the excess signature must verify against the input
// and output commitments. Accepted outputs get fresh ids and txHash; their
// range proofs and recipient fields are dropped.
func (l *Ledger) Transfer(sender string, tx *Transfer, txHash string) error {
	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return &LedgerError{Code: ErrEmptyTransfer, Message: "transfer needs inputs and outputs"}
	}
	if len(tx.ExcessSig) == 0 {
		return &LedgerError{Code: ErrInvalidExcess, Message: "missing excess signature"}
	}
	if tx.ExcessMsg != tx.Digest() {
		return &LedgerError{Code: ErrInvalidExcess, Message: "excess message does not match the transfer"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Consume inputs from a copy of the sender's tokens.
	owned := append([]Token(nil), l.accounts[sender]...)
	inCommits := make([][]byte, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		i := indexOfToken(owned, in.ID)
		if i < 0 {
			return &LedgerError{Code: ErrUnknownToken, Message: fmt.Sprintf("no such token: %d", in.ID)}
		}
		inCommits = append(inCommits, owned[i].Commit.Bytes())
		owned = append(owned[:i], owned[i+1:]...)
	}

	outCommits := make([][]byte, 0, len(tx.Outputs))
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if err := validateOutput(out); err != nil {
			return err
		}
		if err := l.p.RangeProofVerify(out.Commit[:], out.RangeProof); err != nil {
			return &LedgerError{
				Code:    ErrInvalidRangeProof,
				Message: fmt.Sprintf("failed to verify range proof of output %d", i),
				Cause:   err,
			}
		}
		outCommits = append(outCommits, out.Commit.Bytes())
	}

	if err := l.p.PedersenTallyVerify(inCommits, outCommits, tx.ExcessMsg[:], tx.ExcessSig); err != nil {
		return &LedgerError{Code: ErrInvalidExcess, Message: "failed to verify excess", Cause: err}
	}

	// Commit.
	l.accounts[sender] = owned
	for _, out := range tx.Outputs {
		l.maxID++
		tok := out
		tok.ID = l.maxID
		tok.TxHash = txHash
		tok.RangeProof = nil
		tok.To = ""
		l.accounts[out.To] = append(l.accounts[out.To], tok)
	}

	l.log.Info().
		Str("sender", sender).
		Int("inputs", len(tx.Inputs)).
		Int("outputs", len(tx.Outputs)).
		Str("hash", txHash).
		Msg("transfer applied")
	return nil
}

// Info returns the token metadata, or false before the first Issue.
func (l *Ledger) Info() (TokenInfo, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.info == nil {
		return TokenInfo{}, false
	}
	return *l.info, true
}

// Tokens returns a copy of the unspent tokens of account.
func (l *Ledger) Tokens(account string) []Token {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]Token(nil), l.accounts[account]...)
}

// Balance opens every token of account with priv and returns the total.
func (l *Ledger) Balance(account string, priv privacy.Scalar) (uint64, error) {
	tokens := l.Tokens(account)
	values := make([]uint64, len(tokens))
	for i := range tokens {
		v, _, err := OpenToken(l.p, &tokens[i], priv)
		if err != nil {
			return 0, err
		}
		values[i] = v
	}
	return sumValues(len(values), func(i int) uint64 { return values[i] })
}

func indexOfToken(tokens []Token, id uint64) int {
	for i := range tokens {
		if tokens[i].ID == id {
			return i
		}
	}
	return -1
}

func validateOutput(t *Token) error {
	if t.Commit == (privacy.Commitment{}) ||
		len(t.EncryptedValue) == 0 ||
		t.FromPubkey == (privacy.PublicKey{}) ||
		len(t.RangeProof) == 0 ||
		t.To == "" {
		return &LedgerError{Code: ErrInvalidToken, Message: "invalid token format"}
	}
	return nil
}

// ============================================================================
// Contract entry point
// ============================================================================

// Call is a contract invocation: a method name and its JSON parameters.
type Call struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// RangeProofCheck is the parameter object of the rangeproofVerify method.
type RangeProofCheck struct {
	Commit privacy.Commitment `json:"commit"`
	Proof  privacy.RangeProof `json:"proof"`
}

// TallyCheck is the parameter object of the tallyVerify method.
type TallyCheck struct {
	Inputs    []privacy.Commitment    `json:"inputs"`
	Outputs   []privacy.Commitment    `json:"outputs"`
	ExcessMsg Digest                  `json:"excess_msg"`
	ExcessSig privacy.ExcessSignature `json:"excess_sig"`
}

// Receipt reports the outcome of a Dispatch call. Code is the protocol error
// code of a verification method; state-changing methods always report
// success, failures are returned as errors.
type Receipt struct {
	Method  string            `json:"method"`
	Code    privacy.ErrorCode `json:"code"`
	Message string            `json:"message"`
}

// Dispatch decodes a contract invocation and runs it on behalf of sender.
//
// Supported methods: issue, transfer, tallyVerify, rangeproofVerify.
func (l *Ledger) Dispatch(sender, txHash string, input []byte) (*Receipt, error) {
	var call Call
	if err := json.Unmarshal(input, &call); err != nil {
		return nil, &ParseError{Message: "invalid call", Cause: err}
	}

	var err error
	switch call.Method {
	case "issue":
		var iss Issue
		if err := decodeParams(call.Params, &iss); err != nil {
			return nil, err
		}
		err = l.Issue(sender, &iss, txHash)
	case "transfer":
		var tx Transfer
		if err := decodeParams(call.Params, &tx); err != nil {
			return nil, err
		}
		err = l.Transfer(sender, &tx, txHash)
	case "tallyVerify":
		var check TallyCheck
		if err := decodeParams(call.Params, &check); err != nil {
			return nil, err
		}
		verr := l.p.PedersenTallyVerify(commitmentBytes(check.Inputs), commitmentBytes(check.Outputs), check.ExcessMsg[:], check.ExcessSig)
		return newReceipt(call.Method, verr), nil
	case "rangeproofVerify":
		var check RangeProofCheck
		if err := decodeParams(call.Params, &check); err != nil {
			return nil, err
		}
		verr := l.p.RangeProofVerify(check.Commit[:], check.Proof)
		return newReceipt(call.Method, verr), nil
	default:
		return nil, &LedgerError{Code: ErrUnknownMethod, Message: fmt.Sprintf("unknown method %q", call.Method)}
	}
	if err != nil {
		return nil, err
	}
	return newReceipt(call.Method, nil), nil
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return &ParseError{Message: "missing params"}
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &ParseError{Message: "invalid params", Cause: err}
	}
	return nil
}

func newReceipt(method string, err error) *Receipt {
	return &Receipt{Method: method, Code: privacy.CodeOf(err), Message: privacy.Describe(err)}
}

func commitmentBytes(list []privacy.Commitment) [][]byte {
	out := make([][]byte, len(list))
	for i := range list {
		out[i] = list[i].Bytes()
	}
	return out
}

// ============================================================================
// Persistence
// ============================================================================

type snapshot struct {
	Info     *TokenInfo         `json:"global_attribute,omitempty"`
	MaxID    uint64             `json:"max_id,string"`
	Accounts map[string][]Token `json:"accounts"`
}

// SaveToFile writes the ledger state to a JSON file, replacing it if it
// exists.
func (l *Ledger) SaveToFile(path string) error {
	l.mu.RLock()
	data, err := json.MarshalIndent(snapshot{Info: l.info, MaxID: l.maxID, Accounts: l.accounts}, "", "  ")
	l.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	return nil
}

// LoadLedgerFromFile restores a ledger written by SaveToFile.
func LoadLedgerFromFile(path string, p *privacy.PrivacyEngine, log zerolog.Logger) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &ParseError{Message: "invalid ledger file", Cause: err}
	}

	l := NewLedger(p, log)
	l.info = s.Info
	l.maxID = s.MaxID
	for account, tokens := range s.Accounts {
		l.accounts[account] = tokens
	}
	return l, nil
}

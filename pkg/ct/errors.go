package ct

import "fmt"

// TransferError is returned when a transfer or issue cannot be built.
//
// Common causes: a token that does not open under the given key, an amount
// overflow, insufficient funds.
type TransferError struct {
	Code    string // Error code (e.g., ErrInsufficientFunds)
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *TransferError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transfer error [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("transfer error [%s]: %s", e.Code, e.Message)
}

func (e *TransferError) Unwrap() error {
	return e.Cause
}

// LedgerError is returned when the ledger rejects an issue or transfer.
//
// The ledger state is unchanged when this error is returned.
type LedgerError struct {
	Code    string // Error code (e.g., ErrUnknownToken)
	Message string // Human-readable error message
	Cause   error  // Underlying error (if any)
}

func (e *LedgerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("ledger error [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("ledger error [%s]: %s", e.Code, e.Message)
}

func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// ParseError is returned when transfer bytes cannot be decoded.
//
// This occurs when the input is not a valid encoding (wrong magic bytes,
// unsupported version, truncated or malformed fields).
type ParseError struct {
	Message string // Human-readable error message
	Cause   error  // Underlying decode error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Error codes used by TransferError and LedgerError.
const (
	ErrInvalidToken      = "INVALID_TOKEN"      // Token is missing fields or does not open
	ErrInsufficientFunds = "INSUFFICIENT_FUNDS" // Inputs do not cover the outputs
	ErrValueOverflow     = "VALUE_OVERFLOW"     // Amounts do not fit in 64 bits
	ErrDecryptFailed     = "DECRYPT_FAILED"     // Encrypted amount is malformed
	ErrAlreadyIssued     = "ALREADY_ISSUED"     // Issue called twice
	ErrUnknownToken      = "UNKNOWN_TOKEN"      // Input is not owned by the sender
	ErrInvalidRangeProof = "INVALID_RANGE_PROOF"
	ErrInvalidExcess     = "INVALID_EXCESS" // Tally or excess signature check failed
	ErrEmptyTransfer     = "EMPTY_TRANSFER" // No inputs or no outputs
	ErrUnknownMethod     = "UNKNOWN_METHOD"
)

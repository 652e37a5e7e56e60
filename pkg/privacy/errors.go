package privacy

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the outcome of a privacy operation.
//
// The numeric values are part of the external contract: flat-function callers
// receive them verbatim, so they must never be renumbered.
type ErrorCode int64

const (
	Success                   ErrorCode = 0
	RandomSourceError         ErrorCode = 201 // Randomness capability failed
	InvalidParameter          ErrorCode = 202 // Length, width or encoding check failed
	CommitmentCreationFailed  ErrorCode = 203 // Engine rejected the blind or value
	CommitmentParseFailed     ErrorCode = 204 // Bytes are not a valid commitment
	CommitmentSerializeFailed ErrorCode = 205 // Point could not be compressed
	PublicKeySerializeFailed  ErrorCode = 206 // Point could not be compressed as a pubkey
	TallyVerificationFailed   ErrorCode = 207 // Σinputs − Σoutputs is not the identity
	PublicKeyCreationFailed   ErrorCode = 208 // Invalid private scalar or ECDH failure
	RangeProofProveFailed     ErrorCode = 209
	RangeProofVerifyFailed    ErrorCode = 210
	OutOfRange                ErrorCode = 211 // Input/output count exceeds the caps
	EcdsaSignFailed           ErrorCode = 212
	EcdsaSerializeFailed      ErrorCode = 213
	EcdsaVerifyFailed         ErrorCode = 214
	EcdsaParseFailed          ErrorCode = 215
	PublicKeyParseFailed      ErrorCode = 216
	BlindSumFailed            ErrorCode = 217
	UnknownError              ErrorCode = 218
	EngineInternalError       ErrorCode = 219 // Unexpected engine fault, see Error.Detail
)

var codeText = map[ErrorCode]string{
	Success:                   "Success!",
	RandomSourceError:         "Generates a random number error!",
	InvalidParameter:          "Invalid parameters!",
	CommitmentCreationFailed:  "Failed to create pedersen commitment!",
	CommitmentParseFailed:     "Failed to parse pedersen commitment!",
	CommitmentSerializeFailed: "Failed to serialize pedersen commitment!",
	PublicKeySerializeFailed:  "Failed to serialize pubkey!",
	TallyVerificationFailed:   "Failed to verify tally!",
	PublicKeyCreationFailed:   "Failed to create pubkey!",
	RangeProofProveFailed:     "Failed to generate rangeproof!",
	RangeProofVerifyFailed:    "Failed to verify rangeproof!",
	OutOfRange:                "Out of range!",
	EcdsaSignFailed:           "Failed to create ecdsa signature!",
	EcdsaSerializeFailed:      "Failed to serialize ecdsa signature!",
	EcdsaVerifyFailed:         "Failed to verify ecdsa signature!",
	EcdsaParseFailed:          "Failed to parse ecdsa signature!",
	PublicKeyParseFailed:      "Failed to parse pubkey!",
	BlindSumFailed:            "Failed to blind sum!",
	UnknownError:              "An unknown error!",
	EngineInternalError:       "BP library internal error,",
}

// String returns the bare description of the code.
func (c ErrorCode) String() string {
	if text, ok := codeText[c]; ok {
		return text
	}
	return codeText[UnknownError]
}

// Message returns the human-readable message for code.
//
// Success is reported with an info prefix, every other code with the
// illegal-argument prefix. Codes outside the taxonomy describe themselves as
// UnknownError. Message is a pure lookup and never panics.
func Message(code ErrorCode) string {
	prefix := "[privacy] illegal argument:"
	if code == Success {
		prefix = "[privacy] info:"
	}
	return prefix + code.String()
}

// Error is the error type returned by every PrivacyEngine operation.
type Error struct {
	Code   ErrorCode // Closed taxonomy code
	Detail string    // Free-text diagnostic from the engine (may be empty)
	Cause  error     // Underlying error (if any)
}

func (e *Error) Error() string {
	msg := Message(e.Code) + e.Detail
	if e.Cause != nil {
		return fmt.Sprintf("privacy error [%d]: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("privacy error [%d]: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code, so callers can
// write errors.Is(err, &privacy.Error{Code: privacy.OutOfRange}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// CodeOf extracts the ErrorCode carried by err.
//
// nil maps to Success and errors that did not originate from this package map
// to UnknownError.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return UnknownError
}

// Describe returns the message a flat-function caller should see for err.
// EngineInternalError carries the engine diagnostic appended to the message.
func Describe(err error) string {
	if err == nil {
		return Message(Success)
	}
	var perr *Error
	if errors.As(err, &perr) {
		if perr.Code == EngineInternalError {
			return Message(perr.Code) + perr.Detail
		}
		return Message(perr.Code)
	}
	return Message(UnknownError)
}

func newError(code ErrorCode, cause error) *Error {
	return &Error{Code: code, Cause: cause}
}

func invalidParameter(format string, args ...interface{}) *Error {
	return &Error{Code: InvalidParameter, Cause: fmt.Errorf(format, args...)}
}

func outOfRange(format string, args ...interface{}) *Error {
	return &Error{Code: OutOfRange, Cause: fmt.Errorf(format, args...)}
}

// engineError maps a failure returned by the CurveEngine to the taxonomy.
//
// The illegal-argument and internal-consistency kinds are engine faults and
// always surface as EngineInternalError regardless of the call site; every
// other failure gets the code chosen by the caller.
func engineError(code ErrorCode, err error) *Error {
	switch {
	case errors.Is(err, ErrIllegalArgument):
		return &Error{Code: EngineInternalError, Detail: "[privacy] illegal argument:" + err.Error(), Cause: err}
	case errors.Is(err, ErrInternalConsistency):
		return &Error{Code: EngineInternalError, Detail: "[privacy] internal consistency check failed:" + err.Error(), Cause: err}
	}
	return &Error{Code: code, Cause: err}
}

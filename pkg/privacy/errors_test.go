package privacy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "[privacy] info:Success!"},
		{InvalidParameter, "[privacy] illegal argument:Invalid parameters!"},
		{TallyVerificationFailed, "[privacy] illegal argument:Failed to verify tally!"},
		{EcdsaVerifyFailed, "[privacy] illegal argument:Failed to verify ecdsa signature!"},
		{EngineInternalError, "[privacy] illegal argument:BP library internal error,"},
		{ErrorCode(9999), "[privacy] illegal argument:An unknown error!"},
		{ErrorCode(-1), "[privacy] illegal argument:An unknown error!"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Message(tt.code), "code %d", tt.code)
	}
}

func TestCodesAreStable(t *testing.T) {
	assert.EqualValues(t, 201, RandomSourceError)
	assert.EqualValues(t, 207, TallyVerificationFailed)
	assert.EqualValues(t, 211, OutOfRange)
	assert.EqualValues(t, 214, EcdsaVerifyFailed)
	assert.EqualValues(t, 219, EngineInternalError)

	// Every code in the taxonomy has its own text.
	seen := make(map[string]ErrorCode)
	for code := range codeText {
		text := code.String()
		_, dup := seen[text]
		assert.False(t, dup, "code %d shares its text", code)
		seen[text] = code
	}
	assert.Len(t, seen, 20)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Success, CodeOf(nil))
	assert.Equal(t, UnknownError, CodeOf(errors.New("plain")))
	assert.Equal(t, OutOfRange, CodeOf(outOfRange("too many")))

	wrapped := fmt.Errorf("context: %w", newError(BlindSumFailed, nil))
	assert.Equal(t, BlindSumFailed, CodeOf(wrapped))
	assert.True(t, errors.Is(wrapped, &Error{Code: BlindSumFailed}))
	assert.False(t, errors.Is(wrapped, &Error{Code: OutOfRange}))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "[privacy] info:Success!", Describe(nil))
	assert.Equal(t, "[privacy] illegal argument:An unknown error!", Describe(errors.New("plain")))
	assert.Equal(t, "[privacy] illegal argument:Out of range!", Describe(outOfRange("too many")))

	internal := &Error{Code: EngineInternalError, Detail: "scratch exhausted"}
	assert.Equal(t, "[privacy] illegal argument:BP library internal error,scratch exhausted", Describe(internal))
}

func TestErrorUnwrap(t *testing.T) {
	err := engineError(CommitmentParseFailed, ErrInvalidPoint)
	assert.Equal(t, CommitmentParseFailed, err.Code)
	assert.True(t, errors.Is(err, ErrInvalidPoint))
	assert.Contains(t, err.Error(), "privacy error [204]")

	err = engineError(CommitmentParseFailed, fmt.Errorf("%w: foreign element", ErrIllegalArgument))
	assert.Equal(t, EngineInternalError, err.Code)
	assert.Equal(t, "[privacy] illegal argument:illegal argument: foreign element", err.Detail)

	err = engineError(TallyVerificationFailed, ErrInternalConsistency)
	assert.Equal(t, EngineInternalError, err.Code)
	assert.Contains(t, err.Detail, "[privacy] internal consistency check failed:")
}

package privacy

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// maxKeyDraws bounds the number of random draws GenerateKeyPair makes before
// giving up on finding a valid private scalar.
const maxKeyDraws = 8

// PrivacyEngine is the protocol facade. It bundles the key material,
// commitment, range-proof and excess-signature services over one CurveEngine.
//
// The engine handle is held explicitly; nothing in this package keeps global
// state. Commitment, key and ECDSA operations are safe for concurrent use.
// Range-proof operations are serialized by the CurveEngine.
type PrivacyEngine struct {
	engine CurveEngine
	random io.Reader
	log    zerolog.Logger
	cfg    Config
}

// Option configures a PrivacyEngine.
type Option func(*PrivacyEngine)

// WithRandom replaces the randomness source. The default is crypto/rand.
func WithRandom(r io.Reader) Option {
	return func(p *PrivacyEngine) { p.random = r }
}

// WithLogger attaches a logger. Failures are logged at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(p *PrivacyEngine) { p.log = l }
}

// WithConfig replaces the default configuration.
func WithConfig(c Config) Option {
	return func(p *PrivacyEngine) { p.cfg = c }
}

// New creates a PrivacyEngine over engine.
//
// Parameters:
//   - engine: The curve and bulletproof implementation
//   - opts: Optional randomness source, logger and configuration
//
// Returns an error if engine is nil or the configuration is invalid.
func New(engine CurveEngine, opts ...Option) (*PrivacyEngine, error) {
	if engine == nil {
		return nil, fmt.Errorf("curve engine is required")
	}

	p := &PrivacyEngine{
		engine: engine,
		random: rand.Reader,
		log:    zerolog.Nop(),
		cfg:    DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.random == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if err := p.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return p, nil
}

// finish is deferred by every exported operation. It turns an engine panic
// into EngineInternalError and logs failures.
func (p *PrivacyEngine) finish(op string, err *error) {
	if r := recover(); r != nil {
		*err = &Error{Code: EngineInternalError, Detail: fmt.Sprint(r)}
	}
	if *err != nil {
		p.log.Debug().
			Str("op", op).
			Int64("code", int64(CodeOf(*err))).
			Err(*err).
			Msg("privacy operation failed")
	}
}

// readRandom draws n bytes from the randomness source.
func (p *PrivacyEngine) readRandom(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.random, buf); err != nil {
		return nil, newError(RandomSourceError, err)
	}
	return buf, nil
}

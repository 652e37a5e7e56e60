package privacy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the construction-time parameters of a PrivacyEngine.
//
// The range-proof bit width and generator count are fixed for the lifetime of
// an engine instance; they are not per-call parameters.
type Config struct {
	// Range proofs
	RangeProofBits int `yaml:"range_proof_bits"` // Proven range is [0, 2^bits)
	Generators     int `yaml:"generators"`       // Size of the bulletproof generator set

	// Transaction caps
	MaxInputs  int `yaml:"max_inputs"`  // Inputs accepted by signing and verification
	MaxOutputs int `yaml:"max_outputs"` // Outputs accepted by signing and verification

	// Logging
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration every engine uses unless told
// otherwise: 64-bit proofs over 256 generators, 100 inputs and 100 outputs.
func DefaultConfig() Config {
	return Config{
		RangeProofBits: 64,
		Generators:     256,
		MaxInputs:      100,
		MaxOutputs:     100,
		LogLevel:       "info",
	}
}

// LoadConfig reads a YAML configuration file.
//
// Fields missing from the file keep their defaults. A path that does not
// exist yields the default configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	switch c.RangeProofBits {
	case 8, 16, 32, 64:
	default:
		return fmt.Errorf("range_proof_bits must be 8, 16, 32 or 64, got %d", c.RangeProofBits)
	}
	if c.Generators%2 != 0 || c.Generators < 2*c.RangeProofBits {
		return fmt.Errorf("generators must be even and at least %d, got %d", 2*c.RangeProofBits, c.Generators)
	}
	if c.MaxInputs < 1 || c.MaxOutputs < 1 {
		return fmt.Errorf("max_inputs and max_outputs must be positive")
	}
	return nil
}

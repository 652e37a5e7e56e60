// ctprivacy CLI - confidential transaction toolkit
//
// Every command wraps one flat function of pkg/api and prints its error code,
// message and results. Values are lowercase hex; private keys may also be
// given in WIF.
//
// Example usage:
//
//	# Fresh key pair, also printed as WIF
//	ctprivacy keygen --wif
//
//	# Commit to 100 under a blind and prove its range
//	ctprivacy commit --value 100 --blind <hex>
//	ctprivacy prove --value 100 --blind <hex>
//
//	# Sign and verify a balanced transaction
//	ctprivacy excess-sign --in-blind <hex> --out-blind <hex> --msg <hex>
//	ctprivacy tally-verify --in <commit> --out <commit> --msg <hex> --sig <hex>
//
//	# Apply a token contract call to a ledger file
//	ctprivacy dispatch --ledger ledger.json --sender alice --call call.json
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/suffix-labs/ct-privacy/pkg/api"
	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

const version = "v0.1.0"

var (
	configPath string
	logLevel   string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ctprivacy",
		Short:        "Confidential transaction toolkit",
		Long:         "Pedersen commitments, bulletproof range proofs and excess signatures over secp256k1",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides the config file)")

	// key material
	root.AddCommand(keygenCmd())
	root.AddCommand(pubkeyCmd())
	root.AddCommand(ecdhCmd())
	root.AddCommand(combineCmd())

	// commitments and range proofs
	root.AddCommand(commitCmd())
	root.AddCommand(tallyCmd())
	root.AddCommand(proveCmd())
	root.AddCommand(verifyProofCmd())

	// excess signatures
	root.AddCommand(excessCmd())
	root.AddCommand(excessSignCmd())
	root.AddCommand(tallyVerifyCmd())
	root.AddCommand(ecdsaSignCmd())
	root.AddCommand(ecdsaVerifyCmd())

	// tokens
	root.AddCommand(dispatchCmd())
	root.AddCommand(demoCmd())

	root.AddCommand(versionCmd())
	return root
}

// setup loads the configuration and builds the logger and API it describes.
func setup(cmd *cobra.Command) (*api.API, zerolog.Logger, error) {
	cfg, err := privacy.LoadConfig(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	a, err := api.New(cfg, log)
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ctprivacy %s\n", version)
			fmt.Fprintln(cmd.OutOrStdout(), "Confidential transactions over secp256k1: Pedersen commitments, bulletproofs, excess signatures")
		},
	}
}

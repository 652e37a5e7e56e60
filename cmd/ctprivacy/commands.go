package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suffix-labs/ct-privacy/pkg/crypto"
	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

// field is one named result printed after the status line.
type field struct {
	name  string
	value string
}

// report prints a status line and the results. A nonzero code is returned
// as an error so the process exits with a failure status.
func report(cmd *cobra.Command, code int64, msg string, results ...field) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "code:    %d\n", code)
	fmt.Fprintf(out, "message: %s\n", msg)
	if code != 0 {
		return fmt.Errorf("%s", msg)
	}
	for _, f := range results {
		fmt.Fprintf(out, "%-8s %s\n", f.name+":", f.value)
	}
	return nil
}

// privateKeyHex accepts a private key as 64 hex chars or as WIF.
func privateKeyHex(s string) (string, error) {
	if len(s) == 2*privacy.ScalarSize {
		if _, err := hex.DecodeString(s); err == nil {
			return s, nil
		}
	}
	key, err := crypto.ParsePrivateKeyWIF(s)
	if err != nil {
		return "", fmt.Errorf("private key is neither hex nor WIF: %w", err)
	}
	return hex.EncodeToString(key.Bytes()), nil
}

// ============================================================================
// Key material
// ============================================================================

func keygenCmd() *cobra.Command {
	var wif, testnet bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg, pub, priv := a.GenerateKeyPair()
			results := []field{{"pubkey", pub}, {"privkey", priv}}
			if code == 0 && wif {
				raw, _ := hex.DecodeString(priv)
				encoded, err := crypto.EncodeWIF(raw, true, testnet)
				if err != nil {
					return err
				}
				results = append(results, field{"wif", encoded})
			}
			return report(cmd, code, msg, results...)
		},
	}
	cmd.Flags().BoolVar(&wif, "wif", false, "also print the private key as WIF")
	cmd.Flags().BoolVar(&testnet, "testnet", false, "use the testnet WIF prefix")
	return cmd
}

func pubkeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pubkey <privkey>",
		Short: "Derive the public key of a private key (hex or WIF)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}
			priv, err := privateKeyHex(args[0])
			if err != nil {
				return err
			}

			code, msg, pub := a.DerivePublicKey(priv)
			return report(cmd, code, msg, field{"pubkey", pub})
		},
	}
}

func ecdhCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ecdh <privkey> <pubkey>",
		Short: "Derive the shared blinding factor of a key pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}
			priv, err := privateKeyHex(args[0])
			if err != nil {
				return err
			}

			code, msg, blind := a.DeriveSharedBlind(priv, args[1])
			return report(cmd, code, msg, field{"blind", blind})
		},
	}
}

func combineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "combine <pubkey>...",
		Short: "Sum public keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg, sum := a.CombinePublicKeys(args)
			return report(cmd, code, msg, field{"pubkey", sum})
		},
	}
}

// ============================================================================
// Commitments and range proofs
// ============================================================================

func commitCmd() *cobra.Command {
	var (
		value uint64
		blind string
	)

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Create a Pedersen commitment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg, commit := a.CreateCommitment(value, blind)
			return report(cmd, code, msg, field{"commit", commit})
		},
	}
	cmd.Flags().Uint64Var(&value, "value", 0, "committed amount")
	cmd.Flags().StringVar(&blind, "blind", "", "blinding factor (64 hex chars)")
	cmd.MarkFlagRequired("blind")
	return cmd
}

func tallyCmd() *cobra.Command {
	var inputs, outputs []string

	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Check that input commitments balance output commitments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg := a.TallyVerify(inputs, outputs)
			return report(cmd, code, msg)
		},
	}
	cmd.Flags().StringSliceVar(&inputs, "in", nil, "input commitments")
	cmd.Flags().StringSliceVar(&outputs, "out", nil, "output commitments")
	return cmd
}

func proveCmd() *cobra.Command {
	var (
		value uint64
		blind string
	)

	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Create a bulletproof range proof",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg, proof := a.RangeProofProve(blind, value)
			var commit string
			if code == 0 {
				_, _, commit = a.CreateCommitment(value, blind)
			}
			return report(cmd, code, msg, field{"commit", commit}, field{"proof", proof})
		},
	}
	cmd.Flags().Uint64Var(&value, "value", 0, "amount to prove")
	cmd.Flags().StringVar(&blind, "blind", "", "blinding factor (64 hex chars)")
	cmd.MarkFlagRequired("blind")
	return cmd
}

func verifyProofCmd() *cobra.Command {
	var commit, proof string

	cmd := &cobra.Command{
		Use:   "verify-proof",
		Short: "Verify a bulletproof range proof",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg := a.RangeProofVerify(commit, proof)
			return report(cmd, code, msg)
		},
	}
	cmd.Flags().StringVar(&commit, "commit", "", "commitment (66 hex chars)")
	cmd.Flags().StringVar(&proof, "proof", "", "range proof")
	cmd.MarkFlagRequired("commit")
	cmd.MarkFlagRequired("proof")
	return cmd
}

// ============================================================================
// Excess signatures
// ============================================================================

func excessCmd() *cobra.Command {
	var inBlinds, outBlinds []string

	cmd := &cobra.Command{
		Use:   "excess",
		Short: "Compute the blinding excess",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg, excess := a.ComputeExcess(inBlinds, outBlinds)
			return report(cmd, code, msg, field{"excess", excess})
		},
	}
	cmd.Flags().StringSliceVar(&inBlinds, "in-blind", nil, "input blinding factors")
	cmd.Flags().StringSliceVar(&outBlinds, "out-blind", nil, "output blinding factors")
	return cmd
}

func excessSignCmd() *cobra.Command {
	var (
		inBlinds, outBlinds []string
		digest              string
	)

	cmd := &cobra.Command{
		Use:   "excess-sign",
		Short: "Sign a transaction digest with the blinding excess",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg, sig := a.ExcessSign(inBlinds, outBlinds, digest)
			return report(cmd, code, msg, field{"sig", sig})
		},
	}
	cmd.Flags().StringSliceVar(&inBlinds, "in-blind", nil, "input blinding factors")
	cmd.Flags().StringSliceVar(&outBlinds, "out-blind", nil, "output blinding factors")
	cmd.Flags().StringVar(&digest, "msg", "", "32-byte digest (64 hex chars)")
	cmd.MarkFlagRequired("msg")
	return cmd
}

func tallyVerifyCmd() *cobra.Command {
	var (
		inputs, outputs []string
		digest, sig     string
	)

	cmd := &cobra.Command{
		Use:   "tally-verify",
		Short: "Verify the excess signature of a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg := a.PedersenTallyVerify(inputs, outputs, digest, sig)
			return report(cmd, code, msg)
		},
	}
	cmd.Flags().StringSliceVar(&inputs, "in", nil, "input commitments")
	cmd.Flags().StringSliceVar(&outputs, "out", nil, "output commitments")
	cmd.Flags().StringVar(&digest, "msg", "", "32-byte digest (64 hex chars)")
	cmd.Flags().StringVar(&sig, "sig", "", "DER excess signature")
	cmd.MarkFlagRequired("msg")
	cmd.MarkFlagRequired("sig")
	return cmd
}

func ecdsaSignCmd() *cobra.Command {
	var priv, digest string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a digest with a private key (hex or WIF)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}
			key, err := privateKeyHex(priv)
			if err != nil {
				return err
			}

			code, msg, sig := a.EcdsaSign(key, digest)
			return report(cmd, code, msg, field{"sig", sig})
		},
	}
	cmd.Flags().StringVar(&priv, "key", "", "private key")
	cmd.Flags().StringVar(&digest, "msg", "", "32-byte digest (64 hex chars)")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("msg")
	return cmd
}

func ecdsaVerifyCmd() *cobra.Command {
	var pub, digest, sig string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a DER signature over a digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := setup(cmd)
			if err != nil {
				return err
			}

			code, msg := a.EcdsaVerify(pub, digest, sig)
			return report(cmd, code, msg)
		},
	}
	cmd.Flags().StringVar(&pub, "pubkey", "", "public key (66 hex chars)")
	cmd.Flags().StringVar(&digest, "msg", "", "32-byte digest (64 hex chars)")
	cmd.Flags().StringVar(&sig, "sig", "", "DER signature")
	cmd.MarkFlagRequired("pubkey")
	cmd.MarkFlagRequired("msg")
	cmd.MarkFlagRequired("sig")
	return cmd
}

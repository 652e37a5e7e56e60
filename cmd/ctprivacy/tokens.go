package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/suffix-labs/ct-privacy/pkg/ct"
	"github.com/suffix-labs/ct-privacy/pkg/privacy"
)

func dispatchCmd() *cobra.Command {
	var ledgerPath, callPath, sender, txHash string

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Apply a token contract call to a ledger file",
		Long: `Reads a JSON call {"method": ..., "params": ...} and applies it to the
ledger stored at --ledger, creating the ledger if the file does not exist.
Methods: issue, transfer, tallyVerify, rangeproofVerify.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := setup(cmd)
			if err != nil {
				return err
			}
			input, err := os.ReadFile(callPath)
			if err != nil {
				return err
			}

			l, err := openLedger(ledgerPath, a.Privacy(), log)
			if err != nil {
				return err
			}

			receipt, err := l.Dispatch(sender, txHash, input)
			if err != nil {
				return err
			}
			if err := l.SaveToFile(ledgerPath); err != nil {
				return err
			}
			return report(cmd, int64(receipt.Code), receipt.Message, field{"method", receipt.Method})
		},
	}
	cmd.Flags().StringVar(&ledgerPath, "ledger", "ledger.json", "ledger state file")
	cmd.Flags().StringVar(&callPath, "call", "", "JSON call file")
	cmd.Flags().StringVar(&sender, "sender", "", "calling account")
	cmd.Flags().StringVar(&txHash, "hash", "", "transaction hash recorded on new tokens")
	cmd.MarkFlagRequired("call")
	cmd.MarkFlagRequired("sender")
	return cmd
}

func openLedger(path string, p *privacy.PrivacyEngine, log zerolog.Logger) (*ct.Ledger, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ct.NewLedger(p, log), nil
	}
	return ct.LoadLedgerFromFile(path, p, log)
}

func demoCmd() *cobra.Command {
	var supply, amount uint64
	var savePath string

	cmd := &cobra.Command{
		Use:   "transfer-demo",
		Short: "Issue a token and make one confidential transfer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := setup(cmd)
			if err != nil {
				return err
			}
			p := a.Privacy()
			out := cmd.OutOrStdout()

			alicePub, alicePriv, err := p.GenerateKeyPair()
			if err != nil {
				return err
			}
			bobPub, bobPriv, err := p.GenerateKeyPair()
			if err != nil {
				return err
			}

			l := ct.NewLedger(p, log)
			iss, err := ct.BuildIssue(p, "Confidential Token", "CFT", alicePub, supply)
			if err != nil {
				return err
			}
			if err := l.Issue("alice", iss, "demo-issue"); err != nil {
				return err
			}
			fmt.Fprintf(out, "issued %d CFT to alice (commit %s)\n", supply, iss.Token.Commit)

			b := ct.NewBuilder(p)
			for _, tok := range l.Tokens("alice") {
				if err := b.AddInput(tok, alicePriv); err != nil {
					return err
				}
			}
			if err := b.AddOutput("bob", bobPub, amount); err != nil {
				return err
			}
			tx, err := b.Build("alice", alicePub)
			if err != nil {
				return err
			}

			data, err := ct.SerializeTransfer(tx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "transfer: %d inputs, %d outputs, %d bytes\n", len(tx.Inputs), len(tx.Outputs), len(data))
			fmt.Fprintf(out, "excess_msg: %s\n", privacy.EncodeHex(tx.ExcessMsg[:]))
			fmt.Fprintf(out, "excess_sig: %s\n", tx.ExcessSig.Hex())

			if err := l.Transfer("alice", tx, "demo-transfer"); err != nil {
				return err
			}

			for _, acct := range []struct {
				name string
				key  privacy.Scalar
			}{{"alice", alicePriv}, {"bob", bobPriv}} {
				balance, err := l.Balance(acct.name, acct.key)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%-6s %d CFT in %d tokens\n", acct.name+":", balance, len(l.Tokens(acct.name)))
			}

			if savePath != "" {
				return l.SaveToFile(savePath)
			}
			return nil
		},
	}
	cmd.Flags().Uint64Var(&supply, "supply", 100, "issued amount")
	cmd.Flags().Uint64Var(&amount, "amount", 30, "amount sent to bob")
	cmd.Flags().StringVar(&savePath, "save", "", "write the resulting ledger to this file")
	return cmd
}

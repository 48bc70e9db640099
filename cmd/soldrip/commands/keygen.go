package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	chain "soldrip-go/internal/chain/solana"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a sender keypair and print it",
	Long: `Generate a fresh keypair and print it. Nothing is written to disk; store the
key yourself and expose it through ` + chain.PrivateKeyEnv + ` or a .env file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key := chain.NewKeypair()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "public key: %s\n", key.PublicKey())
		fmt.Fprintf(out, "%s=%s\n", chain.PrivateKeyEnv, key.String())
		return nil
	},
}

package commands

import (
	"context"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.yaml"

var (
	configPath string
	paperMode  bool
)

var rootCmd = &cobra.Command{
	Use:   "soldrip",
	Short: "Send a fixed amount of SOL to one address on a schedule",
	Long: `soldrip transfers a small fixed amount of SOL from a local keypair to a
single destination on a recurring schedule. A tick is skipped whenever the
sender balance would drop below the configured reserve, and transfers whose
blockhash expires before confirmation are resubmitted with a fresh one.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the YAML config")
	rootCmd.PersistentFlags().BoolVar(&paperMode, "paper", false, "use the in-memory paper ledger instead of the RPC endpoint")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
	rootCmd.AddCommand(balanceCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(setupCmd)
}

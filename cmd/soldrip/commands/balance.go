package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"soldrip-go/internal/units"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the sender balance and whether the next tick would transfer",
	RunE:  runBalance,
}

func runBalance(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	owner := a.key.PublicKey()
	balance, err := a.session.Balance(ctx, owner)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	required, ok := a.limits.Required()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "owner:    %s\n", owner)
	fmt.Fprintf(out, "balance:  %s SOL (%d lamports)\n", units.FormatSOL(balance), balance)
	if ok {
		fmt.Fprintf(out, "required: %s SOL (amount %s + reserve %s)\n",
			units.FormatSOL(required), units.FormatSOL(a.limits.Amount), units.FormatSOL(a.limits.Reserve))
	}
	if a.limits.Allow(balance) {
		fmt.Fprintln(out, "next tick: transfer")
	} else {
		fmt.Fprintln(out, "next tick: skip (below reserve)")
	}
	return nil
}

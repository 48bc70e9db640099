package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"soldrip-go/internal/scheduler"
	"soldrip-go/internal/units"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single tick and exit",
	RunE:  runOnce,
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	sched, err := a.scheduler()
	if err != nil {
		return err
	}

	rep := sched.Tick(ctx)
	out := cmd.OutOrStdout()
	switch rep.Outcome {
	case scheduler.OutcomeTransferred:
		fmt.Fprintf(out, "sent %s SOL to %s in %d attempt(s): %s\n",
			units.FormatSOL(a.limits.Amount), a.dest, rep.Attempts, rep.Signature)
	case scheduler.OutcomeBelowReserve:
		fmt.Fprintf(out, "skipped: balance %s SOL is below amount plus reserve\n", units.FormatSOL(rep.Balance))
	default:
		return fmt.Errorf("tick %s: %w", rep.Outcome, rep.Err)
	}
	if a.ledger != nil {
		fmt.Fprintf(out, "paper balance now %s SOL\n", units.FormatSOL(a.ledger.BalanceOf(a.key.PublicKey())))
	}
	return nil
}

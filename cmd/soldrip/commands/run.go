package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"soldrip-go/internal/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transfer schedule until interrupted",
	Long:  `Run ticks once immediately and then on every interval (or cron firing) until SIGINT or SIGTERM.`,
	RunE:  runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := bootstrap()
	if err != nil {
		return err
	}

	if srv := metrics.Serve(a.cfg.App.MetricsAddr); srv != nil {
		a.log.Info().Str("addr", a.cfg.App.MetricsAddr).Msg("metrics up")
		defer srv.Close()
	}

	sched, err := a.scheduler()
	if err != nil {
		return err
	}
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info().Msg("shutting down")
	return nil
}

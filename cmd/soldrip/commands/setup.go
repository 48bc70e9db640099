package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/cobra"

	chain "soldrip-go/internal/chain/solana"
	"soldrip-go/internal/config"
	"soldrip-go/internal/units"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactively write the destination, interval, and amounts to the config file",
	Long: `Prompt for the schedule settings and save them to --config. The signing key is
never written; set ` + chain.PrivateKeyEnv + ` instead.`,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	default:
		fmt.Fprintf(cmd.ErrOrStderr(), "existing config unusable (%v), starting from defaults\n", err)
		cfg = config.Default()
	}

	out := cmd.OutOrStdout()
	if err := promptSetup(bufio.NewReader(cmd.InOrStdin()), out, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(configPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "config saved to %s\n", configPath)
	return nil
}

// promptSetup walks the schedule fields, keeping current values on blank input
// and asking again on invalid input.
func promptSetup(reader *bufio.Reader, out io.Writer, cfg *config.Config) error {
	fmt.Fprintln(out, "--- soldrip setup ---")

	dest, err := promptUntil(reader, out, "Destination address", cfg.Schedule.Destination, func(v string) error {
		_, err := chain.ParseDestination(v)
		return err
	})
	if err != nil {
		return err
	}
	cfg.Schedule.Destination = dest

	current := ""
	if cfg.Schedule.Interval > 0 {
		current = cfg.Schedule.Interval.String()
	}
	interval, err := promptUntil(reader, out, "Interval (e.g. 1h, 30m)", current, func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		return nil
	})
	if err != nil {
		return err
	}
	cfg.Schedule.Interval, _ = time.ParseDuration(interval)
	cfg.Schedule.Cron = ""

	amount, err := promptUntil(reader, out, "Amount per transfer (SOL)", cfg.Schedule.AmountSOL, func(v string) error {
		n, err := units.ParseSOL(v)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("amount must be greater than zero")
		}
		return nil
	})
	if err != nil {
		return err
	}
	cfg.Schedule.AmountSOL = amount

	reserve, err := promptUntil(reader, out, "Reserve to keep (SOL)", cfg.Schedule.ReserveSOL, func(v string) error {
		_, err := units.ParseSOL(v)
		return err
	})
	if err != nil {
		return err
	}
	cfg.Schedule.ReserveSOL = reserve

	rpcURL, err := promptUntil(reader, out, "RPC URL", cfg.Network.RPCURL, func(v string) error {
		if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
			return errors.New("expected an http(s) URL")
		}
		return nil
	})
	if err != nil {
		return err
	}
	cfg.Network.RPCURL = rpcURL
	return nil
}

func promptUntil(reader *bufio.Reader, out io.Writer, label, current string, check func(string) error) (string, error) {
	for {
		if current != "" {
			fmt.Fprintf(out, "%s [%s]: ", label, current)
		} else {
			fmt.Fprintf(out, "%s: ", label)
		}
		line, err := reader.ReadString('\n')
		value := strings.TrimSpace(line)
		if err != nil && value == "" {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%s: %w", strings.ToLower(label), io.ErrUnexpectedEOF)
			}
			return "", err
		}
		if value == "" {
			value = current
		}
		if value == "" {
			fmt.Fprintln(out, "a value is required")
			continue
		}
		if cerr := check(value); cerr != nil {
			fmt.Fprintf(out, "invalid: %v\n", cerr)
			continue
		}
		return value, nil
	}
}

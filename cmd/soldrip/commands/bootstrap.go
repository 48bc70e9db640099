package commands

import (
	"fmt"
	"os"

	solana "github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	chain "soldrip-go/internal/chain/solana"
	"soldrip-go/internal/config"
	"soldrip-go/internal/execution"
	"soldrip-go/internal/paper"
	"soldrip-go/internal/risk"
	"soldrip-go/internal/scheduler"
	"soldrip-go/internal/units"
	"soldrip-go/internal/util"
)

// app holds everything a command needs once config and credentials are resolved.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	key     solana.PrivateKey
	dest    solana.PublicKey
	limits  risk.Limits
	session execution.Session
	ledger  *paper.Ledger // set only in paper mode
}

func bootstrap() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if paperMode {
		cfg.Paper.Enabled = true
	}
	log := util.New(os.Stdout, cfg.App.LogLevel, cfg.App.LogFormat).
		With().Str("app", cfg.App.Name).Logger()

	dest, err := chain.ParseDestination(cfg.Schedule.Destination)
	if err != nil {
		return nil, err
	}
	amount, err := cfg.AmountLamports()
	if err != nil {
		return nil, err
	}
	reserve, err := cfg.ReserveLamports()
	if err != nil {
		return nil, err
	}

	key, err := chain.LoadPrivateKey(cfg.Wallet.PrivateKeyBase58)
	if err != nil {
		if !cfg.Paper.Enabled {
			return nil, fmt.Errorf("wallet: %w", err)
		}
		key = chain.NewKeypair()
		log.Warn().Str("owner", key.PublicKey().String()).Msg("no keypair configured, using an ephemeral paper keypair")
	}
	if key.PublicKey().Equals(dest) {
		return nil, fmt.Errorf("destination %s is the sender itself", dest)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		key:    key,
		dest:   dest,
		limits: risk.Limits{Amount: amount, Reserve: reserve},
	}

	if cfg.Paper.Enabled {
		starting, err := units.ParseSOL(cfg.Paper.StartingSOL)
		if err != nil {
			return nil, fmt.Errorf("paper starting balance: %w", err)
		}
		a.ledger = paper.NewLedger(paper.Options{
			FeeLamports:       cfg.Paper.FeeLamports,
			ExpiryProbability: cfg.Paper.ExpiryProbability,
		})
		a.ledger.Fund(key.PublicKey(), starting)
		a.session = a.ledger
		log.Info().Str("starting_sol", units.FormatSOL(starting)).Msg("paper ledger ready")
		return a, nil
	}

	a.session = chain.NewSession(chain.Options{
		RPCURL:            cfg.Network.RPCURL,
		Commitment:        cfg.Network.Commitment,
		RequestsPerSecond: cfg.Network.RequestsPerSecond,
		Burst:             cfg.Network.Burst,
		BreakerFailures:   cfg.Network.BreakerFailures,
		ConfirmPoll:       cfg.Network.ConfirmPoll,
		ConfirmTimeout:    cfg.Network.ConfirmTimeout,
	}, log)
	log.Info().Str("rpc", cfg.Network.RPCURL).Str("commitment", cfg.Network.Commitment).Msg("rpc session ready")
	return a, nil
}

func (a *app) executor() *execution.Executor {
	return execution.NewExecutor(a.session, a.key, execution.RetryPolicy{
		MaxAttempts: a.cfg.Retry.MaxAttempts,
		MaxElapsed:  a.cfg.Retry.MaxElapsed,
		Delay:       a.cfg.Retry.Delay,
	}, a.log)
}

func (a *app) scheduler(opts ...scheduler.Option) (*scheduler.Scheduler, error) {
	sched, err := scheduler.ParseSchedule(a.cfg.Schedule.Interval, a.cfg.Schedule.Cron)
	if err != nil {
		return nil, err
	}
	return scheduler.New(a.session, a.executor(), scheduler.Config{
		Owner:       a.key.PublicKey(),
		Destination: a.dest,
		Limits:      a.limits,
		Schedule:    sched,
		TickTimeout: a.cfg.Schedule.TickTimeout,
	}, a.log, opts...)
}

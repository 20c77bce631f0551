// Package cli implements the asyncdemo command line.
package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/emberfall/async"
	"github.com/emberfall/async/config"
	"github.com/emberfall/async/internal/logging"
)

type app struct {
	flagConfig    string
	flagBackend   string
	flagLogLevel  string
	flagLogFormat string
	flagDebug     bool

	cfg    config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root cobra command for asyncdemo.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "asyncdemo",
		Short: "Run tasks on the threaded or the cooperative async runtime",
		Long: "asyncdemo spawns, awaits and aborts tasks through the async package.\n" +
			"Settings come from ASYNC_* environment variables, an optional .env file\n" +
			"or a YAML file given with --config; flags override them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.flagConfig, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.flagBackend, "backend", "", "Runtime backend (threaded, cooperative)")
	root.PersistentFlags().StringVar(&a.flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.flagLogFormat, "log-format", "", "Log format (text, json)")
	root.PersistentFlags().BoolVar(&a.flagDebug, "debug", false, "Enable debug logging")

	root.AddCommand(
		newScenarioCmd(a),
		newTimersCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.flagConfig != "" {
		a.cfg, err = config.LoadFile(a.flagConfig)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.flagBackend != "" {
		a.cfg.Backend = a.flagBackend
	}
	if a.flagLogLevel != "" {
		a.cfg.LogLevel = a.flagLogLevel
	}
	if a.flagLogFormat != "" {
		a.cfg.LogFormat = a.flagLogFormat
	}
	if a.flagDebug {
		a.cfg.LogLevel = "debug"
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.logger = logging.FromConfig(a.cfg, cmd.ErrOrStderr())
	return nil
}

// startRuntime creates the configured runtime. A cooperative runtime is
// driven on a new goroutine until the returned stop function closes it.
func (a *app) startRuntime(ctx context.Context) (async.Runtime, func() error, error) {
	rt, err := async.NewRuntime(a.cfg.Backend, async.WithLogger(a.logger))
	if err != nil {
		return nil, nil, err
	}

	timeout := a.cfg.ShutdownTimeout

	switch rt := rt.(type) {
	case *async.Executor:
		runErr := make(chan error, 1)
		go func() {
			runErr <- rt.Run(ctx)
		}()
		stop := func() error {
			_ = rt.Close()
			select {
			case err := <-runErr:
				if ctx.Err() != nil {
					return nil
				}
				return err
			case <-time.After(timeout):
				return context.DeadlineExceeded
			}
		}
		return rt, stop, nil

	case *async.Threaded:
		stop := func() error {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
			defer cancel()
			return rt.Shutdown(sctx)
		}
		return rt, stop, nil
	}

	return rt, rt.Close, nil
}

package main

import (
	"context"
	"io"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/rbstore/config"
	"github.com/benz9527/rbstore/lib/tree"
	"github.com/benz9527/rbstore/observability"
	"github.com/benz9527/rbstore/shell"
	"github.com/benz9527/rbstore/xlog"
)

type terminal struct {
	in          io.Reader
	out         io.Writer
	logOut      io.Writer
	interactive bool
}

func newLogger(cfg *config.Config, term terminal) xlog.XLogger {
	lvl, _ := xlog.ParseLogLevel(cfg.Log.Level)
	enc := xlog.PlainText
	if cfg.Log.Format == config.LogFormatJSON {
		enc = xlog.JSON
	}
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(lvl),
		xlog.WithXLoggerEncoder(enc),
		xlog.WithXLoggerWriter(term.logOut),
	)
}

func newMeterProvider(lc fx.Lifecycle, cfg *config.Config, term terminal, logger xlog.XLogger) (*observability.MeterProvider, error) {
	mp, err := observability.NewMeterProvider(cfg.Metrics,
		observability.WithConsoleWriter(term.logOut),
		observability.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := observability.InitAppStats("rbtree"); err != nil {
				return err
			}
			if addr := mp.Addr(); addr != "" {
				logger.Info("metrics endpoint", zap.String("addr", "http://"+addr+"/metrics"))
			}
			return nil
		},
		OnStop: mp.Shutdown,
	})
	return mp, nil
}

func newTreeStats(lc fx.Lifecycle, mp *observability.MeterProvider) *observability.TreeStats {
	stats := observability.NewTreeStats(mp.Meter("github.com/benz9527/rbstore/lib/tree"))
	lc.Append(fx.StopHook(stats.Close))
	return stats
}

func newTree(lc fx.Lifecycle) tree.RBTree[int64] {
	rbtree := tree.NewRBTree[int64]()
	lc.Append(fx.StopHook(rbtree.Release))
	return rbtree
}

func newShell(
	cfg *config.Config,
	term terminal,
	rbtree tree.RBTree[int64],
	logger xlog.XLogger,
	stats *observability.TreeStats,
) *shell.Shell {
	return shell.New(rbtree,
		shell.WithInput(term.in),
		shell.WithOutput(term.out),
		shell.WithInteractive(term.interactive),
		shell.WithPrompt(cfg.Shell.Prompt),
		shell.WithColor(cfg.Shell.Color),
		shell.WithValidate(cfg.Shell.Validate),
		shell.WithLogger(logger),
		shell.WithTreeStats(stats),
	)
}

// watchConfig follows the log level of the config file at runtime.
func watchConfig(lc fx.Lifecycle, cfg *config.Config, logger xlog.XLogger) {
	if cfg.Path() == "" {
		return
	}
	var w *config.Watcher
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			w, err = config.Watch(context.Background(), cfg,
				func(newCfg *config.Config) {
					lvl, err := zapcore.ParseLevel(newCfg.Log.Level)
					if err != nil {
						return
					}
					logger.IncreaseLogLevel(lvl)
					logger.Info("config reloaded", zap.String("level", lvl.String()))
				},
				func(err error) {
					logger.ErrorStack(err, "config reload failed")
				},
			)
			return err
		},
		OnStop: func(ctx context.Context) error {
			return w.Close()
		},
	})
}

func appOptions(cfg *config.Config, term terminal, sh **shell.Shell) fx.Option {
	return fx.Options(
		fx.Supply(cfg, term),
		fx.Provide(
			newLogger,
			newMeterProvider,
			newTreeStats,
			newTree,
			newShell,
		),
		fx.WithLogger(func(logger xlog.XLogger) fxevent.Logger {
			return xlog.NewFxXLogger(logger)
		}),
		fx.Invoke(watchConfig),
		fx.Populate(sh),
	)
}

// run starts the app, drives the shell until exit, EOF or ctx is done,
// then stops the app.
func run(ctx context.Context, cfg *config.Config, term terminal) (err error) {
	if term.logOut == nil {
		term.logOut = os.Stderr
	}
	var sh *shell.Shell
	app := fx.New(appOptions(cfg, term, &sh))
	if err = app.Err(); err != nil {
		return err
	}

	if err = app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
		defer cancel()
		err = multierr.Append(err, app.Stop(stopCtx))
	}()
	return sh.Run(ctx)
}

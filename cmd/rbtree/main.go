// Package main provides the interactive rbtree shell.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"

	"github.com/benz9527/rbstore/config"
)

var version = "dev"

type rootFlags struct {
	configPath string
	logLevel   string
	exporter   string
	noColor    bool
	validate   bool
}

// overrides keeps only the flags set on the command line, so the
// config file and env still apply to the others.
func (f *rootFlags) overrides(cmd *cobra.Command) map[string]any {
	values := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		values["log.level"] = f.logLevel
	}
	if flags.Changed("metrics") {
		values["metrics.exporter"] = f.exporter
	}
	if flags.Changed("no-color") && f.noColor {
		values["shell.color"] = false
	}
	if flags.Changed("validate") {
		values["shell.validate"] = f.validate
	}
	return values
}

func newRootCommand(in io.Reader, interactive bool) *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "rbtree",
		Short: "Interactive red-black tree of int64 keys",
		Long: `rbtree drives an in-memory red-black tree from a line oriented shell.

Commands are read from stdin, one per line. Type "help" for the list.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithOverrides(flags.configPath, flags.overrides(cmd))
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, terminal{
				in:          in,
				out:         cmd.OutOrStdout(),
				logOut:      cmd.ErrOrStderr(),
				interactive: interactive,
			})
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (default .rbtree.yaml in the working directory or $HOME)")
	pf.StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	pf.StringVar(&flags.exporter, "metrics", config.DefaultMetricsExporter, "metrics exporter: none, console, prometheus")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored keys")
	pf.BoolVar(&flags.validate, "validate", config.DefaultShellValidate, "check the red-black rules after every mutation")

	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "rbtree %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	rootCmd := newRootCommand(os.Stdin, interactive)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

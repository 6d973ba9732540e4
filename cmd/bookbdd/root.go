package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"pkt.systems/pslog"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bookbdd",
		Short:         "Run booking API scenarios",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			structured, _ := cmd.Flags().GetBool("structured")
			levelStr, _ := cmd.Flags().GetString("log-level")
			caller, _ := cmd.Flags().GetBool("log-caller")
			levelFlagSet := cmd.Flags().Lookup("log-level") != nil && cmd.Flags().Lookup("log-level").Changed
			logger, err := newLogger(structured, levelStr, levelFlagSet, caller, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx := pslog.ContextWithLogger(cmd.Context(), logger)
			cmd.SetContext(ctx)
			return nil
		},
	}

	addLoggingFlags(root.PersistentFlags())
	root.PersistentFlags().String("config", "", "Path to config file (default ./bookbdd.yaml when present)")
	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra parse / usage errors
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loggerFromCmd(cmd *cobra.Command) pslog.Logger {
	if cmd == nil {
		return pslog.NewWithOptions(os.Stderr, pslog.Options{MinLevel: pslog.InfoLevel})
	}
	if logger := pslog.LoggerFromContext(cmd.Context()); logger != nil {
		return logger
	}
	// Fallback: build from flags if context missing (tests)
	structured, _ := cmd.Flags().GetBool("structured")
	levelStr, _ := cmd.Flags().GetString("log-level")
	caller, _ := cmd.Flags().GetBool("log-caller")
	levelFlagSet := cmd.Flags().Lookup("log-level") != nil && cmd.Flags().Lookup("log-level").Changed
	logger, err := newLogger(structured, levelStr, levelFlagSet, caller, cmd.ErrOrStderr())
	if err != nil {
		return pslog.NewWithOptions(os.Stderr, pslog.Options{MinLevel: pslog.InfoLevel})
	}
	return logger
}

func addLoggingFlags(flags *pflag.FlagSet) {
	if flags.Lookup("log-level") == nil {
		flags.String("log-level", "info", "Log level (trace|debug|info|warn|error)")
	}
	if flags.Lookup("structured") == nil {
		flags.Bool("structured", false, "Emit structured JSON logs")
	}
	if flags.Lookup("log-caller") == nil {
		flags.Bool("log-caller", false, "Include caller function name on each log line")
	}
}

func newLogger(structured bool, level string, flagSet bool, caller bool, w io.Writer) (pslog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}

	opts := pslog.Options{CallerKeyval: caller}
	if structured {
		opts.Mode = pslog.ModeStructured
	}
	logger := pslog.NewWithOptions(w, opts).LogLevel(pslog.InfoLevel)

	if flagSet {
		if lvl, ok := pslog.ParseLevel(level); ok {
			return logger.LogLevel(lvl), nil
		}
		return nil, fmt.Errorf("unknown level %q", level)
	}

	if lvl, ok := pslog.LevelFromEnv("LOG_LEVEL"); ok {
		return logger.LogLevel(lvl), nil
	}
	if lvl, ok := pslog.ParseLevel(level); ok {
		return logger.LogLevel(lvl), nil
	}
	return logger, nil
}

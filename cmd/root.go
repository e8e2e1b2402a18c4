package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/treesh/treesh/core"
	"github.com/treesh/treesh/core/config"
	"github.com/treesh/treesh/core/logger"
)

var (
	cfgPath string
	command string
)

func loadConfig() (*config.Configuration, error) {
	return config.Load(cfgPath)
}

// openEvents opens the configured event log, events are discarded if none is set.
func openEvents(cfg *config.Configuration) (*logger.SessionLogger, io.Closer, error) {
	if cfg.EventLog == "" {
		return logger.NewNopLogger().NewSession(), io.NopCloser(nil), nil
	}

	fd, err := cfg.OpenEventLog()
	if err != nil {
		return nil, nil, err
	}
	return logger.NewJsonLinesLogRecorder(fd).NewSession(), fd, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "treesh",
	Short: "A small interactive shell.",
	Long: `treesh reads command lines, parses them into a syntax tree and runs
them as pipelines, redirections, sequences and background jobs.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		logger := log.New(cmd.ErrOrStderr(), "[treesh] ", 0)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		events, closer, err := openEvents(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		shell := core.NewShell(cfg, events)
		stop := shell.HandleSignals(ctx)
		defer stop()

		if cfg.WatchConfig {
			if err := shell.WatchConfig(ctx, cfgPath); err != nil {
				logger.Printf("not watching configuration: %v", err)
			}
		}

		var status int
		switch {
		case cmd.Flags().Changed("command"):
			status = shell.RunString(ctx, command)
		case isatty.IsTerminal(os.Stdin.Fd()):
			status, err = shell.RunInteractive(ctx)
			if err != nil {
				logger.Println(err)
			}
		default:
			status = shell.RunLines(ctx, os.Stdin)
		}

		return &exitError{status: status}
	},
}

// exitError carries the shell's final status out of Execute.
type exitError struct {
	status int
}

func (e *exitError) Error() string {
	return "exit status"
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	err := rootCmd.Execute()

	var exit *exitError
	switch {
	case errors.As(err, &exit):
		os.Exit(exit.status)
	case err != nil:
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultDir(), "config directory or file")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run the command line and exit")
}

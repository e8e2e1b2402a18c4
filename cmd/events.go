package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/treesh/treesh/core/logger"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the shell event log.",
}

type updater interface {
	Update(le *logger.LogEntry)
}

func printReport(cmd *cobra.Command, report updater) error {
	cmd.SilenceUsage = true

	config, err := loadConfig()
	if err != nil {
		return err
	}

	fd, err := config.ReadEventLog()
	if err != nil {
		return err
	}
	defer fd.Close()

	if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
		return err
	}

	out, err := yaml.Marshal(report)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printReport(cmd, &logger.Report{})
	},
}

var bugsCommand = &cobra.Command{
	Use:   "bugs",
	Short: "Show unknown commands, bad invocations and syntax errors.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printReport(cmd, logger.NewBugReport())
	},
}

var interactionsCommand = &cobra.Command{
	Use:   "interactions",
	Short: "Show the commands and jobs of each session.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printReport(cmd, &logger.InteractionReport{})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(bugsCommand)
	eventsCmd.AddCommand(interactionsCommand)
}

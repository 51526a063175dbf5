// Command taskcycle works with recurring tasks, reminders and habits: it
// encodes and explains recurrence patterns, lists and completes the items of
// an agenda file, and watches the agenda to raise reminders.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taskcycle/internal/agenda"
	"taskcycle/internal/config"
	"taskcycle/internal/logging"
)

// app carries what every command shares once the root command has run
type app struct {
	configPath string
	logLevel   string

	config *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "taskcycle",
		Short:         "Recurring tasks, reminders and habits",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/taskcycle/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newEncodeCmd(a),
		newDescribeCmd(a),
		newStepCmd(a, "next"),
		newStepCmd(a, "prev"),
		newRangeCmd(a),
		newAgendaCmd(a),
		newCalendarCmd(a),
		newCompleteCmd(a),
		newWatchCmd(a),
		newInitConfigCmd(a),
	)
	return root
}

// setup loads the configuration and installs the logger
func (a *app) setup() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.config = cfg

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.logger = logging.Setup(level)
	return nil
}

// limits are the configured enumeration caps
func (a *app) limits() agenda.Limits {
	return agenda.Limits{
		Backward: a.config.Enumeration.BackwardLimit,
		Forward:  a.config.Enumeration.ForwardLimit,
	}
}

// agendaPath is the --file flag value, or the configured agenda
func (a *app) agendaPath(file string) (string, error) {
	if file == "" {
		return a.config.Agenda, nil
	}
	return config.ExpandPath(file)
}

// loadAgenda reads the agenda with the configured limits applied
func (a *app) loadAgenda(file string) (*agenda.Agenda, string, error) {
	path, err := a.agendaPath(file)
	if err != nil {
		return nil, "", err
	}
	ag, err := agenda.Load(path)
	if err != nil {
		return nil, "", err
	}
	ag.Limits = a.limits()
	return ag, path, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

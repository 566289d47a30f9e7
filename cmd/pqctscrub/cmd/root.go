/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ssargent/pqctscrub/pkg/config"
	"github.com/ssargent/pqctscrub/pkg/di"
)

// skipContainer marks commands that run without the dependency container
const skipContainer = "skip-container"

// app carries the state shared by the commands of one invocation
type app struct {
	configPath string
	cfg        *config.Config
	container  *di.Container
}

// newRootCmd builds the command tree. The returned app must be closed after
// the command has run.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "pqctscrub",
		Short: "De-identify Stratec pQCT scan files",
		Long: `pqctscrub removes identifying data from Stratec pQCT scan files.

The date of birth is rounded to the nearest first of the month and the
patient name is blanked. Files that are not recognized as Stratec scans
are never modified.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(cmd); err != nil {
				return err
			}
			if cmd.Annotations[skipContainer] != "" {
				return nil
			}
			container, err := di.NewContainer(a.cfg, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			a.container = container
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default "+config.GetDefaultConfigPath()+")")
	flags.BoolP("quiet", "q", false, "Suppress per-file output")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("journal-dir", "", "Directory of the outcome journal")
	flags.Bool("no-journal", false, "Do not record outcomes in the journal")
	flags.String("metrics-textfile", "", "Write Prometheus metrics to this file after each batch")

	rootCmd.AddCommand(
		newScrubCmd(a),
		newDumpCmd(a),
		newServeCmd(a),
		newJournalCmd(a),
		newConfigCmd(a),
	)
	return rootCmd, a
}

// close releases the container, if one was built
func (a *app) close() error {
	if a.container == nil {
		return nil
	}
	return a.container.Close()
}

// loadConfig reads the config file, if any, and applies flag overrides
func (a *app) loadConfig(cmd *cobra.Command) error {
	path := a.configPath
	explicit := path != ""
	if !explicit {
		path = config.GetDefaultConfigPath()
	}

	switch {
	case config.ConfigExists(path):
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		a.cfg = cfg
	case explicit && cmd.Annotations[skipContainer] == "":
		return fmt.Errorf("config file does not exist: %s", path)
	default:
		a.cfg = config.DefaultConfig()
	}
	a.configPath = path

	flags := cmd.Flags()
	if flags.Changed("quiet") {
		a.cfg.Quiet, _ = flags.GetBool("quiet")
	}
	if flags.Changed("log-level") {
		a.cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("journal-dir") {
		a.cfg.Journal.Dir, _ = flags.GetString("journal-dir")
	}
	if noJournal, _ := flags.GetBool("no-journal"); noJournal {
		a.cfg.Journal.Enabled = false
	}
	if flags.Changed("metrics-textfile") {
		a.cfg.Metrics.Textfile, _ = flags.GetString("metrics-textfile")
	}
	return a.cfg.Validate()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd, a := newRootCmd()
	err := rootCmd.Execute()
	if cerr := a.close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cerr)
		err = cerr
	}
	if err != nil {
		os.Exit(1)
	}
}

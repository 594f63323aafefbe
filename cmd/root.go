package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arcanaland/cardpress/internal/config"
	"github.com/arcanaland/cardpress/internal/logger"
)

var (
	configFlag string
	debugFlag  bool

	closeLog func() error
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cardpress",
	Short: "Lay out and export student ID cards",
	Long: `Cardpress renders student identification cards from a records file and
exports them as print-ready PDF, Word, per-card images or an HTML print sheet.

Paper sizes, institution branding and export options are read from
$XDG_CONFIG_HOME/cardpress/config.toml, created with defaults on first use.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cleanup, err := logger.Setup(logger.Config{
			Dir:   filepath.Join(config.GetCacheDir(), "logs"),
			Debug: debugFlag,
		})
		if err != nil {
			// Logging is best effort; commands still run with the discard logger.
			return nil
		}
		closeLog = cleanup
		logger.L().Debug("command.started", "command", cmd.CommandPath(), "args", args)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeLog == nil {
			return nil
		}
		return closeLog()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default $XDG_CONFIG_HOME/cardpress/config.toml)")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write debug entries to the log")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// reportedError wraps an error the notification sink has already shown.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// Reported reports whether err was already shown to the user.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// configPath returns the config file in use.
func configPath() string {
	if configFlag != "" {
		return configFlag
	}
	return config.GetConfigFilePath()
}

// loadConfig loads the config file in use, creating it if missing.
func loadConfig() (*config.Config, string, error) {
	path := configPath()
	cfg, err := config.LoadConfigFrom(path)
	if err != nil {
		return nil, "", fmt.Errorf("error loading config: %w", err)
	}
	return cfg, path, nil
}

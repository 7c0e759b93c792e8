package cmd

import (
	"errors"
	"os"

	"golang-switchport/internal/pkg/config"
	"golang-switchport/internal/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	configFlag    string
	envFileFlag   []string
	logLevelFlag  string
	logFormatFlag string
)

// errReported marks a failure whose details were already written to stdout.
var errReported = errors.New("failure reported")

var rootCmd = &cobra.Command{
	Use:   "golang-switchport",
	Short: "golang-switchport reconciles switchport VLAN configuration on network devices",
}

func Execute() {
	err := rootCmd.Execute()
	if errors.Is(err, errReported) {
		os.Exit(1)
	}
	cobra.CheckErr(err)
}

// loadConfig loads and validates the config file, then initializes logging from it.
// Command-line log flags override the file.
func loadConfig() (*config.Config, error) {
	if configFlag == "" {
		return nil, errors.New("a config file is required (--config)")
	}
	cfg, err := config.Load(configFlag, envFileFlag...)
	if err != nil {
		return nil, err
	}

	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.InitLogger(cfg.Logging)
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "f", "", "Path to config file (YAML or TOML)")
	rootCmd.PersistentFlags().StringSliceVar(&envFileFlag, "env-file", nil, "Env file(s) used to expand ${VAR} references in the config file")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format (json, text, simple, compact)")
}

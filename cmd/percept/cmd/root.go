package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corey/percept/internal/app"
	"github.com/corey/percept/internal/config"
	"github.com/corey/percept/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "percept",
	Short:         "percept: perceptual category scoring",
	Long:          "Scores documents against a corpus of perceptual categories (percepts) and serves the results over a local socket and HTTP.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errPrefix(), err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "config file (TOML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override [log].level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig reads --config and applies --log-level.
func loadConfig() (*config.Config, *app.Paths, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
		if _, err := config.ParseLevel(logLevel); err != nil {
			return nil, nil, err
		}
	}
	return cfg, app.NewPaths(cfg), nil
}

// newLogger builds the command logger. Client commands only log warnings
// unless --log-level asks for more.
func newLogger(cfg *config.Config, daemon bool) (*zap.Logger, error) {
	lc := cfg.Log
	if !daemon && logLevel == "" {
		lc.Level = "warn"
	}
	return logging.New(lc)
}

// Command advisor runs decision cycles, lists scenarios and replays history
// from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/vitals/internal/config"
	"github.com/aristath/vitals/pkg/logger"
)

var (
	logLevel     string
	outputFormat string
)

// rootCmd is the base command for the advisor CLI
var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Rule-based portfolio advisory pipeline",
	Long: `advisor scores portfolio vitals, classifies the market posture and
produces guarded, explained recommendations. It never places orders.

Configuration is read from the environment (and a .env file) the same way
the server reads it; flags override individual values.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatJSON, "Output format (json|msgpack|text)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and a stderr logger, so stdout stays machine readable
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})
	return cfg, log, nil
}

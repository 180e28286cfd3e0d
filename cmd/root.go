package cmd

import (
	"fmt"
	"io"
	"os"

	"intake/config"
	"intake/internal/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Patient intake questionnaires and staff dashboard API.",
	Long: `intake serves the five-step patient questionnaire workflow (ODI, VAS, EQ-5D,
surgical consent, informed financial consent) behind a tokenized session,
plus the staff endpoints used to review submissions and pre-fill quotes.

Configuration is read from .env in the working directory and the environment.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newSeedCommand())
}

// bootstrap loads configuration and installs the process logger. The
// returned closer flushes the log file, if any.
func bootstrap() (config.Config, io.Closer, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to read config: %w", err)
	}

	return cfg, logger.Setup(cfg), nil
}

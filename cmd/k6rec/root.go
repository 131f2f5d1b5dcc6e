package main

import (
	"fmt"
	"os"

	"github.com/rsclarke/k6rec/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var logger *zap.Logger

var rootCmd = &cobra.Command{
	Use:   "k6rec",
	Short: "Export recorded test traffic as k6 load-test scripts",
	Long: `k6rec turns the HTTP calls recorded during functional tests into
standalone k6 scripts. Recording happens inside tests when K6_EXPORT is set;
this command scaffolds an example test and works with the session archive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logging.FromEnv())
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = logger.With(logging.Component(cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logging.Sync(logger)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

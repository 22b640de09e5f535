package cmd

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/btbeal-db/agent-eval-request-job/internal/config"
	"github.com/btbeal-db/agent-eval-request-job/internal/pkg/logger"
)

// Version is set at build time
var Version = "0.1.0"

var (
	cfg           *config.Config
	sentryEnabled bool
)

var rootCmd = &cobra.Command{
	Use:   "eval-review",
	Short: "Create MLflow review sessions from recent agent traces",
	Long: `eval-review pulls recent traces from an MLflow experiment, persists them
into a Unity Catalog dataset, and creates a labeling session for business
partners to score in the MLflow Review App.

Commands:
  create  - Create a review session from an experiment's recent traces
  list    - List review sessions created from this machine

Example:
  eval-review create --experiment-id 3284073597979440 \
    --num-traces 10 \
    --reviewer-emails "reviewer1@company.com,reviewer2@company.com" \
    --uc-catalog main --uc-schema agent_review`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: initRuntime,
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
}

// initRuntime loads configuration and initializes logging and error
// reporting before any subcommand runs.
func initRuntime(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return err
	}

	if cfg.Sentry.DSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     "agent-eval-request-job@" + Version,
		})
		if err != nil {
			logger.Warn("failed to initialize sentry", zap.Error(err))
		} else {
			sentryEnabled = true
		}
	}

	return nil
}

// Execute runs the CLI, reporting any failure before the process exits.
func Execute() error {
	err := rootCmd.Execute()

	if sentryEnabled {
		if err != nil {
			sentry.CaptureException(err)
		}
		sentry.Flush(2 * time.Second)
	}
	_ = logger.Sync()

	return err
}

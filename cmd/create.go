package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
	"github.com/btbeal-db/agent-eval-request-job/internal/ledger"
	"github.com/btbeal-db/agent-eval-request-job/internal/pkg/logger"
	"github.com/btbeal-db/agent-eval-request-job/internal/platform"
	"github.com/btbeal-db/agent-eval-request-job/internal/service"
	"github.com/btbeal-db/agent-eval-request-job/internal/slack"
)

var (
	experimentID      string
	numTraces         int
	reviewerEmails    string
	sessionNamePrefix string
	ucCatalog         string
	ucSchema          string
	slackSecretScope  string
	notifyUsers       string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a labeling session from recent experiment traces",
	RunE:  runCreate,
}

func init() {
	createCmd.Flags().StringVar(&experimentID, "experiment-id", "", "MLflow experiment ID to pull traces from")
	createCmd.Flags().IntVar(&numTraces, "num-traces", 10, "Number of most recent traces to include")
	createCmd.Flags().StringVar(&reviewerEmails, "reviewer-emails", "", "Comma-separated reviewer email addresses")
	createCmd.Flags().StringVar(&sessionNamePrefix, "session-name-prefix", "agent_review", "Prefix for the labeling session name (a timestamp is appended)")
	createCmd.Flags().StringVar(&ucCatalog, "uc-catalog", "", "Unity Catalog catalog for storing the review dataset")
	createCmd.Flags().StringVar(&ucSchema, "uc-schema", "", "Unity Catalog schema for storing the review dataset")
	createCmd.Flags().StringVar(&slackSecretScope, "slack-secret-scope", "", "Secret scope containing the Slack bot token; if omitted, notifications are skipped")
	createCmd.Flags().StringVar(&notifyUsers, "notify-users", "false", "Send a Slack notification after session creation; pass 'true' to enable")

	_ = createCmd.MarkFlagRequired("experiment-id")
	_ = createCmd.MarkFlagRequired("uc-catalog")
	_ = createCmd.MarkFlagRequired("uc-schema")
}

func runCreate(cmd *cobra.Command, args []string) error {
	if err := validator.New().Struct(cfg.Platform); err != nil {
		return fmt.Errorf("workspace configuration incomplete (set DATABRICKS_HOST, DATABRICKS_TOKEN, DATABRICKS_WAREHOUSE_ID): %w", err)
	}

	reviewers := service.ParseReviewerEmails(reviewerEmails)

	client := platform.New(platform.Config{
		Host:        cfg.Platform.Host,
		Token:       cfg.Platform.Token,
		WarehouseID: cfg.Platform.WarehouseID,
		Version:     Version,
	})

	svc := service.NewReviewService(service.Deps{
		Traces:    client,
		Datasets:  client,
		Schemas:   client,
		Sessions:  client,
		Warehouse: client,
		Secrets:   client,
		NewChatClient: func(token string) service.ChatClient {
			return slack.New(cfg.Slack.APIHost, token)
		},
		NotifyEmail:   cfg.Slack.NotifyEmail,
		SlackTokenKey: cfg.Slack.TokenKey,
		Logger:        logger.WithExperimentID(experimentID),
	})

	printBanner(reviewers)

	run, err := svc.CreateReviewSession(cmd.Context(), service.CreateOptions{
		ExperimentID:      experimentID,
		NumTraces:         numTraces,
		ReviewerEmails:    reviewers,
		SessionNamePrefix: sessionNamePrefix,
		Catalog:           ucCatalog,
		Schema:            ucSchema,
		SlackSecretScope:  slackSecretScope,
		NotifyUsers:       notifyUsers,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoTraces) {
			fmt.Println("ERROR: No traces found in this experiment.")
			_ = logger.Sync()
			os.Exit(1)
		}
		return err
	}

	recordRun(cmd, run)
	printSummary(run)

	return nil
}

// recordRun writes the run to the local ledger. The ledger is advisory, so
// failures are logged and swallowed.
func recordRun(cmd *cobra.Command, run *domain.ReviewRun) {
	log := logger.WithRunID(run.ID.String())

	l, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		log.Warn("could not open run ledger", zap.Error(err), zap.String("path", cfg.Ledger.Path))
		return
	}
	defer l.Close()

	if err := l.Record(cmd.Context(), run); err != nil {
		log.Warn("could not record run in ledger", zap.Error(err))
	}
}

func printBanner(reviewers []string) {
	rule := strings.Repeat("=", 55)
	reviewersStr := "(none — set --reviewer-emails)"
	if len(reviewers) > 0 {
		reviewersStr = strings.Join(reviewers, ", ")
	}
	scopeStr := slackSecretScope
	if scopeStr == "" {
		scopeStr = "(not set — Slack notification skipped)"
	}

	fmt.Println(rule)
	fmt.Println("  Agent Eval Review Session Creator")
	fmt.Println(rule)
	fmt.Printf("  Experiment ID  : %s\n", experimentID)
	fmt.Printf("  Traces         : %d most recent\n", numTraces)
	fmt.Printf("  Reviewers      : %s\n", reviewersStr)
	fmt.Printf("  Session prefix : %s\n", sessionNamePrefix)
	fmt.Printf("  Dataset schema : %s.%s\n", ucCatalog, ucSchema)
	fmt.Printf("  Secret scope   : %s\n", scopeStr)
	fmt.Println(rule)
	fmt.Println()
}

func printSummary(run *domain.ReviewRun) {
	rule := strings.Repeat("=", 55)

	fmt.Println()
	fmt.Println(rule)
	fmt.Println("  Review session created successfully!")
	fmt.Println(rule)
	fmt.Printf("  Session name : %s\n", run.SessionName)
	fmt.Printf("  Session URL  : %s\n", run.SessionURL)
	fmt.Printf("  Dataset      : %s\n", run.DatasetName)
	fmt.Printf("  Reviewers    : %s\n", strings.Join(run.Reviewers, ", "))
	fmt.Printf("  Traces       : %d\n", run.TraceCount)
	fmt.Printf("  Created at   : %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Println(rule)
}

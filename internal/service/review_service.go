// Package service contains the review-session pipeline.
//
// ReviewService coordinates the platform collaborators (trace store,
// managed datasets, label-schema registry, labeling sessions, warehouse
// SQL, secret store) and Slack behind narrow interfaces so each can be
// substituted with a fake in tests.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
	"github.com/btbeal-db/agent-eval-request-job/internal/pkg/naming"
	"github.com/btbeal-db/agent-eval-request-job/internal/slack"
)

// ErrNoTraces is returned when the experiment has no traces to review.
// It is the only failure the job normalizes into a dedicated exit code.
var ErrNoTraces = errors.New("no traces found in this experiment")

// TraceStore searches recorded traces by experiment.
type TraceStore interface {
	SearchTraces(ctx context.Context, experimentID string, maxResults int) ([]domain.TraceRecord, error)
}

// DatasetStore manages named datasets and their records.
type DatasetStore interface {
	GetDataset(ctx context.Context, name string) (*domain.Dataset, error)
	CreateDataset(ctx context.Context, name string) (*domain.Dataset, error)
	MergeRecords(ctx context.Context, name string, records []domain.TraceRecord) error
}

// SchemaRegistry registers label schemas (create-or-overwrite).
type SchemaRegistry interface {
	CreateLabelSchema(ctx context.Context, schema domain.LabelSchema) error
}

// SessionStore creates labeling sessions and attaches datasets.
type SessionStore interface {
	CreateSession(ctx context.Context, input domain.SessionInput) (*domain.LabelingSession, error)
	AddDataset(ctx context.Context, sessionID, datasetName string) (*domain.LabelingSession, error)
}

// WarehouseExecutor runs DDL against the SQL warehouse.
type WarehouseExecutor interface {
	EnsureSchema(ctx context.Context, catalog, schema string) error
}

// SecretStore reads secrets from a workspace secret scope.
type SecretStore interface {
	GetSecret(ctx context.Context, scope, key string) (string, error)
}

// ChatClient is the slice of the Slack API the notification step uses.
type ChatClient interface {
	LookupUserByEmail(ctx context.Context, email string) (string, error)
	PostMessage(ctx context.Context, msg domain.SlackMessage) error
}

// Deps holds the collaborators and notification settings for ReviewService.
// NewChatClient is a factory because the Slack token is only known after
// the secret fetch.
type Deps struct {
	Traces    TraceStore
	Datasets  DatasetStore
	Schemas   SchemaRegistry
	Sessions  SessionStore
	Warehouse WarehouseExecutor
	Secrets   SecretStore

	NewChatClient func(token string) ChatClient
	NotifyEmail   string
	SlackTokenKey string

	Logger *zap.Logger
}

// CreateOptions are the per-run parameters, mirroring the job's CLI flags.
// Reviewer strings and the session-name prefix pass through unvalidated;
// the session store accepts whatever identities the caller supplies, and
// an empty prefix yields a bare timestamp name.
type CreateOptions struct {
	ExperimentID      string `validate:"required"`
	NumTraces         int    `validate:"gt=0"`
	ReviewerEmails    []string
	SessionNamePrefix string
	Catalog           string `validate:"required"`
	Schema            string `validate:"required"`
	SlackSecretScope  string
	NotifyUsers       string
}

// ShouldNotify reports whether the notification step runs: the notify flag
// must equal "true" (case-insensitive) and a secret scope must be set.
func (o CreateOptions) ShouldNotify() bool {
	return strings.EqualFold(o.NotifyUsers, "true") && o.SlackSecretScope != ""
}

// ReviewService creates review sessions from recent experiment traces.
type ReviewService struct {
	deps     Deps
	validate *validator.Validate
	now      func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(deps Deps) *ReviewService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &ReviewService{
		deps:     deps,
		validate: validator.New(),
		now:      time.Now,
	}
}

// CreateReviewSession runs the pipeline: ensure the target schema exists,
// pull the last N traces, persist them into a dataset named after the
// session, register the rating rubric, create the labeling session, and
// optionally notify via Slack. Failures after the dataset merge are not
// rolled back; the operator inspects logs in that case.
func (s *ReviewService) CreateReviewSession(ctx context.Context, opts CreateOptions) (*domain.ReviewRun, error) {
	if err := s.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	sessionName := naming.SessionName(opts.SessionNamePrefix, s.now())
	tableName := naming.TableName(opts.Catalog, opts.Schema, sessionName)
	log := s.deps.Logger.With(zap.String("session_name", sessionName))

	log.Info("ensuring catalog schema exists",
		zap.String("catalog", opts.Catalog),
		zap.String("schema", opts.Schema),
	)
	if err := s.deps.Warehouse.EnsureSchema(ctx, opts.Catalog, opts.Schema); err != nil {
		return nil, fmt.Errorf("ensure schema %s.%s: %w", opts.Catalog, opts.Schema, err)
	}

	log.Info("fetching recent traces", zap.Int("max_results", opts.NumTraces))
	records, err := s.deps.Traces.SearchTraces(ctx, opts.ExperimentID, opts.NumTraces)
	if err != nil {
		return nil, fmt.Errorf("search traces: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoTraces
	}
	log.Info("found traces", zap.Int("count", len(records)))

	domain.NormalizeRecords(records)

	dataset, err := s.getOrCreateDataset(ctx, log, tableName)
	if err != nil {
		return nil, err
	}

	if err := s.deps.Datasets.MergeRecords(ctx, dataset.Name, records); err != nil {
		return nil, fmt.Errorf("merge records into %s: %w", dataset.Name, err)
	}
	log.Info("merged records", zap.Int("count", len(records)), zap.String("dataset", dataset.Name))

	schema := domain.ConversationQualitySchema()
	if err := s.deps.Schemas.CreateLabelSchema(ctx, schema); err != nil {
		return nil, fmt.Errorf("register label schema %s: %w", schema.Name, err)
	}
	log.Info("registered label schema", zap.String("name", schema.Name))

	session, err := s.deps.Sessions.CreateSession(ctx, domain.SessionInput{
		Name:          sessionName,
		AssignedUsers: opts.ReviewerEmails,
		LabelSchemas:  []string{schema.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("create labeling session %s: %w", sessionName, err)
	}

	session, err = s.deps.Sessions.AddDataset(ctx, session.ID, dataset.Name)
	if err != nil {
		return nil, fmt.Errorf("attach dataset %s to session %s: %w", dataset.Name, session.ID, err)
	}
	log.Info("created labeling session",
		zap.String("session_id", session.ID),
		zap.String("url", session.URL),
		zap.Strings("reviewers", opts.ReviewerEmails),
	)

	notified := false
	if opts.ShouldNotify() {
		if err := s.notify(ctx, log, opts, sessionName, session.URL, len(records)); err != nil {
			return nil, err
		}
		notified = true
	} else {
		log.Info("skipping Slack notification")
	}

	return &domain.ReviewRun{
		ID:           uuid.New(),
		SessionName:  sessionName,
		DatasetName:  dataset.Name,
		SessionURL:   session.URL,
		ExperimentID: opts.ExperimentID,
		TraceCount:   len(records),
		Reviewers:    opts.ReviewerEmails,
		Notified:     notified,
		CreatedAt:    s.now(),
	}, nil
}

// getOrCreateDataset fetches the dataset by name and falls back to creating
// it on any error. Error kinds are deliberately not distinguished; the
// create call reports anything genuinely wrong.
func (s *ReviewService) getOrCreateDataset(ctx context.Context, log *zap.Logger, name string) (*domain.Dataset, error) {
	dataset, err := s.deps.Datasets.GetDataset(ctx, name)
	if err == nil {
		log.Info("reusing existing dataset", zap.String("dataset", name))
		return dataset, nil
	}

	dataset, err = s.deps.Datasets.CreateDataset(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create dataset %s: %w", name, err)
	}
	log.Info("created new dataset", zap.String("dataset", name))

	return dataset, nil
}

func (s *ReviewService) notify(ctx context.Context, log *zap.Logger, opts CreateOptions, sessionName, sessionURL string, traceCount int) error {
	token, err := s.deps.Secrets.GetSecret(ctx, opts.SlackSecretScope, s.deps.SlackTokenKey)
	if err != nil {
		return fmt.Errorf("fetch slack token from scope %s: %w", opts.SlackSecretScope, err)
	}

	chat := s.deps.NewChatClient(token)

	channel, err := chat.LookupUserByEmail(ctx, s.deps.NotifyEmail)
	if err != nil {
		return fmt.Errorf("resolve slack user %s: %w", s.deps.NotifyEmail, err)
	}

	msg := slack.NewSessionMessage(channel, domain.SessionNotification{
		SessionName:    sessionName,
		SessionURL:     sessionURL,
		ReviewerEmails: opts.ReviewerEmails,
		TraceCount:     traceCount,
	}, s.now())
	if err := chat.PostMessage(ctx, msg); err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}

	log.Info("slack notification sent", zap.String("recipient", s.deps.NotifyEmail))
	return nil
}

// ParseReviewerEmails splits a comma-separated reviewer list, trimming
// whitespace and dropping empty entries.
func ParseReviewerEmails(s string) []string {
	if s == "" {
		return nil
	}

	var emails []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			emails = append(emails, trimmed)
		}
	}
	return emails
}

package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
)

// MockTraceStore is a mock implementation of TraceStore
type MockTraceStore struct {
	mock.Mock
}

func (m *MockTraceStore) SearchTraces(ctx context.Context, experimentID string, maxResults int) ([]domain.TraceRecord, error) {
	args := m.Called(ctx, experimentID, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TraceRecord), args.Error(1)
}

// MockDatasetStore is a mock implementation of DatasetStore
type MockDatasetStore struct {
	mock.Mock
}

func (m *MockDatasetStore) GetDataset(ctx context.Context, name string) (*domain.Dataset, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetStore) CreateDataset(ctx context.Context, name string) (*domain.Dataset, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetStore) MergeRecords(ctx context.Context, name string, records []domain.TraceRecord) error {
	args := m.Called(ctx, name, records)
	return args.Error(0)
}

// MockSchemaRegistry is a mock implementation of SchemaRegistry
type MockSchemaRegistry struct {
	mock.Mock
}

func (m *MockSchemaRegistry) CreateLabelSchema(ctx context.Context, schema domain.LabelSchema) error {
	args := m.Called(ctx, schema)
	return args.Error(0)
}

// MockSessionStore is a mock implementation of SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) CreateSession(ctx context.Context, input domain.SessionInput) (*domain.LabelingSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LabelingSession), args.Error(1)
}

func (m *MockSessionStore) AddDataset(ctx context.Context, sessionID, datasetName string) (*domain.LabelingSession, error) {
	args := m.Called(ctx, sessionID, datasetName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LabelingSession), args.Error(1)
}

// MockWarehouseExecutor is a mock implementation of WarehouseExecutor
type MockWarehouseExecutor struct {
	mock.Mock
}

func (m *MockWarehouseExecutor) EnsureSchema(ctx context.Context, catalog, schema string) error {
	args := m.Called(ctx, catalog, schema)
	return args.Error(0)
}

// MockSecretStore is a mock implementation of SecretStore
type MockSecretStore struct {
	mock.Mock
}

func (m *MockSecretStore) GetSecret(ctx context.Context, scope, key string) (string, error) {
	args := m.Called(ctx, scope, key)
	return args.String(0), args.Error(1)
}

// MockChatClient is a mock implementation of ChatClient
type MockChatClient struct {
	mock.Mock
}

func (m *MockChatClient) LookupUserByEmail(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

func (m *MockChatClient) PostMessage(ctx context.Context, msg domain.SlackMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type testMocks struct {
	traces    *MockTraceStore
	datasets  *MockDatasetStore
	schemas   *MockSchemaRegistry
	sessions  *MockSessionStore
	warehouse *MockWarehouseExecutor
	secrets   *MockSecretStore
	chat      *MockChatClient
}

func newTestService(t *testing.T) (*ReviewService, *testMocks) {
	t.Helper()

	m := &testMocks{
		traces:    new(MockTraceStore),
		datasets:  new(MockDatasetStore),
		schemas:   new(MockSchemaRegistry),
		sessions:  new(MockSessionStore),
		warehouse: new(MockWarehouseExecutor),
		secrets:   new(MockSecretStore),
		chat:      new(MockChatClient),
	}

	svc := NewReviewService(Deps{
		Traces:        m.traces,
		Datasets:      m.datasets,
		Schemas:       m.schemas,
		Sessions:      m.sessions,
		Warehouse:     m.warehouse,
		Secrets:       m.secrets,
		NewChatClient: func(token string) ChatClient { return m.chat },
		NotifyEmail:   "owner@example.com",
		SlackTokenKey: "slack-bot-token",
	})
	// Fixed clock so derived names are deterministic.
	svc.now = func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)
	}

	return svc, m
}

func (m *testMocks) assertExpectations(t *testing.T) {
	t.Helper()
	m.traces.AssertExpectations(t)
	m.datasets.AssertExpectations(t)
	m.schemas.AssertExpectations(t)
	m.sessions.AssertExpectations(t)
	m.warehouse.AssertExpectations(t)
	m.secrets.AssertExpectations(t)
	m.chat.AssertExpectations(t)
}

func defaultOptions() CreateOptions {
	return CreateOptions{
		ExperimentID:      "123",
		NumTraces:         2,
		ReviewerEmails:    []string{"a@x.com", "b@x.com"},
		SessionNamePrefix: "agent_review",
		Catalog:           "main",
		Schema:            "agent_review",
		NotifyUsers:       "false",
	}
}

const (
	wantSessionName = "agent_review_20260101_000000"
	wantTableName   = "main.agent_review.agent_review_20260101_000000"
)

func TestCreateReviewSession(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path without notification", func(t *testing.T) {
		svc, m := newTestService(t)
		opts := defaultOptions()

		records := []domain.TraceRecord{
			{"request": "q1", "response": "a1"},
			{"request": "q2", "response": "a2"},
		}
		normalized := []domain.TraceRecord{
			{"inputs": "q1", "outputs": "a1"},
			{"inputs": "q2", "outputs": "a2"},
		}

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).Return(records, nil)
		m.datasets.On("GetDataset", ctx, wantTableName).Return(nil, errors.New("not found"))
		m.datasets.On("CreateDataset", ctx, wantTableName).Return(&domain.Dataset{ID: "ds-1", Name: wantTableName}, nil)
		m.datasets.On("MergeRecords", ctx, wantTableName, normalized).Return(nil)
		m.schemas.On("CreateLabelSchema", ctx, mock.MatchedBy(func(s domain.LabelSchema) bool {
			return s.Name == "conversation_quality" &&
				s.Input.MinValue == 1.0 && s.Input.MaxValue == 5.0 &&
				s.EnableComment && s.Overwrite
		})).Return(nil)
		m.sessions.On("CreateSession", ctx, domain.SessionInput{
			Name:          wantSessionName,
			AssignedUsers: []string{"a@x.com", "b@x.com"},
			LabelSchemas:  []string{"conversation_quality"},
		}).Return(&domain.LabelingSession{ID: "ls-1", Name: wantSessionName}, nil)
		m.sessions.On("AddDataset", ctx, "ls-1", wantTableName).
			Return(&domain.LabelingSession{ID: "ls-1", URL: "https://ws/review/ls-1"}, nil)

		run, err := svc.CreateReviewSession(ctx, opts)
		require.NoError(t, err)

		assert.Equal(t, wantSessionName, run.SessionName)
		assert.Equal(t, wantTableName, run.DatasetName)
		assert.Equal(t, "https://ws/review/ls-1", run.SessionURL)
		assert.Equal(t, 2, run.TraceCount)
		assert.False(t, run.Notified)

		m.assertExpectations(t)
		m.secrets.AssertNotCalled(t, "GetSecret", mock.Anything, mock.Anything, mock.Anything)
		m.chat.AssertNotCalled(t, "PostMessage", mock.Anything, mock.Anything)
	})

	t.Run("zero traces mutates nothing", func(t *testing.T) {
		svc, m := newTestService(t)

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).Return([]domain.TraceRecord{}, nil)

		_, err := svc.CreateReviewSession(ctx, defaultOptions())
		require.ErrorIs(t, err, ErrNoTraces)

		m.datasets.AssertNotCalled(t, "GetDataset", mock.Anything, mock.Anything)
		m.datasets.AssertNotCalled(t, "CreateDataset", mock.Anything, mock.Anything)
		m.datasets.AssertNotCalled(t, "MergeRecords", mock.Anything, mock.Anything, mock.Anything)
		m.schemas.AssertNotCalled(t, "CreateLabelSchema", mock.Anything, mock.Anything)
		m.sessions.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("reuses existing dataset without creating", func(t *testing.T) {
		svc, m := newTestService(t)

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).
			Return([]domain.TraceRecord{{"inputs": "q", "outputs": "a"}}, nil)
		m.datasets.On("GetDataset", ctx, wantTableName).Return(&domain.Dataset{ID: "ds-0", Name: wantTableName}, nil)
		m.datasets.On("MergeRecords", ctx, wantTableName, mock.Anything).Return(nil)
		m.schemas.On("CreateLabelSchema", ctx, mock.Anything).Return(nil)
		m.sessions.On("CreateSession", ctx, mock.Anything).Return(&domain.LabelingSession{ID: "ls-1"}, nil)
		m.sessions.On("AddDataset", ctx, "ls-1", wantTableName).Return(&domain.LabelingSession{ID: "ls-1"}, nil)

		_, err := svc.CreateReviewSession(ctx, defaultOptions())
		require.NoError(t, err)

		m.datasets.AssertNotCalled(t, "CreateDataset", mock.Anything, mock.Anything)
	})

	t.Run("fetch failure falls back to exactly one create with the same name", func(t *testing.T) {
		svc, m := newTestService(t)

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).
			Return([]domain.TraceRecord{{"inputs": "q", "outputs": "a"}}, nil)
		m.datasets.On("GetDataset", ctx, wantTableName).Return(nil, errors.New("boom"))
		m.datasets.On("CreateDataset", ctx, wantTableName).Return(&domain.Dataset{Name: wantTableName}, nil)
		m.datasets.On("MergeRecords", ctx, wantTableName, mock.Anything).Return(nil)
		m.schemas.On("CreateLabelSchema", ctx, mock.Anything).Return(nil)
		m.sessions.On("CreateSession", ctx, mock.Anything).Return(&domain.LabelingSession{ID: "ls-1"}, nil)
		m.sessions.On("AddDataset", ctx, "ls-1", wantTableName).Return(&domain.LabelingSession{ID: "ls-1"}, nil)

		_, err := svc.CreateReviewSession(ctx, defaultOptions())
		require.NoError(t, err)

		m.datasets.AssertNumberOfCalls(t, "CreateDataset", 1)
	})

	t.Run("create failure after failed fetch propagates", func(t *testing.T) {
		svc, m := newTestService(t)

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).
			Return([]domain.TraceRecord{{"inputs": "q", "outputs": "a"}}, nil)
		m.datasets.On("GetDataset", ctx, wantTableName).Return(nil, errors.New("nope"))
		m.datasets.On("CreateDataset", ctx, wantTableName).Return(nil, errors.New("permission denied"))

		_, err := svc.CreateReviewSession(ctx, defaultOptions())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "permission denied")

		m.datasets.AssertNotCalled(t, "MergeRecords", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("notification fires with token from secret scope", func(t *testing.T) {
		svc, m := newTestService(t)
		opts := defaultOptions()
		opts.NotifyUsers = "TRUE"
		opts.SlackSecretScope = "slack-reviews"

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).
			Return([]domain.TraceRecord{{"inputs": "q", "outputs": "a"}}, nil)
		m.datasets.On("GetDataset", ctx, wantTableName).Return(&domain.Dataset{Name: wantTableName}, nil)
		m.datasets.On("MergeRecords", ctx, wantTableName, mock.Anything).Return(nil)
		m.schemas.On("CreateLabelSchema", ctx, mock.Anything).Return(nil)
		m.sessions.On("CreateSession", ctx, mock.Anything).Return(&domain.LabelingSession{ID: "ls-1"}, nil)
		m.sessions.On("AddDataset", ctx, "ls-1", wantTableName).
			Return(&domain.LabelingSession{ID: "ls-1", URL: "https://ws/review/ls-1"}, nil)

		m.secrets.On("GetSecret", ctx, "slack-reviews", "slack-bot-token").Return("xoxb-token", nil)
		m.chat.On("LookupUserByEmail", ctx, "owner@example.com").Return("U042", nil)
		m.chat.On("PostMessage", ctx, mock.MatchedBy(func(msg domain.SlackMessage) bool {
			return msg.Channel == "U042" &&
				strings.Contains(msg.Text, wantSessionName) &&
				strings.Contains(msg.Text, "1 conversations to review") &&
				strings.Contains(msg.Text, "a@x.com, b@x.com") &&
				len(msg.Attachments) == 1 &&
				msg.Attachments[0].TitleLink == "https://ws/review/ls-1"
		})).Return(nil)

		run, err := svc.CreateReviewSession(ctx, opts)
		require.NoError(t, err)
		assert.True(t, run.Notified)

		m.assertExpectations(t)
	})

	t.Run("notification failure propagates after session creation", func(t *testing.T) {
		svc, m := newTestService(t)
		opts := defaultOptions()
		opts.NotifyUsers = "true"
		opts.SlackSecretScope = "slack-reviews"

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).
			Return([]domain.TraceRecord{{"inputs": "q", "outputs": "a"}}, nil)
		m.datasets.On("GetDataset", ctx, wantTableName).Return(&domain.Dataset{Name: wantTableName}, nil)
		m.datasets.On("MergeRecords", ctx, wantTableName, mock.Anything).Return(nil)
		m.schemas.On("CreateLabelSchema", ctx, mock.Anything).Return(nil)
		m.sessions.On("CreateSession", ctx, mock.Anything).Return(&domain.LabelingSession{ID: "ls-1"}, nil)
		m.sessions.On("AddDataset", ctx, "ls-1", wantTableName).Return(&domain.LabelingSession{ID: "ls-1"}, nil)
		m.secrets.On("GetSecret", ctx, "slack-reviews", "slack-bot-token").Return("", errors.New("scope missing"))

		_, err := svc.CreateReviewSession(ctx, opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "scope missing")
	})

	t.Run("reviewer strings pass through to the session unvalidated", func(t *testing.T) {
		svc, m := newTestService(t)
		opts := defaultOptions()
		opts.ReviewerEmails = []string{"not-an-email", "svc_principal_1234"}

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).
			Return([]domain.TraceRecord{{"inputs": "q", "outputs": "a"}}, nil)
		m.datasets.On("GetDataset", ctx, wantTableName).Return(&domain.Dataset{Name: wantTableName}, nil)
		m.datasets.On("MergeRecords", ctx, wantTableName, mock.Anything).Return(nil)
		m.schemas.On("CreateLabelSchema", ctx, mock.Anything).Return(nil)
		m.sessions.On("CreateSession", ctx, mock.MatchedBy(func(in domain.SessionInput) bool {
			return assert.ObjectsAreEqual([]string{"not-an-email", "svc_principal_1234"}, in.AssignedUsers)
		})).Return(&domain.LabelingSession{ID: "ls-1"}, nil)
		m.sessions.On("AddDataset", ctx, "ls-1", wantTableName).Return(&domain.LabelingSession{ID: "ls-1"}, nil)

		_, err := svc.CreateReviewSession(ctx, opts)
		require.NoError(t, err)

		m.assertExpectations(t)
	})

	t.Run("empty prefix derives a bare timestamp name", func(t *testing.T) {
		svc, m := newTestService(t)
		opts := defaultOptions()
		opts.SessionNamePrefix = ""

		bareName := "_20260101_000000"
		bareTable := "main.agent_review." + bareName

		m.warehouse.On("EnsureSchema", ctx, "main", "agent_review").Return(nil)
		m.traces.On("SearchTraces", ctx, "123", 2).
			Return([]domain.TraceRecord{{"inputs": "q", "outputs": "a"}}, nil)
		m.datasets.On("GetDataset", ctx, bareTable).Return(&domain.Dataset{Name: bareTable}, nil)
		m.datasets.On("MergeRecords", ctx, bareTable, mock.Anything).Return(nil)
		m.schemas.On("CreateLabelSchema", ctx, mock.Anything).Return(nil)
		m.sessions.On("CreateSession", ctx, mock.MatchedBy(func(in domain.SessionInput) bool {
			return in.Name == bareName
		})).Return(&domain.LabelingSession{ID: "ls-1"}, nil)
		m.sessions.On("AddDataset", ctx, "ls-1", bareTable).Return(&domain.LabelingSession{ID: "ls-1"}, nil)

		run, err := svc.CreateReviewSession(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, bareName, run.SessionName)
	})
}

func TestCreateOptions_ShouldNotify(t *testing.T) {
	tests := []struct {
		name   string
		notify string
		scope  string
		want   bool
	}{
		{"true with scope", "true", "slack-reviews", true},
		{"case insensitive", "True", "slack-reviews", true},
		{"uppercase", "TRUE", "slack-reviews", true},
		{"true without scope", "true", "", false},
		{"false with scope", "false", "slack-reviews", false},
		{"other value with scope", "yes", "slack-reviews", false},
		{"empty flag", "", "slack-reviews", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := CreateOptions{NotifyUsers: tt.notify, SlackSecretScope: tt.scope}
			assert.Equal(t, tt.want, opts.ShouldNotify())
		})
	}
}

func TestParseReviewerEmails(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single", "a@x.com", []string{"a@x.com"}},
		{"multiple with spaces", " a@x.com , b@x.com ", []string{"a@x.com", "b@x.com"}},
		{"trailing comma", "a@x.com,", []string{"a@x.com"}},
		{"only commas", ",,,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReviewerEmails(tt.input))
		})
	}
}

package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
)

type addDatasetRequest struct {
	DatasetName string `json:"datasetName"`
}

// CreateSession creates a labeling session with its assigned reviewers and
// label schema names. The returned session carries the platform-assigned ID.
func (c *Client) CreateSession(ctx context.Context, input domain.SessionInput) (*domain.LabelingSession, error) {
	var session domain.LabelingSession
	if err := c.do(ctx, http.MethodPost, "/api/2.0/genai/labeling-sessions", nil, input, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

// AddDataset attaches a dataset to an existing labeling session and returns
// the updated session, including its reviewable URL.
func (c *Client) AddDataset(ctx context.Context, sessionID, datasetName string) (*domain.LabelingSession, error) {
	path := "/api/2.0/genai/labeling-sessions/" + url.PathEscape(sessionID) + "/datasets"

	var session domain.LabelingSession
	if err := c.do(ctx, http.MethodPost, path, nil, addDatasetRequest{DatasetName: datasetName}, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

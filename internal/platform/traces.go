package platform

import (
	"context"
	"net/http"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
)

// orderByRecency returns the most recent traces first.
const orderByRecency = "timestamp_ms DESC"

type searchTracesRequest struct {
	ExperimentIDs []string `json:"experiment_ids"`
	MaxResults    int      `json:"max_results"`
	OrderBy       []string `json:"order_by"`
}

type searchTracesResponse struct {
	Traces []domain.TraceRecord `json:"traces"`
}

// SearchTraces returns up to maxResults of the most recent traces recorded
// for the experiment, newest first.
func (c *Client) SearchTraces(ctx context.Context, experimentID string, maxResults int) ([]domain.TraceRecord, error) {
	req := searchTracesRequest{
		ExperimentIDs: []string{experimentID},
		MaxResults:    maxResults,
		OrderBy:       []string{orderByRecency},
	}

	var resp searchTracesResponse
	if err := c.do(ctx, http.MethodPost, "/api/2.0/mlflow/traces/search", nil, req, &resp); err != nil {
		return nil, err
	}

	return resp.Traces, nil
}

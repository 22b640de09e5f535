package platform

import (
	"context"
	"net/http"
	"net/url"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
)

type createDatasetRequest struct {
	Name string `json:"name"`
}

type mergeRecordsRequest struct {
	Records []domain.TraceRecord `json:"records"`
}

// GetDataset fetches a managed dataset by its three-part table name.
func (c *Client) GetDataset(ctx context.Context, name string) (*domain.Dataset, error) {
	q := url.Values{"name": {name}}

	var ds domain.Dataset
	if err := c.do(ctx, http.MethodGet, "/api/2.0/genai/datasets", q, nil, &ds); err != nil {
		return nil, err
	}

	return &ds, nil
}

// CreateDataset creates a managed dataset backed by the named table.
func (c *Client) CreateDataset(ctx context.Context, name string) (*domain.Dataset, error) {
	var ds domain.Dataset
	if err := c.do(ctx, http.MethodPost, "/api/2.0/genai/datasets", nil, createDatasetRequest{Name: name}, &ds); err != nil {
		return nil, err
	}

	return &ds, nil
}

// MergeRecords upserts trace records into the named dataset.
func (c *Client) MergeRecords(ctx context.Context, name string, records []domain.TraceRecord) error {
	path := "/api/2.0/genai/datasets/" + url.PathEscape(name) + "/records"
	return c.do(ctx, http.MethodPost, path, nil, mergeRecordsRequest{Records: records}, nil)
}

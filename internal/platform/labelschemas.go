package platform

import (
	"context"
	"net/http"

	"github.com/btbeal-db/agent-eval-request-job/internal/domain"
)

// CreateLabelSchema registers a label schema. With Overwrite set the
// registry replaces any existing schema of the same name; there is no
// versioning, so the last writer wins globally.
func (c *Client) CreateLabelSchema(ctx context.Context, schema domain.LabelSchema) error {
	return c.do(ctx, http.MethodPost, "/api/2.0/genai/label-schemas", nil, schema, nil)
}

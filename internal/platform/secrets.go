package platform

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
)

type getSecretResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GetSecret reads a secret value from the named scope. The API returns the
// value base64-encoded.
func (c *Client) GetSecret(ctx context.Context, scope, key string) (string, error) {
	q := url.Values{
		"scope": {scope},
		"key":   {key},
	}

	var resp getSecretResponse
	if err := c.do(ctx, http.MethodGet, "/api/2.0/secrets/get", q, nil, &resp); err != nil {
		return "", err
	}

	value, err := base64.StdEncoding.DecodeString(resp.Value)
	if err != nil {
		return "", fmt.Errorf("decode secret %s/%s: %w", scope, key, err)
	}

	return string(value), nil
}

package platform

import (
	"context"
	"fmt"
	"net/http"
)

type executeStatementRequest struct {
	Statement   string `json:"statement"`
	WarehouseID string `json:"warehouse_id"`
	WaitTimeout string `json:"wait_timeout"`
}

type executeStatementResponse struct {
	StatementID string `json:"statement_id"`
	Status      struct {
		State string `json:"state"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"status"`
}

// ExecuteStatement runs a SQL statement on the configured warehouse and
// waits for it to finish.
func (c *Client) ExecuteStatement(ctx context.Context, statement string) error {
	req := executeStatementRequest{
		Statement:   statement,
		WarehouseID: c.config.WarehouseID,
		WaitTimeout: "30s",
	}

	var resp executeStatementResponse
	if err := c.do(ctx, http.MethodPost, "/api/2.0/sql/statements", nil, req, &resp); err != nil {
		return err
	}

	if resp.Status.State == "FAILED" || resp.Status.State == "CANCELED" {
		return fmt.Errorf("statement %s %s: %s", resp.StatementID, resp.Status.State, resp.Status.Error.Message)
	}

	return nil
}

// EnsureSchema issues CREATE SCHEMA IF NOT EXISTS for the target Unity
// Catalog schema. Catalog creation needs admin privileges and a storage
// location, so the catalog must already exist.
func (c *Client) EnsureSchema(ctx context.Context, catalog, schema string) error {
	stmt := fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS `%s`.`%s`", catalog, schema)
	return c.ExecuteStatement(ctx, stmt)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewRun is the durable record of one completed job run, kept in the
// local ledger so operators can find sessions they created earlier.
type ReviewRun struct {
	ID           uuid.UUID `json:"id"`
	SessionName  string    `json:"sessionName"`
	DatasetName  string    `json:"datasetName"`
	SessionURL   string    `json:"sessionUrl,omitempty"`
	ExperimentID string    `json:"experimentId"`
	TraceCount   int       `json:"traceCount"`
	Reviewers    []string  `json:"reviewers,omitempty"`
	Notified     bool      `json:"notified"`
	CreatedAt    time.Time `json:"createdAt"`
}

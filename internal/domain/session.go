package domain

import "time"

// LabelingSession associates reviewer identities with a dataset and a label
// schema. The platform exposes a reviewable URL once created.
type LabelingSession struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	AssignedUsers []string  `json:"assignedUsers"`
	LabelSchemas  []string  `json:"labelSchemas"`
	DatasetName   string    `json:"datasetName,omitempty"`
	URL           string    `json:"url,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitempty"`
}

// SessionInput represents input for creating a labeling session.
type SessionInput struct {
	Name          string   `json:"name" validate:"required"`
	AssignedUsers []string `json:"assignedUsers"`
	LabelSchemas  []string `json:"labelSchemas" validate:"min=1"`
}

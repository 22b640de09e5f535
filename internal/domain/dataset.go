package domain

import "time"

// Dataset represents a managed dataset backed by a Unity Catalog table.
// The three-part table name (catalog.schema.table) is the dataset's
// identity; records are append-only via merge.
type Dataset struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

package entities

import (
	"time"
)

// Author is one author record in its normalized form, the shape every
// storage backend receives.
type Author struct {
	ID   int64  `json:"id"`
	OLID string `json:"olid"`
	// Name is optional in dump payloads. An empty string means the
	// payload carried no name and the column stays NULL.
	Name         string    `json:"name,omitempty"`
	Revision     int64     `json:"revision"`
	LastModified time.Time `json:"last_modified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identified reports whether the record carries the identifier every
// backend keys on.
func (a Author) Identified() bool {
	return a.OLID != ""
}

package project

import (
	"time"

	"github.com/google/uuid"
)

// Run holds metadata about one cleaning run stored in a project.
type Run struct {
	ID                string    `json:"id"`
	Source            string    `json:"source"`
	Output            string    `json:"output"`
	Report            string    `json:"report"`
	Rows              int       `json:"rows"`
	Columns           int       `json:"columns"`
	DuplicatesRemoved int       `json:"duplicates_removed"`
	Outliers          int       `json:"outliers"`
	Failures          int       `json:"failures,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewRun returns a run for source. An empty id is replaced by a fresh one.
func NewRun(id, source string) *Run {
	if id == "" {
		id = uuid.NewString()
	}
	return &Run{ID: id, Source: source, CreatedAt: time.Now()}
}

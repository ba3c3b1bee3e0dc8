package sync

import (
	"fmt"
	"time"

	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/reconciler"
)

// Summary represents the result of a completed sync run.
type Summary struct {
	Kind     catalog.Kind  `json:"kind" yaml:"kind"`
	Handle   string        `json:"handle,omitempty" yaml:"handle,omitempty"` // set for single-handle runs
	Pages    int           `json:"pages" yaml:"pages"`
	Fetched  int           `json:"fetched" yaml:"fetched"`
	Created  int           `json:"created" yaml:"created"`
	Updated  int           `json:"updated" yaml:"updated"`
	Skipped  int           `json:"skipped" yaml:"skipped"`
	DryRun   bool          `json:"dry_run" yaml:"dry_run"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Reconciled returns the number of entities that completed reconciliation.
func (s Summary) Reconciled() int {
	return s.Created + s.Updated + s.Skipped
}

// HasChanges returns true if the run created or updated any document.
func (s Summary) HasChanges() bool {
	return s.Created > 0 || s.Updated > 0
}

// String returns a human-readable summary of the run.
func (s Summary) String() string {
	subject := string(s.Kind)
	if s.Handle != "" {
		subject = fmt.Sprintf("%s %q", s.Kind, s.Handle)
	}
	if !s.HasChanges() {
		return fmt.Sprintf("%s: no changes (%d fetched, %d unchanged)", subject, s.Fetched, s.Skipped)
	}
	out := fmt.Sprintf("%s: %d created, %d updated, %d unchanged", subject, s.Created, s.Updated, s.Skipped)
	if s.DryRun {
		out += " (dry run)"
	}
	return out
}

func (s *Summary) record(res reconciler.Result) {
	switch res.Outcome {
	case reconciler.OutcomeCreated:
		s.Created++
	case reconciler.OutcomeUpdated:
		s.Updated++
	case reconciler.OutcomeSkipped:
		s.Skipped++
	}
}

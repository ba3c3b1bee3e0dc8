package output

import (
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/sync"
)

var titleCaser = cases.Title(language.English)

// Report is what a sync command prints: the run summary and, for dry runs,
// the writes that were suppressed.
type Report struct {
	Summary sync.Summary `json:"summary" yaml:"summary"`
	Changes []Change     `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// Change is one suppressed write in a dry run.
type Change struct {
	Op       string `json:"op" yaml:"op"`
	Type     string `json:"type" yaml:"type"`
	SourceID string `json:"source_id" yaml:"source_id"`
	Handle   string `json:"handle" yaml:"handle"`
}

// NewChange describes a write of doc; op is "create" or "patch".
func NewChange(op string, doc *documents.Document) Change {
	return Change{
		Op:       op,
		Type:     doc.Type.String(),
		SourceID: doc.SourceID,
		Handle:   doc.Slug.Current,
	}
}

// TableData implements Tabular.
func (r Report) TableData() Data {
	s := r.Summary
	kind := titleCaser.String(s.Kind.String())
	if s.Handle != "" {
		kind += " " + s.Handle
	}

	data := Data{
		Headers: []string{"Kind", "Pages", "Fetched", "Created", "Updated", "Unchanged", "Duration"},
		Rows: [][]string{{
			kind,
			strconv.Itoa(s.Pages),
			strconv.Itoa(s.Fetched),
			strconv.Itoa(s.Created),
			strconv.Itoa(s.Updated),
			strconv.Itoa(s.Skipped),
			s.Duration.Round(1e6).String(),
		}},
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight},
	}
	if s.DryRun {
		data.Headers[0] = "Kind (dry run)"
	}
	return data
}

// ChangesTable lays out dry run changes, one row per suppressed write.
func (r Report) ChangesTable() Data {
	data := Data{Headers: []string{"Op", "Type", "Source ID", "Handle"}}
	for _, c := range r.Changes {
		data.Rows = append(data.Rows, []string{titleCaser.String(c.Op), c.Type, c.SourceID, c.Handle})
	}
	return data
}

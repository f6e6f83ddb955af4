package conversations

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/query"
	"github.com/JaimeStill/pathfinder/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "conversations", "c").
	Project("id", "ID").
	Project("phase", "Phase").
	Project("submitted_by", "SubmittedBy").
	Project("session", "Session").
	Project("revision", "Revision").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "UpdatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for conversation queries.
type Filters struct {
	Phase       *string `json:"phase,omitempty"`
	SubmittedBy *string `json:"submitted_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Phase", f.Phase).
		WhereEquals("SubmittedBy", f.SubmittedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if p := values.Get("phase"); p != "" {
		f.Phase = &p
	}

	if s := values.Get("submitted_by"); s != "" {
		f.SubmittedBy = &s
	}

	return f
}

func scanConversation(s repository.Scanner) (Conversation, error) {
	var (
		c     Conversation
		phase string
		raw   []byte
	)

	if err := s.Scan(&c.ID, &phase, &c.SubmittedBy, &raw, &c.Revision, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return c, err
	}

	c.Phase = workflow.Phase(phase)
	if err := json.Unmarshal(raw, &c.Session); err != nil {
		return c, fmt.Errorf("unmarshal session: %w", err)
	}
	return c, nil
}

package matrices

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/pkg/query"
	"github.com/JaimeStill/pathfinder/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "matrices", "m").
	Project("version", "Version").
	Project("definition", "Definition").
	Project("active", "Active").
	Project("created_at", "CreatedAt").
	Project("created_by", "CreatedBy")

var defaultSort = query.SortField{
	Field:      "Version",
	Descending: true,
}

// definition is the JSONB shape of a stored matrix.
type definition struct {
	Attributes []rules.Attribute `json:"attributes"`
	Rules      []rules.Rule      `json:"rules"`
}

// Filters contains optional filtering criteria for matrix queries.
type Filters struct {
	Active    *bool   `json:"active,omitempty"`
	CreatedBy *string `json:"created_by,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Active", f.Active).
		WhereContains("CreatedBy", f.CreatedBy)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if a := values.Get("active"); a != "" {
		if active, err := strconv.ParseBool(a); err == nil {
			f.Active = &active
		}
	}

	if c := values.Get("created_by"); c != "" {
		f.CreatedBy = &c
	}

	return f
}

// parseVersion converts a version path value to its stored integer form.
func parseVersion(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	return v, nil
}

func scanMatrix(s repository.Scanner) (rules.Matrix, error) {
	var (
		m       rules.Matrix
		version int
		raw     []byte
	)

	if err := s.Scan(&version, &raw, &m.Active, &m.CreatedAt, &m.CreatedBy); err != nil {
		return m, err
	}

	var def definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return m, fmt.Errorf("unmarshal definition: %w", err)
	}

	m.Version = strconv.Itoa(version)
	m.Attributes = def.Attributes
	m.Rules = def.Rules
	return m, nil
}

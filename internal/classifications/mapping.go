package classifications

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/query"
	"github.com/JaimeStill/pathfinder/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "classifications", "c").
	Project("id", "ID").
	Project("conversation_id", "ConversationID").
	Project("category", "Category").
	Project("confidence", "Confidence").
	Project("rationale", "Rationale").
	Project("category_progression", "CategoryProgression").
	Project("future_opportunities", "FutureOpportunities").
	Project("baseline_category", "BaselineCategory").
	Project("baseline_confidence", "BaselineConfidence").
	Project("evaluation", "Evaluation").
	Project("attributes", "Attributes").
	Project("matrix_version", "MatrixVersion").
	Project("matrix_applied", "MatrixApplied").
	Project("forced_reason", "ForcedReason").
	Project("reclassification", "Reclassification").
	Project("confidence_delta", "ConfidenceDelta").
	Project("model_name", "ModelName").
	Project("provider_name", "ProviderName").
	Project("classified_at", "ClassifiedAt")

var defaultSort = query.SortField{
	Field:      "ClassifiedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for classification queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Category         *taxonomy.Category `json:"category,omitempty"`
	ConversationID   *uuid.UUID         `json:"conversation_id,omitempty"`
	MatrixVersion    *string            `json:"matrix_version,omitempty"`
	Reclassification *bool              `json:"reclassification,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	var category *string
	if f.Category != nil {
		c := string(*f.Category)
		category = &c
	}
	return b.
		WhereEquals("Category", category).
		WhereEquals("ConversationID", f.ConversationID).
		WhereEquals("MatrixVersion", f.MatrixVersion).
		WhereEquals("Reclassification", f.Reclassification)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		if cat, err := taxonomy.ParseCategory(c); err == nil {
			f.Category = &cat
		}
	}

	if c := values.Get("conversation_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.ConversationID = &id
		}
	}

	if v := values.Get("matrix_version"); v != "" {
		f.MatrixVersion = &v
	}

	if r := values.Get("reclassification"); r != "" {
		if b, err := strconv.ParseBool(r); err == nil {
			f.Reclassification = &b
		}
	}

	return f
}

func scanClassification(s repository.Scanner) (Classification, error) {
	var (
		c             Classification
		category      string
		baseline      string
		opportunities []byte
		evaluation    []byte
		attributes    []byte
		forced        *string
	)

	err := s.Scan(
		&c.ID,
		&c.ConversationID,
		&category,
		&c.Confidence,
		&c.Rationale,
		&c.CategoryProgression,
		&opportunities,
		&baseline,
		&c.BaselineConfidence,
		&evaluation,
		&attributes,
		&c.MatrixVersion,
		&c.MatrixApplied,
		&forced,
		&c.Reclassification,
		&c.ConfidenceDelta,
		&c.ModelName,
		&c.ProviderName,
		&c.ClassifiedAt,
	)
	if err != nil {
		return c, err
	}

	c.Category = taxonomy.Category(category)
	c.BaselineCategory = taxonomy.Category(baseline)
	if forced != nil {
		reason := workflow.ForceReason(*forced)
		c.ForcedReason = &reason
	}

	if len(opportunities) > 0 {
		if err := json.Unmarshal(opportunities, &c.FutureOpportunities); err != nil {
			return c, fmt.Errorf("unmarshal future_opportunities: %w", err)
		}
	}
	if c.FutureOpportunities == nil {
		c.FutureOpportunities = []string{}
	}

	if len(evaluation) > 0 && string(evaluation) != "null" {
		if err := json.Unmarshal(evaluation, &c.Evaluation); err != nil {
			return c, fmt.Errorf("unmarshal evaluation: %w", err)
		}
	}

	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &c.Attributes); err != nil {
			return c, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}

	return c, nil
}

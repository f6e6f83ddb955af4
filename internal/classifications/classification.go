// Package classifications stores the append-only history of final
// classifications. Every completed conversation and every reclassification
// appends one record; records are never updated.
package classifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

// Classification is one stored resolution of a conversation.
type Classification struct {
	ID                  uuid.UUID             `json:"id"`
	ConversationID      uuid.UUID             `json:"conversation_id"`
	Category            taxonomy.Category     `json:"category"`
	Confidence          float64               `json:"confidence"`
	Rationale           string                `json:"rationale"`
	CategoryProgression string                `json:"category_progression"`
	FutureOpportunities []string              `json:"future_opportunities"`
	BaselineCategory    taxonomy.Category     `json:"baseline_category"`
	BaselineConfidence  float64               `json:"baseline_confidence"`
	Evaluation          *rules.Evaluation     `json:"evaluation"`
	Attributes          rules.Values          `json:"attributes"`
	MatrixVersion       *string               `json:"matrix_version"`
	MatrixApplied       bool                  `json:"matrix_applied"`
	ForcedReason        *workflow.ForceReason `json:"forced_reason"`
	Reclassification    bool                  `json:"reclassification"`
	ConfidenceDelta     *float64              `json:"confidence_delta"`
	ModelName           string                `json:"model_name"`
	ProviderName        string                `json:"provider_name"`
	ClassifiedAt        time.Time             `json:"classified_at"`
}

// Result rebuilds the workflow result this record was written from.
func (c *Classification) Result() *workflow.Result {
	r := &workflow.Result{
		Classification: taxonomy.Classification{
			Category:            c.Category,
			Confidence:          c.Confidence,
			Rationale:           c.Rationale,
			CategoryProgression: c.CategoryProgression,
			FutureOpportunities: c.FutureOpportunities,
		},
		Baseline: taxonomy.Classification{
			Category:   c.BaselineCategory,
			Confidence: c.BaselineConfidence,
		},
		Evaluation:       c.Evaluation,
		Attributes:       c.Attributes,
		MatrixApplied:    c.MatrixApplied,
		Reclassification: c.Reclassification,
		ConfidenceDelta:  c.ConfidenceDelta,
		CompletedAt:      c.ClassifiedAt,
	}
	if c.ForcedReason != nil {
		r.ForcedReason = *c.ForcedReason
	}
	return r
}

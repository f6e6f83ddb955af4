package llm

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/formatting"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type classifyResponse struct {
	Category            taxonomy.Category `json:"category" validate:"required"`
	Confidence          float64           `json:"confidence"`
	Rationale           string            `json:"rationale" validate:"required"`
	Action              workflow.Action   `json:"action"`
	CategoryProgression string            `json:"category_progression"`
	FutureOpportunities []string          `json:"future_opportunities"`
}

type clarifyResponse struct {
	Questions []string `json:"questions" validate:"required"`
}

type extractResponse struct {
	Attributes map[string]workflow.RawAttribute `json:"attributes" validate:"required"`
}

type summarizeResponse struct {
	Summary string `json:"summary" validate:"required"`
}

// parse decodes content into T and validates it. Any failure is reported as
// malformed output so the workflow can apply its malformed-output policy.
func parse[T any](content string) (T, error) {
	v, err := formatting.Parse[T](content)
	if err != nil {
		return v, fmt.Errorf("%w: %w", workflow.ErrMalformedOutput, err)
	}
	if err := validate.Struct(v); err != nil {
		return v, fmt.Errorf("%w: %w", workflow.ErrMalformedOutput, err)
	}
	return v, nil
}

// action maps the model's recommendation, treating anything unrecognised as
// a request for clarification.
func action(a workflow.Action) workflow.Action {
	switch a {
	case workflow.ActionAutoClassify, workflow.ActionManualReview:
		return a
	default:
		return workflow.ActionClarify
	}
}


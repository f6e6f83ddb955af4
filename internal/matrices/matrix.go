// Package matrices publishes and serves versioned decision matrices. Published
// versions are immutable: a change is a new version, and rolling back
// reactivates an earlier one. Each published version is archived as a JSON
// snapshot in blob storage.
package matrices

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// PublishCommand carries a new matrix definition.
type PublishCommand struct {
	Attributes []rules.Attribute `json:"attributes" yaml:"attributes"`
	Rules      []rules.Rule      `json:"rules" yaml:"rules"`
	CreatedBy  string            `json:"created_by" yaml:"created_by"`
}

// Matrix returns the definition as an unversioned matrix for validation.
func (cmd PublishCommand) Matrix() *rules.Matrix {
	return &rules.Matrix{
		Attributes: cmd.Attributes,
		Rules:      cmd.Rules,
		CreatedBy:  strings.TrimSpace(cmd.CreatedBy),
	}
}

// ValidationResult reports the outcome of a dry-run validation.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Check validates cmd without publishing it.
func Check(cmd PublishCommand) ValidationResult {
	issues := rules.Issues(rules.Validate(cmd.Matrix()))
	if issues == nil {
		issues = []string{}
	}
	return ValidationResult{Valid: len(issues) == 0, Issues: issues}
}

// EvaluateCommand is a dry run of the rule engine: a baseline and plain
// attribute values keyed by attribute name.
type EvaluateCommand struct {
	Baseline   taxonomy.Classification `json:"baseline"`
	Attributes map[string]any          `json:"attributes"`
}

// EvaluateResult is the trace of a dry run plus any attribute values that
// were rejected before evaluation.
type EvaluateResult struct {
	Evaluation rules.Evaluation `json:"evaluation"`
	Attributes rules.Values     `json:"attributes"`
	Rejected   []string         `json:"rejected"`
}

// DryRun evaluates cmd against m without recording anything.
func DryRun(ev *rules.Evaluator, m *rules.Matrix, cmd EvaluateCommand) (*EvaluateResult, error) {
	if !cmd.Baseline.Category.Valid() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseline, taxonomy.ErrInvalidCategory)
	}
	baseline := cmd.Baseline.Clone()
	baseline.Confidence = taxonomy.Clamp(baseline.Confidence)

	values, errs := rules.ValuesFromMap(m, cmd.Attributes)
	rejected := make([]string, 0, len(errs))
	for _, err := range errs {
		rejected = append(rejected, err.Error())
	}

	return &EvaluateResult{
		Evaluation: ev.Evaluate(m, baseline, values),
		Attributes: values,
		Rejected:   rejected,
	}, nil
}

// ArchiveKey is the blob key of a version's snapshot.
func ArchiveKey(version string) string {
	return fmt.Sprintf("matrices/v%s.json", version)
}

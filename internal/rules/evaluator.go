package rules

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// TriggeredRule records a rule whose conditions all held and the effect its action had.
type TriggeredRule struct {
	RuleID         string            `json:"rule_id"`
	Name           string            `json:"name"`
	Priority       int               `json:"priority"`
	Action         ActionType        `json:"action"`
	TargetCategory taxonomy.Category `json:"target_category,omitempty"`
	Delta          float64           `json:"delta,omitempty"`
	Effect         string            `json:"effect"`
	Rationale      string            `json:"rationale"`
}

// Evaluation is the immutable trace of applying a matrix to a baseline classification.
type Evaluation struct {
	MatrixVersion     string                  `json:"matrix_version"`
	TriggeredRules    []TriggeredRule         `json:"triggered_rules"`
	Original          taxonomy.Classification `json:"original"`
	Final             taxonomy.Classification `json:"final"`
	AttributeCoverage float64                 `json:"attribute_coverage"`
}

// RuleIDs returns the ids of the triggered rules in evaluation order.
func (e *Evaluation) RuleIDs() []string {
	ids := make([]string, len(e.TriggeredRules))
	for i, tr := range e.TriggeredRules {
		ids[i] = tr.RuleID
	}
	return ids
}

// Evaluator applies decision matrices to baseline classifications.
// It holds no state beyond its logger and is safe for concurrent use.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator that reports matrix problems to logger.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{logger: logger.With("system", "rules")}
}

// Evaluate applies m's active rules to baseline in descending priority order.
// Overrides replace the working category so the last applied override wins,
// confidence deltas accumulate and the result is clamped to [0, 1], and each
// triggered rule's rationale is appended to the baseline rationale.
func (e *Evaluator) Evaluate(m *Matrix, baseline taxonomy.Classification, values Values) Evaluation {
	rules := m.ActiveRules()
	slices.SortStableFunc(rules, func(a, b Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	final := baseline.Clone()
	confidence := baseline.Confidence
	rationale := []string{}
	if baseline.Rationale != "" {
		rationale = append(rationale, baseline.Rationale)
	}

	triggered := make([]TriggeredRule, 0)

	for _, rule := range rules {
		if !e.matches(m, rule, values) {
			continue
		}

		tr := TriggeredRule{
			RuleID:    rule.ID,
			Name:      rule.Name,
			Priority:  rule.Priority,
			Action:    rule.Action.Type,
			Rationale: rule.Action.Rationale,
		}

		switch rule.Action.Type {
		case Override:
			if !rule.Action.TargetCategory.Valid() {
				e.logger.Warn("override target is not a category",
					"matrix_version", m.Version,
					"rule_id", rule.ID,
					"target", rule.Action.TargetCategory,
				)
				continue
			}
			tr.TargetCategory = rule.Action.TargetCategory
			tr.Effect = fmt.Sprintf("category %s -> %s", final.Category, rule.Action.TargetCategory)
			final.Category = rule.Action.TargetCategory
		case AdjustConfidence:
			tr.Delta = rule.Action.Delta
			tr.Effect = fmt.Sprintf("confidence %+.2f", rule.Action.Delta)
			confidence += rule.Action.Delta
		default:
			e.logger.Warn("unknown rule action",
				"matrix_version", m.Version,
				"rule_id", rule.ID,
				"action", rule.Action.Type,
			)
			continue
		}

		if rule.Action.Rationale != "" {
			rationale = append(rationale, rule.Action.Rationale)
		}
		triggered = append(triggered, tr)
	}

	final.Confidence = taxonomy.Clamp(confidence)
	final.Rationale = strings.Join(rationale, "\n")

	return Evaluation{
		MatrixVersion:     m.Version,
		TriggeredRules:    triggered,
		Original:          baseline.Clone(),
		Final:             final,
		AttributeCoverage: coverage(m, values),
	}
}

func (e *Evaluator) matches(m *Matrix, rule Rule, values Values) bool {
	if len(rule.Conditions) == 0 {
		e.logger.Warn("rule has no conditions", "matrix_version", m.Version, "rule_id", rule.ID)
		return false
	}

	for _, c := range rule.Conditions {
		if _, ok := m.Attribute(c.Attribute); !ok {
			e.logger.Warn("condition references unknown attribute",
				"matrix_version", m.Version,
				"rule_id", rule.ID,
				"attribute", c.Attribute,
			)
			return false
		}
		if !EvaluateCondition(c, values) {
			return false
		}
	}
	return true
}

// coverage is the weighted share of m's attributes present in values.
func coverage(m *Matrix, values Values) float64 {
	var total, present float64
	for _, a := range m.Attributes {
		total += a.Weight
		if _, ok := values.Lookup(a.Name); ok {
			present += a.Weight
		}
	}
	if total == 0 {
		return 0
	}
	return present / total
}

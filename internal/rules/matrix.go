// Package rules implements the decision matrix: typed attribute definitions,
// prioritized rules with conjunctive conditions, and the deterministic
// evaluator that refines a baseline classification.
package rules

import (
	"time"

	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// AttributeType is the declared type of a matrix attribute.
type AttributeType string

const (
	Numeric     AttributeType = "numeric"
	Categorical AttributeType = "categorical"
	Boolean     AttributeType = "boolean"
)

// Operator is a condition comparison.
type Operator string

const (
	Equals         Operator = "equals"
	NotEquals      Operator = "not_equals"
	GreaterThan    Operator = "greater_than"
	LessThan       Operator = "less_than"
	GreaterOrEqual Operator = "greater_or_equal"
	LessOrEqual    Operator = "less_or_equal"
	Contains       Operator = "contains"
	In             Operator = "in"
)

// ActionType is the effect a triggered rule has on the working classification.
type ActionType string

const (
	Override         ActionType = "override"
	AdjustConfidence ActionType = "adjust_confidence"
)

// Attribute declares a typed property that can be extracted from a process description.
type Attribute struct {
	Name           string        `json:"name" yaml:"name" validate:"required"`
	Type           AttributeType `json:"type" yaml:"type" validate:"required,oneof=numeric categorical boolean"`
	Weight         float64       `json:"weight" yaml:"weight" validate:"gte=0,lte=1"`
	PossibleValues []string      `json:"possible_values,omitempty" yaml:"possible_values,omitempty"`
	Description    string        `json:"description,omitempty" yaml:"description,omitempty"`
}

// Condition compares one attribute against a literal value.
// Value holds a JSON or YAML scalar, or a list for the in operator.
type Condition struct {
	Attribute string   `json:"attribute" yaml:"attribute" validate:"required"`
	Operator  Operator `json:"operator" yaml:"operator" validate:"required,oneof=equals not_equals greater_than less_than greater_or_equal less_or_equal contains in"`
	Value     any      `json:"value" yaml:"value"`
}

// RuleAction is applied when every condition of its rule holds.
type RuleAction struct {
	Type           ActionType        `json:"type" yaml:"type" validate:"required,oneof=override adjust_confidence"`
	TargetCategory taxonomy.Category `json:"target_category,omitempty" yaml:"target_category,omitempty" validate:"omitempty,category"`
	Delta          float64           `json:"delta,omitempty" yaml:"delta,omitempty" validate:"gte=-1,lte=1"`
	Rationale      string            `json:"rationale" yaml:"rationale"`
}

// Rule is a prioritized set of AND-ed conditions and an action.
// Higher priority rules are evaluated first.
type Rule struct {
	ID          string      `json:"rule_id" yaml:"rule_id" validate:"required"`
	Name        string      `json:"name" yaml:"name" validate:"required"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Priority    int         `json:"priority" yaml:"priority"`
	Active      bool        `json:"active" yaml:"active"`
	Conditions  []Condition `json:"conditions" yaml:"conditions" validate:"min=1,dive"`
	Action      RuleAction  `json:"action" yaml:"action"`
}

// Matrix is an immutable, versioned set of attributes and rules.
type Matrix struct {
	Version    string      `json:"version" yaml:"version"`
	Attributes []Attribute `json:"attributes" yaml:"attributes" validate:"min=1,dive"`
	Rules      []Rule      `json:"rules" yaml:"rules" validate:"dive"`
	Active     bool        `json:"active" yaml:"active"`
	CreatedAt  time.Time   `json:"created_at" yaml:"created_at"`
	CreatedBy  string      `json:"created_by" yaml:"created_by"`
}

// Attribute returns the definition named name.
func (m *Matrix) Attribute(name string) (Attribute, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// ActiveRules returns the rules flagged active, in definition order.
func (m *Matrix) ActiveRules() []Rule {
	active := make([]Rule, 0, len(m.Rules))
	for _, r := range m.Rules {
		if r.Active {
			active = append(active, r)
		}
	}
	return active
}

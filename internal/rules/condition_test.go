package rules_test

import (
	"testing"

	"github.com/JaimeStill/pathfinder/internal/rules"
)

func values(pairs map[string]rules.Value) rules.Values {
	v := make(rules.Values, len(pairs))
	for name, value := range pairs {
		v[name] = rules.ExtractedValue{Value: value, Confidence: 1}
	}
	return v
}

func TestEvaluateCondition(t *testing.T) {
	vals := values(map[string]rules.Value{
		"volume":    rules.CategoricalValue("High"),
		"frequency": rules.NumericValue(120),
		"digital":   rules.BooleanValue(true),
		"systems":   rules.ListValue{"SAP", "Outlook"},
		"notes":     rules.CategoricalValue("manual re-keying from email"),
		"count":     rules.CategoricalValue("42"),
	})

	tests := []struct {
		name string
		cond rules.Condition
		want bool
	}{
		{"equals categorical case-insensitive", rules.Condition{Attribute: "volume", Operator: rules.Equals, Value: "high"}, true},
		{"equals categorical mismatch", rules.Condition{Attribute: "volume", Operator: rules.Equals, Value: "low"}, false},
		{"equals numeric", rules.Condition{Attribute: "frequency", Operator: rules.Equals, Value: 120}, true},
		{"equals numeric string", rules.Condition{Attribute: "frequency", Operator: rules.Equals, Value: "120"}, true},
		{"equals boolean", rules.Condition{Attribute: "digital", Operator: rules.Equals, Value: true}, true},
		{"equals boolean yes", rules.Condition{Attribute: "digital", Operator: rules.Equals, Value: "yes"}, true},
		{"equals boolean uncoercible", rules.Condition{Attribute: "digital", Operator: rules.Equals, Value: "maybe"}, false},
		{"not_equals categorical", rules.Condition{Attribute: "volume", Operator: rules.NotEquals, Value: "low"}, true},
		{"not_equals uncoercible", rules.Condition{Attribute: "frequency", Operator: rules.NotEquals, Value: "lots"}, false},
		{"greater_than", rules.Condition{Attribute: "frequency", Operator: rules.GreaterThan, Value: 100}, true},
		{"greater_than equal boundary", rules.Condition{Attribute: "frequency", Operator: rules.GreaterThan, Value: 120}, false},
		{"greater_or_equal boundary", rules.Condition{Attribute: "frequency", Operator: rules.GreaterOrEqual, Value: 120}, true},
		{"less_than", rules.Condition{Attribute: "frequency", Operator: rules.LessThan, Value: 200.5}, true},
		{"less_or_equal", rules.Condition{Attribute: "frequency", Operator: rules.LessOrEqual, Value: 119}, false},
		{"numeric op on numeric string", rules.Condition{Attribute: "count", Operator: rules.GreaterThan, Value: 40}, true},
		{"numeric op on non-numeric value", rules.Condition{Attribute: "volume", Operator: rules.GreaterThan, Value: 1}, false},
		{"numeric op with non-numeric operand", rules.Condition{Attribute: "frequency", Operator: rules.GreaterThan, Value: "many"}, false},
		{"numeric op on boolean", rules.Condition{Attribute: "digital", Operator: rules.LessThan, Value: 1}, false},
		{"contains substring", rules.Condition{Attribute: "notes", Operator: rules.Contains, Value: "Re-Keying"}, true},
		{"contains list membership", rules.Condition{Attribute: "systems", Operator: rules.Contains, Value: "sap"}, true},
		{"contains list miss", rules.Condition{Attribute: "systems", Operator: rules.Contains, Value: "Salesforce"}, false},
		{"contains on number", rules.Condition{Attribute: "frequency", Operator: rules.Contains, Value: "1"}, false},
		{"in list", rules.Condition{Attribute: "volume", Operator: rules.In, Value: []any{"medium", "high"}}, true},
		{"in list miss", rules.Condition{Attribute: "volume", Operator: rules.In, Value: []string{"low"}}, false},
		{"in numeric list", rules.Condition{Attribute: "frequency", Operator: rules.In, Value: []any{60.0, 120.0}}, true},
		{"in list value overlap", rules.Condition{Attribute: "systems", Operator: rules.In, Value: []string{"outlook"}}, true},
		{"in scalar operand", rules.Condition{Attribute: "volume", Operator: rules.In, Value: "high"}, false},
		{"unknown operator", rules.Condition{Attribute: "volume", Operator: "matches", Value: "high"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rules.EvaluateCondition(tt.cond, vals); got != tt.want {
				t.Errorf("EvaluateCondition(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluateConditionMissingAttributeFailsClosed(t *testing.T) {
	operators := []struct {
		op    rules.Operator
		value any
	}{
		{rules.Equals, "x"},
		{rules.NotEquals, "x"},
		{rules.GreaterThan, 1},
		{rules.LessThan, 1},
		{rules.GreaterOrEqual, 1},
		{rules.LessOrEqual, 1},
		{rules.Contains, "x"},
		{rules.In, []any{"x"}},
	}

	empty := rules.Values{}
	nilValue := rules.Values{"risk": rules.ExtractedValue{Confidence: 0.4}}

	for _, tt := range operators {
		t.Run(string(tt.op), func(t *testing.T) {
			cond := rules.Condition{Attribute: "risk", Operator: tt.op, Value: tt.value}
			if rules.EvaluateCondition(cond, empty) {
				t.Errorf("%s on missing attribute evaluated true", tt.op)
			}
			if rules.EvaluateCondition(cond, nilValue) {
				t.Errorf("%s on nil value evaluated true", tt.op)
			}
		})
	}
}

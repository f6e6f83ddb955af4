package rules_test

import (
	"io"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

func newEvaluator() *rules.Evaluator {
	return rules.NewEvaluator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testMatrix(rs ...rules.Rule) *rules.Matrix {
	return &rules.Matrix{
		Version: "1",
		Attributes: []rules.Attribute{
			{Name: "volume", Type: rules.Categorical, Weight: 0.6, PossibleValues: []string{"low", "medium", "high"}},
			{Name: "risk", Type: rules.Categorical, Weight: 0.4, PossibleValues: []string{"low", "high"}},
			{Name: "judgement", Type: rules.Boolean, Weight: 0.5},
		},
		Rules:  rs,
		Active: true,
	}
}

func when(attribute, value string) []rules.Condition {
	return []rules.Condition{{Attribute: attribute, Operator: rules.Equals, Value: value}}
}

func baseline() taxonomy.Classification {
	return taxonomy.Classification{
		Category:   taxonomy.Digitise,
		Confidence: 0.82,
		Rationale:  "forms are paper based",
	}
}

func TestEvaluateLastOverrideWins(t *testing.T) {
	m := testMatrix(
		rules.Rule{
			ID:         "R1",
			Name:       "high volume",
			Priority:   100,
			Active:     true,
			Conditions: when("volume", "high"),
			Action:     rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.RPA, Rationale: "repetitive"},
		},
		rules.Rule{
			ID:         "R2",
			Name:       "low risk",
			Priority:   10,
			Active:     true,
			Conditions: when("risk", "low"),
			Action:     rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.Simplify, Rationale: "simplify first"},
		},
	)

	vals := values(map[string]rules.Value{
		"volume": rules.CategoricalValue("high"),
		"risk":   rules.CategoricalValue("low"),
	})

	eval := newEvaluator().Evaluate(m, baseline(), vals)

	if eval.Final.Category != taxonomy.Simplify {
		t.Errorf("final category = %s, want %s", eval.Final.Category, taxonomy.Simplify)
	}
	if got := eval.RuleIDs(); !reflect.DeepEqual(got, []string{"R1", "R2"}) {
		t.Errorf("triggered = %v, want [R1 R2]", got)
	}
	if eval.Original.Category != taxonomy.Digitise {
		t.Errorf("original category mutated to %s", eval.Original.Category)
	}
	if eval.TriggeredRules[1].Effect != "category RPA -> Simplify" {
		t.Errorf("effect = %q", eval.TriggeredRules[1].Effect)
	}
}

func TestEvaluateConfidenceClamped(t *testing.T) {
	boost := func(id string) rules.Rule {
		return rules.Rule{
			ID:         id,
			Name:       id,
			Priority:   1,
			Active:     true,
			Conditions: when("volume", "high"),
			Action:     rules.RuleAction{Type: rules.AdjustConfidence, Delta: 0.2, Rationale: id},
		}
	}
	m := testMatrix(boost("A"), boost("B"), boost("C"))
	vals := values(map[string]rules.Value{"volume": rules.CategoricalValue("high")})

	base := baseline()
	base.Confidence = 0.9

	eval := newEvaluator().Evaluate(m, base, vals)
	if eval.Final.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", eval.Final.Confidence)
	}

	penalty := testMatrix(rules.Rule{
		ID:         "P",
		Name:       "P",
		Active:     true,
		Conditions: when("volume", "high"),
		Action:     rules.RuleAction{Type: rules.AdjustConfidence, Delta: -1, Rationale: "penalty"},
	})
	eval = newEvaluator().Evaluate(penalty, base, vals)
	if eval.Final.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", eval.Final.Confidence)
	}
}

func TestEvaluateRationaleConcatenation(t *testing.T) {
	m := testMatrix(
		rules.Rule{
			ID:         "low",
			Name:       "low",
			Priority:   1,
			Active:     true,
			Conditions: when("volume", "high"),
			Action:     rules.RuleAction{Type: rules.AdjustConfidence, Delta: 0.05, Rationale: "second"},
		},
		rules.Rule{
			ID:         "high",
			Name:       "high",
			Priority:   5,
			Active:     true,
			Conditions: when("volume", "high"),
			Action:     rules.RuleAction{Type: rules.AdjustConfidence, Delta: 0.05, Rationale: "first"},
		},
	)
	vals := values(map[string]rules.Value{"volume": rules.CategoricalValue("high")})

	eval := newEvaluator().Evaluate(m, baseline(), vals)

	want := "forms are paper based\nfirst\nsecond"
	if eval.Final.Rationale != want {
		t.Errorf("rationale = %q, want %q", eval.Final.Rationale, want)
	}
}

func TestEvaluateStableForEqualPriority(t *testing.T) {
	m := testMatrix(
		rules.Rule{
			ID:         "first",
			Name:       "first",
			Priority:   50,
			Active:     true,
			Conditions: when("volume", "high"),
			Action:     rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.AIAgent},
		},
		rules.Rule{
			ID:         "second",
			Name:       "second",
			Priority:   50,
			Active:     true,
			Conditions: when("volume", "high"),
			Action:     rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.AgenticAI},
		},
	)
	vals := values(map[string]rules.Value{"volume": rules.CategoricalValue("high")})

	for range 20 {
		eval := newEvaluator().Evaluate(m, baseline(), vals)
		if got := eval.RuleIDs(); !reflect.DeepEqual(got, []string{"first", "second"}) {
			t.Fatalf("triggered = %v, want [first second]", got)
		}
		if eval.Final.Category != taxonomy.AgenticAI {
			t.Fatalf("final = %s, want %s", eval.Final.Category, taxonomy.AgenticAI)
		}
	}
}

func TestEvaluateSkipsInactiveAndUnknown(t *testing.T) {
	m := testMatrix(
		rules.Rule{
			ID:         "inactive",
			Name:       "inactive",
			Priority:   10,
			Active:     false,
			Conditions: when("volume", "high"),
			Action:     rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.Eliminate},
		},
		rules.Rule{
			ID:         "unknown",
			Name:       "unknown",
			Priority:   9,
			Active:     true,
			Conditions: when("headcount", "10"),
			Action:     rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.Eliminate},
		},
		rules.Rule{
			ID:       "empty",
			Name:     "empty",
			Priority: 8,
			Active:   true,
			Action:   rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.Eliminate},
		},
		rules.Rule{
			ID:       "partial",
			Name:     "partial",
			Priority: 7,
			Active:   true,
			Conditions: []rules.Condition{
				{Attribute: "volume", Operator: rules.Equals, Value: "high"},
				{Attribute: "risk", Operator: rules.Equals, Value: "high"},
			},
			Action: rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.Eliminate},
		},
	)
	vals := values(map[string]rules.Value{
		"volume":    rules.CategoricalValue("high"),
		"risk":      rules.CategoricalValue("low"),
		"headcount": rules.CategoricalValue("10"),
	})

	eval := newEvaluator().Evaluate(m, baseline(), vals)

	if len(eval.TriggeredRules) != 0 {
		t.Errorf("triggered = %v, want none", eval.RuleIDs())
	}
	if eval.Final.Category != taxonomy.Digitise || eval.Final.Confidence != 0.82 {
		t.Errorf("final = %+v, want unchanged baseline", eval.Final)
	}
}

func TestEvaluatePurchaseOrderScenario(t *testing.T) {
	m := testMatrix(rules.Rule{
		ID:       "high-volume-low-risk",
		Name:     "High volume, low risk",
		Priority: 100,
		Active:   true,
		Conditions: []rules.Condition{
			{Attribute: "volume", Operator: rules.Equals, Value: "high"},
			{Attribute: "risk", Operator: rules.Equals, Value: "low"},
		},
		Action: rules.RuleAction{
			Type:           rules.Override,
			TargetCategory: taxonomy.RPA,
			Rationale:      "High-volume, low-risk, rules-based work suits RPA.",
		},
	})
	vals := values(map[string]rules.Value{
		"volume": rules.CategoricalValue("high"),
		"risk":   rules.CategoricalValue("low"),
	})

	eval := newEvaluator().Evaluate(m, baseline(), vals)

	if eval.Final.Category != taxonomy.RPA {
		t.Errorf("final = %s, want RPA", eval.Final.Category)
	}
	if len(eval.TriggeredRules) != 1 {
		t.Errorf("triggered %d rules, want 1", len(eval.TriggeredRules))
	}
	if !strings.Contains(eval.Final.Rationale, "suits RPA") {
		t.Errorf("rationale missing rule text: %q", eval.Final.Rationale)
	}
	want := (0.6 + 0.4) / (0.6 + 0.4 + 0.5)
	if math.Abs(eval.AttributeCoverage-want) > 1e-9 {
		t.Errorf("coverage = %v, want %v", eval.AttributeCoverage, want)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	m := testMatrix(
		rules.Rule{
			ID:         "a",
			Name:       "a",
			Priority:   3,
			Active:     true,
			Conditions: when("volume", "high"),
			Action:     rules.RuleAction{Type: rules.AdjustConfidence, Delta: 0.1, Rationale: "a"},
		},
		rules.Rule{
			ID:         "b",
			Name:       "b",
			Priority:   3,
			Active:     true,
			Conditions: []rules.Condition{{Attribute: "judgement", Operator: rules.Equals, Value: false}},
			Action:     rules.RuleAction{Type: rules.Override, TargetCategory: taxonomy.RPA, Rationale: "b"},
		},
	)
	vals := values(map[string]rules.Value{
		"volume":    rules.CategoricalValue("high"),
		"judgement": rules.BooleanValue(false),
	})

	first := newEvaluator().Evaluate(m, baseline(), vals)
	for range 10 {
		next := newEvaluator().Evaluate(m, baseline(), vals)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("evaluation differs:\n%+v\n%+v", first, next)
		}
	}
}

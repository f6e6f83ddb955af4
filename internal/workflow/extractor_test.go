package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

func TestExtractorRetriesWithCorrection(t *testing.T) {
	fake := &fakeExtractor{replies: []extractReply{
		{values: map[string]workflow.RawAttribute{
			"volume": {Value: "enormous", Confidence: 0.9},
			"colour": {Value: "blue", Confidence: 0.5},
		}},
		{values: map[string]workflow.RawAttribute{
			"volume": {Value: "High", Confidence: 1.4},
			"risk":   {Value: "low", Confidence: 0.7},
		}},
	}}

	e := workflow.NewExtractor(fake, testOptions(), discardLogger())
	values, err := e.Extract(context.Background(), "desc", nil, purchaseOrderMatrix().Attributes)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if len(fake.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(fake.requests))
	}
	if fake.requests[0].Correction != "" {
		t.Error("first request should carry no correction")
	}
	if fake.requests[1].Correction == "" {
		t.Error("retry should carry a corrective instruction")
	}

	if v, ok := values.Lookup("volume"); !ok || v != rules.CategoricalValue("high") {
		t.Errorf("volume = %v, want high", v)
	}
	if values["volume"].Confidence != 1 {
		t.Errorf("confidence = %v, want clamped to 1", values["volume"].Confidence)
	}
	if _, ok := values.Lookup("colour"); ok {
		t.Error("unknown attribute should be dropped")
	}
}

func TestExtractorReturnsPartialValues(t *testing.T) {
	invalid := extractReply{values: map[string]workflow.RawAttribute{
		"volume": {Value: "high", Confidence: 0.9},
		"risk":   {Value: 42, Confidence: 0.9},
	}}
	fake := &fakeExtractor{replies: []extractReply{invalid, invalid}}

	e := workflow.NewExtractor(fake, testOptions(), discardLogger())
	values, err := e.Extract(context.Background(), "desc", nil, purchaseOrderMatrix().Attributes)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}

	if len(fake.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(fake.requests))
	}
	if _, ok := values.Lookup("volume"); !ok {
		t.Error("valid attribute missing from partial result")
	}
	if _, ok := values.Lookup("risk"); ok {
		t.Error("invalid attribute present in partial result")
	}
}

func TestExtractorMalformedTwiceIsEmpty(t *testing.T) {
	fake := &fakeExtractor{replies: []extractReply{{err: workflow.ErrMalformedOutput}}}

	e := workflow.NewExtractor(fake, testOptions(), discardLogger())
	values, err := e.Extract(context.Background(), "desc", nil, purchaseOrderMatrix().Attributes)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("values = %v, want empty", values)
	}
	if len(fake.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(fake.requests))
	}
}

func TestExtractorUnavailable(t *testing.T) {
	fake := &fakeExtractor{replies: []extractReply{{err: errors.New("503")}}}

	e := workflow.NewExtractor(fake, testOptions(), discardLogger())
	_, err := e.Extract(context.Background(), "desc", nil, purchaseOrderMatrix().Attributes)
	if !errors.Is(err, workflow.ErrExtraction) {
		t.Errorf("Extract() err = %v, want ErrExtraction", err)
	}
	if len(fake.requests) != 3 {
		t.Errorf("requests = %d, want 3 attempts", len(fake.requests))
	}
}

func TestExtractorNullValuesAreAbsent(t *testing.T) {
	fake := &fakeExtractor{replies: []extractReply{{values: map[string]workflow.RawAttribute{
		"volume": {Value: nil, Confidence: 0},
		"risk":   {Value: "medium", Confidence: 0.6},
	}}}}

	e := workflow.NewExtractor(fake, testOptions(), discardLogger())
	values, err := e.Extract(context.Background(), "desc", nil, purchaseOrderMatrix().Attributes)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if len(fake.requests) != 1 {
		t.Errorf("requests = %d, want 1", len(fake.requests))
	}
	if _, ok := values.Lookup("volume"); ok {
		t.Error("null value should be absent")
	}
}

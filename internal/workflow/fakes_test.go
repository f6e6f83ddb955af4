package workflow_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() workflow.Options {
	opts := workflow.DefaultOptions()
	opts.Retry = workflow.RetryPolicy{
		Timeout:         time.Second,
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
	opts.Model = workflow.ModelConfig{Provider: "fake", Name: "fake-model"}
	return opts
}

type classifyReply struct {
	baseline workflow.Baseline
	err      error
}

// fakeClassifier replays its replies in order, repeating the last one.
type fakeClassifier struct {
	mu       sync.Mutex
	replies  []classifyReply
	requests []workflow.ClassifyRequest
}

func (f *fakeClassifier) Classify(_ context.Context, req workflow.ClassifyRequest) (workflow.Baseline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	i := min(len(f.requests), len(f.replies)) - 1
	return f.replies[i].baseline, f.replies[i].err
}

func (f *fakeClassifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func baseline(category taxonomy.Category, confidence float64, action workflow.Action) classifyReply {
	return classifyReply{baseline: workflow.Baseline{
		Classification: taxonomy.Classification{
			Category:   category,
			Confidence: confidence,
			Rationale:  "baseline for " + string(category),
		},
		Action: action,
	}}
}

type questionReply struct {
	questions []string
	err       error
}

type fakeQuestions struct {
	mu       sync.Mutex
	replies  []questionReply
	requests []workflow.QuestionRequest
}

func (f *fakeQuestions) GenerateQuestions(_ context.Context, req workflow.QuestionRequest) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	i := min(len(f.requests), len(f.replies)) - 1
	return f.replies[i].questions, f.replies[i].err
}

// sequenceQuestions hands out distinct questions from a fixed pool.
type sequenceQuestions struct {
	mu   sync.Mutex
	pool []string
	next int
}

func (f *sequenceQuestions) GenerateQuestions(_ context.Context, req workflow.QuestionRequest) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, req.Max+1)
	for range req.Max + 1 {
		out = append(out, f.pool[f.next%len(f.pool)])
		f.next++
	}
	return out, nil
}

type extractReply struct {
	values map[string]workflow.RawAttribute
	err    error
}

type fakeExtractor struct {
	mu       sync.Mutex
	replies  []extractReply
	requests []workflow.ExtractRequest
}

func (f *fakeExtractor) ExtractAttributes(_ context.Context, req workflow.ExtractRequest) (map[string]workflow.RawAttribute, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.replies) == 0 {
		return map[string]workflow.RawAttribute{}, nil
	}
	i := min(len(f.requests), len(f.replies)) - 1
	return f.replies[i].values, f.replies[i].err
}

func (f *fakeExtractor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeSummarizer struct {
	mu       sync.Mutex
	requests []workflow.SummarizeRequest
}

func (f *fakeSummarizer) Summarize(_ context.Context, req workflow.SummarizeRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	return "summary of earlier answers", nil
}

type fakeMatrices struct {
	matrix *rules.Matrix
	err    error
}

func (f *fakeMatrices) LatestMatrix(context.Context) (*rules.Matrix, error) {
	return f.matrix, f.err
}

type fakeAudit struct {
	mu     sync.Mutex
	events []workflow.Event
}

func (f *fakeAudit) Record(_ context.Context, e workflow.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeAudit) kinds() []workflow.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()

	kinds := make([]workflow.EventKind, len(f.events))
	for i, e := range f.events {
		kinds[i] = e.Kind
	}
	return kinds
}

type redactingScrubber struct{}

func (redactingScrubber) Scrub(text string) (string, bool) {
	clean := strings.ReplaceAll(text, "jane@example.com", "[email]")
	return clean, clean != text
}

func purchaseOrderMatrix() *rules.Matrix {
	return &rules.Matrix{
		Version: "3",
		Attributes: []rules.Attribute{
			{Name: "volume", Type: rules.Categorical, Weight: 0.5, PossibleValues: []string{"low", "medium", "high"}},
			{Name: "risk", Type: rules.Categorical, Weight: 0.5, PossibleValues: []string{"low", "medium", "high"}},
		},
		Rules: []rules.Rule{
			{
				ID:       "R-rpa",
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
					Rationale:      "Repetitive, low-risk work suits RPA.",
				},
			},
		},
		Active: true,
	}
}

func highVolumeLowRisk() extractReply {
	return extractReply{values: map[string]workflow.RawAttribute{
		"volume": {Value: "high", Confidence: 0.9, SourceSpan: "2,000 purchase orders a month"},
		"risk":   {Value: "low", Confidence: 0.8},
	}}
}

package workflow_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

func sessionWithTurns(n int) workflow.Session {
	s := workflow.NewSession("Approve supplier onboarding.")
	for i := range n {
		s.Turns = append(s.Turns, workflow.Turn{
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
		})
	}
	return s
}

func TestCompressKeepsRecentTurnsVerbatim(t *testing.T) {
	summarizer := &fakeSummarizer{}
	c := workflow.NewController(&fakeQuestions{}, summarizer, nil, testOptions(), discardLogger())

	s := sessionWithTurns(7)
	c.Compress(context.Background(), &s)

	if s.SummarizedTurns != 2 || s.Summary == "" {
		t.Fatalf("summarized = %d, summary = %q", s.SummarizedTurns, s.Summary)
	}
	if len(summarizer.requests) != 1 || len(summarizer.requests[0].Turns) != 2 {
		t.Fatalf("summarize requests = %+v", summarizer.requests)
	}

	tr := c.Transcript(&s)
	if len(tr.Turns) != 5 || tr.Turns[0].Question != "question 2" {
		t.Errorf("transcript turns = %+v", tr.Turns)
	}

	c.Compress(context.Background(), &s)
	if len(summarizer.requests) != 1 {
		t.Error("compression should not repeat without new turns")
	}
}

func TestCompressSkippedAtThreshold(t *testing.T) {
	summarizer := &fakeSummarizer{}
	c := workflow.NewController(&fakeQuestions{}, summarizer, nil, testOptions(), discardLogger())

	s := sessionWithTurns(5)
	c.Compress(context.Background(), &s)

	if len(summarizer.requests) != 0 || s.SummarizedTurns != 0 {
		t.Error("five turns should not be compressed")
	}
}

func TestPlanDeduplicatesWithinRound(t *testing.T) {
	questions := &fakeQuestions{replies: []questionReply{{questions: []string{
		"What volume is processed monthly?",
		"What volume is processed monthly??",
		"Who owns the process?",
	}}}}
	c := workflow.NewController(questions, nil, nil, testOptions(), discardLogger())

	s := workflow.NewSession("Process invoices.")
	plan, err := c.Plan(context.Background(), &s, workflow.Baseline{
		Classification: taxonomy.Classification{Category: taxonomy.Digitise, Confidence: 0.5},
		Action:         workflow.ActionClarify,
	})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}

	if plan.State != workflow.ClarifyAwaiting || len(plan.Questions) != 2 {
		t.Errorf("plan = %+v, want 2 awaiting questions", plan)
	}
	if questions.requests[0].Max != 3 {
		t.Errorf("requested max = %d, want 3", questions.requests[0].Max)
	}
}

func TestPlanAtTurnCap(t *testing.T) {
	questions := &fakeQuestions{replies: []questionReply{{questions: []string{"Anything else?"}}}}
	c := workflow.NewController(questions, nil, nil, testOptions(), discardLogger())

	s := sessionWithTurns(15)
	plan, err := c.Plan(context.Background(), &s, workflow.Baseline{Action: workflow.ActionClarify})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if plan.State != workflow.ClarifyForced || plan.Reason != workflow.ForceTurnCap {
		t.Errorf("plan = %+v, want forced turn_cap", plan)
	}
	if len(questions.requests) != 0 {
		t.Error("generator should not be called at the cap")
	}
}

func TestPlanMalformedQuestionsForce(t *testing.T) {
	questions := &fakeQuestions{replies: []questionReply{{err: workflow.ErrMalformedOutput}}}
	c := workflow.NewController(questions, nil, nil, testOptions(), discardLogger())

	s := workflow.NewSession("Process invoices.")
	plan, err := c.Plan(context.Background(), &s, workflow.Baseline{Action: workflow.ActionClarify})
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if plan.State != workflow.ClarifyForced || plan.Reason != workflow.ForceNoQuestions {
		t.Errorf("plan = %+v, want forced no_questions", plan)
	}
	if len(questions.requests) != 2 {
		t.Errorf("requests = %d, want 2", len(questions.requests))
	}
}

func TestSessionCloneIsIndependent(t *testing.T) {
	s := sessionWithTurns(2)
	s.Pending = []string{"pending?"}
	s.Baseline = &workflow.Baseline{Classification: taxonomy.Classification{
		Category:            taxonomy.RPA,
		FutureOpportunities: []string{"agent"},
	}}

	c := s.Clone()
	c.Turns[0].Answer = "changed"
	c.Pending[0] = "changed"
	c.Baseline.FutureOpportunities[0] = "changed"

	if s.Turns[0].Answer == "changed" || s.Pending[0] == "changed" || s.Baseline.FutureOpportunities[0] == "changed" {
		t.Error("clone shares state with original")
	}
}

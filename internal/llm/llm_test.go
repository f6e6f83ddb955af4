package llm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/JaimeStill/pathfinder/internal/llm"
	"github.com/JaimeStill/pathfinder/internal/prompts"
	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubPrompts struct{}

func (stubPrompts) Instructions(_ context.Context, stage prompts.Stage) (string, error) {
	if _, err := prompts.ParseStage(string(stage)); err != nil {
		return "", err
	}
	return string(stage) + " instructions", nil
}

func (stubPrompts) Spec(_ context.Context, stage prompts.Stage) (string, error) {
	return string(stage) + " spec", nil
}

// scriptedClient answers by stage, inferred from the system prompt.
type scriptedClient struct {
	mu      sync.Mutex
	replies map[prompts.Stage][]string
	prompts []llm.Prompt
	err     error
}

func (c *scriptedClient) Complete(_ context.Context, p llm.Prompt) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prompts = append(c.prompts, p)
	if c.err != nil {
		return "", c.err
	}

	for stage, queue := range c.replies {
		if strings.HasPrefix(p.System, string(stage)+" instructions") && len(queue) > 0 {
			reply := queue[0]
			if len(queue) > 1 {
				c.replies[stage] = queue[1:]
			}
			return reply, nil
		}
	}
	return "", errors.New("no scripted reply")
}

func (c *scriptedClient) last() llm.Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompts[len(c.prompts)-1]
}

func TestClassify(t *testing.T) {
	client := &scriptedClient{replies: map[prompts.Stage][]string{
		prompts.StageClassify: {"```json\n" + `{
			"category": "digitize",
			"confidence": 0.55,
			"rationale": "Paper forms are re-keyed.",
			"action": "ask_more",
			"category_progression": "Digitise, then RPA once volumes stabilise.",
			"future_opportunities": ["invoice matching"]
		}` + "\n```"},
	}}
	caps := llm.New(client, stubPrompts{}, discardLogger())

	b, err := caps.Classify(context.Background(), workflow.ClassifyRequest{
		Description: "Staff re-key 2,000 purchase orders a month.",
		Transcript: workflow.Transcript{
			Summary: "Orders arrive by post.",
			Turns:   []workflow.Turn{{Question: "Which system?", Answer: "SAP"}},
		},
	})
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}

	if b.Category != taxonomy.Digitise || b.Confidence != 0.55 {
		t.Errorf("baseline = %+v", b)
	}
	if b.Action != workflow.ActionClarify {
		t.Errorf("action = %s, want unknown action mapped to clarify", b.Action)
	}
	if b.CategoryProgression == "" || len(b.FutureOpportunities) != 1 {
		t.Errorf("progression fields not mapped: %+v", b.Classification)
	}

	p := client.last()
	if p.System != "classify instructions\n\nclassify spec" {
		t.Errorf("system = %q", p.System)
	}
	for _, want := range []string{"2,000 purchase orders", "Orders arrive by post.", "Q: Which system?\nA: SAP"} {
		if !strings.Contains(p.User, want) {
			t.Errorf("user message missing %q:\n%s", want, p.User)
		}
	}
}

func TestMalformedResponses(t *testing.T) {
	tests := []struct {
		name  string
		stage prompts.Stage
		reply string
		call  func(*llm.Capabilities) error
	}{
		{
			name:  "unknown category",
			stage: prompts.StageClassify,
			reply: `{"category":"Blockchain","confidence":0.9,"rationale":"x","action":"auto_classify"}`,
			call: func(c *llm.Capabilities) error {
				_, err := c.Classify(context.Background(), workflow.ClassifyRequest{Description: "d"})
				return err
			},
		},
		{
			name:  "missing rationale",
			stage: prompts.StageClassify,
			reply: `{"category":"RPA","confidence":0.9,"action":"auto_classify"}`,
			call: func(c *llm.Capabilities) error {
				_, err := c.Classify(context.Background(), workflow.ClassifyRequest{Description: "d"})
				return err
			},
		},
		{
			name:  "prose instead of json",
			stage: prompts.StageClarify,
			reply: "Here are some questions you could ask.",
			call: func(c *llm.Capabilities) error {
				_, err := c.GenerateQuestions(context.Background(), workflow.QuestionRequest{Description: "d", Max: 3})
				return err
			},
		},
		{
			name:  "missing questions",
			stage: prompts.StageClarify,
			reply: `{"qs":["a?"]}`,
			call: func(c *llm.Capabilities) error {
				_, err := c.GenerateQuestions(context.Background(), workflow.QuestionRequest{Description: "d", Max: 3})
				return err
			},
		},
		{
			name:  "empty summary",
			stage: prompts.StageSummarize,
			reply: `{"summary":""}`,
			call: func(c *llm.Capabilities) error {
				_, err := c.Summarize(context.Background(), workflow.SummarizeRequest{})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &scriptedClient{replies: map[prompts.Stage][]string{tt.stage: {tt.reply}}}
			err := tt.call(llm.New(client, stubPrompts{}, discardLogger()))
			if !errors.Is(err, workflow.ErrMalformedOutput) {
				t.Errorf("err = %v, want ErrMalformedOutput", err)
			}
		})
	}
}

func TestExtractAttributes(t *testing.T) {
	client := &scriptedClient{replies: map[prompts.Stage][]string{
		prompts.StageExtract: {`{"attributes":{
			"volume":{"value":"high","confidence":0.9,"source_span":"2,000 a month"},
			"risk":{"value":null,"confidence":0}
		}}`},
	}}
	caps := llm.New(client, stubPrompts{}, discardLogger())

	got, err := caps.ExtractAttributes(context.Background(), workflow.ExtractRequest{
		Description: "d",
		Attributes: []rules.Attribute{
			{Name: "volume", Type: rules.Categorical, PossibleValues: []string{"low", "high"}},
			{Name: "risk", Type: rules.Categorical, PossibleValues: []string{"low", "high"}, Description: "Operational risk"},
		},
		Correction: "risk must be one of low, high",
	})
	if err != nil {
		t.Fatalf("ExtractAttributes() error: %v", err)
	}

	if got["volume"].Value != "high" || got["volume"].SourceSpan != "2,000 a month" {
		t.Errorf("volume = %+v", got["volume"])
	}
	if got["risk"].Value != nil {
		t.Errorf("risk = %+v, want null value", got["risk"])
	}

	user := client.last().User
	for _, want := range []string{"- volume (categorical) one of: low, high", "Operational risk", "Correction:\nrisk must be"} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q:\n%s", want, user)
		}
	}
}

func TestGenerateQuestionsRendersContext(t *testing.T) {
	client := &scriptedClient{replies: map[prompts.Stage][]string{
		prompts.StageClarify: {`{"questions":["How many exceptions occur weekly?"]}`},
	}}
	caps := llm.New(client, stubPrompts{}, discardLogger())

	qs, err := caps.GenerateQuestions(context.Background(), workflow.QuestionRequest{
		Description: "d",
		Classification: taxonomy.Classification{
			Category:   taxonomy.RPA,
			Confidence: 0.6,
			Rationale:  "rule based",
		},
		Asked: []string{"Which system?"},
		Max:   2,
	})
	if err != nil {
		t.Fatalf("GenerateQuestions() error: %v", err)
	}
	if len(qs) != 1 {
		t.Errorf("questions = %v", qs)
	}

	user := client.last().User
	for _, want := range []string{"RPA (confidence 0.60): rule based", "- Which system?", "Maximum questions:\n2"} {
		if !strings.Contains(user, want) {
			t.Errorf("user message missing %q:\n%s", want, user)
		}
	}
}

type fakeChatModel struct {
	reply *schema.Message
	err   error
	input []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.input = input
	return f.reply, f.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestEinoClient(t *testing.T) {
	m := &fakeChatModel{reply: schema.AssistantMessage(`{"summary":"ok"}`, nil)}
	client := llm.NewEinoClient(m)

	got, err := client.Complete(context.Background(), llm.Prompt{System: "sys", User: "usr"})
	if err != nil {
		t.Fatalf("Complete() error: %v", err)
	}
	if got != `{"summary":"ok"}` {
		t.Errorf("Complete() = %q", got)
	}
	if len(m.input) != 2 || m.input[0].Role != schema.System || m.input[1].Content != "usr" {
		t.Errorf("messages = %+v", m.input)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantRejected bool
	}{
		{"unauthorized", errors.New("request failed: status code 401"), true},
		{"status label", errors.New("error, status_code=422, message: bad schema"), true},
		{"azure response", errors.New("RESPONSE 403: 403 Forbidden"), true},
		{"reason phrase", errors.New(`POST "https://api.example.com/v1/chat": 401 Unauthorized`), true},
		{"content filter", errors.New("finish_reason: content_filter"), true},
		{"server error", errors.New("status code 503: overloaded"), false},
		{"4xx digits in url", errors.New(`POST "https://host/v1/400/chat": 503 Service Unavailable`), false},
		{"4xx digits in body", errors.New("status code 500: prompt of 422 tokens failed"), false},
		{"throttled", errors.New("status code 429"), false},
		{"timeout", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llm.NewEinoClient(&fakeChatModel{err: tt.err})
			_, err := client.Complete(context.Background(), llm.Prompt{})

			if got := errors.Is(err, workflow.ErrCapabilityRejected); got != tt.wantRejected {
				t.Errorf("rejected = %v, want %v (err %v)", got, tt.wantRejected, err)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("err = %v, does not wrap original", err)
			}
		})
	}
}

func TestNewClientUnsupported(t *testing.T) {
	_, err := llm.NewClient(context.Background(), llm.Config{Backend: "carrier-pigeon"})
	if !errors.Is(err, llm.ErrUnsupportedBackend) {
		t.Errorf("err = %v, want ErrUnsupportedBackend", err)
	}

	_, err = llm.NewClient(context.Background(), llm.Config{
		Backend: llm.BackendEino,
		Eino:    llm.EinoConfig{Provider: "bard"},
	})
	if !errors.Is(err, llm.ErrUnsupportedBackend) {
		t.Errorf("err = %v, want ErrUnsupportedBackend", err)
	}
}

func TestRouterOverCapabilities(t *testing.T) {
	client := &scriptedClient{replies: map[prompts.Stage][]string{
		prompts.StageClassify: {
			`{"category":"Digitise","confidence":0.55,"rationale":"manual re-keying","action":"clarify"}`,
			`{"category":"RPA","confidence":0.82,"rationale":"stable rules, high volume","action":"auto_classify"}`,
		},
		prompts.StageClarify: {`{"questions":["How many orders per month?","Do the rules change often?"]}`},
	}}
	caps := llm.New(client, stubPrompts{}, discardLogger())

	opts := workflow.DefaultOptions()
	router := workflow.NewRouter(caps.Workflow(), nil, nil, nil, opts, discardLogger())

	s, out, err := router.Submit(context.Background(), "Staff re-key purchase orders into SAP.")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if out.Phase != workflow.PhaseClarifying || len(out.Questions) != 2 {
		t.Fatalf("outcome = %+v", out)
	}

	s, out, err = router.Respond(context.Background(), s, []string{"2,000", "Rarely"})
	if err != nil {
		t.Fatalf("Respond() error: %v", err)
	}
	if out.Phase != workflow.PhaseCompleted || s.Result.Classification.Category != taxonomy.RPA {
		t.Errorf("outcome = %+v", out)
	}
}

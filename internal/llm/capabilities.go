package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JaimeStill/pathfinder/internal/prompts"
	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

// Capabilities implements the workflow capability interfaces over a Client.
type Capabilities struct {
	client  Client
	prompts PromptSource
	logger  *slog.Logger
}

// New creates Capabilities that compose prompts from source and send them through client.
func New(client Client, source PromptSource, logger *slog.Logger) *Capabilities {
	return &Capabilities{
		client:  client,
		prompts: source,
		logger:  logger.With("system", "llm"),
	}
}

// Workflow returns c as the capability bundle the workflow router consumes.
func (c *Capabilities) Workflow() workflow.Capabilities {
	return workflow.Capabilities{
		Classifier: c,
		Questions:  c,
		Extractor:  c,
		Summarizer: c,
	}
}

func (c *Capabilities) Classify(ctx context.Context, req workflow.ClassifyRequest) (workflow.Baseline, error) {
	var m message
	m.section("Process description", req.Description)
	m.section("Summary of earlier answers", req.Transcript.Summary)
	m.section("Clarification answers", renderTurns(req.Transcript.Turns))

	resp, err := call[classifyResponse](ctx, c, prompts.StageClassify, req.Model, m.String())
	if err != nil {
		return workflow.Baseline{}, err
	}

	return workflow.Baseline{
		Classification: taxonomy.Classification{
			Category:            resp.Category,
			Confidence:          resp.Confidence,
			Rationale:           strings.TrimSpace(resp.Rationale),
			CategoryProgression: strings.TrimSpace(resp.CategoryProgression),
			FutureOpportunities: resp.FutureOpportunities,
		},
		Action: action(resp.Action),
	}, nil
}

func (c *Capabilities) GenerateQuestions(ctx context.Context, req workflow.QuestionRequest) ([]string, error) {
	var m message
	m.section("Process description", req.Description)
	m.section("Current classification", fmt.Sprintf(
		"%s (confidence %.2f): %s",
		req.Classification.Category, req.Classification.Confidence, req.Classification.Rationale,
	))
	m.section("Summary of earlier answers", req.Transcript.Summary)
	m.section("Clarification answers", renderTurns(req.Transcript.Turns))
	m.section("Questions already asked", renderList(req.Asked))
	m.section("Maximum questions", fmt.Sprint(req.Max))

	resp, err := call[clarifyResponse](ctx, c, prompts.StageClarify, req.Model, m.String())
	if err != nil {
		return nil, err
	}
	return resp.Questions, nil
}

func (c *Capabilities) ExtractAttributes(ctx context.Context, req workflow.ExtractRequest) (map[string]workflow.RawAttribute, error) {
	var m message
	m.section("Process description", req.Description)
	m.section("Clarification answers", renderTurns(req.Turns))
	m.section("Attributes", renderAttributes(req.Attributes))
	m.section("Correction", req.Correction)

	resp, err := call[extractResponse](ctx, c, prompts.StageExtract, req.Model, m.String())
	if err != nil {
		return nil, err
	}
	return resp.Attributes, nil
}

func (c *Capabilities) Summarize(ctx context.Context, req workflow.SummarizeRequest) (string, error) {
	var m message
	m.section("Earlier summary", req.PriorSummary)
	m.section("New answers", renderTurns(req.Turns))

	resp, err := call[summarizeResponse](ctx, c, prompts.StageSummarize, req.Model, m.String())
	if err != nil {
		return "", err
	}
	return resp.Summary, nil
}

func call[T any](
	ctx context.Context,
	c *Capabilities,
	stage prompts.Stage,
	model workflow.ModelConfig,
	user string,
) (T, error) {
	var zero T

	system, err := ComposeSystem(ctx, c.prompts, stage)
	if err != nil {
		return zero, err
	}

	start := time.Now()
	content, err := c.client.Complete(ctx, Prompt{System: system, User: user})
	if err != nil {
		return zero, fmt.Errorf("%s: %w", stage, err)
	}

	c.logger.DebugContext(ctx, "model call complete",
		"stage", stage,
		"provider", model.Provider,
		"model", model.Name,
		"latency", time.Since(start),
	)

	resp, err := parse[T](content)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", stage, err)
	}
	return resp, nil
}

func renderAttributes(attrs []rules.Attribute) string {
	var b strings.Builder
	for i, a := range attrs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s (%s)", a.Name, a.Type)
		if len(a.PossibleValues) > 0 {
			fmt.Fprintf(&b, " one of: %s", strings.Join(a.PossibleValues, ", "))
		}
		if a.Description != "" {
			fmt.Fprintf(&b, ". %s", a.Description)
		}
	}
	return b.String()
}

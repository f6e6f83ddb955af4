package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/pathfinder/internal/prompts"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

// PromptSource supplies stage instructions and output specifications.
// prompts.System satisfies it.
type PromptSource interface {
	Instructions(ctx context.Context, stage prompts.Stage) (string, error)
	Spec(ctx context.Context, stage prompts.Stage) (string, error)
}

// ComposeSystem joins the effective instructions and the output spec for stage.
func ComposeSystem(ctx context.Context, source PromptSource, stage prompts.Stage) (string, error) {
	instructions, err := source.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load %s instructions: %w", stage, err)
	}

	spec, err := source.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load %s spec: %w", stage, err)
	}

	return instructions + "\n\n" + spec, nil
}

// message builds a user message from titled sections, skipping empty ones.
type message struct {
	b strings.Builder
}

func (m *message) section(title, body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	if m.b.Len() > 0 {
		m.b.WriteString("\n\n")
	}
	m.b.WriteString(title)
	m.b.WriteString(":\n")
	m.b.WriteString(body)
}

func (m *message) String() string {
	return m.b.String()
}

func renderTurns(turns []workflow.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Q: %s\nA: %s", t.Question, t.Answer)
	}
	return b.String()
}

func renderList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}

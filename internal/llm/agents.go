package llm

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

type agentsClient struct {
	agent agent.Agent
}

// NewAgentsClient creates a Client backed by a go-agents agent.
func NewAgentsClient(cfg *gaconfig.AgentConfig) (Client, error) {
	a, err := agent.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return &agentsClient{agent: a}, nil
}

// Complete sends the system and user text as one prompt; the agent's own
// system prompt is left to its config.
func (c *agentsClient) Complete(ctx context.Context, p Prompt) (string, error) {
	resp, err := c.agent.Chat(ctx, p.System+"\n\n"+p.User)
	if err != nil {
		return "", classifyError(fmt.Errorf("chat: %w", err))
	}
	return resp.Content(), nil
}

package llm

import (
	"context"
	"fmt"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// Config selects a backend and carries the settings each backend needs.
type Config struct {
	Backend Backend
	Agent   *gaconfig.AgentConfig
	Eino    EinoConfig
}

// NewClient creates the Client selected by cfg.Backend.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Backend {
	case BackendAgents, "":
		if cfg.Agent == nil {
			return nil, fmt.Errorf("agents backend: agent config required")
		}
		return NewAgentsClient(cfg.Agent)
	case BackendEino:
		m, err := NewEinoChatModel(ctx, cfg.Eino)
		if err != nil {
			return nil, err
		}
		return NewEinoClient(m), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}

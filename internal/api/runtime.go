package api

import (
	"fmt"

	"github.com/JaimeStill/pathfinder/internal/config"
	"github.com/JaimeStill/pathfinder/internal/infrastructure"
	"github.com/JaimeStill/pathfinder/internal/llm"
	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination        pagination.Config
	LLM               llm.Config
	Workflow          workflow.Options
	ReclassifyWorkers int
	MaxListSize       int32
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	llmCfg, err := cfg.Agent.LLM()
	if err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Lock:      infra.Lock,
		},
		Pagination:        cfg.API.Pagination,
		LLM:               llmCfg,
		Workflow:          cfg.Workflow.Options(cfg.Agent.ModelConfig()),
		ReclassifyWorkers: cfg.Workflow.ReclassifyWorkers,
		MaxListSize:       cfg.Storage.MaxListSize,
	}, nil
}

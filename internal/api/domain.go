package api

import (
	"fmt"

	"github.com/JaimeStill/pathfinder/internal/audit"
	"github.com/JaimeStill/pathfinder/internal/classifications"
	"github.com/JaimeStill/pathfinder/internal/conversations"
	"github.com/JaimeStill/pathfinder/internal/llm"
	"github.com/JaimeStill/pathfinder/internal/matrices"
	"github.com/JaimeStill/pathfinder/internal/prompts"
	"github.com/JaimeStill/pathfinder/internal/scrub"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Audit           audit.System
	Classifications classifications.System
	Conversations   conversations.System
	Matrices        matrices.System
	Prompts         prompts.System
	Router          *workflow.Router
}

// NewDomain creates all domain systems from the API runtime and binds the
// workflow router to the configured chat model.
func NewDomain(runtime *Runtime) (*Domain, error) {
	db := runtime.Database.Connection()

	promptsSystem := prompts.New(db, runtime.Logger, runtime.Pagination)
	matricesSystem := matrices.New(db, runtime.Storage, runtime.Logger, runtime.Pagination)
	classificationsSystem := classifications.New(db, runtime.Logger, runtime.Pagination)
	auditSystem := audit.New(db, runtime.Logger, runtime.Pagination)

	client, err := llm.NewClient(runtime.Lifecycle.Context(), runtime.LLM)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	capabilities := llm.New(client, promptsSystem, runtime.Logger)

	router := workflow.NewRouter(
		capabilities.Workflow(),
		matricesSystem,
		auditSystem,
		scrub.New(),
		runtime.Workflow,
		runtime.Logger,
	)

	conversationsSystem := conversations.New(conversations.Deps{
		DB:              db,
		Workflow:        router,
		Classifications: classificationsSystem,
		Locker:          runtime.Lock,
		Model:           runtime.Workflow.Model,
		Workers:         runtime.ReclassifyWorkers,
		Logger:          runtime.Logger,
		Pagination:      runtime.Pagination,
	})

	return &Domain{
		Audit:           auditSystem,
		Classifications: classificationsSystem,
		Conversations:   conversationsSystem,
		Matrices:        matricesSystem,
		Prompts:         promptsSystem,
		Router:          router,
	}, nil
}

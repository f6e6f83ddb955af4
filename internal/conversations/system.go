package conversations

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/pkg/pagination"
)

// System defines the public contract for conversation operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Conversation], error)

	Find(ctx context.Context, id uuid.UUID) (*Conversation, error)

	// Start submits a description and runs the first turn. When the turn
	// fails after submission the conversation is still saved, in the
	// submitted phase, and can be resumed with Respond and no answers.
	Start(ctx context.Context, cmd StartCommand) (*Turn, error)

	Respond(ctx context.Context, id uuid.UUID, cmd RespondCommand) (*Turn, error)
	Reclassify(ctx context.Context, id uuid.UUID) (*Turn, error)
	ReclassifyAll(ctx context.Context, cmd ReclassifyCommand) (*ReclassifySummary, error)
}

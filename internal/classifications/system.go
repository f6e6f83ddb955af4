package classifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/repository"
)

// System defines the public contract for classification records.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Classification], error)

	Find(ctx context.Context, id uuid.UUID) (*Classification, error)

	// History returns every record for a conversation, oldest first.
	History(ctx context.Context, conversationID uuid.UUID) ([]Classification, error)

	// Record appends result for a conversation using q, which is normally
	// the transaction that saves the conversation itself.
	Record(
		ctx context.Context,
		q repository.Querier,
		conversationID uuid.UUID,
		result *workflow.Result,
		model workflow.ModelConfig,
	) (*Classification, error)
}

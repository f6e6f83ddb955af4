package matrices

import (
	"context"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/storage"
)

// System defines the public contract for decision matrix operations.
// It also satisfies workflow.MatrixSource.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[rules.Matrix], error)

	// Latest returns the active matrix, or ErrNotFound when none is published.
	Latest(ctx context.Context) (*rules.Matrix, error)
	// LatestMatrix returns the active matrix, or nil when none is published.
	LatestMatrix(ctx context.Context) (*rules.Matrix, error)

	Find(ctx context.Context, version string) (*rules.Matrix, error)
	Publish(ctx context.Context, cmd PublishCommand) (*rules.Matrix, error)
	Activate(ctx context.Context, version string) (*rules.Matrix, error)
	Validate(ctx context.Context, cmd PublishCommand) ValidationResult
	Evaluate(ctx context.Context, version string, cmd EvaluateCommand) (*EvaluateResult, error)

	// Snapshot opens the archived JSON snapshot of version.
	Snapshot(ctx context.Context, version string) (*storage.BlobResult, error)
}

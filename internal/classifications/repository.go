package classifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/query"
	"github.com/JaimeStill/pathfinder/pkg/repository"
)

const returning = `
	RETURNING id, conversation_id, category, confidence, rationale,
		category_progression, future_opportunities, baseline_category,
		baseline_confidence, evaluation, attributes, matrix_version,
		matrix_applied, forced_reason, reclassification, confidence_delta,
		model_name, provider_name, classified_at`

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a classification repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "classifications"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Classification], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "Rationale", "CategoryProgression")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count classifications: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query classifications: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Classification, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) History(ctx context.Context, conversationID uuid.UUID) ([]Classification, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "ClassifiedAt"}).
		WhereEquals("ConversationID", conversationID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanClassification)
	if err != nil {
		return nil, fmt.Errorf("query history for %s: %w", conversationID, err)
	}
	return items, nil
}

func (r *repo) Record(
	ctx context.Context,
	q repository.Querier,
	conversationID uuid.UUID,
	result *workflow.Result,
	model workflow.ModelConfig,
) (*Classification, error) {
	if result == nil {
		return nil, ErrNoResult
	}

	args, err := recordArgs(conversationID, result, model)
	if err != nil {
		return nil, err
	}

	insertQ := `
		INSERT INTO classifications(
			conversation_id, category, confidence, rationale,
			category_progression, future_opportunities, baseline_category,
			baseline_confidence, evaluation, attributes, matrix_version,
			matrix_applied, forced_reason, reclassification, confidence_delta,
			model_name, provider_name, classified_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)` +
		returning

	c, err := repository.QueryOne(ctx, q, insertQ, args, scanClassification)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "classification recorded",
		"id", c.ID,
		"conversation_id", conversationID,
		"category", c.Category,
		"confidence", c.Confidence,
		"reclassification", c.Reclassification,
	)
	return &c, nil
}

func recordArgs(conversationID uuid.UUID, result *workflow.Result, model workflow.ModelConfig) ([]any, error) {
	opportunities := result.Classification.FutureOpportunities
	if opportunities == nil {
		opportunities = []string{}
	}
	opportunitiesJSON, err := json.Marshal(opportunities)
	if err != nil {
		return nil, fmt.Errorf("marshal future_opportunities: %w", err)
	}

	evaluationJSON, err := json.Marshal(result.Evaluation)
	if err != nil {
		return nil, fmt.Errorf("marshal evaluation: %w", err)
	}

	attributesJSON, err := json.Marshal(result.Attributes)
	if err != nil {
		return nil, fmt.Errorf("marshal attributes: %w", err)
	}

	var matrixVersion *string
	if result.Evaluation != nil && result.Evaluation.MatrixVersion != "" {
		matrixVersion = &result.Evaluation.MatrixVersion
	}

	var forced *string
	if result.ForcedReason != "" {
		reason := string(result.ForcedReason)
		forced = &reason
	}

	classifiedAt := result.CompletedAt
	if classifiedAt.IsZero() {
		classifiedAt = time.Now().UTC()
	}

	return []any{
		conversationID,
		string(result.Classification.Category),
		result.Classification.Confidence,
		result.Classification.Rationale,
		result.Classification.CategoryProgression,
		opportunitiesJSON,
		string(result.Baseline.Category),
		result.Baseline.Confidence,
		evaluationJSON,
		attributesJSON,
		matrixVersion,
		result.MatrixApplied,
		forced,
		result.Reclassification,
		result.ConfidenceDelta,
		model.Name,
		model.Provider,
		classifiedAt,
	}, nil
}

package matrices

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/query"
	"github.com/JaimeStill/pathfinder/pkg/repository"
	"github.com/JaimeStill/pathfinder/pkg/storage"
)

const returning = `RETURNING version, definition, active, created_at, created_by`

type repo struct {
	db         *sql.DB
	store      storage.System
	evaluator  *rules.Evaluator
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a matrix repository implementing the System interface.
// Published versions are archived to store.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	logger = logger.With("system", "matrices")
	return &repo{
		db:         db,
		store:      store,
		evaluator:  rules.NewEvaluator(logger),
		logger:     logger,
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
) (*pagination.PageResult[rules.Matrix], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "CreatedBy")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count matrices: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanMatrix)
	if err != nil {
		return nil, fmt.Errorf("query matrices: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Latest(ctx context.Context) (*rules.Matrix, error) {
	active := true
	q, args := query.NewBuilder(projection).WhereEquals("Active", &active).Build()

	m, err := repository.QueryOne(ctx, r.db, q, args, scanMatrix)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &m, nil
}

func (r *repo) LatestMatrix(ctx context.Context) (*rules.Matrix, error) {
	m, err := r.Latest(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return m, err
}

func (r *repo) Find(ctx context.Context, version string) (*rules.Matrix, error) {
	v, err := parseVersion(version)
	if err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(projection).BuildSingle("Version", v)

	m, err := repository.QueryOne(ctx, r.db, q, args, scanMatrix)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &m, nil
}

func (r *repo) Publish(ctx context.Context, cmd PublishCommand) (*rules.Matrix, error) {
	draft := cmd.Matrix()
	if err := rules.Validate(draft); err != nil {
		return nil, err
	}

	def, err := json.Marshal(definition{Attributes: draft.Attributes, Rules: draft.Rules})
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}

	var archived string

	m, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (rules.Matrix, error) {
		if _, err := tx.ExecContext(ctx, "UPDATE matrices SET active = false WHERE active = true"); err != nil {
			return rules.Matrix{}, fmt.Errorf("deactivate current: %w", err)
		}

		insertQ := `
			INSERT INTO matrices(version, definition, active, created_by)
			SELECT COALESCE(MAX(version), 0) + 1, $1, true, $2 FROM matrices
			` + returning

		m, err := repository.QueryOne(ctx, tx, insertQ, []any{def, draft.CreatedBy}, scanMatrix)
		if err != nil {
			return rules.Matrix{}, err
		}

		if err := r.archive(ctx, &m); err != nil {
			return rules.Matrix{}, err
		}
		archived = ArchiveKey(m.Version)
		return m, nil
	})

	if err != nil {
		if archived != "" {
			r.discard(ctx, archived)
		}
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	r.logger.InfoContext(ctx, "matrix published",
		"version", m.Version,
		"attributes", len(m.Attributes),
		"rules", len(m.Rules),
		"created_by", m.CreatedBy,
	)
	return &m, nil
}

func (r *repo) Activate(ctx context.Context, version string) (*rules.Matrix, error) {
	v, err := parseVersion(version)
	if err != nil {
		return nil, err
	}

	m, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (rules.Matrix, error) {
		findQ, findArgs := query.NewBuilder(projection).BuildSingle("Version", v)
		if _, err := repository.QueryOne(ctx, tx, findQ, findArgs, scanMatrix); err != nil {
			return rules.Matrix{}, err
		}

		if _, err := tx.ExecContext(ctx, "UPDATE matrices SET active = false WHERE active = true"); err != nil {
			return rules.Matrix{}, fmt.Errorf("deactivate current: %w", err)
		}

		activateQ := "UPDATE matrices SET active = true WHERE version = $1 " + returning
		return repository.QueryOne(ctx, tx, activateQ, []any{v}, scanMatrix)
	})

	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}

	if err := r.ensureArchived(ctx, &m); err != nil {
		r.logger.WarnContext(ctx, "matrix activated without snapshot",
			"version", m.Version,
			"error", err,
		)
	}

	r.logger.InfoContext(ctx, "matrix activated", "version", m.Version)
	return &m, nil
}

func (r *repo) Validate(_ context.Context, cmd PublishCommand) ValidationResult {
	return Check(cmd)
}

func (r *repo) Evaluate(ctx context.Context, version string, cmd EvaluateCommand) (*EvaluateResult, error) {
	m, err := r.Find(ctx, version)
	if err != nil {
		return nil, err
	}
	return DryRun(r.evaluator, m, cmd)
}

func (r *repo) Snapshot(ctx context.Context, version string) (*storage.BlobResult, error) {
	if _, err := parseVersion(version); err != nil {
		return nil, err
	}
	return r.store.Download(ctx, ArchiveKey(version))
}

// archive uploads m's snapshot. It runs inside the publish transaction so a
// failed upload leaves the version unpublished.
func (r *repo) archive(ctx context.Context, m *rules.Matrix) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}

	key := ArchiveKey(m.Version)
	if err := r.store.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}

	r.logger.DebugContext(ctx, "matrix archived", "version", m.Version, "key", key)
	return nil
}

// ensureArchived re-uploads the snapshot of an activated version when the
// archive no longer holds it.
func (r *repo) ensureArchived(ctx context.Context, m *rules.Matrix) error {
	ok, err := r.store.Exists(ctx, ArchiveKey(m.Version))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArchive, err)
	}
	if ok {
		return nil
	}
	return r.archive(ctx, m)
}

// discard removes a snapshot whose publish transaction did not commit.
func (r *repo) discard(ctx context.Context, key string) {
	if err := r.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		r.logger.WarnContext(ctx, "orphaned matrix snapshot", "key", key, "error", err)
	}
}

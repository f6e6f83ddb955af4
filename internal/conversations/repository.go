package conversations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/classifications"
	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/lock"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/query"
	"github.com/JaimeStill/pathfinder/pkg/repository"
)

const returning = `RETURNING id, phase, submitted_by, session, revision, created_at, updated_at`

type repo struct {
	db         *sql.DB
	flow       Workflow
	records    classifications.System
	locker     lock.Locker
	model      workflow.ModelConfig
	workers    int
	logger     *slog.Logger
	pagination pagination.Config
}

// Deps holds the collaborators of the conversations system.
type Deps struct {
	DB              *sql.DB
	Workflow        Workflow
	Classifications classifications.System
	Locker          lock.Locker
	Model           workflow.ModelConfig
	Workers         int
	Logger          *slog.Logger
	Pagination      pagination.Config
}

// New creates a conversation repository implementing the System interface.
func New(deps Deps) System {
	return &repo{
		db:         deps.DB,
		flow:       deps.Workflow,
		records:    deps.Classifications,
		locker:     deps.Locker,
		model:      deps.Model,
		workers:    max(deps.Workers, 1),
		logger:     deps.Logger.With("system", "conversations"),
		pagination: deps.Pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Conversation], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "SubmittedBy")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanConversation)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	c, err := repository.QueryOne(ctx, r.db, q, args, scanConversation)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &c, nil
}

func (r *repo) Start(ctx context.Context, cmd StartCommand) (*Turn, error) {
	cmd = cmd.normalize()

	session, outcome, turnErr := r.flow.Submit(ctx, cmd.Description)
	if session.ID == uuid.Nil {
		return nil, turnErr
	}

	turn, err := r.save(ctx, session, outcome, nil, func(tx *sql.Tx, data []byte) (Conversation, error) {
		insertQ := `
			INSERT INTO conversations(id, phase, submitted_by, session)
			VALUES ($1, $2, $3, $4)
			` + returning
		args := []any{session.ID, string(session.Phase), cmd.SubmittedBy, data}
		return repository.QueryOne(ctx, tx, insertQ, args, scanConversation)
	})
	if err != nil {
		return nil, err
	}

	if turnErr != nil {
		r.logger.WarnContext(ctx, "first turn failed, conversation saved for retry",
			"id", session.ID,
			"error", turnErr,
		)
		return nil, fmt.Errorf("conversation %s: %w", session.ID, turnErr)
	}

	r.logger.InfoContext(ctx, "conversation started",
		"id", session.ID,
		"phase", session.Phase,
		"submitted_by", cmd.SubmittedBy,
	)
	return turn, nil
}

func (r *repo) Respond(ctx context.Context, id uuid.UUID, cmd RespondCommand) (*Turn, error) {
	return r.locked(ctx, id, func(c *Conversation) (*Turn, error) {
		session, outcome, err := r.flow.Respond(ctx, c.Session, cmd.Answers)
		if err != nil {
			return nil, err
		}
		return r.update(ctx, c.Revision, session, outcome, outcome.Result)
	})
}

func (r *repo) Reclassify(ctx context.Context, id uuid.UUID) (*Turn, error) {
	return r.locked(ctx, id, func(c *Conversation) (*Turn, error) {
		session, result, err := r.flow.Reclassify(ctx, c.Session)
		if err != nil {
			return nil, err
		}
		outcome := workflow.Outcome{Phase: session.Phase, Baseline: session.Baseline, Result: result}
		return r.update(ctx, c.Revision, session, outcome, result)
	})
}

func (r *repo) ReclassifyAll(ctx context.Context, cmd ReclassifyCommand) (*ReclassifySummary, error) {
	ids, err := r.completed(ctx, cmd)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "batch reclassification started", "conversations", len(ids), "workers", r.workers)

	summary := RunBatch(ctx, ids, r.workers, func(ctx context.Context, id uuid.UUID) error {
		_, err := r.Reclassify(ctx, id)
		return err
	})

	r.logger.InfoContext(ctx, "batch reclassification finished",
		"total", summary.Total,
		"reclassified", summary.Reclassified,
		"failed", len(summary.Failures),
	)
	return summary, nil
}

// locked loads conversation id under its lock and runs fn.
func (r *repo) locked(ctx context.Context, id uuid.UUID, fn func(c *Conversation) (*Turn, error)) (*Turn, error) {
	release, err := r.locker.Acquire(ctx, lockKey(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBusy, err)
	}
	defer release()

	c, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	return fn(c)
}

// update writes s only if the stored revision is still rev, the one the
// turn was computed from. A changed revision means another writer saved in
// between and is reported as ErrStale.
func (r *repo) update(
	ctx context.Context,
	rev int,
	s workflow.Session,
	outcome workflow.Outcome,
	result *workflow.Result,
) (*Turn, error) {
	turn, err := r.save(ctx, s, outcome, result, func(tx *sql.Tx, data []byte) (Conversation, error) {
		updateQ := `
			UPDATE conversations
			SET phase = $1, session = $2, revision = revision + 1, updated_at = NOW()
			WHERE id = $3 AND revision = $4
			` + returning
		c, err := repository.QueryOne(ctx, tx, updateQ, []any{string(s.Phase), data, s.ID, rev}, scanConversation)
		if errors.Is(err, sql.ErrNoRows) {
			return c, fmt.Errorf("%w: revision %d", ErrStale, rev)
		}
		return c, err
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "conversation updated", "id", s.ID, "phase", s.Phase)
	return turn, nil
}

// save writes s with write and, when result is set, appends its
// classification record in the same transaction.
func (r *repo) save(
	ctx context.Context,
	s workflow.Session,
	outcome workflow.Outcome,
	result *workflow.Result,
	write func(tx *sql.Tx, data []byte) (Conversation, error),
) (*Turn, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	if result == nil {
		result = outcome.Result
	}

	turn, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (Turn, error) {
		c, err := write(tx, data)
		if err != nil {
			return Turn{}, err
		}

		turn := Turn{Conversation: &c, Outcome: outcome}
		if result != nil {
			rec, err := r.records.Record(ctx, tx, s.ID, result, r.model)
			if err != nil {
				return Turn{}, fmt.Errorf("record classification: %w", err)
			}
			turn.Classification = rec
		}
		return turn, nil
	})
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &turn, nil
}

func (r *repo) completed(ctx context.Context, cmd ReclassifyCommand) ([]uuid.UUID, error) {
	q := `
		SELECT c.id FROM conversations c
		WHERE c.phase = $1
		  AND ($2::text IS NULL OR c.session->'result'->'classification'->>'category' = $2)
		ORDER BY c.updated_at`
	args := []any{string(workflow.PhaseCompleted), nil}
	if cmd.Category != nil {
		args[1] = string(*cmd.Category)
	}
	if cmd.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", cmd.Limit)
	}

	ids, err := repository.QueryMany(ctx, r.db, q, args, func(s repository.Scanner) (uuid.UUID, error) {
		var id uuid.UUID
		err := s.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("query completed conversations: %w", err)
	}
	return ids, nil
}

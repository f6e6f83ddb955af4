// Package audit persists the per-turn audit trail of the classification
// workflow. Events carry identifiers, phases, outcomes and timings; they never
// carry process descriptions or answers.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
	"github.com/JaimeStill/pathfinder/pkg/pagination"
	"github.com/JaimeStill/pathfinder/pkg/query"
	"github.com/JaimeStill/pathfinder/pkg/repository"
)

// ErrInvalidKind is returned for an unrecognised event kind filter.
var ErrInvalidKind = errors.New("invalid audit event kind")

var projection = query.
	NewProjectionMap("public", "audit_events", "a").
	Project("id", "ID").
	Project("conversation_id", "ConversationID").
	Project("kind", "Kind").
	Project("phase", "Phase").
	Project("step", "Step").
	Project("provider", "Provider").
	Project("model", "Model").
	Project("latency_ms", "Latency").
	Project("category", "Category").
	Project("confidence", "Confidence").
	Project("triggered_rules", "TriggeredRules").
	Project("matrix_version", "MatrixVersion").
	Project("forced_reason", "ForcedReason").
	Project("scrubbed", "Scrubbed").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var kinds = []workflow.EventKind{
	workflow.EventSubmission,
	workflow.EventClarification,
	workflow.EventClassification,
	workflow.EventManualReview,
	workflow.EventReclassification,
}

// ParseKind validates an event kind.
func ParseKind(s string) (workflow.EventKind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Filters contains optional filtering criteria for audit queries.
type Filters struct {
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	Kind           *string    `json:"kind,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("ConversationID", f.ConversationID).
		WhereEquals("Kind", f.Kind)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("conversation_id"); c != "" {
		if id, err := uuid.Parse(c); err == nil {
			f.ConversationID = &id
		}
	}

	if k := values.Get("kind"); k != "" {
		if kind, err := ParseKind(k); err == nil {
			s := string(kind)
			f.Kind = &s
		}
	}

	return f
}

// System is the Postgres-backed audit trail. It satisfies workflow.AuditSink.
type System interface {
	Handler() *Handler

	Record(ctx context.Context, event workflow.Event) error

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[workflow.Event], error)
}

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an audit repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "audit"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Record(ctx context.Context, e workflow.Event) error {
	triggered := e.TriggeredRules
	if triggered == nil {
		triggered = []string{}
	}
	rulesJSON, err := json.Marshal(triggered)
	if err != nil {
		return fmt.Errorf("marshal triggered_rules: %w", err)
	}

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_events(
			id, conversation_id, kind, phase, step, provider, model, latency_ms,
			category, confidence, triggered_rules, matrix_version, forced_reason,
			scrubbed, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		e.ID,
		e.ConversationID,
		string(e.Kind),
		string(e.Phase),
		e.Step,
		e.Provider,
		e.Model,
		e.Latency.Milliseconds(),
		string(e.Category),
		e.Confidence,
		rulesJSON,
		e.MatrixVersion,
		string(e.ForcedReason),
		e.Scrubbed,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	r.logger.DebugContext(ctx, "audit event recorded",
		"id", e.ID,
		"conversation_id", e.ConversationID,
		"kind", e.Kind,
	)
	return nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[workflow.Event], error) {
	page.Normalize(r.pagination)

	qb := query.NewBuilder(projection, defaultSort)
	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit events: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEvent)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func scanEvent(s repository.Scanner) (workflow.Event, error) {
	var (
		e         workflow.Event
		kind      string
		phase     string
		latencyMS int64
		category  string
		triggered []byte
		forced    string
	)

	err := s.Scan(
		&e.ID,
		&e.ConversationID,
		&kind,
		&phase,
		&e.Step,
		&e.Provider,
		&e.Model,
		&latencyMS,
		&category,
		&e.Confidence,
		&triggered,
		&e.MatrixVersion,
		&forced,
		&e.Scrubbed,
		&e.CreatedAt,
	)
	if err != nil {
		return e, err
	}

	e.Kind = workflow.EventKind(kind)
	e.Phase = workflow.Phase(phase)
	e.Latency = time.Duration(latencyMS) * time.Millisecond
	e.Category = taxonomy.Category(category)
	e.ForcedReason = workflow.ForceReason(forced)

	if err := json.Unmarshal(triggered, &e.TriggeredRules); err != nil {
		return e, fmt.Errorf("unmarshal triggered_rules: %w", err)
	}
	return e, nil
}

// MapHTTPStatus maps audit errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidKind) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

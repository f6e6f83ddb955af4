package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// Router drives conversations through the classification state machine:
// submitted → classifying → (clarifying ⟲ classifying) → extracting_attributes
// → evaluating_matrix → completed, or manual_review. It is the only component
// that ends a conversation in manual_review.
type Router struct {
	classifier Classifier
	controller *Controller
	extractor  *Extractor
	evaluator  *rules.Evaluator
	matrices   MatrixSource
	audit      AuditSink
	opts       Options
	logger     *slog.Logger
	now        func() time.Time
}

// NewRouter creates a Router. matrices and audit may be nil, in which case
// the baseline classification is final and no audit events are recorded.
func NewRouter(
	caps Capabilities,
	matrices MatrixSource,
	audit AuditSink,
	scrubber Scrubber,
	opts Options,
	logger *slog.Logger,
) *Router {
	opts = opts.Normalize()
	return &Router{
		classifier: caps.Classifier,
		controller: NewController(caps.Questions, caps.Summarizer, scrubber, opts, logger),
		extractor:  NewExtractor(caps.Extractor, opts, logger),
		evaluator:  rules.NewEvaluator(logger),
		matrices:   matrices,
		audit:      audit,
		opts:       opts,
		logger:     logger.With("workflow", "router"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Submit starts a conversation for description and runs its first turn.
// On error the returned session is still in the submitted phase and can be
// resumed with Respond and no answers.
func (r *Router) Submit(ctx context.Context, description string) (Session, Outcome, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return Session{}, Outcome{}, ErrEmptyDescription
	}

	s := NewSession(description)

	r.logger.InfoContext(ctx, "conversation submitted", "conversation_id", s.ID)

	next, out, err := r.turn(ctx, s.Clone())
	if err != nil {
		return s, Outcome{}, err
	}
	return next, out, nil
}

// Respond records answers to the pending questions and runs the next turn.
// Answers are matched to pending questions by position. A session still in
// the submitted phase is resumed with no answers. On error s is returned
// unchanged.
func (r *Router) Respond(ctx context.Context, s Session, answers []string) (Session, Outcome, error) {
	next := s.Clone()

	switch s.Phase {
	case PhaseSubmitted:
		if len(answers) != 0 {
			return s, Outcome{}, fmt.Errorf("%w: no questions have been asked", ErrAnswerCount)
		}
	case PhaseClarifying:
		if len(answers) != len(s.Pending) {
			return s, Outcome{}, fmt.Errorf("%w: %d pending, %d answers", ErrAnswerCount, len(s.Pending), len(answers))
		}
		for i, q := range next.Pending {
			next.Turns = append(next.Turns, Turn{Question: q, Answer: strings.TrimSpace(answers[i])})
		}
		next.Pending = []string{}
		next.Clarify = ClarifyNeeded
	default:
		return s, Outcome{}, fmt.Errorf("%w: %s", ErrInvalidPhase, s.Phase)
	}

	next, out, err := r.turn(ctx, next)
	if err != nil {
		return s, Outcome{}, err
	}
	return next, out, nil
}

// Reclassify re-runs attribute extraction and matrix evaluation for a
// completed conversation against its stored baseline, without returning to
// the clarification loop. The result is flagged as a reclassification and
// carries its confidence change from the previous result.
func (r *Router) Reclassify(ctx context.Context, s Session) (Session, *Result, error) {
	if s.Phase != PhaseCompleted || s.Baseline == nil {
		return s, nil, fmt.Errorf("%w: %s", ErrNotCompleted, s.Phase)
	}

	start := r.now()

	result, err := r.evaluate(ctx, s, *s.Baseline, s.ForcedReason)
	if err != nil {
		return s, nil, err
	}

	result.Reclassification = true
	if s.Result != nil {
		delta := result.Classification.Confidence - s.Result.Classification.Confidence
		result.ConfidenceDelta = &delta
	}

	next := s.Clone()
	next.Result = result

	r.logger.InfoContext(ctx, "conversation reclassified",
		"conversation_id", s.ID,
		"category", result.Classification.Category,
		"confidence", result.Classification.Confidence,
	)

	r.record(ctx, next, EventReclassification, start, false)
	return next, result, nil
}

// turn runs one classification turn on s, which the caller has already cloned.
func (r *Router) turn(ctx context.Context, s Session) (Session, Outcome, error) {
	start := r.now()
	first := s.Steps == 0

	s.Steps++
	s.Phase = PhaseClassifying
	r.controller.Compress(ctx, &s)

	baseline, err := r.classify(ctx, &s)
	if errors.Is(err, ErrMalformedOutput) {
		r.logger.WarnContext(ctx, "classifier output unusable, routing to manual review",
			"conversation_id", s.ID,
			"error", err,
		)
		s.Phase = PhaseReview
		r.recordTurn(ctx, s, EventManualReview, start, false, first)
		return s, Outcome{Phase: PhaseReview}, nil
	}
	if err != nil {
		return s, Outcome{}, err
	}

	s.Baseline = &baseline
	decision := Route(baseline, len(s.Turns), r.opts.MaxTurns)

	r.logger.InfoContext(ctx, "baseline classified",
		"conversation_id", s.ID,
		"category", baseline.Category,
		"confidence", baseline.Confidence,
		"action", baseline.Action,
		"turns", len(s.Turns),
		"decision", decision,
	)

	scrubbed := false

	switch decision {
	case DecideManualReview:
		s.Phase = PhaseReview
		r.recordTurn(ctx, s, EventManualReview, start, false, first)
		return s, Outcome{Phase: PhaseReview, Baseline: &baseline}, nil

	case DecideClarify:
		s.Clarify = ClarifyNeeded
		plan, err := r.controller.Plan(ctx, &s, baseline)
		if err != nil {
			return s, Outcome{}, err
		}
		scrubbed = plan.Scrubbed

		if plan.State == ClarifyAwaiting {
			s.Pending = plan.Questions
			s.Asked = append(s.Asked, plan.Questions...)
			s.Phase = PhaseClarifying
			s.Clarify = ClarifyAwaiting

			r.recordTurn(ctx, s, EventClarification, start, scrubbed, first)

			return s, Outcome{
				Phase:     PhaseClarifying,
				Questions: plan.Questions,
				Baseline:  &baseline,
			}, nil
		}

		s.Clarify = ClarifyForced
		s.ForcedReason = plan.Reason

	case DecideForced:
		s.Clarify = ClarifyForced
		s.ForcedReason = ForceTurnCap
		r.logger.InfoContext(ctx, "forcing classification",
			"conversation_id", s.ID,
			"reason", ForceTurnCap,
			"turns", len(s.Turns),
		)

	case DecideEvaluate:
		s.Clarify = ClarifyReady
	}

	s.Phase = PhaseExtracting
	result, err := r.evaluate(ctx, s, baseline, s.ForcedReason)
	if err != nil {
		return s, Outcome{}, err
	}

	s.Phase = PhaseCompleted
	s.Result = result

	r.logger.InfoContext(ctx, "conversation completed",
		"conversation_id", s.ID,
		"category", result.Classification.Category,
		"confidence", result.Classification.Confidence,
		"matrix_applied", result.MatrixApplied,
		"forced_reason", result.ForcedReason,
	)

	r.recordTurn(ctx, s, EventClassification, start, scrubbed, first)
	return s, Outcome{Phase: PhaseCompleted, Baseline: &baseline, Result: result}, nil
}

// classify calls the classifier under the retry policy and retries once more
// when the output is malformed.
func (r *Router) classify(ctx context.Context, s *Session) (Baseline, error) {
	req := ClassifyRequest{
		Description: s.Description,
		Transcript:  r.controller.Transcript(s),
		Model:       r.opts.Model,
	}

	call := func(ctx context.Context) (Baseline, error) {
		b, err := r.classifier.Classify(ctx, req)
		if err != nil {
			return b, err
		}
		if !b.Category.Valid() {
			return b, fmt.Errorf("%w: %w", ErrMalformedOutput, taxonomy.ErrInvalidCategory)
		}
		b.Confidence = taxonomy.Clamp(b.Confidence)
		return b, nil
	}

	b, err := invoke(ctx, r.opts.Retry, r.logger, "classify", call)
	if errors.Is(err, ErrMalformedOutput) {
		r.logger.InfoContext(ctx, "classifier output malformed, retrying", "conversation_id", s.ID)
		b, err = invoke(ctx, r.opts.Retry, r.logger, "classify", call)
	}
	return b, err
}

// recordTurn records the outcome of a turn. The first turn of a conversation
// is preceded by a submission event whatever its outcome.
func (r *Router) recordTurn(ctx context.Context, s Session, kind EventKind, start time.Time, scrubbed, first bool) {
	if first {
		intake := s
		intake.Phase = PhaseSubmitted
		intake.Result = nil
		intake.ForcedReason = ""
		r.record(ctx, intake, EventSubmission, start, false)
	}
	r.record(ctx, s, kind, start, scrubbed)
}

func (r *Router) record(ctx context.Context, s Session, kind EventKind, start time.Time, scrubbed bool) {
	if r.audit == nil {
		return
	}

	event := Event{
		ID:             uuid.New(),
		ConversationID: s.ID,
		Kind:           kind,
		Phase:          s.Phase,
		Step:           s.Steps,
		Provider:       r.opts.Model.Provider,
		Model:          r.opts.Model.Name,
		Latency:        r.now().Sub(start),
		TriggeredRules: []string{},
		ForcedReason:   s.ForcedReason,
		Scrubbed:       scrubbed,
		CreatedAt:      r.now(),
	}

	switch {
	case s.Result != nil && (kind == EventClassification || kind == EventReclassification):
		event.Category = s.Result.Classification.Category
		event.Confidence = s.Result.Classification.Confidence
		if s.Result.Evaluation != nil {
			event.TriggeredRules = s.Result.Evaluation.RuleIDs()
			event.MatrixVersion = s.Result.Evaluation.MatrixVersion
		}
	case s.Baseline != nil:
		event.Category = s.Baseline.Category
		event.Confidence = s.Baseline.Confidence
	}

	if err := r.audit.Record(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "audit event not recorded",
			"conversation_id", s.ID,
			"kind", kind,
			"error", err,
		)
	}
}

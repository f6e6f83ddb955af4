package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Plan is the controller's decision for one clarification round.
type Plan struct {
	State     ClarifyState
	Questions []string
	Reason    ForceReason
	Scrubbed  bool
}

// Controller runs the clarification loop: it generates questions, guards
// against repeated questions and the turn cap, and compresses long transcripts.
type Controller struct {
	questions  QuestionGenerator
	summarizer Summarizer
	scrubber   Scrubber
	opts       Options
	logger     *slog.Logger
}

// NewController creates a Controller. A nil summarizer disables compression
// and a nil scrubber leaves questions unaltered.
func NewController(
	questions QuestionGenerator,
	summarizer Summarizer,
	scrubber Scrubber,
	opts Options,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		questions:  questions,
		summarizer: summarizer,
		scrubber:   scrubber,
		opts:       opts.Normalize(),
		logger:     logger.With("workflow", "clarify"),
	}
}

// Transcript returns the context passed to capabilities: the summary of
// compressed turns and the turns after it verbatim.
func (c *Controller) Transcript(s *Session) Transcript {
	from := min(s.SummarizedTurns, len(s.Turns))
	return Transcript{
		Summary: s.Summary,
		Turns:   s.Turns[from:],
	}
}

// Compress folds all but the most recent CompressionThreshold turns into the
// session summary once the unsummarized transcript exceeds that threshold.
// A failed summarization is logged and the transcript is left as is.
func (c *Controller) Compress(ctx context.Context, s *Session) {
	if c.summarizer == nil {
		return
	}

	keep := c.opts.CompressionThreshold
	if len(s.Turns)-s.SummarizedTurns <= keep {
		return
	}

	upto := len(s.Turns) - keep
	folded := s.Turns[s.SummarizedTurns:upto]

	summary, err := invoke(ctx, c.opts.Retry, c.logger, "summarize",
		func(ctx context.Context) (string, error) {
			return c.summarizer.Summarize(ctx, SummarizeRequest{
				PriorSummary: s.Summary,
				Turns:        folded,
				Model:        c.opts.Model,
			})
		},
	)
	if err != nil || strings.TrimSpace(summary) == "" {
		c.logger.WarnContext(ctx, "context compression skipped",
			"conversation_id", s.ID,
			"turns", len(s.Turns),
			"error", err,
		)
		return
	}

	s.Summary = strings.TrimSpace(summary)
	s.SummarizedTurns = upto

	c.logger.InfoContext(ctx, "context compressed",
		"conversation_id", s.ID,
		"summarized_turns", upto,
		"verbatim_turns", keep,
	)
}

// Plan generates the next round of questions for s. It forces classification
// when the turn cap is reached, when the generator repeats an earlier
// question, or when no usable question is produced. Only an unreachable
// generator is reported as an error.
func (c *Controller) Plan(ctx context.Context, s *Session, baseline Baseline) (Plan, error) {
	remaining := c.opts.MaxTurns - len(s.Turns)
	if remaining <= 0 {
		return c.force(ctx, s, ForceTurnCap), nil
	}
	limit := min(c.opts.MaxQuestions, remaining)

	req := QuestionRequest{
		Description:    s.Description,
		Classification: baseline.Classification,
		Transcript:     c.Transcript(s),
		Asked:          s.Asked,
		Max:            limit,
		Model:          c.opts.Model,
	}

	raw, err := c.generate(ctx, req)
	if errors.Is(err, ErrMalformedOutput) {
		c.logger.WarnContext(ctx, "question output malformed twice",
			"conversation_id", s.ID,
			"error", err,
		)
		return c.force(ctx, s, ForceNoQuestions), nil
	}
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{State: ClarifyAwaiting}
	seen := make([]string, 0, limit)

	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}

		if c.scrubber != nil {
			clean, altered := c.scrubber.Scrub(q)
			q = clean
			plan.Scrubbed = plan.Scrubbed || altered
		}

		norm := normalize(q)
		if norm == "" || c.similarToAny(norm, seen) {
			continue
		}

		for _, prior := range s.Asked {
			if c.similar(norm, normalize(prior)) {
				c.logger.InfoContext(ctx, "repeated question detected",
					"conversation_id", s.ID,
					"question", q,
					"prior", prior,
				)
				forced := c.force(ctx, s, ForceLoopDetected)
				forced.Scrubbed = plan.Scrubbed
				return forced, nil
			}
		}

		seen = append(seen, norm)
		plan.Questions = append(plan.Questions, q)
		if len(plan.Questions) == limit {
			break
		}
	}

	if len(plan.Questions) == 0 {
		forced := c.force(ctx, s, ForceNoQuestions)
		forced.Scrubbed = plan.Scrubbed
		return forced, nil
	}

	return plan, nil
}

// generate calls the question generator, retrying once on malformed output.
func (c *Controller) generate(ctx context.Context, req QuestionRequest) ([]string, error) {
	call := func(ctx context.Context) ([]string, error) {
		return c.questions.GenerateQuestions(ctx, req)
	}

	qs, err := invoke(ctx, c.opts.Retry, c.logger, "generate_questions", call)
	if errors.Is(err, ErrMalformedOutput) {
		qs, err = invoke(ctx, c.opts.Retry, c.logger, "generate_questions", call)
	}
	return qs, err
}

func (c *Controller) force(ctx context.Context, s *Session, reason ForceReason) Plan {
	c.logger.InfoContext(ctx, "forcing classification",
		"conversation_id", s.ID,
		"reason", reason,
		"turns", len(s.Turns),
	)
	return Plan{State: ClarifyForced, Reason: reason}
}

func (c *Controller) similarToAny(norm string, others []string) bool {
	for _, o := range others {
		if c.similar(norm, o) {
			return true
		}
	}
	return false
}

// similar reports whether two normalized questions are near-identical by
// Levenshtein similarity.
func (c *Controller) similar(a, b string) bool {
	if a == b {
		return true
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return true
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1-float64(distance)/float64(longest) >= c.opts.SimilarityThreshold
}

// normalize lower-cases q, drops punctuation, and collapses whitespace.
func normalize(q string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(q) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

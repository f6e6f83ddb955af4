package workflow

import (
	"context"
	"errors"
	"fmt"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// State keys used by the evaluation pipeline.
const (
	KeySession    = "session"
	KeyBaseline   = "baseline"
	KeyForced     = "forced_reason"
	KeyMatrix     = "matrix"
	KeyValues     = "attribute_values"
	KeyEvaluation = "evaluation"
	KeyResult     = "result"
)

// pipeline carries one evaluation run. The node that fails records its error
// so callers see the workflow sentinel rather than the graph's wrapping.
type pipeline struct {
	router *Router
	err    error
}

// evaluate runs matrix → extract → evaluate → finalize for s, skipping
// straight to finalize when no matrix is available.
func (r *Router) evaluate(ctx context.Context, s Session, baseline Baseline, forced ForceReason) (*Result, error) {
	p := &pipeline{router: r}

	graph, err := p.build()
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}

	initial := state.New(nil)
	initial = initial.Set(KeySession, s)
	initial = initial.Set(KeyBaseline, baseline)
	initial = initial.Set(KeyForced, forced)

	final, err := graph.Execute(ctx, initial)
	if p.err != nil {
		return nil, p.err
	}
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	return extractResult(final)
}

func (p *pipeline) build() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("pathfinder-evaluate")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	nodes := []struct {
		name string
		node state.StateNode
	}{
		{"matrix", p.matrixNode()},
		{"extract", p.extractNode()},
		{"evaluate", p.evaluateNode()},
		{"finalize", p.finalizeNode()},
	}
	for _, n := range nodes {
		if err := graph.AddNode(n.name, n.node); err != nil {
			return nil, err
		}
	}

	// matrix → extract (when a matrix is available)
	if err := graph.AddEdge("matrix", "extract", hasMatrix); err != nil {
		return nil, err
	}

	// matrix → finalize (baseline passes through unchanged)
	if err := graph.AddEdge("matrix", "finalize", state.Not(hasMatrix)); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("extract", "evaluate", nil); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("evaluate", "finalize", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("matrix"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("finalize"); err != nil {
		return nil, err
	}

	return graph, nil
}

func (p *pipeline) matrixNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		r := p.router
		if r.matrices == nil {
			return s, nil
		}

		m, err := r.matrices.LatestMatrix(ctx)
		if err != nil {
			r.logger.WarnContext(ctx, "falling back to baseline classification",
				"error", fmt.Errorf("%w: %w", ErrMatrixUnavailable, err),
			)
			return s, nil
		}
		if m == nil {
			r.logger.InfoContext(ctx, "no decision matrix published, using baseline classification")
			return s, nil
		}

		return s.Set(KeyMatrix, m), nil
	})
}

func (p *pipeline) extractNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		r := p.router

		session, err := get[Session](s, KeySession)
		if err != nil {
			return p.fail(s, err)
		}
		m, err := get[*rules.Matrix](s, KeyMatrix)
		if err != nil {
			return p.fail(s, err)
		}

		values, err := r.extractor.Extract(ctx, session.Description, session.Turns, m.Attributes)
		if err != nil {
			return p.fail(s, err)
		}

		r.logger.InfoContext(ctx, "extract node complete",
			"conversation_id", session.ID,
			"attributes", len(values),
			"requested", len(m.Attributes),
		)

		return s.Set(KeyValues, values), nil
	})
}

func (p *pipeline) evaluateNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		r := p.router

		m, err := get[*rules.Matrix](s, KeyMatrix)
		if err != nil {
			return p.fail(s, err)
		}
		baseline, err := get[Baseline](s, KeyBaseline)
		if err != nil {
			return p.fail(s, err)
		}
		values, err := get[rules.Values](s, KeyValues)
		if err != nil {
			return p.fail(s, err)
		}

		eval := r.evaluator.Evaluate(m, baseline.Classification, values)

		r.logger.InfoContext(ctx, "evaluate node complete",
			"matrix_version", eval.MatrixVersion,
			"triggered_rules", eval.RuleIDs(),
			"original", eval.Original.Category,
			"final", eval.Final.Category,
		)

		return s.Set(KeyEvaluation, eval), nil
	})
}

func (p *pipeline) finalizeNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		baseline, err := get[Baseline](s, KeyBaseline)
		if err != nil {
			return p.fail(s, err)
		}
		forced, _ := get[ForceReason](s, KeyForced)

		result := Result{
			Classification: baseline.Classification.Clone(),
			Baseline:       baseline.Classification.Clone(),
			Attributes:     rules.Values{},
			ForcedReason:   forced,
			CompletedAt:    p.router.now(),
		}
		result.Classification.Confidence = taxonomy.Clamp(result.Classification.Confidence)

		if values, err := get[rules.Values](s, KeyValues); err == nil {
			result.Attributes = values
		}
		if eval, err := get[rules.Evaluation](s, KeyEvaluation); err == nil {
			result.Evaluation = &eval
			result.Classification = eval.Final
			result.MatrixApplied = true
		}

		return s.Set(KeyResult, result), nil
	})
}

func (p *pipeline) fail(s state.State, err error) (state.State, error) {
	p.err = err
	return s, err
}

func hasMatrix(s state.State) bool {
	_, err := get[*rules.Matrix](s, KeyMatrix)
	return err == nil
}

func extractResult(s state.State) (*Result, error) {
	result, err := get[Result](s, KeyResult)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

var errStateKey = errors.New("state value missing")

func get[T any](s state.State, key string) (T, error) {
	var zero T

	val, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("%w: %s", errStateKey, key)
	}

	v, ok := val.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T", errStateKey, key, val)
	}

	return v, nil
}

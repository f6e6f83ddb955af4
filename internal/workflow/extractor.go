package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// Extractor turns capability output into typed attribute values scoped to a
// matrix's attribute definitions.
type Extractor struct {
	capability AttributeExtractor
	opts       Options
	logger     *slog.Logger
}

// NewExtractor creates an Extractor over the extraction capability.
func NewExtractor(capability AttributeExtractor, opts Options, logger *slog.Logger) *Extractor {
	return &Extractor{
		capability: capability,
		opts:       opts.Normalize(),
		logger:     logger.With("workflow", "extract"),
	}
}

// Extract requests values for attributes. An invalid response is retried once
// with a corrective instruction; if the retry is also invalid, the values that
// did validate are returned. An unreachable capability yields ErrExtraction.
func (e *Extractor) Extract(
	ctx context.Context,
	description string,
	turns []Turn,
	attributes []rules.Attribute,
) (rules.Values, error) {
	if len(attributes) == 0 {
		return rules.Values{}, nil
	}

	req := ExtractRequest{
		Description: description,
		Turns:       turns,
		Attributes:  attributes,
		Model:       e.opts.Model,
	}

	values, problems, err := e.attempt(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return values, nil
	}

	e.logger.InfoContext(ctx, "extraction output invalid, retrying with correction",
		"problems", len(problems),
	)

	req.Correction = correction(problems)
	retried, retryProblems, err := e.attempt(ctx, req)
	if err != nil {
		return nil, err
	}

	maps.Copy(values, retried)

	if len(retryProblems) > 0 {
		e.logger.WarnContext(ctx, "extraction returned partial values",
			"extracted", len(values),
			"requested", len(attributes),
			"problems", strings.Join(retryProblems, "; "),
		)
	}

	return values, nil
}

func (e *Extractor) attempt(ctx context.Context, req ExtractRequest) (rules.Values, []string, error) {
	raw, err := invoke(ctx, e.opts.Retry, e.logger, "extract_attributes",
		func(ctx context.Context) (map[string]RawAttribute, error) {
			return e.capability.ExtractAttributes(ctx, req)
		},
	)

	if errors.Is(err, ErrMalformedOutput) {
		return rules.Values{}, []string{"response was not a JSON object keyed by attribute name"}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	values, problems := check(raw, req.Attributes)
	return values, problems, nil
}

// check validates raw values against the attribute definitions, returning the
// values that conform and a description of each that does not.
func check(raw map[string]RawAttribute, attributes []rules.Attribute) (rules.Values, []string) {
	defs := make(map[string]rules.Attribute, len(attributes))
	for _, a := range attributes {
		defs[a.Name] = a
	}

	values := make(rules.Values, len(raw))
	var problems []string

	for _, name := range slices.Sorted(maps.Keys(raw)) {
		ra := raw[name]

		attr, ok := defs[name]
		if !ok {
			problems = append(problems, fmt.Sprintf("unknown attribute %q", name))
			continue
		}
		if ra.Value == nil {
			continue
		}

		v, err := rules.Coerce(attr, ra.Value)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}

		values[name] = rules.ExtractedValue{
			Value:      v,
			Confidence: taxonomy.Clamp(ra.Confidence),
			SourceSpan: ra.SourceSpan,
		}
	}

	return values, problems
}

func correction(problems []string) string {
	var sb strings.Builder
	sb.WriteString("Your previous response was invalid. Fix these problems and respond again:\n")
	for _, p := range problems {
		sb.WriteString("- ")
		sb.WriteString(p)
		sb.WriteString("\n")
	}
	return sb.String()
}

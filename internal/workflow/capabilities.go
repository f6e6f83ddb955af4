package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// ModelConfig identifies the model serving capability calls.
type ModelConfig struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
}

// Transcript is the conversation context passed to the classifier and question
// generator: a condensed summary of older turns plus the recent turns verbatim.
type Transcript struct {
	Summary string `json:"summary,omitempty"`
	Turns   []Turn `json:"turns"`
}

// ClassifyRequest asks for a baseline classification.
type ClassifyRequest struct {
	Description string
	Transcript  Transcript
	Model       ModelConfig
}

// QuestionRequest asks for up to Max clarification questions.
type QuestionRequest struct {
	Description    string
	Classification taxonomy.Classification
	Transcript     Transcript
	Asked          []string
	Max            int
	Model          ModelConfig
}

// ExtractRequest asks for typed attribute values. Correction is set on the
// retry that follows an invalid response and describes what was wrong.
type ExtractRequest struct {
	Description string
	Turns       []Turn
	Attributes  []rules.Attribute
	Correction  string
	Model       ModelConfig
}

// RawAttribute is an attribute value as returned by the extraction capability,
// before it is checked against the attribute's declared type.
type RawAttribute struct {
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
	SourceSpan string  `json:"source_span,omitempty"`
}

// SummarizeRequest asks for a condensed summary of turns, folding in any prior summary.
type SummarizeRequest struct {
	PriorSummary string
	Turns        []Turn
	Model        ModelConfig
}

// Classifier produces baseline classifications.
type Classifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (Baseline, error)
}

// QuestionGenerator produces clarification questions.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]string, error)
}

// AttributeExtractor produces raw attribute values from a description and its Q&A.
type AttributeExtractor interface {
	ExtractAttributes(ctx context.Context, req ExtractRequest) (map[string]RawAttribute, error)
}

// Summarizer condenses older conversation turns.
type Summarizer interface {
	Summarize(ctx context.Context, req SummarizeRequest) (string, error)
}

// MatrixSource provides the active decision matrix. A nil matrix with a nil
// error means no matrix has been published.
type MatrixSource interface {
	LatestMatrix(ctx context.Context) (*rules.Matrix, error)
}

// Scrubber redacts sensitive content, reporting whether anything changed.
type Scrubber interface {
	Scrub(text string) (string, bool)
}

// EventKind names an audit event.
type EventKind string

const (
	EventSubmission       EventKind = "submission"
	EventClarification    EventKind = "clarification"
	EventClassification   EventKind = "classification"
	EventManualReview     EventKind = "manual_review"
	EventReclassification EventKind = "reclassification"
)

// Event is an audit record of one conversation turn. It never carries the
// description or answers, only whether scrubbing altered generated content.
type Event struct {
	ID             uuid.UUID         `json:"id"`
	ConversationID uuid.UUID         `json:"conversation_id"`
	Kind           EventKind         `json:"kind"`
	Phase          Phase             `json:"phase"`
	Step           int               `json:"step"`
	Provider       string            `json:"provider"`
	Model          string            `json:"model"`
	Latency        time.Duration     `json:"latency"`
	Category       taxonomy.Category `json:"category,omitempty"`
	Confidence     float64           `json:"confidence"`
	TriggeredRules []string          `json:"triggered_rules"`
	MatrixVersion  string            `json:"matrix_version,omitempty"`
	ForcedReason   ForceReason       `json:"forced_reason,omitempty"`
	Scrubbed       bool              `json:"scrubbed"`
	CreatedAt      time.Time         `json:"created_at"`
}

// AuditSink records audit events.
type AuditSink interface {
	Record(ctx context.Context, event Event) error
}

// Capabilities bundles the model-backed capabilities the router consumes.
type Capabilities struct {
	Classifier Classifier
	Questions  QuestionGenerator
	Extractor  AttributeExtractor
	Summarizer Summarizer
}

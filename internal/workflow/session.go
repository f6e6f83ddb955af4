package workflow

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/rules"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// Action is the baseline classifier's recommendation for the next step.
type Action string

const (
	ActionClarify      Action = "clarify"
	ActionManualReview Action = "manual_review"
	ActionAutoClassify Action = "auto_classify"
)

// Phase is the router's position in a conversation.
type Phase string

const (
	PhaseSubmitted   Phase = "submitted"
	PhaseClassifying Phase = "classifying"
	PhaseClarifying  Phase = "clarifying"
	PhaseExtracting  Phase = "extracting_attributes"
	PhaseEvaluating  Phase = "evaluating_matrix"
	PhaseCompleted   Phase = "completed"
	PhaseReview      Phase = "manual_review"
)

// Terminal reports whether no further turns are accepted in p.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseReview
}

// ClarifyState is the clarification loop controller's state.
type ClarifyState string

const (
	ClarifyNeeded   ClarifyState = "need_clarification"
	ClarifyAwaiting ClarifyState = "awaiting_answer"
	ClarifyReady    ClarifyState = "ready_to_classify"
	ClarifyForced   ClarifyState = "forced_classify"
)

// ForceReason explains a forced_classify transition.
type ForceReason string

const (
	ForceTurnCap      ForceReason = "turn_cap"
	ForceLoopDetected ForceReason = "loop_detected"
	ForceNoQuestions  ForceReason = "no_questions"
)

// Turn is one answered clarification question.
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Baseline is the classifier's classification and recommended action.
type Baseline struct {
	taxonomy.Classification
	Action Action `json:"action"`
}

// Result is the outcome of a completed evaluation pipeline run.
type Result struct {
	Classification   taxonomy.Classification `json:"classification"`
	Baseline         taxonomy.Classification `json:"baseline"`
	Evaluation       *rules.Evaluation       `json:"evaluation"`
	Attributes       rules.Values            `json:"attributes"`
	MatrixApplied    bool                    `json:"matrix_applied"`
	ForcedReason     ForceReason             `json:"forced_reason,omitempty"`
	Reclassification bool                    `json:"reclassification"`
	ConfidenceDelta  *float64                `json:"confidence_delta,omitempty"`
	CompletedAt      time.Time               `json:"completed_at"`
}

// Session is the full state of one conversation. The router takes a Session
// by value and returns the advanced copy, so a failed turn leaves the
// caller's copy untouched.
type Session struct {
	ID              uuid.UUID    `json:"id"`
	Description     string       `json:"description"`
	Turns           []Turn       `json:"turns"`
	Pending         []string     `json:"pending"`
	Asked           []string     `json:"asked"`
	Phase           Phase        `json:"phase"`
	Clarify         ClarifyState `json:"clarify_state,omitempty"`
	Summary         string       `json:"summary,omitempty"`
	SummarizedTurns int          `json:"summarized_turns"`
	Baseline        *Baseline    `json:"baseline,omitempty"`
	Result          *Result      `json:"result,omitempty"`
	ForcedReason    ForceReason  `json:"forced_reason,omitempty"`
	Steps           int          `json:"steps"`
}

// NewSession creates a session for a submitted process description.
func NewSession(description string) Session {
	return Session{
		ID:          uuid.New(),
		Description: description,
		Turns:       []Turn{},
		Pending:     []string{},
		Asked:       []string{},
		Phase:       PhaseSubmitted,
	}
}

// Clone returns a deep copy of s that shares no mutable state.
func (s Session) Clone() Session {
	s.Turns = slices.Clone(s.Turns)
	s.Pending = slices.Clone(s.Pending)
	s.Asked = slices.Clone(s.Asked)
	if s.Baseline != nil {
		b := *s.Baseline
		b.Classification = b.Classification.Clone()
		s.Baseline = &b
	}
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}

// Outcome reports what a turn produced.
type Outcome struct {
	Phase     Phase     `json:"phase"`
	Questions []string  `json:"questions,omitempty"`
	Baseline  *Baseline `json:"baseline,omitempty"`
	Result    *Result   `json:"result,omitempty"`
}

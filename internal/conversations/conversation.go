// Package conversations persists classification conversations and drives
// them through the workflow router. Every mutating operation holds the
// conversation's lock for its whole turn, so concurrent answers to one
// conversation are applied one at a time.
package conversations

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/pathfinder/internal/classifications"
	"github.com/JaimeStill/pathfinder/internal/taxonomy"
	"github.com/JaimeStill/pathfinder/internal/workflow"
)

// Conversation is a stored session with its ownership and timestamps.
type Conversation struct {
	ID          uuid.UUID        `json:"id"`
	Phase       workflow.Phase   `json:"phase"`
	SubmittedBy string           `json:"submitted_by"`
	Session     workflow.Session `json:"session"`
	Revision    int              `json:"revision"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// StartCommand submits a process description.
type StartCommand struct {
	Description string `json:"description"`
	SubmittedBy string `json:"submitted_by"`
}

// RespondCommand answers the pending questions, in order.
type RespondCommand struct {
	Answers []string `json:"answers"`
}

// ReclassifyCommand selects completed conversations for batch
// reclassification. An empty command selects all of them.
type ReclassifyCommand struct {
	Category *taxonomy.Category `json:"category,omitempty"`
	Limit    int                `json:"limit,omitempty"`
}

// Turn is the result of one mutating operation: the saved conversation, what
// the turn produced, and the classification record it appended, if any.
type Turn struct {
	Conversation   *Conversation                   `json:"conversation"`
	Outcome        workflow.Outcome                `json:"outcome"`
	Classification *classifications.Classification `json:"classification,omitempty"`
}

// ReclassifyFailure records one conversation a batch could not reclassify.
type ReclassifyFailure struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	Error          string    `json:"error"`
}

// ReclassifySummary reports a batch reclassification.
type ReclassifySummary struct {
	Total        int                 `json:"total"`
	Reclassified int                 `json:"reclassified"`
	Failures     []ReclassifyFailure `json:"failures"`
}

// Workflow is the router contract the conversations system drives.
// *workflow.Router satisfies it.
type Workflow interface {
	Submit(ctx context.Context, description string) (workflow.Session, workflow.Outcome, error)
	Respond(ctx context.Context, s workflow.Session, answers []string) (workflow.Session, workflow.Outcome, error)
	Reclassify(ctx context.Context, s workflow.Session) (workflow.Session, *workflow.Result, error)
}

func (cmd StartCommand) normalize() StartCommand {
	cmd.Description = strings.TrimSpace(cmd.Description)
	cmd.SubmittedBy = strings.TrimSpace(cmd.SubmittedBy)
	if cmd.SubmittedBy == "" {
		cmd.SubmittedBy = "anonymous"
	}
	return cmd
}

func lockKey(id uuid.UUID) string {
	return "conversation:" + id.String()
}

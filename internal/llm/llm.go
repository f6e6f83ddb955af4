// Package llm binds the workflow capabilities (classify, clarify, extract,
// summarize) to a chat model. Two backends are supported: go-agents, which
// the rest of the service configures through its agent config, and eino for
// OpenAI-compatible and Ollama endpoints.
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/JaimeStill/pathfinder/internal/workflow"
)

// Backend names a chat client implementation.
type Backend string

const (
	BackendAgents Backend = "agents"
	BackendEino   Backend = "eino"
)

// ErrUnsupportedBackend is returned by NewClient for an unknown backend or provider.
var ErrUnsupportedBackend = errors.New("unsupported llm backend")

// Prompt is one chat exchange: system instructions and the user message.
type Prompt struct {
	System string
	User   string
}

// Client sends a prompt to a chat model and returns the reply text.
type Client interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// rejectedStatus matches a non-retryable 4xx only where the message reports
// it as a status: after a status or response label, or before its reason
// phrase. Numbers elsewhere in a URL or message body are ignored.
var rejectedStatus = regexp.MustCompile(
	`(?:status(?:[ _]?code)?|response|http)[\s:=]*(?:400|401|403|404|413|422)\b` +
		`|\b(?:400 bad request|401 unauthorized|403 forbidden|404 not found|413 (?:request entity|payload) too large|422 unprocessable)`,
)

// classifyError marks failures that retrying cannot fix as rejections.
// Transport errors, timeouts, throttling and 5xx responses stay retryable.
func classifyError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := strings.ToLower(err.Error())
	if rejectedStatus.MatchString(msg) ||
		strings.Contains(msg, "content_filter") ||
		strings.Contains(msg, "content management policy") ||
		strings.Contains(msg, "invalid api key") {
		return fmt.Errorf("%w: %w", workflow.ErrCapabilityRejected, err)
	}
	return err
}

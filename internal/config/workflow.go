package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/pathfinder/internal/workflow"
)

const (
	EnvWorkflowMaxTurns             = "PATHFINDER_WORKFLOW_MAX_TURNS"
	EnvWorkflowMaxQuestions         = "PATHFINDER_WORKFLOW_MAX_QUESTIONS"
	EnvWorkflowCompressionThreshold = "PATHFINDER_WORKFLOW_COMPRESSION_THRESHOLD"
	EnvWorkflowSimilarityThreshold  = "PATHFINDER_WORKFLOW_SIMILARITY_THRESHOLD"
	EnvWorkflowCallTimeout          = "PATHFINDER_WORKFLOW_CALL_TIMEOUT"
	EnvWorkflowMaxAttempts          = "PATHFINDER_WORKFLOW_MAX_ATTEMPTS"
	EnvWorkflowInitialBackoff       = "PATHFINDER_WORKFLOW_INITIAL_BACKOFF"
	EnvWorkflowMaxBackoff           = "PATHFINDER_WORKFLOW_MAX_BACKOFF"
	EnvWorkflowReclassifyWorkers    = "PATHFINDER_WORKFLOW_RECLASSIFY_WORKERS"
)

// WorkflowConfig holds the conversation limits and the retry policy applied
// to every model call.
type WorkflowConfig struct {
	MaxTurns             int     `toml:"max_turns"`
	MaxQuestions         int     `toml:"max_questions"`
	CompressionThreshold int     `toml:"compression_threshold"`
	SimilarityThreshold  float64 `toml:"similarity_threshold"`
	CallTimeout          string  `toml:"call_timeout"`
	MaxAttempts          int     `toml:"max_attempts"`
	InitialBackoff       string  `toml:"initial_backoff"`
	MaxBackoff           string  `toml:"max_backoff"`
	ReclassifyWorkers    int     `toml:"reclassify_workers"`
}

// Options converts the section into workflow options for model.
func (c *WorkflowConfig) Options(model workflow.ModelConfig) workflow.Options {
	return workflow.Options{
		MaxTurns:             c.MaxTurns,
		MaxQuestions:         c.MaxQuestions,
		CompressionThreshold: c.CompressionThreshold,
		SimilarityThreshold:  c.SimilarityThreshold,
		Retry: workflow.RetryPolicy{
			Timeout:         duration(c.CallTimeout),
			MaxAttempts:     uint(c.MaxAttempts),
			InitialInterval: duration(c.InitialBackoff),
			MaxInterval:     duration(c.MaxBackoff),
		},
		Model: model,
	}
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WorkflowConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WorkflowConfig) Merge(overlay *WorkflowConfig) {
	if overlay.MaxTurns != 0 {
		c.MaxTurns = overlay.MaxTurns
	}
	if overlay.MaxQuestions != 0 {
		c.MaxQuestions = overlay.MaxQuestions
	}
	if overlay.CompressionThreshold != 0 {
		c.CompressionThreshold = overlay.CompressionThreshold
	}
	if overlay.SimilarityThreshold != 0 {
		c.SimilarityThreshold = overlay.SimilarityThreshold
	}
	if overlay.CallTimeout != "" {
		c.CallTimeout = overlay.CallTimeout
	}
	if overlay.MaxAttempts != 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	if overlay.InitialBackoff != "" {
		c.InitialBackoff = overlay.InitialBackoff
	}
	if overlay.MaxBackoff != "" {
		c.MaxBackoff = overlay.MaxBackoff
	}
	if overlay.ReclassifyWorkers != 0 {
		c.ReclassifyWorkers = overlay.ReclassifyWorkers
	}
}

func (c *WorkflowConfig) loadDefaults() {
	d := workflow.DefaultOptions()
	if c.MaxTurns == 0 {
		c.MaxTurns = d.MaxTurns
	}
	if c.MaxQuestions == 0 {
		c.MaxQuestions = d.MaxQuestions
	}
	if c.CompressionThreshold == 0 {
		c.CompressionThreshold = d.CompressionThreshold
	}
	if c.SimilarityThreshold == 0 {
		c.SimilarityThreshold = d.SimilarityThreshold
	}
	if c.CallTimeout == "" {
		c.CallTimeout = d.Retry.Timeout.String()
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = int(d.Retry.MaxAttempts)
	}
	if c.InitialBackoff == "" {
		c.InitialBackoff = d.Retry.InitialInterval.String()
	}
	if c.MaxBackoff == "" {
		c.MaxBackoff = d.Retry.MaxInterval.String()
	}
	if c.ReclassifyWorkers == 0 {
		c.ReclassifyWorkers = 4
	}
}

func (c *WorkflowConfig) loadEnv() {
	setInt := func(env string, dst *int) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString := func(env string, dst *string) {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}

	setInt(EnvWorkflowMaxTurns, &c.MaxTurns)
	setInt(EnvWorkflowMaxQuestions, &c.MaxQuestions)
	setInt(EnvWorkflowCompressionThreshold, &c.CompressionThreshold)
	setInt(EnvWorkflowMaxAttempts, &c.MaxAttempts)
	setInt(EnvWorkflowReclassifyWorkers, &c.ReclassifyWorkers)
	setString(EnvWorkflowCallTimeout, &c.CallTimeout)
	setString(EnvWorkflowInitialBackoff, &c.InitialBackoff)
	setString(EnvWorkflowMaxBackoff, &c.MaxBackoff)

	if v := os.Getenv(EnvWorkflowSimilarityThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.SimilarityThreshold = f
		}
	}
}

func (c *WorkflowConfig) validate() error {
	if c.MaxTurns < 1 {
		return fmt.Errorf("max_turns must be positive: %d", c.MaxTurns)
	}
	if c.MaxQuestions < 1 {
		return fmt.Errorf("max_questions must be positive: %d", c.MaxQuestions)
	}
	if c.CompressionThreshold < 1 {
		return fmt.Errorf("compression_threshold must be positive: %d", c.CompressionThreshold)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be in (0, 1]: %v", c.SimilarityThreshold)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive: %d", c.MaxAttempts)
	}
	if c.ReclassifyWorkers < 1 {
		return fmt.Errorf("reclassify_workers must be positive: %d", c.ReclassifyWorkers)
	}
	for name, v := range map[string]string{
		"call_timeout":    c.CallTimeout,
		"initial_backoff": c.InitialBackoff,
		"max_backoff":     c.MaxBackoff,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %q", name, v)
		}
	}
	return nil
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

package workflow

import "time"

// Options holds the workflow limits. Zero values are replaced by
// DefaultOptions values in Normalize.
type Options struct {
	MaxTurns             int
	MaxQuestions         int
	CompressionThreshold int
	SimilarityThreshold  float64
	Retry                RetryPolicy
	Model                ModelConfig
}

// RetryPolicy bounds every capability call.
type RetryPolicy struct {
	Timeout         time.Duration
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultOptions returns the standard limits: 15 turns, 3 questions per
// round, compression past 5 turns, and 3 attempts of 30s with backoff from 1s.
func DefaultOptions() Options {
	return Options{
		MaxTurns:             15,
		MaxQuestions:         3,
		CompressionThreshold: 5,
		SimilarityThreshold:  0.9,
		Retry: RetryPolicy{
			Timeout:         30 * time.Second,
			MaxAttempts:     3,
			InitialInterval: time.Second,
			MaxInterval:     8 * time.Second,
		},
	}
}

// Normalize fills unset fields from DefaultOptions.
func (o Options) Normalize() Options {
	d := DefaultOptions()
	if o.MaxTurns <= 0 {
		o.MaxTurns = d.MaxTurns
	}
	if o.MaxQuestions <= 0 {
		o.MaxQuestions = d.MaxQuestions
	}
	if o.CompressionThreshold <= 0 {
		o.CompressionThreshold = d.CompressionThreshold
	}
	if o.SimilarityThreshold <= 0 || o.SimilarityThreshold > 1 {
		o.SimilarityThreshold = d.SimilarityThreshold
	}
	if o.Retry.Timeout <= 0 {
		o.Retry.Timeout = d.Retry.Timeout
	}
	if o.Retry.MaxAttempts == 0 {
		o.Retry.MaxAttempts = d.Retry.MaxAttempts
	}
	if o.Retry.InitialInterval <= 0 {
		o.Retry.InitialInterval = d.Retry.InitialInterval
	}
	if o.Retry.MaxInterval < o.Retry.InitialInterval {
		o.Retry.MaxInterval = max(d.Retry.MaxInterval, o.Retry.InitialInterval)
	}
	return o
}

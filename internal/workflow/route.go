package workflow

// Decision is the router's next step after a baseline classification.
type Decision string

const (
	DecideClarify      Decision = "clarify"
	DecideManualReview Decision = "manual_review"
	DecideEvaluate     Decision = "evaluate"
	DecideForced       Decision = "forced"
)

// Route decides the next step from the classifier's recommendation and the
// number of answered turns. It defers to the classifier's action and only
// enforces the turn cap: a clarify recommendation at or past maxTurns becomes
// a forced classification. Unrecognised actions are treated as clarify.
func Route(baseline Baseline, turns, maxTurns int) Decision {
	switch baseline.Action {
	case ActionManualReview:
		return DecideManualReview
	case ActionAutoClassify:
		return DecideEvaluate
	}

	if turns >= maxTurns {
		return DecideForced
	}
	return DecideClarify
}

package taxonomy

// Classification is a category assignment with its supporting reasoning.
type Classification struct {
	Category            Category `json:"category"`
	Confidence          float64  `json:"confidence"`
	Rationale           string   `json:"rationale"`
	CategoryProgression string   `json:"category_progression,omitempty"`
	FutureOpportunities []string `json:"future_opportunities,omitempty"`
}

// Clamp bounds a confidence value to [0, 1].
func Clamp(confidence float64) float64 {
	return min(max(confidence, 0), 1)
}

// Clone returns a copy that shares no slices with c.
func (c Classification) Clone() Classification {
	if c.FutureOpportunities != nil {
		c.FutureOpportunities = append([]string(nil), c.FutureOpportunities...)
	}
	return c
}

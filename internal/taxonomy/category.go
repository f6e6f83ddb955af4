// Package taxonomy defines the transformation categories a business process
// can be classified into and the classification value shared by the
// workflow, rule engine, and persistence layers.
package taxonomy

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCategory is returned when a value does not name one of the six categories.
var ErrInvalidCategory = errors.New("category must be one of Eliminate, Simplify, Digitise, RPA, AI Agent, Agentic AI")

// Category is a transformation category.
type Category string

// The six canonical categories, ordered from least to most automation.
const (
	Eliminate Category = "Eliminate"
	Simplify  Category = "Simplify"
	Digitise  Category = "Digitise"
	RPA       Category = "RPA"
	AIAgent   Category = "AI Agent"
	AgenticAI Category = "Agentic AI"
)

var categories = []Category{
	Eliminate,
	Simplify,
	Digitise,
	RPA,
	AIAgent,
	AgenticAI,
}

var aliases = map[string]Category{
	"eliminate":  Eliminate,
	"simplify":   Simplify,
	"digitise":   Digitise,
	"digitize":   Digitise,
	"rpa":        RPA,
	"aiagent":    AIAgent,
	"agenticai":  AgenticAI,
	"agentic":    AgenticAI,
	"automation": RPA,
}

// Categories returns the canonical categories in ladder order.
func Categories() []Category {
	return categories
}

// ParseCategory resolves s to a canonical category. Matching ignores case,
// whitespace, hyphens and underscores, so "ai_agent" and "AI-Agent" both
// resolve to AIAgent.
func ParseCategory(s string) (Category, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))

	if c, ok := aliases[key]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	for _, v := range categories {
		if v == c {
			return true
		}
	}
	return false
}

// Rank returns the position of c on the automation ladder, or -1.
func (c Category) Rank() int {
	for i, v := range categories {
		if v == c {
			return i
		}
	}
	return -1
}

// UnmarshalJSON accepts any spelling ParseCategory accepts. An empty string
// decodes to the zero Category, the value stored for fields never set.
func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*c = ""
		return nil
	}
	v, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// UnmarshalText supports YAML and TOML decoders.
func (c *Category) UnmarshalText(text []byte) error {
	v, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

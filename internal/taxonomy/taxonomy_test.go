package taxonomy_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input string
		want  taxonomy.Category
	}{
		{"Eliminate", taxonomy.Eliminate},
		{"simplify", taxonomy.Simplify},
		{"Digitize", taxonomy.Digitise},
		{" RPA ", taxonomy.RPA},
		{"ai_agent", taxonomy.AIAgent},
		{"AI-Agent", taxonomy.AIAgent},
		{"Agentic AI", taxonomy.AgenticAI},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := taxonomy.ParseCategory(tt.input)
			if err != nil {
				t.Fatalf("ParseCategory(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCategoryInvalid(t *testing.T) {
	for _, input := range []string{"", "outsource", "AI"} {
		if _, err := taxonomy.ParseCategory(input); !errors.Is(err, taxonomy.ErrInvalidCategory) {
			t.Errorf("ParseCategory(%q) err = %v, want ErrInvalidCategory", input, err)
		}
	}
}

func TestCategoryUnmarshalJSON(t *testing.T) {
	var c taxonomy.Classification
	if err := json.Unmarshal([]byte(`{"category":"agentic_ai","confidence":0.7}`), &c); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if c.Category != taxonomy.AgenticAI {
		t.Errorf("category = %q, want %q", c.Category, taxonomy.AgenticAI)
	}

	if err := json.Unmarshal([]byte(`{"category":"teleport"}`), &c); !errors.Is(err, taxonomy.ErrInvalidCategory) {
		t.Errorf("err = %v, want ErrInvalidCategory", err)
	}
}

func TestCategoryUnmarshalJSONEmpty(t *testing.T) {
	c := taxonomy.RPA
	if err := json.Unmarshal([]byte(`""`), &c); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if c != "" || c.Valid() {
		t.Errorf("category = %q, want zero value", c)
	}
}

func TestCategoryRank(t *testing.T) {
	if taxonomy.Eliminate.Rank() != 0 || taxonomy.AgenticAI.Rank() != 5 {
		t.Errorf("unexpected ladder order: %v", taxonomy.Categories())
	}
	if taxonomy.Category("other").Rank() != -1 {
		t.Error("unknown category should rank -1")
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.2, 0},
		{0, 0},
		{0.42, 0.42},
		{1.5, 1},
	}

	for _, tt := range tests {
		if got := taxonomy.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

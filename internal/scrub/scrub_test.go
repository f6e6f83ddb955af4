package scrub_test

import (
	"regexp"
	"testing"

	"github.com/JaimeStill/pathfinder/internal/scrub"
)

func TestScrub(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        string
		wantAltered bool
	}{
		{
			name:  "clean question",
			input: "How many purchase orders are raised each month?",
			want:  "How many purchase orders are raised each month?",
		},
		{
			name:        "email",
			input:       "Should we contact jane.doe@example.com about approvals?",
			want:        "Should we contact [email] about approvals?",
			wantAltered: true,
		},
		{
			name:        "card number",
			input:       "Is card 4111 1111 1111 1111 used for payment?",
			want:        "Is card [card] used for payment?",
			wantAltered: true,
		},
		{
			name:        "ssn",
			input:       "Is 123-45-6789 the employee's record?",
			want:        "Is [national-id] the employee's record?",
			wantAltered: true,
		},
		{
			name:        "national insurance",
			input:       "Does AB 12 34 56 C belong to the claimant?",
			want:        "Does [national-id] belong to the claimant?",
			wantAltered: true,
		},
		{
			name:        "phone",
			input:       "Is the helpdesk on +44 20 7946 0958?",
			want:        "Is the helpdesk on [phone]?",
			wantAltered: true,
		},
	}

	s := scrub.New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, altered := s.Scrub(tt.input)
			if got != tt.want {
				t.Errorf("Scrub() = %q, want %q", got, tt.want)
			}
			if altered != tt.wantAltered {
				t.Errorf("altered = %v, want %v", altered, tt.wantAltered)
			}
		})
	}
}

func TestCustomRules(t *testing.T) {
	s := scrub.New(scrub.Rule{
		Name:        "ticket",
		Pattern:     regexp.MustCompile(`TICKET-\d+`),
		Replacement: "[ticket]",
	})

	got, altered := s.Scrub("Is TICKET-4411 still open? Contact a@b.io")
	if got != "Is [ticket] still open? Contact a@b.io" || !altered {
		t.Errorf("Scrub() = %q, %v", got, altered)
	}
}

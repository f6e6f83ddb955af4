// Package scrub redacts personal data from model-generated text before it is
// shown to a user or persisted.
package scrub

import (
	"regexp"
	"strings"
	"unicode"
)

// Rule replaces every match of Pattern with Replacement.
type Rule struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
	// Check optionally vetoes a match, leaving it in place.
	Check func(match string) bool
}

// DefaultRules cover e-mail addresses, payment card numbers, national
// insurance and social security numbers, and phone numbers. Order matters:
// card numbers are matched before the broader phone pattern.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "email",
			Pattern:     regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`),
			Replacement: "[email]",
		},
		{
			Name:        "card",
			Pattern:     regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
			Replacement: "[card]",
			Check:       luhn,
		},
		{
			Name:        "national_insurance",
			Pattern:     regexp.MustCompile(`(?i)\b[a-ceghj-pr-tw-z]{2}\s?\d{2}\s?\d{2}\s?\d{2}\s?[a-d]\b`),
			Replacement: "[national-id]",
		},
		{
			Name:        "ssn",
			Pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Replacement: "[national-id]",
		},
		{
			Name:        "phone",
			Pattern:     regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(?\d{1,5}\)?[\s.\-])?\d{3,5}[\s.\-]\d{3,4}\b`),
			Replacement: "[phone]",
		},
	}
}

// Scrubber applies an ordered set of redaction rules.
type Scrubber struct {
	rules []Rule
}

// New creates a Scrubber with rules, or DefaultRules when none are given.
func New(rules ...Rule) *Scrubber {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Scrubber{rules: rules}
}

// Scrub returns text with every rule applied and whether anything changed.
func (s *Scrubber) Scrub(text string) (string, bool) {
	out := text
	for _, r := range s.rules {
		out = r.Pattern.ReplaceAllStringFunc(out, func(m string) string {
			if r.Check != nil && !r.Check(m) {
				return m
			}
			return r.Replacement
		})
	}
	return out, out != text
}

// luhn reports whether the digits in s pass the Luhn checksum.
func luhn(s string) bool {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return len(digits) >= 13 && sum%10 == 0
}

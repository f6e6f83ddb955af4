package rules

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		return validCategory(fl.Field().String())
	})
	return v
}

// Validate checks a matrix definition before it is published. Every problem
// found is reported; the returned error wraps ErrInvalidMatrix.
func Validate(m *Matrix) error {
	var issues []error

	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				issues = append(issues, fmt.Errorf("%s: failed %s", fe.Namespace(), describe(fe)))
			}
		} else {
			issues = append(issues, err)
		}
	}

	issues = append(issues, semanticIssues(m)...)

	if len(issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidMatrix, errors.Join(issues...))
}

// Issues flattens an error returned by Validate into one message per problem.
func Issues(err error) []string {
	if err == nil {
		return nil
	}
	multi, ok := err.(interface{ Unwrap() []error })
	if !ok {
		return []string{err.Error()}
	}
	var issues []string
	for _, e := range multi.Unwrap() {
		if e == ErrInvalidMatrix {
			continue
		}
		issues = append(issues, Issues(e)...)
	}
	return issues
}

func describe(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
	}
	return fe.Tag()
}

func semanticIssues(m *Matrix) []error {
	var issues []error

	attrs := make(map[string]Attribute, len(m.Attributes))
	for i, a := range m.Attributes {
		if _, dup := attrs[a.Name]; dup {
			issues = append(issues, fmt.Errorf("attributes[%d]: duplicate attribute %q", i, a.Name))
			continue
		}
		attrs[a.Name] = a

		if a.Type == Categorical && len(a.PossibleValues) == 0 {
			issues = append(issues, fmt.Errorf("attributes[%d]: categorical attribute %q requires possible_values", i, a.Name))
		}
	}

	ids := make(map[string]struct{}, len(m.Rules))
	for i, r := range m.Rules {
		if _, dup := ids[r.ID]; dup && r.ID != "" {
			issues = append(issues, fmt.Errorf("rules[%d]: duplicate rule_id %q", i, r.ID))
		}
		ids[r.ID] = struct{}{}

		for j, c := range r.Conditions {
			path := fmt.Sprintf("rules[%d].conditions[%d]", i, j)

			attr, ok := attrs[c.Attribute]
			if !ok {
				issues = append(issues, fmt.Errorf("%s: unknown attribute %q", path, c.Attribute))
				continue
			}

			if err := checkConditionValue(attr, c); err != nil {
				issues = append(issues, fmt.Errorf("%s: %w", path, err))
			}
		}

		switch r.Action.Type {
		case Override:
			if r.Action.TargetCategory == "" {
				issues = append(issues, fmt.Errorf("rules[%d].action: override requires target_category", i))
			}
		case AdjustConfidence:
			if r.Action.Delta == 0 {
				issues = append(issues, fmt.Errorf("rules[%d].action: adjust_confidence requires a non-zero delta", i))
			}
		}
	}

	return issues
}

func checkConditionValue(attr Attribute, c Condition) error {
	switch c.Operator {
	case GreaterThan, LessThan, GreaterOrEqual, LessOrEqual:
		if attr.Type != Numeric {
			return fmt.Errorf("operator %s requires a numeric attribute, %q is %s", c.Operator, attr.Name, attr.Type)
		}
		if _, ok := asNumber(c.Value); !ok {
			return fmt.Errorf("operator %s requires a numeric value", c.Operator)
		}
	case In:
		items, ok := asList(c.Value)
		if !ok || len(items) == 0 {
			return fmt.Errorf("operator in requires a non-empty list value")
		}
	case Contains:
		if attr.Type != Categorical {
			return fmt.Errorf("operator contains requires a categorical attribute, %q is %s", attr.Name, attr.Type)
		}
		if _, ok := asString(c.Value); !ok {
			return fmt.Errorf("operator contains requires a string value")
		}
	case Equals, NotEquals:
		if _, err := Coerce(attr, c.Value); err != nil {
			return err
		}
	}
	return nil
}

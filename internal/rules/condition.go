package rules

import "strings"

// EvaluateCondition reports whether c holds for values.
// It fails closed: a missing attribute, a value that cannot be coerced to the
// comparison's type, or an unknown operator all evaluate to false.
func EvaluateCondition(c Condition, values Values) bool {
	actual, ok := values.Lookup(c.Attribute)
	if !ok {
		return false
	}

	switch c.Operator {
	case Equals:
		eq, ok := equal(actual, c.Value)
		return ok && eq
	case NotEquals:
		eq, ok := equal(actual, c.Value)
		return ok && !eq
	case GreaterThan:
		return compare(actual, c.Value, func(a, b float64) bool { return a > b })
	case LessThan:
		return compare(actual, c.Value, func(a, b float64) bool { return a < b })
	case GreaterOrEqual:
		return compare(actual, c.Value, func(a, b float64) bool { return a >= b })
	case LessOrEqual:
		return compare(actual, c.Value, func(a, b float64) bool { return a <= b })
	case Contains:
		return contains(actual, c.Value)
	case In:
		return in(actual, c.Value)
	}

	return false
}

// equal compares actual with expected by actual's kind. The second result is
// false when expected cannot be coerced to that kind.
func equal(actual Value, expected any) (bool, bool) {
	switch v := actual.(type) {
	case NumericValue:
		n, ok := asNumber(expected)
		if !ok {
			return false, false
		}
		return float64(v) == n, true
	case BooleanValue:
		b, ok := asBool(expected)
		if !ok {
			return false, false
		}
		return bool(v) == b, true
	case CategoricalValue:
		s, ok := asString(expected)
		if !ok {
			return false, false
		}
		return strings.EqualFold(strings.TrimSpace(string(v)), strings.TrimSpace(s)), true
	}
	return false, false
}

func compare(actual Value, expected any, cmp func(a, b float64) bool) bool {
	a, ok := asNumber(actual)
	if !ok {
		return false
	}
	b, ok := asNumber(expected)
	if !ok {
		return false
	}
	return cmp(a, b)
}

func contains(actual Value, expected any) bool {
	needle, ok := asString(expected)
	if !ok {
		return false
	}
	needle = strings.ToLower(strings.TrimSpace(needle))

	switch v := actual.(type) {
	case CategoricalValue:
		return strings.Contains(strings.ToLower(string(v)), needle)
	case ListValue:
		for _, item := range v {
			if strings.ToLower(strings.TrimSpace(item)) == needle {
				return true
			}
		}
	}
	return false
}

func in(actual Value, expected any) bool {
	candidates, ok := asList(expected)
	if !ok {
		return false
	}

	if list, ok := actual.(ListValue); ok {
		for _, item := range list {
			if in(CategoricalValue(item), candidates) {
				return true
			}
		}
		return false
	}

	for _, candidate := range candidates {
		if eq, ok := equal(actual, candidate); ok && eq {
			return true
		}
	}
	return false
}

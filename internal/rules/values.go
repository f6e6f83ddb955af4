package rules

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/JaimeStill/pathfinder/internal/taxonomy"
)

// Value is a typed attribute value. Implementations are NumericValue,
// CategoricalValue, BooleanValue and ListValue.
type Value interface {
	Type() AttributeType
	String() string
	raw() any
}

// NumericValue holds a numeric attribute value.
type NumericValue float64

// CategoricalValue holds a single categorical attribute value.
type CategoricalValue string

// BooleanValue holds a boolean attribute value.
type BooleanValue bool

// ListValue holds a multi-valued categorical attribute value.
type ListValue []string

func (NumericValue) Type() AttributeType     { return Numeric }
func (CategoricalValue) Type() AttributeType { return Categorical }
func (BooleanValue) Type() AttributeType     { return Boolean }
func (ListValue) Type() AttributeType        { return Categorical }

func (v NumericValue) String() string     { return strconv.FormatFloat(float64(v), 'f', -1, 64) }
func (v CategoricalValue) String() string { return string(v) }
func (v BooleanValue) String() string     { return strconv.FormatBool(bool(v)) }
func (v ListValue) String() string        { return strings.Join(v, ", ") }

func (v NumericValue) raw() any     { return float64(v) }
func (v CategoricalValue) raw() any { return string(v) }
func (v BooleanValue) raw() any     { return bool(v) }
func (v ListValue) raw() any        { return []string(v) }

// ExtractedValue is an attribute value with the extractor's certainty.
type ExtractedValue struct {
	Value      Value
	Confidence float64
	SourceSpan string
}

type extractedValueJSON struct {
	Value      any           `json:"value"`
	Type       AttributeType `json:"type"`
	Confidence float64       `json:"confidence"`
	SourceSpan string        `json:"source_span,omitempty"`
}

func (e ExtractedValue) MarshalJSON() ([]byte, error) {
	out := extractedValueJSON{
		Confidence: e.Confidence,
		SourceSpan: e.SourceSpan,
	}
	if e.Value != nil {
		out.Value = e.Value.raw()
		out.Type = e.Value.Type()
	}
	return json.Marshal(out)
}

func (e *ExtractedValue) UnmarshalJSON(data []byte) error {
	var in extractedValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	e.Confidence = in.Confidence
	e.SourceSpan = in.SourceSpan
	e.Value = nil

	if in.Value == nil {
		return nil
	}

	v, err := Coerce(Attribute{Type: in.Type}, in.Value)
	if err != nil {
		return err
	}
	e.Value = v
	return nil
}

// Values maps attribute names to extracted values.
type Values map[string]ExtractedValue

// Lookup returns the value extracted for name, if any.
func (v Values) Lookup(name string) (Value, bool) {
	ev, ok := v[name]
	if !ok || ev.Value == nil {
		return nil, false
	}
	return ev.Value, true
}

// Names returns the attribute names present in v.
func (v Values) Names() []string {
	names := make([]string, 0, len(v))
	for name, ev := range v {
		if ev.Value != nil {
			names = append(names, name)
		}
	}
	return names
}

// Coerce converts a raw decoded value into the Value matching attr's type.
// Numerics accept numbers and numeric strings, booleans accept true/false and
// yes/no, and categorical values are canonicalised to the spelling in
// attr.PossibleValues when that list is non-empty.
func Coerce(attr Attribute, raw any) (Value, error) {
	switch attr.Type {
	case Numeric:
		n, ok := asNumber(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q expects a number, got %v", ErrInvalidValue, attr.Name, raw)
		}
		return NumericValue(n), nil

	case Boolean:
		b, ok := asBool(raw)
		if !ok {
			return nil, fmt.Errorf("%w: %q expects a boolean, got %v", ErrInvalidValue, attr.Name, raw)
		}
		return BooleanValue(b), nil

	case Categorical:
		if items, ok := asList(raw); ok {
			list := make(ListValue, 0, len(items))
			for _, item := range items {
				s, err := canonical(attr, item)
				if err != nil {
					return nil, err
				}
				list = append(list, s)
			}
			return list, nil
		}
		s, err := canonical(attr, raw)
		if err != nil {
			return nil, err
		}
		return CategoricalValue(s), nil
	}

	return nil, fmt.Errorf("%w: %q has unknown type %q", ErrInvalidValue, attr.Name, attr.Type)
}

// ValuesFromMap coerces a plain name to value map against m's attributes.
// Entries that are unknown or fail coercion are reported and skipped.
// Coerced values carry full confidence.
func ValuesFromMap(m *Matrix, raw map[string]any) (Values, []error) {
	values := make(Values, len(raw))
	var errs []error

	for name, v := range raw {
		attr, ok := m.Attribute(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: unknown attribute %q", ErrInvalidValue, name))
			continue
		}
		value, err := Coerce(attr, v)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values[name] = ExtractedValue{Value: value, Confidence: 1}
	}

	return values, errs
}

func canonical(attr Attribute, raw any) (string, error) {
	s, ok := asString(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q expects a string, got %v", ErrInvalidValue, attr.Name, raw)
	}
	s = strings.TrimSpace(s)

	if len(attr.PossibleValues) == 0 {
		return s, nil
	}
	for _, pv := range attr.PossibleValues {
		if strings.EqualFold(pv, s) {
			return pv, nil
		}
	}
	return "", fmt.Errorf("%w: %q must be one of %v, got %q", ErrInvalidValue, attr.Name, attr.PossibleValues, s)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case NumericValue:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case CategoricalValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		return f, err == nil
	}
	return 0, false
}

func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case BooleanValue:
		return bool(b), true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y":
			return true, true
		case "false", "no", "n":
			return false, true
		}
	}
	return false, false
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case CategoricalValue:
		return string(s), true
	case bool, float64, float32, int, int64, int32, json.Number:
		return fmt.Sprint(s), true
	}
	return "", false
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case ListValue:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(l))
		for i, f := range l {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}

func validCategory(s string) bool {
	return taxonomy.Category(s).Valid()
}

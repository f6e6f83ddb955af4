package rules

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeMatrix reads a matrix definition from JSON or YAML.
func DecodeMatrix(data []byte) (*Matrix, error) {
	var m Matrix
	if err := decode(data, &m); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	return &m, nil
}

// DecodeValues reads a plain attribute name to value map from JSON or YAML.
func DecodeValues(data []byte) (map[string]any, error) {
	raw := make(map[string]any)
	if err := decode(data, &raw); err != nil {
		return nil, fmt.Errorf("decode values: %w", err)
	}
	return raw, nil
}

func decode(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return json.Unmarshal(trimmed, v)
	}
	return yaml.Unmarshal(trimmed, v)
}

// Package valueobject holds small value types shared by persistence adapters.
package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ErrUnsupportedJSONSource is returned by Scan for values that are not JSON text.
var ErrUnsupportedJSONSource = errors.New("valueobject: unsupported json source")

// JSONMap is a JSON object stored in a JSONB column, such as audit metadata.
// @swaggertype object
type JSONMap map[string]any

// Value encodes the map; a nil map is stored as an empty object.
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(j))
}

func (j *JSONMap) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case map[string]any:
		*j = JSONMap(v)
		return nil
	default:
		return ErrUnsupportedJSONSource
	}

	out := JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*j = out

	return nil
}

// With returns j with key set, allocating when j is nil. Empty strings are skipped.
func (j JSONMap) With(key string, value any) JSONMap {
	if s, ok := value.(string); ok && s == "" {
		return j
	}
	if j == nil {
		j = JSONMap{}
	}
	j[key] = value
	return j
}

// String returns the value under key when it is a string.
func (j JSONMap) String(key string) string {
	s, _ := j[key].(string)
	return s
}

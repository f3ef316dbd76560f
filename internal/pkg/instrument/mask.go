package instrument

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

const masked = "***"

// Masker redacts sensitive values by key, case-insensitively. It is used by the
// slog handler and by the HTTP request/response logger.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker from field names. Blank names are ignored.
func NewMasker(fields []string) Masker {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}
	return Masker{keys: keys}
}

func (m Masker) Empty() bool {
	return len(m.keys) == 0
}

func (m Masker) has(key string) bool {
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Data redacts matching keys inside decoded JSON (maps and slices, recursively).
func (m Masker) Data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.has(k) {
				out[k] = masked
				continue
			}
			out[k] = m.Data(v2)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.has(k) {
				out[k] = masked
				continue
			}
			out[k] = v2
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = m.Data(v2)
		}
		return out
	default:
		return v
	}
}

// JSON redacts a JSON document. ok is false when payload is not a JSON object or array.
func (m Masker) JSON(payload []byte) (any, bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return nil, false
	}

	var body any
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, false
	}

	return m.Data(body), true
}

// Header returns a copy of h with matching header values redacted.
func (m Masker) Header(h http.Header) http.Header {
	out := h.Clone()
	for k := range out {
		if m.has(k) {
			out.Set(k, masked)
		}
	}
	return out
}

// Attr redacts a slog attribute by key, descending into groups, maps and JSON strings.
func (m Masker) Attr(attr slog.Attr) slog.Attr {
	if m.has(attr.Key) {
		return slog.String(attr.Key, masked)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = m.Attr(ga)
		}
		attr.Value = slog.GroupValue(out...)
	case slog.KindString:
		if v, ok := m.JSON([]byte(attr.Value.String())); ok {
			if b, err := json.Marshal(v); err == nil {
				attr.Value = slog.StringValue(string(b))
			}
		}
	case slog.KindAny:
		switch v := attr.Value.Any().(type) {
		case map[string]any, map[string]string, []any:
			attr.Value = slog.AnyValue(m.Data(v))
		case []byte:
			if d, ok := m.JSON(v); ok {
				attr.Value = slog.AnyValue(d)
			}
		}
	}

	return attr
}

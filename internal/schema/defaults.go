package schema

import (
	"fmt"
	"time"
)

// TimestampLayout is the canonical stored form of a timestamp: UTC, fixed
// width, microsecond precision. Canonical strings order lexicographically
// the same way the instants do.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// FormatTimestamp renders t in canonical form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// CanonicalTimestamp accepts a time.Time, *time.Time or RFC 3339 string and
// returns the canonical form.
func CanonicalTimestamp(v any) (string, error) {
	switch t := v.(type) {
	case time.Time:
		return FormatTimestamp(t), nil
	case *time.Time:
		if t == nil {
			return "", fmt.Errorf("nil timestamp")
		}
		return FormatTimestamp(*t), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return "", fmt.Errorf("invalid timestamp %q: %w", t, err)
		}
		return FormatTimestamp(parsed), nil
	}
	return "", fmt.Errorf("invalid timestamp %v (%T)", v, v)
}

// Defaults sets every declared property missing from doc to nil, so a
// partial document carries the complete key set. Nested properties, refs
// (including their id) and the active discriminator branch are filled
// recursively. doc is modified in place.
func Defaults(fields Fields, doc map[string]any) {
	walk(fields, doc, true)
}

// Normalize rewrites timestamps to canonical form. Values that are not
// valid timestamps are left untouched for the validator to reject.
// doc is modified in place.
func Normalize(fields Fields, doc map[string]any) {
	walk(fields, doc, false)
}

func walk(fields Fields, doc map[string]any, fill bool) {
	for _, k := range fields.Keys() {
		v, ok := doc[k]
		if !ok {
			if fill {
				doc[k] = nil
			}
			continue
		}
		doc[k] = walkNode(fields[k], v, fill)
	}
}

func walkNode(n Node, v any, fill bool) any {
	if v == nil {
		return nil
	}

	switch node := n.(type) {
	case Scalar:
		if node.Type == TypeTimestamp && !fill {
			if s, err := CanonicalTimestamp(v); err == nil {
				return s
			}
		}
	case Properties:
		if m, ok := v.(map[string]any); ok {
			walk(node.Fields, m, fill)
		}
	case Ref:
		if m, ok := v.(map[string]any); ok {
			walk(node.Fields.withID(), m, fill)
		}
	case Discriminator:
		m, ok := v.(map[string]any)
		if !ok {
			break
		}
		tag, _ := m[node.Tag].(string)
		if branch, ok := node.Mapping[tag]; ok {
			walk(branch, m, fill)
		}
	case Elements:
		if items, ok := v.([]any); ok {
			for i, item := range items {
				items[i] = walkNode(node.Of, item, fill)
			}
		}
	case Values:
		if m, ok := v.(map[string]any); ok {
			for k, item := range m {
				m[k] = walkNode(node.Of, item, fill)
			}
		}
	}
	return v
}

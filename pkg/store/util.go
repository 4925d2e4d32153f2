package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidLabel is returned for labels or relationship types that cannot
// be used as a Cypher identifier.
var ErrInvalidLabel = errors.New("invalid label")

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteIdentifier validates a label, relationship type or schema name and
// wraps it in backticks.
func QuoteIdentifier(name string) (string, error) {
	if !identifierRe.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidLabel, name)
	}
	return "`" + name + "`", nil
}

// QuoteName quotes an arbitrary schema object name, such as a constraint or
// index name reported by SHOW CONSTRAINTS. Backticks inside are doubled.
func QuoteName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// ChunkRange calls fn for consecutive [start, end) windows of at most
// chunkSize over total items and stops at the first error.
func ChunkRange(total, chunkSize int, fn func(start, end int) error) error {
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = total
	}
	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

// DedupeStrings drops empty and repeated values, keeping first-seen order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// String returns row[key] as a string, or "" when it is missing, null or
// not a string.
func String(row map[string]any, key string) string {
	v, ok := row[key]
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Int returns row[key] as an int. The driver returns integers as int64.
func Int(row map[string]any, key string) int {
	switch v := row[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Float returns row[key] as a float64.
func Float(row map[string]any, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Maps returns row[key] as a list of maps, skipping elements of other types.
func Maps(row map[string]any, key string) []map[string]any {
	list, ok := row[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

package query

import "sort"

// SelectOptions describes a single-table SELECT. Every Where entry becomes an
// equality predicate conjoined with AND; ranges and OR are deliberately out of
// scope for this layer.
type SelectOptions struct {
	Columns []string
	Where   map[string]any
	OrderBy string
	Limit   int // 0 means no LIMIT clause
	Offset  int // 0 means no OFFSET clause
}

// Join is one JOIN step in a JoinConfig.
type Join struct {
	Type  string // "LEFT JOIN", "INNER JOIN", ...
	Table string
	On    string // raw predicate, may contain placeholders backed by JoinParams
}

// JoinConfig describes a SELECT over a main table plus an ordered list of
// joins. Columns and On predicates are raw SQL fragments; placeholders inside
// them must be minted with Dialect().Placeholder starting at index 1, in the
// order they appear, and backed by JoinParams. WHERE, LIMIT and OFFSET
// placeholders continue the numbering from there, so the parameter array is
// ordered exactly as the placeholders appear left to right.
type JoinConfig struct {
	Table      string
	Columns    []string
	Distinct   bool
	Joins      []Join
	JoinParams []any
	Where      map[string]any
	GroupBy    string
	Having     string
	OrderBy    string
	Limit      int
	Offset     int
}

// sortedKeys returns m's keys in ascending order. Go maps are unordered, so
// a fixed key order is what keeps generated SQL deterministic and cacheable.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

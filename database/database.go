package database

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Connection executes SQL against a concrete engine. Three families exist:
// a pgxpool-backed connection, and two database/sql-backed connections
// (MySQL pool, SQLite single-file handle).
type Connection interface {
	// Query executes sql with args and returns all rows plus a row count.
	// For statements that return no rows the count is the number of rows
	// affected.
	Query(ctx context.Context, query string, args ...any) (*Result, error)

	// InitializeDatabase applies the connection's schema DDL. Idempotent.
	InitializeDatabase(ctx context.Context) error

	// Close releases the pool or handle.
	Close() error
}

// Result is the uniform outcome of a query across all connection families.
type Result struct {
	Rows     []Row
	RowCount int64
}

// Row is a single result row keyed by column name. Accessors absorb the
// representation differences between drivers (sqlite hands back int64 for
// booleans, mysql hands back []byte for text, and so on).
type Row map[string]any

// String returns the column as a string, or "" when NULL or absent.
func (r Row) String(col string) string {
	s, _ := r.NullString(col)
	return s
}

// NullString returns the column as a string plus a presence flag that is
// false for NULL or absent columns.
func (r Row) NullString(col string) (string, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	default:
		return "", false
	}
}

// Int64 returns the column as an int64, or 0 when NULL or not numeric.
func (r Row) Int64(col string) int64 {
	v, ok := r[col]
	if !ok || v == nil {
		return 0
	}
	switch val := v.(type) {
	case int64:
		return val
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case uint64:
		return int64(val)
	case float64:
		return int64(val)
	case []byte:
		n, _ := strconv.ParseInt(string(val), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(val, 10, 64)
		return n
	default:
		return 0
	}
}

// NullInt64 returns the column as an int64 plus a presence flag.
func (r Row) NullInt64(col string) (int64, bool) {
	v, ok := r[col]
	if !ok || v == nil {
		return 0, false
	}
	return r.Int64(col), true
}

// Bool returns the column as a bool. Engines without a boolean type report
// 0/1 integers, which are handled here.
func (r Row) Bool(col string) bool {
	v, ok := r[col]
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	case int:
		return val != 0
	case []byte:
		return boolString(string(val))
	case string:
		return boolString(val)
	default:
		return false
	}
}

func boolString(s string) bool {
	switch strings.ToLower(s) {
	case "t", "true", "1":
		return true
	}
	return false
}

// Time returns the column as a time.Time, or the zero time when NULL or
// unparsable. SQLite stores timestamps as text.
func (r Row) Time(col string) time.Time {
	v, ok := r[col]
	if !ok || v == nil {
		return time.Time{}
	}
	switch val := v.(type) {
	case time.Time:
		return val
	case string:
		return parseTime(val)
	case []byte:
		return parseTime(string(val))
	default:
		return time.Time{}
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// splitStatements breaks a DDL script into individual statements so drivers
// without multi-statement support can apply it.
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

package dialect

import (
	"strings"
)

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (s SQLite) Name() string {
	return "sqlite"
}

func (s SQLite) Placeholder(n int) string {
	return "?"
}

func (s SQLite) SupportsReturning() bool {
	// Available since 3.35, which go-sqlite3 ships.
	return true
}

func (s SQLite) SupportsUpsert() bool {
	return true
}

// UpsertClause renders ON CONFLICT (...) DO UPDATE SET col = excluded.col.
// SQLite spells the pseudo-table in lowercase.
func (s SQLite) UpsertClause(conflictColumns, updateColumns []string) string {
	var sb strings.Builder
	sb.WriteString("ON CONFLICT (")
	sb.WriteString(strings.Join(conflictColumns, ", "))
	sb.WriteString(") ")

	if len(updateColumns) == 0 {
		sb.WriteString("DO NOTHING")
		return sb.String()
	}

	sb.WriteString("DO UPDATE SET ")
	for i, col := range updateColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(" = excluded.")
		sb.WriteString(col)
	}
	return sb.String()
}

// GreatestExpr uses scalar MAX; SQLite has no GREATEST.
func (s SQLite) GreatestExpr(a, b string) string {
	return "MAX(" + a + ", " + b + ")"
}

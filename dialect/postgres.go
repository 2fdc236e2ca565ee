package dialect

import (
	"strconv"
	"strings"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (p Postgres) Name() string {
	return "postgres"
}

func (p Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p Postgres) SupportsReturning() bool {
	return true
}

func (p Postgres) SupportsUpsert() bool {
	return true
}

// UpsertClause renders ON CONFLICT (...) DO UPDATE SET col = EXCLUDED.col.
// With nothing left to update it falls back to DO NOTHING.
func (p Postgres) UpsertClause(conflictColumns, updateColumns []string) string {
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
		sb.WriteString(" = EXCLUDED.")
		sb.WriteString(col)
	}
	return sb.String()
}

func (p Postgres) GreatestExpr(a, b string) string {
	return "GREATEST(" + a + ", " + b + ")"
}

package dialect

import (
	"strings"
)

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

func (m MySQL) Name() string {
	return "mysql"
}

func (m MySQL) Placeholder(n int) string {
	return "?"
}

func (m MySQL) SupportsReturning() bool {
	return false
}

func (m MySQL) SupportsUpsert() bool {
	return true
}

// UpsertClause renders ON DUPLICATE KEY UPDATE col = VALUES(col). MySQL has no
// DO NOTHING form, so the empty case assigns the first conflict column to
// itself, which leaves the row untouched.
func (m MySQL) UpsertClause(conflictColumns, updateColumns []string) string {
	if len(conflictColumns) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("ON DUPLICATE KEY UPDATE ")

	if len(updateColumns) == 0 {
		col := conflictColumns[0]
		sb.WriteString(col)
		sb.WriteString(" = ")
		sb.WriteString(col)
		return sb.String()
	}

	for i, col := range updateColumns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col)
		sb.WriteString(" = VALUES(")
		sb.WriteString(col)
		sb.WriteString(")")
	}
	return sb.String()
}

func (m MySQL) GreatestExpr(a, b string) string {
	return "GREATEST(" + a + ", " + b + ")"
}

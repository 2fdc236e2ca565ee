package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is a singleton instance for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// TableName converts an entity name to its snake_case, pluralized table name:
// "Wish" -> "wishes", "User" -> "users", "Session" -> "sessions".
func TableName(entityName string) string {
	return pluralizeClient.Plural(toSnakeCase(entityName))
}

// ColumnName converts a Go field name to a snake_case column name.
func ColumnName(fieldName string) string {
	return toSnakeCase(fieldName)
}

// toSnakeCase converts a name in any common convention to snake_case.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	// Common initialisms collapse instead of splitting per letter.
	switch name {
	case "ID":
		return "id"
	case "UUID":
		return "uuid"
	case "URL":
		return "url"
	}

	// Already snake_case.
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return strings.ToLower(name)
	}

	var result strings.Builder
	result.Grow(len(name) + 10)

	runes := []rune(name)
	for i, r := range runes {
		lower := unicode.ToLower(r)

		needsUnderscore := false
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				needsUnderscore = true
			} else if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				needsUnderscore = true
			}
		}

		if needsUnderscore {
			result.WriteByte('_')
		}
		result.WriteRune(lower)
	}

	return result.String()
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

package dialect

// Dialect isolates the syntactic fragments that differ between the three
// supported SQL engines. Everything else in the query layer is shared.
type Dialect interface {
	// Name reports the dialect identifier used in configuration ("postgres",
	// "mysql", "sqlite").
	Name() string

	// Placeholder returns the bind-parameter token for the 1-based index n.
	Placeholder(n int) string

	// SupportsReturning reports whether INSERT ... RETURNING is available.
	SupportsReturning() bool

	// SupportsUpsert reports whether the engine has a native conflict clause.
	SupportsUpsert() bool

	// UpsertClause renders the conflict clause appended to an INSERT.
	// conflictColumns must be non-empty. updateColumns is the set of columns
	// to overwrite on conflict; when it is empty the dialect emits its no-op
	// form instead of an empty SET.
	UpsertClause(conflictColumns, updateColumns []string) string

	// GreatestExpr renders the max-of-two-values expression. Engines disagree
	// on the spelling (GREATEST vs scalar MAX), not the semantics.
	GreatestExpr(a, b string) string
}

// ByName returns the dialect for a configured name.
func ByName(name string) (Dialect, bool) {
	switch name {
	case "postgres":
		return NewPostgresDialect(), true
	case "mysql":
		return NewMySQLDialect(), true
	case "sqlite":
		return NewSQLiteDialect(), true
	}
	return nil, false
}

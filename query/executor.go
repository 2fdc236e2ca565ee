package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wishwell/wishwell/cache"
	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/dialect"
	"github.com/wishwell/wishwell/schema"
)

var (
	wishesTable   = schema.TableName("Wish")
	supportsTable = schema.TableName("Support")
)

// Executor translates declarative query descriptions into (sql, params) for
// its dialect and runs them through a Connection. Table and column names are
// trusted internal input and are never validated here.
type Executor struct {
	conn    database.Connection
	dialect dialect.Dialect
	cache   *cache.SQLCache
	logger  zerolog.Logger
}

// NewExecutor binds a connection and dialect. The dialect is an explicit
// constructor argument; nothing in this package reads the environment.
func NewExecutor(conn database.Connection, d dialect.Dialect, logger zerolog.Logger) *Executor {
	return &Executor{
		conn:    conn,
		dialect: d,
		cache:   cache.NewSQLCache(256),
		logger:  logger.With().Str("component", "query").Str("dialect", d.Name()).Logger(),
	}
}

// Dialect returns the executor's dialect, for callers that assemble raw
// fragments (join predicates) themselves.
func (e *Executor) Dialect() dialect.Dialect {
	return e.dialect
}

// Connection returns the underlying connection.
func (e *Executor) Connection() database.Connection {
	return e.conn
}

// Insert builds INSERT INTO table (cols) VALUES (placeholders). Params are
// data's values in sorted column order.
func (e *Executor) Insert(ctx context.Context, table string, data map[string]any) (*database.Result, error) {
	cols := sortedKeys(data)
	params := make([]any, 0, len(cols))
	for _, col := range cols {
		params = append(params, data[col])
	}

	key := cache.Fingerprint(append([]string{"insert", table}, cols...)...)
	sql, ok := e.cache.Get(key)
	if !ok {
		var sb strings.Builder
		sb.WriteString("INSERT INTO ")
		sb.WriteString(table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(cols, ", "))
		sb.WriteString(") VALUES (")
		for i := range cols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.dialect.Placeholder(i + 1))
		}
		sb.WriteString(")")
		sql = sb.String()
		e.cache.Set(key, sql)
	}

	return e.run(ctx, sql, params)
}

// Select builds SELECT <columns|*> FROM table with optional equality WHERE,
// ORDER BY, LIMIT and OFFSET. Parameter indices increment monotonically
// across WHERE, LIMIT, OFFSET in that order.
func (e *Executor) Select(ctx context.Context, table string, opts SelectOptions) (*database.Result, error) {
	whereCols := sortedKeys(opts.Where)
	params := make([]any, 0, len(whereCols)+2)
	for _, col := range whereCols {
		params = append(params, opts.Where[col])
	}

	keyParts := []string{"select", table, opts.OrderBy,
		strconv.Itoa(boolInt(opts.Limit > 0)), strconv.Itoa(boolInt(opts.Offset > 0))}
	keyParts = append(keyParts, opts.Columns...)
	// Divider keeps a trailing select column from masquerading as a WHERE key.
	keyParts = append(keyParts, "|")
	keyParts = append(keyParts, whereCols...)
	key := cache.Fingerprint(keyParts...)

	sql, ok := e.cache.Get(key)
	if !ok {
		var sb strings.Builder
		sb.WriteString("SELECT ")
		if len(opts.Columns) > 0 {
			sb.WriteString(strings.Join(opts.Columns, ", "))
		} else {
			sb.WriteString("*")
		}
		sb.WriteString(" FROM ")
		sb.WriteString(table)

		idx := e.writeWhere(&sb, whereCols, 1)
		if opts.OrderBy != "" {
			sb.WriteString(" ORDER BY ")
			sb.WriteString(opts.OrderBy)
		}
		if opts.Limit > 0 {
			sb.WriteString(" LIMIT ")
			sb.WriteString(e.dialect.Placeholder(idx))
			idx++
		}
		if opts.Offset > 0 {
			sb.WriteString(" OFFSET ")
			sb.WriteString(e.dialect.Placeholder(idx))
		}
		sql = sb.String()
		e.cache.Set(key, sql)
	}

	if opts.Limit > 0 {
		params = append(params, opts.Limit)
	}
	if opts.Offset > 0 {
		params = append(params, opts.Offset)
	}

	return e.run(ctx, sql, params)
}

// SelectIn builds SELECT <columns|*> FROM table WHERE column IN (...), the
// batch-fetch shape the repository uses for its IN-list queries. Not cached;
// the placeholder count varies with len(values).
func (e *Executor) SelectIn(ctx context.Context, table, column string, values []any, columns ...string) (*database.Result, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(columns) > 0 {
		sb.WriteString(strings.Join(columns, ", "))
	} else {
		sb.WriteString("*")
	}
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	sb.WriteString(" WHERE ")
	sb.WriteString(column)
	sb.WriteString(" IN (")
	for i := range values {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.dialect.Placeholder(i + 1))
	}
	sb.WriteString(")")

	return e.run(ctx, sb.String(), values)
}

// Update builds UPDATE table SET ... WHERE ...; SET params precede WHERE
// params, matching placeholder order.
func (e *Executor) Update(ctx context.Context, table string, data, conditions map[string]any) (*database.Result, error) {
	setCols := sortedKeys(data)
	whereCols := sortedKeys(conditions)

	params := make([]any, 0, len(setCols)+len(whereCols))
	for _, col := range setCols {
		params = append(params, data[col])
	}
	for _, col := range whereCols {
		params = append(params, conditions[col])
	}

	keyParts := append([]string{"update", table}, setCols...)
	keyParts = append(keyParts, "|")
	keyParts = append(keyParts, whereCols...)
	key := cache.Fingerprint(keyParts...)

	sql, ok := e.cache.Get(key)
	if !ok {
		var sb strings.Builder
		sb.WriteString("UPDATE ")
		sb.WriteString(table)
		sb.WriteString(" SET ")
		for i, col := range setCols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(col)
			sb.WriteString(" = ")
			sb.WriteString(e.dialect.Placeholder(i + 1))
		}
		e.writeWhere(&sb, whereCols, len(setCols)+1)
		sql = sb.String()
		e.cache.Set(key, sql)
	}

	return e.run(ctx, sql, params)
}

// Delete builds DELETE FROM table WHERE ... .
func (e *Executor) Delete(ctx context.Context, table string, conditions map[string]any) (*database.Result, error) {
	whereCols := sortedKeys(conditions)
	params := make([]any, 0, len(whereCols))
	for _, col := range whereCols {
		params = append(params, conditions[col])
	}

	key := cache.Fingerprint(append([]string{"delete", table}, whereCols...)...)
	sql, ok := e.cache.Get(key)
	if !ok {
		var sb strings.Builder
		sb.WriteString("DELETE FROM ")
		sb.WriteString(table)
		e.writeWhere(&sb, whereCols, 1)
		sql = sb.String()
		e.cache.Set(key, sql)
	}

	return e.run(ctx, sql, params)
}

// Upsert builds an INSERT with the dialect's conflict clause. Conflict
// columns and created_at never appear in the update set: those fields keep
// insert-only semantics, so a conflicting upsert cannot rewrite identity or
// creation time. At least one conflict column is required; without one
// there is no conflict target to render.
func (e *Executor) Upsert(ctx context.Context, table string, data map[string]any, conflictColumns []string) (*database.Result, error) {
	if len(conflictColumns) == 0 {
		return nil, fmt.Errorf("upsert %s: no conflict columns", table)
	}

	cols := sortedKeys(data)
	params := make([]any, 0, len(cols))
	for _, col := range cols {
		params = append(params, data[col])
	}

	skip := make(map[string]struct{}, len(conflictColumns)+1)
	for _, col := range conflictColumns {
		skip[col] = struct{}{}
	}
	skip["created_at"] = struct{}{}

	updateCols := make([]string, 0, len(cols))
	for _, col := range cols {
		if _, skipped := skip[col]; !skipped {
			updateCols = append(updateCols, col)
		}
	}

	keyParts := append([]string{"upsert", table}, cols...)
	keyParts = append(keyParts, "|")
	keyParts = append(keyParts, conflictColumns...)
	key := cache.Fingerprint(keyParts...)

	sql, ok := e.cache.Get(key)
	if !ok {
		var sb strings.Builder
		sb.WriteString("INSERT INTO ")
		sb.WriteString(table)
		sb.WriteString(" (")
		sb.WriteString(strings.Join(cols, ", "))
		sb.WriteString(") VALUES (")
		for i := range cols {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(e.dialect.Placeholder(i + 1))
		}
		sb.WriteString(") ")
		sb.WriteString(e.dialect.UpsertClause(conflictColumns, updateCols))
		sql = sb.String()
		e.cache.Set(key, sql)
	}

	return e.run(ctx, sql, params)
}

// SelectJoin builds a SELECT over cfg.Table plus its ordered joins. See
// JoinConfig for the parameter-index contract.
func (e *Executor) SelectJoin(ctx context.Context, cfg JoinConfig) (*database.Result, error) {
	whereCols := sortedKeys(cfg.Where)

	params := make([]any, 0, len(cfg.JoinParams)+len(whereCols)+2)
	params = append(params, cfg.JoinParams...)
	for _, col := range whereCols {
		params = append(params, cfg.Where[col])
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if cfg.Distinct {
		sb.WriteString("DISTINCT ")
	}
	if len(cfg.Columns) > 0 {
		sb.WriteString(strings.Join(cfg.Columns, ", "))
	} else {
		sb.WriteString("*")
	}
	sb.WriteString(" FROM ")
	sb.WriteString(cfg.Table)

	for _, join := range cfg.Joins {
		sb.WriteString(" ")
		sb.WriteString(join.Type)
		sb.WriteString(" ")
		sb.WriteString(join.Table)
		sb.WriteString(" ON ")
		sb.WriteString(join.On)
	}

	idx := e.writeWhere(&sb, whereCols, len(cfg.JoinParams)+1)

	if cfg.GroupBy != "" {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(cfg.GroupBy)
	}
	if cfg.Having != "" {
		sb.WriteString(" HAVING ")
		sb.WriteString(cfg.Having)
	}
	if cfg.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(cfg.OrderBy)
	}
	if cfg.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(e.dialect.Placeholder(idx))
		idx++
		params = append(params, cfg.Limit)
	}
	if cfg.Offset > 0 {
		sb.WriteString(" OFFSET ")
		sb.WriteString(e.dialect.Placeholder(idx))
		params = append(params, cfg.Offset)
	}

	return e.run(ctx, sb.String(), params)
}

// Raw executes sql verbatim, still routed through the same connection.
func (e *Executor) Raw(ctx context.Context, sql string, params ...any) (*database.Result, error) {
	return e.run(ctx, sql, params)
}

// IncrementSupportCount adds one to a wish's cached counter.
func (e *Executor) IncrementSupportCount(ctx context.Context, wishID string) (*database.Result, error) {
	sql := "UPDATE " + wishesTable +
		" SET support_count = support_count + 1 WHERE id = " + e.dialect.Placeholder(1)
	return e.run(ctx, sql, []any{wishID})
}

// DecrementSupportCount subtracts one, clamped at zero via the dialect's
// max-of-two expression.
func (e *Executor) DecrementSupportCount(ctx context.Context, wishID string) (*database.Result, error) {
	sql := "UPDATE " + wishesTable +
		" SET support_count = " + e.dialect.GreatestExpr("support_count - 1", "0") +
		" WHERE id = " + e.dialect.Placeholder(1)
	return e.run(ctx, sql, []any{wishID})
}

// RecountSupport sets support_count to the authoritative COUNT(*) from the
// supports table. Preferred over increment/decrement after every mutation, so
// the cached counter cannot drift under concurrent writers.
func (e *Executor) RecountSupport(ctx context.Context, wishID string) (*database.Result, error) {
	sql := "UPDATE " + wishesTable +
		" SET support_count = (SELECT COUNT(*) FROM " + supportsTable +
		" WHERE wish_id = " + e.dialect.Placeholder(1) + ")" +
		" WHERE id = " + e.dialect.Placeholder(2)
	return e.run(ctx, sql, []any{wishID, wishID})
}

func (e *Executor) writeWhere(sb *strings.Builder, cols []string, startIdx int) int {
	idx := startIdx
	for i, col := range cols {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		sb.WriteString(col)
		sb.WriteString(" = ")
		sb.WriteString(e.dialect.Placeholder(idx))
		idx++
	}
	return idx
}

func (e *Executor) run(ctx context.Context, sql string, params []any) (*database.Result, error) {
	start := time.Now()
	result, err := e.conn.Query(ctx, sql, params...)
	elapsed := time.Since(start)

	if err != nil {
		e.logger.Debug().Err(err).Str("sql", sql).Dur("elapsed", elapsed).Msg("query failed")
		return nil, err
	}

	e.logger.Debug().
		Str("sql", sql).
		Int("params", len(params)).
		Int64("rows", result.RowCount).
		Dur("elapsed", elapsed).
		Msg("query executed")
	return result, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

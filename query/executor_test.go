package query

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/dialect"
)

type recordedCall struct {
	sql    string
	params []any
}

// fakeConn records every query and replays scripted results in order.
type fakeConn struct {
	calls   []recordedCall
	results []*database.Result
	errs    []error
}

func (f *fakeConn) Query(_ context.Context, sql string, args ...any) (*database.Result, error) {
	f.calls = append(f.calls, recordedCall{sql: sql, params: args})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(f.results) > 0 {
		res := f.results[0]
		f.results = f.results[1:]
		return res, nil
	}
	return &database.Result{}, nil
}

func (f *fakeConn) InitializeDatabase(context.Context) error { return nil }
func (f *fakeConn) Close() error                             { return nil }

func (f *fakeConn) last() recordedCall {
	return f.calls[len(f.calls)-1]
}

func newTestExecutor(d dialect.Dialect) (*Executor, *fakeConn) {
	conn := &fakeConn{}
	return NewExecutor(conn, d, zerolog.Nop()), conn
}

func pg() dialect.Dialect { d, _ := dialect.ByName("postgres"); return d }
func my() dialect.Dialect { d, _ := dialect.ByName("mysql"); return d }
func lt() dialect.Dialect { d, _ := dialect.ByName("sqlite"); return d }

func TestInsert(t *testing.T) {
	e, conn := newTestExecutor(pg())

	_, err := e.Insert(context.Background(), "wishes", map[string]any{
		"id":   "w1",
		"wish": "world peace",
		"name": "aki",
	})
	require.NoError(t, err)

	got := conn.last()
	assert.Equal(t, "INSERT INTO wishes (id, name, wish) VALUES ($1, $2, $3)", got.sql)
	assert.Equal(t, []any{"w1", "aki", "world peace"}, got.params)
}

func TestInsertQuestionPlaceholders(t *testing.T) {
	e, conn := newTestExecutor(my())

	_, err := e.Insert(context.Background(), "wishes", map[string]any{"id": "w1", "wish": "x"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO wishes (id, wish) VALUES (?, ?)", conn.last().sql)
}

func TestSelectWhereLimit(t *testing.T) {
	e, conn := newTestExecutor(pg())

	_, err := e.Select(context.Background(), "wishes", SelectOptions{
		Where: map[string]any{"user_id": 5},
		Limit: 1,
	})
	require.NoError(t, err)

	got := conn.last()
	assert.Equal(t, "SELECT * FROM wishes WHERE user_id = $1 LIMIT $2", got.sql)
	assert.Equal(t, []any{5, 1}, got.params)
}

func TestSelectFullClauseOrdering(t *testing.T) {
	e, conn := newTestExecutor(pg())

	_, err := e.Select(context.Background(), "supports", SelectOptions{
		Columns: []string{"wish_id", "session_id"},
		Where:   map[string]any{"wish_id": "w1", "session_id": "s1"},
		OrderBy: "created_at DESC",
		Limit:   10,
		Offset:  20,
	})
	require.NoError(t, err)

	got := conn.last()
	assert.Equal(t,
		"SELECT wish_id, session_id FROM supports WHERE session_id = $1 AND wish_id = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4",
		got.sql)
	// Params ordered exactly as placeholders appear left to right.
	assert.Equal(t, []any{"s1", "w1", 10, 20}, got.params)
}

func TestSelectNoConditions(t *testing.T) {
	e, conn := newTestExecutor(pg())

	_, err := e.Select(context.Background(), "users", SelectOptions{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", conn.last().sql)
	assert.Empty(t, conn.last().params)
}

func TestSelectIn(t *testing.T) {
	e, conn := newTestExecutor(pg())

	_, err := e.SelectIn(context.Background(), "sessions", "wish_id",
		[]any{"w1", "w2", "w3"}, "wish_id", "session_id")
	require.NoError(t, err)

	got := conn.last()
	assert.Equal(t,
		"SELECT wish_id, session_id FROM sessions WHERE wish_id IN ($1, $2, $3)",
		got.sql)
	assert.Equal(t, []any{"w1", "w2", "w3"}, got.params)
}

func TestUpdateSetParamsPrecedeWhereParams(t *testing.T) {
	e, conn := newTestExecutor(pg())

	_, err := e.Update(context.Background(), "wishes",
		map[string]any{"wish": "new text", "name": "bo"},
		map[string]any{"id": "w1"})
	require.NoError(t, err)

	got := conn.last()
	assert.Equal(t, "UPDATE wishes SET name = $1, wish = $2 WHERE id = $3", got.sql)
	assert.Equal(t, []any{"bo", "new text", "w1"}, got.params)
}

func TestDelete(t *testing.T) {
	e, conn := newTestExecutor(lt())

	_, err := e.Delete(context.Background(), "supports",
		map[string]any{"wish_id": "w1", "user_id": int64(2)})
	require.NoError(t, err)

	got := conn.last()
	assert.Equal(t, "DELETE FROM supports WHERE user_id = ? AND wish_id = ?", got.sql)
	assert.Equal(t, []any{int64(2), "w1"}, got.params)
}

func TestUpsertExcludesConflictAndCreatedAt(t *testing.T) {
	data := map[string]any{
		"google_id":    "g-123",
		"display_name": "Aki",
		"email":        "aki@example.com",
		"created_at":   "2024-01-01",
	}

	tests := []struct {
		name     string
		d        dialect.Dialect
		expected string
	}{
		{
			name: "postgres",
			d:    pg(),
			expected: "INSERT INTO users (created_at, display_name, email, google_id) VALUES ($1, $2, $3, $4) " +
				"ON CONFLICT (google_id) DO UPDATE SET display_name = EXCLUDED.display_name, email = EXCLUDED.email",
		},
		{
			name: "sqlite",
			d:    lt(),
			expected: "INSERT INTO users (created_at, display_name, email, google_id) VALUES (?, ?, ?, ?) " +
				"ON CONFLICT (google_id) DO UPDATE SET display_name = excluded.display_name, email = excluded.email",
		},
		{
			name: "mysql",
			d:    my(),
			expected: "INSERT INTO users (created_at, display_name, email, google_id) VALUES (?, ?, ?, ?) " +
				"ON DUPLICATE KEY UPDATE display_name = VALUES(display_name), email = VALUES(email)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, conn := newTestExecutor(tt.d)
			_, err := e.Upsert(context.Background(), "users", data, []string{"google_id"})
			require.NoError(t, err)

			got := conn.last()
			assert.Equal(t, tt.expected, got.sql)
			assert.Equal(t, []any{"2024-01-01", "Aki", "aki@example.com", "g-123"}, got.params)
		})
	}
}

func TestUpsertNothingLeftToUpdate(t *testing.T) {
	data := map[string]any{
		"wish_id":    "w1",
		"session_id": "s1",
		"created_at": "2024-01-01",
	}
	conflict := []string{"wish_id", "session_id"}

	e, conn := newTestExecutor(pg())
	_, err := e.Upsert(context.Background(), "supports", data, conflict)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO supports (created_at, session_id, wish_id) VALUES ($1, $2, $3) ON CONFLICT (wish_id, session_id) DO NOTHING",
		conn.last().sql)

	e, conn = newTestExecutor(my())
	_, err = e.Upsert(context.Background(), "supports", data, conflict)
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO supports (created_at, session_id, wish_id) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE wish_id = wish_id",
		conn.last().sql)
}

func TestSelectJoinParameterAccounting(t *testing.T) {
	e, conn := newTestExecutor(pg())
	d := e.Dialect()

	_, err := e.SelectJoin(context.Background(), JoinConfig{
		Table:    "wishes w",
		Distinct: true,
		Columns: []string{
			"w.id", "w.wish",
			"CASE WHEN v.id IS NULL THEN FALSE ELSE TRUE END AS is_supported",
		},
		Joins: []Join{{
			Type:  "LEFT JOIN",
			Table: "supports v",
			On: "v.wish_id = w.id AND (v.session_id = " + d.Placeholder(1) +
				" OR v.user_id = " + d.Placeholder(2) + ")",
		}},
		JoinParams: []any{"s1", int64(7)},
		OrderBy:    "w.created_at DESC, w.id",
		Limit:      20,
		Offset:     40,
	})
	require.NoError(t, err)

	got := conn.last()
	assert.Equal(t,
		"SELECT DISTINCT w.id, w.wish, CASE WHEN v.id IS NULL THEN FALSE ELSE TRUE END AS is_supported "+
			"FROM wishes w LEFT JOIN supports v ON v.wish_id = w.id AND (v.session_id = $1 OR v.user_id = $2) "+
			"ORDER BY w.created_at DESC, w.id LIMIT $3 OFFSET $4",
		got.sql)
	assert.Equal(t, []any{"s1", int64(7), 20, 40}, got.params)
}

func TestSelectJoinWhereGroupHaving(t *testing.T) {
	e, conn := newTestExecutor(pg())

	_, err := e.SelectJoin(context.Background(), JoinConfig{
		Table:   "supports s",
		Columns: []string{"s.wish_id", "COUNT(*) AS n"},
		Joins: []Join{{
			Type:  "INNER JOIN",
			Table: "wishes w",
			On:    "w.id = s.wish_id",
		}},
		Where:   map[string]any{"s.user_id": int64(3)},
		GroupBy: "s.wish_id",
		Having:  "COUNT(*) > 0",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT s.wish_id, COUNT(*) AS n FROM supports s INNER JOIN wishes w ON w.id = s.wish_id "+
			"WHERE s.user_id = $1 GROUP BY s.wish_id HAVING COUNT(*) > 0",
		conn.last().sql)
	assert.Equal(t, []any{int64(3)}, conn.last().params)
}

func TestSupportCountPrimitives(t *testing.T) {
	e, conn := newTestExecutor(pg())
	ctx := context.Background()

	_, err := e.IncrementSupportCount(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE wishes SET support_count = support_count + 1 WHERE id = $1",
		conn.last().sql)
	assert.Equal(t, []any{"w1"}, conn.last().params)

	_, err = e.DecrementSupportCount(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE wishes SET support_count = GREATEST(support_count - 1, 0) WHERE id = $1",
		conn.last().sql)

	_, err = e.RecountSupport(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE wishes SET support_count = (SELECT COUNT(*) FROM supports WHERE wish_id = $1) WHERE id = $2",
		conn.last().sql)
	assert.Equal(t, []any{"w1", "w1"}, conn.last().params)
}

func TestDecrementClampSpellingPerDialect(t *testing.T) {
	e, conn := newTestExecutor(lt())

	_, err := e.DecrementSupportCount(context.Background(), "w1")
	require.NoError(t, err)
	assert.Equal(t,
		"UPDATE wishes SET support_count = MAX(support_count - 1, 0) WHERE id = ?",
		conn.last().sql)
}

func TestRawPassesThrough(t *testing.T) {
	e, conn := newTestExecutor(pg())

	_, err := e.Raw(context.Background(), "SELECT 1 WHERE $1 = $1", 42)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 WHERE $1 = $1", conn.last().sql)
	assert.Equal(t, []any{42}, conn.last().params)
}

func TestCachedShapesRebuildParams(t *testing.T) {
	e, conn := newTestExecutor(pg())
	ctx := context.Background()

	_, err := e.Select(ctx, "wishes", SelectOptions{Where: map[string]any{"id": "w1"}})
	require.NoError(t, err)
	_, err = e.Select(ctx, "wishes", SelectOptions{Where: map[string]any{"id": "w2"}})
	require.NoError(t, err)

	require.Len(t, conn.calls, 2)
	assert.Equal(t, conn.calls[0].sql, conn.calls[1].sql)
	assert.Equal(t, []any{"w1"}, conn.calls[0].params)
	assert.Equal(t, []any{"w2"}, conn.calls[1].params)
}

// A select column shifting into the WHERE key set must not collide with a
// previously cached shape: SELECT a, b and SELECT a ... WHERE b flatten to
// the same token sequence without the divider.
func TestSelectCacheKeySeparatesColumnsFromWhere(t *testing.T) {
	e, conn := newTestExecutor(pg())
	ctx := context.Background()

	_, err := e.Select(ctx, "wishes", SelectOptions{Columns: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = e.Select(ctx, "wishes", SelectOptions{
		Columns: []string{"a"},
		Where:   map[string]any{"b": "x"},
	})
	require.NoError(t, err)

	require.Len(t, conn.calls, 2)
	assert.Equal(t, "SELECT a, b FROM wishes", conn.calls[0].sql)
	assert.Empty(t, conn.calls[0].params)
	assert.Equal(t, "SELECT a FROM wishes WHERE b = $1", conn.calls[1].sql)
	assert.Equal(t, []any{"x"}, conn.calls[1].params)
}

func TestUpsertRequiresConflictColumns(t *testing.T) {
	e, conn := newTestExecutor(my())

	_, err := e.Upsert(context.Background(), "users", map[string]any{"id": 1}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict columns")
	assert.Empty(t, conn.calls)
}

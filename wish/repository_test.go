package wish

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/dialect"
	"github.com/wishwell/wishwell/query"
)

type recordedCall struct {
	sql    string
	params []any
}

// scriptedConn replays queued results in order and records every statement,
// so tests can assert on exact query counts.
type scriptedConn struct {
	calls   []recordedCall
	results []*database.Result
	errs    []error
}

func (c *scriptedConn) Query(_ context.Context, sql string, args ...any) (*database.Result, error) {
	c.calls = append(c.calls, recordedCall{sql: sql, params: args})
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(c.results) > 0 {
		res := c.results[0]
		c.results = c.results[1:]
		return res, nil
	}
	return &database.Result{}, nil
}

func (c *scriptedConn) InitializeDatabase(context.Context) error { return nil }
func (c *scriptedConn) Close() error                             { return nil }

func newTestRepo(t *testing.T) (*Repository, *scriptedConn) {
	t.Helper()
	d, ok := dialect.ByName("postgres")
	require.True(t, ok)
	conn := &scriptedConn{}
	exec := query.NewExecutor(conn, d, zerolog.Nop())
	return NewRepository(exec, zerolog.Nop()), conn
}

func rowsResult(rows ...database.Row) *database.Result {
	return &database.Result{Rows: rows, RowCount: int64(len(rows))}
}

func affected(n int64) *database.Result {
	return &database.Result{RowCount: n}
}

func TestCreateMintsULIDAndInserts(t *testing.T) {
	repo, conn := newTestRepo(t)

	// ByAuthor pre-check: session lookup returns nothing.
	conn.results = []*database.Result{rowsResult(), affected(1)}

	w, err := repo.Create(context.Background(), SessionIdentity("s1"), "Aki", "world peace")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Len(t, w.ID, 26)
	assert.Equal(t, "world peace", w.Content)
	assert.Nil(t, w.UserID)

	require.Len(t, conn.calls, 2)
	assert.Contains(t, conn.calls[0].sql, "FROM sessions WHERE session_id")
	assert.Equal(t,
		"INSERT INTO wishes (created_at, id, name, support_count, updated_at, user_id, wish) VALUES ($1, $2, $3, $4, $5, $6, $7)",
		conn.calls[1].sql)
	// user_id is null for session authors.
	assert.Nil(t, conn.calls[1].params[5])
	assert.Equal(t, "world peace", conn.calls[1].params[6])
}

func TestCreateUserAuthor(t *testing.T) {
	repo, conn := newTestRepo(t)
	conn.results = []*database.Result{rowsResult(), affected(1)}

	w, err := repo.Create(context.Background(), UserIdentity(9), "", "one wish")
	require.NoError(t, err)
	require.NotNil(t, w.UserID)
	assert.Equal(t, int64(9), *w.UserID)

	require.Len(t, conn.calls, 2)
	assert.Contains(t, conn.calls[0].sql, "FROM wishes WHERE user_id")
	// Empty name inserts as NULL.
	assert.Nil(t, conn.calls[1].params[2])
	assert.Equal(t, int64(9), conn.calls[1].params[5])
}

func TestCreateRejectsSecondWishPerAuthor(t *testing.T) {
	repo, conn := newTestRepo(t)
	conn.results = []*database.Result{rowsResult(database.Row{
		"id": "w1", "wish": "existing", "support_count": int64(0),
	})}

	_, err := repo.Create(context.Background(), UserIdentity(9), "", "another")
	assert.ErrorIs(t, err, database.ErrAlreadyExists)
	assert.Len(t, conn.calls, 1)
}

func TestUpdateNotFound(t *testing.T) {
	repo, conn := newTestRepo(t)
	conn.results = []*database.Result{affected(0)}

	err := repo.Update(context.Background(), "missing", "Aki", "text")
	assert.ErrorIs(t, err, database.ErrNotFound)
	require.Len(t, conn.calls, 1)
	assert.Equal(t,
		"UPDATE wishes SET name = $1, updated_at = $2, wish = $3 WHERE id = $4",
		conn.calls[0].sql)
}

func TestUpdateSucceeds(t *testing.T) {
	repo, conn := newTestRepo(t)
	conn.results = []*database.Result{affected(1)}

	err := repo.Update(context.Background(), "w1", "", "new text")
	require.NoError(t, err)
}

func TestByIDMissingIsNilNotError(t *testing.T) {
	repo, conn := newTestRepo(t)
	conn.results = []*database.Result{rowsResult()}

	w, err := repo.ByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, w)
}

func TestLatestIssuesExactlyThreeQueries(t *testing.T) {
	repo, conn := newTestRepo(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	conn.results = []*database.Result{
		// Query 1: main page, newest first. w1 user-authored, w2
		// session-authored with no session row on file.
		rowsResult(
			database.Row{
				"id": "w1", "name": "Aki", "wish": "peace",
				"user_id": int64(1), "support_count": int64(2),
				"created_at": created, "updated_at": created,
				"is_supported_by_viewer": int64(1),
			},
			database.Row{
				"id": "w2", "name": nil, "wish": "rain",
				"user_id": nil, "support_count": int64(0),
				"created_at": created.Add(-time.Hour), "updated_at": created.Add(-time.Hour),
				"is_supported_by_viewer": int64(0),
			},
		),
		// Query 2: session resolution finds nothing for either wish.
		rowsResult(),
		// Query 3: supporters for the id set.
		rowsResult(
			database.Row{"wish_id": "w1", "session_id": "s9", "user_id": nil},
			database.Row{"wish_id": "w1", "session_id": nil, "user_id": int64(2)},
		),
	}

	viewer := UserIdentity(2)
	views, err := repo.Latest(context.Background(), 20, 0, &viewer)
	require.NoError(t, err)
	require.Len(t, conn.calls, 3)
	require.Len(t, views, 2)

	main := conn.calls[0]
	assert.Contains(t, main.sql, "SELECT DISTINCT")
	assert.Contains(t, main.sql, "LEFT JOIN supports v ON v.wish_id = w.id AND (v.session_id = $1 OR v.user_id = $2)")
	assert.Contains(t, main.sql, "ORDER BY w.created_at DESC, w.id LIMIT $3")
	assert.Equal(t, []any{"", int64(2), 20}, main.params)

	assert.Contains(t, conn.calls[1].sql, "FROM sessions WHERE wish_id IN ($1, $2)")
	assert.Contains(t, conn.calls[2].sql, "FROM supports WHERE wish_id IN ($1, $2)")
	assert.Equal(t, []any{"w1", "w2"}, conn.calls[1].params)

	assert.Equal(t, "user_1", views[0].Author.Tag())
	assert.True(t, views[0].IsSupportedByViewer)
	assert.ElementsMatch(t, []string{"session_s9", "user_2"}, views[0].Supporters)

	// w2 has no session row: the synthesized fallback identity.
	assert.Equal(t, "session_w2", views[1].Author.Tag())
	assert.False(t, views[1].IsSupportedByViewer)
	assert.Empty(t, views[1].Supporters)
}

func TestLatestEmptyPageIssuesOneQuery(t *testing.T) {
	repo, conn := newTestRepo(t)
	conn.results = []*database.Result{rowsResult()}

	views, err := repo.Latest(context.Background(), 20, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.Len(t, conn.calls, 1)
}

func TestLatestWithoutViewerBindsNonMatchingZeroes(t *testing.T) {
	repo, conn := newTestRepo(t)
	conn.results = []*database.Result{rowsResult()}

	_, err := repo.Latest(context.Background(), 10, 30, nil)
	require.NoError(t, err)

	main := conn.calls[0]
	assert.Contains(t, main.sql, "LIMIT $3 OFFSET $4")
	assert.Equal(t, []any{"", int64(0), 10, 30}, main.params)
}

func TestByAuthorSessionResolution(t *testing.T) {
	repo, conn := newTestRepo(t)
	conn.results = []*database.Result{
		rowsResult(database.Row{"wish_id": "w5"}),
		rowsResult(database.Row{
			"id": "w5", "wish": "snow", "support_count": int64(3),
		}),
	}

	w, err := repo.ByAuthor(context.Background(), SessionIdentity("s1"))
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "w5", w.ID)
	assert.Equal(t, int64(3), w.SupportCount)
	assert.Len(t, conn.calls, 2)
}

package database

import (
	"context"
	"database/sql"
	"strings"
)

// SQLConnection implements Connection over database/sql. It serves both the
// MySQL pool and the single-file SQLite handle; the driver decides which.
type SQLConnection struct {
	db        *sql.DB
	schemaDDL string
}

// NewSQLConnection wraps db. schemaDDL is the script applied by
// InitializeDatabase.
func NewSQLConnection(db *sql.DB, schemaDDL string) *SQLConnection {
	return &SQLConnection{db: db, schemaDDL: schemaDDL}
}

// DB exposes the underlying handle for pool tuning.
func (s *SQLConnection) DB() *sql.DB {
	return s.db
}

// Query routes row-returning statements through QueryContext and everything
// else through ExecContext, normalizing both into a Result.
func (s *SQLConnection) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	if returnsRows(query) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanRows(rows)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return &Result{RowCount: affected}, nil
}

// InitializeDatabase applies the schema script statement by statement, which
// keeps the MySQL driver happy without multi-statement DSN flags.
func (s *SQLConnection) InitializeDatabase(ctx context.Context) error {
	for _, stmt := range splitStatements(s.schemaDDL) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the handle.
func (s *SQLConnection) Close() error {
	return s.db.Close()
}

func returnsRows(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	return strings.HasPrefix(upper, "SELECT") || strings.Contains(upper, " RETURNING ")
}

// scanRows reads every row into column-keyed maps, converting []byte values
// to strings so text columns compare naturally.
func scanRows(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = int64(len(result.Rows))
	return result, nil
}

var _ Connection = (*SQLConnection)(nil)

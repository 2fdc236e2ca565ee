package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConnection implements Connection over a pgxpool.Pool.
type PgxConnection struct {
	pool      *pgxpool.Pool
	schemaDDL string
}

// NewPgxConnection wraps pool. schemaDDL is the script applied by
// InitializeDatabase.
func NewPgxConnection(pool *pgxpool.Pool, schemaDDL string) *PgxConnection {
	return &PgxConnection{pool: pool, schemaDDL: schemaDDL}
}

// Query executes a statement and collects every row into a Result. pgx runs
// DML through the same path; for those the count comes from the command tag.
func (p *PgxConnection) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, fd := range fields {
		columns[i] = fd.Name
	}

	result := &Result{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(result.Rows) > 0 {
		result.RowCount = int64(len(result.Rows))
	} else {
		result.RowCount = rows.CommandTag().RowsAffected()
	}
	return result, nil
}

// InitializeDatabase applies the schema script statement by statement.
func (p *PgxConnection) InitializeDatabase(ctx context.Context) error {
	for _, stmt := range splitStatements(p.schemaDDL) {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the pool.
func (p *PgxConnection) Close() error {
	p.pool.Close()
	return nil
}

var _ Connection = (*PgxConnection)(nil)

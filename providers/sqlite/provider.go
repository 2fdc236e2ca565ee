package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wishwell/wishwell/connector"
	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/dialect"
	"github.com/wishwell/wishwell/schema"
)

type Provider struct{}

func init() {
	connector.Register("sqlite", &Provider{})
}

func (p *Provider) Dialect() dialect.Dialect {
	d, _ := dialect.ByName("sqlite")
	return d
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (database.Connection, error) {
	db, err := sql.Open("sqlite3", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// A single writer avoids SQLITE_BUSY on concurrent mutations.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	ddl, err := schema.Build(p.Dialect())
	if err != nil {
		db.Close()
		return nil, err
	}

	return database.NewSQLConnection(db, ddl), nil
}

func buildDSN(cfg connector.Config) string {
	params := map[string]string{"_foreign_keys": "on"}
	for k, v := range cfg.Params {
		if v != "" {
			params[k] = v
		}
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("file:")
	sb.WriteString(cfg.Path)
	for i, k := range keys {
		if i == 0 {
			sb.WriteString("?")
		} else {
			sb.WriteString("&")
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteString("=")
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

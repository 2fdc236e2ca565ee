package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/wishwell/wishwell/connector"
	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/dialect"
	"github.com/wishwell/wishwell/schema"
)

type Provider struct{}

func init() {
	connector.Register("mysql", &Provider{})
}

func (p *Provider) Dialect() dialect.Dialect {
	d, _ := dialect.ByName("mysql")
	return d
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (database.Connection, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Database
	// Driver returns DATETIME columns as time.Time instead of []byte.
	mc.ParseTime = true
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(cfg.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Pool.MaxIdle)
	db.SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)

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

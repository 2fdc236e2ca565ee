package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wishwell/wishwell/connector"
	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/dialect"
	"github.com/wishwell/wishwell/schema"
)

type Provider struct{}

func init() {
	connector.Register("postgres", &Provider{})
}

func (p *Provider) Dialect() dialect.Dialect {
	d, _ := dialect.ByName("postgres")
	return d
}

func (p *Provider) Connect(ctx context.Context, cfg connector.Config) (database.Connection, error) {
	dsn := connector.NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params).
		Build()

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	poolCfg.MinConns = int32(cfg.Pool.MaxIdle)
	poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	ddl, err := schema.Build(p.Dialect())
	if err != nil {
		pool.Close()
		return nil, err
	}

	return database.NewPgxConnection(pool, ddl), nil
}

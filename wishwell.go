// Package wishwell wires configuration, connection, query building and
// repositories into a single entry point.
package wishwell

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wishwell/wishwell/account"
	"github.com/wishwell/wishwell/config"
	"github.com/wishwell/wishwell/connector"
	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/query"
	"github.com/wishwell/wishwell/wish"

	_ "github.com/wishwell/wishwell/providers/mysql"
	_ "github.com/wishwell/wishwell/providers/postgres"
	_ "github.com/wishwell/wishwell/providers/sqlite"
)

// App bundles the repositories over one database connection.
type App struct {
	Wishes   *wish.Repository
	Users    *account.Users
	Sessions *account.Sessions

	conn   database.Connection
	exec   *query.Executor
	logger zerolog.Logger
}

// Open connects to the configured database and builds the repositories.
// It does not create tables; call InitializeDatabase for that.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := newLogger(cfg.App.LogLevel)

	conn, d, err := connector.Connect(ctx, cfg.DB.Connector())
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DB.Dialect, err)
	}

	exec := query.NewExecutor(conn, d, logger)

	logger.Info().Str("dialect", d.Name()).Msg("database connected")

	return &App{
		Wishes:   wish.NewRepository(exec, logger),
		Users:    account.NewUsers(exec, logger),
		Sessions: account.NewSessions(exec, logger),
		conn:     conn,
		exec:     exec,
		logger:   logger,
	}, nil
}

// InitializeDatabase creates the tables and indexes if they do not exist.
func (a *App) InitializeDatabase(ctx context.Context) error {
	return a.conn.InitializeDatabase(ctx)
}

// Executor exposes the query executor for callers that need raw access.
func (a *App) Executor() *query.Executor {
	return a.exec
}

// Close releases the underlying connection.
func (a *App) Close() error {
	return a.conn.Close()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

package connector

import (
	"context"

	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/dialect"
)

// Provider knows how to open a connection for one database engine.
// Providers register themselves under a dialect name via Register,
// typically from an init function in their own package.
type Provider interface {
	Connect(ctx context.Context, cfg Config) (database.Connection, error)
	Dialect() dialect.Dialect
}

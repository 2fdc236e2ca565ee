package connector

import (
	"context"
	"fmt"
	"sync"

	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/dialect"
)

var globalManager = &manager{
	providers: make(map[string]Provider),
}

type manager struct {
	providers map[string]Provider
	mu        sync.RWMutex
}

// Register makes a provider available under the given dialect name.
func Register(name string, provider Provider) {
	globalManager.mu.Lock()
	defer globalManager.mu.Unlock()
	globalManager.providers[name] = provider
}

// Lookup returns the provider registered for the given dialect name.
func Lookup(name string) (Provider, bool) {
	globalManager.mu.RLock()
	defer globalManager.mu.RUnlock()
	p, ok := globalManager.providers[name]
	return p, ok
}

// Connect validates the config, resolves the provider for cfg.Dialect
// and opens a connection, retrying per cfg.Retry when set.
func Connect(ctx context.Context, cfg Config) (database.Connection, dialect.Dialect, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	provider, ok := Lookup(cfg.Dialect)
	if !ok {
		return nil, nil, fmt.Errorf("provider %s not registered", cfg.Dialect)
	}

	cfg = cfg.withPoolDefaults()

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if cfg.Retry != nil {
		conn, err := retryConnect(ctx, *cfg.Retry, func(ctx context.Context) (database.Connection, error) {
			return provider.Connect(ctx, cfg)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect after %d retries: %w", cfg.Retry.MaxRetries, err)
		}
		return conn, provider.Dialect(), nil
	}

	conn, err := provider.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return conn, provider.Dialect(), nil
}

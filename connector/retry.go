package connector

import (
	"context"
	"time"

	"github.com/wishwell/wishwell/database"
)

func retryConnect(ctx context.Context, opts RetryConfig, connectFn func(context.Context) (database.Connection, error)) (database.Connection, error) {
	var err error
	var conn database.Connection
	delay := opts.BaseDelay
	if delay == 0 {
		delay = time.Second
	}
	attempts := opts.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		conn, err = connectFn(ctx)
		if err == nil {
			return conn, nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
			if opts.MaxDelay > 0 && delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
	}
	return nil, err
}

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/query"
	"github.com/wishwell/wishwell/schema"
)

var sessionsTable = schema.TableName("Session")

// Session maps an opaque session identifier to the wish it created.
type Session struct {
	SessionID string
	WishID    string
	CreatedAt time.Time
}

// Sessions persists the session→wish mapping for anonymous authors.
type Sessions struct {
	exec   *query.Executor
	ids    schema.IDGenerator
	logger zerolog.Logger
}

func NewSessions(exec *query.Executor, logger zerolog.Logger) *Sessions {
	return &Sessions{
		exec:   exec,
		ids:    schema.UUIDGenerator{},
		logger: logger.With().Str("component", "account").Logger(),
	}
}

// Create records that sessionID authored wishID, minting a UUID when the
// caller has no session identifier yet. Creating a session that already
// exists reports database.ErrAlreadyExists.
func (s *Sessions) Create(ctx context.Context, sessionID, wishID string) (string, error) {
	if sessionID == "" {
		minted, err := s.ids.Generate()
		if err != nil {
			return "", err
		}
		sessionID = minted
	}

	_, err := s.exec.Insert(ctx, sessionsTable, map[string]any{
		"session_id": sessionID,
		"wish_id":    wishID,
		"created_at": time.Now().UTC(),
	})
	if err != nil {
		if database.IsDuplicateKey(err) {
			return "", fmt.Errorf("session %s: %w", sessionID, database.ErrAlreadyExists)
		}
		return "", err
	}
	return sessionID, nil
}

// ByID loads a session, or nil when absent.
func (s *Sessions) ByID(ctx context.Context, sessionID string) (*Session, error) {
	res, err := s.exec.Select(ctx, sessionsTable, query.SelectOptions{
		Where: map[string]any{"session_id": sessionID},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	row := res.Rows[0]
	return &Session{
		SessionID: row.String("session_id"),
		WishID:    row.String("wish_id"),
		CreatedAt: row.Time("created_at"),
	}, nil
}

// Delete drops a session mapping. Deleting a missing session is a no-op.
func (s *Sessions) Delete(ctx context.Context, sessionID string) error {
	_, err := s.exec.Delete(ctx, sessionsTable, map[string]any{"session_id": sessionID})
	return err
}

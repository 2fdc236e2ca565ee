package account

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/query"
	"github.com/wishwell/wishwell/schema"
)

var usersTable = schema.TableName("User")

// User is a Google-identity-backed account row.
type User struct {
	ID          int64
	GoogleID    string
	DisplayName string
	Email       string // "" when not shared
	Picture     string
	CreatedAt   time.Time
}

// Users persists accounts.
type Users struct {
	exec   *query.Executor
	logger zerolog.Logger
}

func NewUsers(exec *query.Executor, logger zerolog.Logger) *Users {
	return &Users{
		exec:   exec,
		logger: logger.With().Str("component", "account").Logger(),
	}
}

// Register records a Google identity, updating profile fields in place when
// the account already exists. The upsert keys on google_id and never rewrites
// created_at, so registration is idempotent across repeated sign-ins.
func (u *Users) Register(ctx context.Context, googleID, displayName, email, picture string) (*User, error) {
	data := map[string]any{
		"google_id":    googleID,
		"display_name": displayName,
		"email":        nullable(email),
		"picture":      nullable(picture),
		"created_at":   time.Now().UTC(),
	}

	if _, err := u.exec.Upsert(ctx, usersTable, data, []string{"google_id"}); err != nil {
		// The upsert absorbs conflicts itself; anything surfacing here that
		// still smells like a duplicate key came from a racing insert and
		// resolves the same way: the row exists, read it back.
		if !database.IsDuplicateKey(err) {
			return nil, err
		}
	}

	user, err := u.ByGoogleID(ctx, googleID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		u.logger.Info().Str("google_id", googleID).Int64("user_id", user.ID).Msg("user registered")
	}
	return user, nil
}

// ByGoogleID loads an account by its Google identity, or nil when absent.
func (u *Users) ByGoogleID(ctx context.Context, googleID string) (*User, error) {
	res, err := u.exec.Select(ctx, usersTable, query.SelectOptions{
		Where: map[string]any{"google_id": googleID},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return userFromRow(res.Rows[0]), nil
}

// ByID loads an account by primary key, or nil when absent.
func (u *Users) ByID(ctx context.Context, id int64) (*User, error) {
	res, err := u.exec.Select(ctx, usersTable, query.SelectOptions{
		Where: map[string]any{"id": id},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return userFromRow(res.Rows[0]), nil
}

func userFromRow(row database.Row) *User {
	return &User{
		ID:          row.Int64("id"),
		GoogleID:    row.String("google_id"),
		DisplayName: row.String("display_name"),
		Email:       row.String("email"),
		Picture:     row.String("picture"),
		CreatedAt:   row.Time("created_at"),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

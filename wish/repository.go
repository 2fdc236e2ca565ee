package wish

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wishwell/wishwell/database"
	"github.com/wishwell/wishwell/query"
	"github.com/wishwell/wishwell/schema"
)

var (
	wishesTable   = schema.TableName("Wish")
	sessionsTable = schema.TableName("Session")
	supportsTable = schema.TableName("Support")
)

const defaultPageSize = 20

// Repository persists wishes and supports. Every operation is a short
// sequence of independent round-trips on the shared connection; there is no
// cross-query transaction, and the one write race that matters (double
// support) is settled by the unique index, not by in-process locking.
type Repository struct {
	exec   *query.Executor
	ids    schema.IDGenerator
	logger zerolog.Logger
}

// NewRepository binds the executor. Wish ids are minted as ULIDs so identity
// order follows creation order.
func NewRepository(exec *query.Executor, logger zerolog.Logger) *Repository {
	return &Repository{
		exec:   exec,
		ids:    schema.NewULIDGenerator(),
		logger: logger.With().Str("component", "wish").Logger(),
	}
}

// Create inserts a new wish for author. Each author identity may hold at most
// one wish; the pre-check enforces that, and returns
// database.ErrAlreadyExists on violation. For session authors the caller is
// expected to record the session→wish mapping afterwards (account.Sessions).
func (r *Repository) Create(ctx context.Context, author Identity, name Name, content Content) (*Wish, error) {
	existing, err := r.ByAuthor(ctx, author)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("wish for %s: %w", author.Tag(), database.ErrAlreadyExists)
	}

	id, err := r.ids.Generate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	data := map[string]any{
		"id":            id,
		"name":          nullableString(string(name)),
		"wish":          string(content),
		"user_id":       nil,
		"support_count": 0,
		"created_at":    now,
		"updated_at":    now,
	}
	if uid, ok := author.UserID(); ok {
		data["user_id"] = uid
	}

	if _, err := r.exec.Insert(ctx, wishesTable, data); err != nil {
		return nil, err
	}

	w := &Wish{
		ID:        id,
		Name:      string(name),
		Content:   string(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if uid, ok := author.UserID(); ok {
		w.UserID = &uid
	}
	r.logger.Info().Str("wish_id", id).Str("author", author.Tag()).Msg("wish created")
	return w, nil
}

// Update rewrites a wish's name and content in place. Identity and creation
// time persist. A zero-row update surfaces database.ErrNotFound.
func (r *Repository) Update(ctx context.Context, id string, name Name, content Content) error {
	res, err := r.exec.Update(ctx, wishesTable,
		map[string]any{
			"name":       nullableString(string(name)),
			"wish":       string(content),
			"updated_at": time.Now().UTC(),
		},
		map[string]any{"id": id})
	if err != nil {
		return err
	}
	if res.RowCount == 0 {
		return fmt.Errorf("wish %s: %w", id, database.ErrNotFound)
	}
	return nil
}

// ByID loads one wish, or nil when absent. A missing wish is not an error
// for lookups.
func (r *Repository) ByID(ctx context.Context, id string) (*Wish, error) {
	res, err := r.exec.Select(ctx, wishesTable, query.SelectOptions{
		Where: map[string]any{"id": id},
		Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return wishFromRow(res.Rows[0]), nil
}

// ByAuthor resolves an identity to its wish: user ids go straight to
// wishes.user_id, session ids resolve through the sessions table.
func (r *Repository) ByAuthor(ctx context.Context, author Identity) (*Wish, error) {
	if uid, ok := author.UserID(); ok {
		res, err := r.exec.Select(ctx, wishesTable, query.SelectOptions{
			Where: map[string]any{"user_id": uid},
			Limit: 1,
		})
		if err != nil {
			return nil, err
		}
		if len(res.Rows) == 0 {
			return nil, nil
		}
		return wishFromRow(res.Rows[0]), nil
	}

	sid, _ := author.SessionID()
	res, err := r.exec.Select(ctx, sessionsTable, query.SelectOptions{
		Columns: []string{"wish_id"},
		Where:   map[string]any{"session_id": sid},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, nil
	}
	return r.ByID(ctx, res.Rows[0].String("wish_id"))
}

// Latest returns a page of views ordered newest first, in exactly three
// queries regardless of page size: the joined main query, one IN-list over
// sessions, one IN-list over supports. An empty page stops after the first
// query.
func (r *Repository) Latest(ctx context.Context, limit, offset int, viewer *Identity) ([]View, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}

	rows, err := r.latestPage(ctx, limit, offset, viewer)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []View{}, nil
	}

	ids := make([]any, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.String("id"))
	}

	sessionByWish, err := r.sessionsForWishes(ctx, ids)
	if err != nil {
		return nil, err
	}
	supportersByWish, err := r.supportersForWishes(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(rows))
	for _, row := range rows {
		w := wishFromRow(row)

		var author Identity
		if w.UserID != nil {
			author = UserIdentity(*w.UserID)
		} else if sid, ok := sessionByWish[w.ID]; ok {
			author = SessionIdentity(sid)
		} else {
			author = fallbackAuthor(w.ID)
		}

		views = append(views, View{
			Wish:                *w,
			Author:              author,
			IsSupportedByViewer: row.Bool("is_supported_by_viewer"),
			Supporters:          supportersByWish[w.ID],
		})
	}
	return views, nil
}

// latestPage is the single joined query: wish columns plus a viewer-match
// boolean, DISTINCT, ordered by created_at DESC with id as the tie-breaker,
// paginated once at this level.
func (r *Repository) latestPage(ctx context.Context, limit, offset int, viewer *Identity) ([]database.Row, error) {
	d := r.exec.Dialect()

	// Zero values that match no row stand in for an absent viewer, keeping
	// the statement shape identical for both cases.
	var viewerSession any = ""
	var viewerUser any = int64(0)
	if viewer != nil {
		if sid, ok := viewer.SessionID(); ok {
			viewerSession = sid
		}
		if uid, ok := viewer.UserID(); ok {
			viewerUser = uid
		}
	}

	res, err := r.exec.SelectJoin(ctx, query.JoinConfig{
		Table:    wishesTable + " w",
		Distinct: true,
		Columns: []string{
			"w.id", "w.name", "w.wish", "w.user_id", "w.support_count",
			"w.created_at", "w.updated_at",
			"CASE WHEN v.id IS NULL THEN 0 ELSE 1 END AS is_supported_by_viewer",
		},
		Joins: []query.Join{{
			Type:  "LEFT JOIN",
			Table: supportsTable + " v",
			On: "v.wish_id = w.id AND (v.session_id = " + d.Placeholder(1) +
				" OR v.user_id = " + d.Placeholder(2) + ")",
		}},
		JoinParams: []any{viewerSession, viewerUser},
		OrderBy:    "w.created_at DESC, w.id",
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// sessionsForWishes batch-resolves wish ids to authoring session ids in a
// single IN-list query.
func (r *Repository) sessionsForWishes(ctx context.Context, wishIDs []any) (map[string]string, error) {
	res, err := r.exec.SelectIn(ctx, sessionsTable, "wish_id", wishIDs, "wish_id", "session_id")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(res.Rows))
	for _, row := range res.Rows {
		out[row.String("wish_id")] = row.String("session_id")
	}
	return out, nil
}

// supportersForWishes batch-fetches all support rows for the id set and
// groups them into per-wish supporter tag sets.
func (r *Repository) supportersForWishes(ctx context.Context, wishIDs []any) (map[string][]string, error) {
	res, err := r.exec.SelectIn(ctx, supportsTable, "wish_id", wishIDs,
		"wish_id", "session_id", "user_id")
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(res.Rows))
	for _, row := range res.Rows {
		wishID := row.String("wish_id")
		if uid, ok := row.NullInt64("user_id"); ok {
			out[wishID] = append(out[wishID], UserIdentity(uid).Tag())
		} else if sid, ok := row.NullString("session_id"); ok {
			out[wishID] = append(out[wishID], SessionIdentity(sid).Tag())
		}
	}
	return out, nil
}

// fallbackAuthor synthesizes an author for a session-authored wish whose
// session row is gone, rendering as "session_<wishID>". This masks missing
// data rather than modeling it; a service layer that guarantees a session row
// per anonymous wish can delete this function.
func fallbackAuthor(wishID string) Identity {
	return SessionIdentity(wishID)
}

// HasSupported reports whether supporter already supports the wish. A nil
// supporter returns false without touching the database.
func (r *Repository) HasSupported(ctx context.Context, wishID string, supporter *Identity) (bool, error) {
	if supporter == nil {
		return false, nil
	}

	where := map[string]any{"wish_id": wishID}
	if uid, ok := supporter.UserID(); ok {
		where["user_id"] = uid
	} else {
		sid, _ := supporter.SessionID()
		where["session_id"] = sid
	}

	res, err := r.exec.Select(ctx, supportsTable, query.SelectOptions{
		Columns: []string{"id"},
		Where:   where,
		Limit:   1,
	})
	if err != nil {
		return false, err
	}
	return len(res.Rows) > 0, nil
}

// AddSupport records supporter's support and recomputes the wish's counter.
// An author supporting their own wish is rejected with ErrSelfSupport.
// Idempotent: an existing support is a no-op, and the check-insert race is
// settled by the unique index — a duplicate-key failure from the insert is
// treated as "already supported", not an error. A nil supporter is a silent
// no-op.
func (r *Repository) AddSupport(ctx context.Context, wishID string, supporter *Identity) error {
	if supporter == nil {
		return nil
	}

	self, err := r.isAuthor(ctx, wishID, supporter)
	if err != nil {
		return err
	}
	if self {
		return ErrSelfSupport
	}

	has, err := r.HasSupported(ctx, wishID, supporter)
	if err != nil {
		return err
	}
	if has {
		return nil
	}

	data := map[string]any{
		"wish_id":    wishID,
		"session_id": nil,
		"user_id":    nil,
		"created_at": time.Now().UTC(),
	}
	if uid, ok := supporter.UserID(); ok {
		// session_id stays null so a row is never ambiguous between kinds.
		data["user_id"] = uid
	} else {
		sid, _ := supporter.SessionID()
		data["session_id"] = sid
	}

	if _, err := r.exec.Insert(ctx, supportsTable, data); err != nil {
		if database.IsDuplicateKey(err) {
			// A second writer won the race; their recount already ran.
			r.logger.Debug().Str("wish_id", wishID).Str("supporter", supporter.Tag()).
				Msg("support insert lost race, treating as already supported")
			return nil
		}
		return err
	}

	_, err = r.exec.RecountSupport(ctx, wishID)
	return err
}

// isAuthor reports whether supporter authored the wish. User authorship
// lives on the wishes row, session authorship in the sessions mapping.
func (r *Repository) isAuthor(ctx context.Context, wishID string, supporter *Identity) (bool, error) {
	if uid, ok := supporter.UserID(); ok {
		res, err := r.exec.Select(ctx, wishesTable, query.SelectOptions{
			Columns: []string{"id"},
			Where:   map[string]any{"id": wishID, "user_id": uid},
			Limit:   1,
		})
		if err != nil {
			return false, err
		}
		return len(res.Rows) > 0, nil
	}

	sid, _ := supporter.SessionID()
	res, err := r.exec.Select(ctx, sessionsTable, query.SelectOptions{
		Columns: []string{"session_id"},
		Where:   map[string]any{"session_id": sid, "wish_id": wishID},
		Limit:   1,
	})
	if err != nil {
		return false, err
	}
	return len(res.Rows) > 0, nil
}

// RemoveSupport deletes supporter's support row and recomputes the counter.
// Removing a support that does not exist is not an error, and a nil
// supporter is a silent no-op.
func (r *Repository) RemoveSupport(ctx context.Context, wishID string, supporter *Identity) error {
	if supporter == nil {
		return nil
	}

	conditions := map[string]any{"wish_id": wishID}
	if uid, ok := supporter.UserID(); ok {
		conditions["user_id"] = uid
	} else {
		sid, _ := supporter.SessionID()
		conditions["session_id"] = sid
	}

	if _, err := r.exec.Delete(ctx, supportsTable, conditions); err != nil {
		return err
	}

	_, err := r.exec.RecountSupport(ctx, wishID)
	return err
}

func wishFromRow(row database.Row) *Wish {
	w := &Wish{
		ID:           row.String("id"),
		Name:         row.String("name"),
		Content:      row.String("wish"),
		SupportCount: row.Int64("support_count"),
		CreatedAt:    row.Time("created_at"),
		UpdatedAt:    row.Time("updated_at"),
	}
	if uid, ok := row.NullInt64("user_id"); ok {
		w.UserID = &uid
	}
	return w
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

package wish

import "strconv"

// IdentityKind discriminates the two ways someone can act in the system.
type IdentityKind int

const (
	// UserKind is an authenticated account, keyed by integer user id.
	UserKind IdentityKind = iota
	// SessionKind is an anonymous visitor, keyed by opaque session id.
	SessionKind
)

// Identity is a tagged union: a user id or a session id, never both and
// never neither. Construct through UserIdentity, SessionIdentity or
// IdentityFrom so the exactly-one invariant lives in one place instead of at
// every call site.
type Identity struct {
	kind      IdentityKind
	userID    int64
	sessionID string
}

// UserIdentity builds the user variant.
func UserIdentity(id int64) Identity {
	return Identity{kind: UserKind, userID: id}
}

// SessionIdentity builds the session variant.
func SessionIdentity(id string) Identity {
	return Identity{kind: SessionKind, sessionID: id}
}

// IdentityFrom mirrors call sites that carry an optional (sessionID, userID)
// pair. A positive userID wins over a session id, matching the persistence
// rule that a support row's session_id is forced null when a user id is
// present. ok is false when neither identity is set.
func IdentityFrom(sessionID string, userID int64) (Identity, bool) {
	if userID > 0 {
		return UserIdentity(userID), true
	}
	if sessionID != "" {
		return SessionIdentity(sessionID), true
	}
	return Identity{}, false
}

// Kind reports which variant this identity is.
func (i Identity) Kind() IdentityKind {
	return i.kind
}

// UserID returns the user id when this is the user variant.
func (i Identity) UserID() (int64, bool) {
	if i.kind == UserKind {
		return i.userID, true
	}
	return 0, false
}

// SessionID returns the session id when this is the session variant.
func (i Identity) SessionID() (string, bool) {
	if i.kind == SessionKind {
		return i.sessionID, true
	}
	return "", false
}

// Tag renders the identity as "user_<id>" or "session_<id>", the form used
// to mix both kinds in a single supporter set.
func (i Identity) Tag() string {
	if i.kind == UserKind {
		return "user_" + strconv.FormatInt(i.userID, 10)
	}
	return "session_" + i.sessionID
}

package wish

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	maxNameLen    = 64
	maxContentLen = 240
)

var (
	// ErrEmptyContent reports a wish with no text after trimming.
	ErrEmptyContent = errors.New("wish: content is empty")
	// ErrContentTooLong reports content over the 240-character bound.
	ErrContentTooLong = errors.New("wish: content exceeds 240 characters")
	// ErrNameTooLong reports a display name over the 64-character bound.
	ErrNameTooLong = errors.New("wish: name exceeds 64 characters")
	// ErrSelfSupport reports an author trying to support their own wish.
	ErrSelfSupport = errors.New("wish: author cannot support own wish")
)

// Content is the validated wish text: trimmed, 1 to 240 characters.
type Content string

// NewContent trims raw and enforces the length bounds. This is the only
// validation the persistence core performs; everything else is the service
// layer's job.
func NewContent(raw string) (Content, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(trimmed) > maxContentLen {
		return "", ErrContentTooLong
	}
	return Content(trimmed), nil
}

// Name is the optional display name, at most 64 characters. Empty is valid.
type Name string

// NewName trims raw and enforces the length bound.
func NewName(raw string) (Name, error) {
	trimmed := strings.TrimSpace(raw)
	if utf8.RuneCountInString(trimmed) > maxNameLen {
		return "", ErrNameTooLong
	}
	return Name(trimmed), nil
}

// Wish is one row of the wishes table.
type Wish struct {
	ID           string
	Name         string // empty when the author gave none
	Content      string
	UserID       *int64 // set for user-authored wishes, nil for session-authored
	SupportCount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// View is a wish assembled for display: the row itself, the resolved author
// identity, whether the requesting viewer supports it, and the full supporter
// tag set.
type View struct {
	Wish
	Author              Identity
	IsSupportedByViewer bool
	Supporters          []string
}

package database

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound reports an update or lookup that matched no row.
	ErrNotFound = errors.New("database: not found")

	// ErrAlreadyExists reports a write rejected because the entity exists.
	ErrAlreadyExists = errors.New("database: already exists")

	// ErrEmptyQuery reports a query whose SQL text is blank. Rejected before
	// reaching the network.
	ErrEmptyQuery = errors.New("database: empty query text")
)

// duplicateKeyMarkers are the messages each engine emits on a unique-index
// conflict. Matching on them keeps the translation driver-agnostic.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint", // postgres
	"Duplicate entry",           // mysql
	"UNIQUE constraint failed",  // sqlite
	"constraint failed: UNIQUE", // sqlite, extended error format
}

// IsDuplicateKey reports whether err is a unique-index conflict from any of
// the supported engines.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAlreadyExists) {
		return true
	}
	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

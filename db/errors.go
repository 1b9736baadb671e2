package db

import (
	"strings"

	"github.com/teranos/skosprobe/errors"
)

// ErrDatabaseClosed is returned when the store is used after Close.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err means the connection is closed.
// The sql package returns its own unwrapped error for this, so the message is
// matched as a fallback.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

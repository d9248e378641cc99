package db

import (
	"strings"

	"github.com/teranos/sqb/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed
// database, typically during shutdown while a lookup is still in flight.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed checks if an error indicates the database connection is closed.
// The sql package returns its own error for this, so the message is matched too.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

package retry

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLSTATE codes a PostgreSQL server returns while it cannot take work yet.
var pqTransientCodes = map[pq.ErrorCode]bool{
	"57P03": true, // cannot_connect_now: starting up
	"53300": true, // too_many_connections
	"08000": true, // connection_exception
	"08001": true, // sqlclient_unable_to_establish_sqlconnection
	"08006": true, // connection_failure
}

// IsRecoverable reports whether a failed attempt to reach a database is
// worth repeating. Driver errors are classified by code; anything else must
// be a dial failure or a timeout.
func IsRecoverable(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqTransientCodes[pqErr.Code]
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// Extended result codes keep the primary code in the low byte
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
		return false
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return netErr.Op == "dial" || netErr.Timeout()
	}
	return false
}

package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// TransientError marks an error as safe to retry.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// transientPgCodes are Postgres SQLSTATEs that succeed on retry.
var transientPgCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
}

// transientPatterns match wrapped errors from drivers and API clients that
// do not expose typed errors.
var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"i/o timeout",
	"no such host",
	"tls handshake timeout",
	"server closed idle connection",
	"database is locked",     // sqlite busy
	"sqlite_busy",            // sqlite busy
	"request_limit_exceeded", // salesforce API quota
	"rate_limited",           // notion
	"conflict_error",         // notion concurrent edit
}

// IsTransient reports whether err (or anything in its chain) is worth
// retrying: an explicit TransientError, a network timeout, a refused or
// reset connection, a retryable Postgres SQLSTATE, or a known busy/rate
// limit message from SQLite, Salesforce or Notion.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientPgCodes[pgErr.Code]
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsTransientHTTPStatus reports whether an HTTP status is worth retrying.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

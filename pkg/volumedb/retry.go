package volumedb

import (
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/metrics"
)

// RetryPolicy bounds how long an operation waits out lock contention
// before giving up with ErrBusy. The delay between attempts doubles up
// to MaxBackoff.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy tolerates a few seconds of contention, which covers
// the expected workload of short attach/update/detach transactions.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 50,
	Backoff:     5 * time.Millisecond,
	MaxBackoff:  100 * time.Millisecond,
}

// run executes fn, retrying while the engine reports the file locked by
// another writer. Any other outcome, success or failure, is returned to
// the caller on the first attempt that produced it.
func (p RetryPolicy) run(logger zerolog.Logger, op string, fn func() error) error {
	delay := p.Backoff
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !retryable(err) {
			return err
		}

		if attempt >= p.MaxAttempts {
			metrics.DBBusyTotal.Inc()
			logger.Warn().
				Str("op", op).
				Int("attempts", attempt).
				Err(err).
				Msg("retry budget exhausted")
			return fmt.Errorf("%s after %d attempts: %w", op, attempt, ErrBusy)
		}

		metrics.DBRetriesTotal.Inc()
		logger.Debug().
			Str("op", op).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("database locked, retrying")

		time.Sleep(delay)
		if delay < p.MaxBackoff {
			delay *= 2
			if delay > p.MaxBackoff {
				delay = p.MaxBackoff
			}
		}
	}
}

// retryable reports whether err is transient lock contention from a
// concurrent writer, as opposed to a real failure.
func retryable(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}

// isConstraintErr reports whether err is a primary key violation.
func isConstraintErr(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrConstraint
	}
	return false
}

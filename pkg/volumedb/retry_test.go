package volumedb

import (
	"errors"
	"testing"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

var busyErr = sqlite3.Error{Code: sqlite3.ErrBusy}

func testPolicy(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: attempts,
		Backoff:     time.Microsecond,
		MaxBackoff:  10 * time.Microsecond,
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, retryable(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.False(t, retryable(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, retryable(errors.New("some other failure")))
	assert.False(t, retryable(nil))
}

func TestRunSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := testPolicy(5).run(zerolog.Nop(), "test", func() error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunReturnsRealErrorsImmediately(t *testing.T) {
	failure := errors.New("disk on fire")
	calls := 0
	err := testPolicy(5).run(zerolog.Nop(), "test", func() error {
		calls++
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 1, calls)
}

func TestRunRetriesBusyThenSucceeds(t *testing.T) {
	calls := 0
	err := testPolicy(5).run(zerolog.Nop(), "test", func() error {
		calls++
		if calls < 3 {
			return busyErr
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunExhaustsBudget(t *testing.T) {
	calls := 0
	err := testPolicy(4).run(zerolog.Nop(), "test", func() error {
		calls++
		return busyErr
	})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 4, calls)
}

/*
Package log provides structured logging for Burrow using zerolog.

The package wraps a global zerolog.Logger initialized once at startup via
Init. Components obtain child loggers carrying identifying fields:

	logger := log.WithComponent("volumedb")
	logger.Debug().Str("op", op).Msg("database locked, retrying")

# Configuration

Init accepts a Config selecting the level (debug, info, warn, error),
JSON or human-readable console output, and the destination writer
(stderr by default, so CLI command output on stdout stays clean).

# Conventions

  - Errors are returned to callers, never logged and swallowed
  - Retry loops log attempts at debug and budget exhaustion at warn
  - Field names are snake_case (component, op, attempt)

# See Also

  - pkg/volumedb for the main consumer
*/
package log

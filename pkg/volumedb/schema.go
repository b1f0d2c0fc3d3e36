package volumedb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/cuemby/burrow/pkg/log"
)

//go:embed migration/001_initial.sql
var migrationFiles embed.FS

const (
	// Version is the current schema generation
	Version = 1

	versionDescription = "Initial version"

	// timeFormat matches the engine's CURRENT_TIMESTAMP rendering
	// (second precision, no zone)
	timeFormat = "2006-01-02 15:04:05"
)

// Create initializes the volume database at path, creating the file and
// schema if they do not exist. Calling it on an already-initialized file
// is a no-op: existing records and the original version row are kept.
func Create(path string) error {
	return CreateWithPolicy(path, DefaultRetryPolicy)
}

// CreateWithPolicy is Create with an explicit retry policy.
func CreateWithPolicy(path string, policy RetryPolicy) error {
	schema, err := migrationFiles.ReadFile("migration/001_initial.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}

	conn, err := sql.Open(driverName, dsn(path, "rwc"))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer conn.Close()
	conn.SetMaxOpenConns(1)

	logger := log.WithComponent("volumedb")
	err = policy.run(logger, "create", func() error {
		if _, err := conn.Exec(string(schema)); err != nil {
			return err
		}
		// The version row is written once, on first creation.
		updated := time.Now().UTC().Format(timeFormat)
		_, err := conn.Exec(
			`INSERT INTO versions (version, description, updated)
			 SELECT ?, ?, ?
			 WHERE NOT EXISTS (SELECT 1 FROM versions)`,
			Version, versionDescription, updated)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return err
		}
		return fmt.Errorf("create volume database %s: %w: %v", path, ErrUnavailable, err)
	}

	logger.Debug().Str("path", path).Msg("volume database ready")
	return nil
}

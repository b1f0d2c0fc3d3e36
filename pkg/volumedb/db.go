package volumedb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/types"
)

const driverName = "sqlite3"

// dsn builds the engine connection string. Contention surfaces
// immediately as a busy error so the RetryPolicy controls all waiting,
// and write transactions take the file lock up front.
func dsn(path, mode string) string {
	return fmt.Sprintf("file:%s?mode=%s&_busy_timeout=0&_txlock=immediate", path, mode)
}

// DB is an open handle to a volume database. Each concurrent caller is
// expected to open its own handle; a handle is not shared across
// goroutines. After Close every operation fails with ErrClosed.
type DB struct {
	conn   *sql.DB
	closed atomic.Bool
	retry  RetryPolicy
	logger zerolog.Logger
}

// Open returns a handle bound to the volume database at path. It fails
// with ErrUnavailable if the file is missing, unreadable, or not a
// valid volume database.
func Open(path string) (*DB, error) {
	return OpenWithPolicy(path, DefaultRetryPolicy)
}

// OpenWithPolicy is Open with an explicit retry policy.
func OpenWithPolicy(path string, policy RetryPolicy) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, ErrUnavailable, err)
	}

	conn, err := sql.Open(driverName, dsn(path, "rw"))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %v", path, ErrUnavailable, err)
	}
	// The handle owns exactly one connection to the file.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	d := &DB{
		conn:   conn,
		retry:  policy,
		logger: log.WithComponent("volumedb"),
	}

	info, err := d.loadVersion()
	if err != nil {
		_ = conn.Close()
		if errors.Is(err, ErrBusy) {
			return nil, err
		}
		return nil, fmt.Errorf("open %s: %w: %v", path, ErrUnavailable, err)
	}
	if info.Version != Version {
		_ = conn.Close()
		return nil, fmt.Errorf("open %s: unknown schema version %d: %w",
			path, info.Version, ErrUnavailable)
	}

	return d, nil
}

// Close releases the underlying connection. It is idempotent; any
// later operation on this handle fails with ErrClosed.
func (d *DB) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	if err := d.conn.Close(); err != nil {
		return fmt.Errorf("close volume database: %w", err)
	}
	return nil
}

// Add creates a new volume record holding only the connection info.
// It fails with ErrAlreadyExists if id is present, leaving the existing
// record untouched.
func (d *DB) Add(id string, connectionInfo map[string]any) error {
	if err := d.checkOpen("add"); err != nil {
		return err
	}
	payload, err := json.Marshal(connectionInfo)
	if err != nil {
		return fmt.Errorf("encode connection_info: %w", err)
	}

	return d.observe("add", func() error {
		_, err := d.conn.Exec(
			`INSERT INTO volumes (vol_id, connection_info) VALUES (?, ?)`,
			id, string(payload))
		if isConstraintErr(err) {
			return fmt.Errorf("volume %s: %w", id, ErrAlreadyExists)
		}
		return err
	})
}

// Get returns the full current record for id, or ErrNotFound.
func (d *DB) Get(id string) (*types.Volume, error) {
	if err := d.checkOpen("get"); err != nil {
		return nil, err
	}

	var vol *types.Volume
	err := d.observe("get", func() error {
		row := d.conn.QueryRow(
			`SELECT vol_id, connection_info, path, attachment, multipath_id
			 FROM volumes WHERE vol_id = ?`, id)
		v, err := scanVolume(row)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("volume %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		vol = v
		return nil
	})
	return vol, err
}

// Update records the result of a completed attach flow: device path,
// attachment metadata and multipath id are set together, replacing any
// previous values. Connection info and id are never touched. Fails with
// ErrNotFound if id is absent.
func (d *DB) Update(id, path string, attachment map[string]any, multipathID string) error {
	if err := d.checkOpen("update"); err != nil {
		return err
	}
	payload, err := json.Marshal(attachment)
	if err != nil {
		return fmt.Errorf("encode attachment: %w", err)
	}

	return d.observe("update", func() error {
		res, err := d.conn.Exec(
			`UPDATE volumes SET path = ?, attachment = ?, multipath_id = ?
			 WHERE vol_id = ?`,
			path, string(payload), multipathID, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("volume %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Remove deletes the record for id entirely. Fails with ErrNotFound if
// id is absent.
func (d *DB) Remove(id string) error {
	if err := d.checkOpen("remove"); err != nil {
		return err
	}

	return d.observe("remove", func() error {
		res, err := d.conn.Exec(`DELETE FROM volumes WHERE vol_id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("volume %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// OwnsMultipath reports whether any live record claims the given
// multipath device. Callers use it to refuse a second attach flow for a
// device some volume already owns. No match is not an error.
func (d *DB) OwnsMultipath(multipathID string) (bool, error) {
	if err := d.checkOpen("owns_multipath"); err != nil {
		return false, err
	}

	var owns bool
	err := d.observe("owns_multipath", func() error {
		row := d.conn.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM volumes WHERE multipath_id = ?)`,
			multipathID)
		return row.Scan(&owns)
	})
	return owns, err
}

// List returns all volume records ordered by id.
func (d *DB) List() ([]*types.Volume, error) {
	if err := d.checkOpen("list"); err != nil {
		return nil, err
	}

	var volumes []*types.Volume
	err := d.observe("list", func() error {
		rows, err := d.conn.Query(
			`SELECT vol_id, connection_info, path, attachment, multipath_id
			 FROM volumes ORDER BY vol_id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		volumes = nil
		for rows.Next() {
			v, err := scanVolume(rows)
			if err != nil {
				return err
			}
			volumes = append(volumes, v)
		}
		return rows.Err()
	})
	return volumes, err
}

// VersionInfo returns the schema version record written when the
// database was created.
func (d *DB) VersionInfo() (*types.VersionInfo, error) {
	if err := d.checkOpen("version_info"); err != nil {
		return nil, err
	}

	var info *types.VersionInfo
	err := d.observe("version_info", func() error {
		i, err := readVersion(d.conn)
		if err != nil {
			return err
		}
		info = i
		return nil
	})
	return info, err
}

// checkOpen poisons every operation once the handle is closed.
func (d *DB) checkOpen(op string) error {
	if d.closed.Load() {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	return nil
}

// observe runs fn under the retry policy and records metrics for the
// operation.
func (d *DB) observe(op string, fn func() error) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DBOperationDuration, op)

	err := d.retry.run(d.logger, op, fn)

	result := "ok"
	switch {
	case errors.Is(err, ErrBusy):
		result = "busy"
	case err != nil:
		result = "error"
	}
	metrics.DBOperationsTotal.WithLabelValues(op, result).Inc()
	return err
}

// loadVersion reads the version row under the retry policy without the
// closed-handle check, for use during Open.
func (d *DB) loadVersion() (*types.VersionInfo, error) {
	var info *types.VersionInfo
	err := d.retry.run(d.logger, "version_info", func() error {
		i, err := readVersion(d.conn)
		if err != nil {
			return err
		}
		info = i
		return nil
	})
	return info, err
}

func readVersion(conn *sql.DB) (*types.VersionInfo, error) {
	var (
		info    types.VersionInfo
		updated string
	)
	row := conn.QueryRow(`SELECT version, description, updated FROM versions`)
	if err := row.Scan(&info.Version, &info.Description, &updated); err != nil {
		return nil, err
	}
	ts, err := time.Parse(timeFormat, updated)
	if err != nil {
		return nil, fmt.Errorf("parse updated timestamp %q: %w", updated, err)
	}
	info.Updated = ts
	return &info, nil
}

// scanVolume maps one volumes row onto a record, decoding the opaque
// JSON documents. Optional columns stay empty when NULL.
func scanVolume(row interface{ Scan(dest ...any) error }) (*types.Volume, error) {
	var (
		vol                       types.Volume
		connInfo                  string
		path, attachment, mpathID sql.NullString
	)
	if err := row.Scan(&vol.ID, &connInfo, &path, &attachment, &mpathID); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(connInfo), &vol.ConnectionInfo); err != nil {
		return nil, fmt.Errorf("decode connection_info: %w", err)
	}
	vol.Path = path.String
	vol.MultipathID = mpathID.String
	if attachment.Valid {
		if err := json.Unmarshal([]byte(attachment.String), &vol.Attachment); err != nil {
			return nil, fmt.Errorf("decode attachment: %w", err)
		}
	}
	return &vol, nil
}

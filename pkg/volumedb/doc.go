/*
Package volumedb provides SQLite-backed persistence for managed volume
records on a single host.

Every externally attached block volume gets one record: the opaque
connection info used to attach it, and, once attached, the host device
path, attachment metadata and multipath device id. The database is a
single file; its transactional engine is the only coordination between
the many short-lived attach/update/detach flows that touch it, whether
they run in one process or several.

# Architecture

	┌──────────────────── VOLUME DATABASE ─────────────────────┐
	│                                                          │
	│  caller A            caller B            caller C        │
	│  Open → DB           Open → DB           Open → DB       │
	│     │                   │                   │            │
	│     └───────────┬───────┴───────────┬───────┘            │
	│                 ▼                   ▼                    │
	│        one transaction per operation                     │
	│        bounded busy-retry with backoff                   │
	│                 │                                        │
	│                 ▼                                        │
	│        SQLite file (single writer at a time)             │
	│          volumes(vol_id PK, connection_info,             │
	│                  path, attachment, multipath_id)         │
	│          versions(version, description, updated)         │
	└──────────────────────────────────────────────────────────┘

# Lifecycle

A caller first ensures the database exists, then opens its own handle,
performs record operations, and closes the handle when the flow ends:

	if err := volumedb.Create(path); err != nil {
		return err
	}
	db, err := volumedb.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Add(volID, connectionInfo)
	...
	err = db.Update(volID, devPath, attachment, multipathID)

Create is idempotent: re-running it against an initialized file keeps
all records and the original version row. Close poisons the handle;
every later call on it returns ErrClosed, even when other handles to
the same file remain live.

# Concurrency

Operations run as individual transactions serialized by the engine's
file lock. A transaction that finds the file locked by another writer
is not a failure: the operation retries with doubling backoff until the
RetryPolicy budget runs out, and only then fails with ErrBusy. Readers
see either the pre- or post-state of a concurrent write, never a
partial record. The last update to commit wins; the store performs no
optimistic-concurrency check of its own.

Handles are cheap and not goroutine-safe by contract: each concurrent
flow opens its own.

# Errors

All failures are typed sentinels matchable with errors.Is:

  - ErrNotFound: no record for the addressed id
  - ErrAlreadyExists: Add hit an existing id (record left untouched)
  - ErrClosed: the handle was closed
  - ErrUnavailable: file missing, unreadable, or not a volume database
  - ErrBusy: retry budget exhausted under contention

# Ownership Query

OwnsMultipath reports whether any live record claims a multipath
device. Attach flows use it to detect that two volumes would resolve to
the same physical device and refuse the second attach.

# See Also

  - pkg/types for the record types
  - pkg/metrics for the operation counters this package maintains
  - cmd/burrow for the CLI over this package
*/
package volumedb

package volumedb

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB creates a fresh database and returns an open handle.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(testDBPath(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestClose(t *testing.T) {
	db, err := Open(testDBPath(t))
	require.NoError(t, err)

	require.NoError(t, db.Close())

	// The closed handle is poisoned for every operation.
	_, err = db.Get("something")
	assert.ErrorIs(t, err, ErrClosed)

	err = db.Add("v1", map[string]any{"key": "value"})
	assert.ErrorIs(t, err, ErrClosed)

	_, err = db.OwnsMultipath("xyz")
	assert.ErrorIs(t, err, ErrClosed)

	_, err = db.VersionInfo()
	assert.ErrorIs(t, err, ErrClosed)

	// Close is idempotent
	assert.NoError(t, db.Close())
}

func TestCloseLeavesOtherHandlesLive(t *testing.T) {
	path := testDBPath(t)

	db1, err := Open(path)
	require.NoError(t, err)
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()

	require.NoError(t, db1.Add("v1", map[string]any{"key": "value"}))
	require.NoError(t, db1.Close())

	_, err = db1.Get("v1")
	assert.ErrorIs(t, err, ErrClosed)

	// The file itself is still served through the second handle.
	vol, err := db2.Get("v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", vol.ID)
}

func TestAddGet(t *testing.T) {
	db := openTestDB(t)

	connectionInfo := map[string]any{"key": "value"}
	id := uuid.New().String()

	require.NoError(t, db.Add(id, connectionInfo))

	vol, err := db.Get(id)
	require.NoError(t, err)

	assert.Equal(t, id, vol.ID)
	assert.Equal(t, connectionInfo, vol.ConnectionInfo)
	assert.Empty(t, vol.Path)
	assert.Nil(t, vol.Attachment)
	assert.Empty(t, vol.MultipathID)
	assert.False(t, vol.Attached())
}

func TestAddExisting(t *testing.T) {
	db := openTestDB(t)

	id := uuid.New().String()
	require.NoError(t, db.Add(id, map[string]any{"key": "value"}))

	err := db.Add(id, map[string]any{"key2": "value2"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// The original record is untouched.
	vol, err := db.Get(id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key": "value"}, vol.ConnectionInfo)
}

func TestAddExistingKeepsAttachment(t *testing.T) {
	db := openTestDB(t)

	id := uuid.New().String()
	require.NoError(t, db.Add(id, map[string]any{"key": "value"}))
	require.NoError(t, db.Update(id, "/dev/mapper/xyz", map[string]any{"a": "b"}, "xyz"))

	err := db.Add(id, map[string]any{"key2": "value2"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	vol, err := db.Get(id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"key": "value"}, vol.ConnectionInfo)
	assert.Equal(t, "/dev/mapper/xyz", vol.Path)
	assert.Equal(t, "xyz", vol.MultipathID)
}

func TestGetMissing(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Get("this doesn't exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate(t *testing.T) {
	db := openTestDB(t)

	connectionInfo := map[string]any{"key": "value"}
	id := uuid.New().String()
	require.NoError(t, db.Add(id, connectionInfo))

	path := "/dev/mapper/36001405376e34ea70384de7a34a2854d"
	multipathID := "36001405376e34ea70384de7a34a2854d"
	attachment := map[string]any{"key2": "value2"}
	require.NoError(t, db.Update(id, path, attachment, multipathID))

	vol, err := db.Get(id)
	require.NoError(t, err)
	assert.Equal(t, connectionInfo, vol.ConnectionInfo)
	assert.Equal(t, path, vol.Path)
	assert.Equal(t, attachment, vol.Attachment)
	assert.Equal(t, multipathID, vol.MultipathID)
	assert.True(t, vol.Attached())
}

func TestUpdateOverwrites(t *testing.T) {
	db := openTestDB(t)

	id := uuid.New().String()
	require.NoError(t, db.Add(id, map[string]any{"key": "value"}))
	require.NoError(t, db.Update(id, "/dev/mapper/one", map[string]any{"n": "1"}, "one"))

	// Last writer wins; there is no optimistic-concurrency check.
	require.NoError(t, db.Update(id, "/dev/mapper/two", map[string]any{"n": "2"}, "two"))

	vol, err := db.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "/dev/mapper/two", vol.Path)
	assert.Equal(t, map[string]any{"n": "2"}, vol.Attachment)
	assert.Equal(t, "two", vol.MultipathID)
}

func TestUpdateMissing(t *testing.T) {
	db := openTestDB(t)

	err := db.Update("no-such-volume", "/dev/mapper/xyz", map[string]any{}, "xyz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemove(t *testing.T) {
	db := openTestDB(t)

	id := uuid.New().String()
	require.NoError(t, db.Add(id, map[string]any{"key": "value"}))
	require.NoError(t, db.Remove(id))

	_, err := db.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)

	err = db.Remove(id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOwnsMultipath(t *testing.T) {
	db := openTestDB(t)

	volID := uuid.New().String()
	connectionInfo := map[string]any{"connection": "1"}
	attachment := map[string]any{"attachment": "2"}
	path := "/dev/mapper/36001405376e34ea70384de7a34a2854d"
	multipathID := "36001405376e34ea70384de7a34a2854d"

	// Empty database does not own any device.
	owns, err := db.OwnsMultipath(multipathID)
	require.NoError(t, err)
	assert.False(t, owns)

	// Volume does not own (yet) multipathID.
	require.NoError(t, db.Add(volID, connectionInfo))
	owns, err = db.OwnsMultipath(multipathID)
	require.NoError(t, err)
	assert.False(t, owns)

	// Volume owns multipathID.
	require.NoError(t, db.Update(volID, path, attachment, multipathID))
	owns, err = db.OwnsMultipath(multipathID)
	require.NoError(t, err)
	assert.True(t, owns)

	// Overwriting to a different device releases the old one.
	require.NoError(t, db.Update(volID, "/dev/mapper/other", attachment, "other"))
	owns, err = db.OwnsMultipath(multipathID)
	require.NoError(t, err)
	assert.False(t, owns)
	owns, err = db.OwnsMultipath("other")
	require.NoError(t, err)
	assert.True(t, owns)

	// Nothing owns the device after the record is removed.
	require.NoError(t, db.Remove(volID))
	owns, err = db.OwnsMultipath("other")
	require.NoError(t, err)
	assert.False(t, owns)
}

func TestList(t *testing.T) {
	db := openTestDB(t)

	volumes, err := db.List()
	require.NoError(t, err)
	assert.Empty(t, volumes)

	for _, id := range []string{"vol-c", "vol-a", "vol-b"} {
		require.NoError(t, db.Add(id, map[string]any{"id": id}))
	}

	volumes, err = db.List()
	require.NoError(t, err)
	require.Len(t, volumes, 3)
	assert.Equal(t, "vol-a", volumes[0].ID)
	assert.Equal(t, "vol-b", volumes[1].ID)
	assert.Equal(t, "vol-c", volumes[2].ID)
}

func TestBusyWhenLockHeld(t *testing.T) {
	path := testDBPath(t)

	// Hold the write lock from a separate connection.
	blocker, err := sql.Open(driverName, dsn(path, "rw"))
	require.NoError(t, err)
	defer blocker.Close()

	tx, err := blocker.Begin()
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	// Reads still work while the lock is only reserved, so Open
	// succeeds; the write runs out of its small retry budget.
	db, err := OpenWithPolicy(path, RetryPolicy{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		MaxBackoff:  time.Millisecond,
	})
	require.NoError(t, err)
	defer db.Close()

	err = db.Add("v1", map[string]any{"key": "value"})
	assert.ErrorIs(t, err, ErrBusy)

	// Releasing the lock lets the same operation through.
	require.NoError(t, tx.Rollback())
	assert.NoError(t, db.Add("v1", map[string]any{"key": "value"}))
}

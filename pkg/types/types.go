package types

import "time"

// Volume represents a managed block storage volume tracked by the host.
//
// ConnectionInfo is set once when the volume record is created and never
// changes. Path, Attachment and MultipathID stay empty until the attach
// flow completes and records them with a single update.
type Volume struct {
	ID             string         `json:"id"`
	ConnectionInfo map[string]any `json:"connection_info"`
	Path           string         `json:"path,omitempty"`         // Host device path (e.g. /dev/mapper/...)
	Attachment     map[string]any `json:"attachment,omitempty"`   // Transport-specific attach metadata
	MultipathID    string         `json:"multipath_id,omitempty"` // Backing multipath device identifier
}

// Attached reports whether the volume has completed an attach flow.
// The attach flow sets path, attachment and multipath id together.
func (v *Volume) Attached() bool {
	return v.Path != ""
}

// VersionInfo describes the schema generation of a volume database,
// written once when the database is created.
type VersionInfo struct {
	Version     int       `json:"version"`
	Description string    `json:"description"`
	Updated     time.Time `json:"updated"`
}

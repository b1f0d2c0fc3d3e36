/*
Package types defines the core data structures used throughout Burrow.

This package contains the domain model for managed volumes: the volume
record tracked for every externally attached block device, and the schema
version record describing a database's generation.

All types are designed to be:
  - Serializable (JSON)
  - Free of behavior beyond trivial accessors
  - Shared by the storage layer, the CLI, and external callers

# Core Types

Volume:
  - ID: caller-supplied unique identifier, immutable after creation
  - ConnectionInfo: opaque document describing how to reach the storage
  - Path/Attachment/MultipathID: populated together once attached

VersionInfo:
  - Version: numeric schema generation
  - Description: human-readable label written at creation
  - Updated: creation timestamp (second precision, UTC)

# Opaque Documents

ConnectionInfo and Attachment are caller-defined key/value payloads whose
schema Burrow does not know. They are carried as map[string]any and
round-tripped through storage without interpretation.

# See Also

  - pkg/volumedb for the persistence layer
  - cmd/burrow for the CLI surface
*/
package types

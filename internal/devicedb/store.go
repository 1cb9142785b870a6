// Package devicedb persists a library to on-device storage and identifies
// the device it lives on. The session layer only ever talks to the Store
// interface; the concrete implementation here keeps the database as a
// SQLite file under the device's control directory.
package devicedb

import (
	"errors"

	"github.com/tunesreloaded/podlib/internal/ipod"
)

// Sentinel errors returned by Store implementations. The session layer
// maps these onto its caller-facing error kinds.
var (
	// ErrNotFound means the mountpoint has no device database.
	ErrNotFound = errors.New("device database not found")
	// ErrCorrupt means a database exists but could not be read.
	ErrCorrupt = errors.New("device database corrupt")
	// ErrOutsideMountpoint means a destination path does not live under
	// the device mountpoint.
	ErrOutsideMountpoint = errors.New("destination not under mountpoint")
)

// Store is the persistence collaborator for a device library.
type Store interface {
	// Parse reads the existing on-device database into a library.
	Parse(mountpoint string) (*ipod.Library, error)

	// InitNew creates an empty on-device database structure for a
	// device of the given model, named displayName.
	InitNew(mountpoint, modelNumber, displayName string) error

	// Write serializes the library back to device storage, assigning
	// persistent identities to entities that lack one.
	Write(lib *ipod.Library) error

	// FinalizeTrack records device path, file-type marker, size and
	// transfer status for a track whose audio content has been placed
	// at dest (an absolute filesystem path under mountpoint).
	FinalizeTrack(track *ipod.Track, mountpoint, dest string) error

	// DestPath picks the on-device destination filename for an audio
	// file about to be transferred.
	DestPath(mountpoint, originalFilename string) (string, error)

	// DeviceInfo reads device identity fields. Best effort: callers
	// treat failure as non-fatal.
	DeviceInfo(mountpoint string) (*Info, error)
}

// Info describes the device a library is mounted from.
type Info struct {
	ModelNumber  string
	ModelName    string
	Generation   string
	CapacityGB   float64
	DeviceName   string
	SerialNumber string
	FirewireGUID string

	// ChecksumRequired marks device generations whose database must be
	// signed with a device-specific hash on write.
	ChecksumRequired bool
	// Recognized reports whether the model number matched a known model.
	Recognized bool
}

package session

import "errors"

// Error kinds surfaced by session operations. Callers match them with
// errors.Is; every returned error wraps exactly one kind plus context.
var (
	// ErrNoLibrary means no library is open. Open or InitNew first.
	ErrNoLibrary = errors.New("no library open")
	// ErrNotFound means an index did not resolve to an entity, or the
	// device has no database.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument means a required string was empty or a
	// destination path lies outside the mountpoint.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrForbidden means the operation is never allowed on its target,
	// such as deleting the master playlist.
	ErrForbidden = errors.New("forbidden")
	// ErrIO is a storage failure propagated from the device database.
	ErrIO = errors.New("i/o failure")
	// ErrCorrupt means the device database exists but cannot be read.
	ErrCorrupt = errors.New("database corrupt")
)

// Package session exposes the editable library of a mounted device:
// opening and initializing the on-device database, mutating tracks and
// playlists by position, and committing the result back through the
// persistence layer after an integrity repair pass.
//
// A session is single-threaded by design: exactly one library is open at
// a time and no operation may run concurrently with another on the same
// session. Positional indices are valid only until the next structural
// mutation (removal, re-open); snapshots returned by query methods are
// copies and stay safe to hold.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/tunesreloaded/podlib/internal/devicedb"
	"github.com/tunesreloaded/podlib/internal/ipod"
	"github.com/tunesreloaded/podlib/internal/validate"
)

// Defaults applied by InitNew when the caller passes empty values.
const (
	DefaultModelNumber = "MA450"
	DefaultDeviceName  = "iPod"
)

// Session owns at most one open library and mediates every mutation on it.
type Session struct {
	store     devicedb.Store
	log       *slog.Logger
	validator *validate.Validator

	lib       *ipod.Library
	device    *devicedb.Info
	lastAdded ipod.Handle

	// lastErr is the most recent operation failure, kept for callers
	// that poll for a message instead of handling the returned error.
	lastErr error
}

// New creates a session backed by store.
func New(store devicedb.Store, log *slog.Logger) *Session {
	return &Session{
		store:     store,
		log:       log,
		validator: validate.New(log),
	}
}

// Open parses the device database at mountpoint and makes it the
// session's library. Device identification is attempted afterwards; its
// failure is logged, never propagated.
func (s *Session) Open(mountpoint string) error {
	// Any previously open library is dropped before parsing: a failed
	// open leaves no library available until retried.
	s.dropLibrary()

	if mountpoint == "" {
		return s.fail(fmt.Errorf("%w: mountpoint cannot be empty", ErrInvalidArgument))
	}

	lib, err := s.store.Parse(mountpoint)
	if err != nil {
		return s.fail(mapStoreErr("parse device database", err))
	}

	s.lib = lib

	if info, err := s.store.DeviceInfo(mountpoint); err != nil {
		s.log.Warn("could not read device info", "error", err)
	} else {
		s.device = info
		s.log.Info("device identified",
			"model", info.ModelNumber,
			"name", info.ModelName,
			"generation", info.Generation,
			"recognized", info.Recognized)
	}

	s.log.Info("library opened",
		"mountpoint", mountpoint,
		"tracks", lib.Tracks.Len(),
		"playlists", lib.Playlists.Len())
	return nil
}

// InitNew creates an empty device database structure at mountpoint and
// opens it. Empty model and name fall back to the defaults.
func (s *Session) InitNew(mountpoint, modelNumber, displayName string) error {
	s.dropLibrary()

	if mountpoint == "" {
		return s.fail(fmt.Errorf("%w: mountpoint cannot be empty", ErrInvalidArgument))
	}
	if modelNumber == "" {
		modelNumber = DefaultModelNumber
	}
	if displayName == "" {
		displayName = DefaultDeviceName
	}

	if err := s.store.InitNew(mountpoint, modelNumber, displayName); err != nil {
		return s.fail(fmt.Errorf("%w: initialize device: %v", ErrIO, err))
	}
	return s.Open(mountpoint)
}

// Commit runs the integrity repair pass and writes the library back to
// the device. Repairs never fail a commit; they are logged.
func (s *Session) Commit() error {
	if s.lib == nil {
		return s.fail(ErrNoLibrary)
	}

	rep := s.validator.Run(s.lib)
	if rep.Changed() {
		s.log.Info("repaired library before write",
			"text_repairs", rep.TextRepairs,
			"members_dropped", rep.MembersDropped,
			"smart_disabled", rep.SmartDisabled)
	}

	if err := s.store.Write(s.lib); err != nil {
		return s.fail(fmt.Errorf("%w: write device database: %v", ErrIO, err))
	}
	return nil
}

// Close discards the open library. The session can be reused with a new
// Open or InitNew.
func (s *Session) Close() {
	if s.lib != nil {
		s.log.Info("library closed", "mountpoint", s.lib.Mountpoint)
	}
	s.dropLibrary()
}

func (s *Session) dropLibrary() {
	s.lib = nil
	s.device = nil
	s.lastAdded = 0
}

// Loaded reports whether a library is open.
func (s *Session) Loaded() bool {
	return s.lib != nil
}

// Mountpoint returns the open library's mountpoint, or "".
func (s *Session) Mountpoint() string {
	if s.lib == nil {
		return ""
	}
	return s.lib.Mountpoint
}

// Device returns the identification read when the library was opened,
// or nil if it was unavailable.
func (s *Session) Device() *devicedb.Info {
	return s.device
}

// LastError returns the most recent operation failure, or nil. It is not
// cleared by successful operations.
func (s *Session) LastError() error {
	return s.lastErr
}

// ClearError clears the last-error slot.
func (s *Session) ClearError() {
	s.lastErr = nil
}

// fail records err in the last-error slot and returns it.
func (s *Session) fail(err error) error {
	s.lastErr = err
	return err
}

// mapStoreErr translates device database sentinels into session kinds.
func mapStoreErr(op string, err error) error {
	switch {
	case errors.Is(err, devicedb.ErrNotFound):
		return fmt.Errorf("%w: %s: %v", ErrNotFound, op, err)
	case errors.Is(err, devicedb.ErrCorrupt):
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, op, err)
	case errors.Is(err, devicedb.ErrOutsideMountpoint):
		return fmt.Errorf("%w: %s: %v", ErrInvalidArgument, op, err)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s: %v", ErrNotFound, op, err)
	default:
		return fmt.Errorf("%w: %s: %v", ErrIO, op, err)
	}
}

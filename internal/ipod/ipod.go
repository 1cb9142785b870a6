// Package ipod holds the in-memory model of a device library: tracks,
// playlists and the registries that own them.
//
// Entities carry two distinct identifiers. The persistent ID is assigned
// by the on-device database when the library is written and stays 0 until
// then. The Handle is a session-scoped arena handle used for cross
// references (playlist members); it is never reused within a session.
// Callers address entities by position in the registry's ordered sequence;
// positions shift on removal and are only valid until the next structural
// mutation.
package ipod

import "time"

// Handle identifies a track within a single session.
// The zero Handle is never assigned and always resolves to nothing.
type Handle int64

// Track represents one audio item in the library.
type Track struct {
	handle Handle

	// ID is the persistent identity assigned by the device database
	// on write. 0 for tracks that have never been written.
	ID uint64

	Title    string
	Artist   string
	Album    string
	Genre    string
	FileType string

	TrackNumber int
	DiscNumber  int
	Year        int
	DurationMS  int
	Bitrate     int
	SampleRate  int
	Size        int64
	PlayCount   int
	Rating      int

	// DevicePath is the mount-relative path in device format.
	// Empty until the track has been finalized.
	DevicePath string
	// Marker is the 4-byte file-type code derived from the destination
	// filename at finalize time.
	Marker uint32
	// Transferred reports whether the audio content has been placed on
	// the device. A transferred track always has a non-empty DevicePath.
	Transferred bool

	AddedAt    time.Time
	ModifiedAt time.Time
}

// Handle returns the track's session handle.
func (t *Track) Handle() Handle {
	return t.handle
}

// Playlist is a named ordered sequence of track references.
// It never owns tracks: members are handles into the library's TrackStore.
type Playlist struct {
	// ID is the persistent identity assigned on write, 0 before.
	ID   uint64
	Name string

	// Master marks the implicit all-tracks playlist. Exactly one
	// playlist per library carries it and it cannot be deleted.
	Master bool
	// Smart marks a rule-based playlist. Rule evaluation is unsupported,
	// so the flag is forced off before every write.
	Smart bool

	members []Handle
}

// Members returns a copy of the member handle sequence.
func (p *Playlist) Members() []Handle {
	out := make([]Handle, len(p.members))
	copy(out, p.members)
	return out
}

// MemberCount returns the number of member references.
func (p *Playlist) MemberCount() int {
	return len(p.members)
}

// Contains reports whether h is a member of the playlist.
func (p *Playlist) Contains(h Handle) bool {
	for _, m := range p.members {
		if m == h {
			return true
		}
	}
	return false
}

// Add appends h to the member sequence if it is not already present.
// Returns false if h was already a member.
func (p *Playlist) Add(h Handle) bool {
	if p.Contains(h) {
		return false
	}
	p.members = append(p.members, h)
	return true
}

// Remove removes h from the member sequence.
// Returns false if h was not a member.
func (p *Playlist) Remove(h Handle) bool {
	for i, m := range p.members {
		if m == h {
			p.members = append(p.members[:i], p.members[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveAt removes the member at the given position in the sequence.
func (p *Playlist) RemoveAt(index int) bool {
	if index < 0 || index >= len(p.members) {
		return false
	}
	p.members = append(p.members[:index], p.members[index+1:]...)
	return true
}

// SetMembers replaces the member sequence. Used when loading a library
// from the device database.
func (p *Playlist) SetMembers(members []Handle) {
	p.members = members
}

// Library is the session-scoped aggregate owning one TrackStore and one
// PlaylistStore for a single mounted device.
type Library struct {
	Mountpoint string
	Tracks     *TrackStore
	Playlists  *PlaylistStore
}

// NewLibrary creates an empty library for the given mountpoint.
func NewLibrary(mountpoint string) *Library {
	return &Library{
		Mountpoint: mountpoint,
		Tracks:     NewTrackStore(),
		Playlists:  NewPlaylistStore(),
	}
}

// MasterPlaylist returns the playlist carrying the master flag, or nil if
// the library has none.
func (l *Library) MasterPlaylist() *Playlist {
	for _, p := range l.Playlists.All() {
		if p.Master {
			return p
		}
	}
	return nil
}

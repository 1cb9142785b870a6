package session

import (
	"fmt"
	"time"

	"github.com/tunesreloaded/podlib/internal/devicepath"
	"github.com/tunesreloaded/podlib/internal/ipod"
	"github.com/tunesreloaded/podlib/internal/validate"
)

// TrackMetadata carries the fields of a track being added.
type TrackMetadata struct {
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
}

// TrackUpdate carries partial updates for an existing track.
// Nil fields are left untouched.
type TrackUpdate struct {
	Title  *string
	Artist *string
	Album  *string
	Genre  *string

	TrackNumber *int
	Year        *int
	Rating      *int
}

// AddTrack creates a track with the given metadata, appends it to the
// library, auto-enrolls it into the master playlist and remembers it as
// the last-added track for the finalize step. Returns the track's
// position. The track's persistent identity stays 0 until Commit.
func (s *Session) AddTrack(meta TrackMetadata) (int, error) {
	if s.lib == nil {
		return -1, s.fail(ErrNoLibrary)
	}

	now := time.Now()
	t := &ipod.Track{
		Title:       s.cleanField("title", meta.Title),
		Artist:      s.cleanField("artist", meta.Artist),
		Album:       s.cleanField("album", meta.Album),
		Genre:       s.cleanField("genre", meta.Genre),
		FileType:    s.cleanField("filetype", meta.FileType),
		TrackNumber: meta.TrackNumber,
		DiscNumber:  meta.DiscNumber,
		Year:        meta.Year,
		DurationMS:  meta.DurationMS,
		Bitrate:     meta.Bitrate,
		SampleRate:  meta.SampleRate,
		Size:        meta.Size,
		AddedAt:     now,
		ModifiedAt:  now,
	}

	index := s.lib.Tracks.Add(t)

	if mpl := s.lib.MasterPlaylist(); mpl != nil && !mpl.Contains(t.Handle()) {
		mpl.Add(t.Handle())
	}

	s.lastAdded = t.Handle()

	s.log.Info("added track",
		"artist", t.Artist, "title", t.Title, "index", index)
	return index, nil
}

// UpdateTrack applies upd to the track at index and bumps its modified
// timestamp. Nil fields are left as they are.
func (s *Session) UpdateTrack(index int, upd TrackUpdate) error {
	t, err := s.trackAt(index)
	if err != nil {
		return err
	}

	if upd.Title != nil {
		t.Title = s.cleanField("title", *upd.Title)
	}
	if upd.Artist != nil {
		t.Artist = s.cleanField("artist", *upd.Artist)
	}
	if upd.Album != nil {
		t.Album = s.cleanField("album", *upd.Album)
	}
	if upd.Genre != nil {
		t.Genre = s.cleanField("genre", *upd.Genre)
	}
	if upd.TrackNumber != nil {
		t.TrackNumber = *upd.TrackNumber
	}
	if upd.Year != nil {
		t.Year = *upd.Year
	}
	if upd.Rating != nil {
		t.Rating = *upd.Rating
	}
	t.ModifiedAt = time.Now()

	s.log.Info("updated track", "index", index)
	return nil
}

// RemoveTrack removes the track at index. The track is scrubbed from
// every playlist's member list before it leaves the store, so no playlist
// is ever left holding a reference to a destroyed track.
func (s *Session) RemoveTrack(index int) error {
	t, err := s.trackAt(index)
	if err != nil {
		return err
	}

	if dropped := s.lib.Playlists.DropMember(t.Handle()); dropped > 0 {
		s.log.Info("removed track from playlists",
			"index", index, "playlists", dropped)
	}
	s.lib.Tracks.Remove(index)

	if s.lastAdded == t.Handle() {
		s.lastAdded = 0
	}

	s.log.Info("removed track", "title", t.Title, "index", index)
	return nil
}

// FinalizeTrack records the device placement of the track at index by
// inspecting the file copied to dest. dest must be an absolute
// filesystem path under the session mountpoint.
func (s *Session) FinalizeTrack(index int, dest string) error {
	t, err := s.trackAt(index)
	if err != nil {
		return err
	}
	return s.finalize(t, dest)
}

// FinalizeLastTrack finalizes the most recently added track.
func (s *Session) FinalizeLastTrack(dest string) error {
	t, err := s.lastTrack()
	if err != nil {
		return err
	}
	return s.finalize(t, dest)
}

func (s *Session) finalize(t *ipod.Track, dest string) error {
	if err := s.store.FinalizeTrack(t, s.lib.Mountpoint, dest); err != nil {
		return s.fail(mapStoreErr("finalize track", err))
	}
	return nil
}

// FinalizeTrackNoStat finalizes the track at index without touching the
// filesystem: the device path and file-type marker are derived from dest
// alone and the size is taken from the caller. Used when the file was
// placed by a transfer mechanism outside this process's view.
func (s *Session) FinalizeTrackNoStat(index int, dest string, size int64) error {
	t, err := s.trackAt(index)
	if err != nil {
		return err
	}
	return s.finalizeNoStat(t, dest, size)
}

// FinalizeLastTrackNoStat is the no-stat variant for the most recently
// added track.
func (s *Session) FinalizeLastTrackNoStat(dest string, size int64) error {
	t, err := s.lastTrack()
	if err != nil {
		return err
	}
	return s.finalizeNoStat(t, dest, size)
}

func (s *Session) finalizeNoStat(t *ipod.Track, dest string, size int64) error {
	rel, err := devicepath.Relative(s.lib.Mountpoint, dest)
	if err != nil {
		return s.fail(fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}

	t.DevicePath = rel
	t.Marker = devicepath.Marker(dest)
	t.Transferred = true
	if size > 0 {
		t.Size = size
	}

	s.log.Info("finalized track", "title", t.Title, "path", rel)
	return nil
}

// TrackDestPath returns the on-device destination for an audio file
// about to be transferred.
func (s *Session) TrackDestPath(originalFilename string) (string, error) {
	if s.lib == nil {
		return "", s.fail(ErrNoLibrary)
	}
	dest, err := s.store.DestPath(s.lib.Mountpoint, originalFilename)
	if err != nil {
		return "", s.fail(fmt.Errorf("%w: %v", ErrInvalidArgument, err))
	}
	return dest, nil
}

func (s *Session) trackAt(index int) (*ipod.Track, error) {
	if s.lib == nil {
		return nil, s.fail(ErrNoLibrary)
	}
	t := s.lib.Tracks.At(index)
	if t == nil {
		return nil, s.fail(fmt.Errorf("%w: track index %d out of range", ErrNotFound, index))
	}
	return t, nil
}

func (s *Session) lastTrack() (*ipod.Track, error) {
	if s.lib == nil {
		return nil, s.fail(ErrNoLibrary)
	}
	if s.lastAdded == 0 {
		return nil, s.fail(fmt.Errorf("%w: no track has been added yet", ErrNotFound))
	}
	t := s.lib.Tracks.ByHandle(s.lastAdded)
	if t == nil {
		return nil, s.fail(fmt.Errorf("%w: last added track was removed", ErrNotFound))
	}
	return t, nil
}

// cleanField sanitizes a text field on the way in so commits rarely have
// anything left to repair.
func (s *Session) cleanField(name, value string) string {
	clean, repaired := validate.SanitizeUTF8(value)
	if repaired {
		s.log.Warn("invalid UTF-8 in field, truncating", "field", name)
	}
	return clean
}

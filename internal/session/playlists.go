package session

import (
	"fmt"

	"github.com/tunesreloaded/podlib/internal/ipod"
)

// CreatePlaylist appends a new empty playlist and returns its position.
func (s *Session) CreatePlaylist(name string) (int, error) {
	if s.lib == nil {
		return -1, s.fail(ErrNoLibrary)
	}
	if name == "" {
		return -1, s.fail(fmt.Errorf("%w: playlist name cannot be empty", ErrInvalidArgument))
	}

	p := &ipod.Playlist{Name: s.cleanField("playlist name", name)}
	index := s.lib.Playlists.Add(p)

	s.log.Info("created playlist", "name", p.Name, "index", index)
	return index, nil
}

// DeletePlaylist removes the playlist at index. The master playlist can
// never be deleted.
func (s *Session) DeletePlaylist(index int) error {
	p, err := s.playlistAt(index)
	if err != nil {
		return err
	}
	if p.Master {
		return s.fail(fmt.Errorf("%w: cannot delete master playlist", ErrForbidden))
	}

	s.lib.Playlists.Remove(index)
	s.log.Info("deleted playlist", "name", p.Name)
	return nil
}

// RenamePlaylist gives the playlist at index a new name.
func (s *Session) RenamePlaylist(index int, name string) error {
	p, err := s.playlistAt(index)
	if err != nil {
		return err
	}
	if name == "" {
		return s.fail(fmt.Errorf("%w: playlist name cannot be empty", ErrInvalidArgument))
	}

	p.Name = s.cleanField("playlist name", name)
	s.log.Info("renamed playlist", "index", index, "name", p.Name)
	return nil
}

// PlaylistAddTrack adds the track at trackIndex to the playlist at
// playlistIndex. Adding a track that is already a member is a no-op.
func (s *Session) PlaylistAddTrack(playlistIndex, trackIndex int) error {
	p, err := s.playlistAt(playlistIndex)
	if err != nil {
		return err
	}
	t, err := s.trackAt(trackIndex)
	if err != nil {
		return err
	}

	if !p.Add(t.Handle()) {
		s.log.Info("track already in playlist",
			"track", trackIndex, "playlist", playlistIndex)
		return nil
	}

	s.log.Info("added track to playlist",
		"track", trackIndex, "playlist", playlistIndex)
	return nil
}

// PlaylistRemoveTrack removes the track at trackIndex from the playlist
// at playlistIndex. It is an error if the track is not a member.
func (s *Session) PlaylistRemoveTrack(playlistIndex, trackIndex int) error {
	p, err := s.playlistAt(playlistIndex)
	if err != nil {
		return err
	}
	t, err := s.trackAt(trackIndex)
	if err != nil {
		return err
	}

	if !p.Remove(t.Handle()) {
		return s.fail(fmt.Errorf("%w: track %d not in playlist %d",
			ErrNotFound, trackIndex, playlistIndex))
	}

	s.log.Info("removed track from playlist",
		"track", trackIndex, "playlist", playlistIndex)
	return nil
}

func (s *Session) playlistAt(index int) (*ipod.Playlist, error) {
	if s.lib == nil {
		return nil, s.fail(ErrNoLibrary)
	}
	p := s.lib.Playlists.At(index)
	if p == nil {
		return nil, s.fail(fmt.Errorf("%w: playlist index %d out of range", ErrNotFound, index))
	}
	return p, nil
}

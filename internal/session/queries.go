package session

import (
	"time"

	"github.com/tunesreloaded/podlib/internal/devicepath"
	"github.com/tunesreloaded/podlib/internal/ipod"
)

// TrackInfo is a read-only snapshot of a track.
//
// Index is the track's current position and the handle callers pass to
// mutation operations; it shifts on removal. ID is the persistent
// identity assigned by the device database and is 0 for tracks that have
// never been committed. The two are never interchangeable.
type TrackInfo struct {
	Index int
	ID    uint64

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

	DevicePath  string
	Marker      string
	Transferred bool

	AddedAt    time.Time
	ModifiedAt time.Time
}

// PlaylistInfo is a read-only snapshot of a playlist.
// Index and ID follow the same two-tier convention as TrackInfo.
type PlaylistInfo struct {
	Index int
	ID    uint64

	Name       string
	Master     bool
	Smart      bool
	TrackCount int
}

// TrackCount returns the number of tracks, 0 when no library is open.
func (s *Session) TrackCount() int {
	if s.lib == nil {
		return 0
	}
	return s.lib.Tracks.Len()
}

// PlaylistCount returns the number of playlists, 0 when no library is open.
func (s *Session) PlaylistCount() int {
	if s.lib == nil {
		return 0
	}
	return s.lib.Playlists.Len()
}

// TrackAt returns a snapshot of the track at index.
func (s *Session) TrackAt(index int) (TrackInfo, error) {
	t, err := s.trackAt(index)
	if err != nil {
		return TrackInfo{}, err
	}
	return trackInfo(index, t), nil
}

// Tracks returns snapshots of all tracks in order.
func (s *Session) Tracks() []TrackInfo {
	if s.lib == nil {
		return nil
	}
	all := s.lib.Tracks.All()
	out := make([]TrackInfo, len(all))
	for i, t := range all {
		out[i] = trackInfo(i, t)
	}
	return out
}

// PlaylistAt returns a snapshot of the playlist at index.
func (s *Session) PlaylistAt(index int) (PlaylistInfo, error) {
	p, err := s.playlistAt(index)
	if err != nil {
		return PlaylistInfo{}, err
	}
	return playlistInfo(index, p), nil
}

// Playlists returns snapshots of all playlists in order.
func (s *Session) Playlists() []PlaylistInfo {
	if s.lib == nil {
		return nil
	}
	all := s.lib.Playlists.All()
	out := make([]PlaylistInfo, len(all))
	for i, p := range all {
		out[i] = playlistInfo(i, p)
	}
	return out
}

// PlaylistTracks returns snapshots of the resolvable members of the
// playlist at index, in member order. Each snapshot's Index is the
// track's position in the library, not in the playlist.
func (s *Session) PlaylistTracks(index int) ([]TrackInfo, error) {
	p, err := s.playlistAt(index)
	if err != nil {
		return nil, err
	}

	var out []TrackInfo
	for _, h := range p.Members() {
		t := s.lib.Tracks.ByHandle(h)
		if t == nil {
			continue
		}
		out = append(out, trackInfo(s.lib.Tracks.IndexOf(h), t))
	}
	return out, nil
}

func trackInfo(index int, t *ipod.Track) TrackInfo {
	marker := ""
	if t.Marker != 0 {
		marker = devicepath.MarkerString(t.Marker)
	}
	return TrackInfo{
		Index:       index,
		ID:          t.ID,
		Title:       t.Title,
		Artist:      t.Artist,
		Album:       t.Album,
		Genre:       t.Genre,
		FileType:    t.FileType,
		TrackNumber: t.TrackNumber,
		DiscNumber:  t.DiscNumber,
		Year:        t.Year,
		DurationMS:  t.DurationMS,
		Bitrate:     t.Bitrate,
		SampleRate:  t.SampleRate,
		Size:        t.Size,
		PlayCount:   t.PlayCount,
		Rating:      t.Rating,
		DevicePath:  t.DevicePath,
		Marker:      marker,
		Transferred: t.Transferred,
		AddedAt:     t.AddedAt,
		ModifiedAt:  t.ModifiedAt,
	}
}

func playlistInfo(index int, p *ipod.Playlist) PlaylistInfo {
	return PlaylistInfo{
		Index:      index,
		ID:         p.ID,
		Name:       p.Name,
		Master:     p.Master,
		Smart:      p.Smart,
		TrackCount: p.MemberCount(),
	}
}

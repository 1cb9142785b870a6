package ipod

// PlaylistStore owns the library's playlists in insertion order.
// Playlists are addressed by 0-based position; positions shift on removal.
type PlaylistStore struct {
	order []*Playlist
}

// NewPlaylistStore creates an empty playlist store.
func NewPlaylistStore() *PlaylistStore {
	return &PlaylistStore{}
}

// Add appends a playlist and returns its position.
func (s *PlaylistStore) Add(p *Playlist) int {
	s.order = append(s.order, p)
	return len(s.order) - 1
}

// At returns the playlist at the given position, or nil if out of range.
func (s *PlaylistStore) At(index int) *Playlist {
	if index < 0 || index >= len(s.order) {
		return nil
	}
	return s.order[index]
}

// Remove removes the playlist at the given position.
// Returns the removed playlist, or nil if out of range.
func (s *PlaylistStore) Remove(index int) *Playlist {
	if index < 0 || index >= len(s.order) {
		return nil
	}
	p := s.order[index]
	s.order = append(s.order[:index], s.order[index+1:]...)
	return p
}

// Len returns the number of playlists.
func (s *PlaylistStore) Len() int {
	return len(s.order)
}

// All returns the playlists in order. The slice is a copy.
func (s *PlaylistStore) All() []*Playlist {
	out := make([]*Playlist, len(s.order))
	copy(out, s.order)
	return out
}

// DropMember removes h from every playlist's member sequence.
// Used when a track leaves the TrackStore so no playlist is left holding
// a dead reference.
func (s *PlaylistStore) DropMember(h Handle) int {
	removed := 0
	for _, p := range s.order {
		if p.Remove(h) {
			removed++
		}
	}
	return removed
}

package ipod

// TrackStore owns the library's tracks in insertion order.
// Tracks are addressed by 0-based position; positions shift on removal.
// The handle map gives O(1) liveness checks for playlist member repair.
type TrackStore struct {
	order    []*Track
	byHandle map[Handle]*Track
	next     Handle
}

// NewTrackStore creates an empty track store.
func NewTrackStore() *TrackStore {
	return &TrackStore{
		byHandle: make(map[Handle]*Track),
		next:     1,
	}
}

// Add appends a track to the store, assigning it a fresh handle.
// Returns the track's position.
func (s *TrackStore) Add(t *Track) int {
	t.handle = s.next
	s.next++
	s.order = append(s.order, t)
	s.byHandle[t.handle] = t
	return len(s.order) - 1
}

// At returns the track at the given position, or nil if out of range.
func (s *TrackStore) At(index int) *Track {
	if index < 0 || index >= len(s.order) {
		return nil
	}
	return s.order[index]
}

// ByHandle returns the live track for h, or nil if h is dead or zero.
func (s *TrackStore) ByHandle(h Handle) *Track {
	return s.byHandle[h]
}

// Live reports whether h resolves to a track currently in the store.
func (s *TrackStore) Live(h Handle) bool {
	_, ok := s.byHandle[h]
	return ok
}

// IndexOf returns the position of the track with handle h, or -1.
func (s *TrackStore) IndexOf(h Handle) int {
	for i, t := range s.order {
		if t.handle == h {
			return i
		}
	}
	return -1
}

// Remove removes the track at the given position and invalidates its
// handle. Returns the removed track, or nil if out of range.
func (s *TrackStore) Remove(index int) *Track {
	if index < 0 || index >= len(s.order) {
		return nil
	}
	t := s.order[index]
	s.order = append(s.order[:index], s.order[index+1:]...)
	delete(s.byHandle, t.handle)
	return t
}

// Len returns the number of tracks.
func (s *TrackStore) Len() int {
	return len(s.order)
}

// All returns the tracks in order. The slice is a copy; the tracks are not.
func (s *TrackStore) All() []*Track {
	out := make([]*Track, len(s.order))
	copy(out, s.order)
	return out
}

package session

import (
	"slices"
	"sync"

	"subgrab/internal/manifest"
)

type blobKey struct {
	itemID  string
	trackID string
}

// Store holds the per-item track sets, the raw subtitle blob cache, and the
// current session state. Every write replaces a whole entry and every read
// returns a copy, so callers never share mutable state with the store.
type Store struct {
	mu            sync.RWMutex
	tracks        map[string][]manifest.Track
	blobs         map[blobKey][]byte
	currentItem   string
	selectedTrack string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tracks: make(map[string][]manifest.Track),
		blobs:  make(map[blobKey][]byte),
	}
}

// SetTracks replaces the track set for itemID. Entries are never removed.
func (s *Store) SetTracks(itemID string, tracks []manifest.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[itemID] = slices.Clone(tracks)
}

// Tracks returns the track set for itemID. The boolean is false when no
// listing has been observed for the item; an observed empty listing returns
// true with no tracks.
func (s *Store) Tracks(itemID string) ([]manifest.Track, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tracks, ok := s.tracks[itemID]
	if !ok {
		return nil, false
	}
	return slices.Clone(tracks), true
}

// Blob returns the cached raw bytes for a track.
func (s *Store) Blob(itemID, trackID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.blobs[blobKey{itemID, trackID}]
	if !ok {
		return nil, false
	}
	return slices.Clone(data), true
}

// PutBlob caches raw bytes for a track. Cached blobs are never invalidated.
func (s *Store) PutBlob(itemID, trackID string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[blobKey{itemID, trackID}] = slices.Clone(data)
}

// CurrentItem returns the item the host page is playing.
func (s *Store) CurrentItem() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentItem, s.currentItem != ""
}

// SetCurrentItem records the playing item.
func (s *Store) SetCurrentItem(itemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentItem = itemID
}

// ClearCurrentItem forgets the playing item and the selected track.
func (s *Store) ClearCurrentItem() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentItem = ""
	s.selectedTrack = ""
}

// SelectedTrack returns the most recently downloaded track.
func (s *Store) SelectedTrack() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectedTrack, s.selectedTrack != ""
}

// SetSelectedTrack records the most recently downloaded track.
func (s *Store) SetSelectedTrack(trackID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedTrack = trackID
}

// Snapshot is a point-in-time summary for status reporting.
type Snapshot struct {
	CurrentItem   string `json:"currentItem,omitempty"`
	SelectedTrack string `json:"selectedTrack,omitempty"`
	KnownItems    int    `json:"knownItems"`
	CachedBlobs   int    `json:"cachedBlobs"`
}

// Snapshot summarizes the store.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		CurrentItem:   s.currentItem,
		SelectedTrack: s.selectedTrack,
		KnownItems:    len(s.tracks),
		CachedBlobs:   len(s.blobs),
	}
}

package store

import (
	"sync"
	"time"
)

// Defaults seeded into every freshly created room.
const (
	WelcomeTemplate = "// Welcome to Collab-IDE!\n// Start coding here...\n\n"
	DefaultLanguage = "javascript"
)

// Snapshot is a read-only copy of a room's document state.
type Snapshot struct {
	Code     string
	Language string
}

// RoomInfo describes a room for the stats API and the reaper.
type RoomInfo struct {
	ID         string
	Language   string
	CreatedAt  time.Time
	LastActive time.Time
}

type room struct {
	mu         sync.RWMutex
	code       string
	language   string
	createdAt  time.Time
	lastActive time.Time
}

// Store holds the authoritative document state for every room, keyed by
// the externally supplied room id. Rooms are created lazily on first
// touch and survive becoming empty; only the reaper deletes them.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func New() *Store {
	return &Store{rooms: make(map[string]*room)}
}

// getOrCreate returns the room, creating it with the default document if
// this is the first touch. Concurrent first access from two joiners
// yields exactly one room instance.
func (s *Store) getOrCreate(roomID string) *room {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[roomID]; ok {
		return r
	}
	now := time.Now()
	r = &room{
		code:       WelcomeTemplate,
		language:   DefaultLanguage,
		createdAt:  now,
		lastActive: now,
	}
	s.rooms[roomID] = r
	return r
}

// GetOrCreate ensures the room exists and returns its current document
// state. Used to hydrate a new joiner; never mutates an existing room's
// document.
func (s *Store) GetOrCreate(roomID string) Snapshot {
	r := s.getOrCreate(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = time.Now()
	return Snapshot{Code: r.code, Language: r.language}
}

// ApplyEdit overwrites the room's document and language, last writer
// wins. There is deliberately no version check: a stale edit arriving
// later in real time replaces a fresher one.
func (s *Store) ApplyEdit(roomID, code, language string) {
	r := s.getOrCreate(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
	r.language = language
	r.lastActive = time.Now()
}

// ApplyLanguageChange overwrites the language tag only.
func (s *Store) ApplyLanguageChange(roomID, language string) {
	r := s.getOrCreate(roomID)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.language = language
	r.lastActive = time.Now()
}

// Snapshot returns the current document state without creating the room.
func (s *Store) Snapshot(roomID string) (Snapshot, bool) {
	s.mu.RLock()
	r, ok := s.rooms[roomID]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{Code: r.code, Language: r.language}, true
}

// List returns info for every live room.
func (s *Store) List() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(s.rooms))
	for id, r := range s.rooms {
		r.mu.RLock()
		infos = append(infos, RoomInfo{
			ID:         id,
			Language:   r.language,
			CreatedAt:  r.createdAt,
			LastActive: r.lastActive,
		})
		r.mu.RUnlock()
	}
	return infos
}

// Count returns the number of live rooms.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Reap deletes the room if it has seen no activity since the cutoff.
// Returns whether the room was removed. The activity check runs under
// the store lock so a join racing the reaper either refreshes the room
// first or recreates it from defaults afterwards, never observes a
// half-deleted room.
func (s *Store) Reap(roomID string, cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	r.mu.RLock()
	idle := r.lastActive.Before(cutoff)
	r.mu.RUnlock()
	if !idle {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

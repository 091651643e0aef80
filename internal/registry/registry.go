package registry

import (
	"errors"
	"sync"

	"github.com/samber/lo"
)

// ErrInvalidJoin is returned when a join carries an empty room id or
// display name.
var ErrInvalidJoin = errors.New("invalid join: missing roomid or name")

// Participant is a connection's identity inside exactly one room.
type Participant struct {
	ConnID string
	Name   string
	RoomID string
}

// Registry maps live connections to their participant identity and
// current room. It owns all Participant records; the document itself
// lives in the room store.
type Registry struct {
	mu sync.RWMutex

	// Every open connection, joined or not.
	conns map[string]struct{}

	// Only connections that have joined a room.
	participants map[string]Participant
}

func New() *Registry {
	return &Registry{
		conns:        make(map[string]struct{}),
		participants: make(map[string]Participant),
	}
}

// Register records a transport-level connection that has not joined any
// room yet.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = struct{}{}
}

// Join associates a connection with a room. A second join for the same
// connection overwrites the prior association: one room per connection.
func (r *Registry) Join(connID, roomID, name string) (Participant, error) {
	if roomID == "" || name == "" {
		return Participant{}, ErrInvalidJoin
	}

	p := Participant{ConnID: connID, Name: name, RoomID: roomID}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = struct{}{}
	r.participants[connID] = p
	return p, nil
}

// Leave removes the connection entirely and returns its prior room
// association, if any. Called on explicit leave and on disconnect.
func (r *Registry) Leave(connID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, connID)
	p, ok := r.participants[connID]
	if ok {
		delete(r.participants, connID)
	}
	return p, ok
}

// Get returns the participant record for a joined connection.
func (r *Registry) Get(connID string) (Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[connID]
	return p, ok
}

// ListByRoom returns the current members of a room. Order carries no
// meaning; callers must treat the result as a set.
func (r *Registry) ListByRoom(roomID string) []Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(lo.Values(r.participants), func(p Participant, _ int) bool {
		return p.RoomID == roomID
	})
}

// CountByRoom returns the number of joined participants per room.
func (r *Registry) CountByRoom() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.CountValuesBy(lo.Values(r.participants), func(p Participant) string {
		return p.RoomID
	})
}

// ConnCount returns the number of open connections, joined or not.
func (r *Registry) ConnCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

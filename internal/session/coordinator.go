package session

import (
	"log"
	"sync"

	"github.com/samber/lo"

	"github.com/collabide/relay/internal/protocol"
	"github.com/collabide/relay/internal/registry"
	"github.com/collabide/relay/internal/store"
)

// Message shown to a client whose join was rejected.
const joinErrorMessage = "Failed to join room. Please try again."

// Sender queues one encoded frame for delivery to one connection. It
// must never block: a transport that cannot keep up drops the
// connection instead of stalling the coordinator.
type Sender interface {
	Send(connID string, frame []byte)
}

// Coordinator is the protocol state machine. It applies inbound events
// to the room store and connection registry atomically per room and
// decides which connections see which rebroadcast.
type Coordinator struct {
	registry *registry.Registry
	store    *store.Store
	sender   Sender

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewCoordinator(reg *registry.Registry, st *store.Store, sender Sender) *Coordinator {
	return &Coordinator{
		registry: reg,
		store:    st,
		sender:   sender,
		locks:    make(map[string]*sync.Mutex),
	}
}

// roomLock serializes every (document, membership) mutation for one
// room. Different rooms proceed in parallel; only one room lock is ever
// held at a time, so there is no lock ordering to get wrong.
func (c *Coordinator) roomLock(roomID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[roomID] = l
	}
	return l
}

// Connect registers a fresh transport connection: Connected, unjoined.
func (c *Coordinator) Connect(connID string) {
	c.registry.Register(connID)
	log.Printf("client connected: %s", connID)
}

// HandleFrame dispatches one inbound frame. Malformed frames never
// propagate: a bad join is answered with error-message to the sender
// only, bad edit events are dropped with a server-side log.
func (c *Coordinator) HandleFrame(connID string, raw []byte) {
	env, err := protocol.Decode(raw)
	if err != nil {
		log.Printf("dropping frame from %s: %v", connID, err)
		return
	}

	switch env.Event {
	case protocol.EventJoinRoom:
		p, err := protocol.DecodeJoinRoom(env)
		if err != nil {
			log.Printf("join-room rejected for %s: %v", connID, err)
			c.send(connID, protocol.EventErrorMessage, joinErrorMessage)
			return
		}
		c.join(connID, p)

	case protocol.EventCodeChange:
		p, err := protocol.DecodeCodeChange(env)
		if err != nil {
			log.Printf("dropping code-change from %s: %v", connID, err)
			return
		}
		c.codeChange(connID, p)

	case protocol.EventLanguageChange:
		p, err := protocol.DecodeLanguageChange(env)
		if err != nil {
			log.Printf("dropping language-change from %s: %v", connID, err)
			return
		}
		c.languageChange(connID, p)

	default:
		log.Printf("dropping unknown event %q from %s", env.Event, connID)
	}
}

// join moves the connection to Joined(room). A repeat join overwrites
// the previous room association without notifying the old room, which
// mirrors the one-room-per-connection behavior clients rely on.
func (c *Coordinator) join(connID string, p protocol.JoinRoom) {
	l := c.roomLock(p.RoomID)
	l.Lock()

	participant, err := c.registry.Join(connID, p.RoomID, p.Name)
	if err != nil {
		l.Unlock()
		log.Printf("join-room rejected for %s: %v", connID, err)
		c.send(connID, protocol.EventErrorMessage, joinErrorMessage)
		return
	}

	snap := c.store.GetOrCreate(p.RoomID)
	members := c.registry.ListByRoom(p.RoomID)
	l.Unlock()

	log.Printf("%s joined room %s (members: %d)", p.Name, p.RoomID, len(members))

	// Full roster to the whole room, the joiner included.
	c.broadcast(members, "", protocol.EventClientsUpdate, roster(members))

	// Authoritative snapshot to the joiner only. Joining never mutates
	// the document, so this is exactly the pre-existing state.
	c.send(connID, protocol.EventCodeUpdate, protocol.CodeUpdate{
		Code:     snap.Code,
		Language: snap.Language,
	})

	// Presence notification to everyone else.
	c.broadcast(members, participant.ConnID, protocol.EventUserJoined, participant.Name)
}

// codeChange applies a last-writer-wins document overwrite and pushes it
// to the rest of the room. The sender already holds the value it sent.
func (c *Coordinator) codeChange(connID string, p protocol.CodeChange) {
	l := c.roomLock(p.RoomID)
	l.Lock()
	c.store.ApplyEdit(p.RoomID, p.Code, p.Language)
	members := c.registry.ListByRoom(p.RoomID)
	l.Unlock()

	c.broadcast(members, connID, protocol.EventCodeUpdate, protocol.CodeUpdate{
		Code:     p.Code,
		Language: p.Language,
	})
}

func (c *Coordinator) languageChange(connID string, p protocol.LanguageChange) {
	l := c.roomLock(p.RoomID)
	l.Lock()
	c.store.ApplyLanguageChange(p.RoomID, p.Language)
	members := c.registry.ListByRoom(p.RoomID)
	l.Unlock()

	c.broadcast(members, connID, protocol.EventLanguageUpdate, protocol.LanguageUpdate{
		Language: p.Language,
	})
}

// Disconnect removes the connection. If it had joined a room, the
// remaining members learn who left and get a refreshed roster. A
// connection that never joined disappears silently.
func (c *Coordinator) Disconnect(connID string) {
	participant, joined := c.registry.Leave(connID)
	if !joined {
		log.Printf("client disconnected: %s", connID)
		return
	}

	l := c.roomLock(participant.RoomID)
	l.Lock()
	members := c.registry.ListByRoom(participant.RoomID)
	l.Unlock()

	log.Printf("%s left room %s (remaining: %d)", participant.Name, participant.RoomID, len(members))

	c.broadcast(members, "", protocol.EventUserLeft, participant.Name)
	c.broadcast(members, "", protocol.EventClientsUpdate, roster(members))
}

func roster(members []registry.Participant) []protocol.RosterEntry {
	return lo.Map(members, func(p registry.Participant, _ int) protocol.RosterEntry {
		return protocol.RosterEntry{ClientID: p.ConnID, Name: p.Name}
	})
}

func (c *Coordinator) send(connID, event string, data any) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Printf("encode %s for %s: %v", event, connID, err)
		return
	}
	c.sender.Send(connID, frame)
}

// broadcast encodes once and queues the frame for every member except
// the excluded connection. Delivery is per-recipient buffered in the
// transport, so fan-out never blocks the triggering event.
func (c *Coordinator) broadcast(members []registry.Participant, exclude, event string, data any) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		log.Printf("encode %s: %v", event, err)
		return
	}
	for _, m := range members {
		if m.ConnID == exclude {
			continue
		}
		c.sender.Send(m.ConnID, frame)
	}
}

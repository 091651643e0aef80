package reaper

import (
	"log"
	"sync"
	"time"

	"github.com/collabide/relay/internal/registry"
	"github.com/collabide/relay/internal/store"
)

type Config struct {
	// Sweep frequency.
	Interval time.Duration

	// How long a room may sit empty before its document is freed.
	// Zero keeps every room for the life of the process.
	TTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interval: 5 * time.Minute,
		TTL:      30 * time.Minute,
	}
}

// Service frees rooms that have been empty for longer than the TTL. It
// runs off the join/leave path on its own ticker, so the last
// participant disconnecting never deletes the room synchronously — a
// fast rejoin still finds the prior document.
type Service struct {
	store    *store.Store
	registry *registry.Registry
	config   Config
	stop     chan struct{}
	wg       sync.WaitGroup
}

func New(st *store.Store, reg *registry.Registry, config Config) *Service {
	return &Service{
		store:    st,
		registry: reg,
		config:   config,
		stop:     make(chan struct{}),
	}
}

func (s *Service) Start() {
	if s.config.TTL <= 0 {
		log.Println("🧹 Room reaper disabled (ROOM_TTL=0), rooms live for the process")
		return
	}
	s.wg.Add(1)
	go s.run()
	log.Printf("🧹 Room reaper started (interval: %v, ttl: %v)", s.config.Interval, s.config.TTL)
}

func (s *Service) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Service) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep deletes every room that is both unoccupied and idle past the
// TTL. Occupied rooms are never touched regardless of idle time.
func (s *Service) Sweep() {
	cutoff := time.Now().Add(-s.config.TTL)
	occupied := s.registry.CountByRoom()

	reaped := 0
	for _, info := range s.store.List() {
		if occupied[info.ID] > 0 {
			continue
		}
		if s.store.Reap(info.ID, cutoff) {
			reaped++
		}
	}

	if reaped > 0 {
		log.Printf("🧹 Reaped %d empty rooms", reaped)
	}
}

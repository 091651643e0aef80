package config

import (
	"fmt"
	"time"

	env "github.com/Netflix/go-env"
)

// Config holds all tunables for the relay server. Every field has a
// development-friendly default so a bare `go run` works.
type Config struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT,default=8080"`

	// Outbound queue size per connection. A client that falls this far
	// behind is disconnected rather than allowed to stall a room.
	SendBufferSize int `env:"SEND_BUFFER_SIZE,default=256"`

	// Per-connection inbound rate limiting.
	MessagesPerSecond float64 `env:"MESSAGES_PER_SECOND,default=100"`
	MessageBurst      int     `env:"MESSAGE_BURST,default=200"`

	// How long an empty room keeps its document before the reaper frees
	// it. Zero disables reaping entirely (rooms live for the process).
	RoomTTL        time.Duration `env:"ROOM_TTL,default=30m"`
	ReaperInterval time.Duration `env:"REAPER_INTERVAL,default=5m"`
}

func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if cfg.SendBufferSize <= 0 {
		return Config{}, fmt.Errorf("SEND_BUFFER_SIZE must be positive, got %d", cfg.SendBufferSize)
	}
	if cfg.MessagesPerSecond <= 0 || cfg.MessageBurst <= 0 {
		return Config{}, fmt.Errorf("rate limit settings must be positive")
	}
	return cfg, nil
}

// Addr returns the host:port the HTTP server binds to.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

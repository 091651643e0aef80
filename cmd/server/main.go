package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/collabide/relay/internal/api"
	"github.com/collabide/relay/internal/config"
	"github.com/collabide/relay/internal/reaper"
	"github.com/collabide/relay/internal/registry"
	"github.com/collabide/relay/internal/session"
	"github.com/collabide/relay/internal/store"
	"github.com/collabide/relay/internal/ws"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}

	reg := registry.New()
	st := store.New()

	hub := ws.NewHub(ws.Options{
		SendBufferSize:    cfg.SendBufferSize,
		MessagesPerSecond: cfg.MessagesPerSecond,
		MessageBurst:      cfg.MessageBurst,
	})
	go hub.Run()

	coordinator := session.NewCoordinator(reg, st, hub)

	reaperService := reaper.New(st, reg, reaper.Config{
		Interval: cfg.ReaperInterval,
		TTL:      cfg.RoomTTL,
	})
	reaperService.Start()

	apiHandler := api.New(hub, st, reg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, coordinator, w, r)
	})
	mux.HandleFunc("/health", apiHandler.HealthHandler)
	mux.HandleFunc("/api/stats", apiHandler.StatsHandler)
	mux.HandleFunc("/api/rooms", apiHandler.RoomsRouter)
	mux.HandleFunc("/api/rooms/", apiHandler.RoomsRouter)

	handler := corsMiddleware(mux)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		reaperService.Stop()
		os.Exit(exitOK)
	}()

	log.Printf("Relay server starting on %s", cfg.Addr())
	log.Println("Endpoints:")
	log.Println("  - WebSocket: /ws")
	log.Println("  - Health:    GET /health")
	log.Println("  - Stats:     GET /api/stats")
	log.Println("  - Rooms:     GET /api/rooms, GET /api/rooms/{id}")

	if err := http.ListenAndServe(cfg.Addr(), handler); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

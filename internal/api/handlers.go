package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/collabide/relay/internal/registry"
	"github.com/collabide/relay/internal/store"
	"github.com/collabide/relay/internal/ws"
)

// API is the read-only HTTP surface next to the WebSocket endpoint:
// health, stats and a room listing for dashboards. All mutation goes
// through the relay protocol, never through HTTP.
type API struct {
	hub      *ws.Hub
	store    *store.Store
	registry *registry.Registry
}

func New(hub *ws.Hub, st *store.Store, reg *registry.Registry) *API {
	return &API{
		hub:      hub,
		store:    st,
		registry: reg,
	}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"active_rooms":   a.store.Count(),
		"active_clients": a.hub.ClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

type RoomResponse struct {
	ID           string    `json:"id"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
	Participants int       `json:"participants"`
}

type ParticipantResponse struct {
	ClientID string `json:"clientid"`
	Name     string `json:"name"`
}

// RoomsRouter serves GET /api/rooms and GET /api/rooms/{id}.
func (a *API) RoomsRouter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/rooms")
	path = strings.Trim(path, "/")
	if path == "" {
		a.listRooms(w, r)
		return
	}
	a.getRoom(w, path)
}

func (a *API) listRooms(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	infos := a.store.List()
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].LastActive.After(infos[j].LastActive)
	})

	occupied := a.registry.CountByRoom()

	page := infos
	if offset < len(page) {
		page = page[offset:]
	} else {
		page = nil
	}
	if len(page) > limit {
		page = page[:limit]
	}

	response := lo.Map(page, func(info store.RoomInfo, _ int) RoomResponse {
		return roomResponse(info, occupied[info.ID])
	})

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms":  response,
		"total":  len(infos),
		"limit":  limit,
		"offset": offset,
	})
}

func (a *API) getRoom(w http.ResponseWriter, roomID string) {
	info, found := lo.Find(a.store.List(), func(info store.RoomInfo) bool {
		return info.ID == roomID
	})
	if !found {
		errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	members := a.registry.ListByRoom(roomID)
	participants := lo.Map(members, func(p registry.Participant, _ int) ParticipantResponse {
		return ParticipantResponse{ClientID: p.ConnID, Name: p.Name}
	})

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"room":         roomResponse(info, len(members)),
		"participants": participants,
	})
}

func roomResponse(info store.RoomInfo, participants int) RoomResponse {
	return RoomResponse{
		ID:           info.ID,
		Language:     info.Language,
		CreatedAt:    info.CreatedAt,
		LastActive:   info.LastActive,
		Participants: participants,
	}
}

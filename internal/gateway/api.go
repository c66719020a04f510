package gateway

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/config"
	"github.com/netgrid/arena/internal/game"
	"github.com/netgrid/arena/internal/match"
	"github.com/netgrid/arena/internal/obslog"
	"github.com/netgrid/arena/internal/rating"
)

// API exposes the write path for sessions (match creation) and the
// read-only rating projections.
type API struct {
	matches *match.Manager
	ratings *rating.Repository
	presets map[string]config.GamePreset
}

func NewAPI(matches *match.Manager, ratings *rating.Repository, presets map[string]config.GamePreset) *API {
	return &API{matches: matches, ratings: ratings, presets: presets}
}

// Routes mounts the API next to the websocket hub.
func (a *API) Routes(mux *http.ServeMux, hub *Hub) {
	mux.Handle("/ws", hub)
	mux.HandleFunc("POST /api/matches", a.createMatch)
	mux.HandleFunc("GET /api/matches/{id}", a.matchSnapshot)
	mux.HandleFunc("GET /api/leaderboard", a.leaderboard)
	mux.HandleFunc("GET /api/history", a.history)
}

type createMatchRequest struct {
	SessionID string        `json:"session_id"`
	GameType  string        `json:"game_type"`
	Players   []game.Player `json:"players"`
}

func (a *API) createMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	preset, ok := a.presets[strings.TrimSpace(req.GameType)]
	if !ok {
		httpError(w, http.StatusBadRequest, "unknown game type")
		return
	}
	if len(req.Players) < 2 {
		httpError(w, http.StatusBadRequest, "at least 2 players required")
		return
	}

	setup := game.Setup{
		GameType:    game.Type(req.GameType),
		Players:     req.Players,
		Width:       preset.Width,
		Height:      preset.Height,
		TurnLimit:   time.Duration(preset.TurnSeconds) * time.Second,
		StartHealth: preset.StartHealth,
		FoodCount:   preset.FoodCount,
		WallCount:   preset.WallCount,
		HazardCount: preset.HazardCount,
		Seed:        rand.Int63(),
	}
	m, err := a.matches.CreateMatch(r.Context(), strings.TrimSpace(req.SessionID), setup)
	if errors.Is(err, match.ErrMatchLimit) {
		httpError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	if err != nil {
		obslog.L().Error("api_match_create_failed", zap.Error(err))
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *API) matchSnapshot(w http.ResponseWriter, r *http.Request) {
	setup, turn, err := a.matches.Snapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"setup": setup, "turn": turn})
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	gameType := strings.TrimSpace(r.URL.Query().Get("game_type"))
	if gameType == "" {
		httpError(w, http.StatusBadRequest, "game_type is required")
		return
	}
	rows, err := a.ratings.TopByMMR(r.Context(), gameType, queryInt(r, "limit", 10))
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(r.URL.Query().Get("player_id"))
	gameType := strings.TrimSpace(r.URL.Query().Get("game_type"))
	if playerID == "" || gameType == "" {
		httpError(w, http.StatusBadRequest, "player_id and game_type are required")
		return
	}
	rows, err := a.ratings.RecentResults(r.Context(), playerID, gameType, queryInt(r, "limit", 10))
	if err != nil {
		httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := strings.TrimSpace(r.URL.Query().Get(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

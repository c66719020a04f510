package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/obslog"
	"github.com/netgrid/arena/pkg/arenadto"
)

// MoveSubmitter accepts client move submissions.
type MoveSubmitter interface {
	SubmitMove(ctx context.Context, matchID, playerID string, cell board.Cell) error
}

// subscribeRequest is the first frame a client sends.
type subscribeRequest struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
}

// clientFrame is any later inbound frame; only move submissions are
// understood.
type clientFrame struct {
	Type string `json:"type"`
	Cell int    `json:"cell"`
}

// Hub relays turn events to websocket subscribers and feeds client move
// submissions into the resolver. Slow subscribers are dropped rather
// than ever blocking event fan-out.
type Hub struct {
	submitter MoveSubmitter

	mu   sync.RWMutex
	subs map[string]map[chan arenadto.TurnEvent]bool
}

func NewHub(submitter MoveSubmitter) *Hub {
	return &Hub{
		submitter: submitter,
		subs:      make(map[string]map[chan arenadto.TurnEvent]bool),
	}
}

// Run fans events out until the stream closes.
func (h *Hub) Run(ctx context.Context, events <-chan arenadto.TurnEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.mu.RLock()
			for ch := range h.subs[ev.MatchID] {
				select {
				case ch <- ev:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) subscribe(matchID string) chan arenadto.TurnEvent {
	ch := make(chan arenadto.TurnEvent, 16)
	h.mu.Lock()
	if h.subs[matchID] == nil {
		h.subs[matchID] = make(map[chan arenadto.TurnEvent]bool)
	}
	h.subs[matchID][ch] = true
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(matchID string, ch chan arenadto.TurnEvent) {
	h.mu.Lock()
	if set := h.subs[matchID]; set != nil {
		delete(set, ch)
		if len(set) == 0 {
			delete(h.subs, matchID)
		}
	}
	h.mu.Unlock()
}

// ServeHTTP upgrades the connection, reads the subscription frame and
// then relays events out and move submissions in.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		obslog.L().Warn("ws_accept_failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	ctx := r.Context()
	var sub subscribeRequest
	rctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = wsjson.Read(rctx, conn, &sub)
	cancel()
	if err != nil || sub.MatchID == "" {
		conn.Close(websocket.StatusPolicyViolation, "expected subscribe frame")
		return
	}

	ch := h.subscribe(sub.MatchID)
	defer h.unsubscribe(sub.MatchID, ch)
	obslog.L().Info("ws_subscribed",
		zap.String("match_id", sub.MatchID),
		zap.String("player_id", sub.PlayerID),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				wctx, wcancel := context.WithTimeout(ctx, 5*time.Second)
				err := wsjson.Write(wctx, conn, ev)
				wcancel()
				if err != nil {
					conn.Close(websocket.StatusNormalClosure, "write failed")
					return
				}
			}
		}
	}()

	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return
		}
		if frame.Type != "move" || sub.PlayerID == "" {
			continue
		}
		if err := h.submitter.SubmitMove(ctx, sub.MatchID, sub.PlayerID, board.Cell(frame.Cell)); err != nil {
			obslog.L().Warn("ws_move_rejected",
				zap.String("match_id", sub.MatchID),
				zap.String("player_id", sub.PlayerID),
				zap.Int("cell", frame.Cell),
				zap.Error(err),
			)
		}
	}
}

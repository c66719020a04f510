package match

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/game"
	"github.com/netgrid/arena/internal/obslog"
	"github.com/netgrid/arena/pkg/arenadto"
)

// Events fan out over redis pub/sub: one channel per match plus a global
// channel the gateway and bot dispatcher subscribe to.
const globalEventChannel = "arena:events"

func eventChannel(matchID string) string { return "arena:events:" + matchID }

func (m *Manager) publishTurn(ctx context.Context, mt *Match, t *game.Turn) {
	ev := arenadto.TurnEvent{
		MatchID:   mt.ID,
		SessionID: mt.SessionID,
		GameType:  string(mt.Setup.GameType),
		Turn:      t.Number,
		Deadline:  t.EndTime,
		Finished:  t.Finished,
		Winners:   toDTOWinners(t.Winners),
	}
	m.publish(ctx, ev)
}

// publishStatus emits the move-status marker for the open turn: which
// alive players have a recorded move and which are still waited on.
func (m *Manager) publishStatus(ctx context.Context, mt *Match, open *game.Turn) {
	moved, err := m.store.MovedPlayers(ctx, mt.ID, mt.TurnCount)
	if err != nil {
		obslog.L().Warn("move_status_read_failed",
			zap.String("match_id", mt.ID),
			zap.Error(err),
		)
		return
	}
	movedSet := make(map[string]bool, len(moved))
	for _, id := range moved {
		movedSet[id] = true
	}
	status := &arenadto.MoveStatus{
		MatchID:  mt.ID,
		Turn:     mt.TurnCount,
		Deadline: open.EndTime,
		Moved:    []string{},
		Waiting:  []string{},
	}
	for _, id := range open.AlivePlayers {
		if movedSet[id] {
			status.Moved = append(status.Moved, id)
		} else {
			status.Waiting = append(status.Waiting, id)
		}
	}
	sort.Strings(status.Moved)
	sort.Strings(status.Waiting)

	m.publish(ctx, arenadto.TurnEvent{
		MatchID:   mt.ID,
		SessionID: mt.SessionID,
		GameType:  string(mt.Setup.GameType),
		Turn:      mt.TurnCount,
		Deadline:  open.EndTime,
		Status:    status,
	})
}

func (m *Manager) publish(ctx context.Context, ev arenadto.TurnEvent) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := m.rdb.Publish(ctx, eventChannel(ev.MatchID), raw).Err(); err != nil {
		obslog.L().Warn("event_publish_failed", zap.String("match_id", ev.MatchID), zap.Error(err))
	}
	_ = m.rdb.Publish(ctx, globalEventChannel, raw).Err()
}

// SubscribeEvents streams all match events until cancel is called.
func (m *Manager) SubscribeEvents(ctx context.Context) (<-chan arenadto.TurnEvent, func()) {
	sub := m.rdb.Subscribe(ctx, globalEventChannel)
	out := make(chan arenadto.TurnEvent, 64)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev arenadto.TurnEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				obslog.L().Warn("event_decode_failed", zap.Error(err))
				continue
			}
			select {
			case out <- ev:
			default:
				obslog.L().Warn("event_subscriber_lagging", zap.String("match_id", ev.MatchID))
			}
		}
	}()
	return out, func() { _ = sub.Close() }
}

func toDTOWinners(ws []board.Winner) []arenadto.Winner {
	if len(ws) == 0 {
		return nil
	}
	out := make([]arenadto.Winner, 0, len(ws))
	for _, w := range ws {
		cells := make([]int, 0, len(w.Cells))
		for _, c := range w.Cells {
			cells = append(cells, int(c))
		}
		out = append(out, arenadto.Winner{PlayerID: w.PlayerID, Score: w.Score, Cells: cells})
	}
	return out
}

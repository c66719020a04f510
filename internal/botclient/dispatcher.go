package botclient

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/game"
	"github.com/netgrid/arena/internal/obslog"
	"github.com/netgrid/arena/pkg/arenadto"
)

// MoveSubmitter accepts a bot's move; the match manager implements it.
type MoveSubmitter interface {
	SubmitMove(ctx context.Context, matchID, playerID string, cell board.Cell) error
}

// SnapshotLoader provides the current setup and turn of a match.
type SnapshotLoader interface {
	Snapshot(ctx context.Context, matchID string) (*game.Setup, *game.Turn, error)
}

// Dispatcher listens for turn-advanced events and requests a move from
// every bot participant. Every failure path degrades to "the bot did not
// move": the deadline scheduler resolves the turn regardless.
type Dispatcher struct {
	client    *Client
	submitter MoveSubmitter
	loader    SnapshotLoader
	timeout   time.Duration
}

func NewDispatcher(client *Client, submitter MoveSubmitter, loader SnapshotLoader, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Dispatcher{client: client, submitter: submitter, loader: loader, timeout: timeout}
}

// Run consumes events until the stream closes or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, events <-chan arenadto.TurnEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			// Move-status markers and terminal turns need no bot moves.
			if ev.Status != nil || ev.Finished {
				continue
			}
			go d.dispatchMatch(ctx, ev.MatchID)
		}
	}
}

func (d *Dispatcher) dispatchMatch(ctx context.Context, matchID string) {
	setup, turn, err := d.loader.Snapshot(ctx, matchID)
	if err != nil {
		obslog.L().Warn("bot_snapshot_failed", zap.String("match_id", matchID), zap.Error(err))
		return
	}
	for _, p := range setup.Players {
		if !p.Bot || !turn.IsAlive(p.ID) {
			continue
		}
		if len(turn.AllowedMoves[p.ID]) == 0 {
			continue // not this player's turn (reversi) or nothing to do
		}
		go d.requestAndSubmit(ctx, matchID, setup, turn, p)
	}
}

func (d *Dispatcher) requestAndSubmit(ctx context.Context, matchID string, setup *game.Setup, turn *game.Turn, p game.Player) {
	rctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	view := BuildView(matchID, setup, turn, p.ID)
	resp, err := d.client.RequestMove(rctx, p.BotURL, view)
	if err != nil {
		obslog.L().Warn("bot_callout_failed",
			zap.String("match_id", matchID),
			zap.String("player_id", p.ID),
			zap.Error(err),
		)
		return
	}
	cell, err := ResolveTarget(setup, turn, p.ID, resp)
	if err != nil {
		obslog.L().Warn("bot_response_invalid",
			zap.String("match_id", matchID),
			zap.String("player_id", p.ID),
			zap.Error(err),
		)
		return
	}
	if err := d.submitter.SubmitMove(ctx, matchID, p.ID, cell); err != nil {
		obslog.L().Warn("bot_move_rejected",
			zap.String("match_id", matchID),
			zap.String("player_id", p.ID),
			zap.Int("cell", int(cell)),
			zap.Error(err),
		)
	}
}

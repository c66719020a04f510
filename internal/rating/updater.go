package rating

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/match"
	"github.com/netgrid/arena/internal/obslog"
)

// Updater applies a finished match's placements to the players' rating
// records. The delta math stays in ComputeDeltas; this wrapper owns the
// side effects: lazy record creation, win/loss counters and the bounded
// history.
type Updater struct {
	store Store
}

func NewUpdater(store Store) *Updater { return &Updater{store: store} }

// RecordResult implements match.ResultRecorder.
func (u *Updater) RecordResult(ctx context.Context, sessionID, matchID, gameType string, placements []match.Placement) error {
	if len(placements) < 2 {
		return nil
	}

	records := make([]*Record, len(placements))
	entrants := make([]Entrant, len(placements))
	now := time.Now()
	for i, p := range placements {
		rec, err := u.store.GetRecord(ctx, p.PlayerID, gameType)
		if err != nil {
			return fmt.Errorf("load rating record: %w", err)
		}
		if rec == nil {
			rec = &Record{
				PlayerID: p.PlayerID,
				GameType: gameType,
				MMR:      InitialMMR,
			}
		}
		records[i] = rec
		entrants[i] = Entrant{
			PlayerID:    p.PlayerID,
			MMR:         rec.MMR,
			GamesPlayed: rec.GamesPlayed,
			Placement:   p.Placement,
		}
	}

	deltas := ComputeDeltas(entrants)

	// When everyone shares the top placement the match is a full draw:
	// nobody recorded a win or a loss.
	drawAll := true
	for _, p := range placements {
		if p.Placement != 1 {
			drawAll = false
			break
		}
	}

	for i, rec := range records {
		opponents := make([]OpponentSnapshot, 0, len(entrants)-1)
		for j, o := range entrants {
			if j == i {
				continue
			}
			opponents = append(opponents, OpponentSnapshot{
				PlayerID:  o.PlayerID,
				MMR:       o.MMR,
				Placement: o.Placement,
			})
		}
		rec.MMR += deltas[i]
		rec.GamesPlayed++
		switch {
		case placements[i].Placement > 1:
			rec.Losses++
		case !drawAll:
			rec.Wins++
		}
		rec.History = append(rec.History, GameResult{
			MatchID:   matchID,
			SessionID: sessionID,
			Placement: placements[i].Placement,
			Delta:     deltas[i],
			Opponents: opponents,
			PlayedAt:  now,
		})
		if len(rec.History) > HistoryLimit {
			rec.History = rec.History[len(rec.History)-HistoryLimit:]
		}
		rec.UpdatedAt = now

		if err := u.store.UpsertRecord(ctx, rec); err != nil {
			return fmt.Errorf("persist rating record: %w", err)
		}
		obslog.L().Info("rating_updated",
			zap.String("player_id", rec.PlayerID),
			zap.String("game_type", gameType),
			zap.Int("delta", deltas[i]),
			zap.Int("mmr", rec.MMR),
			zap.Int("placement", placements[i].Placement),
		)
	}
	return nil
}

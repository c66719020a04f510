package game

import (
	"sort"

	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/obslog"
)

// DedupeMoves keeps one move per player: the earliest submission wins,
// ties broken by ascending player ID so resolution is deterministic.
// The result is sorted by player ID.
func DedupeMoves(moves []board.Move) []board.Move {
	best := make(map[string]board.Move, len(moves))
	for _, m := range moves {
		prev, ok := best[m.PlayerID]
		if !ok || m.SubmittedAt.Before(prev.SubmittedAt) {
			best[m.PlayerID] = m
		}
	}
	out := make([]board.Move, 0, len(best))
	for _, id := range sortedKeys(best) {
		out = append(out, best[id])
	}
	return out
}

// splitPlacements runs the shared validation/clash pipeline for the
// placement games: moves outside the mover's allowed set are dropped with
// a warning, cells targeted by exactly one player are accepted, and cells
// targeted by two or more become contested clashes claimed by nobody.
func splitPlacements(cur *Turn, moves []board.Move) (map[string]board.Cell, []board.Clash) {
	byCell := make(map[board.Cell][]string)
	for _, m := range moves {
		if !cur.IsAlive(m.PlayerID) {
			obslog.L().Warn("move_from_eliminated_player",
				zap.String("player_id", m.PlayerID),
				zap.Int("cell", int(m.Cell)),
			)
			continue
		}
		if !cur.AllowedSet(m.PlayerID)[m.Cell] {
			obslog.L().Warn("move_outside_allowed_set",
				zap.String("player_id", m.PlayerID),
				zap.Int("cell", int(m.Cell)),
				zap.Int("turn", cur.Number),
			)
			continue
		}
		byCell[m.Cell] = append(byCell[m.Cell], m.PlayerID)
	}

	accepted := make(map[string]board.Cell)
	var clashes []board.Clash
	cells := make([]board.Cell, 0, len(byCell))
	for c := range byCell {
		cells = append(cells, c)
	}
	sortCells(cells)
	for _, c := range cells {
		players := byCell[c]
		if len(players) == 1 {
			accepted[players[0]] = c
			continue
		}
		sort.Strings(players)
		clashes = append(clashes, board.Clash{Cell: c, Players: players, Reason: board.ReasonContested})
		obslog.L().Warn("cell_contested",
			zap.Int("cell", int(c)),
			zap.Strings("players", players),
		)
	}
	return accepted, clashes
}

package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/obslog"
)

func init() {
	Register(TypeReversi, reversi{})
}

// reversi is the only strictly-alternating variant: exactly two players,
// and only the active player ever has a populated allowed-move entry.
type reversi struct{}

func (reversi) FirstTurn(s *Setup) (*Turn, error) {
	if len(s.Players) != 2 {
		return nil, fmt.Errorf("reversi needs exactly 2 players, got %d", len(s.Players))
	}
	if s.Width < 4 || s.Height < 4 {
		return nil, fmt.Errorf("reversi needs at least a 4x4 board")
	}
	t := newInitialTurn(s)
	p0, p1 := s.Players[0].ID, s.Players[1].ID
	cx, cy := s.Width/2-1, s.Height/2-1
	t.PlayerPieces[p0] = []board.Cell{
		board.At(cx, cy, s.Width),
		board.At(cx+1, cy+1, s.Width),
	}
	t.PlayerPieces[p1] = []board.Cell{
		board.At(cx+1, cy, s.Width),
		board.At(cx, cy+1, s.Width),
	}
	t.Scores[p0], t.Scores[p1] = 2, 2
	t.ActivePlayer = p0
	t.AllowedMoves[p0] = legalReversiMoves(s, t, p0, p1)
	return t, nil
}

func (reversi) ApplyMoves(s *Setup, cur *Turn, moves []board.Move) (*Turn, error) {
	next := successor(s, cur)
	active := cur.ActivePlayer
	opponent := reversiOpponent(s, active)

	var played = board.NoCell
	for _, m := range DedupeMoves(moves) {
		if m.PlayerID != active {
			obslog.L().Warn("move_out_of_turn",
				zap.String("player_id", m.PlayerID),
				zap.Int("turn", cur.Number),
			)
			continue
		}
		if cur.AllowedSet(active)[m.Cell] {
			played = m.Cell
		} else {
			obslog.L().Warn("move_outside_allowed_set",
				zap.String("player_id", active),
				zap.Int("cell", int(m.Cell)),
				zap.Int("turn", cur.Number),
			)
		}
		break
	}

	if played == board.NoCell {
		// The active player had legal moves and produced none before the
		// deadline: forfeit, the opponent wins outright.
		next.Finished = true
		next.Winners = []board.Winner{{
			PlayerID: opponent,
			Score:    len(next.PlayerPieces[opponent]),
			Cells:    append([]board.Cell(nil), next.PlayerPieces[opponent]...),
		}}
		for _, pid := range next.AlivePlayers {
			next.Scores[pid] = len(next.PlayerPieces[pid])
		}
		obslog.L().Info("reversi_forfeit", zap.String("player_id", active))
		return next, nil
	}

	// Place and flip every bounded opposing run in all eight directions.
	flipped := reversiFlips(s, cur, active, opponent, played)
	next.PlayerPieces[active] = append(next.PlayerPieces[active], played)
	next.Moves[active] = played
	if len(flipped) > 0 {
		drop := ownedSet(flipped)
		next.PlayerPieces[opponent] = removeCells(next.PlayerPieces[opponent], drop)
		next.PlayerPieces[active] = append(next.PlayerPieces[active], flipped...)
	}
	next.Scores[active] = len(next.PlayerPieces[active])
	next.Scores[opponent] = len(next.PlayerPieces[opponent])

	// Turn passes to the opponent unless they have no legal move, in
	// which case the same player moves again; if neither side can move
	// the match is over.
	if cells := legalReversiMoves(s, next, opponent, active); len(cells) > 0 {
		next.ActivePlayer = opponent
		next.AllowedMoves[opponent] = cells
		return next, nil
	}
	if cells := legalReversiMoves(s, next, active, opponent); len(cells) > 0 {
		next.ActivePlayer = active
		next.AllowedMoves[active] = cells
		return next, nil
	}

	next.Finished = true
	next.ActivePlayer = ""
	switch {
	case next.Scores[active] > next.Scores[opponent]:
		next.Winners = []board.Winner{{PlayerID: active, Score: next.Scores[active]}}
	case next.Scores[opponent] > next.Scores[active]:
		next.Winners = []board.Winner{{PlayerID: opponent, Score: next.Scores[opponent]}}
	default:
		// Equal counts: a draw, no winner.
	}
	return next, nil
}

func reversiOpponent(s *Setup, pid string) string {
	if s.Players[0].ID == pid {
		return s.Players[1].ID
	}
	return s.Players[0].ID
}

// reversiFlips returns every opposing piece turned by placing at cell.
func reversiFlips(s *Setup, t *Turn, active, opponent string, cell board.Cell) []board.Cell {
	mine := ownedSet(t.PlayerPieces[active])
	theirs := ownedSet(t.PlayerPieces[opponent])
	var flipped []board.Cell
	for _, d := range board.AllDirs {
		var run []board.Cell
		c := cell.Step(d, s.Width, s.Height)
		for c != board.NoCell && theirs[c] {
			run = append(run, c)
			c = c.Step(d, s.Width, s.Height)
		}
		if len(run) > 0 && c != board.NoCell && mine[c] {
			flipped = append(flipped, run...)
		}
	}
	return sortCells(flipped)
}

// legalReversiMoves lists the free cells where pid would flip at least
// one opposing piece.
func legalReversiMoves(s *Setup, t *Turn, pid, opponent string) []board.Cell {
	blocked := t.BlockedSet()
	var out []board.Cell
	for i := 0; i < s.Cells(); i++ {
		c := board.Cell(i)
		if blocked[c] {
			continue
		}
		if len(reversiFlips(s, t, pid, opponent, c)) > 0 {
			out = append(out, c)
		}
	}
	return out
}

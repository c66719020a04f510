package game

import (
	"fmt"

	"github.com/netgrid/arena/internal/board"
)

func init() {
	Register(TypeConnectFour, connectFour{})
	Register(TypeFreeLine, freeLine{})
}

// connectFour is the gravity line game: every player may drop into any
// column, pieces settle onto the lowest unblocked cell.
type connectFour struct{}

func (connectFour) FirstTurn(s *Setup) (*Turn, error) {
	if len(s.Players) < 2 {
		return nil, fmt.Errorf("connect four needs at least 2 players, got %d", len(s.Players))
	}
	t := newInitialTurn(s)
	allowed := gravityAllowed(s, t)
	for _, id := range t.AlivePlayers {
		t.AllowedMoves[id] = append([]board.Cell(nil), allowed...)
	}
	return t, nil
}

func (connectFour) ApplyMoves(s *Setup, cur *Turn, moves []board.Move) (*Turn, error) {
	next := successor(s, cur)
	accepted, clashes := splitPlacements(cur, DedupeMoves(moves))
	next.Clashes = append(next.Clashes, clashes...)
	for _, pid := range sortedKeys(accepted) {
		cell := accepted[pid]
		next.PlayerPieces[pid] = append(next.PlayerPieces[pid], cell)
		next.Moves[pid] = cell
	}

	resolveLineWins(s, next, accepted)
	finishLineTurn(s, next, gravityAllowed)
	return next, nil
}

// freeLine plays the same ≥4-in-a-line rule without gravity: any free
// cell is a legal target.
type freeLine struct{}

func (freeLine) FirstTurn(s *Setup) (*Turn, error) {
	if len(s.Players) < 2 {
		return nil, fmt.Errorf("free line needs at least 2 players, got %d", len(s.Players))
	}
	t := newInitialTurn(s)
	allowed := freeAllowed(s, t)
	for _, id := range t.AlivePlayers {
		t.AllowedMoves[id] = append([]board.Cell(nil), allowed...)
	}
	return t, nil
}

func (freeLine) ApplyMoves(s *Setup, cur *Turn, moves []board.Move) (*Turn, error) {
	next := successor(s, cur)
	accepted, clashes := splitPlacements(cur, DedupeMoves(moves))
	next.Clashes = append(next.Clashes, clashes...)
	for _, pid := range sortedKeys(accepted) {
		cell := accepted[pid]
		next.PlayerPieces[pid] = append(next.PlayerPieces[pid], cell)
		next.Moves[pid] = cell
	}

	resolveLineWins(s, next, accepted)
	finishLineTurn(s, next, freeAllowed)
	return next, nil
}

// finishLineTurn recomputes scores and allowed moves and declares a draw
// when the board offers no legal cell and nobody has won.
func finishLineTurn(s *Setup, next *Turn, allowedFn func(*Setup, *Turn) []board.Cell) {
	for _, pid := range next.AlivePlayers {
		next.Scores[pid] = longestRun(ownedSet(next.PlayerPieces[pid]), s.Width, s.Height)
	}
	if next.Finished {
		return
	}
	allowed := allowedFn(s, next)
	if len(allowed) == 0 {
		next.Finished = true // draw
		return
	}
	for _, pid := range next.AlivePlayers {
		next.AllowedMoves[pid] = append([]board.Cell(nil), allowed...)
	}
}

// gravityAllowed returns the lowest unblocked cell of each column.
// Voided (clashed) cells block like placed pieces and support stacks.
func gravityAllowed(s *Setup, t *Turn) []board.Cell {
	blocked := t.BlockedSet()
	var out []board.Cell
	for x := 0; x < s.Width; x++ {
		for y := s.Height - 1; y >= 0; y-- {
			c := board.At(x, y, s.Width)
			if !blocked[c] {
				out = append(out, c)
				break
			}
		}
	}
	return sortCells(out)
}

// freeAllowed returns every unblocked cell.
func freeAllowed(s *Setup, t *Turn) []board.Cell {
	blocked := t.BlockedSet()
	var out []board.Cell
	for i := 0; i < s.Cells(); i++ {
		if c := board.Cell(i); !blocked[c] {
			out = append(out, c)
		}
	}
	return out
}

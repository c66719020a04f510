package game

import (
	"fmt"

	"github.com/netgrid/arena/internal/board"
)

func init() {
	Register(TypeLongestPath, longestPath{})
}

// longestPath scores the longest simple orthogonal path through a
// player's own cells, not the total occupied count. The match runs until
// the whole board is claimed or voided.
type longestPath struct{}

func (longestPath) FirstTurn(s *Setup) (*Turn, error) {
	if len(s.Players) < 2 {
		return nil, fmt.Errorf("longest path needs at least 2 players, got %d", len(s.Players))
	}
	t := newInitialTurn(s)
	allowed := freeAllowed(s, t)
	for _, id := range t.AlivePlayers {
		t.AllowedMoves[id] = append([]board.Cell(nil), allowed...)
	}
	return t, nil
}

func (longestPath) ApplyMoves(s *Setup, cur *Turn, moves []board.Move) (*Turn, error) {
	next := successor(s, cur)
	accepted, clashes := splitPlacements(cur, DedupeMoves(moves))
	next.Clashes = append(next.Clashes, clashes...)
	for _, pid := range sortedKeys(accepted) {
		cell := accepted[pid]
		next.PlayerPieces[pid] = append(next.PlayerPieces[pid], cell)
		next.Moves[pid] = cell
	}

	for _, pid := range next.AlivePlayers {
		next.Scores[pid] = longestSimplePath(ownedSet(next.PlayerPieces[pid]), s.Width, s.Height)
	}

	// Terminal only once every cell is claimed or voided.
	if len(next.BlockedSet()) == s.Cells() {
		next.Finished = true
		best := 0
		for _, pid := range next.AlivePlayers {
			if next.Scores[pid] > best {
				best = next.Scores[pid]
			}
		}
		for _, pid := range next.AlivePlayers {
			if next.Scores[pid] == best {
				next.Winners = append(next.Winners, board.Winner{PlayerID: pid, Score: best})
			}
		}
		return next, nil
	}

	allowed := freeAllowed(s, next)
	for _, pid := range next.AlivePlayers {
		next.AllowedMoves[pid] = append([]board.Cell(nil), allowed...)
	}
	return next, nil
}

// longestSimplePath runs a DFS from every owned cell over orthogonal
// adjacency with no revisits. Exponential in the worst case but the
// occupied sets stay small and sparse in practice.
func longestSimplePath(owned map[board.Cell]bool, width, height int) int {
	best := 0
	visited := make(map[board.Cell]bool, len(owned))
	var walk func(c board.Cell, depth int)
	walk = func(c board.Cell, depth int) {
		if depth > best {
			best = depth
		}
		visited[c] = true
		for _, d := range board.Orthogonal {
			n := c.Step(d, width, height)
			if n != board.NoCell && owned[n] && !visited[n] {
				walk(n, depth+1)
			}
		}
		visited[c] = false
	}
	for c := range owned {
		walk(c, 1)
	}
	return best
}

package game

import (
	"fmt"

	"github.com/netgrid/arena/internal/board"
)

func init() {
	Register(TypeTerritory, territory{})
}

// territory is the flood-fill game: players grow contiguous blobs and the
// projected score is the size of the Voronoi territory reachable from
// their cells by nearest Manhattan distance over unclaimed ground.
type territory struct{}

func (territory) FirstTurn(s *Setup) (*Turn, error) {
	if len(s.Players) < 2 {
		return nil, fmt.Errorf("territory needs at least 2 players, got %d", len(s.Players))
	}
	t := newInitialTurn(s)
	starts := startCells(s.Width, s.Height, len(s.Players))
	for i, pid := range t.AlivePlayers {
		t.PlayerPieces[pid] = []board.Cell{starts[i]}
	}
	for _, pid := range t.AlivePlayers {
		t.AllowedMoves[pid] = expansionCells(s, t, pid)
	}
	projectScores(s, t)
	return t, nil
}

func (territory) ApplyMoves(s *Setup, cur *Turn, moves []board.Move) (*Turn, error) {
	next := successor(s, cur)
	accepted, clashes := splitPlacements(cur, DedupeMoves(moves))
	next.Clashes = append(next.Clashes, clashes...)
	for _, pid := range sortedKeys(accepted) {
		cell := accepted[pid]
		next.PlayerPieces[pid] = append(next.PlayerPieces[pid], cell)
		next.Moves[pid] = cell
	}

	anyMove := false
	for _, pid := range next.AlivePlayers {
		cells := expansionCells(s, next, pid)
		if len(cells) > 0 {
			anyMove = true
		}
		next.AllowedMoves[pid] = cells
	}
	projectScores(s, next)

	// The match ends once no legal move can expand anyone's territory.
	if !anyMove {
		next.Finished = true
		next.AllowedMoves = make(map[string][]board.Cell)
		best := 0
		for _, pid := range next.AlivePlayers {
			if next.Scores[pid] > best {
				best = next.Scores[pid]
			}
		}
		for _, pid := range next.AlivePlayers {
			if next.Scores[pid] == best {
				next.Winners = append(next.Winners, board.Winner{
					PlayerID: pid,
					Score:    best,
					Cells:    append([]board.Cell(nil), sortCells(append([]board.Cell(nil), next.PlayerPieces[pid]...))...),
				})
			}
		}
	}
	return next, nil
}

// expansionCells lists the unclaimed cells orthogonally adjacent to the
// player's blob.
func expansionCells(s *Setup, t *Turn, pid string) []board.Cell {
	blocked := t.BlockedSet()
	seen := make(map[board.Cell]bool)
	var out []board.Cell
	for _, c := range t.PlayerPieces[pid] {
		for _, d := range board.Orthogonal {
			n := c.Step(d, s.Width, s.Height)
			if n == board.NoCell || blocked[n] || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return sortCells(out)
}

// projectScores assigns each player the size of their flood-fill
// territory: a level-synchronized multi-source BFS where a cell reached
// at the same distance by different owners counts for nobody.
func projectScores(s *Setup, t *Turn) {
	const contested = ""

	owner := make(map[board.Cell]string)
	var frontier []board.Cell
	for _, pid := range t.AlivePlayers {
		for _, c := range t.PlayerPieces[pid] {
			owner[c] = pid
			frontier = append(frontier, c)
		}
	}
	// Voided cells block the fill entirely.
	for c := range t.ClashedSet() {
		owner[c] = contested
	}

	for len(frontier) > 0 {
		claims := make(map[board.Cell]string)
		for _, c := range frontier {
			if owner[c] == contested {
				continue
			}
			for _, d := range board.Orthogonal {
				n := c.Step(d, s.Width, s.Height)
				if n == board.NoCell {
					continue
				}
				if _, taken := owner[n]; taken {
					continue
				}
				if prev, ok := claims[n]; ok && prev != owner[c] {
					claims[n] = contested
				} else if !ok {
					claims[n] = owner[c]
				}
			}
		}
		frontier = frontier[:0]
		for c, pid := range claims {
			owner[c] = pid
			frontier = append(frontier, c)
		}
		sortCells(frontier)
	}

	counts := make(map[string]int, len(t.AlivePlayers))
	for _, pid := range owner {
		if pid != contested {
			counts[pid]++
		}
	}
	for _, pid := range t.AlivePlayers {
		t.Scores[pid] = counts[pid]
	}
}

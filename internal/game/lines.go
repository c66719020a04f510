package game

import (
	"github.com/netgrid/arena/internal/board"
)

// winLength is the minimum connected run for the line games.
const winLength = 4

// runThrough walks one axis through anchor in both signs and returns the
// maximal run of owned cells containing it.
func runThrough(owned map[board.Cell]bool, anchor board.Cell, axis board.Dir, width, height int) []board.Cell {
	run := []board.Cell{anchor}
	for c := anchor.Step(axis, width, height); c != board.NoCell && owned[c]; c = c.Step(axis, width, height) {
		run = append(run, c)
	}
	back := board.Dir{DX: -axis.DX, DY: -axis.DY}
	for c := anchor.Step(back, width, height); c != board.NoCell && owned[c]; c = c.Step(back, width, height) {
		run = append(run, c)
	}
	return run
}

// winningCells returns the union of all runs of winLength or more that
// pass through anchor, or nil when the anchor completes no line.
func winningCells(owned map[board.Cell]bool, anchor board.Cell, width, height int) []board.Cell {
	if !owned[anchor] {
		return nil
	}
	hit := make(map[board.Cell]bool)
	for _, axis := range board.LineAxes {
		run := runThrough(owned, anchor, axis, width, height)
		if len(run) >= winLength {
			for _, c := range run {
				hit[c] = true
			}
		}
	}
	if len(hit) == 0 {
		return nil
	}
	out := make([]board.Cell, 0, len(hit))
	for c := range hit {
		out = append(out, c)
	}
	return sortCells(out)
}

// longestRun is the longest connected run a player owns across any axis,
// used as the running score for the line games.
func longestRun(owned map[board.Cell]bool, width, height int) int {
	best := 0
	for c := range owned {
		for _, axis := range board.LineAxes {
			// Count only from the start of each run to avoid rescans.
			back := board.Dir{DX: -axis.DX, DY: -axis.DY}
			if prev := c.Step(back, width, height); prev != board.NoCell && owned[prev] {
				continue
			}
			n := 0
			for cur := c; cur != board.NoCell && owned[cur]; cur = cur.Step(axis, width, height) {
				n++
			}
			if n > best {
				best = n
			}
		}
	}
	return best
}

func ownedSet(cells []board.Cell) map[board.Cell]bool {
	out := make(map[board.Cell]bool, len(cells))
	for _, c := range cells {
		out[c] = true
	}
	return out
}

func removeCells(cells []board.Cell, drop map[board.Cell]bool) []board.Cell {
	out := cells[:0]
	for _, c := range cells {
		if !drop[c] {
			out = append(out, c)
		}
	}
	return out
}

// resolveLineWins evaluates the line games' terminal rule on next after
// this turn's placements were applied. A single completed line wins; two
// or more lines completed in the same resolution void each other: the
// winning cells become clashes owned by nobody and both players lose
// those pieces.
func resolveLineWins(s *Setup, next *Turn, accepted map[string]board.Cell) {
	type candidate struct {
		playerID string
		cells    []board.Cell
	}
	var cands []candidate
	for _, pid := range sortedKeys(accepted) {
		owned := ownedSet(next.PlayerPieces[pid])
		if cells := winningCells(owned, accepted[pid], s.Width, s.Height); cells != nil {
			cands = append(cands, candidate{playerID: pid, cells: cells})
		}
	}
	switch len(cands) {
	case 0:
		return
	case 1:
		c := cands[0]
		next.Finished = true
		next.Winners = []board.Winner{{
			PlayerID: c.playerID,
			Score:    longestRun(ownedSet(next.PlayerPieces[c.playerID]), s.Width, s.Height),
			Cells:    c.cells,
		}}
		return
	}

	// Simultaneous completion voids every line: nobody wins.
	involved := make([]string, 0, len(cands))
	for _, c := range cands {
		involved = append(involved, c.playerID)
	}
	for _, c := range cands {
		drop := ownedSet(c.cells)
		next.PlayerPieces[c.playerID] = removeCells(next.PlayerPieces[c.playerID], drop)
		for _, cell := range c.cells {
			next.Clashes = append(next.Clashes, board.Clash{
				Cell:    cell,
				Players: append([]string(nil), involved...),
				Reason:  board.ReasonSimultaneousWin,
			})
		}
	}
}

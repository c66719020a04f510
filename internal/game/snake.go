package game

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/obslog"
)

func init() {
	Register(TypeSnake, snake{})
}

const (
	defaultStartHealth = 100
	hazardDamage       = 15
)

// snake is the simultaneous-movement game. Bodies are ordered head-first
// in PlayerPieces; every alive player moves exactly once per turn.
type snake struct{}

func (snake) FirstTurn(s *Setup) (*Turn, error) {
	if len(s.Players) < 2 {
		return nil, fmt.Errorf("snake needs at least 2 players, got %d", len(s.Players))
	}
	health := s.StartHealth
	if health <= 0 {
		health = defaultStartHealth
	}

	t := newInitialTurn(s)
	t.PlayerHealth = make(map[string]int, len(s.Players))
	starts := startCells(s.Width, s.Height, len(s.Players))
	reserved := make(map[board.Cell]bool)
	for i, id := range t.AlivePlayers {
		t.PlayerPieces[id] = []board.Cell{starts[i]}
		t.PlayerHealth[id] = health
		t.Scores[id] = 1
		reserved[starts[i]] = true
		for _, d := range board.Orthogonal {
			if n := starts[i].Step(d, s.Width, s.Height); n != board.NoCell {
				reserved[n] = true
			}
		}
	}

	rng := rand.New(rand.NewSource(s.Seed))
	t.Walls = scatter(rng, s, reserved, s.WallCount)
	t.Food = scatter(rng, s, reserved, s.FoodCount)
	t.Hazards = scatter(rng, s, reserved, s.HazardCount)

	for _, id := range t.AlivePlayers {
		t.AllowedMoves[id] = snakeAllowed(s, t, id)
	}
	return t, nil
}

func (snake) ApplyMoves(s *Setup, cur *Turn, moves []board.Move) (*Turn, error) {
	next := successor(s, cur)
	startHealth := s.StartHealth
	if startHealth <= 0 {
		startHealth = defaultStartHealth
	}

	submitted := make(map[string]board.Cell)
	for _, m := range DedupeMoves(moves) {
		if cur.IsAlive(m.PlayerID) {
			submitted[m.PlayerID] = m.Cell
		}
	}

	walls := ownedSet(cur.Walls)
	food := ownedSet(cur.Food)
	hazards := ownedSet(cur.Hazards)

	// Phase 1: pick every snake's target, then grow/shrink bodies. Deaths
	// are only decided after all heads are known.
	targets := make(map[string]board.Cell)
	bodies := make(map[string][]board.Cell)
	ate := make(map[string]bool)
	for _, pid := range cur.AlivePlayers {
		body := cur.PlayerPieces[pid]
		target, ok := chooseSnakeTarget(s, cur, pid, submitted)
		if !ok {
			// Nowhere to go at all; the snake perishes in place.
			targets[pid] = board.NoCell
			bodies[pid] = body
			continue
		}
		targets[pid] = target
		next.Moves[pid] = target
		eats := food[target]
		ate[pid] = eats
		newBody := append([]board.Cell{target}, body...)
		if !eats && len(newBody) > 1 {
			newBody = newBody[:len(newBody)-1] // vacate the tail
		}
		bodies[pid] = newBody

		if eats {
			next.PlayerHealth[pid] = startHealth
		} else {
			next.PlayerHealth[pid]--
		}
		if hazards[target] {
			next.PlayerHealth[pid] -= hazardDamage
		}
	}

	// Phase 2: death marks.
	dead := make(map[string]bool)
	for _, pid := range cur.AlivePlayers {
		t := targets[pid]
		if t == board.NoCell || walls[t] {
			dead[pid] = true
			continue
		}
		if containsCell(bodies[pid][1:], t) {
			dead[pid] = true
			continue
		}
		for _, other := range cur.AlivePlayers {
			if other == pid {
				continue
			}
			if targets[other] == t && len(bodies[pid]) <= len(bodies[other]) {
				dead[pid] = true // equal length dies on both sides
				break
			}
			if containsCell(bodies[other][1:], t) {
				dead[pid] = true
				break
			}
		}
		if !dead[pid] && next.PlayerHealth[pid] <= 0 {
			dead[pid] = true
		}
	}

	var alive []string
	eatenFood := make(map[board.Cell]bool)
	for _, pid := range cur.AlivePlayers {
		if dead[pid] {
			obslog.L().Info("snake_eliminated",
				zap.String("player_id", pid),
				zap.Int("turn", next.Number),
			)
			delete(next.PlayerPieces, pid)
			delete(next.PlayerHealth, pid)
			delete(next.Moves, pid)
			if targets[pid] != board.NoCell && food[targets[pid]] {
				eatenFood[targets[pid]] = true
			}
			continue
		}
		alive = append(alive, pid)
		next.PlayerPieces[pid] = bodies[pid]
		next.Scores[pid] = len(bodies[pid])
		if ate[pid] {
			eatenFood[targets[pid]] = true
		}
	}
	next.AlivePlayers = alive
	next.Food = removeCells(next.Food, eatenFood)
	respawnFood(s, next, len(eatenFood))

	if len(alive) <= 1 {
		next.Finished = true
		if len(alive) == 1 {
			pid := alive[0]
			next.Winners = []board.Winner{{
				PlayerID: pid,
				Score:    len(next.PlayerPieces[pid]),
				Cells:    append([]board.Cell(nil), next.PlayerPieces[pid]...),
			}}
		}
		return next, nil
	}

	for _, pid := range alive {
		next.AllowedMoves[pid] = snakeAllowed(s, next, pid)
	}
	return next, nil
}

// chooseSnakeTarget applies the fallback chain: a valid submission, then
// the continuation of the last direction when legal, then any legal
// direction, then the continuation even when lethal. Never a no-op.
func chooseSnakeTarget(s *Setup, cur *Turn, pid string, submitted map[string]board.Cell) (board.Cell, bool) {
	allowed := cur.AllowedSet(pid)
	if c, ok := submitted[pid]; ok {
		if allowed[c] {
			return c, true
		}
		obslog.L().Warn("move_outside_allowed_set",
			zap.String("player_id", pid),
			zap.Int("cell", int(c)),
			zap.Int("turn", cur.Number),
		)
	}
	cont := continuationCell(s, cur.PlayerPieces[pid])
	if cont != board.NoCell && allowed[cont] {
		return cont, true
	}
	if cells := cur.AllowedMoves[pid]; len(cells) > 0 {
		return cells[0], true
	}
	if cont != board.NoCell {
		return cont, true
	}
	return board.NoCell, false
}

// continuationCell extends the head along the head-neck direction.
func continuationCell(s *Setup, body []board.Cell) board.Cell {
	if len(body) < 2 {
		return board.NoCell
	}
	hx, hy := body[0].XY(s.Width)
	nx, ny := body[1].XY(s.Width)
	d := board.Dir{DX: hx - nx, DY: hy - ny}
	if d.DX == 0 && d.DY == 0 {
		return board.NoCell
	}
	return body[0].Step(d, s.Width, s.Height)
}

// snakeAllowed lists the head's in-bounds neighbors that are not walls
// or the snake's own body (the tail vacates and stays legal). When every
// neighbor is lethal the full in-bounds set is offered so the player
// still moves.
func snakeAllowed(s *Setup, t *Turn, pid string) []board.Cell {
	body := t.PlayerPieces[pid]
	if len(body) == 0 {
		return nil
	}
	head := body[0]
	walls := ownedSet(t.Walls)
	self := ownedSet(body)
	if len(body) > 1 {
		delete(self, body[len(body)-1])
	}
	var legal, inBounds []board.Cell
	for _, d := range board.Orthogonal {
		n := head.Step(d, s.Width, s.Height)
		if n == board.NoCell {
			continue
		}
		inBounds = append(inBounds, n)
		if !walls[n] && !self[n] {
			legal = append(legal, n)
		}
	}
	if len(legal) > 0 {
		return sortCells(legal)
	}
	return sortCells(inBounds)
}

// scatter draws n distinct unreserved cells from rng.
func scatter(rng *rand.Rand, s *Setup, reserved map[board.Cell]bool, n int) []board.Cell {
	var out []board.Cell
	for len(out) < n {
		free := 0
		for i := 0; i < s.Cells(); i++ {
			if !reserved[board.Cell(i)] {
				free++
			}
		}
		if free == 0 {
			break
		}
		c := board.Cell(rng.Intn(s.Cells()))
		if reserved[c] {
			continue
		}
		reserved[c] = true
		out = append(out, c)
	}
	return sortCells(out)
}

// respawnFood keeps the food count constant, seeded per turn so replays
// are reproducible.
func respawnFood(s *Setup, t *Turn, n int) {
	if n <= 0 {
		return
	}
	reserved := t.BlockedSet()
	for _, c := range t.Walls {
		reserved[c] = true
	}
	for _, c := range t.Food {
		reserved[c] = true
	}
	for _, c := range t.Hazards {
		reserved[c] = true
	}
	rng := rand.New(rand.NewSource(s.Seed + int64(t.Number)))
	t.Food = sortCells(append(t.Food, scatter(rng, s, reserved, n)...))
}

func containsCell(cells []board.Cell, c board.Cell) bool {
	for _, x := range cells {
		if x == c {
			return true
		}
	}
	return false
}

package game

import (
	"sort"
	"time"

	"github.com/netgrid/arena/internal/board"
)

// Type identifies one of the supported game variants.
type Type string

const (
	TypeConnectFour Type = "connect_four"
	TypeFreeLine    Type = "free_line"
	TypeLongestPath Type = "longest_path"
	TypeSnake       Type = "snake"
	TypeReversi     Type = "reversi"
	TypeTerritory   Type = "territory"
)

// Player is one participant of a match setup.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Bot    bool   `json:"bot"`
	BotURL string `json:"bot_url,omitempty"`
}

// Setup is the immutable per-match configuration.
type Setup struct {
	GameType  Type            `json:"game_type"`
	Players   []Player        `json:"players"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	TurnLimit time.Duration   `json:"turn_limit"`
	Ready     map[string]bool `json:"ready,omitempty"`
	Started   bool            `json:"started"`

	// Movement-game knobs.
	StartHealth int `json:"start_health,omitempty"`
	FoodCount   int `json:"food_count,omitempty"`
	WallCount   int `json:"wall_count,omitempty"`
	HazardCount int `json:"hazard_count,omitempty"`

	// Seed drives deterministic wall/food placement.
	Seed int64 `json:"seed,omitempty"`
}

// PlayerIDs returns the participant IDs in setup order.
func (s *Setup) PlayerIDs() []string {
	ids := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

// Cells returns the total cell count of the board.
func (s *Setup) Cells() int { return s.Width * s.Height }

// Turn is one round's state snapshot. Append-only once resolved.
type Turn struct {
	Number    int       `json:"number"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	PlayerPieces map[string][]board.Cell `json:"player_pieces"`
	AllowedMoves map[string][]board.Cell `json:"allowed_moves"`
	Clashes      []board.Clash           `json:"clashes,omitempty"`
	Moves        map[string]board.Cell   `json:"moves,omitempty"`

	Scores       map[string]int `json:"scores,omitempty"`
	AlivePlayers []string       `json:"alive_players"`
	Winners      []board.Winner `json:"winners,omitempty"`
	Finished     bool           `json:"finished"`

	// Movement-game extras.
	Walls        []board.Cell   `json:"walls,omitempty"`
	Food         []board.Cell   `json:"food,omitempty"`
	Hazards      []board.Cell   `json:"hazards,omitempty"`
	PlayerHealth map[string]int `json:"player_health,omitempty"`

	// Reversi: the player whose turn it is.
	ActivePlayer string `json:"active_player,omitempty"`
}

// Draw reports a terminal turn with no winner.
func (t *Turn) Draw() bool { return t.Finished && len(t.Winners) == 0 }

// OccupiedSet collects every cell present in any player's pieces.
func (t *Turn) OccupiedSet() map[board.Cell]bool {
	out := make(map[board.Cell]bool)
	for _, cells := range t.PlayerPieces {
		for _, c := range cells {
			out[c] = true
		}
	}
	return out
}

// ClashedSet collects every voided cell.
func (t *Turn) ClashedSet() map[board.Cell]bool {
	out := make(map[board.Cell]bool, len(t.Clashes))
	for _, cl := range t.Clashes {
		out[cl.Cell] = true
	}
	return out
}

// BlockedSet is the union of occupied and clashed cells.
func (t *Turn) BlockedSet() map[board.Cell]bool {
	out := t.OccupiedSet()
	for _, cl := range t.Clashes {
		out[cl.Cell] = true
	}
	return out
}

// AllowedSet returns one player's legal targets as a set.
func (t *Turn) AllowedSet(playerID string) map[board.Cell]bool {
	cells := t.AllowedMoves[playerID]
	out := make(map[board.Cell]bool, len(cells))
	for _, c := range cells {
		out[c] = true
	}
	return out
}

// IsAlive reports whether the player is still in the match.
func (t *Turn) IsAlive(playerID string) bool {
	for _, id := range t.AlivePlayers {
		if id == playerID {
			return true
		}
	}
	return false
}

// newInitialTurn builds turn 0 with empty boards and an armed deadline.
func newInitialTurn(s *Setup) *Turn {
	now := time.Now()
	t := &Turn{
		Number:       0,
		StartTime:    now,
		EndTime:      now.Add(s.TurnLimit),
		PlayerPieces: make(map[string][]board.Cell, len(s.Players)),
		AllowedMoves: make(map[string][]board.Cell, len(s.Players)),
		Moves:        make(map[string]board.Cell),
		Scores:       make(map[string]int, len(s.Players)),
		AlivePlayers: s.PlayerIDs(),
	}
	for _, id := range t.AlivePlayers {
		t.PlayerPieces[id] = nil
		t.Scores[id] = 0
	}
	return t
}

// successor copies the carried state of cur into a fresh open turn.
func successor(s *Setup, cur *Turn) *Turn {
	now := time.Now()
	next := &Turn{
		Number:       cur.Number + 1,
		StartTime:    now,
		EndTime:      now.Add(s.TurnLimit),
		PlayerPieces: make(map[string][]board.Cell, len(cur.PlayerPieces)),
		AllowedMoves: make(map[string][]board.Cell),
		Clashes:      append([]board.Clash(nil), cur.Clashes...),
		Moves:        make(map[string]board.Cell),
		Scores:       make(map[string]int),
		AlivePlayers: append([]string(nil), cur.AlivePlayers...),
		Walls:        append([]board.Cell(nil), cur.Walls...),
		Food:         append([]board.Cell(nil), cur.Food...),
		Hazards:      append([]board.Cell(nil), cur.Hazards...),
		ActivePlayer: cur.ActivePlayer,
	}
	for id, cells := range cur.PlayerPieces {
		next.PlayerPieces[id] = append([]board.Cell(nil), cells...)
	}
	if cur.PlayerHealth != nil {
		next.PlayerHealth = make(map[string]int, len(cur.PlayerHealth))
		for id, h := range cur.PlayerHealth {
			next.PlayerHealth[id] = h
		}
	}
	return next
}

func sortCells(cells []board.Cell) []board.Cell {
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	return cells
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// startCells spreads n starting positions over the board, corners first,
// then edge midpoints, inset one cell from the border.
func startCells(width, height, n int) []board.Cell {
	anchors := [][2]int{
		{1, 1},
		{width - 2, height - 2},
		{width - 2, 1},
		{1, height - 2},
		{width / 2, 1},
		{width / 2, height - 2},
		{1, height / 2},
		{width - 2, height / 2},
	}
	out := make([]board.Cell, 0, n)
	seen := make(map[board.Cell]bool)
	for _, a := range anchors {
		if len(out) == n {
			break
		}
		c := board.At(a[0], a[1], width)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	// Over eight players: fill remaining from the top-left scan.
	for i := 0; len(out) < n && i < width*height; i++ {
		c := board.Cell(i)
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

package board

import "time"

// Cell is a flat board index: y*width + x, row 0 at the top.
type Cell int

// NoCell marks the absence of a target.
const NoCell Cell = -1

// At converts coordinates to a cell index.
func At(x, y, width int) Cell { return Cell(y*width + x) }

// XY converts a cell index back to coordinates.
func (c Cell) XY(width int) (int, int) { return int(c) % width, int(c) / width }

// InBounds reports whether (x, y) lies on a width×height board.
func InBounds(x, y, width, height int) bool {
	return x >= 0 && x < width && y >= 0 && y < height
}

// Dir is a unit step on the grid.
type Dir struct {
	DX, DY int
}

var (
	Up    = Dir{0, -1}
	Down  = Dir{0, 1}
	Left  = Dir{-1, 0}
	Right = Dir{1, 0}

	// Orthogonal lists the four cardinal steps in deterministic order.
	Orthogonal = []Dir{Up, Right, Down, Left}

	// LineAxes lists one direction per line axis; line scans walk both signs.
	LineAxes = []Dir{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

	// AllDirs lists all eight neighbor steps.
	AllDirs = []Dir{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// Step moves one cell in d, returning NoCell when leaving the board.
func (c Cell) Step(d Dir, width, height int) Cell {
	x, y := c.XY(width)
	x += d.DX
	y += d.DY
	if !InBounds(x, y, width, height) {
		return NoCell
	}
	return At(x, y, width)
}

// Manhattan is the L1 distance between two cells.
func Manhattan(a, b Cell, width int) int {
	ax, ay := a.XY(width)
	bx, by := b.XY(width)
	return abs(ax-bx) + abs(ay-by)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Move is an immutable player submission for one turn.
type Move struct {
	MatchID     string    `json:"match_id"`
	Turn        int       `json:"turn"`
	PlayerID    string    `json:"player_id"`
	Cell        Cell      `json:"cell"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Clash reasons.
const (
	ReasonContested       = "contested"
	ReasonSimultaneousWin = "simultaneous_win"
)

// Clash records a cell voided for the rest of the match.
type Clash struct {
	Cell    Cell     `json:"cell"`
	Players []string `json:"players"`
	Reason  string   `json:"reason"`
}

// Winner is one entry of a terminal turn's result.
type Winner struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Cells    []Cell `json:"cells,omitempty"`
}

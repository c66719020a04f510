package botclient

// Coord is the (x, y) board representation bots consume; the engine's
// flat cell indices are translated at this boundary.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PlayerView is one participant as seen by a bot; Body is head-first.
type PlayerView struct {
	ID     string  `json:"id"`
	Health int     `json:"health,omitempty"`
	Score  int     `json:"score"`
	Body   []Coord `json:"body"`
}

// BoardView is the move-request payload posted to a bot.
type BoardView struct {
	GameType string       `json:"game_type"`
	MatchID  string       `json:"match_id"`
	Turn     int          `json:"turn"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	You      PlayerView   `json:"you"`
	Others   []PlayerView `json:"others"`
	Food     []Coord      `json:"food,omitempty"`
	Walls    []Coord      `json:"walls,omitempty"`
	Hazards  []Coord      `json:"hazards,omitempty"`
	Allowed  []Coord      `json:"allowed"`
}

// MoveResponse is what a bot answers with: either a direction label
// (movement game) or an explicit target cell.
type MoveResponse struct {
	Move string `json:"move,omitempty"`
	Cell *Coord `json:"cell,omitempty"`
}

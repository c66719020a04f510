package arenadto

import "time"

// TurnEvent is published whenever a match gains a new turn (including the
// first) and when it finishes.
type TurnEvent struct {
	MatchID   string      `json:"match_id"`
	SessionID string      `json:"session_id"`
	GameType  string      `json:"game_type"`
	Turn      int         `json:"turn"`
	Deadline  time.Time   `json:"deadline"`
	Finished  bool        `json:"finished"`
	Winners   []Winner    `json:"winners,omitempty"`
	Status    *MoveStatus `json:"status,omitempty"`
}

// Winner mirrors the engine's terminal result for clients.
type Winner struct {
	PlayerID string `json:"player_id"`
	Score    int    `json:"score"`
	Cells    []int  `json:"cells,omitempty"`
}

// MoveStatus enumerates who has and has not moved in the open turn.
type MoveStatus struct {
	MatchID  string    `json:"match_id"`
	Turn     int       `json:"turn"`
	Deadline time.Time `json:"deadline"`
	Moved    []string  `json:"moved"`
	Waiting  []string  `json:"waiting"`
}

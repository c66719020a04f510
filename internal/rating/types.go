package rating

import "time"

const (
	// InitialMMR seeds lazily created records.
	InitialMMR = 1000
	// MinMMR is the global rating floor; deltas never push below it.
	MinMMR = 50
	// HistoryLimit bounds each record's stored results, oldest dropped.
	HistoryLimit = 100
)

// OpponentSnapshot captures an opponent's rating at match end.
type OpponentSnapshot struct {
	PlayerID  string `json:"player_id"`
	MMR       int    `json:"mmr"`
	Placement int    `json:"placement"`
}

// GameResult is one entry of a player's bounded match history.
type GameResult struct {
	MatchID   string             `json:"match_id"`
	SessionID string             `json:"session_id"`
	Placement int                `json:"placement"`
	Delta     int                `json:"delta"`
	Opponents []OpponentSnapshot `json:"opponents"`
	PlayedAt  time.Time          `json:"played_at"`
}

// Record is the per-player per-game-type rating state. Created lazily on
// the first completed match, updated only by the rating engine.
type Record struct {
	PlayerID    string       `json:"player_id"`
	GameType    string       `json:"game_type"`
	MMR         int          `json:"mmr"`
	GamesPlayed int          `json:"games_played"`
	Wins        int          `json:"wins"`
	Losses      int          `json:"losses"`
	History     []GameResult `json:"history"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

package arenadto

import "time"

// LeaderboardRow is one entry of the top-N-by-MMR projection.
type LeaderboardRow struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	MMR         int    `json:"mmr"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
}

// ResultRow is one entry of a player's recent match history.
type ResultRow struct {
	MatchID   string    `json:"match_id"`
	SessionID string    `json:"session_id"`
	Placement int       `json:"placement"`
	Delta     int       `json:"delta"`
	PlayedAt  time.Time `json:"played_at"`
}

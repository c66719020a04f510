package match

import (
	"context"
	"errors"
	"time"

	"github.com/netgrid/arena/internal/game"
)

// Status represents a match lifecycle state.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusFinished Status = "FINISHED"
)

// Match is the persisted envelope of one played game instance. Turns are
// stored in an append-only list alongside it.
type Match struct {
	ID        string     `json:"id"`
	SessionID string     `json:"session_id"`
	Setup     game.Setup `json:"setup"`
	// TurnCount is the currently open turn number; resolution attempts
	// fence on it.
	TurnCount int       `json:"turn_count"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrMatchNotFound = errors.New("match not found")
	// ErrMatchFinished guards against resolving a match whose terminal
	// turn was already written.
	ErrMatchFinished = errors.New("match already finished")
	// ErrStaleResolution marks a resolution attempt that lost the race:
	// another attempt already advanced the turn. Recovered silently.
	ErrStaleResolution = errors.New("stale resolution attempt")
	// ErrMatchLimit rejects creation once the configured cap of
	// simultaneously active matches is reached.
	ErrMatchLimit = errors.New("active match limit reached")
)

// Placement is a player's final standing in a finished match (1 = best,
// ties share a placement).
type Placement struct {
	PlayerID  string `json:"player_id"`
	Placement int    `json:"placement"`
	Score     int    `json:"score"`
}

// ResultRecorder receives final placements of a finished match. The
// rating engine implements it.
type ResultRecorder interface {
	RecordResult(ctx context.Context, sessionID, matchID string, gameType string, placements []Placement) error
}

// DeadlineArmer schedules a forced resolution for an open turn.
type DeadlineArmer interface {
	Arm(matchID string, turnNumber int, deadline time.Time)
}

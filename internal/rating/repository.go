package rating

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/netgrid/arena/pkg/arenadto"
)

// Store is the persistence surface the updater needs; the postgres
// Repository implements it, tests may fake it.
type Store interface {
	GetRecord(ctx context.Context, playerID, gameType string) (*Record, error)
	UpsertRecord(ctx context.Context, rec *Record) error
}

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// NewRepositoryWithDB wraps an existing handle (tests).
func NewRepositoryWithDB(db *sql.DB) *Repository { return &Repository{db: db} }

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// GetRecord returns the player's rating record for one game type, or
// nil when none exists yet.
func (r *Repository) GetRecord(ctx context.Context, playerID, gameType string) (*Record, error) {
	const query = `
		SELECT
			player_id,
			game_type,
			mmr,
			games_played,
			wins,
			losses,
			history,
			created_at,
			updated_at
		FROM arena_ratings
		WHERE player_id = $1 AND game_type = $2
		LIMIT 1`

	var (
		rec         Record
		historyJSON []byte
	)
	err := r.db.QueryRowContext(ctx, query, playerID, gameType).Scan(
		&rec.PlayerID,
		&rec.GameType,
		&rec.MMR,
		&rec.GamesPlayed,
		&rec.Wins,
		&rec.Losses,
		&historyJSON,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select rating record: %w", err)
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &rec.History); err != nil {
			return nil, fmt.Errorf("unmarshal rating history: %w", err)
		}
	}
	return &rec, nil
}

func (r *Repository) UpsertRecord(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("nil rating record payload")
	}
	historyJSON, err := json.Marshal(rec.History)
	if err != nil {
		return fmt.Errorf("marshal rating history: %w", err)
	}
	const query = `
		INSERT INTO arena_ratings (
			player_id,
			game_type,
			mmr,
			games_played,
			wins,
			losses,
			history,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, NOW(), NOW())
		ON CONFLICT (player_id, game_type)
		DO UPDATE SET
			mmr = EXCLUDED.mmr,
			games_played = EXCLUDED.games_played,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			history = EXCLUDED.history,
			updated_at = NOW()`

	if _, err := r.db.ExecContext(
		ctx,
		query,
		rec.PlayerID,
		rec.GameType,
		rec.MMR,
		rec.GamesPlayed,
		rec.Wins,
		rec.Losses,
		historyJSON,
	); err != nil {
		return fmt.Errorf("upsert rating record: %w", err)
	}
	return nil
}

// TopByMMR is the leaderboard projection for one game type.
func (r *Repository) TopByMMR(ctx context.Context, gameType string, limit int) ([]arenadto.LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT player_id, mmr, games_played, wins, losses
		FROM arena_ratings
		WHERE game_type = $1
		ORDER BY mmr DESC, player_id ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, gameType, limit)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]arenadto.LeaderboardRow, 0, limit)
	for rows.Next() {
		var row arenadto.LeaderboardRow
		if err := rows.Scan(&row.PlayerID, &row.MMR, &row.GamesPlayed, &row.Wins, &row.Losses); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		row.Rank = len(out) + 1
		out = append(out, row)
	}
	return out, rows.Err()
}

// RecentResults projects a player's latest history entries, newest first.
func (r *Repository) RecentResults(ctx context.Context, playerID, gameType string, limit int) ([]arenadto.ResultRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rec, err := r.GetRecord(ctx, playerID, gameType)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	out := make([]arenadto.ResultRow, 0, limit)
	for i := len(rec.History) - 1; i >= 0 && len(out) < limit; i-- {
		h := rec.History[i]
		out = append(out, arenadto.ResultRow{
			MatchID:   h.MatchID,
			SessionID: h.SessionID,
			Placement: h.Placement,
			Delta:     h.Delta,
			PlayedAt:  h.PlayedAt,
		})
	}
	return out, nil
}

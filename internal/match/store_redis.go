package match

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/game"
)

// Store wraps the redis keyspace used for matches, turn logs and open
// move submissions.
type Store struct {
	rdb *redis.Client
}

func NewStore(redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for match store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{rdb: rdb}, nil
}

// NewStoreWithClient reuses an existing client (tests).
func NewStoreWithClient(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *Store) Client() *redis.Client { return s.rdb }

func matchKey(id string) string { return "arena:match:" + strings.TrimSpace(id) }
func turnsKey(id string) string { return "arena:match:" + strings.TrimSpace(id) + ":turns" }
func movesKey(id string, turn int) string {
	return fmt.Sprintf("arena:match:%s:moves:%d", strings.TrimSpace(id), turn)
}
func sessionIdxKey(sessionID string) string {
	return "arena:index:session:" + strings.TrimSpace(sessionID)
}

const activeIdxKey = "arena:index:active"

func (s *Store) GetMatch(ctx context.Context, id string) (*Match, error) {
	raw, err := s.rdb.Get(ctx, matchKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	var m Match
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LatestTurn returns the most recent turn in the match's append-only log.
func (s *Store) LatestTurn(ctx context.Context, id string) (*game.Turn, error) {
	raw, err := s.rdb.LIndex(ctx, turnsKey(id), -1).Result()
	if err == redis.Nil {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, err
	}
	var t game.Turn
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Turn returns one historical turn by number.
func (s *Store) Turn(ctx context.Context, id string, number int) (*game.Turn, error) {
	raw, err := s.rdb.LIndex(ctx, turnsKey(id), int64(number)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("turn %d not found for match %s", number, id)
	}
	if err != nil {
		return nil, err
	}
	var t game.Turn
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SubmitMove records a submission for the open turn. The first write per
// player wins; later duplicates report false and are ignored.
func (s *Store) SubmitMove(ctx context.Context, mv board.Move) (bool, error) {
	raw, err := json.Marshal(mv)
	if err != nil {
		return false, err
	}
	return s.rdb.HSetNX(ctx, movesKey(mv.MatchID, mv.Turn), mv.PlayerID, raw).Result()
}

// MoveCount reports how many players have a recorded move for the turn.
func (s *Store) MoveCount(ctx context.Context, matchID string, turn int) (int, error) {
	n, err := s.rdb.HLen(ctx, movesKey(matchID, turn)).Result()
	return int(n), err
}

// MovedPlayers lists players with a recorded move for the open turn.
func (s *Store) MovedPlayers(ctx context.Context, matchID string, turn int) ([]string, error) {
	return s.rdb.HKeys(ctx, movesKey(matchID, turn)).Result()
}

func (s *Store) indexSession(ctx context.Context, sessionID, matchID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}
	if err := s.rdb.SAdd(ctx, sessionIdxKey(sessionID), matchID).Err(); err != nil {
		return err
	}
	return s.rdb.Expire(ctx, sessionIdxKey(sessionID), 7*24*time.Hour).Err()
}

func (s *Store) indexActive(ctx context.Context, matchID string) error {
	return s.rdb.SAdd(ctx, activeIdxKey, matchID).Err()
}

func (s *Store) unindexActive(ctx context.Context, matchID string) error {
	return s.rdb.SRem(ctx, activeIdxKey, matchID).Err()
}

// ActiveMatchCount reports how many matches are currently open.
func (s *Store) ActiveMatchCount(ctx context.Context) (int, error) {
	n, err := s.rdb.SCard(ctx, activeIdxKey).Result()
	return int(n), err
}

// MatchesBySession returns the match IDs created under a session.
func (s *Store) MatchesBySession(ctx context.Context, sessionID string) ([]string, error) {
	return s.rdb.SMembers(ctx, sessionIdxKey(sessionID)).Result()
}

func decodeMoves(raw map[string]string) ([]board.Move, error) {
	out := make([]board.Move, 0, len(raw))
	for _, v := range raw {
		var mv board.Move
		if err := json.Unmarshal([]byte(v), &mv); err != nil {
			return nil, fmt.Errorf("decode move: %w", err)
		}
		out = append(out, mv)
	}
	return out, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}

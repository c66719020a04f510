package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/game"
	"github.com/netgrid/arena/internal/obslog"
)

// Manager orchestrates match creation, move intake and transactional turn
// resolution. All resolution attempts, voluntary or deadline-forced, pass
// through Resolve and fence on the match's open turn number.
type Manager struct {
	rdb       *redis.Client
	store     *Store
	results   ResultRecorder
	sched     DeadlineArmer
	maxActive int
}

func NewManager(store *Store) *Manager {
	return &Manager{rdb: store.Client(), store: store}
}

// AttachRecorder wires the rating engine for finished matches.
func (m *Manager) AttachRecorder(r ResultRecorder) {
	if m != nil {
		m.results = r
	}
}

// AttachScheduler wires the deadline scheduler.
func (m *Manager) AttachScheduler(s DeadlineArmer) {
	if m != nil {
		m.sched = s
	}
}

// SetMaxConcurrent caps the number of simultaneously active matches on
// this keyspace; zero disables the cap.
func (m *Manager) SetMaxConcurrent(n int) {
	if m != nil {
		m.maxActive = n
	}
}

// CreateMatch builds the first turn through the game's processor and
// persists the new match under the session.
func (m *Manager) CreateMatch(ctx context.Context, sessionID string, setup game.Setup) (*Match, error) {
	if m.maxActive > 0 {
		active, err := m.store.ActiveMatchCount(ctx)
		if err != nil {
			return nil, err
		}
		if active >= m.maxActive {
			return nil, ErrMatchLimit
		}
	}
	proc, err := game.Lookup(setup.GameType)
	if err != nil {
		return nil, err
	}
	first, err := proc.FirstTurn(&setup)
	if err != nil {
		return nil, fmt.Errorf("first turn: %w", err)
	}

	now := time.Now()
	setup.Started = true
	mt := &Match{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Setup:     setup,
		TurnCount: 0,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	mRaw, err := json.Marshal(mt)
	if err != nil {
		return nil, err
	}
	tRaw, err := json.Marshal(first)
	if err != nil {
		return nil, err
	}
	pipe := m.rdb.TxPipeline()
	pipe.Set(ctx, matchKey(mt.ID), mRaw, 0)
	pipe.RPush(ctx, turnsKey(mt.ID), tRaw)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("persist match: %w", err)
	}
	if err := m.store.indexSession(ctx, sessionID, mt.ID); err != nil {
		return nil, err
	}
	if err := m.store.indexActive(ctx, mt.ID); err != nil {
		return nil, err
	}

	obslog.L().Info("match_create",
		zap.String("match_id", mt.ID),
		zap.String("session_id", sessionID),
		zap.String("game_type", string(setup.GameType)),
		zap.Int("players", len(setup.Players)),
	)
	m.publishTurn(ctx, mt, first)
	if m.sched != nil {
		m.sched.Arm(mt.ID, 0, first.EndTime)
	}
	return mt, nil
}

// Snapshot returns a match's setup and latest turn for read-only callers
// (bot dispatch, gateway).
func (m *Manager) Snapshot(ctx context.Context, matchID string) (*game.Setup, *game.Turn, error) {
	mt, err := m.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	t, err := m.store.LatestTurn(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	return &mt.Setup, t, nil
}

// SubmitMove records a move for the open turn. Duplicate submissions by
// the same player are ignored (the earliest accepted one counts). When
// every alive player has moved, resolution is triggered immediately.
func (m *Manager) SubmitMove(ctx context.Context, matchID, playerID string, cell board.Cell) error {
	mt, err := m.store.GetMatch(ctx, matchID)
	if err != nil {
		return err
	}
	if mt.Status != StatusActive {
		return ErrMatchFinished
	}
	cur, err := m.store.LatestTurn(ctx, matchID)
	if err != nil {
		return err
	}
	if !cur.IsAlive(playerID) {
		return fmt.Errorf("player %s is not alive in match %s", playerID, matchID)
	}

	mv := board.Move{
		MatchID:     matchID,
		Turn:        mt.TurnCount,
		PlayerID:    playerID,
		Cell:        cell,
		SubmittedAt: time.Now(),
	}
	stored, err := m.store.SubmitMove(ctx, mv)
	if err != nil {
		return err
	}
	if !stored {
		obslog.L().Debug("move_duplicate_ignored",
			zap.String("match_id", matchID),
			zap.String("player_id", playerID),
			zap.Int("turn", mt.TurnCount),
		)
		return nil
	}
	obslog.L().Info("move_submitted",
		zap.String("match_id", matchID),
		zap.String("player_id", playerID),
		zap.Int("turn", mt.TurnCount),
		zap.Int("cell", int(cell)),
	)
	m.publishStatus(ctx, mt, cur)

	moved, err := m.store.MovedPlayers(ctx, matchID, mt.TurnCount)
	if err != nil {
		return err
	}
	if awaitedAllMoved(cur, moved) {
		return m.Resolve(ctx, matchID, mt.TurnCount)
	}
	return nil
}

// awaitedAllMoved reports whether every player the open turn actually
// waits on has a recorded move. Only players with a non-empty
// allowed-move entry are awaited: reversi's waiting player cannot move at
// all, and a boxed-in territory player has nothing to submit.
func awaitedAllMoved(cur *game.Turn, moved []string) bool {
	movedSet := make(map[string]bool, len(moved))
	for _, id := range moved {
		movedSet[id] = true
	}
	awaited := 0
	for _, id := range cur.AlivePlayers {
		if len(cur.AllowedMoves[id]) == 0 {
			continue
		}
		awaited++
		if !movedSet[id] {
			return false
		}
	}
	return awaited > 0
}

// Resolve advances the match by exactly one turn. It runs as an
// optimistic transaction: the match document is re-read under WATCH and
// the attempt aborts as a no-op if the open turn number moved on or the
// match already finished. At most one concurrent attempt mutates state.
func (m *Manager) Resolve(ctx context.Context, matchID string, turnNumber int) error {
	key := matchKey(matchID)
	var (
		mt   Match
		next *game.Turn
	)

	err := m.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrMatchNotFound
		}
		if err != nil {
			return err
		}
		if jerr := json.Unmarshal(raw, &mt); jerr != nil {
			return jerr
		}
		if mt.Status != StatusActive {
			return ErrMatchFinished
		}
		if mt.TurnCount != turnNumber {
			return ErrStaleResolution
		}

		curRaw, err := tx.LIndex(ctx, turnsKey(matchID), -1).Result()
		if err != nil {
			return err
		}
		var cur game.Turn
		if jerr := json.Unmarshal([]byte(curRaw), &cur); jerr != nil {
			return jerr
		}
		if len(cur.Winners) > 0 || cur.Finished {
			return ErrMatchFinished
		}

		rawMoves, err := tx.HGetAll(ctx, movesKey(matchID, turnNumber)).Result()
		if err != nil {
			return err
		}
		moves, err := decodeMoves(rawMoves)
		if err != nil {
			return err
		}
		moves = filterLate(moves, cur.EndTime)

		proc, err := game.Lookup(mt.Setup.GameType)
		if err != nil {
			// Fatal configuration error: abort and surface upstream.
			return err
		}
		next, err = proc.ApplyMoves(&mt.Setup, &cur, moves)
		if err != nil {
			return fmt.Errorf("apply moves: %w", err)
		}

		mt.TurnCount = turnNumber + 1
		mt.UpdatedAt = time.Now()
		if next.Finished {
			mt.Status = StatusFinished
		}

		mRaw, err := json.Marshal(&mt)
		if err != nil {
			return err
		}
		tRaw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.RPush(ctx, turnsKey(matchID), tRaw)
		pipe.Set(ctx, key, mRaw, 0)
		pipe.Del(ctx, movesKey(matchID, turnNumber))
		_, err = pipe.Exec(ctx)
		return err
	}, key)

	if errors.Is(err, ErrStaleResolution) || errors.Is(err, redis.TxFailedErr) {
		obslog.L().Debug("resolution_attempt_stale",
			zap.String("match_id", matchID),
			zap.Int("turn", turnNumber),
		)
		return nil
	}
	if errors.Is(err, ErrMatchFinished) {
		return nil
	}
	if err != nil {
		obslog.L().Error("resolution_failed",
			zap.String("match_id", matchID),
			zap.Int("turn", turnNumber),
			zap.Error(err),
		)
		return err
	}

	obslog.L().Info("turn_resolved",
		zap.String("match_id", matchID),
		zap.Int("turn", turnNumber),
		zap.Bool("finished", next.Finished),
		zap.Int("clashes", len(next.Clashes)),
		zap.Int("alive", len(next.AlivePlayers)),
	)
	m.publishTurn(ctx, &mt, next)

	if !next.Finished {
		m.publishStatus(ctx, &mt, next)
		if m.sched != nil {
			m.sched.Arm(matchID, mt.TurnCount, next.EndTime)
		}
		return nil
	}
	// Release the active slot before the successor is created so a full
	// keyspace can still roll its sessions over.
	if uerr := m.store.unindexActive(ctx, matchID); uerr != nil {
		obslog.L().Warn("active_index_cleanup_failed",
			zap.String("match_id", matchID),
			zap.Error(uerr),
		)
	}
	return m.finalize(ctx, &mt, next)
}

// finalize hands a terminal turn to the rating engine and spawns the
// session's successor match.
func (m *Manager) finalize(ctx context.Context, mt *Match, last *game.Turn) error {
	placements := placementsFromTurn(&mt.Setup, last)
	if m.results != nil && len(placements) >= 2 {
		if err := m.results.RecordResult(ctx, mt.SessionID, mt.ID, string(mt.Setup.GameType), placements); err != nil {
			obslog.L().Error("rating_update_failed",
				zap.String("match_id", mt.ID),
				zap.Error(err),
			)
			return err
		}
	}
	if _, err := m.CreateMatch(ctx, mt.SessionID, mt.Setup); err != nil {
		obslog.L().Error("successor_match_failed",
			zap.String("session_id", mt.SessionID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// filterLate drops moves submitted after the turn's deadline.
func filterLate(moves []board.Move, deadline time.Time) []board.Move {
	out := moves[:0]
	for _, mv := range moves {
		if !mv.SubmittedAt.After(deadline) {
			out = append(out, mv)
		}
	}
	return out
}

// placementsFromTurn ranks all participants of a finished match: winners
// share placement 1, everyone else follows by score in standard
// competition ranking (ties share, next distinct placement skips).
func placementsFromTurn(s *game.Setup, last *game.Turn) []Placement {
	winner := make(map[string]bool, len(last.Winners))
	winnerScore := make(map[string]int, len(last.Winners))
	for _, w := range last.Winners {
		winner[w.PlayerID] = true
		winnerScore[w.PlayerID] = w.Score
	}

	type standing struct {
		playerID string
		key      int
		score    int
	}
	const winBoost = 1 << 30
	standings := make([]standing, 0, len(s.Players))
	for _, p := range s.Players {
		score := last.Scores[p.ID]
		key := score
		if winner[p.ID] {
			score = winnerScore[p.ID]
			key = winBoost + score
		}
		standings = append(standings, standing{playerID: p.ID, key: key, score: score})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].key != standings[j].key {
			return standings[i].key > standings[j].key
		}
		return standings[i].playerID < standings[j].playerID
	})

	out := make([]Placement, 0, len(standings))
	place := 0
	for i, st := range standings {
		if i == 0 || st.key != standings[i-1].key {
			place = i + 1
		}
		out = append(out, Placement{PlayerID: st.playerID, Placement: place, Score: st.score})
	}
	return out
}

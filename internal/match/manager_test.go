package match

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/game"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewManager(NewStoreWithClient(rdb))
}

func testSetup(width, height int) game.Setup {
	return game.Setup{
		GameType:  game.TypeFreeLine,
		Players:   []game.Player{{ID: "p1"}, {ID: "p2"}},
		Width:     width,
		Height:    height,
		TurnLimit: time.Minute,
	}
}

func TestCreateMatchPersistsFirstTurn(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	mt, err := mgr.CreateMatch(ctx, "sess-1", testSetup(4, 4))
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if mt.Status != StatusActive || mt.TurnCount != 0 {
		t.Fatalf("new match should be active at turn 0, got %+v", mt)
	}

	setup, turn, err := mgr.Snapshot(ctx, mt.ID)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if setup.GameType != game.TypeFreeLine {
		t.Errorf("setup game type = %q", setup.GameType)
	}
	if turn.Number != 0 || len(turn.AllowedMoves["p1"]) != 16 {
		t.Errorf("turn 0 should allow every cell, got %+v", turn)
	}

	ids, err := mgr.store.MatchesBySession(ctx, "sess-1")
	if err != nil || len(ids) != 1 || ids[0] != mt.ID {
		t.Errorf("session index = %v (%v), want [%s]", ids, err, mt.ID)
	}
}

func TestCreateMatchUnknownGameType(t *testing.T) {
	mgr := newTestManager(t)
	s := testSetup(4, 4)
	s.GameType = "checkers"
	if _, err := mgr.CreateMatch(context.Background(), "sess-1", s); err == nil {
		t.Fatal("expected an error for an unregistered game type")
	}
}

func TestSubmitAllMovesResolvesTurn(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	mt, err := mgr.CreateMatch(ctx, "sess-1", testSetup(4, 4))
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	if err := mgr.SubmitMove(ctx, mt.ID, "p1", 0); err != nil {
		t.Fatalf("SubmitMove p1: %v", err)
	}
	// A duplicate submission is ignored; the first one stands.
	if err := mgr.SubmitMove(ctx, mt.ID, "p1", 5); err != nil {
		t.Fatalf("duplicate SubmitMove: %v", err)
	}
	if err := mgr.SubmitMove(ctx, mt.ID, "p2", 3); err != nil {
		t.Fatalf("SubmitMove p2: %v", err)
	}

	got, err := mgr.store.GetMatch(ctx, mt.ID)
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if got.TurnCount != 1 {
		t.Fatalf("all players moved, turn should have resolved: %+v", got)
	}
	turn, err := mgr.store.LatestTurn(ctx, mt.ID)
	if err != nil {
		t.Fatalf("LatestTurn: %v", err)
	}
	if turn.Number != 1 {
		t.Fatalf("latest turn number = %d, want 1", turn.Number)
	}
	if len(turn.PlayerPieces["p1"]) != 1 || turn.PlayerPieces["p1"][0] != 0 {
		t.Errorf("p1 pieces = %v, want the first submission at cell 0", turn.PlayerPieces["p1"])
	}
	if len(turn.PlayerPieces["p2"]) != 1 || turn.PlayerPieces["p2"][0] != 3 {
		t.Errorf("p2 pieces = %v, want cell 3", turn.PlayerPieces["p2"])
	}
}

func TestResolveStaleTurnIsNoOp(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	mt, _ := mgr.CreateMatch(ctx, "sess-1", testSetup(4, 4))
	_ = mgr.SubmitMove(ctx, mt.ID, "p1", 0)
	_ = mgr.SubmitMove(ctx, mt.ID, "p2", 3)

	// The deadline scheduler fires for turn 0 after voluntary resolution
	// already advanced the match. The attempt must change nothing.
	if err := mgr.Resolve(ctx, mt.ID, 0); err != nil {
		t.Fatalf("stale Resolve should be a silent no-op, got %v", err)
	}
	got, _ := mgr.store.GetMatch(ctx, mt.ID)
	if got.TurnCount != 1 {
		t.Errorf("turn count moved to %d after a stale attempt", got.TurnCount)
	}
	turns, err := mgr.rdb.LLen(ctx, turnsKey(mt.ID)).Result()
	if err != nil || turns != 2 {
		t.Errorf("turn log length = %d (%v), want 2", turns, err)
	}
}

func TestFinishedMatchSpawnsSuccessor(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	mt, err := mgr.CreateMatch(ctx, "sess-1", testSetup(2, 2))
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	// Fill the 2x2 board over two rounds: a draw, nobody lines up four.
	_ = mgr.SubmitMove(ctx, mt.ID, "p1", 0)
	_ = mgr.SubmitMove(ctx, mt.ID, "p2", 1)
	_ = mgr.SubmitMove(ctx, mt.ID, "p1", 2)
	if err := mgr.SubmitMove(ctx, mt.ID, "p2", 3); err != nil {
		t.Fatalf("final SubmitMove: %v", err)
	}

	got, _ := mgr.store.GetMatch(ctx, mt.ID)
	if got.Status != StatusFinished {
		t.Fatalf("match should be finished, got %+v", got)
	}
	last, _ := mgr.store.LatestTurn(ctx, mt.ID)
	if !last.Finished || !last.Draw() {
		t.Errorf("expected a finished draw, got %+v", last)
	}

	// The session continues with a fresh match of the same setup.
	ids, err := mgr.store.MatchesBySession(ctx, "sess-1")
	if err != nil || len(ids) != 2 {
		t.Fatalf("session should hold the finished match and its successor, got %v (%v)", ids, err)
	}

	// Further moves and resolutions against the finished match are refused
	// or ignored.
	if err := mgr.SubmitMove(ctx, mt.ID, "p1", 0); err != ErrMatchFinished {
		t.Errorf("SubmitMove on finished match = %v, want ErrMatchFinished", err)
	}
	if err := mgr.Resolve(ctx, mt.ID, 2); err != nil {
		t.Errorf("Resolve on finished match should be a silent no-op, got %v", err)
	}
}

func TestResolveDropsLateMoves(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	s := testSetup(4, 4)
	s.TurnLimit = -time.Second // deadline already passed
	mt, err := mgr.CreateMatch(ctx, "sess-1", s)
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	_ = mgr.SubmitMove(ctx, mt.ID, "p1", 0)
	if err := mgr.SubmitMove(ctx, mt.ID, "p2", 3); err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}

	got, _ := mgr.store.GetMatch(ctx, mt.ID)
	if got.TurnCount != 1 {
		t.Fatalf("turn should resolve even with every move late, got %+v", got)
	}
	turn, _ := mgr.store.LatestTurn(ctx, mt.ID)
	if len(turn.PlayerPieces["p1"]) != 0 || len(turn.PlayerPieces["p2"]) != 0 {
		t.Errorf("late moves must not place pieces, got %v", turn.PlayerPieces)
	}
}

func TestReversiActiveMoveResolvesImmediately(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	mt, err := mgr.CreateMatch(ctx, "sess-1", game.Setup{
		GameType:  game.TypeReversi,
		Players:   []game.Player{{ID: "p1"}, {ID: "p2"}},
		Width:     4,
		Height:    4,
		TurnLimit: time.Minute,
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}

	turn, err := mgr.store.LatestTurn(ctx, mt.ID)
	if err != nil {
		t.Fatalf("LatestTurn: %v", err)
	}
	if turn.ActivePlayer != "p1" || len(turn.AllowedMoves["p1"]) == 0 {
		t.Fatalf("unexpected opening turn %+v", turn)
	}

	// Only the active player is awaited; their single move must resolve
	// the turn without waiting for the deadline.
	if err := mgr.SubmitMove(ctx, mt.ID, "p1", turn.AllowedMoves["p1"][0]); err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	got, _ := mgr.store.GetMatch(ctx, mt.ID)
	if got.TurnCount != 1 {
		t.Fatalf("active player's move should resolve immediately, TurnCount=%d", got.TurnCount)
	}
	next, _ := mgr.store.LatestTurn(ctx, mt.ID)
	if next.ActivePlayer != "p2" {
		t.Errorf("turn should pass to p2, got %q", next.ActivePlayer)
	}
}

func TestCreateMatchHonorsActiveLimit(t *testing.T) {
	mgr := newTestManager(t)
	mgr.SetMaxConcurrent(1)
	ctx := context.Background()

	mt, err := mgr.CreateMatch(ctx, "sess-1", testSetup(2, 2))
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if _, err := mgr.CreateMatch(ctx, "sess-2", testSetup(2, 2)); err != ErrMatchLimit {
		t.Fatalf("second match = %v, want ErrMatchLimit", err)
	}

	// Finishing the active match frees its slot before the successor is
	// created, so the session rolls over even at the cap.
	_ = mgr.SubmitMove(ctx, mt.ID, "p1", 0)
	_ = mgr.SubmitMove(ctx, mt.ID, "p2", 1)
	_ = mgr.SubmitMove(ctx, mt.ID, "p1", 2)
	if err := mgr.SubmitMove(ctx, mt.ID, "p2", 3); err != nil {
		t.Fatalf("finishing SubmitMove: %v", err)
	}
	ids, err := mgr.store.MatchesBySession(ctx, "sess-1")
	if err != nil || len(ids) != 2 {
		t.Fatalf("successor should have been created at the cap, got %v (%v)", ids, err)
	}
	if _, err := mgr.CreateMatch(ctx, "sess-3", testSetup(2, 2)); err != ErrMatchLimit {
		t.Errorf("cap should apply again with the successor active, got %v", err)
	}
}

func TestSubmitMoveDeadPlayerRejected(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()
	mt, _ := mgr.CreateMatch(ctx, "sess-1", testSetup(4, 4))

	if err := mgr.SubmitMove(ctx, mt.ID, "ghost", 0); err == nil {
		t.Fatal("a player outside the match must not submit moves")
	}
}

func TestPlacementsFromTurn(t *testing.T) {
	s := &game.Setup{Players: []game.Player{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}}
	last := &game.Turn{
		Finished: true,
		Winners:  []board.Winner{{PlayerID: "a", Score: 4}},
		Scores:   map[string]int{"a": 4, "b": 3, "c": 3, "d": 1},
	}

	got := placementsFromTurn(s, last)
	want := map[string]int{"a": 1, "b": 2, "c": 2, "d": 4}
	if len(got) != 4 {
		t.Fatalf("placements = %v", got)
	}
	for _, p := range got {
		if want[p.PlayerID] != p.Placement {
			t.Errorf("player %s placement = %d, want %d", p.PlayerID, p.Placement, want[p.PlayerID])
		}
	}
}

package game

import (
	"testing"
	"time"

	"github.com/netgrid/arena/internal/board"
)

func mv(pid string, c board.Cell, at time.Time) board.Move {
	return board.Move{PlayerID: pid, Cell: c, SubmittedAt: at}
}

func TestDedupeMovesKeepsEarliestPerPlayer(t *testing.T) {
	base := time.Now()
	moves := []board.Move{
		mv("p2", 5, base.Add(2*time.Second)),
		mv("p1", 7, base.Add(time.Second)),
		mv("p1", 3, base),
	}

	got := DedupeMoves(moves)
	if len(got) != 2 {
		t.Fatalf("expected 2 deduped moves, got %d", len(got))
	}
	if got[0].PlayerID != "p1" || got[0].Cell != 3 {
		t.Errorf("p1 should keep earliest move at cell 3, got %+v", got[0])
	}
	if got[1].PlayerID != "p2" || got[1].Cell != 5 {
		t.Errorf("p2 move lost: %+v", got[1])
	}
}

func TestSplitPlacementsContestedCell(t *testing.T) {
	cur := &Turn{
		AlivePlayers: []string{"a", "b", "c"},
		AllowedMoves: map[string][]board.Cell{
			"a": {1, 2, 3},
			"b": {1, 2, 3},
			"c": {1, 2, 3},
		},
	}
	base := time.Now()
	accepted, clashes := splitPlacements(cur, []board.Move{
		mv("a", 2, base),
		mv("b", 2, base.Add(time.Millisecond)),
		mv("c", 3, base),
	})

	if len(accepted) != 1 || accepted["c"] != 3 {
		t.Fatalf("only c's move should stand, got %v", accepted)
	}
	if len(clashes) != 1 {
		t.Fatalf("expected 1 clash, got %v", clashes)
	}
	cl := clashes[0]
	if cl.Cell != 2 || cl.Reason != board.ReasonContested {
		t.Errorf("unexpected clash %+v", cl)
	}
	if len(cl.Players) != 2 || cl.Players[0] != "a" || cl.Players[1] != "b" {
		t.Errorf("clash players should be sorted [a b], got %v", cl.Players)
	}
}

func TestSplitPlacementsDropsInvalidMoves(t *testing.T) {
	cur := &Turn{
		AlivePlayers: []string{"a"},
		AllowedMoves: map[string][]board.Cell{"a": {1}},
	}
	base := time.Now()
	accepted, clashes := splitPlacements(cur, []board.Move{
		mv("a", 9, base),    // outside allowed set
		mv("dead", 1, base), // not alive
	})

	if len(accepted) != 0 {
		t.Errorf("no move should be accepted, got %v", accepted)
	}
	if len(clashes) != 0 {
		t.Errorf("no clash expected, got %v", clashes)
	}
}

func TestLookupUnknownType(t *testing.T) {
	if _, err := Lookup(Type("checkers")); err == nil {
		t.Fatal("expected an error for an unregistered game type")
	}
	for _, typ := range []Type{
		TypeConnectFour, TypeFreeLine, TypeLongestPath,
		TypeSnake, TypeReversi, TypeTerritory,
	} {
		if _, err := Lookup(typ); err != nil {
			t.Errorf("Lookup(%q) = %v", typ, err)
		}
	}
}

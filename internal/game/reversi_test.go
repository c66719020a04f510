package game

import (
	"testing"
	"time"

	"github.com/netgrid/arena/internal/board"
)

func reversiSetup() *Setup {
	return &Setup{
		GameType:  TypeReversi,
		Players:   []Player{{ID: "a"}, {ID: "b"}},
		Width:     4,
		Height:    4,
		TurnLimit: time.Minute,
	}
}

func TestReversiFirstTurn(t *testing.T) {
	s := reversiSetup()
	proc, _ := Lookup(TypeReversi)
	turn, err := proc.FirstTurn(s)
	if err != nil {
		t.Fatalf("FirstTurn: %v", err)
	}

	if turn.ActivePlayer != "a" {
		t.Errorf("first player should open, got %q", turn.ActivePlayer)
	}
	if len(turn.AllowedMoves["b"]) != 0 {
		t.Errorf("the waiting player must have no allowed moves, got %v", turn.AllowedMoves["b"])
	}
	want := []board.Cell{2, 7, 8, 13}
	got := turn.AllowedMoves["a"]
	if len(got) != len(want) {
		t.Fatalf("opening moves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("opening moves = %v, want %v", got, want)
		}
	}
	if turn.Scores["a"] != 2 || turn.Scores["b"] != 2 {
		t.Errorf("both players start with two pieces, got %v", turn.Scores)
	}
}

func TestReversiPlacementFlips(t *testing.T) {
	s := reversiSetup()
	proc, _ := Lookup(TypeReversi)
	turn, _ := proc.FirstTurn(s)

	// Placing at 7 brackets b's piece at 6 against a's piece at 5.
	next, err := proc.ApplyMoves(s, turn, []board.Move{mv("a", 7, time.Now())})
	if err != nil {
		t.Fatalf("ApplyMoves: %v", err)
	}

	if next.Scores["a"] != 4 || next.Scores["b"] != 1 {
		t.Fatalf("after the flip scores should be a=4 b=1, got %v", next.Scores)
	}
	owned := ownedSet(next.PlayerPieces["a"])
	for _, c := range []board.Cell{5, 6, 7, 10} {
		if !owned[c] {
			t.Errorf("a should own cell %d, pieces=%v", c, next.PlayerPieces["a"])
		}
	}
	if next.ActivePlayer != "b" {
		t.Errorf("turn should pass to b, got %q", next.ActivePlayer)
	}
	if len(next.AllowedMoves["b"]) == 0 {
		t.Error("b should have legal replies")
	}
	if len(next.AllowedMoves["a"]) != 0 {
		t.Errorf("a must wait, got allowed %v", next.AllowedMoves["a"])
	}
}

func TestReversiDeadlineForfeit(t *testing.T) {
	s := reversiSetup()
	proc, _ := Lookup(TypeReversi)
	turn, _ := proc.FirstTurn(s)

	next, err := proc.ApplyMoves(s, turn, nil)
	if err != nil {
		t.Fatalf("ApplyMoves: %v", err)
	}

	if !next.Finished {
		t.Fatal("missing the deadline with legal moves is a forfeit")
	}
	if len(next.Winners) != 1 || next.Winners[0].PlayerID != "b" {
		t.Fatalf("the opponent wins the forfeit, got %v", next.Winners)
	}
}

func TestReversiFullBoardCountsPieces(t *testing.T) {
	s := reversiSetup()
	cur := &Turn{
		Number:       10,
		PlayerPieces: map[string][]board.Cell{},
		AllowedMoves: map[string][]board.Cell{},
		Moves:        map[string]board.Cell{},
		Scores:       map[string]int{},
		AlivePlayers: []string{"a", "b"},
		ActivePlayer: "a",
	}
	// Everything but cell 15 is occupied; b holds 11 and 14.
	for i := 0; i < 15; i++ {
		c := board.Cell(i)
		if c == 11 || c == 14 {
			cur.PlayerPieces["b"] = append(cur.PlayerPieces["b"], c)
		} else {
			cur.PlayerPieces["a"] = append(cur.PlayerPieces["a"], c)
		}
	}
	cur.AllowedMoves["a"] = legalReversiMoves(s, cur, "a", "b")
	if !cur.AllowedSet("a")[15] {
		t.Fatalf("cell 15 should be legal for a, allowed=%v", cur.AllowedMoves["a"])
	}

	next, err := reversi{}.ApplyMoves(s, cur, []board.Move{mv("a", 15, time.Now())})
	if err != nil {
		t.Fatalf("ApplyMoves: %v", err)
	}

	if !next.Finished {
		t.Fatal("a full board with no moves left should finish the match")
	}
	if len(next.Winners) != 1 || next.Winners[0].PlayerID != "a" {
		t.Fatalf("a holds every piece and should win, got %v", next.Winners)
	}
	if next.Scores["a"] != 16 || next.Scores["b"] != 0 {
		t.Errorf("final scores = %v, want a=16 b=0", next.Scores)
	}
	if next.ActivePlayer != "" {
		t.Errorf("no active player after the match ends, got %q", next.ActivePlayer)
	}
}

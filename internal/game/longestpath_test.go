package game

import (
	"testing"
	"time"

	"github.com/netgrid/arena/internal/board"
)

func TestLongestSimplePathScoresPathNotCount(t *testing.T) {
	// A plus shape owns five cells but no simple path longer than three.
	plus := ownedSet([]board.Cell{
		board.At(1, 1, 3),
		board.At(0, 1, 3), board.At(2, 1, 3),
		board.At(1, 0, 3), board.At(1, 2, 3),
	})
	if got := longestSimplePath(plus, 3, 3); got != 3 {
		t.Errorf("plus shape path = %d, want 3", got)
	}

	// An L shape walks end to end.
	ell := ownedSet([]board.Cell{
		board.At(0, 0, 3), board.At(1, 0, 3), board.At(2, 0, 3),
		board.At(2, 1, 3), board.At(2, 2, 3),
	})
	if got := longestSimplePath(ell, 3, 3); got != 5 {
		t.Errorf("L shape path = %d, want 5", got)
	}

	if got := longestSimplePath(nil, 3, 3); got != 0 {
		t.Errorf("empty set path = %d, want 0", got)
	}
}

func TestLongestPathRunsUntilBoardFull(t *testing.T) {
	s := &Setup{
		GameType:  TypeLongestPath,
		Players:   []Player{{ID: "p1"}, {ID: "p2"}},
		Width:     2,
		Height:    2,
		TurnLimit: time.Minute,
	}
	proc, _ := Lookup(TypeLongestPath)
	turn, err := proc.FirstTurn(s)
	if err != nil {
		t.Fatalf("FirstTurn: %v", err)
	}

	turn = advance(t, s, turn, map[string]board.Cell{"p1": 0, "p2": 3})
	if turn.Finished {
		t.Fatal("the match runs until every cell is claimed")
	}
	turn = advance(t, s, turn, map[string]board.Cell{"p1": 1, "p2": 2})

	if !turn.Finished {
		t.Fatal("a full board should finish the match")
	}
	// Both hold an orthogonally connected pair: a tie with two winners.
	if turn.Scores["p1"] != 2 || turn.Scores["p2"] != 2 {
		t.Fatalf("scores = %v, want 2 and 2", turn.Scores)
	}
	if len(turn.Winners) != 2 {
		t.Errorf("equal paths should tie, winners=%v", turn.Winners)
	}
}

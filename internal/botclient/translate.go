package botclient

import (
	"fmt"
	"strings"

	"github.com/netgrid/arena/internal/board"
	"github.com/netgrid/arena/internal/game"
)

// BuildView adapts the engine's turn state to the bot protocol for one
// participant: flat cell indices become coordinates, the bot's own state
// is split from everyone else's.
func BuildView(matchID string, s *game.Setup, t *game.Turn, playerID string) *BoardView {
	view := &BoardView{
		GameType: string(s.GameType),
		MatchID:  matchID,
		Turn:     t.Number,
		Width:    s.Width,
		Height:   s.Height,
		You: PlayerView{
			ID:     playerID,
			Health: t.PlayerHealth[playerID],
			Score:  t.Scores[playerID],
			Body:   toCoords(t.PlayerPieces[playerID], s.Width),
		},
		Food:    toCoords(t.Food, s.Width),
		Walls:   toCoords(t.Walls, s.Width),
		Hazards: toCoords(t.Hazards, s.Width),
		Allowed: toCoords(t.AllowedMoves[playerID], s.Width),
	}
	for _, id := range t.AlivePlayers {
		if id == playerID {
			continue
		}
		view.Others = append(view.Others, PlayerView{
			ID:     id,
			Health: t.PlayerHealth[id],
			Score:  t.Scores[id],
			Body:   toCoords(t.PlayerPieces[id], s.Width),
		})
	}
	return view
}

// ResolveTarget translates a bot's answer back into a target cell. A
// directional answer is taken relative to the bot's head (first body
// cell); an explicit cell answer is used as-is.
func ResolveTarget(s *game.Setup, t *game.Turn, playerID string, resp *MoveResponse) (board.Cell, error) {
	if resp == nil {
		return board.NoCell, fmt.Errorf("empty bot response")
	}
	if resp.Cell != nil {
		if !board.InBounds(resp.Cell.X, resp.Cell.Y, s.Width, s.Height) {
			return board.NoCell, fmt.Errorf("bot cell (%d,%d) out of bounds", resp.Cell.X, resp.Cell.Y)
		}
		return board.At(resp.Cell.X, resp.Cell.Y, s.Width), nil
	}

	dir, err := parseDirection(resp.Move)
	if err != nil {
		return board.NoCell, err
	}
	body := t.PlayerPieces[playerID]
	if len(body) == 0 {
		return board.NoCell, fmt.Errorf("player %s has no head to move from", playerID)
	}
	c := body[0].Step(dir, s.Width, s.Height)
	if c == board.NoCell {
		return board.NoCell, fmt.Errorf("bot move %q leaves the board", resp.Move)
	}
	return c, nil
}

func parseDirection(move string) (board.Dir, error) {
	switch strings.ToLower(strings.TrimSpace(move)) {
	case "up":
		return board.Up, nil
	case "down":
		return board.Down, nil
	case "left":
		return board.Left, nil
	case "right":
		return board.Right, nil
	default:
		return board.Dir{}, fmt.Errorf("unknown bot move %q", move)
	}
}

func toCoords(cells []board.Cell, width int) []Coord {
	if len(cells) == 0 {
		return nil
	}
	out := make([]Coord, 0, len(cells))
	for _, c := range cells {
		x, y := c.XY(width)
		out = append(out, Coord{X: x, Y: y})
	}
	return out
}

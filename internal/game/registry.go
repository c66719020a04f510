package game

import (
	"errors"
	"fmt"

	"github.com/netgrid/arena/internal/board"
)

// ErrNoProcessor is returned when a match references an unregistered game
// type. This is a fatal configuration error at resolution time.
var ErrNoProcessor = errors.New("no processor registered for game type")

// Processor is the contract every game variant implements.
// ApplyMoves is a pure function of (setup, current turn, submitted moves).
type Processor interface {
	FirstTurn(setup *Setup) (*Turn, error)
	ApplyMoves(setup *Setup, current *Turn, moves []board.Move) (*Turn, error)
}

var registry = map[Type]Processor{}

// Register adds a processor for t. Called from variant init functions;
// double registration is a programming error.
func Register(t Type, p Processor) {
	if _, dup := registry[t]; dup {
		panic(fmt.Sprintf("game: duplicate processor registration for %q", t))
	}
	registry[t] = p
}

// Lookup resolves the processor for t.
func Lookup(t Type) (Processor, error) {
	p, ok := registry[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoProcessor, t)
	}
	return p, nil
}

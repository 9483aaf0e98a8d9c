package adapter

import (
	"fmt"

	"github.com/herohde/arbiter/pkg/ataxx"
	"github.com/herohde/arbiter/pkg/protocol"
)

// AtaxxAdapter is the local ground-truth GameAdapter for Ataxx: it holds its
// own ataxx.Position and answers is_gameover/result without ever touching a
// session. Grounded in original_source/src/games/ataxx.hpp's AtaxxGame,
// where Player1 is fixed to Black.
type AtaxxAdapter struct {
	startFEN string
	moves    []string
	pos      *ataxx.Position

	turn       Side
	firstMover Side
}

// NewAtaxxAdapter builds an AtaxxAdapter from startFEN ("startpos" if empty).
func NewAtaxxAdapter(startFEN string) (*AtaxxAdapter, error) {
	if startFEN == "" {
		startFEN = "startpos"
	}

	pos, err := ataxx.ParseFEN(startFEN)
	if err != nil {
		return nil, fmt.Errorf("adapter: invalid ataxx fen %q: %w", startFEN, err)
	}

	turn := ataxxSide(pos.Turn())
	return &AtaxxAdapter{startFEN: startFEN, pos: pos, turn: turn, firstMover: turn}, nil
}

func ataxxSide(c ataxx.Color) Side {
	if c == ataxx.Black {
		return Player1
	}
	return Player2
}

func (a *AtaxxAdapter) IsP1Turn(*protocol.EngineSession) (bool, error) {
	return a.pos.Turn() == ataxx.Black, nil
}

func (a *AtaxxAdapter) IsGameOver(*protocol.EngineSession) (bool, error) {
	return a.pos.IsGameOver(), nil
}

func (a *AtaxxAdapter) Result(*protocol.EngineSession) (Result, error) {
	switch a.pos.Result() {
	case ataxx.BlackWin:
		return Player1Win, nil
	case ataxx.WhiteWin:
		return Player2Win, nil
	case ataxx.Draw:
		return Draw, nil
	default:
		return NoResult, nil
	}
}

func (a *AtaxxAdapter) MakeMove(mv string) error {
	m, err := ataxx.ParseMove(mv)
	if err != nil {
		return fmt.Errorf("adapter: invalid ataxx move %q: %w", mv, err)
	}

	next, err := a.pos.Move(m)
	if err != nil {
		return fmt.Errorf("adapter: illegal ataxx move %q: %w", mv, err)
	}

	a.pos = next
	a.moves = append(a.moves, mv)
	return nil
}

func (a *AtaxxAdapter) Turn() Side          { return a.turn }
func (a *AtaxxAdapter) SetTurn(s Side)      { a.turn = s }
func (a *AtaxxAdapter) SetFirstMover(s Side) { a.firstMover = s }
func (a *AtaxxAdapter) FirstMover() Side    { return a.firstMover }
func (a *AtaxxAdapter) StartFEN() string    { return a.startFEN }
func (a *AtaxxAdapter) Moves() []string     { return a.moves }

// Position exposes the adapter's live position, for diagnostics and PGN-style
// record output (e.g. FEN tag, final board state).
func (a *AtaxxAdapter) Position() *ataxx.Position { return a.pos }

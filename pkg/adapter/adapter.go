// Package adapter implements the GameAdapter oracle: whose turn it is,
// whether a game has ended, and what its result was, abstracted over three
// interchangeable variants (generic engine-queried, local Ataxx, local
// Chess) so the GamePlayer never branches on which one it is holding.
package adapter

import (
	"fmt"

	"github.com/herohde/arbiter/pkg/protocol"
)

// Side is a logical player identity, independent of any game's own
// notion of color. A protocol dialect maps {Player1, Player2} to
// wire-level {white, black} or {w, b} keywords; GameAdapter and GamePlayer
// never deal in color directly.
type Side uint8

const (
	Player1 Side = iota
	Player2
)

func (s Side) Opponent() Side {
	if s == Player1 {
		return Player2
	}
	return Player1
}

func (s Side) String() string {
	if s == Player1 {
		return "p1"
	}
	return "p2"
}

// Result is the outcome string reported by the `query result` protocol
// command, and mirrored by the local Ataxx/Chess oracles.
type Result string

const (
	Player1Win Result = "p1win"
	Player2Win Result = "p2win"
	Draw       Result = "draw"
	NoResult   Result = "none"
)

// ParseResult parses a `query result` response token.
func ParseResult(s string) (Result, error) {
	switch Result(s) {
	case Player1Win, Player2Win, Draw, NoResult:
		return Result(s), nil
	default:
		return NoResult, fmt.Errorf("adapter: invalid result %q", s)
	}
}

// GameAdapter is the abstract oracle for one game's ground truth (§4.3).
// There is no separate is_legal_move: the Ataxx and Chess variants reject an
// illegal move by returning an error from MakeMove, while the Generic variant
// records every move unchecked.
type GameAdapter interface {
	// IsP1Turn reports whether it is Player1's turn, as seen from session
	// (for the Generic variant, session is queried; the local variants
	// ignore it and derive the answer from their own position).
	IsP1Turn(session *protocol.EngineSession) (bool, error)
	// IsGameOver reports whether the game has ended.
	IsGameOver(session *protocol.EngineSession) (bool, error)
	// Result reports the game's result once it has ended.
	Result(session *protocol.EngineSession) (Result, error)
	// MakeMove records mv (in the move notation native to the variant) as
	// played and advances the adapter's own position, if any.
	MakeMove(mv string) error

	// Turn and SetTurn hold the side the GamePlayer currently believes is
	// to move; GamePlayer alternates this itself between plies unless the
	// protocol's ask_turn option asks the adapter to re-derive it via
	// IsP1Turn every ply.
	Turn() Side
	SetTurn(Side)
	// SetFirstMover records which side moved first, for record-file output.
	SetFirstMover(Side)
	FirstMover() Side

	// StartFEN and Moves report the game's starting position token and the
	// moves played so far, for building `position ...` protocol lines and
	// for record-file output.
	StartFEN() string
	Moves() []string
}

// Game names the supported GameAdapter variants, matching the `game`
// configuration key.
type Game string

const (
	Generic Game = "generic"
	Ataxx   Game = "ataxx"
	Chess   Game = "chess"
)

// New builds the GameAdapter variant named by game, seeded at startFEN (or
// that variant's default starting position if startFEN is empty).
func New(game Game, startFEN string) (GameAdapter, error) {
	switch game {
	case Generic, "":
		return NewGenericAdapter(startFEN), nil
	case Ataxx:
		return NewAtaxxAdapter(startFEN)
	case Chess:
		return NewChessAdapter(startFEN)
	default:
		return nil, fmt.Errorf("adapter: unknown game %q", game)
	}
}

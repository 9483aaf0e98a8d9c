package adapter

import "github.com/herohde/arbiter/pkg/protocol"

// GenericAdapter delegates is_p1_turn, is_gameover and result entirely to
// whichever session it is asked about, grounded in
// original_source/src/games/ugigame.hpp's UGIGame: every query first pushes
// the current position (start position plus move history) to the engine,
// then asks the matching `query` question.
type GenericAdapter struct {
	startFEN string
	moves    []string

	turn       Side
	firstMover Side
}

// NewGenericAdapter builds a GenericAdapter seeded at startFEN ("startpos"
// if empty).
func NewGenericAdapter(startFEN string) *GenericAdapter {
	if startFEN == "" {
		startFEN = "startpos"
	}
	return &GenericAdapter{startFEN: startFEN, turn: Player1, firstMover: Player1}
}

func (a *GenericAdapter) IsP1Turn(session *protocol.EngineSession) (bool, error) {
	if err := session.Position(a.startFEN, a.moves); err != nil {
		return false, err
	}
	return session.QueryBool(protocol.QueryP1Turn)
}

func (a *GenericAdapter) IsGameOver(session *protocol.EngineSession) (bool, error) {
	if err := session.Position(a.startFEN, a.moves); err != nil {
		return false, err
	}
	return session.QueryBool(protocol.QueryGameover)
}

func (a *GenericAdapter) Result(session *protocol.EngineSession) (Result, error) {
	if err := session.Position(a.startFEN, a.moves); err != nil {
		return NoResult, err
	}
	resp, err := session.QueryResult()
	if err != nil {
		return NoResult, err
	}
	return ParseResult(resp)
}

// MakeMove records mv. It does not touch turn: GamePlayer owns the turn
// field uniformly across every variant, flipping it itself after a move
// (or re-deriving it via IsP1Turn when ask_turn is set).
func (a *GenericAdapter) MakeMove(mv string) error {
	a.moves = append(a.moves, mv)
	return nil
}

func (a *GenericAdapter) Turn() Side          { return a.turn }
func (a *GenericAdapter) SetTurn(s Side)      { a.turn = s }
func (a *GenericAdapter) SetFirstMover(s Side) { a.firstMover = s }
func (a *GenericAdapter) FirstMover() Side    { return a.firstMover }
func (a *GenericAdapter) StartFEN() string    { return a.startFEN }
func (a *GenericAdapter) Moves() []string     { return a.moves }

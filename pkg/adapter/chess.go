package adapter

import (
	"fmt"

	"github.com/herohde/arbiter/pkg/board"
	"github.com/herohde/arbiter/pkg/board/fen"
	"github.com/herohde/arbiter/pkg/protocol"
)

// startChessFEN is the standard chess starting position.
const startChessFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// chessZobristTable is shared across every ChessAdapter in the process; the
// seed only needs to be stable within one run, not across runs.
var chessZobristTable = board.NewZobristTable(1)

// ChessAdapter is the local ground-truth GameAdapter for chess: it holds its
// own board.Board and answers is_gameover/result without ever touching a
// session. Grounded in original_source/src/games/chess.hpp's ChessGame,
// where Player1 is fixed to White.
type ChessAdapter struct {
	startFEN string
	moves    []string
	board    *board.Board

	turn       Side
	firstMover Side
}

// NewChessAdapter builds a ChessAdapter from startFEN (the standard starting
// position if empty or "startpos").
func NewChessAdapter(startFEN string) (*ChessAdapter, error) {
	if startFEN == "" || startFEN == "startpos" {
		startFEN = startChessFEN
	}

	pos, turn, noprogress, fullmoves, err := fen.Decode(startFEN)
	if err != nil {
		return nil, fmt.Errorf("adapter: invalid chess fen %q: %w", startFEN, err)
	}

	b := board.NewBoard(chessZobristTable, pos, turn, noprogress, fullmoves)

	side := chessSide(turn)
	return &ChessAdapter{startFEN: startFEN, board: b, turn: side, firstMover: side}, nil
}

func chessSide(c board.Color) Side {
	if c == board.White {
		return Player1
	}
	return Player2
}

func (a *ChessAdapter) IsP1Turn(*protocol.EngineSession) (bool, error) {
	return a.board.Turn() == board.White, nil
}

func (a *ChessAdapter) IsGameOver(*protocol.EngineSession) (bool, error) {
	a.adjudicateIfNoLegalMoves()
	return a.board.Result().Outcome != board.Undecided, nil
}

func (a *ChessAdapter) Result(*protocol.EngineSession) (Result, error) {
	a.adjudicateIfNoLegalMoves()
	switch a.board.Result().Outcome {
	case board.WhiteWins:
		return Player1Win, nil
	case board.BlackWins:
		return Player2Win, nil
	case board.Draw:
		return Draw, nil
	default:
		return NoResult, nil
	}
}

// adjudicateIfNoLegalMoves checks for checkmate/stalemate, the one terminal
// condition board.Board cannot detect on its own from PushMove bookkeeping
// alone (repetition, no-progress and insufficient material are already
// handled incrementally by PushMove itself).
func (a *ChessAdapter) adjudicateIfNoLegalMoves() {
	if a.board.Result().Outcome != board.Undecided {
		return
	}
	if !a.hasLegalMove() {
		a.board.AdjudicateNoLegalMoves()
	}
}

func (a *ChessAdapter) hasLegalMove() bool {
	pos := a.board.Position()
	for _, m := range pos.PseudoLegalMoves(a.board.Turn()) {
		if _, ok := pos.Move(m); ok {
			return true
		}
	}
	return false
}

func (a *ChessAdapter) MakeMove(mv string) error {
	m, err := board.ParseMove(mv)
	if err != nil {
		return fmt.Errorf("adapter: invalid chess move %q: %w", mv, err)
	}

	m = a.disambiguate(m)
	if !a.board.PushMove(m) {
		return fmt.Errorf("adapter: illegal chess move %q", mv)
	}

	a.moves = append(a.moves, mv)
	return nil
}

// disambiguate fills in the Type/Piece/Capture metadata that bare coordinate
// notation ("e2e4") never carries, by matching the move's From/To/Promotion
// against the position's own pseudo-legal moves.
func (a *ChessAdapter) disambiguate(m board.Move) board.Move {
	for _, cand := range a.board.Position().PseudoLegalMoves(a.board.Turn()) {
		if cand.From == m.From && cand.To == m.To && cand.Promotion == m.Promotion {
			return cand
		}
	}
	return m
}

func (a *ChessAdapter) Turn() Side          { return a.turn }
func (a *ChessAdapter) SetTurn(s Side)      { a.turn = s }
func (a *ChessAdapter) SetFirstMover(s Side) { a.firstMover = s }
func (a *ChessAdapter) FirstMover() Side    { return a.firstMover }
func (a *ChessAdapter) StartFEN() string    { return a.startFEN }
func (a *ChessAdapter) Moves() []string     { return a.moves }

// Board exposes the adapter's live board, for diagnostics and PGN-style
// record output.
func (a *ChessAdapter) Board() *board.Board { return a.board }

// Package play implements GamePlayer (§4.6): the per-game state machine
// that drives two EngineSessions under a GameAdapter and a time control from
// a starting position through to a terminal Outcome. Grounded in
// original_source/src/match/play.cpp's play_game, the multi-game variant of
// the reference's two play_game implementations (the other, src/play.cpp,
// is UGI-only and was not generalised to a pluggable GameAdapter).
package play

import (
	"time"

	"github.com/herohde/arbiter/pkg/adapter"
	"github.com/herohde/arbiter/pkg/events"
	"github.com/herohde/arbiter/pkg/protocol"
)

// GameoverQuery selects which side(s) are polled for "is the game over"
// each ply, grounded in settings.hpp's QueryGameover.
type GameoverQuery int

const (
	ToMoveOnly GameoverQuery = iota
	BothSides
)

// ProtocolSettings configures per-ply protocol behaviour (§4.6).
type ProtocolSettings struct {
	AskTurn       bool
	GameoverQuery GameoverQuery
}

// AdjudicationSettings bounds a game's length and the grace period granted
// on top of a fixed per-move time budget (§4.6). MaxFullMoves of 0 means
// unbounded.
type AdjudicationSettings struct {
	TimeoutBufferMS int
	MaxFullMoves    int
}

// Outcome is the terminal verdict of one game: a Result plus the Reason it
// was reached, grounded in match/play.cpp's `GG{result, adjudicated}`.
type Outcome struct {
	Result adapter.Result
	Reason events.Reason
}

// Play drives one game between session1 (playing as engine1) and session2
// (engine2) over ga from its current starting position, under settings, adj
// and proto, until a terminal Outcome is reached. If dispatcher is non-nil, a
// MovePlayed event is posted for gameNumber after every ply.
//
// An I/O failure on either session at any point aborts the game immediately
// with Outcome{Result: adapter.NoResult, Reason: events.Crash}; it is the
// caller's responsibility to not return a crashed session to the store.
func Play(gameNumber int, ga adapter.GameAdapter, session1, session2 *protocol.EngineSession,
	settings protocol.SearchSettings, adj AdjudicationSettings, proto ProtocolSettings,
	dispatcher *events.Dispatcher) Outcome {

	if err := session1.NewGame(); err != nil {
		return crashed()
	}
	if err := session2.NewGame(); err != nil {
		return crashed()
	}

	isP1, err := ga.IsP1Turn(session1)
	if err != nil {
		return crashed()
	}
	ga.SetTurn(sideOf(isP1))
	ga.SetFirstMover(ga.Turn())

	tc := settings
	plies := 0

	for {
		if proto.AskTurn {
			isP1, err := ga.IsP1Turn(session1)
			if err != nil {
				return crashed()
			}
			ga.SetTurn(sideOf(isP1))
		}

		us, them := sessionsFor(ga.Turn(), session1, session2)

		if err := us.IsReady(); err != nil {
			return crashed()
		}
		if err := us.Position(ga.StartFEN(), ga.Moves()); err != nil {
			return crashed()
		}

		over, err := ga.IsGameOver(us)
		if err != nil {
			return crashed()
		}
		if over {
			return adjudicate(ga, session1, session2)
		}

		if proto.GameoverQuery == BothSides {
			if err := them.IsReady(); err != nil {
				return crashed()
			}
			if err := them.Position(ga.StartFEN(), ga.Moves()); err != nil {
				return crashed()
			}
			over, err := ga.IsGameOver(them)
			if err != nil {
				return crashed()
			}
			if over {
				return adjudicate(ga, session1, session2)
			}
		}

		t0 := time.Now()
		mv, err := us.Go(tc)
		if err != nil {
			return crashed()
		}
		dt := time.Since(t0)

		if dispatcher != nil {
			dispatcher.Post(events.Event{Kind: events.MovePlayed, Payload: events.MovePlayedPayload{
				GameNumber: gameNumber,
				Move:       mv,
				Elapsed:    dt,
			}})
		}

		if outOfTime := updateClock(&tc, ga.Turn(), dt, adj); outOfTime {
			loser := ga.Turn()
			winner := adapter.Player1Win
			if loser == adapter.Player1 {
				winner = adapter.Player2Win
			}
			return Outcome{Result: winner, Reason: events.Timeout}
		}

		if err := ga.MakeMove(mv); err != nil {
			return crashed()
		}
		ga.SetTurn(ga.Turn().Opponent())
		plies++

		// MaxFullMoves counts full moves (one per side), matching
		// board.Board's own fullmoves counter, which only advances after
		// Black has replied -- two plies per unit, not one.
		if adj.MaxFullMoves > 0 && plies >= adj.MaxFullMoves*2 {
			return Outcome{Result: adapter.NoResult, Reason: events.Gamelength}
		}
	}
}

func sideOf(isP1 bool) adapter.Side {
	if isP1 {
		return adapter.Player1
	}
	return adapter.Player2
}

func sessionsFor(turn adapter.Side, session1, session2 *protocol.EngineSession) (us, them *protocol.EngineSession) {
	if turn == adapter.Player1 {
		return session1, session2
	}
	return session2, session1
}

// updateClock advances tc by dt for the side to move and reports whether
// that side has now run out of time, per §4.6 step 7's Time/MoveTime rules
// (Depth and Nodes carry no clock).
func updateClock(tc *protocol.SearchSettings, turn adapter.Side, dt time.Duration, adj AdjudicationSettings) bool {
	ms := int(dt.Milliseconds())

	switch tc.Type {
	case protocol.Time:
		if turn == adapter.Player1 {
			tc.P1Time -= ms
			if tc.P1Time <= 0 {
				return true
			}
			tc.P1Time += tc.P1Inc
		} else {
			tc.P2Time -= ms
			if tc.P2Time <= 0 {
				return true
			}
			tc.P2Time += tc.P2Inc
		}
		return false
	case protocol.MoveTime:
		return ms > tc.MoveTimeMS+adj.TimeoutBufferMS
	default: // Depth, Nodes
		return false
	}
}

// adjudicate resolves a gameover claim by separately re-confirming it with
// both sessions, per §4.6's Terminating state: a disagreement on whether the
// game is over, or on its result, adjudicates to None with the matching
// Reason rather than trusting either side.
func adjudicate(ga adapter.GameAdapter, session1, session2 *protocol.EngineSession) Outcome {
	gameover1, result1, err := reconfirm(ga, session1)
	if err != nil {
		return crashed()
	}
	gameover2, result2, err := reconfirm(ga, session2)
	if err != nil {
		return crashed()
	}

	if gameover1 != gameover2 {
		return Outcome{Result: adapter.NoResult, Reason: events.GameoverMismatch}
	}
	if result1 != result2 {
		return Outcome{Result: adapter.NoResult, Reason: events.ResultMismatch}
	}
	return Outcome{Result: result1, Reason: events.NoReason}
}

func reconfirm(ga adapter.GameAdapter, session *protocol.EngineSession) (bool, adapter.Result, error) {
	if err := session.IsReady(); err != nil {
		return false, adapter.NoResult, err
	}
	if err := session.Position(ga.StartFEN(), ga.Moves()); err != nil {
		return false, adapter.NoResult, err
	}
	over, err := ga.IsGameOver(session)
	if err != nil {
		return false, adapter.NoResult, err
	}
	result, err := ga.Result(session)
	if err != nil {
		return false, adapter.NoResult, err
	}
	return over, result, nil
}

func crashed() Outcome {
	return Outcome{Result: adapter.NoResult, Reason: events.Crash}
}

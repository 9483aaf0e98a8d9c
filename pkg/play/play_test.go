package play_test

import (
	"testing"
	"time"

	"github.com/herohde/arbiter/pkg/adapter"
	"github.com/herohde/arbiter/pkg/ataxx"
	"github.com/herohde/arbiter/pkg/events"
	"github.com/herohde/arbiter/pkg/play"
	"github.com/herohde/arbiter/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedMoveEngine answers isready/go like a well-behaved engine, always
// replying to `go ...` with mv regardless of position, and sleeping delay
// before doing so (to exercise timeout adjudication).
func fixedMoveEngine(mv string, delay time.Duration) func(string) []string {
	return func(line string) []string {
		switch {
		case line == "isready":
			return []string{"readyok"}
		case len(line) >= 2 && line[:2] == "go":
			if delay > 0 {
				time.Sleep(delay)
			}
			return []string{"bestmove " + mv}
		default:
			return nil
		}
	}
}

func legalMoveFor(t *testing.T, pos *ataxx.Position) string {
	t.Helper()
	moves := pos.PseudoLegalMoves(pos.Turn())
	require.NotEmpty(t, moves, "no legal moves from this position")
	return moves[0].String()
}

// S1: two engines, both playing a legal first move from ataxx startpos,
// 1-ply search. Play returns reason = None with a result matching ground
// truth.
func TestPlay_legalFirstMoveFromStartpos(t *testing.T) {
	ga, err := adapter.NewAtaxxAdapter("")
	require.NoError(t, err)

	mv := legalMoveFor(t, ga.Position())

	s1 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine(mv, 0))
	s2 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine(mv, 0))

	settings := protocol.SearchSettings{Type: protocol.Depth, Plies: 1}
	adj := play.AdjudicationSettings{}
	proto := play.ProtocolSettings{}

	outcome := play.Play(0, ga, s1, s2, settings, adj, proto, nil)

	assert.Equal(t, events.NoReason, outcome.Reason)
	assert.Contains(t, []adapter.Result{adapter.Player1Win, adapter.Player2Win, adapter.Draw, adapter.NoResult}, outcome.Result)
}

// S2: domination fen should be claimed over on the very first query, before
// either session is ever asked to search, and adjudicate to Player1Win.
func TestPlay_dominationIsImmediateGameOver(t *testing.T) {
	ga, err := adapter.NewAtaxxAdapter("xxxxx1o/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx x 0 1")
	require.NoError(t, err)

	s1 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine("a1a2", 0))
	s2 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine("a1a2", 0))

	outcome := play.Play(0, ga, s1, s2, protocol.SearchSettings{Type: protocol.Depth, Plies: 1},
		play.AdjudicationSettings{}, play.ProtocolSettings{}, nil)

	assert.Equal(t, adapter.Player1Win, outcome.Result)
	assert.Equal(t, events.NoReason, outcome.Reason)
}

// S2 continued: the same fen adjudicates to Player1Win regardless of which
// engine is assigned as engine1/engine2, since AtaxxAdapter's ground truth
// does not depend on which session asked.
func TestPlay_dominationIndependentOfEngineAssignment(t *testing.T) {
	ga, err := adapter.NewAtaxxAdapter("xxxxx1o/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx x 0 1")
	require.NoError(t, err)

	s1 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine("a1a2", 0))
	s2 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine("a1a2", 0))

	// Swap which session plays engine1/engine2.
	outcome := play.Play(0, ga, s2, s1, protocol.SearchSettings{Type: protocol.Depth, Plies: 1},
		play.AdjudicationSettings{}, play.ProtocolSettings{}, nil)

	assert.Equal(t, adapter.Player1Win, outcome.Result)
}

// S3: a position already at the no-progress limit is a draw.
func TestPlay_noProgressLimitIsDraw(t *testing.T) {
	ga, err := adapter.NewAtaxxAdapter("x5o/7/7/7/7/7/o5x x 100 1")
	require.NoError(t, err)

	s1 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine("a1a2", 0))
	s2 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine("a1a2", 0))

	outcome := play.Play(0, ga, s1, s2, protocol.SearchSettings{Type: protocol.Depth, Plies: 1},
		play.AdjudicationSettings{}, play.ProtocolSettings{}, nil)

	assert.Equal(t, adapter.Draw, outcome.Result)
	assert.Equal(t, events.NoReason, outcome.Reason)
}

// S4: a MoveTime budget of 10ms with zero grace buffer, against an engine
// that takes 500ms to answer, times out engine1 (to move from startpos) and
// awards the game to Player2.
func TestPlay_moveTimeTimeoutAwardsOpponent(t *testing.T) {
	ga, err := adapter.NewAtaxxAdapter("")
	require.NoError(t, err)

	slow := fixedMoveEngine("a1a2", 500*time.Millisecond)
	s1 := protocol.NewFakeSession(t, protocol.UGI, slow)
	s2 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine("a1a2", 0))

	settings := protocol.SearchSettings{Type: protocol.MoveTime, MoveTimeMS: 10}
	adj := play.AdjudicationSettings{TimeoutBufferMS: 0}

	outcome := play.Play(0, ga, s1, s2, settings, adj, play.ProtocolSettings{}, nil)

	assert.Equal(t, adapter.Player2Win, outcome.Result)
	assert.Equal(t, events.Timeout, outcome.Reason)
}

// A session I/O failure mid-game is reported as a Crash, not propagated as a
// panic or swallowed as a normal loss.
func TestPlay_sessionFailureIsCrash(t *testing.T) {
	ga, err := adapter.NewAtaxxAdapter("")
	require.NoError(t, err)

	crashedSession, err := protocol.NewSession(0, protocol.UGI, protocol.NewCrashedProcess(t))
	require.NoError(t, err)
	s2 := protocol.NewFakeSession(t, protocol.UGI, fixedMoveEngine("a1a2", 0))

	outcome := play.Play(0, ga, crashedSession, s2, protocol.SearchSettings{Type: protocol.Depth, Plies: 1},
		play.AdjudicationSettings{}, play.ProtocolSettings{}, nil)

	assert.Equal(t, adapter.NoResult, outcome.Result)
	assert.Equal(t, events.Crash, outcome.Reason)
}

// MaxFullMoves adjudicates an otherwise-undecided game to Gamelength.
func TestPlay_gamelengthAdjudication(t *testing.T) {
	ga := adapter.NewGenericAdapter("")

	// This generic adapter always answers "not over" via its session
	// queries, so the game runs until MaxFullMoves forces adjudication.
	respond := func(line string) []string {
		switch {
		case line == "isready":
			return []string{"readyok"}
		case line == "query p1turn":
			return []string{"response true"}
		case line == "query gameover":
			return []string{"response false"}
		case len(line) >= 2 && line[:2] == "go":
			return []string{"bestmove a1a2"}
		default:
			return nil
		}
	}
	s1 := protocol.NewFakeSession(t, protocol.UGI, respond)
	s2 := protocol.NewFakeSession(t, protocol.UGI, respond)

	adj := play.AdjudicationSettings{MaxFullMoves: 3}
	outcome := play.Play(0, ga, s1, s2, protocol.SearchSettings{Type: protocol.Depth, Plies: 1},
		adj, play.ProtocolSettings{}, nil)

	assert.Equal(t, adapter.NoResult, outcome.Result)
	assert.Equal(t, events.Gamelength, outcome.Reason)
	assert.Len(t, ga.Moves(), 6)
}

// MovePlayed is posted to the dispatcher once per ply, in order.
func TestPlay_postsMovePlayedPerPly(t *testing.T) {
	ga := adapter.NewGenericAdapter("")
	respond := func(line string) []string {
		switch {
		case line == "isready":
			return []string{"readyok"}
		case line == "query p1turn":
			return []string{"response true"}
		case line == "query gameover":
			return []string{"response false"}
		case len(line) >= 2 && line[:2] == "go":
			return []string{"bestmove a1a2"}
		default:
			return nil
		}
	}
	s1 := protocol.NewFakeSession(t, protocol.UGI, respond)
	s2 := protocol.NewFakeSession(t, protocol.UGI, respond)

	d := events.NewDispatcher()
	adj := play.AdjudicationSettings{MaxFullMoves: 2}
	play.Play(7, ga, s1, s2, protocol.SearchSettings{Type: protocol.Depth, Plies: 1}, adj, play.ProtocolSettings{}, d)

	assert.Equal(t, 4, d.Size())
}

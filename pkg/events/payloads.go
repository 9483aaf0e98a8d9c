package events

import (
	"time"

	"github.com/herohde/arbiter/pkg/adapter"
)

// Reason qualifies why a game ended, beyond its bare Result. Grounded in
// original_source/src/games/game.hpp's AdjudicationReason and spec.md
// §4.6's Terminating-state mapping.
type Reason int

const (
	NoReason Reason = iota
	Timeout
	Gamelength
	Crash
	GameoverMismatch
	ResultMismatch
)

func (r Reason) String() string {
	switch r {
	case Timeout:
		return "Timeout"
	case Gamelength:
		return "Gamelength"
	case Crash:
		return "Crash"
	case GameoverMismatch:
		return "GameoverMismatch"
	case ResultMismatch:
		return "ResultMismatch"
	default:
		return "None"
	}
}

// GameStartedPayload is posted when a worker begins driving a new game.
// Grounded in original_source/src/events/events.hpp's GameStarted.
type GameStartedPayload struct {
	GameNumber       int
	StartFEN         string
	Engine1, Engine2 int
}

// GameFinishedPayload is posted once a game has reached a terminal state,
// one way or another. Grounded in original_source/src/events/events.hpp's
// GameFinished.
type GameFinishedPayload struct {
	GameNumber       int
	Engine1, Engine2 int
	Result           adapter.Result
	Reason           Reason
	Moves            []string
	StartFEN         string
	FirstMover       adapter.Side
}

// MovePlayedPayload is posted after each ply, carrying the time the engine
// to move took to respond. Grounded in
// original_source/src/events/events.hpp's MovePlayed.
type MovePlayedPayload struct {
	GameNumber int
	Move       string
	Elapsed    time.Duration
}

// EngineCreatedPayload / EngineDestroyedPayload report EngineStore misses
// (a fresh subprocess spawned) and evictions (a cached subprocess quit).
// Grounded in original_source/src/events/events.hpp's EngineCreated/
// EngineDestroyed.
type EngineCreatedPayload struct {
	EngineIndex int
	Path        string
	Name        string
}

type EngineDestroyedPayload struct {
	EngineIndex int
	Path        string
	Name        string
}

// MatchFinishedPayload carries no data; its presence on the queue is the
// signal for the consumer loop to stop after draining.
type MatchFinishedPayload struct{}

// ThreadFinishedPayload reports that one worker has exited its loop,
// grounded in original_source/src/events/events.hpp's ThreadFinished
// (there keyed by std::thread::id; here by the worker's own ordinal,
// since Go goroutines have no public identity to report).
type ThreadFinishedPayload struct {
	WorkerIndex int
}

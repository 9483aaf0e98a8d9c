package stats

import (
	"context"
	"fmt"
	"sync"

	"github.com/herohde/arbiter/pkg/adapter"
	"github.com/herohde/arbiter/pkg/events"
	"github.com/seekerror/logw"
)

// EngineStats tracks one engine's participation across a match. Grounded in
// original_source/src/events/on_game_finished.cpp's EngineStatistics
// (win/lose/draw/played), extended with crashes/timeouts per the glossary.
type EngineStats struct {
	Played   int
	Wins     int
	Losses   int
	Draws    int
	Crashes  int
	Timeouts int
}

// MatchStats tracks match-wide totals. Grounded in
// original_source/src/events/on_game_finished.cpp's MatchStatistics.
type MatchStats struct {
	GamesTotal    int
	GamesFinished int
	P1Wins        int
	P2Wins        int
	Draws         int
	EngineLoads   int
	EngineUnloads int
}

// Names resolves an engine index to the label used in printed scorelines.
// Optional: callers that don't care about pretty names may leave it nil, in
// which case the aggregator falls back to "engine <i>".
type Names func(engineIndex int) string

// Aggregator is the GameFinished consumer that keeps EngineStats/MatchStats
// up to date and, on a configurable cadence, prints a scoreline -- with Elo
// and its error margin when exactly two engines are playing each other --
// grounded in on_game_finished.cpp's on_game_finished/print_results/
// should_update.
type Aggregator struct {
	mu    sync.Mutex
	match MatchStats
	by    map[int]*EngineStats

	updateFrequency int
	names           Names

	sprt *sprtConfig
}

type sprtConfig struct {
	elo0, elo1  float64
	alpha, beta float64
}

// New constructs an Aggregator expecting gamesTotal games overall, printing
// a scoreline every updateFrequency finishes (must be > 0; should_update in
// on_game_finished.cpp asserts the same).
func New(gamesTotal, updateFrequency int, names Names) *Aggregator {
	if updateFrequency <= 0 {
		updateFrequency = 1
	}
	return &Aggregator{
		match:           MatchStats{GamesTotal: gamesTotal},
		by:              make(map[int]*EngineStats),
		updateFrequency: updateFrequency,
		names:           names,
	}
}

// EnableSPRT arms an early-stopping SPRT against hypotheses elo0/elo1 with
// type I/II error rates alpha/beta. Only meaningful for a two-engine match.
func (a *Aggregator) EnableSPRT(elo0, elo1, alpha, beta float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sprt = &sprtConfig{elo0: elo0, elo1: elo1, alpha: alpha, beta: beta}
}

// Match returns a snapshot of the match-wide totals.
func (a *Aggregator) Match() MatchStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.match
}

// Engine returns a snapshot of one engine's stats, or the zero value if it
// has not yet participated in any game.
func (a *Aggregator) Engine(index int) EngineStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok := a.by[index]; ok {
		return *s
	}
	return EngineStats{}
}

func (a *Aggregator) engine(index int) *EngineStats {
	s, ok := a.by[index]
	if !ok {
		s = &EngineStats{}
		a.by[index] = s
	}
	return s
}

// Register attaches the aggregator's listeners to dispatcher, wiring
// GameFinished, EngineCreated and EngineDestroyed into the running tallies.
// It posts MatchFinished (directly via dispatcher.Post, not through the
// listener it is itself registering, to avoid re-entrant locking) once the
// match concludes, whether by exhausting games_total or by an armed SPRT
// reaching a decision.
func (a *Aggregator) Register(ctx context.Context, dispatcher *events.Dispatcher) {
	dispatcher.Register(events.GameFinished, func(e events.Event) {
		p := e.Payload.(events.GameFinishedPayload)
		if a.onGameFinished(ctx, p) {
			dispatcher.Post(events.Event{Kind: events.MatchFinished, Payload: events.MatchFinishedPayload{}})
		}
	})
	dispatcher.Register(events.EngineCreated, func(events.Event) {
		a.mu.Lock()
		a.match.EngineLoads++
		a.mu.Unlock()
	})
	dispatcher.Register(events.EngineDestroyed, func(events.Event) {
		a.mu.Lock()
		a.match.EngineUnloads++
		a.mu.Unlock()
	})
}

// onGameFinished updates tallies for one finished game and reports whether
// the match has now concluded (games_total reached, or SPRT decided).
func (a *Aggregator) onGameFinished(ctx context.Context, p events.GameFinishedPayload) bool {
	a.mu.Lock()

	a.match.GamesFinished++
	e1 := a.engine(p.Engine1)
	e2 := a.engine(p.Engine2)
	e1.Played++
	e2.Played++

	switch p.Result {
	case adapter.Player1Win:
		a.match.P1Wins++
		e1.Wins++
		e2.Losses++
	case adapter.Player2Win:
		a.match.P2Wins++
		e1.Losses++
		e2.Wins++
	case adapter.Draw:
		a.match.Draws++
		e1.Draws++
		e2.Draws++
	}

	switch p.Reason {
	case events.Crash:
		if p.Result == adapter.Player2Win {
			e1.Crashes++
		} else if p.Result == adapter.Player1Win {
			e2.Crashes++
		}
	case events.Timeout:
		if p.Result == adapter.Player2Win {
			e1.Timeouts++
		} else if p.Result == adapter.Player1Win {
			e2.Timeouts++
		}
	}

	finished := a.match.GamesFinished
	total := a.match.GamesTotal
	shouldPrint := shouldUpdate(finished, a.updateFrequency)

	var summary string
	var sprtDone bool
	if shouldPrint {
		summary = a.render(p.Engine1, p.Engine2, finished)
	}
	if a.sprt != nil && len(a.by) == 2 {
		sprtDone = ShouldStop(e1.Wins, e1.Losses, e1.Draws, a.sprt.elo0, a.sprt.elo1, a.sprt.alpha, a.sprt.beta)
	}

	a.mu.Unlock()

	if summary != "" {
		logw.Infof(ctx, "%v", summary)
	}

	return finished >= total || sprtDone
}

// shouldUpdate reports whether a scoreline should be printed after the
// num'th finish, mirroring on_game_finished.cpp's should_update: every
// frequency-th finish, plus every finish before the first full interval so
// early progress is visible.
func shouldUpdate(num, frequency int) bool {
	return num%frequency == 0 || num < frequency
}

func (a *Aggregator) nameOf(index int) string {
	if a.names != nil {
		return a.names(index)
	}
	return fmt.Sprintf("engine %d", index)
}

// render builds the printable scoreline for a two-engine match, or a
// per-engine tally table otherwise, mirroring print_results's two branches.
func (a *Aggregator) render(engine1, engine2, finished int) string {
	if len(a.by) != 2 {
		return a.renderTable()
	}

	e1 := a.by[engine1]
	e2 := a.by[engine2]
	score := GetScore(e1.Wins, e1.Losses, e1.Draws)

	out := fmt.Sprintf("Score of %v vs %v: %v - %v - %v [%.3f] %v",
		a.nameOf(engine1), a.nameOf(engine2), e1.Wins, e1.Losses, e1.Draws, score, e1.Played)

	if finished >= a.updateFrequency {
		elo := GetElo(e1.Wins, e1.Losses, e1.Draws)
		err := GetErr(e1.Wins, e1.Losses, e1.Draws)
		out += fmt.Sprintf("\n%.2f +/- %.2f", elo, err)
	}
	return out
}

func (a *Aggregator) renderTable() string {
	out := "Name  Wins  Losses  Draws"
	for i := 0; i < len(a.by); i++ {
		s := a.by[i]
		if s == nil {
			continue
		}
		out += fmt.Sprintf("\n%v  %v  %v  %v", a.nameOf(i), s.Wins, s.Losses, s.Draws)
	}
	return out
}

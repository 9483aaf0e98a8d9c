package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/herohde/arbiter/pkg/adapter"
	"github.com/herohde/arbiter/pkg/events"
	"github.com/herohde/arbiter/pkg/live"
	"github.com/herohde/arbiter/pkg/pgn"
	"github.com/herohde/arbiter/pkg/play"
	"github.com/herohde/arbiter/pkg/protocol"
	"github.com/herohde/arbiter/pkg/stats"
	"github.com/herohde/arbiter/pkg/store"
	"github.com/herohde/arbiter/pkg/tourney"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

// Orchestrator is MatchOrchestrator (§4.9): it owns the generator, the
// shared engine store, the dispatcher and its registered listeners, and
// drives Config.Concurrency workers to exhaust the generator while a
// consumer loop drains the dispatcher on the calling goroutine. Grounded in
// main.cpp's top-level wiring (ThreadPool + ad hoc nested loop) with the
// pairing logic itself delegated to tourney.Generator.
type Orchestrator struct {
	cfg        Config
	openings   []string
	dispatcher *events.Dispatcher
	store      *store.Store
	gen        *tourney.Generator
	aggregator *stats.Aggregator
	pgnWriter  *pgn.Writer
	liveServer *http.Server

	quit atomic.Bool
}

// Results is the final report returned once a match concludes, combining
// the statistics aggregator's tallies with the wall-clock count of games
// actually finished.
type Results struct {
	Match   stats.MatchStats
	Engines []stats.EngineStats
}

// New builds an Orchestrator from cfg and a pre-loaded set of opening
// positions (§4.9 step 1's "build EngineSpec vector" is cfg.Engines,
// already parsed by Load).
func New(cfg Config, openings []string) (*Orchestrator, error) {
	if len(openings) == 0 {
		return nil, fmt.Errorf("orchestrator: no opening positions provided")
	}

	var gen *tourney.Generator
	switch cfg.Tournament {
	case Gauntlet:
		gen = tourney.NewGauntlet(len(cfg.Engines), cfg.Games, len(openings), cfg.OpeningsRepeat)
	default:
		gen = tourney.NewRoundRobin(len(cfg.Engines), cfg.Games, len(openings), cfg.OpeningsRepeat)
	}

	names := func(i int) string {
		if i >= 0 && i < len(cfg.Engines) {
			return cfg.Engines[i].Name
		}
		return fmt.Sprintf("engine %d", i)
	}

	o := &Orchestrator{
		cfg:        cfg,
		openings:   openings,
		dispatcher: events.NewDispatcher(),
		store:      store.New(cfg.StoreSize),
		gen:        gen,
		aggregator: stats.New(gen.Expected(), cfg.RatingInterval, names),
		pgnWriter:  pgn.New(cfg.PGN),
	}

	if cfg.SPRT.Enabled {
		o.aggregator.EnableSPRT(cfg.SPRT.Elo0, cfg.SPRT.Elo1, cfg.SPRT.Alpha, cfg.SPRT.Beta)
	}

	if cfg.LiveAddr != "" {
		broadcaster := live.NewBroadcaster()
		broadcaster.Register(o.dispatcher)
		o.liveServer = &http.Server{Addr: cfg.LiveAddr, Handler: broadcaster}
	}

	return o, nil
}

// Expected returns the total number of games this match will play absent
// early SPRT termination, mirroring §4.9 step 3.
func (o *Orchestrator) Expected() int {
	return o.gen.Expected()
}

// Run registers every listener (§4.9 step 2), spawns Config.Concurrency
// workers (step 4-5), and drains the dispatcher on the calling goroutine
// until MatchFinished is observed (step 6-7), then tears down any engines
// still cached in the store and returns the final tallies.
func (o *Orchestrator) Run(ctx context.Context) Results {
	o.aggregator.Register(ctx, o.dispatcher)
	o.dispatcher.Register(events.MatchFinished, func(events.Event) {
		o.quit.Store(true)
	})
	if o.cfg.PGN.Enabled {
		o.dispatcher.Register(events.GameFinished, func(e events.Event) {
			o.writeRecord(ctx, e.Payload.(events.GameFinishedPayload))
		})
	}

	if o.liveServer != nil {
		go func() {
			if err := o.liveServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logw.Infof(ctx, "orchestrator: live viewer stopped: %v", err)
			}
		}()
		defer o.liveServer.Shutdown(ctx)
	}

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(workerIndex int) {
			defer wg.Done()
			o.worker(ctx, workerIndex)
			o.dispatcher.Post(events.Event{Kind: events.ThreadFinished, Payload: events.ThreadFinishedPayload{WorkerIndex: workerIndex}})
		}(i)
	}

	for !o.quit.Load() {
		o.dispatcher.Wait()
		o.dispatcher.Drain()
	}
	o.dispatcher.Drain()

	o.store.Clear(ctx)
	wg.Wait()
	o.store.Clear(ctx) // any session released by an in-flight game after the first clear
	o.dispatcher.Drain()

	engines := make([]stats.EngineStats, len(o.cfg.Engines))
	for i := range engines {
		engines[i] = o.aggregator.Engine(i)
	}
	return Results{Match: o.aggregator.Match(), Engines: engines}
}

// worker is one of Config.Concurrency goroutines driving §4.9 step 5's
// loop: pull assignments from the shared generator until it is exhausted
// or quit has been observed, playing each one to completion.
func (o *Orchestrator) worker(ctx context.Context, workerIndex int) {
	for {
		if o.quit.Load() {
			return
		}

		assignment, err := o.gen.Next()
		if err != nil {
			return
		}

		o.playAssignment(ctx, assignment)
	}
}

func (o *Orchestrator) playAssignment(ctx context.Context, a tourney.Assignment) {
	session1, created1, err := o.getEngine(ctx, a.Engine1Index)
	if err != nil {
		logw.Infof(ctx, "orchestrator: engine %v unavailable for game %v: %v", a.Engine1Index, a.GameNumber, err)
		return
	}
	if created1 {
		o.dispatcher.Post(events.Event{Kind: events.EngineCreated, Payload: events.EngineCreatedPayload{
			EngineIndex: a.Engine1Index, Path: o.cfg.Engines[a.Engine1Index].Path, Name: o.cfg.Engines[a.Engine1Index].Name,
		}})
	}

	session2, created2, err := o.getEngine(ctx, a.Engine2Index)
	if err != nil {
		logw.Infof(ctx, "orchestrator: engine %v unavailable for game %v: %v", a.Engine2Index, a.GameNumber, err)
		o.dispose(ctx, a.Engine1Index, session1)
		return
	}
	if created2 {
		o.dispatcher.Post(events.Event{Kind: events.EngineCreated, Payload: events.EngineCreatedPayload{
			EngineIndex: a.Engine2Index, Path: o.cfg.Engines[a.Engine2Index].Path, Name: o.cfg.Engines[a.Engine2Index].Name,
		}})
	}

	startFEN := o.openings[a.OpeningIndex%len(o.openings)]
	ga, err := adapter.New(o.cfg.Game, startFEN)
	if err != nil {
		logw.Infof(ctx, "orchestrator: game %v: building adapter: %v", a.GameNumber, err)
		o.dispose(ctx, a.Engine1Index, session1)
		o.dispose(ctx, a.Engine2Index, session2)
		return
	}

	o.dispatcher.Post(events.Event{Kind: events.GameStarted, Payload: events.GameStartedPayload{
		GameNumber: a.GameNumber, StartFEN: startFEN, Engine1: a.Engine1Index, Engine2: a.Engine2Index,
	}})

	outcome := play.Play(a.GameNumber, ga, session1, session2, o.cfg.TimeControl, o.cfg.Adjudication, o.cfg.Protocol, o.dispatcher)

	o.dispatcher.Post(events.Event{Kind: events.GameFinished, Payload: events.GameFinishedPayload{
		GameNumber: a.GameNumber,
		Engine1:    a.Engine1Index, Engine2: a.Engine2Index,
		Result: outcome.Result, Reason: outcome.Reason,
		Moves:      ga.Moves(),
		StartFEN:   startFEN,
		FirstMover: ga.FirstMover(),
	}})

	o.dispose(ctx, a.Engine1Index, session1)
	o.dispose(ctx, a.Engine2Index, session2)

	if outcome.Reason == events.Crash && !o.cfg.Recover {
		o.dispatcher.Post(events.Event{Kind: events.MatchFinished, Payload: events.MatchFinishedPayload{}})
	}
}

// dispose returns sess to the store if it is still alive, or destroys it
// outright otherwise -- §4.6/§7 require a crashed session be destroyed, not
// cached, and §4.4's EngineStore invariant ("all sessions in the store are
// idle and ready to receive a protocol command") rules out caching a dead
// one regardless of why play.Play ended. play.Play does not report which of
// the two sessions crashed, so both are checked individually here rather
// than keyed off outcome.Reason.
func (o *Orchestrator) dispose(ctx context.Context, engineIndex int, sess *protocol.EngineSession) {
	if !sess.Alive() {
		if err := sess.Quit(); err != nil {
			logw.Infof(ctx, "orchestrator: quit on crashed session (spec %v) failed: %v", sess.SpecID, err)
		}
		o.dispatcher.Post(events.Event{Kind: events.EngineDestroyed, Payload: events.EngineDestroyedPayload{
			EngineIndex: engineIndex, Path: o.cfg.Engines[engineIndex].Path, Name: o.cfg.Engines[engineIndex].Name,
		}})
		return
	}

	if o.store.Release(ctx, sess) {
		o.dispatcher.Post(events.Event{Kind: events.EngineDestroyed, Payload: events.EngineDestroyedPayload{
			EngineIndex: engineIndex, Path: o.cfg.Engines[engineIndex].Path, Name: o.cfg.Engines[engineIndex].Name,
		}})
	}
}

// getEngine returns a ready EngineSession for engineIndex, reusing a
// cached one from the store if available, or spawning and initialising a
// fresh subprocess otherwise -- grounded in
// original_source/src/play.cpp's get_engine.
func (o *Orchestrator) getEngine(ctx context.Context, engineIndex int) (*protocol.EngineSession, bool, error) {
	for {
		sess, ok := o.store.GetBy(func(s *protocol.EngineSession) bool { return s.SpecID == engineIndex })
		if !ok {
			break
		}
		if sess.Alive() {
			return sess, false, nil
		}
		// dispose never returns a dead session to the store, but a fresh
		// check here costs nothing and keeps the invariant from ever
		// depending on a single call site.
		if err := sess.Quit(); err != nil {
			logw.Infof(ctx, "orchestrator: discarding dead cached session (spec %v): quit failed: %v", sess.SpecID, err)
		}
	}

	spec := o.cfg.Engines[engineIndex]

	proc, err := protocol.Spawn(ctx, spec.Path, strings.Fields(spec.Parameters))
	if err != nil {
		return nil, false, err
	}

	sess, err := protocol.NewSession(engineIndex, spec.Protocol, proc)
	if err != nil {
		return nil, false, err
	}

	if err := sess.Init(); err != nil {
		return nil, false, err
	}

	for _, name := range sortedKeys(spec.Options) {
		if err := sess.SetOption(name, spec.Options[name]); err != nil {
			return nil, false, err
		}
	}

	return sess, true, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (o *Orchestrator) writeRecord(ctx context.Context, p events.GameFinishedPayload) {
	if err := o.pgnWriter.Write(pgn.Record{
		Player1:    o.engineName(p.Engine1),
		Player2:    o.engineName(p.Engine2),
		StartFEN:   p.StartFEN,
		Moves:      p.Moves,
		FirstMover: p.FirstMover,
		Result:     p.Result,
		Reason:     p.Reason,
	}); err != nil {
		logw.Infof(ctx, "orchestrator: pgn write failed: %v", err)
	}
}

func (o *Orchestrator) engineName(i int) string {
	if i >= 0 && i < len(o.cfg.Engines) {
		return o.cfg.Engines[i].Name
	}
	return fmt.Sprintf("engine %d", i)
}

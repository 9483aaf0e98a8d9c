// Command arbiter runs a round-robin or gauntlet match between two or
// more engines speaking a line-oriented protocol, following a JSON
// settings file the way original_source/src/main.cpp's CLI11-based
// entry point does. Grounded in that file's flag set, startup/summary
// banners and games/sec timing, and in the teacher's cmd/morlock's
// plain-flag/logw idiom for everything else.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/herohde/arbiter/pkg/orchestrator"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(1, 0, 0)

var (
	settingsPath = flag.String("settings", "", "Path to match settings JSON (required)")
	threads      = flag.Int("threads", 0, "Override the configured concurrency (0 keeps the settings value)")
	games        = flag.Int("games", 0, "Override the configured games per matchup (0 keeps the settings value)")
	store        = flag.Int("store", -1, "Override the engine store size (0 means auto: 2x worker count, -1 keeps the settings value)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	verbose      = flag.Bool("verbose", false, "Verbose output")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: arbiter --settings path/to/settings.json [options]

ARBITER runs matches between line-protocol game engines.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	if *showVersion {
		fmt.Printf("arbiter %v\n", version)
		return
	}

	if *settingsPath == "" {
		flag.Usage()
		logw.Exitf(ctx, "arbiter: --settings is required")
	}

	printAbout()

	cfg, err := orchestrator.Load(*settingsPath)
	if err != nil {
		logw.Exitf(ctx, "arbiter: %v", err)
	}

	if *threads > 0 {
		cfg.Concurrency = *threads
	}
	if *games > 0 {
		cfg.Games = *games
	}
	switch {
	case *store == 0:
		cfg.StoreSize = 2 * cfg.Concurrency
	case *store > 0:
		cfg.StoreSize = *store
	}
	if *debug {
		cfg.Debug = true
	}
	if *verbose {
		cfg.Verbose = true
	}

	openings, err := orchestrator.LoadOpenings(cfg.OpeningsPath, cfg.OpeningsShuffle, rand.Perm)
	if err != nil {
		logw.Exitf(ctx, "arbiter: %v", err)
	}

	printSettings(cfg)
	printEngineSettings(cfg)
	fmt.Printf("Opening positions: %v\n\n", len(openings))

	o, err := orchestrator.New(cfg, openings)
	if err != nil {
		logw.Exitf(ctx, "arbiter: %v", err)
	}

	t0 := time.Now()
	results := o.Run(ctx)
	dt := time.Since(t0)

	fmt.Println()
	printStatistics(results)
	fmt.Println()
	printTiming(dt, results.Match.GamesFinished)

	if results.Match.GamesTotal != results.Match.GamesFinished {
		fmt.Println()
		logw.Warningf(ctx, "arbiter: game count might be wrong? (expected %v, finished %v)", results.Match.GamesTotal, results.Match.GamesFinished)
	}
}

func printAbout() {
	fmt.Printf("Arbiter %v\n", version)
	fmt.Println("https://github.com/herohde/arbiter")
	fmt.Println()
}

func printSettings(cfg orchestrator.Config) {
	fmt.Printf("Game: %v\n", cfg.Game)
	fmt.Printf("Tournament: %v\n", cfg.Tournament)
	fmt.Printf("Games per matchup: %v\n", cfg.Games)
	fmt.Printf("Concurrency: %v\n", cfg.Concurrency)
	fmt.Printf("Engine store size: %v\n", cfg.StoreSize)
	if cfg.SPRT.Enabled {
		fmt.Printf("SPRT: elo0=%v elo1=%v alpha=%v beta=%v\n", cfg.SPRT.Elo0, cfg.SPRT.Elo1, cfg.SPRT.Alpha, cfg.SPRT.Beta)
	}
	if cfg.LiveAddr != "" {
		fmt.Printf("Live viewer: ws://%v\n", cfg.LiveAddr)
	}
	fmt.Println()
}

func printEngineSettings(cfg orchestrator.Config) {
	fmt.Println("Engine Data:")
	for i, e := range cfg.Engines {
		fmt.Printf("- %v %v %v %v", i, e.Name, e.Path, e.Parameters)
		for k, v := range e.Options {
			fmt.Printf(" {%v:%v}", k, v)
		}
		fmt.Println()
	}
}

func printStatistics(results orchestrator.Results) {
	m := results.Match
	fmt.Println("Statistics:")
	fmt.Printf("Engines loaded: %v\n", m.EngineLoads)
	fmt.Printf("Engines unloaded: %v\n", m.EngineUnloads)
	fmt.Printf("Games finished: %v\n", m.GamesFinished)
	fmt.Printf("Player 1 Score: +%v-%v=%v\n", m.P1Wins, m.P2Wins, m.Draws)
}

func printTiming(dt time.Duration, gamesFinished int) {
	fmt.Printf("Time taken: %v\n", dt.Round(time.Second))
	if dt > 0 && gamesFinished > 0 {
		gamesPerSec := float64(gamesFinished) / dt.Seconds()
		fmt.Printf("Games/min: %.2f\n", gamesPerSec*60)
		fmt.Printf("Games/sec: %.2f\n", gamesPerSec)
		fmt.Printf("ms/game: %.2f\n", dt.Seconds()*1000/float64(gamesFinished))
	}
}

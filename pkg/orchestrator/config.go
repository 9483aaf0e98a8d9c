// Package orchestrator implements MatchOrchestrator (§4.9): it loads a
// match configuration and opening book, wires every listener, and drives a
// worker pool of GamePlayer instances to completion against a shared
// TournamentGenerator, EngineStore and EventDispatcher. Grounded in
// original_source/src/main.cpp (the top-level wiring) and
// original_source/src/match/settings.cpp (the configuration schema),
// generalised from main.cpp's hand-rolled nested-pairing loop to the
// pluggable tourney.Generator this repository already built for C5.
package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/herohde/arbiter/pkg/adapter"
	"github.com/herohde/arbiter/pkg/pgn"
	"github.com/herohde/arbiter/pkg/play"
	"github.com/herohde/arbiter/pkg/protocol"
)

// EngineSpec describes one participating engine: how to launch it, which
// dialect it speaks, and the options to set on it once running. Grounded in
// settings.hpp's EngineSettings.
type EngineSpec struct {
	Name       string
	Path       string
	Protocol   protocol.Dialect
	Parameters string
	Options    map[string]string
}

// TournamentType selects the pairing algorithm, matching the `tournament`
// configuration key.
type TournamentType string

const (
	RoundRobin TournamentType = "roundrobin"
	Gauntlet   TournamentType = "gauntlet"
)

// SPRTConfig mirrors settings.hpp's SPRTSettings.
type SPRTConfig struct {
	Enabled bool
	Alpha   float64
	Beta    float64
	Elo0    float64
	Elo1    float64
}

// Config is the fully parsed match configuration, grounded in
// settings.hpp's MatchSettings and loaded by Load the way settings.cpp's
// get_settings walks a parsed JSON document key by key.
type Config struct {
	Games           int
	Game            adapter.Game
	Concurrency     int
	RatingInterval  int
	Debug           bool
	Verbose         bool
	Recover         bool
	Tournament      TournamentType
	Protocol        play.ProtocolSettings
	Adjudication    play.AdjudicationSettings
	TimeControl     protocol.SearchSettings
	OpeningsPath    string
	OpeningsRepeat  bool
	OpeningsShuffle bool
	SPRT            SPRTConfig
	PGN             pgn.Settings
	LiveAddr        string
	Options         map[string]string
	Engines         []EngineSpec
	StoreSize       int
}

// rawConfig mirrors the on-disk JSON document field for field; its zero
// values are the same defaults settings.hpp's MatchSettings initialises,
// so a key absent from the document behaves exactly as it does in the
// reference implementation.
type rawConfig struct {
	Games          int    `json:"games"`
	Game           string `json:"game"`
	Concurrency    int    `json:"concurrency"`
	RatingInterval int    `json:"ratinginterval"`
	Debug          bool   `json:"debug"`
	Verbose        bool   `json:"verbose"`
	Recover        bool   `json:"recover"`
	Tournament     string `json:"tournament"`

	Protocol struct {
		AskTurn  bool   `json:"askturn"`
		Gameover string `json:"gameover"`
	} `json:"protocol"`

	Adjudication struct {
		TimeoutBuffer int `json:"timeoutbuffer"`
		MaxFullMoves  int `json:"maxfullmoves"`
	} `json:"adjudication"`

	TimeControl struct {
		Type      string `json:"type"`
		Time      int    `json:"time"`
		Increment int    `json:"increment"`
		Nodes     int    `json:"nodes"`
		Ply       int    `json:"ply"`
	} `json:"timecontrol"`

	Openings struct {
		Path    string `json:"path"`
		Repeat  bool   `json:"repeat"`
		Shuffle bool   `json:"shuffle"`
	} `json:"openings"`

	SPRT struct {
		Enabled    bool     `json:"enabled"`
		Alpha      float64  `json:"alpha"`
		Beta       float64  `json:"beta"`
		Elo0       float64  `json:"elo0"`
		Elo1       float64  `json:"elo1"`
		Confidence *float64 `json:"confidence"`
	} `json:"sprt"`

	PGN struct {
		Enabled  bool   `json:"enabled"`
		Path     string `json:"path"`
		Event    string `json:"event"`
		Colour1  string `json:"colour1"`
		Colour2  string `json:"colour2"`
		Override bool   `json:"override"`
		Verbose  bool   `json:"verbose"`
	} `json:"pgn"`

	Live struct {
		Addr string `json:"addr"`
	} `json:"live"`

	Options map[string]string `json:"options"`

	Engines []struct {
		Name       string            `json:"name"`
		Path       string            `json:"path"`
		Protocol   string            `json:"protocol"`
		Parameters string            `json:"parameters"`
		Options    map[string]string `json:"options"`
	} `json:"engines"`
}

// Load reads and parses a match configuration from path, applying the same
// defaults and validation settings.cpp's get_settings does: at least two
// engines, a non-empty openings path, and Generic-game engines restricted
// to the UGI dialect. Parsing uses encoding/json rather than a
// reflection-free scanner because the document shape (nested objects,
// optional fields) is exactly what the standard decoder is for; no library
// in the retrieved pack offers a JSON decoder with different behaviour
// worth preferring over it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("orchestrator: read %v: %w", path, err)
	}

	var raw rawConfig
	raw.Concurrency = 1
	raw.RatingInterval = 10
	raw.Recover = true
	raw.Openings.Repeat = true
	raw.SPRT.Alpha = 0.05
	raw.SPRT.Beta = 0.05
	raw.SPRT.Elo1 = 5
	raw.PGN.Path = "games.pgn"
	raw.PGN.Event = "*"
	raw.PGN.Colour1 = "white"
	raw.PGN.Colour2 = "black"
	raw.Games = 1

	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("orchestrator: parse %v: %w", path, err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func fromRaw(raw rawConfig) (Config, error) {
	cfg := Config{
		Games:          raw.Games,
		Game:           adapter.Game(raw.Game),
		Concurrency:    raw.Concurrency,
		RatingInterval: raw.RatingInterval,
		Debug:          raw.Debug,
		Verbose:        raw.Verbose,
		Recover:        raw.Recover,
		Tournament:     RoundRobin,

		OpeningsPath:    raw.Openings.Path,
		OpeningsRepeat:  raw.Openings.Repeat,
		OpeningsShuffle: raw.Openings.Shuffle,

		LiveAddr: raw.Live.Addr,
		Options:  raw.Options,
	}

	switch raw.Tournament {
	case "", "roundrobin":
		cfg.Tournament = RoundRobin
	case "gauntlet":
		cfg.Tournament = Gauntlet
	default:
		return Config{}, fmt.Errorf("orchestrator: unrecognised tournament type %q", raw.Tournament)
	}

	cfg.Protocol.AskTurn = raw.Protocol.AskTurn
	switch raw.Protocol.Gameover {
	case "", "tomove":
		cfg.Protocol.GameoverQuery = play.ToMoveOnly
	case "both":
		cfg.Protocol.GameoverQuery = play.BothSides
	default:
		return Config{}, fmt.Errorf("orchestrator: unrecognised protocol.gameover %q", raw.Protocol.Gameover)
	}

	cfg.Adjudication.TimeoutBufferMS = raw.Adjudication.TimeoutBuffer
	cfg.Adjudication.MaxFullMoves = raw.Adjudication.MaxFullMoves

	switch raw.TimeControl.Type {
	case "clock":
		cfg.TimeControl = protocol.SearchSettings{
			Type:   protocol.Time,
			P1Time: raw.TimeControl.Time, P2Time: raw.TimeControl.Time,
			P1Inc: raw.TimeControl.Increment, P2Inc: raw.TimeControl.Increment,
		}
	case "movetime":
		cfg.TimeControl = protocol.SearchSettings{Type: protocol.MoveTime, MoveTimeMS: raw.TimeControl.Time}
	case "nodes":
		cfg.TimeControl = protocol.SearchSettings{Type: protocol.Nodes, NodeCount: raw.TimeControl.Nodes}
	case "depth", "":
		cfg.TimeControl = protocol.SearchSettings{Type: protocol.Depth, Plies: raw.TimeControl.Ply}
	default:
		return Config{}, fmt.Errorf("orchestrator: unrecognised timecontrol.type %q", raw.TimeControl.Type)
	}

	cfg.SPRT = SPRTConfig{
		Enabled: raw.SPRT.Enabled,
		Alpha:   raw.SPRT.Alpha,
		Beta:    raw.SPRT.Beta,
		Elo0:    raw.SPRT.Elo0,
		Elo1:    raw.SPRT.Elo1,
	}
	if raw.SPRT.Confidence != nil {
		cfg.SPRT.Alpha = 1 - *raw.SPRT.Confidence
		cfg.SPRT.Beta = 1 - *raw.SPRT.Confidence
	}

	cfg.PGN = pgn.Settings{
		Enabled:  raw.PGN.Enabled,
		Path:     raw.PGN.Path,
		Event:    raw.PGN.Event,
		Colour1:  raw.PGN.Colour1,
		Colour2:  raw.PGN.Colour2,
		Override: raw.PGN.Override,
		Verbose:  raw.PGN.Verbose,
	}

	if cfg.OpeningsPath == "" {
		return Config{}, fmt.Errorf("orchestrator: configuration must include an \"openings\" path")
	}
	if len(raw.Engines) < 2 {
		return Config{}, fmt.Errorf("orchestrator: configuration must include at least two engines")
	}

	cfg.Engines = make([]EngineSpec, len(raw.Engines))
	for i, e := range raw.Engines {
		options := make(map[string]string, len(cfg.Options)+len(e.Options))
		for k, v := range cfg.Options {
			options[k] = v
		}
		for k, v := range e.Options {
			options[k] = v
		}

		dialect := protocol.Dialect(strings.ToLower(e.Protocol))
		if dialect == "" {
			dialect = protocol.UGI
		}
		if cfg.Game == adapter.Generic && dialect != protocol.UGI {
			return Config{}, fmt.Errorf("orchestrator: generic game mode requires the ugi protocol, engine %q requested %q", e.Name, e.Protocol)
		}
		if !dialect.Valid() {
			return Config{}, fmt.Errorf("orchestrator: engine %q: unrecognised protocol %q", e.Name, e.Protocol)
		}

		cfg.Engines[i] = EngineSpec{
			Name:       e.Name,
			Path:       e.Path,
			Protocol:   dialect,
			Parameters: e.Parameters,
			Options:    options,
		}
	}

	cfg.StoreSize = 2 * cfg.Concurrency
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
		cfg.StoreSize = 2
	}

	return cfg, nil
}

// LoadOpenings reads one FEN (or "startpos") per non-empty, non-comment
// line from path, optionally shuffling the result, grounded in
// original_source/src/match/openings.cpp's get_openings.
func LoadOpenings(path string, shuffle bool, rng func(n int) []int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read openings %v: %w", path, err)
	}

	var openings []string
	for _, line := range splitLines(string(data)) {
		if line == "" || line[0] == '#' {
			continue
		}
		openings = append(openings, line)
	}

	if len(openings) == 0 {
		return nil, fmt.Errorf("orchestrator: no opening positions found in %v", path)
	}

	if shuffle && rng != nil {
		perm := rng(len(openings))
		shuffled := make([]string, len(openings))
		for i, p := range perm {
			shuffled[i] = openings[p]
		}
		openings = shuffled
	}

	return openings, nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, trimCR(s[start:i]))
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, trimCR(s[start:]))
	}
	return lines
}

func trimCR(s string) string {
	if len(s) > 0 && s[len(s)-1] == '\r' {
		return s[:len(s)-1]
	}
	return s
}

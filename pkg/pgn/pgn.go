// Package pgn implements the record-file writer described in §6: a
// tag-value header block followed by move tokens, appended to a single
// file shared across every finished game. Grounded in
// original_source/src/match/pgn.cpp's write_as_pgn and pgn.hpp's
// PGNSettings.
package pgn

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/herohde/arbiter/pkg/adapter"
	"github.com/herohde/arbiter/pkg/events"
)

// Settings configures the writer, mirroring pgn.hpp's PGNSettings.
type Settings struct {
	Enabled  bool
	Path     string
	Event    string
	Colour1  string
	Colour2  string
	Override bool
	Verbose  bool
}

// Record is everything write_as_pgn needs about one finished game: the two
// participants' display names, the position and moves actually played, and
// the terminal verdict. Its fields mirror exactly what GameFinishedPayload
// already carries, so callers build one straight from that event rather
// than from a live GameAdapter.
type Record struct {
	Player1, Player2 string
	StartFEN         string
	Moves            []string
	FirstMover       adapter.Side
	Result           adapter.Result
	Reason           events.Reason
}

// Writer appends Records to a single file under a mutex, since every
// worker shares one record file (§6, §5's print-mutex-style shared
// resource policy). Grounded in write_as_pgn opening its ofstream in
// append mode on every call rather than holding a file handle open.
type Writer struct {
	settings Settings

	mu       sync.Mutex
	truncate bool
}

// New constructs a Writer for settings. If settings.Override is set, the
// first Write call truncates any existing file at settings.Path instead of
// appending to it, mirroring a fresh run overwriting a stale record file.
func New(settings Settings) *Writer {
	return &Writer{settings: settings, truncate: settings.Override}
}

// Write appends r's record-file block to the writer's path. It is a no-op
// if the writer is disabled.
func (w *Writer) Write(r Record) error {
	if !w.settings.Enabled {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if w.truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		w.truncate = false
	}

	f, err := os.OpenFile(w.settings.Path, flags, 0644)
	if err != nil {
		return fmt.Errorf("pgn: open %v: %w", w.settings.Path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(render(w.settings, r)); err != nil {
		return fmt.Errorf("pgn: write %v: %w", w.settings.Path, err)
	}
	return nil
}

func render(settings Settings, r Record) string {
	var b strings.Builder

	moves := r.Moves

	fmt.Fprintf(&b, "[Event \"%v\"]\n", settings.Event)
	fmt.Fprintf(&b, "[Site \"arbiter\"]\n")
	fmt.Fprintf(&b, "[Date \"??\"]\n")
	fmt.Fprintf(&b, "[Round \"1\"]\n")
	fmt.Fprintf(&b, "[%v \"%v\"]\n", settings.Colour1, r.Player1)
	fmt.Fprintf(&b, "[%v \"%v\"]\n", settings.Colour2, r.Player2)
	fmt.Fprintf(&b, "[Result \"%v\"]\n", resultString(r.Result))
	fmt.Fprintf(&b, "[FEN \"%v\"]\n", r.StartFEN)
	if r.Reason != events.NoReason {
		fmt.Fprintf(&b, "[Adjudicated \"%v\"]\n", reasonString(r.Reason))
	}
	switch r.Result {
	case adapter.Player1Win:
		fmt.Fprintf(&b, "[Winner \"%v\"]\n", r.Player1)
		fmt.Fprintf(&b, "[Loser \"%v\"]\n", r.Player2)
	case adapter.Player2Win:
		fmt.Fprintf(&b, "[Winner \"%v\"]\n", r.Player2)
		fmt.Fprintf(&b, "[Loser \"%v\"]\n", r.Player1)
	}
	fmt.Fprintf(&b, "[PlyCount \"%v\"]\n\n", len(moves))

	ply := 0
	if r.FirstMover == adapter.Player2 {
		b.WriteString("1... ")
		ply++
	}
	for _, mv := range moves {
		if ply%2 == 0 {
			fmt.Fprintf(&b, "%v. ", ply/2+1)
		}
		b.WriteString(mv)
		b.WriteString(" ")
		ply++
	}
	b.WriteString(resultString(r.Result))
	b.WriteString("\n\n\n")

	return b.String()
}

// resultString maps a Result to its PGN result tag, matching
// pgn.cpp's result_string.
func resultString(r adapter.Result) string {
	switch r {
	case adapter.Player1Win:
		return "1-0"
	case adapter.Player2Win:
		return "0-1"
	case adapter.Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// reasonString maps a Reason to a human-readable adjudication tag value,
// matching pgn.cpp's adjudication_string over the Reason vocabulary this
// repository actually uses (events.Reason, not AdjudicationReason).
func reasonString(reason events.Reason) string {
	switch reason {
	case events.Timeout:
		return "Out of time"
	case events.Gamelength:
		return "Maximum game length"
	case events.Crash:
		return "Crashed"
	case events.GameoverMismatch:
		return "Gameover mismatch"
	case events.ResultMismatch:
		return "Result mismatch"
	default:
		return "*"
	}
}

package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// NullMove is the default move reported on protocol failure or an unknown
// search type (§4.2).
const NullMove = "0000"

// QueryKind is one of the `query` request kinds (§4.2).
type QueryKind string

const (
	QueryP1Turn   QueryKind = "p1turn"
	QueryGameover QueryKind = "gameover"
	QueryResult   QueryKind = "result"
)

// SearchType tags which SearchSettings variant is in play (§3).
type SearchType int

const (
	Time SearchType = iota
	MoveTime
	Depth
	Nodes
)

// SearchSettings is the tagged time/search-budget variant passed to `go`.
// Only the fields relevant to Type are meaningful; the rest are ignored.
type SearchSettings struct {
	Type SearchType

	// Time fields: remaining clocks and increments, in milliseconds.
	P1Time, P2Time, P1Inc, P2Inc int
	// MoveTime: fixed think time, in milliseconds.
	MoveTimeMS int
	// Depth: ply limit.
	Plies int
	// Nodes: node-count limit.
	NodeCount int
}

func (s SearchSettings) String() string {
	switch s.Type {
	case Time:
		return fmt.Sprintf("time[p1=%vms p2=%vms p1inc=%vms p2inc=%vms]", s.P1Time, s.P2Time, s.P1Inc, s.P2Inc)
	case MoveTime:
		return fmt.Sprintf("movetime[%vms]", s.MoveTimeMS)
	case Depth:
		return fmt.Sprintf("depth[%v]", s.Plies)
	case Nodes:
		return fmt.Sprintf("nodes[%v]", s.NodeCount)
	default:
		return "unknown"
	}
}

// EngineSession wraps an EngineProcess and implements the fixed sequence of
// protocol operations an engine understands (§4.2). A session is owned
// exclusively by at most one worker at a time (§3); the session itself does
// not enforce this, callers (EngineStore, GamePlayer) do by construction.
type EngineSession struct {
	SpecID  int // the owning EngineSpec's dense index, for §3's identity requirement
	dialect Dialect
	proc    *EngineProcess
}

// NewSession wraps proc for the given dialect. specID identifies the
// EngineSpec this session was created from, for EngineStore lookups.
func NewSession(specID int, dialect Dialect, proc *EngineProcess) (*EngineSession, error) {
	if !dialect.Valid() {
		return nil, fmt.Errorf("protocol: unknown dialect %q", dialect)
	}
	return &EngineSession{SpecID: specID, dialect: dialect, proc: proc}, nil
}

// Dialect returns the session's protocol dialect.
func (s *EngineSession) Dialect() Dialect {
	return s.dialect
}

// Alive reports whether the underlying process is believed still running.
func (s *EngineSession) Alive() bool {
	return s.proc.IsAlive()
}

// Init performs the `{dialect}` / `{dialect}ok` handshake.
func (s *EngineSession) Init() error {
	if err := s.proc.Send(s.dialect.initCommand()); err != nil {
		return err
	}
	ok := s.dialect.initOK()
	_, err := s.proc.RecvUntil(func(line string) bool { return line == ok })
	return err
}

// IsReady sends `isready` and waits for `readyok`.
func (s *EngineSession) IsReady() error {
	if err := s.proc.Send("isready"); err != nil {
		return err
	}
	_, err := s.proc.RecvUntil(func(line string) bool { return line == "readyok" })
	return err
}

// NewGame sends `{dialect}newgame`. No response is awaited.
func (s *EngineSession) NewGame() error {
	return s.proc.Send(s.dialect.newGameCommand())
}

// SetOption sends `setoption name <n> value <v>`. No response is awaited.
func (s *EngineSession) SetOption(name, value string) error {
	return s.proc.Send(fmt.Sprintf("setoption name %v value %v", name, value))
}

// Position sends `position (startpos | fen <F>) [moves m1 m2 ...]`. No
// response is awaited. start is either "startpos" or a FEN-like string.
func (s *EngineSession) Position(start string, moves []string) error {
	var b strings.Builder
	b.WriteString("position ")
	if start == "" || start == "startpos" {
		b.WriteString("startpos")
	} else {
		b.WriteString("fen ")
		b.WriteString(start)
	}
	if len(moves) > 0 {
		b.WriteString(" moves ")
		b.WriteString(strings.Join(moves, " "))
	}
	return s.proc.Send(b.String())
}

// Go sends the `go ...` command for the given search variant and returns
// the move reported by `bestmove <move>`. On any protocol failure or an
// unrecognised SearchType, it returns NullMove and the error.
func (s *EngineSession) Go(settings SearchSettings) (string, error) {
	line, err := s.goCommand(settings)
	if err != nil {
		return NullMove, err
	}
	if err := s.proc.Send(line); err != nil {
		return NullMove, err
	}

	resp, err := s.proc.RecvUntil(func(l string) bool { return strings.HasPrefix(l, "bestmove ") })
	if err != nil {
		return NullMove, err
	}

	parts := strings.Fields(resp)
	if len(parts) < 2 {
		return NullMove, fmt.Errorf("protocol: malformed bestmove line %q", resp)
	}
	return parts[1], nil
}

func (s *EngineSession) goCommand(settings SearchSettings) (string, error) {
	switch settings.Type {
	case Time:
		kw, err := s.dialect.clockKeywords()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("go %v %v %v %v %v %v %v %v",
			kw[0], settings.P1Time, kw[1], settings.P2Time, kw[2], settings.P1Inc, kw[3], settings.P2Inc), nil
	case MoveTime:
		return fmt.Sprintf("go movetime %v", settings.MoveTimeMS), nil
	case Depth:
		return fmt.Sprintf("go depth %v", settings.Plies), nil
	case Nodes:
		return fmt.Sprintf("go nodes %v", settings.NodeCount), nil
	default:
		return "", fmt.Errorf("protocol: unknown search type %v", settings.Type)
	}
}

// Query sends `query <kind>` and returns the second token of the
// `response <x>` line.
func (s *EngineSession) Query(kind QueryKind) (string, error) {
	if err := s.proc.Send(fmt.Sprintf("query %v", kind)); err != nil {
		return "", err
	}
	resp, err := s.proc.RecvUntil(func(l string) bool { return strings.HasPrefix(l, "response ") })
	if err != nil {
		return "", err
	}
	parts := strings.Fields(resp)
	if len(parts) < 2 {
		return "", fmt.Errorf("protocol: malformed response line %q", resp)
	}
	return parts[1], nil
}

// QueryBool sends a boolean query (p1turn or gameover) and parses the
// "true"/"false" response.
func (s *EngineSession) QueryBool(kind QueryKind) (bool, error) {
	resp, err := s.Query(kind)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(resp)
}

// QueryResult sends the `result` query and returns one of p1win, p2win,
// draw, or none verbatim.
func (s *EngineSession) QueryResult() (string, error) {
	return s.Query(QueryResult)
}

// Quit sends `quit` on a best-effort basis and closes the underlying
// process. Errors sending quit are ignored: a crashed engine cannot be
// quit cleanly, and that is not itself a failure of Quit.
func (s *EngineSession) Quit() error {
	_ = s.proc.Send("quit")
	return s.proc.Close()
}

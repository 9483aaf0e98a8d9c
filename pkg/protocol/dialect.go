// Package protocol implements the subprocess line protocol used to drive a
// game-playing engine: spawn it, speak a fixed request/response sequence
// over its stdin/stdout, and reap it on shutdown.
package protocol

import "fmt"

// Dialect is one of the line-protocol variants an engine may speak. The
// three dialects differ only in reserved keywords (§6): the init handshake
// token, the new-game token, and the clock keywords used by the Time search
// variant.
type Dialect string

const (
	UGI Dialect = "ugi"
	UAI Dialect = "uai"
	UCI Dialect = "uci"
)

// clockKeywords names the four clock tokens sent with a Time search, in
// {player1, player2, player1-increment, player2-increment} order. UGI keeps
// the protocol-neutral p1/p2 naming; UCI and UAI rename them to white/black,
// with the player1<->color mapping fixed per dialect (§9(a)).
var clockKeywords = map[Dialect][4]string{
	UGI: {"p1time", "p2time", "p1inc", "p2inc"},
	UCI: {"wtime", "btime", "winc", "binc"}, // player1 == white
	UAI: {"btime", "wtime", "binc", "winc"}, // player1 == black
}

func (d Dialect) initCommand() string {
	return string(d)
}

func (d Dialect) initOK() string {
	return string(d) + "ok"
}

func (d Dialect) newGameCommand() string {
	return string(d) + "newgame"
}

func (d Dialect) clockKeywords() ([4]string, error) {
	kw, ok := clockKeywords[d]
	if !ok {
		return [4]string{}, fmt.Errorf("protocol: unknown dialect %q", d)
	}
	return kw, nil
}

// Valid reports whether d is one of the recognised dialects.
func (d Dialect) Valid() bool {
	_, ok := clockKeywords[d]
	return ok
}

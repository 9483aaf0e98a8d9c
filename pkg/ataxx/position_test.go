package ataxx_test

import (
	"testing"

	"github.com/herohde/arbiter/pkg/ataxx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFEN_startpos(t *testing.T) {
	pos, err := ataxx.ParseFEN("startpos")
	require.NoError(t, err)
	assert.Equal(t, ataxx.Black, pos.Turn())
	assert.Equal(t, 0, pos.HalfmoveClock())
	assert.Equal(t, 1, pos.FullmoveNumber())
	assert.Equal(t, "x5o/7/7/7/7/7/o5x x 0 1", pos.FEN())
}

func TestParseFEN_roundtrip(t *testing.T) {
	tests := []string{
		"x5o/7/7/7/7/7/o5x x 0 1",
		"x5o/7/7/7/7/7/o5x o 0 1",
		"x5o/7/2-1-2/7/2-1-2/7/o5x x 0 1",
		"x5o/7/2-1-2/3-3/2-1-2/7/o5x o 0 1",
		"7/7/7/7/ooooooo/ooooooo/xxxxxxx x 0 1",
		"7/7/7/7/xxxxxxx/xxxxxxx/ooooooo o 0 1",
		"7/7/7/2x1o2/7/7/7 x 0 1",
		"7/7/7/7/-------/-------/x5o o 0 1",
	}
	for _, fen := range tests {
		pos, err := ataxx.ParseFEN(fen)
		require.NoError(t, err, fen)
		assert.Equal(t, fen, pos.FEN())
	}
}

func TestIsGameOver_domination(t *testing.T) {
	tests := []struct {
		fen    string
		result ataxx.Outcome
	}{
		{"xxxxx1o/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx x 0 1", ataxx.BlackWin},
		{"xxxxx1o/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx/xxxxxxx o 99 1", ataxx.BlackWin},
		{"ooooo1x/ooooooo/ooooooo/ooooooo/ooooooo/ooooooo/ooooooo x 0 1", ataxx.WhiteWin},
		{"ooooo1x/ooooooo/ooooooo/ooooooo/ooooooo/ooooooo/ooooooo o 99 1", ataxx.WhiteWin},
	}
	for _, test := range tests {
		pos, err := ataxx.ParseFEN(test.fen)
		require.NoError(t, err, test.fen)
		assert.True(t, pos.IsGameOver(), test.fen)
		assert.Equal(t, test.result, pos.Result(), test.fen)
	}
}

func TestIsGameOver_noProgress(t *testing.T) {
	pos, err := ataxx.ParseFEN("x5o/7/7/7/7/7/o5x x 99 1")
	require.NoError(t, err)
	assert.False(t, pos.IsGameOver())

	pos, err = ataxx.ParseFEN("x5o/7/7/7/7/7/o5x x 100 1")
	require.NoError(t, err)
	assert.True(t, pos.IsGameOver())
	assert.Equal(t, ataxx.Draw, pos.Result())
}

func TestMove_cloneCaptures(t *testing.T) {
	// x at a1, o at b1 and d1. x clones to b2, which is adjacent to b1 (captured)
	// but not to d1 (two files away, untouched).
	pos, err := ataxx.ParseFEN("7/7/7/7/7/7/xo1o3 x 0 1")
	require.NoError(t, err)

	m, err := ataxx.ParseMove("b2")
	require.NoError(t, err)
	require.True(t, pos.IsLegalMove(m))

	next, err := pos.Move(m)
	require.NoError(t, err)

	assert.Equal(t, ataxx.White, next.Turn())
	color, ok := next.Square(mustSquare(t, "a1"))
	require.True(t, ok)
	assert.Equal(t, ataxx.Black, color)

	color, ok = next.Square(mustSquare(t, "b1"))
	require.True(t, ok)
	assert.Equal(t, ataxx.Black, color, "adjacent enemy piece should flip")

	color, ok = next.Square(mustSquare(t, "d1"))
	require.True(t, ok)
	assert.Equal(t, ataxx.White, color, "non-adjacent enemy piece is untouched")

	assert.Equal(t, 0, next.HalfmoveClock(), "a clone always resets the no-progress clock")
}

func TestMove_jumpVacatesOrigin(t *testing.T) {
	pos, err := ataxx.ParseFEN("7/7/7/7/7/7/x5o x 0 1")
	require.NoError(t, err)

	m, err := ataxx.ParseMove("a1c1")
	require.NoError(t, err)
	require.True(t, pos.IsLegalMove(m))

	next, err := pos.Move(m)
	require.NoError(t, err)

	assert.True(t, next.IsEmpty(mustSquare(t, "a1")))
	color, ok := next.Square(mustSquare(t, "c1"))
	require.True(t, ok)
	assert.Equal(t, ataxx.Black, color)
}

func TestMove_rejectsOccupiedDestination(t *testing.T) {
	pos, err := ataxx.ParseFEN("7/7/7/7/7/7/xo5 x 0 1")
	require.NoError(t, err)

	m := ataxx.Move{Type: ataxx.Clone, To: mustSquare(t, "b1")}
	_, err = pos.Move(m)
	assert.Error(t, err)
}

func mustSquare(t *testing.T, s string) ataxx.Square {
	t.Helper()
	runes := []rune(s)
	sq, ok := ataxx.ParseSquare(runes[0], runes[1])
	require.True(t, ok)
	return sq
}

package ataxx

import (
	"fmt"
	"strconv"
	"strings"
)

// startFEN is the Ataxx starting position: one piece for each side in
// opposite corners, board otherwise empty, Black (p1) to move.
const startFEN = "x5o/7/7/7/7/7/o5x x 0 1"

// ParseFEN parses an Ataxx FEN string, or the alias "startpos". A FEN has
// four space-separated fields: the board (ranks 7 to 1, '/'-separated,
// digits for runs of empty squares, '-' for a permanently blocked gap),
// the side to move ('x' or 'o'), the no-progress halfmove clock, and the
// fullmove number.
func ParseFEN(s string) (*Position, error) {
	if s == "startpos" {
		s = startFEN
	}

	fields := strings.Fields(s)
	if len(fields) != 4 {
		return nil, fmt.Errorf("ataxx: invalid fen: %q", s)
	}

	var black, white, blocked Bitboard
	rows := strings.Split(fields[0], "/")
	if len(rows) != int(NumRanks) {
		return nil, fmt.Errorf("ataxx: invalid fen board: %q", fields[0])
	}

	for i, row := range rows {
		r := Rank(int(NumRanks) - 1 - i)
		f := FileA
		for _, ch := range row {
			if !f.IsValid() {
				return nil, fmt.Errorf("ataxx: invalid fen row: %q", row)
			}
			switch {
			case ch >= '1' && ch <= '7':
				f += File(ch - '0')
			case ch == 'x' || ch == 'X':
				black |= BitMask(NewSquare(f, r))
				f++
			case ch == 'o' || ch == 'O':
				white |= BitMask(NewSquare(f, r))
				f++
			case ch == '-':
				blocked |= BitMask(NewSquare(f, r))
				f++
			default:
				return nil, fmt.Errorf("ataxx: invalid fen square: %q", string(ch))
			}
		}
	}

	turn, ok := ParseColor([]rune(fields[1])[0])
	if !ok {
		return nil, fmt.Errorf("ataxx: invalid fen turn: %q", fields[1])
	}
	halfmove, err := strconv.Atoi(fields[2])
	if err != nil {
		return nil, fmt.Errorf("ataxx: invalid fen halfmove: %w", err)
	}
	fullmove, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("ataxx: invalid fen fullmove: %w", err)
	}

	return NewPosition(black, white, blocked, turn, halfmove, fullmove)
}

// FEN encodes p in Ataxx FEN notation.
func (p *Position) FEN() string {
	var sb strings.Builder
	for i := 0; i < int(NumRanks); i++ {
		r := Rank(int(NumRanks) - 1 - i)
		if i > 0 {
			sb.WriteByte('/')
		}

		empty := 0
		flush := func() {
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
		}
		for f := FileA; f < NumFiles; f++ {
			sq := NewSquare(f, r)
			switch {
			case p.pieces[Black].IsSet(sq):
				flush()
				sb.WriteByte('x')
			case p.pieces[White].IsSet(sq):
				flush()
				sb.WriteByte('o')
			case p.blocked.IsSet(sq):
				flush()
				sb.WriteByte('-')
			default:
				empty++
			}
		}
		flush()
	}

	fmt.Fprintf(&sb, " %v %v %v", p.turn, p.halfmove, p.fullmove)
	return sb.String()
}

func (p *Position) String() string { return p.FEN() }

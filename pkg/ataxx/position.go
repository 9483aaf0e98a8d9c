package ataxx

import "fmt"

// noProgressLimit is the halfmove clock value at or beyond which a game is
// adjudicated a draw for lack of progress, mirroring libataxx::Position's
// 100-ply cutoff.
const noProgressLimit = 100

// Position represents a 7x7 Ataxx position: which squares are held by each
// color, which are permanently blocked gaps, whose turn it is, and the
// no-progress/move counters carried in its FEN.
type Position struct {
	pieces   [NumColors]Bitboard
	blocked  Bitboard
	turn     Color
	halfmove int
	fullmove int
}

// NewPosition builds a Position from raw bitboards. The three boards must be
// pairwise disjoint.
func NewPosition(black, white, blocked Bitboard, turn Color, halfmove, fullmove int) (*Position, error) {
	if black&white != 0 || black&blocked != 0 || white&blocked != 0 {
		return nil, fmt.Errorf("ataxx: overlapping squares in position")
	}
	if !turn.IsValid() {
		return nil, fmt.Errorf("ataxx: invalid turn: %v", turn)
	}

	return &Position{
		pieces:   [NumColors]Bitboard{Black: black, White: white},
		blocked:  blocked,
		turn:     turn,
		halfmove: halfmove,
		fullmove: fullmove,
	}, nil
}

func (p *Position) Turn() Color           { return p.turn }
func (p *Position) HalfmoveClock() int    { return p.halfmove }
func (p *Position) FullmoveNumber() int   { return p.fullmove }
func (p *Position) Pieces(c Color) Bitboard { return p.pieces[c] }
func (p *Position) Blocked() Bitboard     { return p.blocked }

func (p *Position) occupied() Bitboard { return p.pieces[Black] | p.pieces[White] | p.blocked }

func (p *Position) emptySquares() Bitboard { return FullBoard &^ p.occupied() }

func (p *Position) IsEmpty(sq Square) bool { return p.emptySquares().IsSet(sq) }

// Square returns the occupant color of sq, if a piece (not a blocked gap) sits there.
func (p *Position) Square(sq Square) (Color, bool) {
	if p.pieces[Black].IsSet(sq) {
		return Black, true
	}
	if p.pieces[White].IsSet(sq) {
		return White, true
	}
	return 0, false
}

// PseudoLegalMoves returns every move for c. Ataxx has no pin or check
// concept, so every pseudo-legal move here is also fully legal.
func (p *Position) PseudoLegalMoves(c Color) []Move {
	var ret []Move

	empty := p.emptySquares()
	origin := p.pieces[c]
	for origin != 0 {
		from := origin.LastPopSquare()
		origin &^= BitMask(from)

		for bb := CloneAttackboard(from) & empty; bb != 0; {
			to := bb.LastPopSquare()
			bb &^= BitMask(to)
			ret = append(ret, Move{Type: Clone, To: to})
		}
		for bb := JumpAttackboard(from) & empty; bb != 0; {
			to := bb.LastPopSquare()
			bb &^= BitMask(to)
			ret = append(ret, Move{Type: Jump, From: from, To: to})
		}
	}
	return ret
}

// IsLegalMove reports whether m is a legal move for the side to move.
func (p *Position) IsLegalMove(m Move) bool {
	for _, cand := range p.PseudoLegalMoves(p.turn) {
		if cand.Equals(m) {
			return true
		}
	}
	return false
}

// IsGameOver reports whether the game has ended: one side has been wiped
// out, the board is full, the no-progress clock has expired, or neither
// side has a legal move.
func (p *Position) IsGameOver() bool {
	if p.halfmove >= noProgressLimit {
		return true
	}
	if p.pieces[Black] == 0 || p.pieces[White] == 0 {
		return true
	}
	if p.occupied() == FullBoard {
		return true
	}
	if len(p.PseudoLegalMoves(Black)) == 0 && len(p.PseudoLegalMoves(White)) == 0 {
		return true
	}
	return false
}

// Result returns the decided outcome, or Undecided if the game is ongoing.
// The winner is whoever holds more pieces once the game ends.
func (p *Position) Result() Outcome {
	if !p.IsGameOver() {
		return Undecided
	}

	bc, wc := p.pieces[Black].PopCount(), p.pieces[White].PopCount()
	switch {
	case bc > wc:
		return BlackWin
	case wc > bc:
		return WhiteWin
	default:
		return Draw
	}
}

// Move applies m, played by the side to move, and returns the resulting
// position. A clone move duplicates the piece onto To; a jump move vacates
// From. Either way, every enemy piece adjacent to To is flipped to the
// mover's color.
func (p *Position) Move(m Move) (*Position, error) {
	c := p.turn

	if !p.emptySquares().IsSet(m.To) {
		return nil, fmt.Errorf("ataxx: square occupied: %v", m.To)
	}
	if m.Type == Jump {
		if from, ok := p.Square(m.From); !ok || from != c {
			return nil, fmt.Errorf("ataxx: no %v piece at %v", c, m.From)
		}
	}

	next := *p
	if m.Type == Jump {
		next.pieces[c] &^= BitMask(m.From)
	}
	next.pieces[c] |= BitMask(m.To)

	captured := CloneAttackboard(m.To) & next.pieces[c.Opponent()]
	next.pieces[c.Opponent()] &^= captured
	next.pieces[c] |= captured

	if captured != 0 || m.Type == Clone {
		next.halfmove = 0
	} else {
		next.halfmove++
	}

	next.turn = c.Opponent()
	if c == White {
		next.fullmove++
	}

	return &next, nil
}

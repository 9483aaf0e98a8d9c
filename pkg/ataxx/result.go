package ataxx

// Outcome represents the decided outcome of an Ataxx game, if any. Unlike
// chess, an Ataxx game never ends in checkmate or stalemate; it ends on
// domination (one side has no pieces left), board exhaustion, or a
// no-progress count, and the winner is whoever holds more pieces.
type Outcome uint8

const (
	Undecided Outcome = iota
	BlackWin
	WhiteWin
	Draw
)

func (o Outcome) String() string {
	switch o {
	case BlackWin:
		return "p1win"
	case WhiteWin:
		return "p2win"
	case Draw:
		return "draw"
	default:
		return "none"
	}
}

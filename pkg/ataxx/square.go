package ataxx

import "fmt"

// Square identifies one of the 49 squares of a 7x7 Ataxx board. Unlike the
// chess package's reversed-file numbering, squares here run rank-major in
// natural reading order: Square = rank*7 + file. Bit 0 is A1, bit 48 is G7.
type Square int8

const (
	ZeroSquare Square = 0
	NumSquares Square = 49
)

// File is a board column, A through G.
type File int8

const (
	FileA File = iota
	FileB
	FileC
	FileD
	FileE
	FileF
	FileG
	NumFiles
)

// Rank is a board row, 1 through 7.
type Rank int8

const (
	Rank1 Rank = iota
	Rank2
	Rank3
	Rank4
	Rank5
	Rank6
	Rank7
	NumRanks
)

func NewSquare(f File, r Rank) Square {
	return Square(int8(r)*int8(NumFiles) + int8(f))
}

func (s Square) File() File { return File(int8(s) % int8(NumFiles)) }
func (s Square) Rank() Rank { return Rank(int8(s) / int8(NumFiles)) }

func (f File) IsValid() bool { return f >= FileA && f < NumFiles }
func (r Rank) IsValid() bool { return r >= Rank1 && r < NumRanks }
func (s Square) IsValid() bool { return s >= ZeroSquare && s < NumSquares }

// ParseSquare parses a square from its file and rank runes, e.g. ('c', '3').
func ParseSquare(file, rank rune) (Square, bool) {
	f := File(file - 'a')
	r := Rank(rank - '1')
	if !f.IsValid() || !r.IsValid() {
		return ZeroSquare, false
	}
	return NewSquare(f, r), true
}

func (f File) String() string { return string(rune('a' + int8(f))) }
func (r Rank) String() string { return string(rune('1' + int8(r))) }

func (s Square) String() string {
	if !s.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%v%v", s.File(), s.Rank())
}

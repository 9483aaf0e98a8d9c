// Package tourney implements TournamentGenerator (§4.5): a restartable,
// single-consumer stream of match Assignments produced eagerly at
// construction time and handed out one at a time under a mutex, mirroring
// the nested pairing loop in original_source/src/main.cpp.
package tourney

import (
	"fmt"
	"sync"
)

// Assignment names one match to be played: which opening, and which
// EngineSpec plays engine1 (first mover) versus engine2.
type Assignment struct {
	GameNumber   int
	OpeningIndex int
	Engine1Index int
	Engine2Index int
}

// ErrExhausted is returned by Next once every assignment has been yielded.
var ErrExhausted = fmt.Errorf("tourney: generator exhausted")

// Generator is a thread-safe, single-consumer stream of Assignments.
type Generator struct {
	mu          sync.Mutex
	assignments []Assignment
	cursor      int
}

// Expected returns the total number of assignments this generator will
// yield.
func (g *Generator) Expected() int {
	return len(g.assignments)
}

// IsFinished reports whether every assignment has already been yielded.
func (g *Generator) IsFinished() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cursor >= len(g.assignments)
}

// Next returns the next Assignment in yield order, or ErrExhausted once the
// stream is empty.
func (g *Generator) Next() (Assignment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cursor >= len(g.assignments) {
		return Assignment{}, ErrExhausted
	}
	a := g.assignments[g.cursor]
	g.cursor++
	return a, nil
}

// NewRoundRobin builds a generator that plays every unordered pair {i, j}
// (i < j) of the numEngines engines, numGames games per pair, cycling
// opening indices modulo numOpenings. When repeat is true, each pair
// alternates (i,j) then (j,i), sharing an opening across the alternating
// pair; when false, every game in the pair is played as (i,j) and the
// opening index advances every game. Total yield = C(numEngines,2) *
// numGames.
func NewRoundRobin(numEngines, numGames, numOpenings int, repeat bool) *Generator {
	gameNumber := 0
	var assignments []Assignment
	for i := 0; i < numEngines; i++ {
		for j := i + 1; j < numEngines; j++ {
			assignments = appendPair(assignments, &gameNumber, i, j, numGames, numOpenings, repeat)
		}
	}
	return &Generator{assignments: assignments}
}

// NewGauntlet builds a generator that pairs engine 0 against each of engines
// 1..numEngines-1, with the same per-pair alternation and opening cycling
// NewRoundRobin uses. Total yield = (numEngines-1) * numGames.
func NewGauntlet(numEngines, numGames, numOpenings int, repeat bool) *Generator {
	gameNumber := 0
	var assignments []Assignment
	for j := 1; j < numEngines; j++ {
		assignments = appendPair(assignments, &gameNumber, 0, j, numGames, numOpenings, repeat)
	}
	return &Generator{assignments: assignments}
}

// appendPair emits numGames assignments for the ordered pair (i, j),
// mirroring main.cpp's per-pair while loop: the opening index advances once
// per loop iteration, and an iteration emits one game (play (i,j)) or, when
// repeat is set and the pair isn't yet full, two games sharing that
// iteration's opening (play (i,j) then (j,i)).
func appendPair(assignments []Assignment, gameNumber *int, i, j, numGames, numOpenings int, repeat bool) []Assignment {
	openingIndex := 0
	played := 0
	for played < numGames {
		opening := openingIndex % numOpenings

		assignments = append(assignments, Assignment{
			GameNumber:   *gameNumber,
			OpeningIndex: opening,
			Engine1Index: i,
			Engine2Index: j,
		})
		*gameNumber++
		played++

		if repeat && played < numGames {
			assignments = append(assignments, Assignment{
				GameNumber:   *gameNumber,
				OpeningIndex: opening,
				Engine1Index: j,
				Engine2Index: i,
			})
			*gameNumber++
			played++
		}

		openingIndex++
	}
	return assignments
}

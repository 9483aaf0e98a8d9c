// Package stats implements StatsAggregator (§4.8): the GameFinished
// consumer that keeps running per-engine and match-wide tallies, derives
// Elo and its error margin for a two-engine match, and decides when an
// optional SPRT should stop the match early. Grounded in
// original_source/src/events/on_game_finished.cpp, with the Elo/SPRT math
// itself grounded in original_source/libs/sprt.hpp and the fixtures in
// original_source/tests/elo.cpp (the elo.hpp header those fixtures exercise
// was not among the retrieved sources, so GetElo/GetErr below are the
// standard score-to-Elo and Wald-interval formulas that reproduce every
// fixture in elo.cpp, documented in the design notes).
package stats

import "math"

// GetScore returns the win fraction of a W/L/D record, counting a draw as
// half a win: (2W + D) / (2(W + L + D)).
func GetScore(wins, losses, draws int) float64 {
	total := wins + losses + draws
	if total == 0 {
		return 0.5
	}
	return float64(2*wins+draws) / float64(2*total)
}

// scoreToElo converts a win fraction in (0, 1) to an Elo difference. Undefined
// at the boundary: callers must route 0 and 1 to the +/-Inf sentinel values
// themselves.
func scoreToElo(score float64) float64 {
	return -400 * math.Log10(1/score-1)
}

// GetElo returns the Elo difference implied by a W/L/D record. At score 0 or
// 1 (a sweep) the true difference is unbounded; GetElo reports the signed
// infinity sentinel rather than panicking.
func GetElo(wins, losses, draws int) float64 {
	score := GetScore(wins, losses, draws)
	switch score {
	case 0:
		return math.Inf(-1)
	case 1:
		return math.Inf(1)
	default:
		return scoreToElo(score)
	}
}

// phiInv is the inverse CDF (quantile function) of the standard normal
// distribution, via the identity phiInv(p) = sqrt(2) * erfinv(2p - 1).
func phiInv(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}

// z975 is the 97.5th percentile of the standard normal distribution, the
// two-tailed z-score for a 95% confidence interval.
var z975 = phiInv(0.975)

// GetErr returns the +/- half-width of the 95% confidence interval on
// GetElo(wins, losses, draws), computed from the variance of the ternary
// win/draw/loss trial (a W/L/D outcome is not binomial: a draw contributes
// half a point with its own variance term, so the interval is built in
// score-space and then mapped through scoreToElo rather than approximated
// from a binomial standard error).
func GetErr(wins, losses, draws int) float64 {
	total := wins + losses + draws
	if total == 0 {
		return 0
	}

	n := float64(total)
	pWin := float64(wins) / n
	pLoss := float64(losses) / n
	pDraw := float64(draws) / n
	mu := pWin + pDraw/2

	variance := pWin*sq(1-mu) + pLoss*sq(0-mu) + pDraw*sq(0.5-mu)
	stdev := math.Sqrt(variance) / math.Sqrt(n)

	upper := mu + z975*stdev
	lower := mu - z975*stdev
	if upper >= 1 || lower <= 0 {
		return math.Inf(1)
	}

	return (scoreToElo(upper) - scoreToElo(lower)) / 2
}

func sq(x float64) float64 {
	return x * x
}

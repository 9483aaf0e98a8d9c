package stats

import "math"

// eloToProbability converts an Elo difference and a draw-Elo into the
// (pwin, pdraw, ploss) triple implied by the logistic model, grounded in
// sprt.hpp's elo_to_probability.
func eloToProbability(elo, drawElo float64) (pwin, pdraw, ploss float64) {
	pwin = 1 / (1 + math.Pow(10, (-elo+drawElo)/400))
	ploss = 1 / (1 + math.Pow(10, (elo+drawElo)/400))
	pdraw = 1 - pwin - ploss
	return pwin, pdraw, ploss
}

// probabilityToElo is the inverse of eloToProbability: given an observed
// (pwin, pdraw, ploss) triple, it returns the Elo difference and draw-Elo
// that would produce it under the logistic model, grounded in sprt.hpp's
// probability_to_elo.
func probabilityToElo(pwin, pdraw, ploss float64) (elo, drawElo float64) {
	elo = 200 * math.Log10(pwin/ploss*(1-ploss)/(1-pwin))
	drawElo = 200 * math.Log10((1-ploss)/ploss*(1-pwin)/pwin)
	return elo, drawElo
}

// clampToOne raises n to 1 when it is less than 1, so a record with zero
// wins, losses, or draws still yields a well-defined log-likelihood ratio.
func clampToOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// GetLLR returns the SPRT log-likelihood ratio of hypothesis H1 (true Elo
// difference elo1) against H0 (true Elo difference elo0), given an observed
// W/L/D record. It reparameterises by the record's own empirical draw-Elo,
// then evaluates each hypothesis's win/draw/loss probabilities at that
// draw-Elo, grounded in sprt.hpp's get_llr.
func GetLLR(wins, losses, draws int, elo0, elo1 float64) float64 {
	w := clampToOne(wins)
	l := clampToOne(losses)
	d := clampToOne(draws)
	total := float64(w + l + d)

	_, drawElo := probabilityToElo(float64(w)/total, float64(d)/total, float64(l)/total)

	p0win, p0draw, p0loss := eloToProbability(elo0, drawElo)
	p1win, p1draw, p1loss := eloToProbability(elo1, drawElo)

	return float64(w)*math.Log(p1win/p0win) +
		float64(l)*math.Log(p1loss/p0loss) +
		float64(d)*math.Log(p1draw/p0draw)
}

// GetLBound returns the SPRT lower (accept-H0) decision boundary for type
// I/II error rates alpha/beta: ln(beta / (1 - alpha)).
func GetLBound(alpha, beta float64) float64 {
	return math.Log(beta / (1 - alpha))
}

// GetUBound returns the SPRT upper (accept-H1) decision boundary for type
// I/II error rates alpha/beta: ln((1 - beta) / alpha).
func GetUBound(alpha, beta float64) float64 {
	return math.Log((1 - beta) / alpha)
}

// ShouldStop reports whether the SPRT bounded by elo0/elo1 and alpha/beta
// has reached a decision given the observed W/L/D record.
func ShouldStop(wins, losses, draws int, elo0, elo1, alpha, beta float64) bool {
	llr := GetLLR(wins, losses, draws, elo0, elo1)
	return llr <= GetLBound(alpha, beta) || llr >= GetUBound(alpha, beta)
}

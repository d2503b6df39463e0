package scoring

import "math"

// Engagement estimate constants.
const (
	engageWeightHeuristic = 0.4
	engageWeightClarity   = 0.3
	engageWeightVerdict   = 0.3
	engageVerdictDivisor  = 100.0

	heuristicWeightBrightness = 0.4
	heuristicWeightContrast   = 0.4
	heuristicWeightAspect     = 0.2
)

// HeuristicScore folds the display-only pixel metrics into one quick
// 0-10 sanity score.
func HeuristicScore(brightness, contrast, aspectFit float64) float64 {
	s := heuristicWeightBrightness*Clamp10(brightness) +
		heuristicWeightContrast*Clamp10(contrast) +
		heuristicWeightAspect*Clamp10(aspectFit)
	return Round1(s)
}

// Engagement predicts engagement potential from the heuristic score,
// visual clarity, and how much the model had to say. A longer verdict
// correlates with a thumbnail worth talking about; the term saturates at
// 10.
func Engagement(heuristicScore, clarity float64, verdict string) float64 {
	verdictSignal := math.Min(float64(len(verdict))/engageVerdictDivisor, 10)
	e := engageWeightHeuristic*Clamp10(heuristicScore) +
		engageWeightClarity*Clamp10(clarity) +
		engageWeightVerdict*verdictSignal
	return Round1(Clamp10(e))
}

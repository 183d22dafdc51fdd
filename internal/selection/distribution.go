package selection

import (
	"math"

	"apcsp-quiz/internal/models"
)

// APExamBigIdeaWeights returns the AP CSP exam weighting of the five big ideas.
func APExamBigIdeaWeights() map[models.BigIdea]float64 {
	return map[models.BigIdea]float64{
		1: 12,
		2: 19,
		3: 32,
		4: 13,
		5: 24,
	}
}

// EvenTypeWeights weights every question type equally.
func EvenTypeWeights() map[models.QuestionType]float64 {
	weights := make(map[models.QuestionType]float64, len(models.QuestionTypes))
	for _, t := range models.QuestionTypes {
		weights[t] = 100 / float64(len(models.QuestionTypes))
	}
	return weights
}

// MixedDifficultyWeights is the difficulty spread of a "mixed" quiz.
func MixedDifficultyWeights() map[models.Difficulty]float64 {
	return map[models.Difficulty]float64{
		models.DifficultyEasy:   30,
		models.DifficultyMedium: 45,
		models.DifficultyHard:   25,
	}
}

// Allocate turns percentage weights into integer counts for total items.
// Weights are scaled to sum to 100 when they do not already, then each
// category gets round(weight*total/100). The counts may miss total by up to
// the number of categories because of rounding; that slack is not corrected.
func Allocate[K comparable](total int, weights map[K]float64) map[K]int {
	counts := make(map[K]int, len(weights))
	sum := 0.0
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	for k := range weights {
		counts[k] = 0
	}
	if sum == 0 || total <= 0 {
		return counts
	}

	scale := 1.0
	if sum != 100 {
		scale = 100 / sum
	}
	for k, w := range weights {
		if w <= 0 {
			continue
		}
		counts[k] = int(math.Round(w * scale * float64(total) / 100))
	}
	return counts
}

// CalculateDistribution allocates total questions on each axis independently.
// The axes are not reconciled with each other; the selector deals with that.
func CalculateDistribution(total int, weights models.Weights) models.Distribution {
	return models.Distribution{
		BigIdeas:      Allocate(total, weights.BigIdeas),
		QuestionTypes: Allocate(total, weights.QuestionTypes),
		Difficulties:  Allocate(total, weights.Difficulties),
	}
}

// AxisSum adds up the counts of one axis.
func AxisSum[K comparable](counts map[K]int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

package engine

import (
	"math"
	"sort"

	"classboard/model"
)

// DefaultPassingThreshold is the percentage at or above which an entry
// counts as passing.
const DefaultPassingThreshold = 60.0

// ComputeStats computes descriptive statistics over an entry set with the
// default passing threshold. An empty set yields zeroed stats, never an
// error: an assignment with no submissions is a normal state.
func ComputeStats(entries []model.ScoreEntry) model.Stats {
	return ComputeStatsThreshold(entries, DefaultPassingThreshold)
}

// ComputeStatsThreshold is ComputeStats with an explicit passing threshold.
func ComputeStatsThreshold(entries []model.ScoreEntry, passingThreshold float64) model.Stats {
	n := len(entries)
	if n == 0 {
		return model.Stats{}
	}

	scores := make([]float64, n)
	var sum float64
	var passed int
	var timeSum float64
	var timed int
	for i, e := range entries {
		scores[i] = e.Score
		sum += e.Score
		if e.Percentage >= passingThreshold {
			passed++
		}
		if e.TimeSpentSeconds > 0 {
			timeSum += float64(e.TimeSpentSeconds)
			timed++
		}
	}
	sort.Float64s(scores)

	mean := sum / float64(n)

	var sqSum float64
	for _, s := range scores {
		d := s - mean
		sqSum += d * d
	}
	// Population variance: the entry set is the whole cohort, not a sample.
	stdDev := math.Sqrt(sqSum / float64(n))

	var median float64
	if n%2 == 1 {
		median = scores[n/2]
	} else {
		median = (scores[n/2-1] + scores[n/2]) / 2
	}

	var avgTime float64
	if timed > 0 {
		avgTime = timeSum / float64(timed)
	}

	return model.Stats{
		TotalParticipants: n,
		AverageScore:      mean,
		HighestScore:      scores[n-1],
		LowestScore:       scores[0],
		MedianScore:       median,
		StandardDeviation: stdDev,
		PassRate:          float64(passed) / float64(n) * 100,
		AverageTime:       avgTime,
	}
}

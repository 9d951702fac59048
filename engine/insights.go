package engine

import (
	"math"
	"sort"

	"classboard/model"
)

// needsHelpThreshold flags struggling students below this percentage.
const needsHelpThreshold = 60.0

// ExtractInsights derives cohort insights from a rank-sorted entry sequence.
// Top performers are the first ceil(n*0.1) entries (minimum 1), struggling
// students the last ceil(n*0.2) entries (minimum 1). All values are copied
// at extraction time.
func ExtractInsights(ranked []model.RankedEntry, stats model.Stats) model.Insights {
	n := len(ranked)
	insights := model.Insights{
		TopPerformers:      []model.StudentInsight{},
		StrugglingStudents: []model.StudentInsight{},
	}
	if n == 0 {
		return insights
	}

	top := atLeastOne(math.Ceil(float64(n) * 0.1))
	for i := 0; i < top; i++ {
		insights.TopPerformers = append(insights.TopPerformers, snapshot(ranked[i]))
	}

	bottom := atLeastOne(math.Ceil(float64(n) * 0.2))
	for i := n - bottom; i < n; i++ {
		s := snapshot(ranked[i])
		s.NeedsHelp = ranked[i].Percentage < needsHelpThreshold
		insights.StrugglingStudents = append(insights.StrugglingStudents, s)
	}

	return insights
}

// MostImproved compares current scores against a caller-supplied map of
// prior scores. Students absent from either side are skipped. Improvement is
// absolute points, sorted descending; ties order by student id for
// determinism.
func MostImproved(ranked []model.RankedEntry, prior map[string]float64) []model.Improvement {
	if len(prior) == 0 {
		return nil
	}
	var out []model.Improvement
	for _, e := range ranked {
		prev, ok := prior[e.StudentID]
		if !ok {
			continue
		}
		out = append(out, model.Improvement{
			StudentID:     e.StudentID,
			PreviousScore: prev,
			CurrentScore:  e.Score,
			Improvement:   e.Score - prev,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Improvement != out[j].Improvement {
			return out[i].Improvement > out[j].Improvement
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out
}

func snapshot(e model.RankedEntry) model.StudentInsight {
	return model.StudentInsight{
		StudentID:  e.StudentID,
		Score:      e.Score,
		Percentage: e.Percentage,
		Rank:       e.Rank,
	}
}

func atLeastOne(f float64) int {
	n := int(f)
	if n < 1 {
		return 1
	}
	return n
}

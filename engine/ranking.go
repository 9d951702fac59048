package engine

import (
	"math"
	"sort"
	"time"

	"classboard/model"
)

// UpsertEntry adds or replaces the entry for studentID and returns a new
// leaderboard with ranks, recognition flags, stats and insights recomputed
// from scratch. The input aggregate is not mutated; the caller persists the
// result. Given the same final entry set the output is identical regardless
// of insertion order.
func UpsertEntry(lb model.Leaderboard, studentID string, entry model.ScoreEntry, now time.Time) model.Leaderboard {
	entry.StudentID = studentID

	out := lb
	out.Entries = make([]model.RankedEntry, len(lb.Entries))
	copy(out.Entries, lb.Entries)

	replaced := false
	for i := range out.Entries {
		if out.Entries[i].StudentID == studentID {
			out.Entries[i] = model.RankedEntry{ScoreEntry: entry}
			replaced = true
			break
		}
	}
	if !replaced {
		out.Entries = append(out.Entries, model.RankedEntry{ScoreEntry: entry})
	}

	out.Entries = Rank(out.Entries)
	out.Stats = ComputeStats(ScoreEntries(out.Entries))
	out.Insights = ExtractInsights(out.Entries, out.Stats)
	out.LastUpdated = now
	return out
}

// Rank stable-sorts entries by (score desc, submittedAt asc), assigns
// competition ranks (ties share a rank, the next distinct score resumes at
// its positional rank: 100,90,90,80 ranks as 1,2,2,4) and runs the special
// recognition pass. The returned slice is a fresh copy.
func Rank(entries []model.RankedEntry) []model.RankedEntry {
	ranked := make([]model.RankedEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].SubmittedAt.Before(ranked[j].SubmittedAt)
	})

	for i := range ranked {
		if i > 0 && ranked[i].Score == ranked[i-1].Score {
			ranked[i].Rank = ranked[i-1].Rank
		} else {
			ranked[i].Rank = i + 1
		}
	}

	markRecognition(ranked)
	return ranked
}

// markRecognition clears and reassigns the isTopPerformer and
// isFastestCompletion flags in place on an already rank-sorted slice.
func markRecognition(ranked []model.RankedEntry) {
	n := len(ranked)
	if n == 0 {
		return
	}
	for i := range ranked {
		ranked[i].IsTopPerformer = false
		ranked[i].IsFastestCompletion = false
	}

	top := int(math.Ceil(float64(n) * 0.1))
	if top < 3 {
		top = 3
	}
	if top > n {
		top = n
	}
	for i := 0; i < top; i++ {
		ranked[i].IsTopPerformer = true
	}

	// Fastest-completion only distinguishes within a tie group at the top.
	tie := 1
	for tie < n && ranked[tie].Score == ranked[0].Score {
		tie++
	}
	if tie > 1 {
		fastest := 0
		for i := 1; i < tie; i++ {
			if ranked[i].TimeSpentSeconds < ranked[fastest].TimeSpentSeconds {
				fastest = i
			}
		}
		ranked[fastest].IsFastestCompletion = true
	}
}

// ScoreEntries strips rank decoration from a ranked sequence.
func ScoreEntries(ranked []model.RankedEntry) []model.ScoreEntry {
	out := make([]model.ScoreEntry, len(ranked))
	for i := range ranked {
		out[i] = ranked[i].ScoreEntry
	}
	return out
}

package engine

import (
	"time"

	"classboard/model"
)

// ApplySubmission folds one normalized submission result into the student's
// aggregate profile. The percentage is keyed by assignment, so a
// re-submission replaces the superseded value and the derived totals count
// each assignment once. The input profile is not mutated.
func ApplySubmission(p model.StudentProfile, assignmentID string, percentage float64, rank, streak int, now time.Time) model.StudentProfile {
	scores := make(map[string]float64, len(p.AssignmentScores)+1)
	for id, pct := range p.AssignmentScores {
		scores[id] = pct
	}
	scores[assignmentID] = percentage
	p.AssignmentScores = scores

	total := 0.0
	for _, pct := range scores {
		total += pct
	}
	p.TotalScore = total
	p.CompletedAssignments = len(scores)
	p.AverageScore = total / float64(len(scores))

	p.CurrentStreak = streak
	if rank > 0 && (p.BestRank == 0 || rank < p.BestRank) {
		p.BestRank = rank
	}
	p.UpdatedAt = now
	return p
}

package engine_test

import (
	"testing"
	"time"

	"classboard/engine"
	"classboard/model"
)

func TestApplySubmissionFoldsProfile(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	p := engine.ApplySubmission(model.StudentProfile{StudentID: "s1"}, "a1", 50, 4, 1, now)
	if p.CompletedAssignments != 1 || p.AverageScore != 50 || p.TotalScore != 50 {
		t.Fatalf("unexpected profile after first submission: %+v", p)
	}
	if p.BestRank != 4 || p.CurrentStreak != 1 {
		t.Fatalf("rank/streak not folded: %+v", p)
	}

	p = engine.ApplySubmission(p, "a2", 70, 2, 2, now)
	if p.CompletedAssignments != 2 || p.AverageScore != 60 || p.TotalScore != 120 {
		t.Fatalf("unexpected profile after second assignment: %+v", p)
	}
	if p.BestRank != 2 {
		t.Fatalf("best rank must improve to 2, got %d", p.BestRank)
	}
}

func TestApplySubmissionResubmissionReplaces(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	p := engine.ApplySubmission(model.StudentProfile{StudentID: "s1"}, "a1", 50, 1, 1, now)
	p = engine.ApplySubmission(p, "a1", 90, 1, 1, now)

	if p.CompletedAssignments != 1 {
		t.Fatalf("resubmitting the same assignment must not add a completion, got %d", p.CompletedAssignments)
	}
	if p.AverageScore != 90 || p.TotalScore != 90 {
		t.Fatalf("superseded score must be replaced, got avg %v total %v", p.AverageScore, p.TotalScore)
	}
}

func TestApplySubmissionBestRankNeverWorsens(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	p := engine.ApplySubmission(model.StudentProfile{StudentID: "s1"}, "a1", 80, 1, 1, now)
	p = engine.ApplySubmission(p, "a2", 60, 5, 1, now)
	if p.BestRank != 1 {
		t.Fatalf("best rank must keep the minimum, got %d", p.BestRank)
	}
}

func TestApplySubmissionDoesNotMutateInput(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	orig := engine.ApplySubmission(model.StudentProfile{StudentID: "s1"}, "a1", 50, 1, 1, now)
	_ = engine.ApplySubmission(orig, "a2", 70, 1, 1, now)

	if len(orig.AssignmentScores) != 1 || orig.TotalScore != 50 {
		t.Fatalf("input profile mutated: %+v", orig)
	}
}

package engine_test

import (
	"testing"
	"time"

	"classboard/engine"
	"classboard/model"
)

func rawSubmission(answers ...model.RawAnswer) model.RawSubmission {
	return model.RawSubmission{
		StudentID:    "s1",
		AssignmentID: "a1",
		Answers:      answers,
		StartedAt:    baseTime,
		SubmittedAt:  baseTime.Add(10 * time.Minute),
	}
}

func TestNormalizeSumsAnswers(t *testing.T) {
	raw := rawSubmission(
		model.RawAnswer{QuestionID: "q1", Points: 5, MaxPoints: 5, Correct: true},
		model.RawAnswer{QuestionID: "q2", Points: 3, MaxPoints: 5, Correct: false},
		model.RawAnswer{QuestionID: "q3", Points: 0, MaxPoints: 5, Correct: false},
	)

	got, err := engine.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got.Score != 8 || got.MaxScore != 15 {
		t.Fatalf("expected 8/15, got %v/%v", got.Score, got.MaxScore)
	}
	if got.Percentage != 53 { // round(8/15*100)
		t.Fatalf("expected percentage 53, got %v", got.Percentage)
	}
	if got.Grade != "F" {
		t.Fatalf("expected grade F, got %s", got.Grade)
	}
	if got.CorrectAnswers != 1 || got.TotalQuestions != 3 {
		t.Fatalf("expected 1/3 correct, got %d/%d", got.CorrectAnswers, got.TotalQuestions)
	}
	if got.TimeSpentSeconds != 600 {
		t.Fatalf("expected 600s spent, got %d", got.TimeSpentSeconds)
	}
}

func TestNormalizeLatePenalty(t *testing.T) {
	raw := rawSubmission(model.RawAnswer{Points: 80, MaxPoints: 100})
	raw.Late = true
	raw.LatePenaltyPercent = 25

	got, err := engine.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got.Score != 60 {
		t.Fatalf("expected penalized score 60, got %v", got.Score)
	}
	if got.Percentage != 60 {
		t.Fatalf("expected percentage recomputed to 60, got %v", got.Percentage)
	}
	if got.Grade != "D" {
		t.Fatalf("expected grade D after penalty, got %s", got.Grade)
	}
}

func TestNormalizeOnTimeIgnoresPenalty(t *testing.T) {
	raw := rawSubmission(model.RawAnswer{Points: 80, MaxPoints: 100})
	raw.LatePenaltyPercent = 25

	got, err := engine.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got.Score != 80 {
		t.Fatalf("penalty applied to an on-time submission: %v", got.Score)
	}
}

func TestNormalizeRejectsPointsWithoutMax(t *testing.T) {
	raw := rawSubmission(model.RawAnswer{Points: 5, MaxPoints: 0})

	_, err := engine.Normalize(raw)
	if !engine.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNormalizeRequiresIdentifiers(t *testing.T) {
	raw := rawSubmission(model.RawAnswer{Points: 5, MaxPoints: 10})
	raw.StudentID = ""

	_, err := engine.Normalize(raw)
	if !engine.IsValidation(err) {
		t.Fatalf("expected validation error for missing student id, got %v", err)
	}
}

func TestNormalizeUnknownStartTime(t *testing.T) {
	raw := rawSubmission(model.RawAnswer{Points: 5, MaxPoints: 10})
	raw.StartedAt = time.Time{}

	got, err := engine.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if got.TimeSpentSeconds != 0 {
		t.Fatalf("expected 0 time spent when start is unknown, got %d", got.TimeSpentSeconds)
	}
}

func TestLetterGradeBoundaries(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{95, "A"}, {90, "A"}, {89, "B"}, {80, "B"}, {79, "C"}, {70, "C"}, {69, "D"}, {60, "D"}, {59, "F"}, {0, "F"},
	}
	for _, c := range cases {
		if got := engine.LetterGrade(c.pct); got != c.want {
			t.Fatalf("grade for %v: expected %s, got %s", c.pct, c.want, got)
		}
	}
}

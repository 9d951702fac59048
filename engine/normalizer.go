package engine

import (
	"math"

	"classboard/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Normalize converts a finalized raw submission into a canonical ScoreEntry.
// A late submission with a penalty percentage has its score reduced by
// score*P/100 (floored at 0) before the percentage is recomputed.
func Normalize(raw model.RawSubmission) (model.ScoreEntry, error) {
	if err := validate.Struct(raw); err != nil {
		return model.ScoreEntry{}, &ValidationError{Message: err.Error()}
	}

	var score, maxScore float64
	var correct int
	for _, ans := range raw.Answers {
		score += ans.Points
		maxScore += ans.MaxPoints
		if ans.Correct {
			correct++
		}
	}

	if maxScore <= 0 && score > 0 {
		return model.ScoreEntry{}, &ValidationError{
			Field:   "maxScore",
			Message: "answers carry points but total max score is not positive",
		}
	}

	if raw.Late && raw.LatePenaltyPercent > 0 {
		score -= score * raw.LatePenaltyPercent / 100
		if score < 0 {
			score = 0
		}
	}

	pct := Percentage(score, maxScore)

	var timeSpent int64
	if !raw.StartedAt.IsZero() && raw.SubmittedAt.After(raw.StartedAt) {
		timeSpent = int64(raw.SubmittedAt.Sub(raw.StartedAt).Seconds())
	}

	return model.ScoreEntry{
		StudentID:        raw.StudentID,
		Score:            score,
		MaxScore:         maxScore,
		Percentage:       pct,
		Grade:            LetterGrade(pct),
		SubmittedAt:      raw.SubmittedAt,
		TimeSpentSeconds: timeSpent,
		CorrectAnswers:   correct,
		TotalQuestions:   len(raw.Answers),
	}, nil
}

// Percentage returns round(score/maxScore*100), or 0 when maxScore is not
// positive.
func Percentage(score, maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return math.Round(score / maxScore * 100)
}

// LetterGrade maps a percentage to the informational letter grade. Ranking
// never depends on it.
func LetterGrade(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}

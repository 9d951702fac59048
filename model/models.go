package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type GenericResponse struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	ErrorType string `json:"errorType"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
}

// RawAnswer carries the grading result for a single question of a submission.
type RawAnswer struct {
	QuestionID string  `bson:"question_id" json:"questionId"`
	Points     float64 `bson:"points" json:"points" validate:"gte=0"`
	MaxPoints  float64 `bson:"max_points" json:"maxPoints" validate:"gte=0"`
	Correct    bool    `bson:"correct" json:"correct"`
}

// RawSubmission is the persisted submission record as published by the
// assignment service when a student finalizes their work.
type RawSubmission struct {
	StudentID          string      `bson:"student_id" json:"studentId" validate:"required"`
	AssignmentID       string      `bson:"assignment_id" json:"assignmentId" validate:"required"`
	Answers            []RawAnswer `bson:"answers" json:"answers" validate:"dive"`
	StartedAt          time.Time   `bson:"started_at" json:"startedAt"`
	SubmittedAt        time.Time   `bson:"submitted_at" json:"submittedAt"`
	Late               bool        `bson:"late" json:"late"`
	LatePenaltyPercent float64     `bson:"late_penalty_percent" json:"latePenaltyPercent" validate:"gte=0,lte=100"`
}

// ScoreEntry is the canonical, normalized result of one student on one
// assignment. Immutable once attached to a leaderboard; a re-submission
// replaces it wholesale.
type ScoreEntry struct {
	StudentID        string    `bson:"student_id" json:"studentId"`
	Score            float64   `bson:"score" json:"score"`
	MaxScore         float64   `bson:"max_score" json:"maxScore"`
	Percentage       float64   `bson:"percentage" json:"percentage"`
	Grade            string    `bson:"grade" json:"grade"`
	SubmittedAt      time.Time `bson:"submitted_at" json:"submittedAt"`
	TimeSpentSeconds int64     `bson:"time_spent_seconds" json:"timeSpentSeconds"`
	CorrectAnswers   int       `bson:"correct_answers" json:"correctAnswers"`
	TotalQuestions   int       `bson:"total_questions" json:"totalQuestions"`
}

// RankedEntry is a ScoreEntry augmented with its place on the leaderboard.
type RankedEntry struct {
	ScoreEntry          `bson:",inline"`
	Rank                int  `bson:"rank" json:"rank"`
	IsTopPerformer      bool `bson:"is_top_performer" json:"isTopPerformer"`
	IsFastestCompletion bool `bson:"is_fastest_completion" json:"isFastestCompletion"`
}

// Leaderboard is the ranked entry set for exactly one assignment. Version is
// bumped on every save and checked by the repository for optimistic
// concurrency control.
type Leaderboard struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AssignmentID string             `bson:"assignment_id" json:"assignmentId"`
	Entries      []RankedEntry      `bson:"entries" json:"entries"`
	Stats        Stats              `bson:"stats" json:"stats"`
	Insights     Insights           `bson:"insights" json:"insights"`
	Version      int64              `bson:"version" json:"-"`
	LastUpdated  time.Time          `bson:"last_updated" json:"lastUpdated"`
}

// Stats holds descriptive statistics over the current entry set. Recomputed
// in full on every entry mutation.
type Stats struct {
	TotalParticipants int     `bson:"total_participants" json:"totalParticipants"`
	AverageScore      float64 `bson:"average_score" json:"averageScore"`
	HighestScore      float64 `bson:"highest_score" json:"highestScore"`
	LowestScore       float64 `bson:"lowest_score" json:"lowestScore"`
	MedianScore       float64 `bson:"median_score" json:"medianScore"`
	StandardDeviation float64 `bson:"standard_deviation" json:"standardDeviation"`
	PassRate          float64 `bson:"pass_rate" json:"passRate"`
	AverageTime       float64 `bson:"average_time" json:"averageTime"`
}

// StudentInsight is a value snapshot taken at extraction time, never a live
// reference into the entry sequence.
type StudentInsight struct {
	StudentID  string  `bson:"student_id" json:"studentId"`
	Score      float64 `bson:"score" json:"score"`
	Percentage float64 `bson:"percentage" json:"percentage"`
	Rank       int     `bson:"rank" json:"rank"`
	NeedsHelp  bool    `bson:"needs_help,omitempty" json:"needsHelp,omitempty"`
}

type Insights struct {
	TopPerformers      []StudentInsight `bson:"top_performers" json:"topPerformers"`
	StrugglingStudents []StudentInsight `bson:"struggling_students" json:"strugglingStudents"`
}

// Improvement compares a student's current score against a caller-supplied
// prior score. Only produced when historical data is available.
type Improvement struct {
	StudentID     string  `bson:"student_id" json:"studentId"`
	PreviousScore float64 `bson:"previous_score" json:"previousScore"`
	CurrentScore  float64 `bson:"current_score" json:"currentScore"`
	Improvement   float64 `bson:"improvement" json:"improvement"`
}

type GetLeaderboardRequest struct {
	AssignmentID string             `json:"assignmentId"`
	PriorScores  map[string]float64 `json:"priorScores,omitempty"`
}

type GetLeaderboardResponse struct {
	Leaderboard  Leaderboard   `json:"leaderboard"`
	MostImproved []Improvement `json:"mostImproved,omitempty"`
}

type GetStatsRequest struct {
	AssignmentID string `json:"assignmentId"`
}

type GetBadgeRequest struct {
	Slug string `json:"slug"`
}

package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// badge definition with its declarative requirement rules
type Badge struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Slug           string             `bson:"slug" json:"slug" validate:"required"`
	Name           string             `bson:"name" json:"name" validate:"required"`
	Description    string             `bson:"description" json:"description"`
	Icon           string             `bson:"icon" json:"icon"`
	Requirement    BadgeRequirement   `bson:"requirement" json:"requirement"`
	TotalEarned    int64              `bson:"total_earned" json:"totalEarned"`
	EarnedStudents []string           `bson:"earned_students" json:"earnedStudents"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}

// BadgeRequirement is a declarative rule set. A nil threshold field means the
// check is absent; a badge is eligible iff every present threshold passes and
// every custom condition passes.
type BadgeRequirement struct {
	MinimumScore       *float64          `bson:"minimum_score,omitempty" json:"minimumScore,omitempty"`
	MinimumAssignments *int              `bson:"minimum_assignments,omitempty" json:"minimumAssignments,omitempty"`
	ConsecutiveDays    *int              `bson:"consecutive_days,omitempty" json:"consecutiveDays,omitempty"`
	AverageScore       *float64          `bson:"average_score,omitempty" json:"averageScore,omitempty"`
	RankPosition       *int              `bson:"rank_position,omitempty" json:"rankPosition,omitempty"`
	CustomConditions   []CustomCondition `bson:"custom_conditions,omitempty" json:"customConditions,omitempty"`
}

type ConditionOperator string

const (
	OpGTE ConditionOperator = "gte"
	OpLTE ConditionOperator = "lte"
	OpEQ  ConditionOperator = "eq"
	OpGT  ConditionOperator = "gt"
	OpLT  ConditionOperator = "lt"
)

type ValueKind string

const (
	KindNumber ValueKind = "number"
	KindString ValueKind = "string"
	KindBool   ValueKind = "bool"
)

// ConditionValue is a tagged variant: exactly one of the value fields is
// meaningful, selected by Kind.
type ConditionValue struct {
	Kind   ValueKind `bson:"kind" json:"kind"`
	Number float64   `bson:"number,omitempty" json:"number,omitempty"`
	String string    `bson:"string,omitempty" json:"string,omitempty"`
	Bool   bool      `bson:"bool,omitempty" json:"bool,omitempty"`
}

// CustomCondition compares a named profile field against a value. Ordering
// operators are only valid for number values; this is enforced when the
// requirement document is loaded, not per evaluation.
type CustomCondition struct {
	Field    string            `bson:"field" json:"field" validate:"required"`
	Operator ConditionOperator `bson:"operator" json:"operator" validate:"required"`
	Value    ConditionValue    `bson:"value" json:"value"`
}

type MilestoneStatus string

const (
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneEarned     MilestoneStatus = "earned"
	MilestoneExpired    MilestoneStatus = "expired"
)

type MilestoneProgress struct {
	Current    float64 `bson:"current" json:"current"`
	Required   float64 `bson:"required" json:"required"`
	Percentage float64 `bson:"percentage" json:"percentage"`
}

// Milestone records one (student, badge) relationship. At most one earned
// milestone exists per pair; awarding is idempotent.
type Milestone struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	StudentID    string                 `bson:"student_id" json:"studentId"`
	BadgeSlug    string                 `bson:"badge_slug" json:"badgeSlug"`
	Status       MilestoneStatus        `bson:"status" json:"status"`
	Progress     MilestoneProgress      `bson:"progress" json:"progress"`
	TriggerEvent string                 `bson:"trigger_event" json:"triggerEvent"`
	TriggerData  map[string]interface{} `bson:"trigger_data,omitempty" json:"triggerData,omitempty"`
	EarnedAt     *time.Time             `bson:"earned_at,omitempty" json:"earnedAt,omitempty"`
	CreatedAt    time.Time              `bson:"created_at" json:"createdAt"`
}

// StreakState tracks a student's consecutive-activity counter.
type StreakState struct {
	StudentID         string    `bson:"student_id" json:"studentId"`
	Streak            int       `bson:"streak" json:"streak"`
	LongestStreak     int       `bson:"longest_streak" json:"longestStreak"`
	StreakLastUpdated time.Time `bson:"streak_last_updated" json:"streakLastUpdated"`
	LastActive        time.Time `bson:"last_active" json:"lastActive"`
	Version           int64     `bson:"version" json:"-"`
}

// StudentProfile aggregates a student's performance across assignments and is
// the input to badge evaluation. AssignmentScores keys percentages by
// assignment so a re-submission replaces its prior contribution instead of
// counting twice; AverageScore, TotalScore and CompletedAssignments are
// derived from it. Custom holds fields referenced by CustomCondition.Field
// that have no dedicated column.
type StudentProfile struct {
	StudentID            string                 `bson:"student_id" json:"studentId"`
	AssignmentScores     map[string]float64     `bson:"assignment_scores,omitempty" json:"assignmentScores,omitempty"`
	AverageScore         float64                `bson:"average_score" json:"averageScore"`
	TotalScore           float64                `bson:"total_score" json:"totalScore"`
	CompletedAssignments int                    `bson:"completed_assignments" json:"completedAssignments"`
	CurrentStreak        int                    `bson:"current_streak" json:"currentStreak"`
	BestRank             int                    `bson:"best_rank,omitempty" json:"bestRank,omitempty"`
	Custom               map[string]interface{} `bson:"custom,omitempty" json:"custom,omitempty"`
	Version              int64                  `bson:"version" json:"-"`
	UpdatedAt            time.Time              `bson:"updated_at" json:"updatedAt"`
}

// BadgeTrigger describes the event that caused an award attempt.
type BadgeTrigger struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

// BadgeAwardedEvent is published when a milestone transitions to earned.
type BadgeAwardedEvent struct {
	EventID   string    `json:"eventId"`
	StudentID string    `json:"studentId"`
	BadgeSlug string    `json:"badgeSlug"`
	BadgeName string    `json:"badgeName"`
	Event     string    `json:"event"`
	AwardedAt time.Time `json:"awardedAt"`
}

package engine

import (
	"fmt"
	"time"

	"classboard/model"
	"classboard/utils"
)

// ValidateRequirement checks a badge requirement document at load time: the
// operator of every custom condition must be valid for its value's tag.
// Ordering operators only apply to numbers; strings and booleans support
// equality alone.
func ValidateRequirement(req model.BadgeRequirement) error {
	for i, c := range req.CustomConditions {
		if c.Field == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("customConditions[%d].field", i),
				Message: "field is required",
			}
		}
		switch c.Operator {
		case model.OpGTE, model.OpLTE, model.OpGT, model.OpLT:
			if c.Value.Kind != model.KindNumber {
				return &ValidationError{
					Field:   fmt.Sprintf("customConditions[%d].operator", i),
					Message: fmt.Sprintf("operator %q requires a number value, got %q", c.Operator, c.Value.Kind),
				}
			}
		case model.OpEQ:
			switch c.Value.Kind {
			case model.KindNumber, model.KindString, model.KindBool:
			default:
				return fmt.Errorf("customConditions[%d]: %w: %q", i, ErrUnknownValueKind, c.Value.Kind)
			}
		default:
			return fmt.Errorf("customConditions[%d]: %w: %q", i, ErrUnknownOperator, c.Operator)
		}
	}
	return nil
}

// EvaluateBadge reports whether a student's aggregate profile satisfies the
// requirement. Every present threshold field and every custom condition must
// pass; the first failing check short-circuits to false.
func EvaluateBadge(profile model.StudentProfile, req model.BadgeRequirement) (bool, error) {
	if req.MinimumScore != nil && profile.AverageScore < *req.MinimumScore {
		return false, nil
	}
	if req.AverageScore != nil && profile.AverageScore < *req.AverageScore {
		return false, nil
	}
	if req.MinimumAssignments != nil && profile.CompletedAssignments < *req.MinimumAssignments {
		return false, nil
	}
	if req.ConsecutiveDays != nil && profile.CurrentStreak < *req.ConsecutiveDays {
		return false, nil
	}
	if req.RankPosition != nil && (profile.BestRank == 0 || profile.BestRank > *req.RankPosition) {
		return false, nil
	}

	for _, cond := range req.CustomConditions {
		ok, err := evaluateCondition(profile, cond)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func evaluateCondition(profile model.StudentProfile, cond model.CustomCondition) (bool, error) {
	value, found := lookupField(profile, cond.Field)
	if !found {
		// Absent profile field means the condition cannot hold.
		return false, nil
	}

	switch cond.Value.Kind {
	case model.KindNumber:
		num, ok := asNumber(value)
		if !ok {
			return false, nil
		}
		switch cond.Operator {
		case model.OpGTE:
			return num >= cond.Value.Number, nil
		case model.OpLTE:
			return num <= cond.Value.Number, nil
		case model.OpGT:
			return num > cond.Value.Number, nil
		case model.OpLT:
			return num < cond.Value.Number, nil
		case model.OpEQ:
			return num == cond.Value.Number, nil
		}
		return false, fmt.Errorf("%w: %q", ErrUnknownOperator, cond.Operator)
	case model.KindString:
		s, ok := value.(string)
		return ok && cond.Operator == model.OpEQ && s == cond.Value.String, nil
	case model.KindBool:
		b, ok := value.(bool)
		return ok && cond.Operator == model.OpEQ && b == cond.Value.Bool, nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownValueKind, cond.Value.Kind)
}

// lookupField resolves a condition field name against the profile, checking
// the dedicated columns before the free-form custom map.
func lookupField(profile model.StudentProfile, field string) (interface{}, bool) {
	switch utils.NormalizeFieldName(field) {
	case "average_score":
		return profile.AverageScore, true
	case "total_score":
		return profile.TotalScore, true
	case "completed_assignments":
		return profile.CompletedAssignments, true
	case "current_streak":
		return profile.CurrentStreak, true
	case "best_rank":
		if profile.BestRank == 0 {
			return nil, false
		}
		return profile.BestRank, true
	}
	if profile.Custom == nil {
		return nil, false
	}
	v, ok := profile.Custom[field]
	if !ok {
		v, ok = profile.Custom[utils.NormalizeFieldName(field)]
	}
	return v, ok
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// AwardBadge turns an eligible evaluation into an earned milestone. It is
// idempotent: when an earned milestone for the (student, badge) pair already
// exists it is returned unchanged and awarded is false, so counters are
// never double-incremented.
func AwardBadge(existing *model.Milestone, studentID string, badge model.Badge, trigger model.BadgeTrigger, now time.Time) (model.Milestone, bool) {
	if existing != nil && existing.Status == model.MilestoneEarned {
		return *existing, false
	}

	earnedAt := now
	return model.Milestone{
		StudentID: studentID,
		BadgeSlug: badge.Slug,
		Status:    model.MilestoneEarned,
		Progress: model.MilestoneProgress{
			Current:    1,
			Required:   1,
			Percentage: 100,
		},
		TriggerEvent: trigger.Event,
		TriggerData:  trigger.Data,
		EarnedAt:     &earnedAt,
		CreatedAt:    now,
	}, true
}

// RequirementProgress reports how far a profile is toward a countable
// requirement threshold. Requirements without one report ok false; such
// badges are either earned or not, with nothing to track between.
func RequirementProgress(profile model.StudentProfile, req model.BadgeRequirement) (current, required float64, ok bool) {
	switch {
	case req.MinimumAssignments != nil:
		return float64(profile.CompletedAssignments), float64(*req.MinimumAssignments), true
	case req.ConsecutiveDays != nil:
		return float64(profile.CurrentStreak), float64(*req.ConsecutiveDays), true
	}
	return 0, 0, false
}

// StartProgress opens the in-progress milestone that tracks a countable
// requirement before it is met.
func StartProgress(studentID string, badge model.Badge, trigger model.BadgeTrigger, now time.Time) model.Milestone {
	return model.Milestone{
		StudentID:    studentID,
		BadgeSlug:    badge.Slug,
		Status:       model.MilestoneInProgress,
		TriggerEvent: trigger.Event,
		TriggerData:  trigger.Data,
		CreatedAt:    now,
	}
}

// UpdateProgress advances an in-progress milestone and flips it to earned
// exactly when current reaches required. Percentage is capped at 100.
func UpdateProgress(m model.Milestone, current, required float64, now time.Time) model.Milestone {
	m.Progress.Current = current
	m.Progress.Required = required
	if required > 0 {
		pct := Percentage(current, required)
		if pct > 100 {
			pct = 100
		}
		m.Progress.Percentage = pct
	} else {
		m.Progress.Percentage = 0
	}
	if m.Status != model.MilestoneEarned && required > 0 && current >= required {
		m.Status = model.MilestoneEarned
		earnedAt := now
		m.EarnedAt = &earnedAt
	}
	return m
}

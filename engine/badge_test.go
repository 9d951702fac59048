package engine_test

import (
	"testing"
	"time"

	"classboard/engine"
	"classboard/model"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func streakRequirement() model.BadgeRequirement {
	return model.BadgeRequirement{
		MinimumScore: floatPtr(80),
		CustomConditions: []model.CustomCondition{
			{
				Field:    "streak",
				Operator: model.OpGTE,
				Value:    model.ConditionValue{Kind: model.KindNumber, Number: 5},
			},
		},
	}
}

func TestEvaluateBadgeEligibility(t *testing.T) {
	req := streakRequirement()

	eligible, err := engine.EvaluateBadge(model.StudentProfile{AverageScore: 85, CurrentStreak: 7}, req)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if !eligible {
		t.Fatal("expected profile {85, streak 7} to be eligible")
	}

	eligible, err = engine.EvaluateBadge(model.StudentProfile{AverageScore: 85, CurrentStreak: 3}, req)
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if eligible {
		t.Fatal("expected profile {85, streak 3} to be ineligible")
	}
}

func TestEvaluateBadgeThresholdFields(t *testing.T) {
	profile := model.StudentProfile{
		AverageScore:         72,
		CompletedAssignments: 10,
		CurrentStreak:        4,
		BestRank:             2,
	}

	cases := []struct {
		name string
		req  model.BadgeRequirement
		want bool
	}{
		{"assignments pass", model.BadgeRequirement{MinimumAssignments: intPtr(10)}, true},
		{"assignments fail", model.BadgeRequirement{MinimumAssignments: intPtr(11)}, false},
		{"consecutive days fail", model.BadgeRequirement{ConsecutiveDays: intPtr(5)}, false},
		{"rank position pass", model.BadgeRequirement{RankPosition: intPtr(3)}, true},
		{"rank position fail", model.BadgeRequirement{RankPosition: intPtr(1)}, false},
		{"average score pass", model.BadgeRequirement{AverageScore: floatPtr(70)}, true},
		{"empty requirement passes", model.BadgeRequirement{}, true},
	}
	for _, c := range cases {
		got, err := engine.EvaluateBadge(profile, c.req)
		if err != nil {
			t.Fatalf("%s: evaluate failed: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestEvaluateBadgeRankUnsetNeverPasses(t *testing.T) {
	got, err := engine.EvaluateBadge(model.StudentProfile{}, model.BadgeRequirement{RankPosition: intPtr(10)})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if got {
		t.Fatal("a student with no rank history must not satisfy a rank requirement")
	}
}

func TestEvaluateBadgeCustomFieldVariants(t *testing.T) {
	profile := model.StudentProfile{
		Custom: map[string]interface{}{
			"house":    "gryffindor",
			"verified": true,
			"level":    int64(4),
		},
	}

	cases := []struct {
		name string
		cond model.CustomCondition
		want bool
	}{
		{"string eq", model.CustomCondition{Field: "house", Operator: model.OpEQ, Value: model.ConditionValue{Kind: model.KindString, String: "gryffindor"}}, true},
		{"string neq", model.CustomCondition{Field: "house", Operator: model.OpEQ, Value: model.ConditionValue{Kind: model.KindString, String: "slytherin"}}, false},
		{"bool eq", model.CustomCondition{Field: "verified", Operator: model.OpEQ, Value: model.ConditionValue{Kind: model.KindBool, Bool: true}}, true},
		{"int coerced lt", model.CustomCondition{Field: "level", Operator: model.OpLT, Value: model.ConditionValue{Kind: model.KindNumber, Number: 5}}, true},
		{"missing field fails", model.CustomCondition{Field: "ghost", Operator: model.OpEQ, Value: model.ConditionValue{Kind: model.KindNumber, Number: 1}}, false},
	}
	for _, c := range cases {
		got, err := engine.EvaluateBadge(profile, model.BadgeRequirement{CustomConditions: []model.CustomCondition{c.cond}})
		if err != nil {
			t.Fatalf("%s: evaluate failed: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
}

func TestValidateRequirementOperatorTags(t *testing.T) {
	bad := model.BadgeRequirement{
		CustomConditions: []model.CustomCondition{
			{Field: "house", Operator: model.OpGTE, Value: model.ConditionValue{Kind: model.KindString, String: "x"}},
		},
	}
	if err := engine.ValidateRequirement(bad); err == nil {
		t.Fatal("expected ordering operator on a string value to be rejected at load time")
	}

	unknown := model.BadgeRequirement{
		CustomConditions: []model.CustomCondition{
			{Field: "level", Operator: "contains", Value: model.ConditionValue{Kind: model.KindNumber, Number: 1}},
		},
	}
	if err := engine.ValidateRequirement(unknown); err == nil {
		t.Fatal("expected unknown operator to be rejected at load time")
	}

	if err := engine.ValidateRequirement(streakRequirement()); err != nil {
		t.Fatalf("valid requirement rejected: %v", err)
	}
}

func TestAwardBadgeIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	badge := model.Badge{Slug: "streak-master", Name: "Streak Master"}
	trigger := model.BadgeTrigger{Event: "submission.finalized"}

	first, awarded := engine.AwardBadge(nil, "s1", badge, trigger, now)
	if !awarded {
		t.Fatal("expected first award to be granted")
	}
	if first.Status != model.MilestoneEarned || first.Progress.Percentage != 100 {
		t.Fatalf("expected earned milestone at 100%%, got %+v", first)
	}
	if first.EarnedAt == nil || !first.EarnedAt.Equal(now) {
		t.Fatalf("expected earnedAt %v, got %v", now, first.EarnedAt)
	}

	second, awarded := engine.AwardBadge(&first, "s1", badge, trigger, now.Add(time.Hour))
	if awarded {
		t.Fatal("expected repeated award to be a no-op")
	}
	if !second.EarnedAt.Equal(*first.EarnedAt) {
		t.Fatal("repeated award must return the existing milestone unchanged")
	}
}

func TestRequirementProgress(t *testing.T) {
	profile := model.StudentProfile{CompletedAssignments: 2, CurrentStreak: 4}

	current, required, ok := engine.RequirementProgress(profile, model.BadgeRequirement{MinimumAssignments: intPtr(5)})
	if !ok || current != 2 || required != 5 {
		t.Fatalf("expected 2/5 assignments, got %v/%v ok=%v", current, required, ok)
	}

	current, required, ok = engine.RequirementProgress(profile, model.BadgeRequirement{ConsecutiveDays: intPtr(7)})
	if !ok || current != 4 || required != 7 {
		t.Fatalf("expected 4/7 days, got %v/%v ok=%v", current, required, ok)
	}

	if _, _, ok = engine.RequirementProgress(profile, model.BadgeRequirement{MinimumScore: floatPtr(90)}); ok {
		t.Fatal("a score-only requirement has nothing countable to track")
	}
}

func TestUpdateProgressTransitions(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	m := model.Milestone{StudentID: "s1", BadgeSlug: "centurion", Status: model.MilestoneInProgress}

	m = engine.UpdateProgress(m, 3, 10, now)
	if m.Status != model.MilestoneInProgress || m.Progress.Percentage != 30 {
		t.Fatalf("expected in_progress at 30%%, got %+v", m)
	}

	m = engine.UpdateProgress(m, 12, 10, now)
	if m.Status != model.MilestoneEarned {
		t.Fatalf("expected earned once current >= required, got %s", m.Status)
	}
	if m.Progress.Percentage != 100 {
		t.Fatalf("expected percentage capped at 100, got %v", m.Progress.Percentage)
	}
}

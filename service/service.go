package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"classboard/cache"
	configs "classboard/config"
	"classboard/engine"
	"classboard/logger"
	"classboard/model"
	"classboard/repository"

	"github.com/google/uuid"
	cron "github.com/robfig/cron/v3"
	"go.uber.org/zap/zapcore"
)

// maxSaveAttempts bounds the optimistic-concurrency retry loop. Every engine
// operation is safe to re-invoke with fresh state, so a lost race is retried
// rather than surfaced.
const maxSaveAttempts = 3

// Store is the persistence surface the service needs. Satisfied by
// repository.Repository; faked in tests.
type Store interface {
	GetLeaderboard(ctx context.Context, assignmentID string) (model.Leaderboard, error)
	SaveLeaderboard(ctx context.Context, lb model.Leaderboard) error
	ListAssignmentIDs(ctx context.Context) ([]string, error)
	GetBadge(ctx context.Context, slug string) (model.Badge, error)
	ListBadges(ctx context.Context) ([]model.Badge, error)
	UpsertBadge(ctx context.Context, badge model.Badge) error
	ListMilestones(ctx context.Context, studentID string) ([]model.Milestone, error)
	GetEarnedMilestone(ctx context.Context, studentID, badgeSlug string) (*model.Milestone, error)
	GetProgressMilestone(ctx context.Context, studentID, badgeSlug string) (*model.Milestone, error)
	SaveProgressMilestone(ctx context.Context, m model.Milestone) error
	DeleteProgressMilestone(ctx context.Context, studentID, badgeSlug string) error
	InsertMilestone(ctx context.Context, m model.Milestone) error
	RecordAward(ctx context.Context, slug, studentID string) error
	GetStreak(ctx context.Context, studentID string) (model.StreakState, error)
	SaveStreak(ctx context.Context, st model.StreakState) error
	GetStudentProfile(ctx context.Context, studentID string) (model.StudentProfile, error)
	SaveStudentProfile(ctx context.Context, p model.StudentProfile) error
}

// Publisher is the outbound event surface. Satisfied by
// natsclient.NatsClient.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// LeaderboardService orchestrates the ranking engine against persistence,
// cache and the event fabric.
type LeaderboardService struct {
	Store            Store
	Publisher        Publisher
	RedisCacheClient cache.Cache
	Config           configs.Config
	logger           *logger.LogStreamer
}

func NewService(store Store, publisher Publisher, redisCache cache.Cache, cfg configs.Config, log *logger.LogStreamer) *LeaderboardService {
	svc := &LeaderboardService{
		Store:            store,
		Publisher:        publisher,
		RedisCacheClient: redisCache,
		Config:           cfg,
		logger:           log,
	}
	svc.logger.Log(zapcore.InfoLevel, uuid.New().String(), "LeaderboardService initialized", map[string]any{
		"method": "NewService",
	}, "SERVICE", nil)
	return svc
}

// StartCronJob schedules the periodic leaderboard cache re-warm.
func (s *LeaderboardService) StartCronJob() *cron.Cron {
	c := cron.New()

	c.AddFunc(s.Config.SyncSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.logger.Log(zapcore.InfoLevel, "", "Re-warming leaderboard cache", map[string]any{
			"method": "StartCronJob",
		}, "CRON", nil)
		if err := s.WarmLeaderboardCache(ctx); err != nil {
			s.logger.Log(zapcore.ErrorLevel, "", "Cache re-warm failed", map[string]any{
				"method":    "StartCronJob",
				"errorType": "CACHE_WARM_FAILED",
			}, "CRON", err)
		}
	})

	c.Start()
	return c
}

// WarmLeaderboardCache loads every known leaderboard and refreshes its cache
// snapshot.
func (s *LeaderboardService) WarmLeaderboardCache(ctx context.Context) error {
	ids, err := s.Store.ListAssignmentIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		lb, err := s.Store.GetLeaderboard(ctx, id)
		if err != nil {
			return err
		}
		s.cacheLeaderboard("", lb)
	}
	return nil
}

// ProcessSubmission runs the full pipeline for one finalized submission:
// normalize, upsert into the assignment leaderboard, fold the result into
// the student's profile and streak, then evaluate badges.
func (s *LeaderboardService) ProcessSubmission(ctx context.Context, raw model.RawSubmission) (model.Leaderboard, error) {
	traceID := uuid.New().String()
	s.logger.Log(zapcore.InfoLevel, traceID, "Starting ProcessSubmission", map[string]any{
		"method":       "ProcessSubmission",
		"assignmentId": raw.AssignmentID,
		"studentId":    raw.StudentID,
	}, "SERVICE", nil)

	entry, err := engine.Normalize(raw)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Submission failed validation", map[string]any{
			"method":       "ProcessSubmission",
			"assignmentId": raw.AssignmentID,
			"studentId":    raw.StudentID,
			"errorType":    "VALIDATION_ERROR",
		}, "SERVICE", err)
		return model.Leaderboard{}, err
	}

	now := time.Now().UTC()

	var updated model.Leaderboard
	err = s.withRetry(func() error {
		lb, err := s.Store.GetLeaderboard(ctx, raw.AssignmentID)
		if err != nil {
			return err
		}
		updated = engine.UpsertEntry(lb, raw.StudentID, entry, now)
		if s.Config.PassingThreshold != engine.DefaultPassingThreshold {
			updated.Stats = engine.ComputeStatsThreshold(engine.ScoreEntries(updated.Entries), s.Config.PassingThreshold)
		}
		return s.Store.SaveLeaderboard(ctx, updated)
	})
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to persist leaderboard", map[string]any{
			"method":       "ProcessSubmission",
			"assignmentId": raw.AssignmentID,
			"errorType":    "DB_ERROR",
		}, "SERVICE", err)
		return model.Leaderboard{}, err
	}

	s.cacheLeaderboard(traceID, updated)

	var streak model.StreakState
	err = s.withRetry(func() error {
		st, err := s.Store.GetStreak(ctx, raw.StudentID)
		if err != nil {
			return err
		}
		streak = engine.TouchStreak(st, now)
		return s.Store.SaveStreak(ctx, streak)
	})
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to persist streak", map[string]any{
			"method":    "ProcessSubmission",
			"studentId": raw.StudentID,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return model.Leaderboard{}, err
	}

	rank := 0
	for _, e := range updated.Entries {
		if e.StudentID == raw.StudentID {
			rank = e.Rank
			break
		}
	}

	var profile model.StudentProfile
	err = s.withRetry(func() error {
		p, err := s.Store.GetStudentProfile(ctx, raw.StudentID)
		if err != nil {
			return err
		}
		profile = engine.ApplySubmission(p, raw.AssignmentID, entry.Percentage, rank, streak.Streak, now)
		return s.Store.SaveStudentProfile(ctx, profile)
	})
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to update student profile", map[string]any{
			"method":    "ProcessSubmission",
			"studentId": raw.StudentID,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return model.Leaderboard{}, err
	}

	s.EvaluateStudentBadges(ctx, traceID, profile, model.BadgeTrigger{
		Event: s.Config.SubmissionSubject,
		Data: map[string]interface{}{
			"assignmentId": raw.AssignmentID,
			"rank":         rank,
		},
	})

	s.logger.Log(zapcore.InfoLevel, traceID, "Submission processed", map[string]any{
		"method":       "ProcessSubmission",
		"assignmentId": raw.AssignmentID,
		"studentId":    raw.StudentID,
		"rank":         rank,
	}, "SERVICE", nil)
	return updated, nil
}

// EvaluateStudentBadges checks the student's profile against every badge
// definition and awards the eligible ones. Awarding is idempotent end to
// end: an existing earned milestone short-circuits, and a duplicate insert
// lost to a concurrent worker is treated as already awarded.
func (s *LeaderboardService) EvaluateStudentBadges(ctx context.Context, traceID string, profile model.StudentProfile, trigger model.BadgeTrigger) {
	badges, err := s.Store.ListBadges(ctx)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to list badges", map[string]any{
			"method":    "EvaluateStudentBadges",
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return
	}

	now := time.Now().UTC()
	for _, badge := range badges {
		if err := engine.ValidateRequirement(badge.Requirement); err != nil {
			s.logger.Log(zapcore.WarnLevel, traceID, "Skipping badge with invalid requirement", map[string]any{
				"method":    "EvaluateStudentBadges",
				"badge":     badge.Slug,
				"errorType": "VALIDATION_ERROR",
			}, "SERVICE", err)
			continue
		}

		eligible, err := engine.EvaluateBadge(profile, badge.Requirement)
		if err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Badge evaluation failed", map[string]any{
				"method":    "EvaluateStudentBadges",
				"badge":     badge.Slug,
				"errorType": "EVALUATION_ERROR",
			}, "SERVICE", err)
			continue
		}
		if !eligible {
			s.trackBadgeProgress(ctx, traceID, profile, badge, trigger, now)
			continue
		}

		existing, err := s.Store.GetEarnedMilestone(ctx, profile.StudentID, badge.Slug)
		if err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to load milestone", map[string]any{
				"method":    "EvaluateStudentBadges",
				"badge":     badge.Slug,
				"errorType": "DB_ERROR",
			}, "SERVICE", err)
			continue
		}

		milestone, awarded := engine.AwardBadge(existing, profile.StudentID, badge, trigger, now)
		if !awarded {
			continue
		}

		if err := s.Store.InsertMilestone(ctx, milestone); err != nil {
			if errors.Is(err, repository.ErrVersionConflict) {
				// Another worker awarded first.
				continue
			}
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to store milestone", map[string]any{
				"method":    "EvaluateStudentBadges",
				"badge":     badge.Slug,
				"errorType": "DB_ERROR",
			}, "SERVICE", err)
			continue
		}

		if err := s.Store.DeleteProgressMilestone(ctx, profile.StudentID, badge.Slug); err != nil {
			s.logger.Log(zapcore.WarnLevel, traceID, "Failed to close progress tracker", map[string]any{
				"method":    "EvaluateStudentBadges",
				"badge":     badge.Slug,
				"errorType": "DB_ERROR",
			}, "SERVICE", err)
		}

		if err := s.Store.RecordAward(ctx, badge.Slug, profile.StudentID); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to record award on badge", map[string]any{
				"method":    "EvaluateStudentBadges",
				"badge":     badge.Slug,
				"errorType": "DB_ERROR",
			}, "SERVICE", err)
		}

		s.publishAward(traceID, profile.StudentID, badge, trigger, now)

		s.logger.Log(zapcore.InfoLevel, traceID, "Badge awarded", map[string]any{
			"method":    "EvaluateStudentBadges",
			"badge":     badge.Slug,
			"studentId": profile.StudentID,
		}, "SERVICE", nil)
	}
}

// trackBadgeProgress upserts the in-progress milestone for a badge with a
// countable requirement the student has not met yet, so clients can show
// "2 of 3 assignments" style progress.
func (s *LeaderboardService) trackBadgeProgress(ctx context.Context, traceID string, profile model.StudentProfile, badge model.Badge, trigger model.BadgeTrigger, now time.Time) {
	current, required, ok := engine.RequirementProgress(profile, badge.Requirement)
	if !ok {
		return
	}
	if current >= required {
		// The countable threshold is met; the badge is waiting on its other
		// requirements and the tracker has nothing new to show.
		return
	}

	tracker, err := s.Store.GetProgressMilestone(ctx, profile.StudentID, badge.Slug)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to load progress tracker", map[string]any{
			"method":    "trackBadgeProgress",
			"badge":     badge.Slug,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return
	}

	m := engine.StartProgress(profile.StudentID, badge, trigger, now)
	if tracker != nil {
		m = *tracker
	}
	m = engine.UpdateProgress(m, current, required, now)

	if err := s.Store.SaveProgressMilestone(ctx, m); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to save progress tracker", map[string]any{
			"method":    "trackBadgeProgress",
			"badge":     badge.Slug,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
	}
}

// GetLeaderboard serves the ranked leaderboard, cache-aside. When the caller
// supplies prior scores the optional most-improved list is computed as well.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, req model.GetLeaderboardRequest) (model.GetLeaderboardResponse, error) {
	traceID := uuid.New().String()
	if req.AssignmentID == "" {
		return model.GetLeaderboardResponse{}, &engine.ValidationError{Field: "assignmentId", Message: "assignment id is required"}
	}

	lb, ok := s.cachedLeaderboard(req.AssignmentID)
	if !ok {
		var err error
		lb, err = s.Store.GetLeaderboard(ctx, req.AssignmentID)
		if err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to fetch leaderboard from DB", map[string]any{
				"method":       "GetLeaderboard",
				"assignmentId": req.AssignmentID,
				"errorType":    "DB_ERROR",
			}, "SERVICE", err)
			return model.GetLeaderboardResponse{}, err
		}
		s.cacheLeaderboard(traceID, lb)
	}

	resp := model.GetLeaderboardResponse{Leaderboard: lb}
	if len(req.PriorScores) > 0 {
		resp.MostImproved = engine.MostImproved(lb.Entries, req.PriorScores)
	}
	return resp, nil
}

// GetAssignmentStats serves the aggregate statistics for one assignment.
func (s *LeaderboardService) GetAssignmentStats(ctx context.Context, assignmentID string) (model.Stats, error) {
	resp, err := s.GetLeaderboard(ctx, model.GetLeaderboardRequest{AssignmentID: assignmentID})
	if err != nil {
		return model.Stats{}, err
	}
	return resp.Leaderboard.Stats, nil
}

// RegisterBadge validates a badge requirement document at load time and
// stores the definition. Invalid operator/value combinations are rejected
// here so evaluation never sees them.
func (s *LeaderboardService) RegisterBadge(ctx context.Context, badge model.Badge) error {
	traceID := uuid.New().String()
	if badge.Slug == "" || badge.Name == "" {
		return &engine.ValidationError{Field: "badge", Message: "slug and name are required"}
	}
	if err := engine.ValidateRequirement(badge.Requirement); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Rejected badge definition", map[string]any{
			"method":    "RegisterBadge",
			"badge":     badge.Slug,
			"errorType": "VALIDATION_ERROR",
		}, "SERVICE", err)
		return err
	}
	return s.Store.UpsertBadge(ctx, badge)
}

// GetBadge serves one badge definition with its earned counters.
func (s *LeaderboardService) GetBadge(ctx context.Context, slug string) (model.Badge, error) {
	if slug == "" {
		return model.Badge{}, &engine.ValidationError{Field: "slug", Message: "badge slug is required"}
	}
	return s.Store.GetBadge(ctx, slug)
}

// GetStudentMilestones lists a student's badge progress records.
func (s *LeaderboardService) GetStudentMilestones(ctx context.Context, studentID string) ([]model.Milestone, error) {
	if studentID == "" {
		return nil, &engine.ValidationError{Field: "studentId", Message: "student id is required"}
	}
	return s.Store.ListMilestones(ctx, studentID)
}

// RecordActivity applies a qualifying non-submission activity (material
// read, doubt answered) to the student's streak.
func (s *LeaderboardService) RecordActivity(ctx context.Context, studentID string) (model.StreakState, error) {
	traceID := uuid.New().String()
	now := time.Now().UTC()

	var streak model.StreakState
	err := s.withRetry(func() error {
		st, err := s.Store.GetStreak(ctx, studentID)
		if err != nil {
			return err
		}
		streak = engine.TouchStreak(st, now)
		return s.Store.SaveStreak(ctx, streak)
	})
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to persist streak", map[string]any{
			"method":    "RecordActivity",
			"studentId": studentID,
			"errorType": "DB_ERROR",
		}, "SERVICE", err)
		return model.StreakState{}, err
	}
	return streak, nil
}

func (s *LeaderboardService) withRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return err
}

func (s *LeaderboardService) publishAward(traceID, studentID string, badge model.Badge, trigger model.BadgeTrigger, now time.Time) {
	event := model.BadgeAwardedEvent{
		EventID:   uuid.New().String(),
		StudentID: studentID,
		BadgeSlug: badge.Slug,
		BadgeName: badge.Name,
		Event:     trigger.Event,
		AwardedAt: now,
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to marshal award event", map[string]any{
			"method":    "publishAward",
			"badge":     badge.Slug,
			"errorType": "MARSHAL_ERROR",
		}, "SERVICE", err)
		return
	}
	if err := s.Publisher.Publish(s.Config.AwardSubject, data); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to publish award event", map[string]any{
			"method":    "publishAward",
			"badge":     badge.Slug,
			"errorType": "PUBLISH_ERROR",
		}, "SERVICE", err)
	}
}

func (s *LeaderboardService) leaderboardCacheKey(assignmentID string) string {
	return fmt.Sprintf("leaderboard:%s", assignmentID)
}

func (s *LeaderboardService) cacheLeaderboard(traceID string, lb model.Leaderboard) {
	data, err := json.Marshal(lb)
	if err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to marshal leaderboard for cache", map[string]any{
			"method":       "cacheLeaderboard",
			"assignmentId": lb.AssignmentID,
			"errorType":    "MARSHAL_ERROR",
		}, "SERVICE", err)
		return
	}
	ttl := time.Duration(s.Config.CacheTTLSeconds) * time.Second
	if err := s.RedisCacheClient.Set(s.leaderboardCacheKey(lb.AssignmentID), data, ttl); err != nil {
		s.logger.Log(zapcore.ErrorLevel, traceID, "Failed to cache leaderboard", map[string]any{
			"method":       "cacheLeaderboard",
			"assignmentId": lb.AssignmentID,
			"errorType":    "CACHE_ERROR",
		}, "SERVICE", err)
	}
}

func (s *LeaderboardService) cachedLeaderboard(assignmentID string) (model.Leaderboard, bool) {
	cached, err := s.RedisCacheClient.Get(s.leaderboardCacheKey(assignmentID))
	if err != nil || cached == nil {
		return model.Leaderboard{}, false
	}
	cachedStr, ok := cached.(string)
	if !ok {
		return model.Leaderboard{}, false
	}
	var lb model.Leaderboard
	if err := json.Unmarshal([]byte(cachedStr), &lb); err != nil {
		return model.Leaderboard{}, false
	}
	return lb, true
}

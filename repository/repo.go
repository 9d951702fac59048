package repository

import (
	"context"
	"errors"
	"time"

	"classboard/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrVersionConflict is returned when a save loses an optimistic
	// concurrency race. Callers re-read and re-apply.
	ErrVersionConflict = errors.New("aggregate version conflict")
)

type Repository struct {
	client       *mongo.Client
	leaderboards *mongo.Collection
	badges       *mongo.Collection
	milestones   *mongo.Collection
	streaks      *mongo.Collection
	profiles     *mongo.Collection
}

func NewRepository(client *mongo.Client, database string) *Repository {
	db := client.Database(database)
	return &Repository{
		client:       client,
		leaderboards: db.Collection("leaderboards"),
		badges:       db.Collection("badges"),
		milestones:   db.Collection("milestones"),
		streaks:      db.Collection("streaks"),
		profiles:     db.Collection("student_profiles"),
	}
}

// EnsureIndexes creates the unique indexes the aggregate invariants rely on:
// one leaderboard per assignment, one badge per slug, one earned milestone
// per (student, badge) pair.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.leaderboards.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "assignment_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.badges.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.milestones.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "badge_slug", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(
			bson.M{"status": model.MilestoneEarned},
		),
	})
	if err != nil {
		return err
	}
	_, err = r.streaks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = r.profiles.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// GetLeaderboard loads the leaderboard for an assignment. A missing document
// yields a fresh zero-version aggregate: an assignment with no submissions
// is a normal state.
func (r *Repository) GetLeaderboard(ctx context.Context, assignmentID string) (model.Leaderboard, error) {
	var lb model.Leaderboard
	err := r.leaderboards.FindOne(ctx, bson.M{"assignment_id": assignmentID}).Decode(&lb)
	if err == mongo.ErrNoDocuments {
		return model.Leaderboard{AssignmentID: assignmentID, Entries: []model.RankedEntry{}}, nil
	}
	if err != nil {
		return model.Leaderboard{}, err
	}
	return lb, nil
}

// SaveLeaderboard persists an aggregate under an optimistic version check.
// A zero version inserts; otherwise the replace is filtered on the version
// read, and a lost race surfaces ErrVersionConflict.
func (r *Repository) SaveLeaderboard(ctx context.Context, lb model.Leaderboard) error {
	prev := lb.Version
	lb.Version = prev + 1

	if prev == 0 {
		_, err := r.leaderboards.InsertOne(ctx, lb)
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return err
	}

	res, err := r.leaderboards.ReplaceOne(ctx,
		bson.M{"assignment_id": lb.AssignmentID, "version": prev}, lb)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

// ListAssignmentIDs returns the assignments that currently have a
// leaderboard, for cache warming.
func (r *Repository) ListAssignmentIDs(ctx context.Context) ([]string, error) {
	values, err := r.leaderboards.Distinct(ctx, "assignment_id", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (r *Repository) GetBadge(ctx context.Context, slug string) (model.Badge, error) {
	var badge model.Badge
	err := r.badges.FindOne(ctx, bson.M{"slug": slug}).Decode(&badge)
	if err == mongo.ErrNoDocuments {
		return model.Badge{}, ErrNotFound
	}
	if err != nil {
		return model.Badge{}, err
	}
	return badge, nil
}

func (r *Repository) ListBadges(ctx context.Context) ([]model.Badge, error) {
	cursor, err := r.badges.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var badges []model.Badge
	if err = cursor.All(ctx, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

func (r *Repository) UpsertBadge(ctx context.Context, badge model.Badge) error {
	if badge.CreatedAt.IsZero() {
		badge.CreatedAt = time.Now().UTC()
	}
	update := bson.M{
		"$set": bson.M{
			"name":        badge.Name,
			"description": badge.Description,
			"icon":        badge.Icon,
			"requirement": badge.Requirement,
		},
		"$setOnInsert": bson.M{
			"created_at":      badge.CreatedAt,
			"total_earned":    int64(0),
			"earned_students": []string{},
		},
	}
	_, err := r.badges.UpdateOne(ctx, bson.M{"slug": badge.Slug}, update, options.Update().SetUpsert(true))
	return err
}

// RecordAward increments the badge's earned counter and adds the student to
// its earned set exactly once. The filter excludes students already in the
// set so a retried award never double-counts.
func (r *Repository) RecordAward(ctx context.Context, slug, studentID string) error {
	res, err := r.badges.UpdateOne(ctx,
		bson.M{"slug": slug, "earned_students": bson.M{"$ne": studentID}},
		bson.M{
			"$inc":      bson.M{"total_earned": 1},
			"$addToSet": bson.M{"earned_students": studentID},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Already recorded; idempotent no-op.
		return nil
	}
	return nil
}

// GetEarnedMilestone returns the earned milestone for a (student, badge)
// pair, or nil when the badge has not been earned yet.
func (r *Repository) GetEarnedMilestone(ctx context.Context, studentID, badgeSlug string) (*model.Milestone, error) {
	var m model.Milestone
	err := r.milestones.FindOne(ctx, bson.M{
		"student_id": studentID,
		"badge_slug": badgeSlug,
		"status":     model.MilestoneEarned,
	}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertMilestone stores a freshly earned milestone. The partial unique
// index turns a concurrent duplicate award into ErrVersionConflict.
func (r *Repository) InsertMilestone(ctx context.Context, m model.Milestone) error {
	_, err := r.milestones.InsertOne(ctx, m)
	if mongo.IsDuplicateKeyError(err) {
		return ErrVersionConflict
	}
	return err
}

// GetProgressMilestone returns the in-progress tracker for a (student, badge)
// pair, or nil when none is open.
func (r *Repository) GetProgressMilestone(ctx context.Context, studentID, badgeSlug string) (*model.Milestone, error) {
	var m model.Milestone
	err := r.milestones.FindOne(ctx, bson.M{
		"student_id": studentID,
		"badge_slug": badgeSlug,
		"status":     model.MilestoneInProgress,
	}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveProgressMilestone upserts the single in-progress tracker for a
// (student, badge) pair.
func (r *Repository) SaveProgressMilestone(ctx context.Context, m model.Milestone) error {
	_, err := r.milestones.ReplaceOne(ctx, bson.M{
		"student_id": m.StudentID,
		"badge_slug": m.BadgeSlug,
		"status":     model.MilestoneInProgress,
	}, m, options.Replace().SetUpsert(true))
	return err
}

// DeleteProgressMilestone closes the tracker once the earned milestone
// supersedes it.
func (r *Repository) DeleteProgressMilestone(ctx context.Context, studentID, badgeSlug string) error {
	_, err := r.milestones.DeleteOne(ctx, bson.M{
		"student_id": studentID,
		"badge_slug": badgeSlug,
		"status":     model.MilestoneInProgress,
	})
	return err
}

func (r *Repository) ListMilestones(ctx context.Context, studentID string) ([]model.Milestone, error) {
	cursor, err := r.milestones.Find(ctx, bson.M{"student_id": studentID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []model.Milestone
	if err = cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetStreak loads a student's streak state, zero-valued when absent.
func (r *Repository) GetStreak(ctx context.Context, studentID string) (model.StreakState, error) {
	var st model.StreakState
	err := r.streaks.FindOne(ctx, bson.M{"student_id": studentID}).Decode(&st)
	if err == mongo.ErrNoDocuments {
		return model.StreakState{StudentID: studentID}, nil
	}
	if err != nil {
		return model.StreakState{}, err
	}
	return st, nil
}

// SaveStreak persists streak state under the same version discipline as
// leaderboards.
func (r *Repository) SaveStreak(ctx context.Context, st model.StreakState) error {
	prev := st.Version
	st.Version = prev + 1

	if prev == 0 {
		_, err := r.streaks.InsertOne(ctx, st)
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return err
	}

	res, err := r.streaks.ReplaceOne(ctx,
		bson.M{"student_id": st.StudentID, "version": prev}, st)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

// GetStudentProfile loads a student's aggregate profile, zero-valued when
// the student has no history yet.
func (r *Repository) GetStudentProfile(ctx context.Context, studentID string) (model.StudentProfile, error) {
	var p model.StudentProfile
	err := r.profiles.FindOne(ctx, bson.M{"student_id": studentID}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return model.StudentProfile{StudentID: studentID}, nil
	}
	if err != nil {
		return model.StudentProfile{}, err
	}
	return p, nil
}

// SaveStudentProfile persists a profile under the same version discipline as
// leaderboards and streaks.
func (r *Repository) SaveStudentProfile(ctx context.Context, p model.StudentProfile) error {
	prev := p.Version
	p.Version = prev + 1

	if prev == 0 {
		_, err := r.profiles.InsertOne(ctx, p)
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		return err
	}

	res, err := r.profiles.ReplaceOne(ctx,
		bson.M{"student_id": p.StudentID, "version": prev}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

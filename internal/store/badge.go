package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest/ent"
	"github.com/lingoquest/lingoquest/ent/achievement"
	"github.com/lingoquest/lingoquest/ent/badge"
)

// UpsertBadge inserts or replaces the badge identified by rec.Code.
func (q *Queries) UpsertBadge(ctx context.Context, rec BadgeRecord) error {
	err := q.client.Badge.Create().
		SetCode(rec.Code).
		SetName(rec.Name).
		SetDescription(rec.Description).
		SetCriterion(rec.Criterion).
		SetThreshold(rec.Threshold).
		SetBonusXp(rec.BonusXP).
		OnConflictColumns(badge.FieldCode).
		UpdateNewValues().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert badge %q: %w", rec.Code, err)
	}
	return nil
}

// Badges returns every badge definition ordered by id.
func (q *Queries) Badges(ctx context.Context) ([]BadgeRecord, error) {
	rows, err := q.client.Badge.Query().
		Order(ent.Asc(badge.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	records := make([]BadgeRecord, len(rows))
	for i, r := range rows {
		records[i] = BadgeRecord{
			ID:          r.ID,
			Code:        r.Code,
			Name:        r.Name,
			Description: r.Description,
			Criterion:   r.Criterion,
			Threshold:   r.Threshold,
			BonusXP:     r.BonusXp,
		}
	}
	return records, nil
}

// Achievements returns the badges a user has earned, oldest first.
func (q *Queries) Achievements(ctx context.Context, userID int) ([]AchievementRecord, error) {
	rows, err := q.client.Achievement.Query().
		Where(achievement.UserID(userID)).
		Order(ent.Asc(achievement.FieldEarnedAt), ent.Asc(achievement.FieldID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query achievements: %w", err)
	}
	records := make([]AchievementRecord, len(rows))
	for i, r := range rows {
		records[i] = AchievementRecord{BadgeCode: r.BadgeCode, EarnedAt: r.EarnedAt}
	}
	return records, nil
}

// EarnedBadgeCodes returns the set of badge codes a user holds.
func (q *Queries) EarnedBadgeCodes(ctx context.Context, userID int) (map[string]bool, error) {
	codes, err := q.client.Achievement.Query().
		Where(achievement.UserID(userID)).
		Select(achievement.FieldBadgeCode).
		Strings(ctx)
	if err != nil {
		return nil, fmt.Errorf("query earned badges: %w", err)
	}
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set, nil
}

// InsertAchievement records that the user earned code. A second grant of the
// same badge fails with apperr.ErrConflict.
func (q *Queries) InsertAchievement(ctx context.Context, userID int, code string, at time.Time) error {
	err := q.client.Achievement.Create().
		SetUserID(userID).
		SetBadgeCode(code).
		SetEarnedAt(at.UTC()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert achievement %q: %w", code, mapErr(err))
	}
	return nil
}

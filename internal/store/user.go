package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest/ent"
	"github.com/lingoquest/lingoquest/ent/user"
)

// EnsureUser returns the user registered under externalID, creating it on
// first contact. created reports whether this call inserted the row.
func (q *Queries) EnsureUser(ctx context.Context, externalID, displayName string) (rec *UserRecord, created bool, err error) {
	u, err := q.client.User.Query().Where(user.ExternalID(externalID)).Only(ctx)
	if err == nil {
		return userToRecord(u), false, nil
	}
	if !ent.IsNotFound(err) {
		return nil, false, fmt.Errorf("query user %q: %w", externalID, err)
	}

	u, err = q.client.User.Create().
		SetExternalID(externalID).
		SetDisplayName(displayName).
		Save(ctx)
	if ent.IsConstraintError(err) {
		// A concurrent registration won; return its row.
		u, err = q.client.User.Query().Where(user.ExternalID(externalID)).Only(ctx)
		if err != nil {
			return nil, false, fmt.Errorf("query user %q: %w", externalID, mapErr(err))
		}
		return userToRecord(u), false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create user %q: %w", externalID, err)
	}
	return userToRecord(u), true, nil
}

// GetUser returns the user with id or apperr.ErrNotFound.
func (q *Queries) GetUser(ctx context.Context, id int) (*UserRecord, error) {
	u, err := q.client.User.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, mapErr(err))
	}
	return userToRecord(u), nil
}

// AddPoints atomically adds delta to the user's total and returns the new
// total. A negative delta that would drop the total below zero fails with
// ErrInsufficientPoints and changes nothing.
func (q *Queries) AddPoints(ctx context.Context, id, delta int) (int, error) {
	upd := q.client.User.Update().Where(user.ID(id))
	if delta < 0 {
		upd = upd.Where(user.TotalPointsGTE(-delta))
	}
	n, err := upd.AddTotalPoints(delta).Save(ctx)
	if err != nil {
		return 0, fmt.Errorf("add points to user %d: %w", id, err)
	}
	if n == 0 {
		if _, err := q.GetUser(ctx, id); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("add %d points to user %d: %w", delta, id, ErrInsufficientPoints)
	}

	u, err := q.client.User.Get(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("reload user %d: %w", id, mapErr(err))
	}
	return u.TotalPoints, nil
}

// SetLevel stores the derived level and in-level XP.
func (q *Queries) SetLevel(ctx context.Context, id, level, currentXP int) error {
	err := q.client.User.UpdateOneID(id).
		SetCurrentLevel(level).
		SetCurrentXp(currentXP).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set level for user %d: %w", id, mapErr(err))
	}
	return nil
}

// TouchStreak records activity on calendar day today. The streak grows by one
// when the previous active day was yesterday, restarts at 1 after a gap, and
// is left alone when the user was already active today. Each branch is a
// single conditional UPDATE so that concurrent calls on the same day count
// once. advanced reports whether this call changed the streak.
func (q *Queries) TouchStreak(ctx context.Context, id int, today, yesterday string, now time.Time) (streak int, advanced bool, err error) {
	now = now.UTC()
	n, err := q.client.User.Update().
		Where(user.ID(id), user.LastActiveDay(yesterday)).
		AddStreak(1).
		SetLastActiveDay(today).
		SetLastActiveAt(now).
		Save(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("extend streak for user %d: %w", id, err)
	}

	if n == 0 {
		n, err = q.client.User.Update().
			Where(
				user.ID(id),
				user.Or(user.LastActiveDayIsNil(), user.LastActiveDayLT(yesterday)),
			).
			SetStreak(1).
			SetLastActiveDay(today).
			SetLastActiveAt(now).
			Save(ctx)
		if err != nil {
			return 0, false, fmt.Errorf("reset streak for user %d: %w", id, err)
		}
	}

	if n == 0 {
		err = q.client.User.UpdateOneID(id).SetLastActiveAt(now).Exec(ctx)
		if err != nil {
			return 0, false, fmt.Errorf("touch user %d: %w", id, mapErr(err))
		}
	}

	u, err := q.client.User.Get(ctx, id)
	if err != nil {
		return 0, false, fmt.Errorf("reload user %d: %w", id, mapErr(err))
	}
	return u.Streak, n > 0, nil
}

// ClaimSpin sets last_spin_at to now if the previous spin is older than
// cooldown. When the claim loses, claimed is false and last holds the spin
// time that blocks it.
func (q *Queries) ClaimSpin(ctx context.Context, id int, now time.Time, cooldown time.Duration) (claimed bool, last *time.Time, err error) {
	now = now.UTC()
	n, err := q.client.User.Update().
		Where(
			user.ID(id),
			user.Or(user.LastSpinAtIsNil(), user.LastSpinAtLTE(now.Add(-cooldown))),
		).
		SetLastSpinAt(now).
		Save(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("claim spin for user %d: %w", id, err)
	}
	if n == 1 {
		return true, nil, nil
	}

	u, err := q.GetUser(ctx, id)
	if err != nil {
		return false, nil, err
	}
	return false, u.LastSpinAt, nil
}

// ActiveUserIDs returns users active at or after since.
func (q *Queries) ActiveUserIDs(ctx context.Context, since time.Time) ([]int, error) {
	ids, err := q.client.User.Query().
		Where(user.LastActiveAtGTE(since.UTC())).
		Order(ent.Asc(user.FieldID)).
		IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("query active users: %w", err)
	}
	return ids, nil
}

// TopUsers returns users ordered by lifetime points, ties broken by id.
func (q *Queries) TopUsers(ctx context.Context, limit int) ([]UserRecord, error) {
	users, err := q.client.User.Query().
		Order(ent.Desc(user.FieldTotalPoints), ent.Asc(user.FieldID)).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query top users: %w", err)
	}
	records := make([]UserRecord, len(users))
	for i, u := range users {
		records[i] = *userToRecord(u)
	}
	return records, nil
}

// IsInsufficientPoints reports whether err is or wraps ErrInsufficientPoints.
func IsInsufficientPoints(err error) bool {
	return errors.Is(err, ErrInsufficientPoints)
}

func userToRecord(u *ent.User) *UserRecord {
	rec := &UserRecord{
		ID:           u.ID,
		ExternalID:   u.ExternalID,
		DisplayName:  u.DisplayName,
		Level:        u.CurrentLevel,
		CurrentXP:    u.CurrentXp,
		TotalPoints:  u.TotalPoints,
		Streak:       u.Streak,
		LastActiveAt: u.LastActiveAt,
		LastSpinAt:   u.LastSpinAt,
		CreatedAt:    u.CreatedAt,
	}
	if u.LastActiveDay != nil {
		rec.LastActiveDay = *u.LastActiveDay
	}
	return rec
}

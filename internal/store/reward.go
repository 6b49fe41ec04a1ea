package store

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest/ent"
	"github.com/lingoquest/lingoquest/ent/rewardclaim"
	"github.com/lingoquest/lingoquest/ent/rewardgrant"
	"github.com/lingoquest/lingoquest/internal/apperr"
)

// CountClaims returns how many claims of kind the user made on day.
func (q *Queries) CountClaims(ctx context.Context, userID int, kind, day string) (int, error) {
	n, err := q.client.RewardClaim.Query().
		Where(
			rewardclaim.UserID(userID),
			rewardclaim.Kind(kind),
			rewardclaim.Day(day),
		).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s claims: %w", kind, err)
	}
	return n, nil
}

// ClaimSlot takes the next of limit daily slots for kind. ok is false when
// every slot of day is already used. Two requests racing for the same slot
// collide on the unique (user, kind, day, slot) index and the loser gets
// apperr.ErrConflict.
func (q *Queries) ClaimSlot(ctx context.Context, userID int, kind, day string, limit int) (slot int, ok bool, err error) {
	used, err := q.CountClaims(ctx, userID, kind, day)
	if err != nil {
		return 0, false, err
	}
	if used >= limit {
		return 0, false, nil
	}

	slot = used + 1
	err = q.client.RewardClaim.Create().
		SetUserID(userID).
		SetKind(kind).
		SetDay(day).
		SetSlot(slot).
		Exec(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("claim %s slot %d: %w", kind, slot, mapErr(err))
	}
	return slot, true, nil
}

// AddGrant gives the user an unconsumed reward of kind.
func (q *Queries) AddGrant(ctx context.Context, userID int, kind, source string) (int, error) {
	g, err := q.client.RewardGrant.Create().
		SetUserID(userID).
		SetKind(kind).
		SetSource(source).
		Save(ctx)
	if err != nil {
		return 0, fmt.Errorf("add %s grant: %w", kind, err)
	}
	return g.ID, nil
}

// ConsumeGrant marks the user's oldest unconsumed grant of kind as used.
// It returns apperr.ErrNotFound when the user holds none. The consumption is
// a conditional UPDATE on consumed_at IS NULL, so one grant is never spent
// twice.
func (q *Queries) ConsumeGrant(ctx context.Context, userID int, kind string, now time.Time) (*GrantRecord, error) {
	now = now.UTC()
	g, err := q.client.RewardGrant.Query().
		Where(
			rewardgrant.UserID(userID),
			rewardgrant.Kind(kind),
			rewardgrant.ConsumedAtIsNil(),
		).
		Order(ent.Asc(rewardgrant.FieldID)).
		First(ctx)
	if err != nil {
		return nil, fmt.Errorf("find %s grant: %w", kind, mapErr(err))
	}

	n, err := q.client.RewardGrant.Update().
		Where(rewardgrant.ID(g.ID), rewardgrant.ConsumedAtIsNil()).
		SetConsumedAt(now).
		Save(ctx)
	if err != nil {
		return nil, fmt.Errorf("consume %s grant: %w", kind, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("consume %s grant %d: %w", kind, g.ID, apperr.ErrConflict)
	}

	rec := grantToRecord(g)
	rec.ConsumedAt = &now
	return &rec, nil
}

// PendingGrants returns the number of unconsumed grants per kind.
func (q *Queries) PendingGrants(ctx context.Context, userID int) (map[string]int, error) {
	kinds, err := q.client.RewardGrant.Query().
		Where(rewardgrant.UserID(userID), rewardgrant.ConsumedAtIsNil()).
		Select(rewardgrant.FieldKind).
		Strings(ctx)
	if err != nil {
		return nil, fmt.Errorf("query pending grants: %w", err)
	}
	counts := make(map[string]int)
	for _, k := range kinds {
		counts[k]++
	}
	return counts, nil
}

func grantToRecord(g *ent.RewardGrant) GrantRecord {
	return GrantRecord{
		ID:         g.ID,
		UserID:     g.UserID,
		Kind:       g.Kind,
		Source:     g.Source,
		CreatedAt:  g.CreatedAt,
		ConsumedAt: g.ConsumedAt,
	}
}

package store

import (
	"context"
	"fmt"

	"github.com/lingoquest/lingoquest/ent/activitycounter"
)

// IncrementActivity adds n to the user's counter for kind, creating it on
// first use. The upsert is a single statement.
func (q *Queries) IncrementActivity(ctx context.Context, userID int, kind string, n int) error {
	err := q.client.ActivityCounter.Create().
		SetUserID(userID).
		SetKind(kind).
		SetCount(n).
		OnConflictColumns(activitycounter.FieldUserID, activitycounter.FieldKind).
		AddCount(n).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("increment %s counter: %w", kind, err)
	}
	return nil
}

// SetActivity overwrites the user's counter for kind. It is used for gauges
// such as the current run of improved scores.
func (q *Queries) SetActivity(ctx context.Context, userID int, kind string, value int) error {
	err := q.client.ActivityCounter.Create().
		SetUserID(userID).
		SetKind(kind).
		SetCount(value).
		OnConflictColumns(activitycounter.FieldUserID, activitycounter.FieldKind).
		UpdateCount().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("set %s counter: %w", kind, err)
	}
	return nil
}

// ActivityCounts returns every counter of the user keyed by kind.
func (q *Queries) ActivityCounts(ctx context.Context, userID int) (map[string]int, error) {
	rows, err := q.client.ActivityCounter.Query().
		Where(activitycounter.UserID(userID)).
		All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query activity counters: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Kind] = r.Count
	}
	return counts, nil
}

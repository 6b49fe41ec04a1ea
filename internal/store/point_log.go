package store

import (
	"context"
	"fmt"

	"github.com/lingoquest/lingoquest/ent"
	"github.com/lingoquest/lingoquest/ent/pointlog"
)

// AppendPointLog adds one immutable ledger entry.
func (q *Queries) AppendPointLog(ctx context.Context, userID, points int, source, description string) error {
	err := q.client.PointLog.Create().
		SetUserID(userID).
		SetPoints(points).
		SetSource(source).
		SetDescription(description).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("append point log: %w", err)
	}
	return nil
}

// PointLogs returns a user's ledger entries, newest first.
func (q *Queries) PointLogs(ctx context.Context, userID, limit int) ([]PointLogRecord, error) {
	query := q.client.PointLog.Query().
		Where(pointlog.UserID(userID)).
		Order(ent.Desc(pointlog.FieldCreatedAt), ent.Desc(pointlog.FieldID))
	if limit > 0 {
		query = query.Limit(limit)
	}

	rows, err := query.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("query point logs: %w", err)
	}
	records := make([]PointLogRecord, len(rows))
	for i, r := range rows {
		records[i] = PointLogRecord{
			ID:          r.ID,
			UserID:      r.UserID,
			Points:      r.Points,
			Source:      r.Source,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		}
	}
	return records, nil
}

// PointSum returns the sum of every ledger entry for a user.
func (q *Queries) PointSum(ctx context.Context, userID int) (int, error) {
	points, err := q.client.PointLog.Query().
		Where(pointlog.UserID(userID)).
		Select(pointlog.FieldPoints).
		Ints(ctx)
	if err != nil {
		return 0, fmt.Errorf("sum point logs: %w", err)
	}
	total := 0
	for _, p := range points {
		total += p
	}
	return total, nil
}

package progression

import (
	"context"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/store"
)

// Point sources recorded in the ledger.
const (
	SourceAnswer  = "answer"
	SourceRound   = "round"
	SourceBadge   = "badge"
	SourceSpin    = "spin"
	SourceMystery = "mystery_box"
	SourceGacha   = "gacha"
	SourceAdjust  = "adjustment"
)

// Store is the persistence the ledger needs. *store.Store satisfies it.
type Store interface {
	Queries() *store.Queries
	InTx(ctx context.Context, fn func(q *store.Queries) error) error
}

// Change describes the effect of one ledger entry.
type Change struct {
	UserID    int  `json:"userId"`
	Delta     int  `json:"delta"`
	NewTotal  int  `json:"newTotal"`
	OldLevel  int  `json:"oldLevel"`
	NewLevel  int  `json:"newLevel"`
	LeveledUp bool `json:"leveledUp"`
}

// StreakResult is the outcome of UpdateStreak.
type StreakResult struct {
	Streak   int  `json:"streak"`
	Advanced bool `json:"advanced"`
}

// Rebuild reports a reconstructability check.
type Rebuild struct {
	UserID       int  `json:"userId"`
	TotalPoints  int  `json:"totalPoints"`
	LogSum       int  `json:"logSum"`
	StoredLevel  int  `json:"storedLevel"`
	DerivedLevel int  `json:"derivedLevel"`
	Drift        bool `json:"drift"`
	Repaired     bool `json:"repaired"`
}

// Ledger applies XP changes. Every change updates the user's total, the
// derived level and the point log in one transaction.
type Ledger struct {
	st  Store
	cal Calendar
	now func() time.Time
	log *logger.Logger
}

// NewLedger creates a Ledger bucketing streak days with cal.
func NewLedger(st Store, cal Calendar, log *logger.Logger) *Ledger {
	return &Ledger{st: st, cal: cal, now: time.Now, log: log}
}

// SetClock replaces the time source.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Calendar returns the ledger's calendar.
func (l *Ledger) Calendar() Calendar {
	return l.cal
}

// Apply adds delta to the user's points in its own transaction.
func (l *Ledger) Apply(ctx context.Context, userID, delta int, source, description string) (Change, error) {
	var ch Change
	err := l.st.InTx(ctx, func(q *store.Queries) error {
		var err error
		ch, err = l.ApplyTx(ctx, q, userID, delta, source, description)
		return err
	})
	return ch, err
}

// ApplyTx adds delta using q, which must be bound to the caller's
// transaction. The total, level and log entry move together with the
// caller's other writes.
func (l *Ledger) ApplyTx(ctx context.Context, q *store.Queries, userID, delta int, source, description string) (Change, error) {
	if delta == 0 {
		return Change{}, apperr.Invalid("delta", "must be non-zero")
	}
	if source == "" {
		return Change{}, apperr.Invalid("source", "is required")
	}

	u, err := q.GetUser(ctx, userID)
	if err != nil {
		return Change{}, err
	}

	total, err := q.AddPoints(ctx, userID, delta)
	if store.IsInsufficientPoints(err) {
		return Change{}, &apperr.ValidationError{Field: "delta", Reason: fmt.Sprintf("user %d cannot lose %d points", userID, -delta), Err: err}
	}
	if err != nil {
		return Change{}, err
	}

	level := LevelFor(total)
	if err := q.SetLevel(ctx, userID, level, total-Threshold(level)); err != nil {
		return Change{}, err
	}
	if err := q.AppendPointLog(ctx, userID, delta, source, description); err != nil {
		return Change{}, err
	}

	ch := Change{
		UserID:    userID,
		Delta:     delta,
		NewTotal:  total,
		OldLevel:  u.Level,
		NewLevel:  level,
		LeveledUp: level > u.Level,
	}
	if ch.LeveledUp {
		l.log.Info("level up", "user_id", userID, "level", level, "total", total)
	}
	return ch, nil
}

// UpdateStreak records activity now. Repeated calls on one calendar day
// leave the streak unchanged.
func (l *Ledger) UpdateStreak(ctx context.Context, userID int) (StreakResult, error) {
	return l.UpdateStreakTx(ctx, l.st.Queries(), userID)
}

// UpdateStreakTx is UpdateStreak on the caller's Queries.
func (l *Ledger) UpdateStreakTx(ctx context.Context, q *store.Queries, userID int) (StreakResult, error) {
	now := l.now()
	streak, advanced, err := q.TouchStreak(ctx, userID, l.cal.Day(now), l.cal.Yesterday(now), now)
	if err != nil {
		return StreakResult{}, err
	}
	return StreakResult{Streak: streak, Advanced: advanced}, nil
}

// Progress returns the user's level progress and streak.
func (l *Ledger) Progress(ctx context.Context, userID int) (Progress, error) {
	u, err := l.st.Queries().GetUser(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	p := ProgressFor(u.TotalPoints)
	p.Streak = u.Streak
	return p, nil
}

// History lists the user's most recent ledger entries, newest first.
func (l *Ledger) History(ctx context.Context, userID, limit int) ([]store.PointLogRecord, error) {
	q := l.st.Queries()
	if _, err := q.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return q.PointLogs(ctx, userID, limit)
}

// RebuildLevel recomputes the level from the point log. When the log agrees
// with the stored total but the stored level does not, the level is
// repaired; a total that disagrees with its log is reported, not changed.
func (l *Ledger) RebuildLevel(ctx context.Context, userID int) (Rebuild, error) {
	var rb Rebuild
	err := l.st.InTx(ctx, func(q *store.Queries) error {
		u, err := q.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		sum, err := q.PointSum(ctx, userID)
		if err != nil {
			return err
		}

		rb = Rebuild{
			UserID:       userID,
			TotalPoints:  u.TotalPoints,
			LogSum:       sum,
			StoredLevel:  u.Level,
			DerivedLevel: LevelFor(sum),
		}
		rb.Drift = sum != u.TotalPoints || rb.DerivedLevel != u.Level ||
			u.CurrentXP != sum-Threshold(rb.DerivedLevel)
		if !rb.Drift || sum != u.TotalPoints {
			return nil
		}

		if err := q.SetLevel(ctx, userID, rb.DerivedLevel, sum-Threshold(rb.DerivedLevel)); err != nil {
			return err
		}
		rb.Repaired = true
		return nil
	})
	if err != nil {
		return Rebuild{}, fmt.Errorf("rebuild level for user %d: %w", userID, err)
	}
	if rb.Drift {
		l.log.Warn("level drift", "user_id", userID, "total", rb.TotalPoints, "log_sum", rb.LogSum,
			"stored_level", rb.StoredLevel, "derived_level", rb.DerivedLevel, "repaired", rb.Repaired)
	}
	return rb, nil
}

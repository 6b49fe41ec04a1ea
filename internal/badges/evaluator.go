package badges

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/progression"
	"github.com/lingoquest/lingoquest/internal/session"
	"github.com/lingoquest/lingoquest/internal/store"
)

// Activity kinds counted by the engine itself.
const (
	ActivityPracticeGames = string(KindPracticeGames)
	ActivityPerfectRounds = "perfect_rounds"
)

// Badge is a badge definition with its criterion parsed.
type Badge struct {
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Criterion   Criterion `json:"-"`
	BonusXP     int       `json:"bonusXp"`
}

// FromRecord parses a stored badge.
func FromRecord(rec store.BadgeRecord) (Badge, error) {
	k, err := ParseKind(rec.Criterion)
	if err != nil {
		return Badge{}, fmt.Errorf("badge %q: %w", rec.Code, err)
	}
	return Badge{
		Code:        rec.Code,
		Name:        rec.Name,
		Description: rec.Description,
		Criterion:   Criterion{Kind: k, Threshold: rec.Threshold},
		BonusXP:     rec.BonusXP,
	}, nil
}

// Grant is a newly earned badge.
type Grant struct {
	Badge
	Level     int       `json:"level"`
	LeveledUp bool      `json:"leveledUp"`
	NewTotal  int       `json:"newTotal"`
	EarnedAt  time.Time `json:"earnedAt"`
}

// Evaluator checks badge criteria and grants earned badges.
type Evaluator struct {
	st     progression.Store
	ledger *progression.Ledger
	now    func() time.Time
	log    *logger.Logger
}

// NewEvaluator creates an Evaluator paying bonuses through ledger.
func NewEvaluator(st progression.Store, ledger *progression.Ledger, log *logger.Logger) *Evaluator {
	return &Evaluator{st: st, ledger: ledger, now: time.Now, log: log}
}

// SetClock replaces the time source.
func (e *Evaluator) SetClock(now func() time.Time) {
	e.now = now
}

// Stats gathers the user's aggregate activity.
func (e *Evaluator) Stats(ctx context.Context, userID int) (Stats, error) {
	q := e.st.Queries()
	u, err := q.GetUser(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	counts, err := q.ActivityCounts(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	collection, err := q.CollectionSize(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	perfectSessions, err := q.CountSessions(ctx, userID, string(session.StatusCompleted), true)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		FeedbackCount:       counts[string(KindFeedbackCount)],
		ImprovedScoreStreak: counts[string(KindImprovedScoreStreak)],
		OnTimeSubmissions:   counts[string(KindOnTimeSubmissions)],
		StreakDays:          u.Streak,
		MessageCount:        counts[string(KindMessageCount)],
		PracticeGames:       counts[ActivityPracticeGames],
		WeeklySubmissions:   counts[string(KindWeeklySubmissions)],
		VocabCollection:     collection,
		Level:               u.Level,
		PerfectScores:       perfectSessions + counts[ActivityPerfectRounds],
	}, nil
}

// Badges returns every parseable badge definition. Definitions with an
// unknown criterion are logged and skipped.
func (e *Evaluator) Badges(ctx context.Context) ([]Badge, error) {
	recs, err := e.st.Queries().Badges(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Badge, 0, len(recs))
	for _, rec := range recs {
		b, err := FromRecord(rec)
		if err != nil {
			e.log.Warn("skipping badge", "code", rec.Code, "error", err)
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// CheckAndGrant grants every badge the user has not earned whose criterion
// their current stats satisfy. trigger labels the event that prompted the
// check. A bonus can raise the user's level, so evaluation repeats until a
// pass grants nothing. Badges already held, including ones a concurrent call
// just granted, are skipped without paying again.
func (e *Evaluator) CheckAndGrant(ctx context.Context, userID int, trigger string) ([]Grant, error) {
	defs, err := e.Badges(ctx)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return nil, nil
	}

	var granted []Grant
	for pass := 0; pass <= len(defs); pass++ {
		earned, err := e.st.Queries().EarnedBadgeCodes(ctx, userID)
		if err != nil {
			return granted, err
		}
		stats, err := e.Stats(ctx, userID)
		if err != nil {
			return granted, err
		}

		n := 0
		for _, b := range defs {
			if earned[b.Code] || !b.Criterion.Met(stats) {
				continue
			}
			g, ok, err := e.grant(ctx, userID, b)
			if err != nil {
				return granted, err
			}
			if ok {
				granted = append(granted, g)
				n++
				e.log.Info("badge granted", "user_id", userID, "badge", b.Code, "trigger", trigger, "bonus_xp", b.BonusXP)
			}
		}
		if n == 0 {
			break
		}
	}
	return granted, nil
}

// grant inserts the achievement and pays its bonus in one transaction. ok is
// false when another request already holds the achievement.
func (e *Evaluator) grant(ctx context.Context, userID int, b Badge) (g Grant, ok bool, err error) {
	at := e.now()
	err = e.st.InTx(ctx, func(q *store.Queries) error {
		if err := q.InsertAchievement(ctx, userID, b.Code, at); err != nil {
			return err
		}
		g = Grant{Badge: b, EarnedAt: at}
		if b.BonusXP <= 0 {
			u, err := q.GetUser(ctx, userID)
			if err != nil {
				return err
			}
			g.Level, g.NewTotal = u.Level, u.TotalPoints
			return nil
		}
		ch, err := e.ledger.ApplyTx(ctx, q, userID, b.BonusXP, progression.SourceBadge, "badge: "+b.Code)
		if err != nil {
			return err
		}
		g.Level, g.LeveledUp, g.NewTotal = ch.NewLevel, ch.LeveledUp, ch.NewTotal
		return nil
	})
	if errors.Is(err, apperr.ErrConflict) {
		return Grant{}, false, nil
	}
	if err != nil {
		return Grant{}, false, fmt.Errorf("grant badge %q: %w", b.Code, err)
	}
	return g, true, nil
}

// Sweep runs CheckAndGrant for every user active since the given time and
// returns how many badges were granted. A failure for one user is logged and
// does not stop the sweep.
func (e *Evaluator) Sweep(ctx context.Context, since time.Time) (int, error) {
	ids, err := e.st.Queries().ActiveUserIDs(ctx, since)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		g, err := e.CheckAndGrant(ctx, id, "sweep")
		if err != nil {
			e.log.Error("badge sweep failed", "user_id", id, "error", err)
			continue
		}
		total += len(g)
	}
	return total, nil
}

// Package engine is the surface the chat layer calls: question batches,
// answer submission, rewards and progress. It composes the ledger, badge
// evaluator, reward arbiter, game evaluators and session manager over one
// store handle.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/badges"
	"github.com/lingoquest/lingoquest/internal/games"
	"github.com/lingoquest/lingoquest/internal/history"
	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/progression"
	"github.com/lingoquest/lingoquest/internal/rewards"
	"github.com/lingoquest/lingoquest/internal/session"
	"github.com/lingoquest/lingoquest/internal/store"
)

// Config tunes the engine.
type Config struct {
	// HistoryCooldown is how long an answered question is deprioritized.
	HistoryCooldown time.Duration
	// AnswerDedupWindow rejects a second delivery of the same answer. An
	// answer to a question of the latest served batch is also rejected when
	// the question was already answered since that batch was served.
	AnswerDedupWindow time.Duration
	// Location buckets calendar days for streaks and daily limits.
	Location *time.Location
	Rewards  rewards.Config
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		HistoryCooldown:   history.DefaultCooldown,
		AnswerDedupWindow: 2 * time.Minute,
		Location:          time.UTC,
		Rewards:           rewards.DefaultConfig(),
	}
}

// Options are the engine's replaceable collaborators. Zero values select
// production defaults.
type Options struct {
	Judge   games.Judge
	Shuffle history.ShuffleFunc
	Random  rewards.Source
	Now     func() time.Time
	Logger  *logger.Logger
}

// Engine is safe for concurrent use. It holds no per-user state: everything
// a request needs is read from and written back to the store.
type Engine struct {
	st       *store.Store
	cfg      Config
	now      func() time.Time
	log      *logger.Logger
	ledger   *progression.Ledger
	badges   *badges.Evaluator
	arbiter  *rewards.Arbiter
	fetcher  *games.Fetcher
	eval     *games.Evaluator
	sessions *session.Manager
}

// New wires an Engine over st.
func New(st *store.Store, cfg Config, opts Options) *Engine {
	def := DefaultConfig()
	if cfg.HistoryCooldown <= 0 {
		cfg.HistoryCooldown = def.HistoryCooldown
	}
	if cfg.AnswerDedupWindow <= 0 {
		cfg.AnswerDedupWindow = def.AnswerDedupWindow
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	log := opts.Logger

	ledger := progression.NewLedger(st, progression.NewCalendar(cfg.Location), log.With("component", "ledger"))
	ledger.SetClock(now)
	badgeEval := badges.NewEvaluator(st, ledger, log.With("component", "badges"))
	badgeEval.SetClock(now)
	arbiter := rewards.NewArbiter(st, ledger, cfg.Rewards, opts.Random, log.With("component", "rewards"))
	arbiter.SetClock(now)
	sessions := session.NewManager()
	sessions.SetClock(now)

	return &Engine{
		st:       st,
		cfg:      cfg,
		now:      now,
		log:      log,
		ledger:   ledger,
		badges:   badgeEval,
		arbiter:  arbiter,
		fetcher:  games.NewFetcher(history.NewTracker(cfg.HistoryCooldown, now), opts.Shuffle, log.With("component", "fetch")),
		eval:     games.NewEvaluator(opts.Judge, log.With("component", "evaluate")),
		sessions: sessions,
	}
}

// Ledger exposes the progression ledger.
func (e *Engine) Ledger() *progression.Ledger { return e.ledger }

// Badges exposes the badge evaluator.
func (e *Engine) Badges() *badges.Evaluator { return e.badges }

// EnsureUser registers a chat user on first contact and returns it.
func (e *Engine) EnsureUser(ctx context.Context, externalID, displayName string) (*store.UserRecord, bool, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, false, apperr.Invalid("externalId", "is required")
	}
	u, created, err := e.st.Queries().EnsureUser(ctx, externalID, strings.TrimSpace(displayName))
	if err != nil {
		return nil, false, err
	}
	if created {
		e.log.Info("user registered", "user_id", u.ID)
	}
	return u, created, nil
}

// user loads a user, reporting a missing one as a validation error.
func (e *Engine) user(ctx context.Context, userID int) (*store.UserRecord, error) {
	u, err := e.st.Queries().GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// afterActivity updates the streak and grants any badges now earned. The
// triggering action has already committed, so failures here are logged and
// do not fail the request.
func (e *Engine) afterActivity(ctx context.Context, userID int, trigger string) (progression.StreakResult, []badges.Grant) {
	streak, err := e.ledger.UpdateStreak(ctx, userID)
	if err != nil {
		e.log.Error("update streak failed", "user_id", userID, "trigger", trigger, "error", err)
	}
	granted, err := e.badges.CheckAndGrant(ctx, userID, trigger)
	if err != nil {
		e.log.Error("badge check failed", "user_id", userID, "trigger", trigger, "error", err)
	}
	return streak, granted
}

// Progress is a user's progression summary.
type Progress struct {
	progression.Progress
	UserID         int            `json:"userId"`
	DisplayName    string         `json:"displayName"`
	Badges         []string       `json:"badges"`
	CollectionSize int            `json:"collectionSize"`
	PendingGrants  map[string]int `json:"pendingGrants,omitempty"`
	GachaPulls     int            `json:"gachaPullsToday"`
}

// GetProgress returns the user's level, XP and streak with their badges and
// reward inventory.
func (e *Engine) GetProgress(ctx context.Context, userID int) (Progress, error) {
	q := e.st.Queries()
	u, err := e.user(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	p := progression.ProgressFor(u.TotalPoints)
	p.Streak = u.Streak

	ach, err := q.Achievements(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	codes := make([]string, len(ach))
	for i, a := range ach {
		codes[i] = a.BadgeCode
	}
	size, err := q.CollectionSize(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	pending, err := q.PendingGrants(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	pulls, err := e.arbiter.PullsToday(ctx, userID)
	if err != nil {
		return Progress{}, err
	}

	return Progress{
		Progress:       p,
		UserID:         u.ID,
		DisplayName:    u.DisplayName,
		Badges:         codes,
		CollectionSize: size,
		PendingGrants:  pending,
		GachaPulls:     pulls,
	}, nil
}

// History lists the user's ledger entries, newest first.
func (e *Engine) History(ctx context.Context, userID, limit int) ([]store.PointLogRecord, error) {
	if limit < 0 {
		return nil, apperr.Invalid("limit", "must not be negative")
	}
	return e.ledger.History(ctx, userID, limit)
}

// RebuildLevel recomputes the user's level from their point log.
func (e *Engine) RebuildLevel(ctx context.Context, userID int) (progression.Rebuild, error) {
	return e.ledger.RebuildLevel(ctx, userID)
}

// LeaderboardEntry is one ranked user.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      int    `json:"userId"`
	DisplayName string `json:"displayName"`
	Level       int    `json:"level"`
	TotalPoints int    `json:"totalPoints"`
}

// MaxLeaderboard caps a leaderboard request.
const MaxLeaderboard = 100

// Leaderboard returns the top users by lifetime points.
func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	switch {
	case limit <= 0:
		limit = 10
	case limit > MaxLeaderboard:
		limit = MaxLeaderboard
	}
	users, err := e.st.Queries().TopUsers(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]LeaderboardEntry, len(users))
	for i, u := range users {
		out[i] = LeaderboardEntry{
			Rank:        i + 1,
			UserID:      u.ID,
			DisplayName: u.DisplayName,
			Level:       u.Level,
			TotalPoints: u.TotalPoints,
		}
	}
	return out, nil
}

// SweepBadges grants badges to every user active since the given time.
func (e *Engine) SweepBadges(ctx context.Context, since time.Time) (int, error) {
	n, err := e.badges.Sweep(ctx, since)
	if err != nil {
		return n, fmt.Errorf("badge sweep: %w", err)
	}
	return n, nil
}

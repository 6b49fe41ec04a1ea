package games

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/history"
	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/store"
)

// QuestionSource reads questions and answer history.
type QuestionSource interface {
	history.Source
	QuestionsByGameType(ctx context.Context, gameType string, difficulties []string) ([]store.QuestionRecord, error)
}

// Batch is a set of questions served together.
type Batch struct {
	Questions []Question
	// Widened is set when no question matched the user's difficulty tiers
	// and the whole pool of the game type was used instead.
	Widened bool
}

// Fetcher selects question batches for users.
type Fetcher struct {
	tracker *history.Tracker
	shuffle history.ShuffleFunc
	log     *logger.Logger
}

// NewFetcher creates a Fetcher. A nil shuffle uses math/rand/v2.
func NewFetcher(tracker *history.Tracker, shuffle history.ShuffleFunc, log *logger.Logger) *Fetcher {
	if tracker == nil {
		tracker = history.NewTracker(history.DefaultCooldown, time.Now)
	}
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	return &Fetcher{tracker: tracker, shuffle: shuffle, log: log}
}

// Fetch returns up to count questions of gameType for a user at level,
// preferring questions the user has not answered within the cooldown.
func (f *Fetcher) Fetch(ctx context.Context, src QuestionSource, userID, level int, gameType string, count int) (Batch, error) {
	if _, err := Lookup(gameType); err != nil {
		return Batch{}, err
	}
	if count <= 0 {
		return Batch{}, apperr.Invalid("count", "must be positive, got %d", count)
	}

	records, err := src.QuestionsByGameType(ctx, gameType, nil)
	if err != nil {
		return Batch{}, fmt.Errorf("load %s questions: %w", gameType, err)
	}
	pool := make([]Question, len(records))
	for i, r := range records {
		pool[i] = FromRecord(r)
	}

	filtered, widened := history.WithinTiers(pool, func(q Question) string { return q.Difficulty }, level)
	if widened {
		f.log.Warn("no questions at user's difficulty, widening to all tiers",
			"game_type", gameType, "level", level, "pool", len(pool))
	}

	recent, err := f.tracker.RecentlyAnswered(ctx, src, userID, gameType)
	if err != nil {
		return Batch{}, err
	}

	selected := history.SelectBatch(filtered, func(q Question) int { return q.ID }, recent, count, f.shuffle)
	return Batch{Questions: selected, Widened: widened}, nil
}

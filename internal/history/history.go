// Package history decides which questions a user should see next: which
// difficulty tiers their level unlocks, which questions they answered
// recently, and how a batch is drawn so unseen questions come first.
package history

import (
	"context"
	"fmt"
	"time"
)

// Difficulty is a question tier.
type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Medium Difficulty = "MEDIUM"
	Hard   Difficulty = "HARD"
)

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// TiersFor returns the difficulty tiers unlocked at level. Each level's set
// contains every lower level's set.
func TiersFor(level int) []Difficulty {
	switch {
	case level >= 8:
		return []Difficulty{Easy, Medium, Hard}
	case level >= 4:
		return []Difficulty{Easy, Medium}
	default:
		return []Difficulty{Easy}
	}
}

// TierNames returns TiersFor(level) as strings for store queries.
func TierNames(level int) []string {
	tiers := TiersFor(level)
	names := make([]string, len(tiers))
	for i, t := range tiers {
		names[i] = string(t)
	}
	return names
}

// Source reads answer history.
type Source interface {
	AnsweredSince(ctx context.Context, userID int, gameType string, since time.Time) ([]int, error)
}

// DefaultCooldown is how long an answered question stays deprioritized.
const DefaultCooldown = 24 * time.Hour

// Tracker looks up recently answered questions.
type Tracker struct {
	cooldown time.Duration
	now      func() time.Time
}

// NewTracker creates a Tracker. A non-positive cooldown uses DefaultCooldown.
func NewTracker(cooldown time.Duration, now func() time.Time) *Tracker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{cooldown: cooldown, now: now}
}

// Cooldown returns the configured window.
func (t *Tracker) Cooldown() time.Duration {
	return t.cooldown
}

// RecentlyAnswered returns the ids of gameType questions the user answered
// within the cooldown window.
func (t *Tracker) RecentlyAnswered(ctx context.Context, src Source, userID int, gameType string) (map[int]bool, error) {
	ids, err := src.AnsweredSince(ctx, userID, gameType, t.now().Add(-t.cooldown))
	if err != nil {
		return nil, fmt.Errorf("recently answered: %w", err)
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// ShuffleFunc permutes n elements through swap, like rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// SelectBatch draws up to count candidates. Candidates not in exclude come
// first in shuffled order; when there are fewer than count of them the batch
// is padded with shuffled excluded candidates. Candidates sharing an id are
// considered once, so the batch never repeats an id and never contains
// anything outside candidates.
func SelectBatch[T any](candidates []T, id func(T) int, exclude map[int]bool, count int, shuffle ShuffleFunc) []T {
	if count <= 0 || len(candidates) == 0 {
		return nil
	}

	seenID := make(map[int]bool, len(candidates))
	var unseen, seen []T
	for _, c := range candidates {
		k := id(c)
		if seenID[k] {
			continue
		}
		seenID[k] = true
		if exclude[k] {
			seen = append(seen, c)
		} else {
			unseen = append(unseen, c)
		}
	}

	shuffle(len(unseen), func(i, j int) { unseen[i], unseen[j] = unseen[j], unseen[i] })
	if len(unseen) >= count {
		return unseen[:count]
	}

	shuffle(len(seen), func(i, j int) { seen[i], seen[j] = seen[j], seen[i] })
	batch := make([]T, 0, min(count, len(unseen)+len(seen)))
	batch = append(batch, unseen...)
	for _, c := range seen {
		if len(batch) == count {
			break
		}
		batch = append(batch, c)
	}
	return batch
}

// WithinTiers keeps the candidates whose difficulty is unlocked at level.
// When none qualify the whole pool is returned with widened set, so a user
// is served something rather than nothing.
func WithinTiers[T any](pool []T, difficulty func(T) string, level int) (filtered []T, widened bool) {
	allowed := make(map[string]bool)
	for _, t := range TiersFor(level) {
		allowed[string(t)] = true
	}
	for _, c := range pool {
		if allowed[difficulty(c)] {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 && len(pool) > 0 {
		return pool, true
	}
	return filtered, false
}

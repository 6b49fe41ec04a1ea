package engine

import (
	"context"
	"errors"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/badges"
	"github.com/lingoquest/lingoquest/internal/rewards"
	"github.com/lingoquest/lingoquest/internal/store"
)

// SpinResult is a daily spin with any badges its XP unlocked.
type SpinResult struct {
	rewards.SpinResult
	NewBadges []badges.Grant `json:"newBadges"`
}

// BoxResult is an opened mystery box with any badges its XP unlocked.
type BoxResult struct {
	rewards.BoxResult
	NewBadges []badges.Grant `json:"newBadges"`
}

// GachaResult is a vocabulary pull with any badges it unlocked.
type GachaResult struct {
	rewards.GachaResult
	NewBadges []badges.Grant `json:"newBadges"`
}

func (e *Engine) rewardBadges(ctx context.Context, userID int, trigger string) []badges.Grant {
	granted, err := e.badges.CheckAndGrant(ctx, userID, trigger)
	if err != nil {
		e.log.Error("badge check failed", "user_id", userID, "trigger", trigger, "error", err)
	}
	if granted == nil {
		granted = []badges.Grant{}
	}
	return granted
}

// Spin claims the user's daily spin.
func (e *Engine) Spin(ctx context.Context, userID int) (SpinResult, error) {
	if _, err := e.user(ctx, userID); err != nil {
		return SpinResult{}, err
	}
	res, err := e.arbiter.Spin(ctx, userID)
	if err != nil {
		return SpinResult{}, err
	}
	out := SpinResult{SpinResult: res, NewBadges: []badges.Grant{}}
	if res.Available {
		out.NewBadges = e.rewardBadges(ctx, userID, "spin")
	}
	return out, nil
}

// OpenMysteryBox opens one of the user's pending mystery boxes.
func (e *Engine) OpenMysteryBox(ctx context.Context, userID int) (BoxResult, error) {
	if _, err := e.user(ctx, userID); err != nil {
		return BoxResult{}, err
	}
	res, err := e.arbiter.OpenMysteryBox(ctx, userID)
	if err != nil {
		return BoxResult{}, err
	}
	out := BoxResult{BoxResult: res, NewBadges: []badges.Grant{}}
	if res.Available {
		out.NewBadges = e.rewardBadges(ctx, userID, "mystery_box")
	}
	return out, nil
}

// PullGacha draws a vocabulary word for the user's collection.
func (e *Engine) PullGacha(ctx context.Context, userID int) (GachaResult, error) {
	if _, err := e.user(ctx, userID); err != nil {
		return GachaResult{}, err
	}
	res, err := e.arbiter.PullGacha(ctx, userID)
	if errors.Is(err, rewards.ErrEmptyPool) {
		e.log.Warn("gacha pull with empty pool", "user_id", userID)
		return GachaResult{
			GachaResult: rewards.GachaResult{Availability: rewards.Availability{Reason: "no words to collect yet"}},
			NewBadges:   []badges.Grant{},
		}, nil
	}
	if err != nil {
		return GachaResult{}, err
	}
	out := GachaResult{GachaResult: res, NewBadges: []badges.Grant{}}
	if res.Available {
		out.NewBadges = e.rewardBadges(ctx, userID, "gacha")
	}
	return out, nil
}

// Collection lists the words the user has pulled.
func (e *Engine) Collection(ctx context.Context, userID int) ([]store.CollectionEntry, error) {
	if _, err := e.user(ctx, userID); err != nil {
		return nil, err
	}
	return e.st.Queries().Collection(ctx, userID)
}

// ActivityResult is the outcome of RecordActivity.
type ActivityResult struct {
	Kind      string         `json:"kind"`
	Streak    int            `json:"streak"`
	NewBadges []badges.Grant `json:"newBadges"`
}

// RecordActivity records chat-side activity the engine cannot observe, such
// as messages sent or stories told. Counter kinds add n; gauge kinds replace
// the stored value with n. Badges are evaluated afterwards.
func (e *Engine) RecordActivity(ctx context.Context, userID int, kind string, n int) (ActivityResult, error) {
	k, err := badges.ParseKind(kind)
	if err != nil {
		return ActivityResult{}, &apperr.ValidationError{Field: "kind", Reason: err.Error(), Err: err}
	}
	if !k.Reported() {
		return ActivityResult{}, apperr.Invalid("kind", "%s is tracked by the engine itself", k)
	}
	switch {
	case k.Gauge() && n < 0:
		return ActivityResult{}, apperr.Invalid("n", "must not be negative, got %d", n)
	case !k.Gauge() && n <= 0:
		return ActivityResult{}, apperr.Invalid("n", "must be positive, got %d", n)
	}
	if _, err := e.user(ctx, userID); err != nil {
		return ActivityResult{}, err
	}

	q := e.st.Queries()
	if k.Gauge() {
		err = q.SetActivity(ctx, userID, string(k), n)
	} else {
		err = q.IncrementActivity(ctx, userID, string(k), n)
	}
	if err != nil {
		return ActivityResult{}, err
	}

	streak, granted := e.afterActivity(ctx, userID, string(k))
	if granted == nil {
		granted = []badges.Grant{}
	}
	return ActivityResult{Kind: string(k), Streak: streak.Streak, NewBadges: granted}, nil
}

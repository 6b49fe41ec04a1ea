package rewards

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lingoquest/lingoquest/internal/apperr"
	"github.com/lingoquest/lingoquest/internal/logger"
	"github.com/lingoquest/lingoquest/internal/progression"
	"github.com/lingoquest/lingoquest/internal/store"
)

// Claim and grant kinds in the store.
const (
	ClaimGacha = "gacha"
	GrantBox   = string(PrizeMysteryBox)
)

// ErrEmptyPool is returned when the gacha has no words to draw.
var ErrEmptyPool = errors.New("gacha pool is empty")

// Config holds the reward limits.
type Config struct {
	SpinCooldown    time.Duration
	GachaDailyLimit int
}

// DefaultConfig returns one spin per 24 hours and three gacha pulls a day.
func DefaultConfig() Config {
	return Config{SpinCooldown: 24 * time.Hour, GachaDailyLimit: 3}
}

// Availability describes whether an action could run. When Available is
// false, Wait is the time until it can and RemainingHours is Wait in whole
// hours, rounded up.
type Availability struct {
	Available      bool          `json:"available"`
	Reason         string        `json:"reason,omitempty"`
	Wait           time.Duration `json:"-"`
	RemainingHours int           `json:"remainingHours,omitempty"`
}

func notYet(reason string, wait time.Duration) Availability {
	if wait < 0 {
		wait = 0
	}
	return Availability{
		Reason:         reason,
		Wait:           wait,
		RemainingHours: int(math.Ceil(wait.Hours())),
	}
}

// SpinResult is the outcome of Spin.
type SpinResult struct {
	Availability
	Prize   Prize               `json:"prize"`
	Change  *progression.Change `json:"change,omitempty"`
	GrantID int                 `json:"grantId,omitempty"`
}

// BoxResult is the outcome of OpenMysteryBox.
type BoxResult struct {
	Availability
	Prize   Prize               `json:"prize"`
	Change  *progression.Change `json:"change,omitempty"`
	GrantID int                 `json:"grantId,omitempty"`
}

// GachaResult is the outcome of PullGacha.
type GachaResult struct {
	Availability
	Word      string              `json:"word,omitempty"`
	Meaning   string              `json:"meaning,omitempty"`
	Rarity    Rarity              `json:"rarity,omitempty"`
	IsNew     bool                `json:"isNew"`
	Points    int                 `json:"points"`
	PullsLeft int                 `json:"pullsLeft"`
	Change    *progression.Change `json:"change,omitempty"`
}

// Arbiter runs the reward mechanisms. Each payout and its ledger entry
// commit in the same transaction as the cooldown or limit claim.
type Arbiter struct {
	st     progression.Store
	ledger *progression.Ledger
	cfg    Config
	src    Source
	now    func() time.Time
	log    *logger.Logger
}

// NewArbiter creates an Arbiter. A nil src uses DefaultSource.
func NewArbiter(st progression.Store, ledger *progression.Ledger, cfg Config, src Source, log *logger.Logger) *Arbiter {
	def := DefaultConfig()
	if cfg.SpinCooldown <= 0 {
		cfg.SpinCooldown = def.SpinCooldown
	}
	if cfg.GachaDailyLimit <= 0 {
		cfg.GachaDailyLimit = def.GachaDailyLimit
	}
	if src == nil {
		src = DefaultSource
	}
	return &Arbiter{st: st, ledger: ledger, cfg: cfg, src: src, now: time.Now, log: log}
}

// SetClock replaces the time source.
func (a *Arbiter) SetClock(now func() time.Time) {
	a.now = now
}

// Spin spins the wheel once per cooldown window. XP prizes are paid at once;
// other prizes are stored as grants for the chat layer to fulfil.
func (a *Arbiter) Spin(ctx context.Context, userID int) (SpinResult, error) {
	now := a.now()
	prize := SpinTable.Draw(a.src)

	var res SpinResult
	err := a.st.InTx(ctx, func(q *store.Queries) error {
		claimed, last, err := q.ClaimSpin(ctx, userID, now, a.cfg.SpinCooldown)
		if err != nil {
			return err
		}
		if !claimed {
			var wait time.Duration
			if last != nil {
				wait = last.Add(a.cfg.SpinCooldown).Sub(now)
			}
			res = SpinResult{Availability: notYet("spin cooldown", wait)}
			return nil
		}

		res = SpinResult{Availability: Availability{Available: true}, Prize: prize}
		if prize.Kind == PrizeXP {
			ch, err := a.ledger.ApplyTx(ctx, q, userID, prize.XP, progression.SourceSpin, "spin: "+prize.String())
			if err != nil {
				return err
			}
			res.Change = &ch
			return nil
		}
		res.GrantID, err = q.AddGrant(ctx, userID, string(prize.Kind), "spin")
		return err
	})
	if err != nil {
		return SpinResult{}, fmt.Errorf("spin for user %d: %w", userID, err)
	}
	if res.Available {
		a.log.Info("spin", "user_id", userID, "prize", prize.String())
	}
	return res, nil
}

// OpenMysteryBox opens one of the user's unopened boxes. Without a box the
// result is not available.
func (a *Arbiter) OpenMysteryBox(ctx context.Context, userID int) (BoxResult, error) {
	now := a.now()
	prize := MysteryBoxTable.Draw(a.src)

	var res BoxResult
	err := a.st.InTx(ctx, func(q *store.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		_, err := q.ConsumeGrant(ctx, userID, GrantBox, now)
		if errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrConflict) {
			res = BoxResult{Availability: Availability{Reason: "no unopened mystery box"}}
			return nil
		}
		if err != nil {
			return err
		}

		res = BoxResult{Availability: Availability{Available: true}, Prize: prize}
		if prize.Kind == PrizeXP {
			ch, err := a.ledger.ApplyTx(ctx, q, userID, prize.XP, progression.SourceMystery, "mystery box: "+prize.String())
			if err != nil {
				return err
			}
			res.Change = &ch
			return nil
		}
		res.GrantID, err = q.AddGrant(ctx, userID, string(prize.Kind), "mystery_box")
		return err
	})
	if err != nil {
		return BoxResult{}, fmt.Errorf("open mystery box for user %d: %w", userID, err)
	}
	return res, nil
}

// PullGacha draws a word, at most GachaDailyLimit times per calendar day. A
// first acquisition pays the tier's value; a repeat pays half, rounded up.
//
// A pull that loses the race for its daily slot or collection entry to a
// concurrent pull of the same user is rolled back and reported as not
// available. It is never redrawn, so a redelivered request pays once.
func (a *Arbiter) PullGacha(ctx context.Context, userID int) (GachaResult, error) {
	res, err := a.pullOnce(ctx, userID)
	if errors.Is(err, apperr.ErrConflict) {
		a.log.Debug("gacha pull lost a race, discarded", "user_id", userID, "error", err)
		return GachaResult{Availability: Availability{Reason: "pull already in progress"}}, nil
	}
	if err != nil {
		return GachaResult{}, fmt.Errorf("gacha pull for user %d: %w", userID, err)
	}
	if res.Available {
		a.log.Info("gacha pull", "user_id", userID, "word", res.Word, "rarity", res.Rarity, "new", res.IsNew, "points", res.Points)
	}
	return res, nil
}

func (a *Arbiter) pullOnce(ctx context.Context, userID int) (GachaResult, error) {
	now := a.now()
	cal := a.ledger.Calendar()
	day := cal.Day(now)
	tier := RarityTable.Draw(a.src)

	var res GachaResult
	err := a.st.InTx(ctx, func(q *store.Queries) error {
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}
		slot, ok, err := q.ClaimSlot(ctx, userID, ClaimGacha, day, a.cfg.GachaDailyLimit)
		if err != nil {
			return err
		}
		if !ok {
			next := cal.Midnight(now).AddDate(0, 0, 1)
			res = GachaResult{Availability: notYet("daily gacha limit reached", next.Sub(now))}
			return nil
		}

		pool, err := q.VocabByRarity(ctx, string(tier))
		if err != nil {
			return err
		}
		if len(pool) == 0 {
			if pool, err = q.VocabByRarity(ctx, ""); err != nil {
				return err
			}
		}
		if len(pool) == 0 {
			return ErrEmptyPool
		}
		item := pool[a.src.IntN(len(pool))]

		isNew, err := q.AddToCollection(ctx, userID, item.ID, now)
		if err != nil {
			return err
		}
		rarity := Rarity(item.Rarity)
		points := rarity.DuplicatePoints()
		if isNew {
			points = rarity.Points()
		}

		ch, err := a.ledger.ApplyTx(ctx, q, userID, points, progression.SourceGacha,
			fmt.Sprintf("gacha: %s (%s)", item.Word, item.Rarity))
		if err != nil {
			return err
		}

		res = GachaResult{
			Availability: Availability{Available: true},
			Word:         item.Word,
			Meaning:      item.Meaning,
			Rarity:       rarity,
			IsNew:        isNew,
			Points:       points,
			PullsLeft:    a.cfg.GachaDailyLimit - slot,
			Change:       &ch,
		}
		return nil
	})
	return res, err
}

// PullsToday returns how many gacha pulls the user has made today.
func (a *Arbiter) PullsToday(ctx context.Context, userID int) (int, error) {
	return a.st.Queries().CountClaims(ctx, userID, ClaimGacha, a.ledger.Calendar().Day(a.now()))
}

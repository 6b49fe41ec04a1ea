package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// RewardClaim is a day-bucketed usage slot for a daily-limited reward.
// The unique (user, kind, day, slot) index caps concurrent claims.
type RewardClaim struct {
	ent.Schema
}

func (RewardClaim) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (RewardClaim) Fields() []ent.Field {
	return []ent.Field{
		field.Int("user_id"),
		field.String("kind").
			NotEmpty(),
		field.String("day").
			NotEmpty().
			Comment("Local calendar day (YYYY-MM-DD)"),
		field.Int("slot").
			Min(1),
	}
}

func (RewardClaim) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "kind", "day", "slot").
			Unique(),
	}
}

// RewardGrant is a non-XP reward waiting to be fulfilled or consumed
// (double XP, hint tokens, mystery boxes).
type RewardGrant struct {
	ent.Schema
}

func (RewardGrant) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (RewardGrant) Fields() []ent.Field {
	return []ent.Field{
		field.Int("user_id"),
		field.String("kind").
			NotEmpty(),
		field.String("source").
			NotEmpty(),
		field.Time("consumed_at").
			Optional().
			Nillable(),
	}
}

func (RewardGrant) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "kind"),
	}
}

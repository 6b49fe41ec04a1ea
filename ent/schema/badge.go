package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Badge is a collectible achievement definition with a single threshold criterion.
type Badge struct {
	ent.Schema
}

func (Badge) Fields() []ent.Field {
	return []ent.Field{
		field.String("code").
			NotEmpty().
			Unique(),
		field.String("name").
			NotEmpty(),
		field.String("description").
			Default(""),
		field.String("criterion").
			NotEmpty().
			Comment("Criterion kind, e.g. feedback_count, streak_days"),
		field.Int("threshold").
			Min(1),
		field.Int("bonus_xp").
			Default(0),
	}
}

// Achievement is a badge earned by a user. At most one row per (user, badge).
type Achievement struct {
	ent.Schema
}

func (Achievement) Fields() []ent.Field {
	return []ent.Field{
		field.Int("user_id").
			Immutable(),
		field.String("badge_code").
			NotEmpty().
			Immutable(),
		field.Time("earned_at").
			Default(time.Now).
			Immutable(),
	}
}

func (Achievement) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "badge_code").
			Unique(),
	}
}

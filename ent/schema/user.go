package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// User is a learner registered through the chat platform.
// Progression counters live here and are only mutated through the ledger.
type User struct {
	ent.Schema
}

func (User) Fields() []ent.Field {
	return []ent.Field{
		field.String("external_id").
			NotEmpty().
			Unique().
			Immutable().
			Comment("Chat platform user id"),
		field.String("display_name").
			Default(""),
		field.Int("current_level").
			Default(1).
			Min(1),
		field.Int("current_xp").
			Default(0).
			Comment("XP earned inside the current level"),
		field.Int("total_points").
			Default(0).
			Comment("Lifetime cumulative points; the level is derived from it"),
		field.Int("streak").
			Default(0).
			Comment("Consecutive active calendar days"),
		field.Time("last_active_at").
			Optional().
			Nillable(),
		field.String("last_active_day").
			Optional().
			Nillable().
			Comment("Local calendar day (YYYY-MM-DD) of the last streak update"),
		field.Time("last_spin_at").
			Optional().
			Nillable().
			Comment("Cooldown anchor for the daily spin wheel"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (User) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("total_points"),
		index.Fields("last_active_at"),
	}
}

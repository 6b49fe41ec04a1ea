package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// PointLog is the append-only audit trail of every points change.
type PointLog struct {
	ent.Schema
}

func (PointLog) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (PointLog) Fields() []ent.Field {
	return []ent.Field{
		field.Int("user_id").
			Immutable(),
		field.Int("points").
			Immutable().
			Comment("Signed delta"),
		field.String("source").
			NotEmpty().
			Immutable().
			Comment("game:<type>, badge:<code>, spin, mystery_box, gacha"),
		field.String("description").
			Default("").
			Immutable(),
	}
}

func (PointLog) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id"),
	}
}

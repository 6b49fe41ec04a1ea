package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ActivityCounter aggregates activity reported by the chat layer
// (feedback requests, submissions, messages) for badge criteria.
type ActivityCounter struct {
	ent.Schema
}

func (ActivityCounter) Fields() []ent.Field {
	return []ent.Field{
		field.Int("user_id"),
		field.String("kind").
			NotEmpty(),
		field.Int("count").
			Default(0),
	}
}

func (ActivityCounter) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "kind").
			Unique(),
	}
}

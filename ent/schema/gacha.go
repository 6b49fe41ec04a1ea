package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// GachaVocab is a collectible vocabulary card.
type GachaVocab struct {
	ent.Schema
}

func (GachaVocab) Fields() []ent.Field {
	return []ent.Field{
		field.String("word").
			NotEmpty().
			Unique(),
		field.String("meaning").
			Default(""),
		field.String("rarity").
			NotEmpty().
			Comment("common, rare, epic or legendary"),
	}
}

func (GachaVocab) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("rarity"),
	}
}

// VocabCollection is a user's owned card. One row per (user, vocab).
type VocabCollection struct {
	ent.Schema
}

func (VocabCollection) Fields() []ent.Field {
	return []ent.Field{
		field.Int("user_id").
			Immutable(),
		field.Int("vocab_id").
			Immutable(),
		field.Int("copies").
			Default(1),
		field.Time("first_acquired_at").
			Default(time.Now).
			Immutable(),
		field.Time("last_acquired_at").
			Default(time.Now),
	}
}

func (VocabCollection) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "vocab_id").
			Unique(),
	}
}

package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Question is immutable practice content for one game type.
// Mode-specific fields are optional; evaluators read the ones they need.
type Question struct {
	ent.Schema
}

func (Question) Fields() []ent.Field {
	return []ent.Field{
		field.String("code").
			NotEmpty().
			Unique().
			Comment("Stable seed key used for idempotent content loads"),
		field.String("game_type").
			NotEmpty(),
		field.String("difficulty").
			Default("EASY").
			Comment("EASY, MEDIUM or HARD"),
		field.Text("prompt"),
		field.JSON("choices", []string{}).
			Optional().
			Comment("Options for choice-based modes, in A-D order"),
		field.String("answer").
			Default("").
			Comment("Correct answer text or choice letter"),
		field.JSON("accepted_answers", []string{}).
			Optional().
			Comment("Alternative answers accepted by free-text modes"),
		field.JSON("keywords", []string{}).
			Optional().
			Comment("Keyword set for open-ended modes"),
		field.Text("context").
			Default("").
			Comment("Reference passage for reading, summarizing and story modes"),
		field.Int("time_limit_secs").
			Default(0),
	}
}

func (Question) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("game_type", "difficulty"),
	}
}

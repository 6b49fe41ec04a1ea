package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// QuestionHistory records the last time a user answered a question in a game.
// One row per (user, question, game type); rows are overwritten on re-answer.
type QuestionHistory struct {
	ent.Schema
}

func (QuestionHistory) Fields() []ent.Field {
	return []ent.Field{
		field.Int("user_id"),
		field.Int("question_id"),
		field.String("game_type").
			NotEmpty(),
		field.Bool("correct"),
		field.Time("answered_at"),
	}
}

func (QuestionHistory) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "question_id", "game_type").
			Unique(),
		index.Fields("user_id", "game_type", "answered_at"),
	}
}

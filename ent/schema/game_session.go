package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// GameSession persists the game-session state machine between chat messages.
type GameSession struct {
	ent.Schema
}

func (GameSession) Fields() []ent.Field {
	return []ent.Field{
		field.String("session_id").
			NotEmpty().
			Unique().
			Immutable().
			Comment("UUID of the session"),
		field.Int("user_id").
			Immutable(),
		field.String("game_type").
			NotEmpty().
			Immutable(),
		field.String("status").
			NotEmpty().
			Comment("in_progress, completed or abandoned"),
		field.JSON("question_list", []int{}).
			Comment("Served batch in order"),
		field.Int("question_index").
			Default(0),
		field.Int("score").
			Default(0),
		field.Int("correct_count").
			Default(0),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
		field.Time("updated_at").
			Default(time.Now).
			UpdateDefault(time.Now),
	}
}

func (GameSession) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("user_id", "game_type", "status"),
	}
}

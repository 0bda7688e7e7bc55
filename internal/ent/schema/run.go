package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Run holds the schema definition for the run journal.
// Times are unix milliseconds so both backends store plain integers.
type Run struct{ ent.Schema }

// Fields of the Run.
func (Run) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").NotEmpty().Unique().Immutable(),
		field.String("operation").NotEmpty(),
		field.Text("argument"),
		field.String("provider"),
		field.Bool("ok"),
		field.String("error_category").MaxLen(32).Optional(),
		field.Text("error_message").Optional(),
		field.Int("tool_count").NonNegative(),
		field.Int("steps").NonNegative(),
		field.Int64("started_at_ms"),
		field.Int64("duration_ms").NonNegative(),
	}
}

// Indexes of the Run.
func (Run) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("started_at_ms"),
		index.Fields("operation", "started_at_ms"),
	}
}

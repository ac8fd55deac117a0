package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Record is one completed diagnosis with the respondent profile and the raw
// answers it was computed from.
type Record struct {
	ent.Schema
}

func (Record) Mixin() []ent.Mixin {
	return []ent.Mixin{EventMixin{}}
}

func (Record) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			NotEmpty().
			Immutable().
			Comment("Result id assigned by the engine"),
		field.String("age").
			Default("").
			Comment("Age band chosen by the respondent"),
		field.String("gender").
			Default(""),
		field.String("category").
			NotEmpty().
			Comment("Winning constitution category"),
		field.Float("score"),
		field.Float("confidence"),
		field.Bool("fallback").
			Default(false).
			Comment("Set when no evidence was available and the default category was used"),
		field.String("catalog_version").
			Default(""),
		field.JSON("responses", map[string]string{}).
			Comment("Raw response map as submitted"),
		field.Text("free_text_concern").
			Default(""),
		field.JSON("all_scores", map[string]float64{}).
			Comment("Final score per category, free-text bonus included"),
	}
}

func (Record) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("category"),
		index.Fields("age"),
		index.Fields("gender"),
	}
}

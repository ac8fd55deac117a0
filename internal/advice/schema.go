package advice

import "github.com/abhisek/taishitsu/internal/llm"

// NarrationSchema defines the JSON schema for personalised advice.
var NarrationSchema = llm.MustSchema(
	"constitution-advice",
	"Short personalised lifestyle advice for a constitution type",
	map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-3 sentences relating the constitution type to the respondent's situation",
			},
			"tips": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    1,
				"maxItems":    5,
				"description": "Concrete everyday tips (5-15 words each)",
			},
		},
		"required":             []any{"summary", "tips"},
		"additionalProperties": false,
	},
)

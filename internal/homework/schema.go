package homework

import "github.com/abhisek/eslens/internal/llm"

// ContentSchema is the JSON shape the extraction prompt asks for.
var ContentSchema = &llm.Schema{
	Name:        "homework-content",
	Description: "Text and metadata extracted from a photo of a homework assignment",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"extractedText": map[string]any{
				"type":        "string",
				"description": "All text in the image, including numbers, equations and instructions",
			},
			"subject": map[string]any{
				"type": "string",
				"enum": []any{"math", "science", "reading", "history", "other"},
			},
			"hasEquations": map[string]any{
				"type": "boolean",
			},
			"difficulty": map[string]any{
				"type": "string",
				"enum": []any{"elementary", "middle_school", "high_school"},
			},
			"questions": map[string]any{
				"type":        "array",
				"description": "Each individual question or problem, in order",
				"items":       map[string]any{"type": "string"},
			},
		},
		"required":             []any{"extractedText", "subject", "hasEquations", "difficulty", "questions"},
		"additionalProperties": false,
	},
}

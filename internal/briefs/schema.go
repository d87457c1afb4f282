package briefs

import "github.com/abhisek/missionhq/internal/llm"

// BriefSchema defines the JSON schema for drafted briefs.
var BriefSchema = &llm.Schema{
	Name:        "mission-brief",
	Description: "A single onboarding mission with a short checklist and suggested rewards",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Short imperative mission title, at most 80 characters",
			},
			"description": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Two or three sentences telling the new hire what to do and why it matters",
			},
			"steps": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"minItems":    1,
				"description": "Concrete checklist items, in order",
			},
			"experience": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Suggested experience points, roughly 50 per hour of effort",
			},
			"currency": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"description": "Suggested shop currency, usually a tenth of the experience",
			},
		},
		"required":             []any{"title", "description", "steps", "experience", "currency"},
		"additionalProperties": false,
	},
}

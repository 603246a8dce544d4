package ai

import "github.com/amishk599/insightd/internal/model"

// JSON Schemas enforced server-side via OpenAI structured outputs. Each wraps
// its rows in a single list property because strict mode requires an object root.

func stringArray(desc string) map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "string"},
		"description": desc,
	}
}

func listSchema(desc, listKey string, itemProps map[string]any, required []string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"description":          desc,
		"additionalProperties": false,
		"required":             []string{listKey},
		"properties": map[string]any{
			listKey: map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           itemProps,
					"required":             required,
				},
			},
		},
	}
}

var visaListSchema = listSchema("Visa information list", "visa_list",
	map[string]any{
		"visa_type":    map[string]any{"type": "string", "description": "Type of visa (name only, e.g. E-2, F-4)"},
		"requirements": stringArray("requirements for visa application"),
		"process":      stringArray("process of visa application"),
		"duration":     map[string]any{"type": "string", "description": "duration of the visa"},
	},
	[]string{"visa_type", "requirements", "process", "duration"},
)

var cultureListSchema = listSchema("Culture information list", "culture_list",
	map[string]any{
		"culture_type": map[string]any{"type": "string", "enum": model.CultureTypes},
		"title":        map[string]any{"type": "string"},
		"content":      map[string]any{"type": "string"},
		"tags":         stringArray("tags"),
		"source_urls":  stringArray("source urls"),
	},
	[]string{"culture_type", "title", "content", "tags", "source_urls"},
)

var industryListSchema = listSchema("Industry information list", "industry_list",
	map[string]any{
		"industry_type": map[string]any{"type": "string", "description": "Industry type (e.g. technology, healthcare, finance)"},
		"description":   map[string]any{"type": "string"},
		"trends":        stringArray("trend of industry"),
		"opportunities": stringArray("opportunities in industry"),
	},
	[]string{"industry_type", "description", "trends", "opportunities"},
)

package ai

import (
	_ "embed"
	"strings"
)

//go:embed prompts/classify.md
var classifyPromptRaw string

//go:embed prompts/structure_visa.md
var structureVisaPromptRaw string

//go:embed prompts/structure_culture.md
var structureCulturePromptRaw string

//go:embed prompts/structure_industry.md
var structureIndustryPromptRaw string

// ClassifyInstructions is the system prompt for the category classifier.
var ClassifyInstructions = strings.TrimSpace(classifyPromptRaw)

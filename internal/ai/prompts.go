package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/extract_listings.md
var extractPromptRaw string

// ExtractListingsTemplate is the parsed prompt template for listing extraction.
var ExtractListingsTemplate = template.Must(template.New("extract_listings").Parse(extractPromptRaw))

// systemPrompt pins the model to JSON-array output.
const systemPrompt = "You are a job search expert. Always return valid JSON arrays only. Be strict about the requested role."

package aiorchestrator

import (
	"fmt"
	"strings"
)

// basePrompt instructs the vision model to return a single structured JSON
// object describing the image. Kept as one literal so every provider sends
// byte-identical instructions.
const basePrompt = `Describe this reference image for a visual mood board. Respond with JSON only, no prose outside the JSON object, using exactly these fields:
{
  "description": "one or two sentence plain-language description",
  "tags": ["lowercase-hyphenated", "tags", "no-whitespace"],
  "style": ["art or design styles depicted"],
  "mood": ["emotional tone descriptors"],
  "colors": ["#rrggbb", "dominant hex colors"],
  "era": "a time period string, or null if not applicable"
}`

// BuildPrompt returns the analysis prompt, appending context-aware tagging
// guidance when the board already has an established tag vocabulary.
func BuildPrompt(existingTags []string) string {
	if len(existingTags) == 0 {
		return basePrompt
	}
	return fmt.Sprintf("%s\nThe board already uses these tags: [%s]. Prefer reusing existing tags when they apply.",
		basePrompt, strings.Join(existingTags, ", "))
}

package prompts

import (
	"fmt"
	"strings"

	"github.com/aniwise/aniwise/pkg/llm"
)

// ExtractParamsPrompt defines the interface for search parameter extraction prompts.
type ExtractParamsPrompt interface {
	Extract() PromptVersion
}

// ExtractParamsVersions holds all versions of extract params prompts.
type ExtractParamsVersions struct {
	ExtractPrompt PromptVersion
}

func (e *ExtractParamsVersions) Extract() PromptVersion { return e.ExtractPrompt }

// extractParamsPrompt asks the model to act as a semantic parser: it must
// return only a JSON object describing the anime search the user asked for.
func extractParamsPrompt(context map[string]interface{}) ([]llm.Message, error) {
	query, ok := context["query"].(string)
	if !ok {
		return nil, fmt.Errorf("extract params prompt requires a string 'query' in context")
	}

	allowedGenres := ""
	if genres, ok := context["allowed_genres"].([]string); ok {
		allowedGenres = strings.Join(genres, ", ")
	}

	sysPrompt := `You are a parser that converts anime recommendation requests into structured search parameters. You respond with a single JSON object and nothing else: no prose, no markdown, no code fences.`

	userPrompt := fmt.Sprintf(`Extract search parameters from the anime request below.

Return only a JSON object with exactly these keys:
- "genres": array of genre strings drawn from: %s. Empty array if none mentioned.
- "similar_to": a single anime title the user wants similar shows to, or "" if none.
- "min_episodes": minimum episode count as an integer, 0 if not mentioned.
- "binge": true only if the user wants something long or bingeable, else false.
- "request_count": how many recommendations the user asked for, 3 if not stated.

<REQUEST>
%s
</REQUEST>`, allowedGenres, query)

	return []llm.Message{
		llm.NewSystemMessage(sysPrompt),
		llm.NewUserMessage(userPrompt),
	}, nil
}

// NewExtractParamsVersions creates a new ExtractParamsVersions instance.
func NewExtractParamsVersions() *ExtractParamsVersions {
	return &ExtractParamsVersions{
		ExtractPrompt: NewPromptVersion(extractParamsPrompt),
	}
}

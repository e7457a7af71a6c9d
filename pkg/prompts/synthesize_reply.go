package prompts

import (
	"fmt"

	"github.com/aniwise/aniwise/pkg/llm"
)

// SynthesizeReplyPrompt defines the interface for reply synthesis prompts.
type SynthesizeReplyPrompt interface {
	Synthesize() PromptVersion
}

// SynthesizeReplyVersions holds all versions of synthesize reply prompts.
type SynthesizeReplyVersions struct {
	SynthesizePrompt PromptVersion
}

func (s *SynthesizeReplyVersions) Synthesize() PromptVersion { return s.SynthesizePrompt }

// synthesizeReplyPrompt turns a normalized recommendation listing into a
// short stylized reply. The listing is pre-rendered by the caller so the
// model never sees raw upstream records.
func synthesizeReplyPrompt(context map[string]interface{}) ([]llm.Message, error) {
	query, ok := context["query"].(string)
	if !ok {
		return nil, fmt.Errorf("synthesize reply prompt requires a string 'query' in context")
	}
	listing, ok := context["listing"].(string)
	if !ok {
		return nil, fmt.Errorf("synthesize reply prompt requires a string 'listing' in context")
	}
	count, _ := context["requested_count"].(int)

	sysPrompt := `You are an enthusiastic but concise anime recommendation assistant. You speak like a friendly fellow fan, never like a database.`

	userPrompt := fmt.Sprintf(`A user asked: %q (they wanted %d recommendations).

Here are the picks, already chosen and ordered:
%s

Write a short reply presenting these picks. Rules:
- Mention every title exactly as written above, in the same order.
- At most 3 sentences of commentary beyond the list itself.
- At most 2 emoji total.
- No spoilers, no made-up facts about the shows.
- Keep the whole reply under 900 characters.`, query, count, listing)

	return []llm.Message{
		llm.NewSystemMessage(sysPrompt),
		llm.NewUserMessage(userPrompt),
	}, nil
}

// NewSynthesizeReplyVersions creates a new SynthesizeReplyVersions instance.
func NewSynthesizeReplyVersions() *SynthesizeReplyVersions {
	return &SynthesizeReplyVersions{
		SynthesizePrompt: NewPromptVersion(synthesizeReplyPrompt),
	}
}

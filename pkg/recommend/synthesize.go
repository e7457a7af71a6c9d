package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/aniwise/aniwise/pkg/llm"
	"github.com/aniwise/aniwise/pkg/prompts"
)

// FallbackLabel prefixes the deterministic listing used when the model path
// fails.
const FallbackLabel = "Here's what I found for you:"

// maxReplyLength caps the final text the conversational platform will render.
const maxReplyLength = 4095

// NoResultsMessages is the fixed set of stylized empty-result replies. The
// model is never called for an empty recommendation set.
var NoResultsMessages = []string{
	"Hmm, my watchlist came up empty for that one. Try loosening a genre or episode filter?",
	"Not a single match — and I dig deep! Maybe try a different title or fewer genres?",
	"I struck out on this one. A broader request usually turns something up!",
}

// Synthesizer renders the final user-facing text. The stylized model-written
// voice is best effort; the enumerated fallback is always available.
type Synthesizer struct {
	llm     llm.Client
	prompts prompts.Library
	logger  *slog.Logger
	pick    func(n int) int
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(llmClient llm.Client, library prompts.Library, logger *slog.Logger) *Synthesizer {
	if library == nil {
		library = prompts.DefaultLibrary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{
		llm:     llmClient,
		prompts: library,
		logger:  logger,
		pick:    rand.Intn,
	}
}

// Synthesize turns normalized recommendations into reply text. It never
// returns an error: if the model call fails the deterministic enumerated
// listing is returned instead.
func (s *Synthesizer) Synthesize(ctx context.Context, originalQuery string, recommendations []Recommendation, requestedCount int) string {
	if len(recommendations) == 0 {
		return NoResultsMessages[s.pick(len(NoResultsMessages))]
	}

	listing := RenderListing(recommendations)

	messages, err := s.prompts.SynthesizeReply().Synthesize().Call(map[string]interface{}{
		"query":           originalQuery,
		"listing":         listing,
		"requested_count": requestedCount,
	})
	if err != nil {
		s.logger.Warn("failed to build synthesis prompt, using fallback listing", "error", err)
		return fallbackText(listing)
	}

	resp, err := s.llm.Chat(ctx, messages)
	if err != nil {
		s.logger.Warn("reply synthesis model call failed, using fallback listing", "error", err)
		return fallbackText(listing)
	}

	text := cleanReply(resp.Content)
	if text == "" {
		return fallbackText(listing)
	}
	return text
}

// RenderListing renders recommendations as enumerated lines, one per record.
// The same rendering feeds both the synthesis prompt and the fallback text.
func RenderListing(recommendations []Recommendation) string {
	var b strings.Builder
	for i, rec := range recommendations {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s (%s/100)", i+1, rec.Title, rec.Score)
	}
	return b.String()
}

func fallbackText(listing string) string {
	return FallbackLabel + "\n" + listing
}

// cleanReply strips markdown emphasis, normalizes bullets, and truncates to
// the platform's display limit.
func cleanReply(text string) string {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "- ", "• ")
	text = strings.TrimSpace(text)
	if len(text) > maxReplyLength {
		text = text[:maxReplyLength]
	}
	return text
}

// Package extractor turns free-text anime requests into structured search
// parameters, using a language model as a semantic parser. Extraction is
// total: any model or parse failure yields the documented defaults, never an
// error.
package extractor

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aniwise/aniwise/pkg/llm"
	"github.com/aniwise/aniwise/pkg/prompts"
)

// MaxQueryLength bounds the raw text embedded into the extraction prompt.
const MaxQueryLength = 500

// DefaultRequestCount is used when the model omits or mangles request_count.
const DefaultRequestCount = 3

// AllowedGenres is the fixed genre allow-list, in AniList's canonical
// capitalization. Genres outside this list are dropped silently.
var AllowedGenres = []string{
	"Action", "Adventure", "Comedy", "Drama", "Fantasy", "Horror",
	"Mystery", "Romance", "Sci-Fi", "Slice of Life", "Sports",
	"Supernatural", "Thriller",
}

var canonicalGenres = func() map[string]string {
	m := make(map[string]string, len(AllowedGenres))
	for _, g := range AllowedGenres {
		m[strings.ToLower(g)] = g
	}
	return m
}()

// QueryParameters is the structured form of a recommendation request. It is
// always fully populated: callers never see a partial or absent parameter set.
type QueryParameters struct {
	Genres       []string `json:"genres"`
	SimilarTo    string   `json:"similar_to"`
	MinEpisodes  int      `json:"min_episodes"`
	Binge        bool     `json:"binge"`
	RequestCount int      `json:"request_count"`
}

// DefaultParams returns the parameter set used when extraction fails.
// MinEpisodes defaults to 0: no episode filter unless the user asks for one.
func DefaultParams() QueryParameters {
	return QueryParameters{
		Genres:       []string{},
		RequestCount: DefaultRequestCount,
	}
}

// Extractor extracts QueryParameters from free text.
type Extractor struct {
	llm     llm.Client
	prompts prompts.Library
	logger  *slog.Logger
}

// New creates a new Extractor.
func New(llmClient llm.Client, library prompts.Library, logger *slog.Logger) *Extractor {
	if library == nil {
		library = prompts.DefaultLibrary
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		llm:     llmClient,
		prompts: library,
		logger:  logger,
	}
}

// rawParams mirrors the JSON object the model is asked for, with loose field
// types so a scalar genre or a quoted number does not sink the whole parse.
type rawParams struct {
	Genres       looseStrings `json:"genres"`
	SimilarTo    string       `json:"similar_to"`
	MinEpisodes  looseInt     `json:"min_episodes"`
	Binge        looseBool    `json:"binge"`
	RequestCount *looseInt    `json:"request_count"`
}

// Extract parses raw text into QueryParameters. It never returns an error:
// failures are logged and the defaults are returned instead.
func (e *Extractor) Extract(ctx context.Context, rawText string) QueryParameters {
	rawText = strings.TrimSpace(rawText)
	if len(rawText) > MaxQueryLength {
		rawText = rawText[:MaxQueryLength]
	}

	messages, err := e.prompts.ExtractParams().Extract().Call(map[string]interface{}{
		"query":          rawText,
		"allowed_genres": AllowedGenres,
	})
	if err != nil {
		e.logger.Warn("failed to build extraction prompt, using defaults", "error", err)
		return DefaultParams()
	}

	resp, err := e.llm.Chat(ctx, messages)
	if err != nil {
		e.logger.Warn("parameter extraction model call failed, using defaults", "error", err)
		return DefaultParams()
	}

	var raw rawParams
	if err := llm.DecodeJSONResponse(resp.Content, &raw); err != nil {
		e.logger.Warn("unparseable extraction reply, using defaults", "error", err)
		return DefaultParams()
	}

	return normalize(raw)
}

// normalize applies the post-parse rules: genre allow-list filtering with
// canonical capitalization, similar_to whitespace handling, non-negative
// episode bound, request_count clamped into [1,10].
func normalize(raw rawParams) QueryParameters {
	params := DefaultParams()

	seen := make(map[string]bool)
	for _, g := range raw.Genres {
		canonical, ok := canonicalGenres[strings.ToLower(strings.TrimSpace(g))]
		if !ok || seen[canonical] {
			continue
		}
		seen[canonical] = true
		params.Genres = append(params.Genres, canonical)
	}

	params.SimilarTo = strings.TrimSpace(raw.SimilarTo)

	if raw.MinEpisodes > 0 {
		params.MinEpisodes = int(raw.MinEpisodes)
	}

	params.Binge = bool(raw.Binge)

	// A missing or non-numeric request_count decodes to nil/zero and keeps
	// the default of 3; anything else is clamped into [1,10].
	if raw.RequestCount != nil && *raw.RequestCount != 0 {
		params.RequestCount = clampCount(int(*raw.RequestCount))
	}

	return params
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// looseStrings accepts either a JSON array of strings or a single scalar
// string, wrapping the scalar into a one-element list.
type looseStrings []string

func (s *looseStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = []string{single}
		return nil
	}
	// Wrong shape entirely: treat as no genres rather than failing the parse.
	*s = nil
	return nil
}

// looseInt accepts a JSON number or a numeric string; anything else decodes
// to zero.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = looseInt(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			*n = looseInt(v)
			return nil
		}
	}
	*n = 0
	return nil
}

// looseBool accepts a JSON bool or the strings "true"/"false".
type looseBool bool

func (b *looseBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = looseBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = looseBool(strings.EqualFold(strings.TrimSpace(s), "true"))
		return nil
	}
	*b = false
	return nil
}

// Package aniwise implements a webhook-driven anime recommendation agent. A
// free-text request is parsed into structured search parameters by a language
// model, resolved against an AniList-compatible metadata service, and
// rendered back into a stylized reply, with deterministic fallbacks at every
// stage.
package aniwise

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aniwise/aniwise/pkg/anilist"
	"github.com/aniwise/aniwise/pkg/cache"
	"github.com/aniwise/aniwise/pkg/extractor"
	"github.com/aniwise/aniwise/pkg/llm"
	"github.com/aniwise/aniwise/pkg/prompts"
	"github.com/aniwise/aniwise/pkg/recommend"
)

// ErrInvalidInput is returned for an empty or oversized query. It is the only
// error Recommend surfaces: every downstream failure resolves to fallback
// text instead.
var ErrInvalidInput = errors.New("query is empty or too long")

// ServiceDownMessage is returned when the metadata service fails. No retry:
// the caller is interactive and latency-sensitive.
const ServiceDownMessage = "My anime database is napping right now. Give it another try in a moment!"

// MaxQueryLength bounds the inbound query text.
const MaxQueryLength = extractor.MaxQueryLength

// Config holds pipeline configuration.
type Config struct {
	// LLMTimeout bounds each language model call.
	LLMTimeout time.Duration
	// ServiceTimeout bounds the metadata service query.
	ServiceTimeout time.Duration
	// CacheTTL bounds how long a response is served from cache.
	CacheTTL time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		LLMTimeout:     30 * time.Second,
		ServiceTimeout: 10 * time.Second,
		CacheTTL:       cache.DefaultTTL,
	}
}

// Result is the outcome of one recommendation request. Created fresh per
// request, never persisted beyond the response cache.
type Result struct {
	Text            string                     `json:"text"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	RequestedCount  int                        `json:"requested_count"`
	DeliveredCount  int                        `json:"delivered_count"`
	CacheHit        bool                       `json:"-"`
}

// Pipeline sequences extraction, metadata lookup, normalization, and reply
// synthesis. All collaborators are safe for concurrent use, so one Pipeline
// serves concurrent requests; nothing is shared between requests.
type Pipeline struct {
	extractor   *extractor.Extractor
	service     anilist.Service
	synthesizer *recommend.Synthesizer
	cache       cache.Cache
	logger      *slog.Logger
	config      *Config
}

// New creates a Pipeline. responseCache may be nil to disable caching.
func New(llmClient llm.Client, service anilist.Service, responseCache cache.Cache, logger *slog.Logger, config *Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if config == nil {
		config = DefaultConfig()
	}
	library := prompts.NewLibrary()
	return &Pipeline{
		extractor:   extractor.New(llmClient, library, logger),
		service:     service,
		synthesizer: recommend.NewSynthesizer(llmClient, library, logger),
		cache:       responseCache,
		logger:      logger,
		config:      config,
	}
}

// Recommend runs the full pipeline for one raw query. Apart from
// ErrInvalidInput it always returns a renderable Result: model and service
// failures resolve to their documented fallback text.
func (p *Pipeline) Recommend(ctx context.Context, rawQuery string) (*Result, error) {
	rawQuery = strings.TrimSpace(rawQuery)
	if rawQuery == "" || len(rawQuery) > MaxQueryLength {
		return nil, ErrInvalidInput
	}

	if cached := p.lookupCache(rawQuery); cached != nil {
		return cached, nil
	}

	params := p.extractParams(ctx, rawQuery)

	records, err := p.queryService(ctx, params)
	if err != nil {
		p.logger.Error("metadata service query failed", "error", err)
		return &Result{
			Text:            ServiceDownMessage,
			Recommendations: []recommend.Recommendation{},
			RequestedCount:  params.RequestCount,
		}, nil
	}

	recommendations := recommend.Normalize(records)

	synthCtx, cancel := context.WithTimeout(ctx, p.config.LLMTimeout)
	defer cancel()
	text := p.synthesizer.Synthesize(synthCtx, rawQuery, recommendations, params.RequestCount)

	result := &Result{
		Text:            text,
		Recommendations: recommendations,
		RequestedCount:  params.RequestCount,
		DeliveredCount:  len(recommendations),
	}

	p.storeCache(rawQuery, result)

	return result, nil
}

func (p *Pipeline) extractParams(ctx context.Context, rawQuery string) extractor.QueryParameters {
	extractCtx, cancel := context.WithTimeout(ctx, p.config.LLMTimeout)
	defer cancel()
	return p.extractor.Extract(extractCtx, rawQuery)
}

func (p *Pipeline) queryService(ctx context.Context, params extractor.QueryParameters) ([]anilist.Media, error) {
	query := anilist.BuildQuery(params)

	searchCtx, cancel := context.WithTimeout(ctx, p.config.ServiceTimeout)
	defer cancel()
	return p.service.Search(searchCtx, query)
}

func (p *Pipeline) lookupCache(rawQuery string) *Result {
	if p.cache == nil {
		return nil
	}
	data, err := p.cache.Get(cache.Key(rawQuery))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			p.logger.Warn("response cache read failed", "error", err)
		}
		return nil
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		p.logger.Warn("discarding undecodable cache entry", "error", err)
		return nil
	}

	p.logger.Info("response cache hit", "query", rawQuery)
	result.CacheHit = true
	return &result
}

func (p *Pipeline) storeCache(rawQuery string, result *Result) {
	if p.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := p.cache.Set(cache.Key(rawQuery), data, p.config.CacheTTL); err != nil {
		p.logger.Warn("response cache write failed", "error", err)
	}
}

package aniwise_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniwise/aniwise"
	"github.com/aniwise/aniwise/pkg/anilist"
	"github.com/aniwise/aniwise/pkg/cache"
	"github.com/aniwise/aniwise/pkg/llm"
	"github.com/aniwise/aniwise/pkg/recommend"
)

// mockLLM is a mock implementation of llm.Client. Replies are consumed in
// order: first the extraction call, then the synthesis call.
type mockLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	calls   int
}

func (m *mockLLM) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.replies) {
		return &llm.Response{Content: m.replies[i]}, nil
	}
	return nil, llm.ErrModel
}

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockService is a mock implementation of anilist.Service.
type mockService struct {
	media []anilist.Media
	err   error
	calls int
	last  anilist.Query
}

func (m *mockService) Search(ctx context.Context, query anilist.Query) ([]anilist.Media, error) {
	m.calls++
	m.last = query
	if m.err != nil {
		return nil, m.err
	}
	return m.media, nil
}

// memoryCache is an in-memory cache.Cache for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return nil, cache.ErrMiss
}

func (c *memoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *memoryCache) Close() error { return nil }

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func narutoLikes() []anilist.Media {
	return []anilist.Media{
		{Title: anilist.MediaTitle{English: strPtr("Bleach")}, AverageScore: intPtr(79), Episodes: intPtr(366), Genres: []string{"Action", "Adventure", "Supernatural", "Comedy"}, SiteURL: "https://anilist.co/anime/269"},
		{Title: anilist.MediaTitle{English: strPtr("Hunter x Hunter (2011)")}, AverageScore: intPtr(89), Episodes: intPtr(148), Genres: []string{"Action", "Adventure"}, SiteURL: "https://anilist.co/anime/11061"},
		{Title: anilist.MediaTitle{Romaji: strPtr("Jujutsu Kaisen")}, AverageScore: intPtr(86), SiteURL: "https://anilist.co/anime/113415"},
	}
}

const extractionReply = `{"genres": ["Action"], "similar_to": "Naruto", "min_episodes": 0, "binge": false, "request_count": 3}`

func TestRecommendEndToEndWithSynthesisFallback(t *testing.T) {
	// Extraction succeeds; synthesis fails, exercising the fallback listing.
	mockModel := &mockLLM{
		replies: []string{extractionReply},
		errs:    []error{nil, llm.ErrModel},
	}
	service := &mockService{media: narutoLikes()}
	pipeline := aniwise.New(mockModel, service, nil, nil, nil)

	result, err := pipeline.Recommend(context.Background(), "3 action anime like Naruto")

	require.NoError(t, err)
	require.Equal(t, 1, service.calls)

	assert.Equal(t, 3, service.last.Variables["perPage"])
	assert.Equal(t, []string{"Action"}, service.last.Variables["genreIn"])
	assert.Equal(t, "Naruto", service.last.Variables["search"])
	assert.Equal(t, []string{anilist.SortScoreDesc}, service.last.Variables["sort"])

	require.Len(t, result.Recommendations, 3)
	assert.Equal(t, "Bleach", result.Recommendations[0].Title)
	assert.Equal(t, "Hunter x Hunter (2011)", result.Recommendations[1].Title)
	assert.Equal(t, "Jujutsu Kaisen", result.Recommendations[2].Title)

	assert.NotEmpty(t, result.Text)
	for _, rec := range result.Recommendations {
		assert.Contains(t, result.Text, rec.Title)
	}
	assert.Equal(t, 3, result.RequestedCount)
	assert.Equal(t, 3, result.DeliveredCount)
}

func TestRecommendEmptyQueryShortCircuits(t *testing.T) {
	mockModel := &mockLLM{}
	service := &mockService{}
	pipeline := aniwise.New(mockModel, service, nil, nil, nil)

	_, err := pipeline.Recommend(context.Background(), "   ")

	assert.ErrorIs(t, err, aniwise.ErrInvalidInput)
	assert.Zero(t, mockModel.callCount(), "language model must not be called")
	assert.Zero(t, service.calls, "metadata service must not be called")
}

func TestRecommendOversizedQueryShortCircuits(t *testing.T) {
	pipeline := aniwise.New(&mockLLM{}, &mockService{}, nil, nil, nil)

	_, err := pipeline.Recommend(context.Background(), strings.Repeat("a", aniwise.MaxQueryLength+1))

	assert.ErrorIs(t, err, aniwise.ErrInvalidInput)
}

func TestRecommendNoResults(t *testing.T) {
	mockModel := &mockLLM{replies: []string{extractionReply}}
	service := &mockService{media: []anilist.Media{}}
	pipeline := aniwise.New(mockModel, service, nil, nil, nil)

	result, err := pipeline.Recommend(context.Background(), "action anime like Naruto")

	require.NoError(t, err)
	assert.Contains(t, recommend.NoResultsMessages, result.Text)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, 0, result.DeliveredCount)
	assert.Equal(t, 1, mockModel.callCount(), "synthesis model call must be skipped for empty results")
}

func TestRecommendServiceFailureYieldsTryAgainText(t *testing.T) {
	mockModel := &mockLLM{replies: []string{extractionReply}}
	service := &mockService{err: anilist.ErrService}
	pipeline := aniwise.New(mockModel, service, nil, nil, nil)

	result, err := pipeline.Recommend(context.Background(), "anime like Naruto")

	require.NoError(t, err, "upstream failure must not escape as an error")
	assert.Equal(t, aniwise.ServiceDownMessage, result.Text)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, 0, result.DeliveredCount)
}

func TestRecommendTotalUpstreamFailureStillReplies(t *testing.T) {
	// Both the model and the metadata service are unreachable.
	mockModel := &mockLLM{errs: []error{llm.ErrModel, llm.ErrModel}}
	service := &mockService{err: anilist.ErrService}
	pipeline := aniwise.New(mockModel, service, nil, nil, nil)

	result, err := pipeline.Recommend(context.Background(), "anything good?")

	require.NoError(t, err)
	assert.NotEmpty(t, result.Text)
}

func TestRecommendServesRepeatsFromCache(t *testing.T) {
	mockModel := &mockLLM{
		replies: []string{extractionReply, "Check out Bleach, Hunter x Hunter (2011) and Jujutsu Kaisen!"},
	}
	service := &mockService{media: narutoLikes()}
	pipeline := aniwise.New(mockModel, service, newMemoryCache(), nil, nil)

	first, err := pipeline.Recommend(context.Background(), "3 action anime like Naruto")
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := pipeline.Recommend(context.Background(), "  3 ACTION anime like Naruto ")
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, service.calls, "cached repeat must not reach the metadata service")
	require.Len(t, second.Recommendations, 3)
	assert.Equal(t, 79, second.Recommendations[0].Score.Value)
}

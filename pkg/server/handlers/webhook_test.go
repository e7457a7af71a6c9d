package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniwise/aniwise"
	"github.com/aniwise/aniwise/pkg/anilist"
	"github.com/aniwise/aniwise/pkg/llm"
	"github.com/aniwise/aniwise/pkg/server/dto"
	"github.com/aniwise/aniwise/pkg/server/handlers"
)

// mockLLM replies with a fixed extraction result then fails synthesis, so
// responses use the deterministic fallback listing.
type mockLLM struct {
	calls int
}

func (m *mockLLM) Chat(ctx context.Context, messages []llm.Message) (*llm.Response, error) {
	m.calls++
	if m.calls == 1 {
		return &llm.Response{Content: `{"genres": ["Action"], "similar_to": "Naruto", "min_episodes": 0, "binge": false, "request_count": 2}`}, nil
	}
	return nil, llm.ErrModel
}

func (m *mockLLM) Close() error { return nil }

type mockService struct {
	media []anilist.Media
}

func (m *mockService) Search(ctx context.Context, query anilist.Query) ([]anilist.Media, error) {
	return m.media, nil
}

func strPtr(s string) *string { return &s }

func newRouter(service anilist.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	pipeline := aniwise.New(&mockLLM{}, service, nil, nil, nil)
	router := gin.New()
	router.POST("/webhook", handlers.NewWebhookHandler(pipeline, nil).Handle)
	return router
}

func postWebhook(t *testing.T, router *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWebhookReturnsRecommendations(t *testing.T) {
	router := newRouter(&mockService{media: []anilist.Media{
		{Title: anilist.MediaTitle{English: strPtr("Bleach")}},
		{Title: anilist.MediaTitle{English: strPtr("Hunter x Hunter")}},
	}})

	w := postWebhook(t, router, `{"queryResult": {"queryText": "2 action anime like Naruto"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.WebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Contains(t, resp.FulfillmentText, "Bleach")
	assert.Contains(t, resp.FulfillmentText, "Hunter x Hunter")
	require.NotNil(t, resp.Payload)
	assert.Equal(t, 2, resp.Payload.RequestedCount)
	assert.Equal(t, 2, resp.Payload.DeliveredCount)
	require.Len(t, resp.Payload.Recommendations, 2)
}

func TestWebhookMissingQueryFieldIsRejected(t *testing.T) {
	router := newRouter(&mockService{})

	w := postWebhook(t, router, `{"session": "abc"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_request", resp.Error)
}

func TestWebhookEmptyQueryGetsGuidanceText(t *testing.T) {
	router := newRouter(&mockService{})

	w := postWebhook(t, router, `{"queryResult": {"queryText": ""}}`)

	require.Equal(t, http.StatusOK, w.Code, "input errors must not be transport errors")
	var resp dto.WebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, handlers.InvalidInputMessage, resp.FulfillmentText)
}

func TestWebhookNoResultsKeepsEnvelopeShape(t *testing.T) {
	router := newRouter(&mockService{media: []anilist.Media{}})

	w := postWebhook(t, router, `{"queryResult": {"queryText": "anime like Naruto"}}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.WebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.FulfillmentText)
	require.NotNil(t, resp.Payload)
	assert.Empty(t, resp.Payload.Recommendations)
	assert.Equal(t, 0, resp.Payload.DeliveredCount)
}

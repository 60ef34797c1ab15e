package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lunarspired/portfolio-chat/middleware"
	"github.com/lunarspired/portfolio-chat/models"
	"github.com/lunarspired/portfolio-chat/services"
	"github.com/lunarspired/portfolio-chat/services/chat"
	"github.com/lunarspired/portfolio-chat/services/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, req chat.Request) (*chat.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Result), args.Error(1)
}

func postChat(t *testing.T, handler *ChatHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "portfolio-test/1.0")
	req = req.WithContext(middleware.WithCallerID(req.Context(), "203.0.113.7"))
	w := httptest.NewRecorder()
	handler.HandleChat(w, req)
	return w
}

func TestHandleChat(t *testing.T) {
	logger := zap.NewNop()

	t.Run("rag answer with chunks", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := NewChatHandler(mockService, logger)

		chunks := []models.ChunkMatch{{ID: 7, DocID: "doc-2", Order: 1, Text: "Erin designs calm interfaces.", Headings: []string{"About"}, SourcePath: "about.md", Score: 0.82}}
		mockService.On("Chat", mock.Anything, chat.Request{
			Message:   "What is Erin's design philosophy?",
			K:         5,
			CallerID:  "203.0.113.7",
			UserAgent: "portfolio-test/1.0",
		}).Return(&chat.Result{Response: "Calm, honest interfaces.", Source: models.SourceRAG, Chunks: chunks}, nil)

		w := postChat(t, handler, `{"message":"What is Erin's design philosophy?","k":5}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response ChatResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Calm, honest interfaces.", response.Response)
		assert.Equal(t, models.SourceRAG, response.Source)
		require.Len(t, response.Chunks, 1)
		assert.Equal(t, "about.md", response.Chunks[0].SourcePath)
		mockService.AssertExpectations(t)
	})

	t.Run("no matches serialises empty chunks", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := NewChatHandler(mockService, logger)

		mockService.On("Chat", mock.Anything, mock.Anything).
			Return(&chat.Result{Response: prompt.FallbackReply, Source: models.SourceNoMatches, Chunks: []models.ChunkMatch{}}, nil)

		w := postChat(t, handler, `{"message":"Anything?"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"response":"I don't know. You can contact Erin at lunarspired@gmail.com.","source":"no_matches","chunks":[]}`, w.Body.String())
	})

	t.Run("fallback omits chunks", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := NewChatHandler(mockService, logger)

		mockService.On("Chat", mock.Anything, mock.Anything).
			Return(&chat.Result{Response: prompt.FallbackReply, Source: models.SourceFallback}, nil)

		w := postChat(t, handler, `{"message":"hello"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"response":"I don't know. You can contact Erin at lunarspired@gmail.com.","source":"fallback"}`, w.Body.String())
	})

	t.Run("invalid k resolves to default", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := NewChatHandler(mockService, logger)

		mockService.On("Chat", mock.Anything, mock.MatchedBy(func(req chat.Request) bool {
			return req.K == 8
		})).Return(&chat.Result{Response: "ok", Source: models.SourceRAG, Chunks: []models.ChunkMatch{}}, nil)

		for _, body := range []string{
			`{"message":"hi","k":0}`,
			`{"message":"hi","k":21}`,
			`{"message":"hi","k":"abc"}`,
		} {
			w := postChat(t, handler, body)
			assert.Equal(t, http.StatusOK, w.Code, body)
		}
		mockService.AssertNumberOfCalls(t, "Chat", 3)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := NewChatHandler(mockService, logger)

		for _, body := range []string{`not json`, `{"message":42}`, ``} {
			w := postChat(t, handler, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
			assert.Contains(t, w.Body.String(), services.ErrInvalidInput.Message, body)
			assert.NotContains(t, w.Body.String(), "invalid character", body)
		}
		mockService.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
	})

	t.Run("blank message returns 400", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := NewChatHandler(mockService, logger)

		for _, body := range []string{`{}`, `{"message":""}`, `{"message":"   "}`} {
			w := postChat(t, handler, body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
		mockService.AssertNotCalled(t, "Chat", mock.Anything, mock.Anything)
	})

	t.Run("pipeline failure returns generic 500", func(t *testing.T) {
		mockService := new(MockChatService)
		handler := NewChatHandler(mockService, logger)

		mockService.On("Chat", mock.Anything, mock.Anything).
			Return(nil, services.ErrEmbeddingFailed.Wrap(errors.New("gemini: quota exhausted")))

		w := postChat(t, handler, `{"message":"hi"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "quota")
	})
}

func TestResolveK(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{``, 8},
		{`null`, 8},
		{`5`, 5},
		{`1`, 1},
		{`20`, 20},
		{`20.0`, 20},
		{`0`, 8},
		{`21`, 8},
		{`-3`, 8},
		{`2.5`, 8},
		{`"abc"`, 8},
		{`"5"`, 8},
		{`true`, 8},
		{`[5]`, 8},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveK(json.RawMessage(tt.raw)))
		})
	}
}

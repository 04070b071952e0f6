package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realnews/models"
)

func testSender(t *testing.T) (*Sender, *[]string, *httptest.Server) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/img/ok.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("Content-Length", "40000")
		case "/bottest-token/sendPhoto", "/bottest-token/sendMessage":
			var payload map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "@realnews_uz", payload["chat_id"])
			calls = append(calls, r.URL.Path)
			_, _ = w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	s := New("test-token", "@realnews_uz", "https://realnews.uz")
	s.apiBase = srv.URL
	s.httpClient = &http.Client{Timeout: 5 * time.Second}
	return s, &calls, srv
}

func TestSendArticleWithPhoto(t *testing.T) {
	s, calls, srv := testSender(t)

	sent, err := s.SendArticle(context.Background(), models.Article{
		ID:       "a1",
		Title:    "Metro kengaydi",
		Excerpt:  "Yangi bekatlar ochildi",
		ImageURL: srv.URL + "/img/ok.jpg",
	})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, []string{"/bottest-token/sendPhoto"}, *calls)
}

func TestSendArticleFallsBackToMessage(t *testing.T) {
	s, calls, srv := testSender(t)

	sent, err := s.SendArticle(context.Background(), models.Article{
		ID:       "a2",
		Title:    "Rasmsiz xabar",
		ImageURL: srv.URL + "/img/missing.jpg",
	})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, []string{"/bottest-token/sendMessage"}, *calls)
}

func TestSendArticleUnconfigured(t *testing.T) {
	s := New("", "", "https://realnews.uz")
	sent, err := s.SendArticle(context.Background(), models.Article{ID: "a3", Title: "x"})
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestSendArticleAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	s := New("test-token", "@realnews_uz", "https://realnews.uz")
	s.apiBase = srv.URL
	s.httpClient = &http.Client{Timeout: 5 * time.Second}

	sent, err := s.SendArticle(context.Background(), models.Article{ID: "a4", Title: "x"})
	assert.False(t, sent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

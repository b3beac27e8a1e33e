package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/search"
)

func TestClient_Search(t *testing.T) {
	var got SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tvly-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"query":"AI芯片","results":[{"title":"报道","url":"https://news.example/1","content":"摘要","score":0.9,"published_date":"2025-02-28"}]}`))
	}))
	defer srv.Close()

	c := NewClient("tvly-key", WithEndpoint(srv.URL))
	resp, err := c.Search(context.Background(), &search.Request{Query: "AI芯片", Topic: "news"})
	require.NoError(t, err)

	assert.Equal(t, "basic", got.SearchDepth)
	assert.Equal(t, 5, got.MaxResults)
	assert.Equal(t, "news", got.Topic)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "https://news.example/1", resp.Results[0].URL)
	assert.Equal(t, 0.9, resp.Results[0].Score)
}

func TestClient_SearchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("k", WithEndpoint(srv.URL)).Search(context.Background(), &search.Request{Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

package searxng

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/report_radar/app/report_radar/pkg/search"
)

func TestClient_SearchNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "储能 能源", q.Get("q"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "news", q.Get("categories"))
		assert.Equal(t, "year", q.Get("time_range"))
		assert.Equal(t, "zh-CN", q.Get("language"))

		items := []string{
			`{"title":" 储能装机创新高 ","url":"https://s.example/0","publishedDate":"2025-01-02T08:00:00Z","score":2.5}`,
			`{"title":"重复","url":"https://s.example/0"}`,
			`{"title":"磁力链接","url":"magnet:?xt=urn:btih:abc"}`,
			`{"title":"无日期","url":"https://s.example/1","publishedDate":null}`,
		}
		for i := 2; i < 5; i++ {
			items = append(items, fmt.Sprintf(`{"title":"t%d","url":"https://s.example/%d","publishedDate":"2025-01-0%d 10:00:00"}`, i, i, i))
		}
		w.Write([]byte(`{"query":"储能 能源","results":[` + strings.Join(items, ",") + `]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", 0)
	resp, err := c.Search(context.Background(), &search.Request{Query: "储能 能源", Topic: "news", MaxResults: 3})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, search.Result{Title: "储能装机创新高", URL: "https://s.example/0", Score: 2.5, PublishedDate: "2025-01-02"}, resp.Results[0])
	assert.Equal(t, "https://s.example/1", resp.Results[1].URL)
	assert.Empty(t, resp.Results[1].PublishedDate)
	assert.Equal(t, "2025-01-02", resp.Results[2].PublishedDate)
}

func TestClient_NewsFallsBackToGeneral(t *testing.T) {
	var categories []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		categories = append(categories, q.Get("categories"))
		if q.Get("categories") == "news" {
			w.Write([]byte(`{"results":[]}`))
			return
		}
		assert.Empty(t, q.Get("time_range"))
		w.Write([]byte(`{"results":[{"title":"行业综述","url":"https://g.example/a"}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, 5).Search(context.Background(), &search.Request{Query: "钠离子电池", Topic: "news", MaxResults: 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"news", "general"}, categories)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "行业综述", resp.Results[0].Title)
}

func TestClient_GeneralLatinQuery(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		q := r.URL.Query()
		assert.Equal(t, "general", q.Get("categories"))
		assert.Empty(t, q.Get("language"))
		assert.Empty(t, q.Get("time_range"))
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, 5).Search(context.Background(), &search.Request{Query: "battery storage"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 1, calls)
}

func TestClient_SearchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 5).Search(context.Background(), &search.Request{Query: "x", Topic: "news"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "rate limited")
}

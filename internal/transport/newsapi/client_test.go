package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newslens-cloud/newslens/internal/domain"
)

func TestSearch(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		gotQuery = map[string]string{
			"q":        q.Get("q"),
			"pageSize": q.Get("pageSize"),
			"language": q.Get("language"),
			"sortBy":   q.Get("sortBy"),
			"apiKey":   q.Get("apiKey"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{"title": "Go 1.26 released", "description": "New GC", "url": "http://a", "source": {"name": "The Register"}},
				{"title": "Untitled", "description": "", "url": "http://b", "source": {"name": ""}}
			]
		}`))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	articles, err := client.Search(context.Background(), "golang", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if gotQuery["q"] != "golang" || gotQuery["pageSize"] != "10" {
		t.Errorf("query params = %v", gotQuery)
	}
	if gotQuery["language"] != "en" || gotQuery["sortBy"] != "publishedAt" {
		t.Errorf("fixed params = %v", gotQuery)
	}
	if gotQuery["apiKey"] != "test-key" {
		t.Errorf("apiKey = %q, want test-key", gotQuery["apiKey"])
	}

	if len(articles) != 2 {
		t.Fatalf("len(articles) = %d, want 2", len(articles))
	}
	if articles[0].Title != "Go 1.26 released" || articles[0].Source != "The Register" {
		t.Errorf("articles[0] = %+v", articles[0])
	}
}

func TestSearchCapsPageSize(t *testing.T) {
	var gotPageSize string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPageSize = r.URL.Query().Get("pageSize")
		_, _ = w.Write([]byte(`{"status": "ok", "articles": []}`))
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))
	if _, err := client.Search(context.Background(), "q", 500); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotPageSize != "100" {
		t.Errorf("pageSize = %q, want 100", gotPageSize)
	}
}

func TestSearchAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status": "error", "code": "apiKeyInvalid", "message": "Your API key is invalid"}`))
	}))
	defer server.Close()

	client := New("bad-key", WithBaseURL(server.URL))
	_, err := client.Search(context.Background(), "q", 10)
	if !errors.Is(err, domain.ErrNewsAuthFailed) {
		t.Errorf("Search() error = %v, want ErrNewsAuthFailed", err)
	}
}

func TestSearchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status": "error", "code": "rateLimited", "message": "Too many requests"}`))
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))
	_, err := client.Search(context.Background(), "q", 10)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("Search() error = %v, want ErrRateLimited", err)
	}
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status": "error", "message": "boom"}`))
	}))
	defer server.Close()

	client := New("k", WithBaseURL(server.URL))
	_, err := client.Search(context.Background(), "q", 10)
	if !errors.Is(err, domain.ErrNewsProviderError) {
		t.Errorf("Search() error = %v, want ErrNewsProviderError", err)
	}
}

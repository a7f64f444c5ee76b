package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sweetpotato0/citekit/source"
)

func searchServer(t *testing.T, results []map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("missing format=json in %s", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
}

func TestRetrieveMapsResults(t *testing.T) {
	srv := searchServer(t, []map[string]any{
		{"title": "Solar in Germany", "url": "https://example.org/solar", "content": "82 GW installed.", "score": 2.5},
		{"title": "No URL entry", "url": "", "content": "skipped", "score": 1.0},
	})
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, MaxResults: 10}, srv.Client())
	hits, err := a.Retrieve(context.Background(), source.Request{Subquery: "solar germany", Limit: 10})
	if err != nil {
		t.Fatal(err)
	}

	if len(hits) != 1 {
		t.Fatalf("expected 1 hit (URL-less results dropped), got %d", len(hits))
	}
	hit := hits[0]
	if hit.Type != source.TypeWeb || hit.Source != Name {
		t.Errorf("hit = %+v", hit)
	}
	if hit.Title != "Solar in Germany" || hit.Score != 2.5 {
		t.Errorf("hit = %+v", hit)
	}
}

func TestRetrieveHonoursRequestLimit(t *testing.T) {
	var results []map[string]any
	for i := 0; i < 8; i++ {
		results = append(results, map[string]any{
			"title": "r", "url": "https://example.org/r", "content": "c", "score": 1.0,
		})
	}
	srv := searchServer(t, results)
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, MaxResults: 10}, srv.Client())
	hits, err := a.Retrieve(context.Background(), source.Request{Subquery: "q", Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Errorf("expected 3 hits, got %d", len(hits))
	}
}

func TestRetrieveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL}, srv.Client())
	if _, err := a.Retrieve(context.Background(), source.Request{Subquery: "q"}); err == nil {
		t.Error("expected an error for a failing endpoint")
	}
}

func TestEnrichReplacesSnippet(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>Full page text with much more detail.</p></body></html>"))
	}))
	defer page.Close()

	srv := searchServer(t, []map[string]any{
		{"title": "Page", "url": page.URL, "content": "short snippet", "score": 1.0},
	})
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, MaxResults: 5, EnrichTop: 1}, http.DefaultClient)
	hits, err := a.Retrieve(context.Background(), source.Request{Subquery: "q", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].Snippet == "short snippet" {
		t.Error("enrichment did not replace the snippet")
	}
	if hits[0].ContentType != "page" {
		t.Errorf("content type = %q, want page", hits[0].ContentType)
	}
}

func TestEnrichFailureKeepsSnippet(t *testing.T) {
	srv := searchServer(t, []map[string]any{
		{"title": "Dead link", "url": "http://127.0.0.1:1/nope", "content": "search snippet", "score": 1.0},
	})
	defer srv.Close()

	a := New(Config{BaseURL: srv.URL, MaxResults: 5, EnrichTop: 1}, http.DefaultClient)
	hits, err := a.Retrieve(context.Background(), source.Request{Subquery: "q", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Snippet != "search snippet" {
		t.Errorf("failed enrichment must keep the search snippet, got %q", hits[0].Snippet)
	}
}

package stories

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTopStories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/extract" {
			t.Errorf("path = %q, want /v1/extract", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}

		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if len(req.URLs) != 1 || req.URLs[0] != frontPage {
			t.Errorf("urls = %v", req.URLs)
		}
		if req.Schema == nil {
			t.Error("schema missing from request")
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"stories": []map[string]string{
					{"title": "Go 1.26 released", "url": "https://example.com/go", "summary": "New GC."},
				},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	got, err := c.TopStories(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d stories, want 1", len(got))
	}
	if got[0].Title != "Go 1.26 released" {
		t.Errorf("title = %q", got[0].Title)
	}
}

func TestTopStoriesServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	if _, err := c.TopStories(context.Background()); err == nil {
		t.Error("expected error for 502 response")
	}
}

func TestTopStoriesUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "quota exceeded"})
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	_, err := c.TopStories(context.Background())
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v, want quota message", err)
	}
}

func TestFormatDigest(t *testing.T) {
	got := FormatDigest([]Story{
		{Title: "A", URL: "https://a", Summary: "about a"},
		{Title: "B", URL: "https://b"},
	})
	for _, want := range []string{"1. A", "https://a", "about a", "2. B", "https://b"} {
		if !strings.Contains(got, want) {
			t.Errorf("digest missing %q:\n%s", want, got)
		}
	}
}

func TestFormatDigestEmpty(t *testing.T) {
	if got := FormatDigest(nil); got != "No trending stories right now." {
		t.Errorf("got %q", got)
	}
}

func TestFormatDigestCapped(t *testing.T) {
	var many []Story
	for i := 0; i < 20; i++ {
		many = append(many, Story{Title: "t", URL: "u"})
	}
	got := FormatDigest(many)
	if strings.Contains(got, "11.") {
		t.Error("digest should cap at 10 stories")
	}
}

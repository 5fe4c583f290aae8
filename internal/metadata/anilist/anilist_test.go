package anilist

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/otakuflix/anipost/internal/metadata"
)

func newTestClient(handler http.Handler) (*Client, func()) {
	srv := httptest.NewServer(handler)
	c := NewClient()
	c.BaseURL = srv.URL
	return c, srv.Close
}

func TestLookup(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body struct {
			Query     string `json:"query"`
			Variables struct {
				Search string `json:"search"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if body.Variables.Search != "Naruto" {
			t.Errorf("search variable = %q", body.Variables.Search)
		}

		w.Write([]byte(`{"data": {"Media": {
			"id": 20,
			"title": {"romaji": "NARUTO", "english": "Naruto"},
			"description": "A young ninja.",
			"coverImage": {"extraLarge": "https://example.com/xl.jpg", "large": "https://example.com/l.jpg"},
			"averageScore": 79,
			"genres": ["Action", "Adventure"],
			"status": "RELEASING"
		}}}`))
	}))
	defer done()

	res, ok := c.Lookup(context.Background(), "Naruto").Get()
	if !ok {
		t.Fatal("want a lookup result")
	}
	if res.ID != 20 {
		t.Errorf("id = %d", res.ID)
	}
	if res.Show.Title != "Naruto" {
		t.Errorf("title = %q, want the English title preferred", res.Show.Title)
	}
	if res.Show.Rating != "7.9" {
		t.Errorf("rating = %q, want averageScore mapped to the /10 scale", res.Show.Rating)
	}
	if res.Show.PosterURL != "https://example.com/xl.jpg" {
		t.Errorf("poster = %q, want extraLarge preferred", res.Show.PosterURL)
	}
	if res.Show.Status != metadata.StatusAiring {
		t.Errorf("status = %q", res.Show.Status)
	}
	if len(res.Show.Genres) != 2 {
		t.Errorf("genres = %v", res.Show.Genres)
	}
}

func TestLookupFallsBackToRomajiTitle(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"Media": {
			"id": 21,
			"title": {"romaji": "Shingeki no Kyojin"},
			"status": "FINISHED"
		}}}`))
	}))
	defer done()

	res, ok := c.Lookup(context.Background(), "Shingeki").Get()
	if !ok {
		t.Fatal("want a lookup result")
	}
	if res.Show.Title != "Shingeki no Kyojin" {
		t.Errorf("title = %q", res.Show.Title)
	}
	if res.Show.Status != "finished" {
		t.Errorf("status = %q", res.Show.Status)
	}
}

func TestLookupNoMatch(t *testing.T) {
	c, done := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// AniList answers 404 when the search has no match.
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"data": {"Media": null}}`))
	}))
	defer done()

	if c.Lookup(context.Background(), "no such show").IsPresent() {
		t.Error("no match must be a miss")
	}
}

func TestNormalizeScore(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{79, "7.9"},
		{100, "10"},
		{5, "0.5"},
		{0, ""},
		{-1, ""},
	}
	for _, tt := range tests {
		if got := normalizeScore(tt.score); got != tt.want {
			t.Errorf("normalizeScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

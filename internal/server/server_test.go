package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/otakuflix/anipost/internal/announce"
	"github.com/otakuflix/anipost/internal/catalog"
	"github.com/otakuflix/anipost/internal/config"
	"github.com/otakuflix/anipost/internal/resolver"
	"github.com/otakuflix/anipost/internal/session"
)

type stubCatalog struct {
	cat *catalog.Catalog
	err error
}

func (s *stubCatalog) Fetch(ctx context.Context) (*catalog.Catalog, error) {
	return s.cat, s.err
}

type stubResolver struct {
	post *resolver.Post
	err  error
}

func (s *stubResolver) Resolve(ctx context.Context, name string, episode int) (*resolver.Post, error) {
	return s.post, s.err
}

func newTestServer(cat *stubCatalog, res PostResolver) *Server {
	s := &Server{
		config: &config.Config{
			ChannelTag: "@ANIFLIX_OFFICIAL",
		},
		store:    session.NewStore(10 * time.Minute),
		bus:      announce.NewBus(),
		catalog:  cat,
		resolver: res,
		log:      logrus.WithField("component", "server"),
	}
	s.router = s.buildRouter()
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubCatalog{cat: catalog.New(nil)}, &stubResolver{})

	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestSuggest(t *testing.T) {
	cat := catalog.New([]catalog.Entry{
		{Name: "Naruto"},
		{Name: "Boruto"},
	})
	s := newTestServer(&stubCatalog{cat: cat}, &stubResolver{})

	rec := get(t, s, "/api/suggest?q=Narutoo")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp suggestResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(resp.Suggestions) == 0 || resp.Suggestions[0] != "Naruto" {
		t.Fatalf("suggestions = %v", resp.Suggestions)
	}
}

func TestSuggestRequiresQuery(t *testing.T) {
	s := newTestServer(&stubCatalog{cat: catalog.New(nil)}, &stubResolver{})

	if rec := get(t, s, "/api/suggest"); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSuggestCatalogDown(t *testing.T) {
	s := newTestServer(&stubCatalog{err: context.DeadlineExceeded}, &stubResolver{})

	if rec := get(t, s, "/api/suggest?q=x"); rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	res := &stubResolver{post: &resolver.Post{
		Title:       "Naruto",
		Season:      2,
		Episode:     7,
		Rating:      "8.25",
		Synopsis:    "A short recap.",
		ImageURL:    "https://example.com/p.jpg",
		WatchURL:    "https://aniflix.in/detail?aid=42",
		DownloadURL: "https://hindi.aniflix.in/search?q=Naruto",
	}}
	s := newTestServer(&stubCatalog{cat: catalog.New(nil)}, res)

	rec := get(t, s, "/api/preview?name=Naruto&episode=7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp previewResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if !strings.Contains(resp.Caption, "New Episode 07 Added") {
		t.Errorf("caption missing episode line:\n%s", resp.Caption)
	}
	if resp.ImageURL != "https://example.com/p.jpg" {
		t.Errorf("image = %q", resp.ImageURL)
	}
}

func TestPreviewValidation(t *testing.T) {
	s := newTestServer(&stubCatalog{cat: catalog.New(nil)}, &stubResolver{})

	for _, path := range []string{
		"/api/preview",
		"/api/preview?name=Naruto",
		"/api/preview?name=Naruto&episode=zero",
		"/api/preview?name=Naruto&episode=0",
	} {
		if rec := get(t, s, path); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

func TestPreviewUnknownName(t *testing.T) {
	res := &stubResolver{err: &resolver.NotFoundError{Name: "Bleach"}}
	s := newTestServer(&stubCatalog{cat: catalog.New(nil)}, res)

	if rec := get(t, s, "/api/preview?name=Bleach&episode=1"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestPreviewResolutionFailure(t *testing.T) {
	res := &stubResolver{err: context.DeadlineExceeded}
	s := newTestServer(&stubCatalog{cat: catalog.New(nil)}, res)

	if rec := get(t, s, "/api/preview?name=Naruto&episode=1"); rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestListSessions(t *testing.T) {
	s := newTestServer(&stubCatalog{cat: catalog.New(nil)}, &stubResolver{})
	s.store.Begin(1, session.CommandWatch)

	rec := get(t, s, "/api/sessions")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var sessions []session.Session
	if err := json.NewDecoder(rec.Body).Decode(&sessions); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(sessions) != 1 || sessions[0].UserID != 1 {
		t.Fatalf("sessions = %+v", sessions)
	}
}

func TestListSessionsEmptyIsArray(t *testing.T) {
	s := newTestServer(&stubCatalog{cat: catalog.New(nil)}, &stubResolver{})

	rec := get(t, s, "/api/sessions")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want an empty JSON array", body)
	}
}

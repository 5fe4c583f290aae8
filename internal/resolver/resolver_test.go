package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/mo"

	"github.com/otakuflix/anipost/internal/catalog"
	"github.com/otakuflix/anipost/internal/metadata"
	"github.com/otakuflix/anipost/internal/metadata/anilist"
	"github.com/otakuflix/anipost/internal/metadata/kitsu"
)

// --- Stubs ---

type stubCatalog struct {
	cat *catalog.Catalog
	err error
}

func (s *stubCatalog) Fetch(ctx context.Context) (*catalog.Catalog, error) {
	return s.cat, s.err
}

type stubCrossRef struct {
	res mo.Option[anilist.Result]
}

func (s *stubCrossRef) Lookup(ctx context.Context, name string) mo.Option[anilist.Result] {
	return s.res
}

type stubEpisodes struct {
	res mo.Option[metadata.Episode]
}

func (s *stubEpisodes) Episode(ctx context.Context, anilistID, number int) mo.Option[metadata.Episode] {
	return s.res
}

type stubGeneral struct {
	search  mo.Option[kitsu.SearchResult]
	show    mo.Option[metadata.Show]
	episode mo.Option[metadata.Episode]
}

func (s *stubGeneral) Search(ctx context.Context, name string) mo.Option[kitsu.SearchResult] {
	return s.search
}

func (s *stubGeneral) Details(ctx context.Context, id string) mo.Option[metadata.Show] {
	return s.show
}

func (s *stubGeneral) Episode(ctx context.Context, id string, number int) mo.Option[metadata.Episode] {
	return s.episode
}

func acceptAll(ctx context.Context, url string) bool { return true }
func rejectAll(ctx context.Context, url string) bool { return false }

var testConfig = Config{
	WatchBaseURL:     "https://aniflix.in/detail",
	DownloadBaseURL:  "https://hindi.aniflix.in/search",
	PlaceholderImage: "https://example.com/placeholder.jpg",
}

func testCatalog() *stubCatalog {
	return &stubCatalog{cat: catalog.New([]catalog.Entry{
		{Name: "Naruto", AID: "42", Posters: []string{"https://example.com/naruto.jpg"}},
		{Name: "Naruto Season 2", AID: "43"},
	})}
}

func newTestResolver(crossRef *stubCrossRef, episodes *stubEpisodes, general *stubGeneral, validate ImageValidator) *Resolver {
	return New(testConfig, testCatalog(), crossRef, episodes, general, validate)
}

func emptyResolver(validate ImageValidator) *Resolver {
	return newTestResolver(&stubCrossRef{}, &stubEpisodes{}, &stubGeneral{}, validate)
}

// --- Tests ---

func TestResolveUnknownNameIsNotFound(t *testing.T) {
	r := emptyResolver(rejectAll)

	_, err := r.Resolve(context.Background(), "Bleach", 1)
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestResolveAllSourcesUnavailable(t *testing.T) {
	r := emptyResolver(rejectAll)

	post, err := r.Resolve(context.Background(), "naruto", 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if post.Title != "Naruto" {
		t.Errorf("title = %q, want canonical catalog name", post.Title)
	}
	if post.Rating != metadata.RatingUnavailable {
		t.Errorf("rating = %q, want sentinel", post.Rating)
	}
	if post.Synopsis != metadata.SynopsisUnavailable {
		t.Errorf("synopsis = %q, want sentinel", post.Synopsis)
	}
	if post.ImageURL != testConfig.PlaceholderImage {
		t.Errorf("image = %q, want placeholder", post.ImageURL)
	}
	if post.Season != 1 {
		t.Errorf("season = %d, want default 1", post.Season)
	}
	if post.WatchURL != "https://aniflix.in/detail?aid=42" {
		t.Errorf("watch url = %q", post.WatchURL)
	}
	if post.DownloadURL != "https://hindi.aniflix.in/search?q=Naruto" {
		t.Errorf("download url = %q", post.DownloadURL)
	}
}

func TestResolvePrimarySourceWins(t *testing.T) {
	crossRef := &stubCrossRef{res: mo.Some(anilist.Result{
		ID: 20,
		Show: metadata.Show{
			Rating:   "7",
			Synopsis: "tertiary synopsis",
			Genres:   []string{"Action"},
		},
	})}
	episodes := &stubEpisodes{res: mo.Some(metadata.Episode{
		Title:        "Enter the Hero",
		Synopsis:     "primary synopsis (Source: ani.zip)",
		ImageURL:     "https://example.com/ep3.jpg",
		Rating:       "8.4",
		SeasonNumber: 2,
		Number:       3,
	})}
	general := &stubGeneral{
		search:  mo.Some(kitsu.SearchResult{ID: "1", PosterURL: "https://example.com/poster.jpg"}),
		show:    mo.Some(metadata.Show{Rating: "6.5", Synopsis: "secondary synopsis"}),
		episode: mo.Some(metadata.Episode{Synopsis: "secondary ep synopsis"}),
	}

	r := newTestResolver(crossRef, episodes, general, acceptAll)
	post, err := r.Resolve(context.Background(), "Naruto", 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if post.EpisodeTitle != "Enter the Hero" {
		t.Errorf("episode title = %q", post.EpisodeTitle)
	}
	if post.Rating != "8.4" {
		t.Errorf("rating = %q, want primary", post.Rating)
	}
	if post.Synopsis != "primary synopsis" {
		t.Errorf("synopsis = %q, want primary with citation stripped", post.Synopsis)
	}
	if post.Season != 2 {
		t.Errorf("season = %d, want primary", post.Season)
	}
	if post.ImageURL != "https://example.com/ep3.jpg" {
		t.Errorf("image = %q, want primary", post.ImageURL)
	}
	if len(post.Genres) != 1 || post.Genres[0] != "Action" {
		t.Errorf("genres = %v, want tertiary genres", post.Genres)
	}
}

func TestResolveFallsBackToSecondary(t *testing.T) {
	general := &stubGeneral{
		search:  mo.Some(kitsu.SearchResult{ID: "1", PosterURL: "https://example.com/poster.jpg"}),
		show:    mo.Some(metadata.Show{Rating: "6.5", Synopsis: "show synopsis", Status: "current", PosterURL: "https://example.com/show.jpg"}),
		episode: mo.Some(metadata.Episode{Synopsis: "episode synopsis", ImageURL: "https://example.com/thumb.jpg"}),
	}

	r := newTestResolver(&stubCrossRef{}, &stubEpisodes{}, general, acceptAll)
	post, err := r.Resolve(context.Background(), "Naruto", 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if post.Rating != "6.5" {
		t.Errorf("rating = %q, want secondary show rating", post.Rating)
	}
	if post.Synopsis != "episode synopsis" {
		t.Errorf("synopsis = %q, want secondary episode synopsis", post.Synopsis)
	}
	if !post.Airing {
		t.Error("want airing from secondary status")
	}
	if post.ImageURL != "https://example.com/thumb.jpg" {
		t.Errorf("image = %q, want secondary thumbnail", post.ImageURL)
	}
}

func TestResolveTertiaryRatingWhenSecondaryLacksOne(t *testing.T) {
	// Kitsu resolves the show but carries no rating; the rating must
	// keep falling through to AniList instead of stopping at "N/A".
	crossRef := &stubCrossRef{res: mo.Some(anilist.Result{
		ID:   20,
		Show: metadata.Show{Rating: "8.2"},
	})}
	general := &stubGeneral{
		search: mo.Some(kitsu.SearchResult{ID: "1"}),
		show:   mo.Some(metadata.Show{Title: "Naruto", Synopsis: "show synopsis"}),
	}

	r := newTestResolver(crossRef, &stubEpisodes{}, general, rejectAll)
	post, err := r.Resolve(context.Background(), "Naruto", 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if post.Rating != "8.2" {
		t.Errorf("rating = %q, want tertiary 8.2 when secondary has none", post.Rating)
	}
}

func TestResolveImageValidationOrder(t *testing.T) {
	episodes := &stubEpisodes{res: mo.Some(metadata.Episode{
		ImageURL: "https://example.com/broken.jpg",
	})}
	crossRef := &stubCrossRef{res: mo.Some(anilist.Result{ID: 20})}
	general := &stubGeneral{
		episode: mo.Some(metadata.Episode{ImageURL: "https://example.com/good.jpg"}),
	}

	// Only the secondary image validates.
	validate := func(ctx context.Context, url string) bool {
		return url == "https://example.com/good.jpg"
	}

	r := newTestResolver(crossRef, episodes, general, validate)
	post, err := r.Resolve(context.Background(), "Naruto", 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if post.ImageURL != "https://example.com/good.jpg" {
		t.Errorf("image = %q, want first validating candidate", post.ImageURL)
	}
}

func TestResolveSeasonFromName(t *testing.T) {
	r := emptyResolver(rejectAll)

	post, err := r.Resolve(context.Background(), "Naruto Season 2", 7)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if post.Season != 2 {
		t.Errorf("season = %d, want 2 parsed from name", post.Season)
	}
}

func TestResolveCatalogFetchError(t *testing.T) {
	r := New(testConfig, &stubCatalog{err: errors.New("boom")},
		&stubCrossRef{}, &stubEpisodes{}, &stubGeneral{}, rejectAll)

	if _, err := r.Resolve(context.Background(), "Naruto", 1); err == nil {
		t.Fatal("want error when the catalog cannot be fetched")
	}
}

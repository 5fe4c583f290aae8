// Package resolver merges metadata from the catalog, ani.zip, Kitsu,
// and AniList into a single announcement post.
//
// Sources are consulted sequentially in a fixed priority order and
// every field is filled by the first source that has a non-empty
// value. Source failures degrade to the next fallback; only a missing
// catalog entry is an error the caller sees.
package resolver

import (
	"context"
	"fmt"
	"net/url"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"github.com/otakuflix/anipost/internal/catalog"
	"github.com/otakuflix/anipost/internal/metadata"
	"github.com/otakuflix/anipost/internal/metadata/anilist"
	"github.com/otakuflix/anipost/internal/metadata/kitsu"
)

// CatalogSource provides catalog snapshots.
type CatalogSource interface {
	Fetch(ctx context.Context) (*catalog.Catalog, error)
}

// CrossRefSource looks up the external cross-reference id and
// show-level metadata by name.
type CrossRefSource interface {
	Lookup(ctx context.Context, name string) mo.Option[anilist.Result]
}

// EpisodeMapSource returns per-episode metadata keyed by the
// cross-reference id.
type EpisodeMapSource interface {
	Episode(ctx context.Context, anilistID, number int) mo.Option[metadata.Episode]
}

// GeneralSource is the secondary show + episode metadata provider.
type GeneralSource interface {
	Search(ctx context.Context, name string) mo.Option[kitsu.SearchResult]
	Details(ctx context.Context, id string) mo.Option[metadata.Show]
	Episode(ctx context.Context, id string, number int) mo.Option[metadata.Episode]
}

// ImageValidator reports whether a candidate URL serves an image.
type ImageValidator func(ctx context.Context, url string) bool

// Config holds the link bases and the placeholder image.
type Config struct {
	WatchBaseURL     string
	DownloadBaseURL  string
	PlaceholderImage string
}

// Post is the fully merged result, consumed once to build the
// outgoing message.
type Post struct {
	Title        string
	AID          string
	EpisodeTitle string
	Season       int
	Episode      int
	Rating       string
	Synopsis     string
	Airing       bool
	Genres       []string
	ImageURL     string
	WatchURL     string
	DownloadURL  string
}

// NotFoundError reports that the requested name has no catalog entry.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("anime %q not found in catalog", e.Name)
}

// Resolver orchestrates the metadata sources.
type Resolver struct {
	cfg      Config
	catalog  CatalogSource
	crossRef CrossRefSource
	episodes EpisodeMapSource
	general  GeneralSource
	validate ImageValidator
	log      *logrus.Entry
}

// New creates a Resolver.
func New(cfg Config, cat CatalogSource, crossRef CrossRefSource, episodes EpisodeMapSource, general GeneralSource, validate ImageValidator) *Resolver {
	return &Resolver{
		cfg:      cfg,
		catalog:  cat,
		crossRef: crossRef,
		episodes: episodes,
		general:  general,
		validate: validate,
		log:      logrus.WithField("component", "resolver"),
	}
}

// Resolve produces a Post for the given anime name and episode number.
// It returns *NotFoundError when the name has no catalog entry; every
// other source failure degrades to sentinel values.
func (r *Resolver) Resolve(ctx context.Context, name string, episode int) (*Post, error) {
	cat, err := r.catalog.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}

	entry, ok := cat.Lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	canonical := entry.Name

	// Primary: AniList cross-reference id keys the ani.zip episode map.
	crossRef := r.crossRef.Lookup(ctx, canonical)
	primary := mo.None[metadata.Episode]()
	if ref, ok := crossRef.Get(); ok {
		primary = r.episodes.Episode(ctx, ref.ID, episode)
	}

	// Secondary: Kitsu show details and per-episode lookup.
	var kitsuShow mo.Option[metadata.Show]
	var kitsuEpisode mo.Option[metadata.Episode]
	var kitsuPoster string
	if found, ok := r.general.Search(ctx, canonical).Get(); ok {
		kitsuPoster = found.PosterURL
		kitsuShow = r.general.Details(ctx, found.ID)
		kitsuEpisode = r.general.Episode(ctx, found.ID, episode)
	}

	post := &Post{
		Title:   canonical,
		AID:     entry.AID,
		Episode: episode,
	}

	primaryEp, _ := primary.Get()
	secondaryEp, _ := kitsuEpisode.Get()
	secondaryShow, _ := kitsuShow.Get()
	tertiary := mo.None[metadata.Show]()
	if ref, ok := crossRef.Get(); ok {
		tertiary = mo.Some(ref.Show)
	}
	tertiaryShow, _ := tertiary.Get()

	post.EpisodeTitle = firstNonEmpty(primaryEp.Title, secondaryEp.Title)
	post.Rating = firstNonEmpty(primaryEp.Rating, secondaryShow.Rating, tertiaryShow.Rating, metadata.RatingUnavailable)
	post.Synopsis = CleanSynopsis(firstNonEmpty(
		primaryEp.Synopsis, secondaryEp.Synopsis, secondaryShow.Synopsis, tertiaryShow.Synopsis,
	))
	if post.Synopsis == "" {
		post.Synopsis = metadata.SynopsisUnavailable
	}
	post.Genres = tertiaryShow.Genres
	post.Airing = firstNonEmpty(secondaryShow.Status, tertiaryShow.Status) == metadata.StatusAiring

	post.Season = r.resolveSeason(canonical, primaryEp, secondaryEp)
	post.ImageURL = r.selectImage(ctx, primaryEp, secondaryEp, secondaryShow, tertiaryShow, kitsuPoster, entry.Posters)

	if entry.AID != "" {
		post.WatchURL = fmt.Sprintf("%s?aid=%s", r.cfg.WatchBaseURL, url.QueryEscape(entry.AID))
	}
	post.DownloadURL = fmt.Sprintf("%s?q=%s", r.cfg.DownloadBaseURL, url.QueryEscape(canonical))

	r.log.WithFields(logrus.Fields{
		"anime":   canonical,
		"episode": episode,
		"season":  post.Season,
	}).Debug("post resolved")

	return post, nil
}

// resolveSeason applies the season precedence: per-episode metadata
// first, then a "season N" pattern in the name, else 1. The order is
// first-present-wins, same as the signals arrive.
func (r *Resolver) resolveSeason(name string, primary, secondary metadata.Episode) int {
	if primary.SeasonNumber > 0 {
		return primary.SeasonNumber
	}
	if secondary.SeasonNumber > 0 {
		return secondary.SeasonNumber
	}
	if n := SeasonFromName(name); n > 0 {
		return n
	}
	return 1
}

// selectImage probes candidate URLs in source-priority order and
// returns the first that actually serves an image, else the
// placeholder.
func (r *Resolver) selectImage(ctx context.Context, primary, secondary metadata.Episode, secondaryShow, tertiaryShow metadata.Show, kitsuPoster string, catalogPosters []string) string {
	candidates := []string{
		primary.ImageURL,
		secondary.ImageURL,
		secondaryShow.PosterURL,
		kitsuPoster,
		tertiaryShow.PosterURL,
	}
	candidates = append(candidates, catalogPosters...)

	for _, u := range candidates {
		if u == "" {
			continue
		}
		if r.validate(ctx, u) {
			return u
		}
	}
	return r.cfg.PlaceholderImage
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package kitsu provides a client for the Kitsu REST API.
//
// Kitsu is the secondary metadata source: show-level details plus
// per-episode thumbnails and synopses. Failures never escape the
// client; callers get mo.None instead.
package kitsu

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"github.com/otakuflix/anipost/internal/metadata"
	"github.com/otakuflix/anipost/internal/network"
)

const defaultBaseURL = "https://kitsu.io/api/edge"

const requestTimeout = 10 * time.Second

// Client talks to the Kitsu API.
type Client struct {
	// BaseURL can be overridden in tests.
	BaseURL string
	log     *logrus.Entry
}

// NewClient creates a Kitsu client.
func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		log:     logrus.WithField("component", "kitsu"),
	}
}

// SearchResult is the outcome of a name search.
type SearchResult struct {
	ID        string
	PosterURL string
}

type animeAttributes struct {
	CanonicalTitle string `json:"canonicalTitle"`
	AverageRating  string `json:"averageRating"`
	Synopsis       string `json:"synopsis"`
	Status         string `json:"status"`
	PosterImage    struct {
		Original string `json:"original"`
	} `json:"posterImage"`
}

type episodeAttributes struct {
	CanonicalTitle string `json:"canonicalTitle"`
	Synopsis       string `json:"synopsis"`
	SeasonNumber   int    `json:"seasonNumber"`
	Number         int    `json:"number"`
	Thumbnail      struct {
		Original string `json:"original"`
	} `json:"thumbnail"`
}

// Search returns the first Kitsu match for the given anime name.
func (c *Client) Search(ctx context.Context, name string) mo.Option[SearchResult] {
	var out struct {
		Data []struct {
			ID         string          `json:"id"`
			Attributes animeAttributes `json:"attributes"`
		} `json:"data"`
	}

	q := url.Values{}
	q.Set("filter[text]", name)
	endpoint := fmt.Sprintf("%s/anime?%s", c.BaseURL, q.Encode())

	if !c.get(ctx, endpoint, &out, func() bool { return len(out.Data) > 0 }) {
		return mo.None[SearchResult]()
	}

	return mo.Some(SearchResult{
		ID:        out.Data[0].ID,
		PosterURL: out.Data[0].Attributes.PosterImage.Original,
	})
}

// Details returns show-level metadata for a Kitsu anime id.
func (c *Client) Details(ctx context.Context, id string) mo.Option[metadata.Show] {
	var out struct {
		Data struct {
			Attributes animeAttributes `json:"attributes"`
		} `json:"data"`
	}

	endpoint := fmt.Sprintf("%s/anime/%s", c.BaseURL, url.PathEscape(id))
	if !c.get(ctx, endpoint, &out, func() bool { return out.Data.Attributes.CanonicalTitle != "" }) {
		return mo.None[metadata.Show]()
	}

	attrs := out.Data.Attributes
	return mo.Some(metadata.Show{
		Title:     attrs.CanonicalTitle,
		Rating:    normalizeRating(attrs.AverageRating),
		Synopsis:  attrs.Synopsis,
		Status:    attrs.Status,
		PosterURL: attrs.PosterImage.Original,
	})
}

// Episode returns per-episode metadata for the given episode number.
func (c *Client) Episode(ctx context.Context, id string, number int) mo.Option[metadata.Episode] {
	var out struct {
		Data []struct {
			Attributes episodeAttributes `json:"attributes"`
		} `json:"data"`
	}

	q := url.Values{}
	q.Set("filter[number]", strconv.Itoa(number))
	endpoint := fmt.Sprintf("%s/anime/%s/episodes?%s", c.BaseURL, url.PathEscape(id), q.Encode())

	if !c.get(ctx, endpoint, &out, func() bool { return len(out.Data) > 0 }) {
		return mo.None[metadata.Episode]()
	}

	attrs := out.Data[0].Attributes
	return mo.Some(metadata.Episode{
		Title:        attrs.CanonicalTitle,
		Synopsis:     attrs.Synopsis,
		ImageURL:     attrs.Thumbnail.Original,
		SeasonNumber: attrs.SeasonNumber,
		Number:       number,
	})
}

// get fetches endpoint into out with the shared retry policy.
// nonEmpty distinguishes a definitive miss (no retry) from a hit.
// Returns false on miss or exhausted retries.
func (c *Client) get(ctx context.Context, endpoint string, out any, nonEmpty func() bool) bool {
	err := network.Retry(ctx, network.DefaultAttempts, network.DefaultDelay, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.api+json")

		resp, err := network.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return network.ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("kitsu returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding kitsu response: %w", err)
		}
		if !nonEmpty() {
			return network.ErrNotFound
		}
		return nil
	})
	if err != nil {
		c.log.WithError(err).WithField("url", endpoint).Debug("kitsu lookup failed")
		return false
	}
	return true
}

// normalizeRating maps Kitsu's percentage-scale averageRating ("82.53")
// onto the /10 scale the caption renders. A missing or unparseable
// rating is returned empty so the resolver can keep falling through
// its rating sources; only the resolver applies the "N/A" sentinel.
func normalizeRating(raw string) string {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ""
	}
	if v > 10 {
		v = math.Round(v*10) / 100
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Package anizip provides a client for the ani.zip mappings API.
//
// ani.zip is the primary per-episode source: keyed by AniList id, it
// returns titles, overviews, images, ratings, and season numbers for
// every episode of a title in a single response.
package anizip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"

	"github.com/otakuflix/anipost/internal/metadata"
	"github.com/otakuflix/anipost/internal/network"
)

const defaultBaseURL = "https://api.ani.zip"

const requestTimeout = 10 * time.Second

// Client talks to the ani.zip API.
type Client struct {
	// BaseURL can be overridden in tests.
	BaseURL string
	log     *logrus.Entry
}

// NewClient creates an ani.zip client.
func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		log:     logrus.WithField("component", "anizip"),
	}
}

type wireEpisode struct {
	Title struct {
		En string `json:"en"`
	} `json:"title"`
	Overview      string          `json:"overview"`
	Image         string          `json:"image"`
	Rating        string          `json:"rating"`
	SeasonNumber  int             `json:"seasonNumber"`
	EpisodeNumber json.RawMessage `json:"episodeNumber"`
}

type mappingsResponse struct {
	Episodes map[string]wireEpisode `json:"episodes"`
}

// Episode returns per-episode metadata for the given AniList id and
// episode number.
func (c *Client) Episode(ctx context.Context, anilistID, number int) mo.Option[metadata.Episode] {
	endpoint := fmt.Sprintf("%s/mappings?anilist_id=%d", c.BaseURL, anilistID)

	var out mappingsResponse
	err := network.Retry(ctx, network.DefaultAttempts, network.DefaultDelay, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}

		resp, err := network.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return network.ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("ani.zip returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decoding ani.zip response: %w", err)
		}
		if len(out.Episodes) == 0 {
			return network.ErrNotFound
		}
		return nil
	})
	if err != nil {
		c.log.WithError(err).WithField("anilist_id", anilistID).Debug("ani.zip lookup failed")
		return mo.None[metadata.Episode]()
	}

	ep, ok := out.Episodes[strconv.Itoa(number)]
	if !ok {
		return mo.None[metadata.Episode]()
	}

	return mo.Some(metadata.Episode{
		Title:        ep.Title.En,
		Synopsis:     ep.Overview,
		ImageURL:     ep.Image,
		Rating:       ep.Rating,
		SeasonNumber: ep.SeasonNumber,
		Number:       number,
	})
}

// Package anilist provides a client for the AniList GraphQL API.
//
// AniList serves two roles: its numeric id is the cross-reference key
// for the ani.zip episode mapping, and its show-level metadata is the
// tertiary fallback for the caption fields.
package anilist

import (
	"bytes"
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

const defaultBaseURL = "https://graphql.anilist.co"

const requestTimeout = 10 * time.Second

const lookupQuery = `query ($search: String) {
	Media(search: $search, type: ANIME) {
		id
		title { romaji english }
		description
		coverImage { extraLarge large }
		averageScore
		genres
		status
	}
}`

// Client talks to the AniList GraphQL endpoint.
type Client struct {
	// BaseURL can be overridden in tests.
	BaseURL string
	log     *logrus.Entry
}

// NewClient creates an AniList client.
func NewClient() *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		log:     logrus.WithField("component", "anilist"),
	}
}

// Result is a show-level AniList match.
type Result struct {
	// ID is the AniList identifier, the cross-reference key for the
	// ani.zip episode mapping.
	ID   int
	Show metadata.Show
}

type lookupResponse struct {
	Data struct {
		Media *struct {
			ID    int `json:"id"`
			Title struct {
				Romaji  string `json:"romaji"`
				English string `json:"english"`
			} `json:"title"`
			Description string `json:"description"`
			CoverImage  struct {
				ExtraLarge string `json:"extraLarge"`
				Large      string `json:"large"`
			} `json:"coverImage"`
			AverageScore int      `json:"averageScore"`
			Genres       []string `json:"genres"`
			Status       string   `json:"status"`
		} `json:"media"`
	} `json:"data"`
}

// Lookup searches AniList by name and returns the best match.
func (c *Client) Lookup(ctx context.Context, name string) mo.Option[Result] {
	body := map[string]any{
		"query": lookupQuery,
		"variables": map[string]any{
			"search": name,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		c.log.WithError(err).Error("marshaling query")
		return mo.None[Result]()
	}

	var out lookupResponse
	err = network.Retry(ctx, network.DefaultAttempts, network.DefaultDelay, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(jsonBody))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := network.Client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		// AniList answers 404 for searches with no match.
		if resp.StatusCode == http.StatusNotFound {
			return network.ErrNotFound
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("anilist returned status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decoding anilist response: %w", err)
		}
		if out.Data.Media == nil {
			return network.ErrNotFound
		}
		return nil
	})
	if err != nil {
		c.log.WithError(err).WithField("name", name).Debug("anilist lookup failed")
		return mo.None[Result]()
	}

	m := out.Data.Media
	title := m.Title.English
	if title == "" {
		title = m.Title.Romaji
	}
	cover := m.CoverImage.ExtraLarge
	if cover == "" {
		cover = m.CoverImage.Large
	}

	return mo.Some(Result{
		ID: m.ID,
		Show: metadata.Show{
			Title:     title,
			Rating:    normalizeScore(m.AverageScore),
			Synopsis:  m.Description,
			Status:    normalizeStatus(m.Status),
			PosterURL: cover,
			Genres:    m.Genres,
		},
	})
}

// normalizeScore maps AniList's 0-100 averageScore onto the /10 scale.
// A missing score is returned empty; the resolver owns the "N/A"
// sentinel.
func normalizeScore(score int) string {
	if score <= 0 {
		return ""
	}
	return strconv.FormatFloat(float64(score)/10, 'f', -1, 64)
}

// normalizeStatus maps AniList status enums onto the shared airing
// vocabulary ("current" while releasing, "finished" otherwise).
func normalizeStatus(status string) string {
	if status == "RELEASING" {
		return metadata.StatusAiring
	}
	return "finished"
}

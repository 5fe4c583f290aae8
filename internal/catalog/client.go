package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	gogh "github.com/google/go-github/v68/github"
	"github.com/sirupsen/logrus"

	"github.com/otakuflix/anipost/internal/network"
)

// Client fetches the catalog document from its GitHub repository.
// Snapshots are memoized for a short TTL so a single dialog does not
// refetch the full listing on every step.
type Client struct {
	gh    *gogh.Client
	owner string
	repo  string
	path  string
	ttl   time.Duration
	log   *logrus.Entry

	mu        sync.Mutex
	snapshot  *Catalog
	fetchedAt time.Time
}

// NewClient creates a catalog client for the given repository file.
// The catalog repo is public, so no token is needed.
func NewClient(owner, repo, path string, ttl time.Duration) *Client {
	return &Client{
		gh:    gogh.NewClient(nil),
		owner: owner,
		repo:  repo,
		path:  path,
		ttl:   ttl,
		log:   logrus.WithField("component", "catalog"),
	}
}

// Fetch returns the current catalog snapshot, downloading a fresh copy
// when the memoized one has expired. Downloads use the shared bounded
// retry policy.
func (c *Client) Fetch(ctx context.Context) (*Catalog, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && time.Since(c.fetchedAt) < c.ttl {
		return c.snapshot, nil
	}

	var cat *Catalog
	err := network.Retry(ctx, network.DefaultAttempts, network.DefaultDelay, func(ctx context.Context) error {
		rc, _, err := c.gh.Repositories.DownloadContents(ctx, c.owner, c.repo, c.path, nil)
		if err != nil {
			return fmt.Errorf("downloading %s/%s/%s: %w", c.owner, c.repo, c.path, err)
		}
		defer rc.Close()

		cat, err = Parse(rc)
		return err
	})
	if err != nil {
		// Serve a stale snapshot over failing the whole resolution.
		if c.snapshot != nil {
			c.log.WithError(err).Warn("catalog refresh failed, serving stale snapshot")
			return c.snapshot, nil
		}
		return nil, err
	}

	c.log.WithField("entries", cat.Len()).Debug("catalog fetched")
	c.snapshot = cat
	c.fetchedAt = time.Now()
	return cat, nil
}

// Package network provides the shared HTTP plumbing for AniPost:
// a tuned client, a bounded-retry helper, and the image URL validator.
package network

import (
	"net/http"
	"time"
)

// Client is the HTTP client shared by every metadata source.
// Per-request deadlines come from the caller's context; the client-level
// timeout is a hard upper bound so no call can block unbounded.
var Client = &http.Client{
	Timeout:   30 * time.Second,
	Transport: newTransport(),
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 50
	t.MaxIdleConnsPerHost = 10
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 15 * time.Second
	return t
}

package network

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// imageCheckTimeout bounds a single HEAD probe.
const imageCheckTimeout = 5 * time.Second

// ValidateImage reports whether url resolves to an actual image
// resource: HEAD request, status 200, and an image content type.
// Any transport failure counts as invalid.
func ValidateImage(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, imageCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	return strings.Contains(resp.Header.Get("Content-Type"), "image")
}

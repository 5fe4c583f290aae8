// Package metadata defines the normalized shapes every external anime
// metadata source is mapped into. No single source is authoritative;
// the resolver fills each field from the first source that has it.
package metadata

// Sentinel values for fields no source could provide.
const (
	RatingUnavailable   = "N/A"
	SynopsisUnavailable = "No synopsis available."
)

// Show is show-level metadata for an anime title.
type Show struct {
	Title     string
	Rating    string // on a /10 scale, or RatingUnavailable
	Synopsis  string
	Status    string // "current" while airing, "finished" otherwise
	PosterURL string
	Genres    []string
}

// Episode is per-episode metadata.
type Episode struct {
	Title        string
	Synopsis     string
	ImageURL     string
	Rating       string
	SeasonNumber int // 0 when the source does not know
	Number       int
}

// StatusAiring is the normalized status for a currently airing show.
const StatusAiring = "current"

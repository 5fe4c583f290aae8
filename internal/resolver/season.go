package resolver

import (
	"fmt"
	"regexp"
	"strconv"
)

var seasonPattern = regexp.MustCompile(`(?i)\bseason\s+(\d{1,2})\b`)

// SeasonFromName parses a "season N" pattern out of an anime name.
// Returns 0 when the name carries no season marker.
func SeasonFromName(name string) int {
	m := seasonPattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// ExtractSeasonNumber returns the season parsed from the name,
// zero-padded to two digits, defaulting to "01".
func ExtractSeasonNumber(name string) string {
	n := SeasonFromName(name)
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("%02d", n)
}

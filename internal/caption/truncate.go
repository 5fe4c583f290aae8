package caption

import "strings"

const ellipsis = "…"

// TruncateSynopsis shortens s to at most max runes, preferring a cut
// at the last sentence boundary, then the last word boundary, else a
// hard cut ending in an ellipsis. Boundaries are only honored when
// they fall in the later half of the window, so a stray early period
// does not gut the text.
func TruncateSynopsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return ellipsis
	}

	window := runes[:max]
	floor := max / 2

	if idx := lastIndexAny(window, ".!?"); idx >= floor {
		return strings.TrimSpace(string(window[:idx+1]))
	}
	if idx := lastIndexAny(window, " "); idx >= floor {
		return strings.TrimSpace(string(window[:idx])) + ellipsis
	}
	return strings.TrimSpace(string(window[:max-1])) + ellipsis
}

func lastIndexAny(runes []rune, chars string) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if strings.ContainsRune(chars, runes[i]) {
			return i
		}
	}
	return -1
}

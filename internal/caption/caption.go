// Package caption renders the decorated announcement caption.
//
// Captions are Telegram MarkdownV2 and must stay within Telegram's
// 1024-character photo caption limit. When a rendered caption runs
// over, only the synopsis is shrunk; title and metadata lines are
// never cut.
package caption

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode/utf8"
)

// Style selects the caption variant.
type Style string

const (
	// StyleWatch is the compact variant produced by /w.
	StyleWatch Style = "watch"
	// StyleDownload is the richer variant produced by /d, with a
	// genre line.
	StyleDownload Style = "download"
)

// MaxLen is Telegram's photo caption budget.
const MaxLen = 1024

// shrinkStep is how much the synopsis target length drops per
// re-render when the caption is over budget.
const shrinkStep = 40

// minSynopsis is the defensive floor: once the synopsis is this short
// the caption is accepted as is.
const minSynopsis = 60

// Data is the merged metadata the template renders.
type Data struct {
	Title      string
	Season     int
	Episode    int
	Rating     string
	Synopsis   string // cleaned, unescaped
	Airing     bool
	Genres     []string
	ChannelTag string
}

// seasonBullets are the decorative glyphs for seasons 1 through 20.
var seasonBullets = [...]string{
	"①", "②", "③", "④", "⑤", "⑥", "⑦", "⑧", "⑨", "⑩",
	"⑪", "⑫", "⑬", "⑭", "⑮", "⑯", "⑰", "⑱", "⑲", "⑳",
}

// defaultBullet covers seasons outside the 1-20 glyph range.
const defaultBullet = "✦"

var sparks = []string{"🔥", "✨", "🌟"}

// SeasonBullet returns the decorative glyph for a season number.
func SeasonBullet(season int) string {
	if season >= 1 && season <= len(seasonBullets) {
		return seasonBullets[season-1]
	}
	return defaultBullet
}

// Format renders the caption for the given style, shrinking the
// synopsis until the result fits the budget.
func Format(d Data, style Style) string {
	synopsis := d.Synopsis
	target := utf8.RuneCountInString(synopsis)

	for {
		out := render(d, style, synopsis)
		if utf8.RuneCountInString(out) <= MaxLen || target <= minSynopsis {
			return out
		}
		target -= shrinkStep
		if target < minSynopsis {
			target = minSynopsis
		}
		synopsis = TruncateSynopsis(d.Synopsis, target)
	}
}

func render(d Data, style Style, synopsis string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Watch :\\- %s %s\n", Escape(d.Title), sparks[rand.Intn(len(sparks))])
	fmt.Fprintf(&sb, "➡️ New Episode %02d Added ✔️\n", d.Episode)
	fmt.Fprintf(&sb, "%s Season %02d\n", SeasonBullet(d.Season), d.Season)
	sb.WriteString("🎧 Hindi Dubbed \\| 1080p HD\n")
	fmt.Fprintf(&sb, "⭐ IMDB Rating %s/10 🔥\n", Escape(d.Rating))

	if style == StyleDownload && len(d.Genres) > 0 {
		fmt.Fprintf(&sb, "🎭 %s\n", Escape(strings.Join(d.Genres, ", ")))
	}

	if synopsis != "" {
		sb.WriteString("⚠️ Spoiler :\n")
		fmt.Fprintf(&sb, ">||%s||\n", Escape(synopsis))
	}

	if d.Airing {
		sb.WriteString("🗓 More episodes on the way, stay tuned\n")
	} else {
		sb.WriteString("🗓 Season Over ❌\n")
	}

	sb.WriteString(Escape(d.ChannelTag))
	return sb.String()
}

// Escape escapes special characters for Telegram MarkdownV2.
func Escape(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(s)
}

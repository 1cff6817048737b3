package layout

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxSlugLen is the maximum slug length, in characters.
const MaxSlugLen = 80

var (
	// Unicode-aware, so Arabic titles keep their letters.
	nonSlugChars  = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separatorRuns = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowercases title, strips punctuation and symbols, collapses runs of
// whitespace and hyphens into single hyphens, trims hyphens from both ends and
// truncates the result to MaxSlugLen characters.
func Slugify(title string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(title), "")
	s = strings.Trim(separatorRuns.ReplaceAllString(s, "-"), "-")
	return truncate(s, MaxSlugLen)
}

// Filename returns the page filename for slug.
func Filename(slug string) string {
	return slug + ".html"
}

// WithSuffix appends "-n" to slug, shortening slug first if needed so the
// result still fits in MaxSlugLen characters.
func WithSuffix(slug string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	return strings.TrimRight(truncate(slug, MaxSlugLen-len(suffix)), "-") + suffix
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

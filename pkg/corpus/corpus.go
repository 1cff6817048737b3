package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
)

// Lang is a language mode. Every generated page is written in exactly one.
type Lang string

const (
	LangArabic  Lang = "ar"
	LangEnglish Lang = "en"
)

// FallbackWords is sampled whenever the list for a language mode is empty.
var FallbackWords = []string{"Keyword", "Trending", "Video"}

// Corpus holds the keyword lists for both language modes.
type Corpus struct {
	arabic  []string
	english []string
}

// New builds a Corpus from in-memory lists. Blank entries are dropped and the
// remaining ones are trimmed, exactly as Load does for files.
func New(arabic, english []string) *Corpus {
	return &Corpus{
		arabic:  clean(arabic),
		english: clean(english),
	}
}

// Load reads every file in arPaths into the Arabic list and every file in
// enPaths into the English list, in order. Files that don't exist are skipped
// silently. Other read failures are collected and returned together, but the
// returned Corpus is always usable and keeps whatever could be read.
func Load(arPaths, enPaths []string) (*Corpus, error) {
	c := &Corpus{}
	var errs []error

	for _, path := range arPaths {
		lines, err := readLines(path)
		if err != nil {
			errs = append(errs, err)
		}
		c.arabic = append(c.arabic, lines...)
	}
	for _, path := range enPaths {
		lines, err := readLines(path)
		if err != nil {
			errs = append(errs, err)
		}
		c.english = append(c.english, lines...)
	}

	return c, errors.Join(errs...)
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open keyword file %s: %w", path, err)
	}
	defer func(file *os.File) {
		_ = file.Close()
	}(file)

	lines, err := ReadLines(file)
	if err != nil {
		return lines, fmt.Errorf("failed to read keyword file %s: %w", path, err)
	}
	return lines, nil
}

// ReadLines returns the trimmed, non-blank lines of r.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	// Some keyword files carry whole paragraphs per line.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func clean(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of loaded entries for lang, not counting fallbacks.
func (c *Corpus) Len(lang Lang) int {
	return len(c.list(lang))
}

func (c *Corpus) list(lang Lang) []string {
	if lang == LangArabic {
		return c.arabic
	}
	return c.english
}

// Words returns the list text is sampled from for lang.
// Any mode other than LangArabic samples the English list.
func (c *Corpus) Words(lang Lang) []string {
	if words := c.list(lang); len(words) > 0 {
		return words
	}
	return FallbackWords
}

// BuildText returns exactly n words, where n is drawn uniformly from
// [minWords, maxWords]. Entries are sampled at random and split on whitespace,
// so a multi-word keyword contributes all of its words until the target is hit.
func (c *Corpus) BuildText(rng *rand.Rand, minWords, maxWords int, lang Lang) string {
	if maxWords < minWords {
		maxWords = minWords
	}
	target := minWords + rng.IntN(maxWords-minWords+1)
	if target <= 0 {
		return ""
	}

	source := c.Words(lang)
	words := make([]string, 0, target+8)
	for len(words) < target {
		words = append(words, strings.Fields(source[rng.IntN(len(source))])...)
	}
	return strings.Join(words[:target], " ")
}

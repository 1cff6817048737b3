// Package layout decides where generated pages live on disk: randomly named
// two-level folders, each holding a bounded number of files, and filenames
// derived from page titles.
package layout

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
)

const lowerAlphabetChars = "abcdefghijklmnopqrstuvwxyz"

// ErrNoFreeFolder is returned when no unused folder name could be drawn
// within MaxAttempts tries.
var ErrNoFreeFolder = errors.New("layout: no free folder name found")

// Allocator hands out freshly created folders for a batch of pages.
type Allocator struct {
	// Root is the directory the two-level folders are created under.
	Root string
	// MaxPerFolder caps the number of files placed in a single folder.
	MaxPerFolder int
	// SegmentLen is the number of letters in each folder level.
	SegmentLen int
	// MaxAttempts bounds the number of names drawn for one folder.
	MaxAttempts int
	// Used reports folders handed out by earlier runs, even ones since
	// deleted from disk. It may be nil.
	Used func(folder string) bool
}

// NewAllocator returns an Allocator with the stock limits: 3-letter folder
// levels and 500 files per folder.
func NewAllocator(root string) *Allocator {
	return &Allocator{
		Root:         root,
		MaxPerFolder: 500,
		SegmentLen:   3,
		MaxAttempts:  32,
	}
}

// Chunks splits total into per-folder counts of at most max each.
func Chunks(total, max int) []int {
	if total <= 0 || max <= 0 {
		return nil
	}
	chunks := make([]int, 0, (total+max-1)/max)
	for remaining := total; remaining > 0; {
		n := min(remaining, max)
		chunks = append(chunks, n)
		remaining -= n
	}
	return chunks
}

// Allocate creates one folder per chunk of up to MaxPerFolder files and
// returns their paths in fill order. A drawn name that already exists on disk,
// was used before, or was drawn earlier in this call is rejected and redrawn.
// Folders created before an error are left in place.
func (a *Allocator) Allocate(rng *rand.Rand, total int) ([]string, error) {
	chunks := Chunks(total, a.MaxPerFolder)
	folders := make([]string, 0, len(chunks))
	taken := make(map[string]struct{}, len(chunks))

	for range chunks {
		folder, err := a.next(rng, taken)
		if err != nil {
			return folders, err
		}
		if err = os.MkdirAll(folder, 0755); err != nil {
			return folders, fmt.Errorf("failed to create folder %s: %w", folder, err)
		}
		taken[folder] = struct{}{}
		folders = append(folders, folder)
	}
	return folders, nil
}

func (a *Allocator) next(rng *rand.Rand, taken map[string]struct{}) (string, error) {
	attempts := max(a.MaxAttempts, 1)
	for i := 0; i < attempts; i++ {
		folder := filepath.Join(a.Root, randomSegment(rng, a.SegmentLen), randomSegment(rng, a.SegmentLen))
		if _, ok := taken[folder]; ok {
			continue
		}
		if a.Used != nil && a.Used(folder) {
			continue
		}
		if _, err := os.Stat(folder); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat folder %s: %w", folder, err)
		}
		return folder, nil
	}
	return "", fmt.Errorf("%w after %d attempts", ErrNoFreeFolder, attempts)
}

func randomSegment(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = lowerAlphabetChars[rng.IntN(len(lowerAlphabetChars))]
	}
	return string(b)
}

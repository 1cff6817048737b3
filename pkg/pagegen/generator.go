package pagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/CTAG07/Drosera/pkg/corpus"
	"github.com/CTAG07/Drosera/pkg/layout"
	"github.com/CTAG07/Drosera/pkg/ledger"
	"github.com/CTAG07/Drosera/pkg/templating"
	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

const (
	isoLayout = "2006-01-02T15:04:05+00:00"
	sqlLayout = "2006-01-02 15:04:05"
)

// Ledger is the part of *ledger.Ledger the generator records its history in.
type Ledger interface {
	BeginCycle(ctx context.Context, cycleID string, started time.Time, requested int) error
	RecordPages(ctx context.Context, cycleID string, pages []ledger.Page) error
	FinishCycle(ctx context.Context, cycleID string, finished time.Time, written, failed int) error
	FolderUsed(ctx context.Context, folder string) (bool, error)
}

// Page is a single page planned by a cycle.
type Page struct {
	Title        string
	DisplayTitle string
	Filename     string
	Description  string
	Keywords     string
	Lang         corpus.Lang
	Date         string
	DateSQL      string
	Folder       string
	Template     string
}

// Path returns the path the page is written to.
func (p *Page) Path() string {
	return filepath.Join(p.Folder, p.Filename)
}

// CycleResult summarises one cycle.
type CycleResult struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Folders  []string
	Pages    []Page
	Written  int
	Failed   int
}

// Generator produces batches of cross-linked pages. A Generator is not safe
// for concurrent cycles, but SetCorpus may be called while a cycle runs.
type Generator struct {
	logger *slog.Logger
	config *Config
	tm     *templating.TemplateManager
	ledger Ledger
	rng    *rand.Rand
	now    func() time.Time

	mu     sync.RWMutex
	corpus *corpus.Corpus
}

// NewGenerator creates a Generator. lg may be nil, in which case no history is
// kept. rng may be nil, in which case a randomly seeded source is used.
func NewGenerator(logger *slog.Logger, config *Config, c *corpus.Corpus, tm *templating.TemplateManager, lg Ledger, rng *rand.Rand) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if c == nil || tm == nil {
		return nil, errors.New("pagegen: corpus and template manager are required")
	}
	if config.MaxPerFolder <= 0 {
		return nil, fmt.Errorf("pagegen: max_per_folder must be positive, got %d", config.MaxPerFolder)
	}
	if len(config.TitleLengths) == 0 {
		return nil, errors.New("pagegen: title_lengths must not be empty")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{
		logger: logger,
		config: config,
		tm:     tm,
		ledger: lg,
		rng:    rng,
		now:    time.Now,
		corpus: c,
	}, nil
}

// SetCorpus swaps the keyword corpus used from the next page on.
func (g *Generator) SetCorpus(c *corpus.Corpus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.corpus = c
}

func (g *Generator) getCorpus() *corpus.Corpus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.corpus
}

// Run generates a cycle of count pages, sleeps for interval, and repeats until
// ctx is cancelled. A cycle in progress always runs to completion; only the
// sleep is interrupted. Cycle errors are logged and do not stop the loop.
func (g *Generator) Run(ctx context.Context, count int, interval time.Duration) {
	g.logger.Info("Generator started", "count", count, "interval", interval)

	for {
		if _, err := g.RunCycle(ctx, count); err != nil {
			g.logger.Error("Cycle failed", "error", err)
		}

		g.logger.Info("Sleeping until next cycle", "interval", interval)
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			g.logger.Info("Generator stopped")
			return
		case <-timer.C:
		}
	}
}

// RunCycle plans count pages, spreads them over freshly allocated folders and
// writes them. Individual write failures are logged and counted, never fatal.
// Only a failure to allocate folders aborts the cycle, leaving any pages
// already written in place. Cancelling ctx does not interrupt a cycle.
func (g *Generator) RunCycle(ctx context.Context, count int) (*CycleResult, error) {
	ctx = context.WithoutCancel(ctx)
	res := &CycleResult{
		ID:      uuid.NewString(),
		Started: g.now().UTC(),
	}
	logger := g.logger.With("cycle", res.ID)

	if g.ledger != nil {
		if err := g.ledger.BeginCycle(ctx, res.ID, res.Started, count); err != nil {
			logger.Error("Failed to record cycle start", "error", err)
		}
	}
	defer func() {
		res.Finished = g.now().UTC()
		if g.ledger != nil {
			if err := g.ledger.FinishCycle(ctx, res.ID, res.Finished, res.Written, res.Failed); err != nil {
				logger.Error("Failed to record cycle end", "error", err)
			}
		}
	}()

	if count <= 0 {
		return res, nil
	}

	allocator := layout.NewAllocator(g.config.OutputDir)
	allocator.MaxPerFolder = g.config.MaxPerFolder
	if g.ledger != nil {
		allocator.Used = func(folder string) bool {
			used, err := g.ledger.FolderUsed(ctx, folder)
			if err != nil {
				logger.Warn("Failed to check folder history", "folder", folder, "error", err)
				return false
			}
			return used
		}
	}
	folders, err := allocator.Allocate(g.rng, count)
	res.Folders = folders
	if err != nil {
		return res, fmt.Errorf("failed to allocate folders: %w", err)
	}

	res.Pages = g.planPages(res.Started, folders, LanguageModes(g.rng, count))

	var written []ledger.Page
	for i := range res.Pages {
		page := &res.Pages[i]
		if err = g.writePage(page, g.selectLinks(res.Pages, i)); err != nil {
			logger.Error("Failed to write page", "path", page.Path(), "error", err)
			res.Failed++
			continue
		}
		res.Written++
		written = append(written, ledger.Page{
			Folder:   page.Folder,
			Filename: page.Filename,
			Title:    page.DisplayTitle,
			Lang:     string(page.Lang),
			Template: page.Template,
			Date:     page.DateSQL,
		})
	}

	if g.ledger != nil {
		if err = g.ledger.RecordPages(ctx, res.ID, written); err != nil {
			logger.Error("Failed to record pages", "error", err)
		}
	}

	logger.Info("Cycle finished",
		"written", res.Written,
		"failed", res.Failed,
		"folders", len(res.Folders),
		"duration", g.now().UTC().Sub(res.Started))
	return res, nil
}

// LanguageModes returns count modes, half Arabic and the rest English, shuffled.
func LanguageModes(rng *rand.Rand, count int) []corpus.Lang {
	modes := make([]corpus.Lang, count)
	half := count / 2
	for i := range modes {
		if i < half {
			modes[i] = corpus.LangArabic
		} else {
			modes[i] = corpus.LangEnglish
		}
	}
	rng.Shuffle(len(modes), func(i, j int) {
		modes[i], modes[j] = modes[j], modes[i]
	})
	return modes
}

// planPages fills the folders in order, up to MaxPerFolder pages each.
func (g *Generator) planPages(base time.Time, folders []string, modes []corpus.Lang) []Page {
	c := g.getCorpus()
	pages := make([]Page, 0, len(modes))
	window := int(g.config.Window.Std() / time.Second)

	next := 0
	for _, folder := range folders {
		slugs := make(map[string]int)
		for n := 0; n < g.config.MaxPerFolder && next < len(modes); n++ {
			mode := modes[next]
			next++

			stamp := base.Add(-time.Duration(g.rng.IntN(max(window, 0)+1)) * time.Second)
			titleLen := g.config.TitleLengths[g.rng.IntN(len(g.config.TitleLengths))]
			title := c.BuildText(g.rng, titleLen, titleLen+g.config.TitleExtra, mode)

			pages = append(pages, Page{
				Title:        title,
				DisplayTitle: g.decorate(title),
				Filename:     layout.Filename(uniqueSlug(slugs, layout.Slugify(title))),
				Description:  c.BuildText(g.rng, g.config.DescMin, g.config.DescMax, mode),
				Keywords:     c.BuildText(g.rng, g.config.KeysMin, g.config.KeysMax, mode),
				Lang:         mode,
				Date:         stamp.Format(isoLayout),
				DateSQL:      stamp.Format(sqlLayout),
				Folder:       folder,
				Template:     g.tm.GetRandomTemplate(g.rng),
			})
		}
	}
	return pages
}

// uniqueSlug keeps filenames distinct within one folder.
func uniqueSlug(seen map[string]int, slug string) string {
	if slug == "" {
		slug = "page"
	}
	seen[slug]++
	if n := seen[slug]; n > 1 {
		for {
			candidate := layout.WithSuffix(slug, n)
			if seen[candidate] == 0 {
				seen[candidate]++
				return candidate
			}
			n++
		}
	}
	return slug
}

func (g *Generator) decorate(title string) string {
	emojis := g.config.Emojis
	if len(emojis) == 0 {
		return title
	}
	return emojis[g.rng.IntN(len(emojis))] + " " + title + " " + emojis[g.rng.IntN(len(emojis))]
}

// selectLinks picks between MinLinks and MaxLinks other pages to link from
// pages[i], preferring pages in the same language when there are enough.
func (g *Generator) selectLinks(pages []Page, i int) []templating.Link {
	cfg := g.tm.GetConfig()
	minLinks, maxLinks := cfg.MinLinks, max(cfg.MaxLinks, cfg.MinLinks)

	var same, others []int
	for j := range pages {
		if j == i {
			continue
		}
		others = append(others, j)
		if pages[j].Lang == pages[i].Lang {
			same = append(same, j)
		}
	}
	source := others
	if len(same) >= minLinks {
		source = same
	}

	want := minLinks + g.rng.IntN(maxLinks-minLinks+1)
	k := max(0, min(len(source), want))
	links := make([]templating.Link, 0, k)
	for _, p := range g.rng.Perm(len(source))[:k] {
		target := &pages[source[p]]
		links = append(links, templating.Link{
			Href:  relativeHref(pages[i].Folder, target),
			Title: target.DisplayTitle,
		})
	}
	return links
}

// relativeHref links to target from a page in folder: the bare filename when
// both share a folder, a relative path otherwise.
func relativeHref(folder string, target *Page) string {
	if target.Folder == folder {
		return target.Filename
	}
	rel, err := filepath.Rel(folder, target.Path())
	if err != nil {
		return target.Filename
	}
	return filepath.ToSlash(rel)
}

func (g *Generator) writePage(page *Page, links []templating.Link) error {
	content, err := g.tm.Render(page.Template, templating.PageData{
		Title:       page.DisplayTitle,
		Description: page.Description,
		Keywords:    page.Keywords,
		Date:        page.Date,
		DateSQL:     page.DateSQL,
		Links:       links,
	})
	if err != nil {
		return err
	}

	path := page.Path()
	if err = atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return err
	}
	// atomic.WriteFile creates new files 0600; pages are meant to be served.
	if err = os.Chmod(path, 0644); err != nil {
		g.logger.Warn("Failed to set page permissions", "path", path, "error", err)
	}
	return nil
}

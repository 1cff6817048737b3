package templating

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Placeholder tokens recognised in template files.
const (
	TokenTitle         = "{{TITLE}}"
	TokenDescription   = "{{DESCRIPTION}}"
	TokenKeywords      = "{{KEYWORDS}}"
	TokenDate          = "{{DATE}}"
	TokenDateSQL       = "{{DATE_SQL}}"
	TokenInternalLinks = "{{INTERNAL_LINKS}}"
)

// PageData is everything substituted into a template for a single page.
type PageData struct {
	Title       string
	Description string
	Keywords    string
	Date        string
	DateSQL     string
	Links       []Link
}

// DefaultTemplate returns the inline template used when the file for name
// is missing or unreadable. It carries every placeholder token.
func DefaultTemplate(name string) string {
	return `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>` + TokenTitle + `</title>
<meta name="description" content="` + TokenDescription + `">
<meta name="keywords" content="` + TokenKeywords + `">
<meta property="article:published_time" content="` + TokenDate + `">
</head>
<body>
<h1>Default ` + name + `</h1>` + TokenTitle + `<br>` + TokenDescription + `<br>
<time datetime="` + TokenDate + `">` + TokenDateSQL + `</time>
` + TokenInternalLinks + `
</body>
</html>`
}

// TemplateManager holds the loaded templates and renders pages into them.
// All methods are concurrent-safe.
type TemplateManager struct {
	logger    *slog.Logger
	config    *TemplateConfig
	templates map[string]string
	defaults  map[string]bool
	sanitizer *bluemonday.Policy
	dir       string
	mu        sync.RWMutex
}

// NewTemplateManager creates a TemplateManager that reads the templates named
// in config from dir, and performs an initial Refresh. Missing or unreadable
// files fall back to DefaultTemplate; only an invalid config is an error.
func NewTemplateManager(logger *slog.Logger, config *TemplateConfig, dir string) (*TemplateManager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	tm := &TemplateManager{
		logger:    logger,
		config:    config,
		sanitizer: bluemonday.StrictPolicy(),
		dir:       dir,
	}
	tm.Refresh()

	logger.Info("Template manager initialized", "templates", len(config.Names), "dir", dir)
	return tm, nil
}

// Refresh reloads every configured template from disk. A file that can't be
// read is logged and replaced by the default template.
func (tm *TemplateManager) Refresh() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	templates := make(map[string]string, len(tm.config.Names))
	defaults := make(map[string]bool)
	for _, name := range tm.config.Names {
		content, err := os.ReadFile(filepath.Join(tm.dir, name))
		switch {
		case err == nil:
			templates[name] = string(content)
			tm.logger.Info("Template loaded", "template", name)
		case errors.Is(err, os.ErrNotExist):
			templates[name] = DefaultTemplate(name)
			defaults[name] = true
			tm.logger.Debug("Template file not found, using default", "template", name)
		default:
			templates[name] = DefaultTemplate(name)
			defaults[name] = true
			tm.logger.Error("Failed to read template, using default", "template", name, "error", err)
		}
	}
	tm.templates = templates
	tm.defaults = defaults
}

// SetConfig applies a new configuration and reloads the templates it names.
func (tm *TemplateManager) SetConfig(config *TemplateConfig) error {
	if config == nil {
		return errors.New("templating: no template names configured")
	}
	if err := config.validate(); err != nil {
		return err
	}
	tm.mu.Lock()
	tm.config = config
	tm.mu.Unlock()
	tm.Refresh()
	return nil
}

// GetConfig returns a copy of the current configuration.
func (tm *TemplateManager) GetConfig() TemplateConfig {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return *tm.config
}

// GetTemplateNames returns the configured template names in order.
func (tm *TemplateManager) GetTemplateNames() []string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return append([]string(nil), tm.config.Names...)
}

// GetTemplateDir returns the directory templates are read from.
func (tm *TemplateManager) GetTemplateDir() string {
	return tm.dir
}

// IsDefault reports whether name is currently served by the built-in default.
func (tm *TemplateManager) IsDefault(name string) bool {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.defaults[name]
}

// GetRandomTemplate returns one of the configured template names, uniformly.
func (tm *TemplateManager) GetRandomTemplate(rng *rand.Rand) string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.config.Names[rng.IntN(len(tm.config.Names))]
}

// Content returns the raw text of the named template. Unknown names get the
// default template.
func (tm *TemplateManager) Content(name string) string {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if content, ok := tm.templates[name]; ok {
		return content
	}
	return DefaultTemplate(name)
}

// Render substitutes data into the named template. Each token is replaced
// everywhere it occurs, in a single pass, so generated text that happens to
// contain a token is never expanded again. When the template has no
// {{INTERNAL_LINKS}} token, the link block is appended after a newline.
func (tm *TemplateManager) Render(name string, data PageData) (string, error) {
	links, err := RenderLinks(data.Links)
	if err != nil {
		return "", fmt.Errorf("failed to render internal links: %w", err)
	}

	content := tm.Content(name)
	sanitize := tm.GetConfig().SanitizeText
	text := func(s string) string {
		if sanitize {
			return tm.sanitizer.Sanitize(s)
		}
		return s
	}

	r := strings.NewReplacer(
		TokenTitle, text(data.Title),
		TokenDescription, text(data.Description),
		TokenKeywords, text(data.Keywords),
		TokenDateSQL, data.DateSQL,
		TokenDate, data.Date,
		TokenInternalLinks, links,
	)
	out := r.Replace(content)
	if !strings.Contains(content, TokenInternalLinks) {
		out += "\n" + links
	}
	return out, nil
}

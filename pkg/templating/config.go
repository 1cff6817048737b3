package templating

import (
	"errors"
	"fmt"
)

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// Names lists the template files pages are rendered from. Each page picks
	// one of them uniformly at random.
	Names []string `json:"names" toml:"names"`

	// MinLinks is the minimum number of internal links rendered into a page,
	// when that many other pages exist.
	MinLinks int `json:"min_links" toml:"min_links"`

	// MaxLinks is the maximum number of internal links rendered into a page.
	MaxLinks int `json:"max_links" toml:"max_links"`

	// SanitizeText strips any markup from generated text before it is
	// substituted, so keyword files can't inject HTML into pages. Tags are
	// stripped and script or style content is dropped entirely, so rendered
	// text can hold fewer words than was generated.
	SanitizeText bool `json:"sanitize_text" toml:"sanitize_text"`
}

// DefaultConfig returns a TemplateConfig with the stock three templates.
func DefaultConfig() *TemplateConfig {
	return &TemplateConfig{
		Names:        []string{"test.html", "test1.html", "test2.html"},
		MinLinks:     3,
		MaxLinks:     6,
		SanitizeText: true,
	}
}

// validate reports the first problem with c, if any.
func (c *TemplateConfig) validate() error {
	if len(c.Names) == 0 {
		return errors.New("templating: no template names configured")
	}
	if c.MinLinks < 0 {
		return fmt.Errorf("templating: min_links must not be negative, got %d", c.MinLinks)
	}
	if c.MaxLinks < c.MinLinks {
		return fmt.Errorf("templating: max_links (%d) is less than min_links (%d)", c.MaxLinks, c.MinLinks)
	}
	return nil
}

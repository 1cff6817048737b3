package pagegen

import "time"

// Config holds the settings of a Generator.
type Config struct {
	// Count is the number of pages generated per cycle.
	Count int `json:"count" toml:"count"`

	// Interval is the pause between the end of one cycle and the start of the next.
	Interval Duration `json:"interval" toml:"interval"`

	// OutputDir is the root the random two-level folders are created under.
	OutputDir string `json:"output_dir" toml:"output_dir"`

	// MaxPerFolder caps the number of pages in a single folder.
	MaxPerFolder int `json:"max_per_folder" toml:"max_per_folder"`

	// TitleLengths lists the base title word counts; a title gets between
	// the chosen length and that length plus TitleExtra words.
	TitleLengths []int `json:"title_lengths" toml:"title_lengths"`
	TitleExtra   int   `json:"title_extra" toml:"title_extra"`

	// DescMin and DescMax bound the description word count.
	DescMin int `json:"desc_min" toml:"desc_min"`
	DescMax int `json:"desc_max" toml:"desc_max"`

	// KeysMin and KeysMax bound the keyword string word count.
	KeysMin int `json:"keys_min" toml:"keys_min"`
	KeysMax int `json:"keys_max" toml:"keys_max"`

	// Window is how far back page timestamps are spread.
	Window Duration `json:"window" toml:"window"`

	// Emojis decorate both ends of every display title.
	Emojis []string `json:"emojis" toml:"emojis"`
}

// DefaultConfig returns the stock settings: 200 pages every 10 minutes.
func DefaultConfig() *Config {
	return &Config{
		Count:        200,
		Interval:     Duration(10 * time.Minute),
		OutputDir:    ".",
		MaxPerFolder: 500,
		TitleLengths: []int{5, 7, 9, 11},
		TitleExtra:   2,
		DescMin:      120,
		DescMax:      350,
		KeysMin:      3,
		KeysMax:      8,
		Window:       Duration(time.Hour),
		Emojis:       []string{"🔥", "🎥", "😱", "✅", "🌟", "📺", "🎬", "✨", "💎", "⚡"},
	}
}

package layout

import (
	"image/color"
	"strings"

	"github.com/toricodesthings/wordcloud-service/internal/types"
)

// Background is one of the supported canvas colors.
type Background string

const (
	White Background = "white"
	Black Background = "black"
	Blue  Background = "blue"
	Red   Background = "red"
)

var backgrounds = map[Background]color.RGBA{
	White: {R: 255, G: 255, B: 255, A: 255},
	Black: {R: 0, G: 0, B: 0, A: 255},
	Blue:  {R: 0, G: 0, B: 255, A: 255},
	Red:   {R: 255, G: 0, B: 0, A: 255},
}

func ParseBackground(s string) (Background, error) {
	b := Background(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := backgrounds[b]; !ok {
		return "", types.InvalidConfig("layout", "unsupported background color %q (expected white, black, blue or red)", s)
	}
	return b, nil
}

func (b Background) Color() color.RGBA { return backgrounds[b] }

// Config is the immutable per-render layout configuration.
type Config struct {
	Width      int
	Height     int
	MaxWords   int
	Background Background

	// Seed drives orientation, color and spiral start. Equal seeds give
	// byte-identical output.
	Seed int64

	// MaxFontSize caps the largest word; 0 means the canvas height.
	MaxFontSize int
	MinFontSize int
	// FontStep is how much a word shrinks after a failed search.
	FontStep int
	// RelativeScaling in [0,1]: 0 sizes every word alike, 1 sizes words
	// linearly by count.
	RelativeScaling float64
	// PreferHorizontal is the probability in [0,1] that a word is laid out
	// horizontally.
	PreferHorizontal float64
	// Margin is the minimum gap in pixels between two words.
	Margin int
	// SearchBudget bounds the spiral steps tried per word and size.
	SearchBudget int
}

const DefaultSeed int64 = 42

func DefaultConfig() Config {
	return Config{
		Width:            800,
		Height:           400,
		MaxWords:         100,
		Background:       White,
		Seed:             DefaultSeed,
		MinFontSize:      4,
		FontStep:         1,
		RelativeScaling:  0.5,
		PreferHorizontal: 0.9,
		Margin:           2,
		SearchBudget:     200000,
	}
}

// Validate rejects a configuration before any placement is attempted.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return types.InvalidConfig("layout", "width must be positive, got %d", c.Width)
	}
	if c.Height <= 0 {
		return types.InvalidConfig("layout", "height must be positive, got %d", c.Height)
	}
	if c.MaxWords <= 0 {
		return types.InvalidConfig("layout", "max words must be positive, got %d", c.MaxWords)
	}
	if c.Background != "" {
		if _, ok := backgrounds[c.Background]; !ok {
			return types.InvalidConfig("layout", "unsupported background color %q", string(c.Background))
		}
	}
	if c.MaxFontSize < 0 || c.MinFontSize < 0 || c.FontStep < 0 || c.Margin < 0 || c.SearchBudget < 0 {
		return types.InvalidConfig("layout", "font sizes, font step, margin and search budget must not be negative")
	}
	if c.RelativeScaling < 0 || c.RelativeScaling > 1 {
		return types.InvalidConfig("layout", "relative scaling must be within [0,1], got %g", c.RelativeScaling)
	}
	if c.PreferHorizontal < 0 || c.PreferHorizontal > 1 {
		return types.InvalidConfig("layout", "prefer horizontal must be within [0,1], got %g", c.PreferHorizontal)
	}
	return nil
}

// withDefaults fills the tuning knobs a caller left at zero.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	out := c
	if out.Background == "" {
		out.Background = d.Background
	}
	if out.MinFontSize <= 0 {
		out.MinFontSize = d.MinFontSize
	}
	if out.FontStep <= 0 {
		out.FontStep = d.FontStep
	}
	if out.SearchBudget <= 0 {
		out.SearchBudget = d.SearchBudget
	}
	return out
}

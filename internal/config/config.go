package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// EnvFile names the environment variable holding an optional YAML config
// path.
const EnvFile = "WORDCLOUD_CONFIG"

type Config struct {
	// Server
	Port string `yaml:"port"`

	// Secrets. An empty secret disables header auth.
	InternalSharedSecret string `yaml:"internalSharedSecret"`

	// Limits
	MaxUploadBytes int64 `yaml:"maxUploadBytes"`
	MaxPDFBytes    int64 `yaml:"maxPdfBytes"`
	MaxDOCXBytes   int64 `yaml:"maxDocxBytes"`
	MaxTextBytes   int64 `yaml:"maxTextBytes"`

	// Concurrency
	MaxConcurrentRequests int64 `yaml:"maxConcurrentRequests"`
	MaxConnections        int   `yaml:"maxConnections"`

	// Server timeouts
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout"`
	ReadTimeout       time.Duration `yaml:"readTimeout"`
	WriteTimeout      time.Duration `yaml:"writeTimeout"`
	IdleTimeout       time.Duration `yaml:"idleTimeout"`

	// Request timeouts
	RenderTimeout time.Duration `yaml:"renderTimeout"`

	// rate limiting (per IP)
	RateLimitEvery time.Duration `yaml:"rateLimitEvery"`
	RateLimitBurst int           `yaml:"rateLimitBurst"`

	// housekeeping
	CleanupInterval time.Duration `yaml:"cleanupInterval"`

	// health
	HealthDegradeRatio float64 `yaml:"healthDegradeRatio"`

	// http
	MaxHeaderBytes int `yaml:"maxHeaderBytes"`

	// logging
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	// Accepted request ranges
	Ranges Ranges `yaml:"ranges"`

	// Render defaults (used when request options omit values)
	Render Render `yaml:"render"`
}

type Ranges struct {
	MinWidth    int `yaml:"minWidth"`
	MaxWidth    int `yaml:"maxWidth"`
	MinHeight   int `yaml:"minHeight"`
	MaxHeight   int `yaml:"maxHeight"`
	MinMaxWords int `yaml:"minMaxWords"`
	MaxMaxWords int `yaml:"maxMaxWords"`
}

type Render struct {
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	MaxWords       int    `yaml:"maxWords"`
	Background     string `yaml:"background"`
	Seed           int64  `yaml:"seed"`
	ExtraStopwords string `yaml:"extraStopwords"`
	ImageFormat    string `yaml:"imageFormat"`
	OutputFilename string `yaml:"outputFilename"`
}

// DefaultRanges returns the render limits used when no config overrides them.
func DefaultRanges() Ranges { return defaults().Ranges }

func defaults() Config {
	return Config{
		Port: "8080",

		MaxUploadBytes: 200 << 20,
		MaxPDFBytes:    200 << 20,
		MaxDOCXBytes:   100 << 20,
		MaxTextBytes:   50 << 20,

		MaxConcurrentRequests: 8,
		MaxConnections:        256,

		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,

		RenderTimeout: 60 * time.Second,

		RateLimitEvery: 600 * time.Millisecond,
		RateLimitBurst: 20,

		CleanupInterval: 5 * time.Minute,

		HealthDegradeRatio: 0.9,

		MaxHeaderBytes: 1 << 20,

		LogLevel:  "info",
		LogFormat: "json",

		Ranges: Ranges{
			MinWidth:    400,
			MaxWidth:    2000,
			MinHeight:   200,
			MaxHeight:   1000,
			MinMaxWords: 10,
			MaxMaxWords: 200,
		},

		Render: Render{
			Width:          800,
			Height:         400,
			MaxWords:       100,
			Background:     "white",
			Seed:           42,
			ExtraStopwords: "the, and, is, in, to, of",
			ImageFormat:    "png",
			OutputFilename: "wordcloud.png",
		},
	}
}

// Load reads configuration from the environment. If WORDCLOUD_CONFIG names
// a YAML file it is applied first and the environment overrides it.
func Load() (Config, error) {
	return LoadFile(envStr(EnvFile, ""))
}

// LoadFile applies defaults, then the YAML file at path (if any), then the
// environment.
func LoadFile(path string) (Config, error) {
	c := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	c.Port = envStr("PORT", c.Port)

	c.InternalSharedSecret = envStr("INTERNAL_SHARED_SECRET", c.InternalSharedSecret)

	c.MaxUploadBytes = int64(envInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.MaxPDFBytes = int64(envInt("MAX_PDF_BYTES", int(c.MaxPDFBytes)))
	c.MaxDOCXBytes = int64(envInt("MAX_DOCX_BYTES", int(c.MaxDOCXBytes)))
	c.MaxTextBytes = int64(envInt("MAX_TEXT_BYTES", int(c.MaxTextBytes)))

	c.MaxConcurrentRequests = int64(envInt("MAX_CONCURRENT_REQUESTS", int(c.MaxConcurrentRequests)))
	c.MaxConnections = envInt("MAX_CONNECTIONS", c.MaxConnections)

	c.ReadHeaderTimeout = envDur("READ_HEADER_TIMEOUT", c.ReadHeaderTimeout)
	c.ReadTimeout = envDur("READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = envDur("WRITE_TIMEOUT", c.WriteTimeout)
	c.IdleTimeout = envDur("IDLE_TIMEOUT", c.IdleTimeout)

	c.RenderTimeout = envDur("RENDER_TIMEOUT", c.RenderTimeout)

	c.RateLimitEvery = envDur("RATE_LIMIT_EVERY", c.RateLimitEvery)
	c.RateLimitBurst = envInt("RATE_LIMIT_BURST", c.RateLimitBurst)

	c.CleanupInterval = envDur("CLEANUP_INTERVAL", c.CleanupInterval)

	c.HealthDegradeRatio = envFloat("HEALTH_DEGRADE_RATIO", c.HealthDegradeRatio)

	c.MaxHeaderBytes = envInt("MAX_HEADER_BYTES", c.MaxHeaderBytes)

	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envStr("LOG_FORMAT", c.LogFormat)

	c.Render.Width = envInt("DEFAULT_WIDTH", c.Render.Width)
	c.Render.Height = envInt("DEFAULT_HEIGHT", c.Render.Height)
	c.Render.MaxWords = envInt("DEFAULT_MAX_WORDS", c.Render.MaxWords)
	c.Render.Background = envStr("DEFAULT_BACKGROUND", c.Render.Background)
	c.Render.Seed = int64(envInt("DEFAULT_SEED", int(c.Render.Seed)))
	c.Render.ExtraStopwords = envStr("DEFAULT_EXTRA_STOPWORDS", c.Render.ExtraStopwords)
	c.Render.ImageFormat = envStr("DEFAULT_IMAGE_FORMAT", c.Render.ImageFormat)
	c.Render.OutputFilename = envStr("DEFAULT_OUTPUT_FILENAME", c.Render.OutputFilename)
}

func (c Config) Validate() error {
	if s := strings.TrimSpace(c.InternalSharedSecret); s != "" && len(s) < 32 {
		return fmt.Errorf("INTERNAL_SHARED_SECRET must be at least 32 characters when set")
	}
	if c.MaxConcurrentRequests <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_REQUESTS must be positive")
	}
	if c.HealthDegradeRatio <= 0 || c.HealthDegradeRatio > 1 {
		return fmt.Errorf("HEALTH_DEGRADE_RATIO must be within (0,1], got %g", c.HealthDegradeRatio)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}

	r := c.Ranges
	if r.MinWidth <= 0 || r.MinWidth > r.MaxWidth {
		return fmt.Errorf("width range [%d,%d] is empty", r.MinWidth, r.MaxWidth)
	}
	if r.MinHeight <= 0 || r.MinHeight > r.MaxHeight {
		return fmt.Errorf("height range [%d,%d] is empty", r.MinHeight, r.MaxHeight)
	}
	if r.MinMaxWords <= 0 || r.MinMaxWords > r.MaxMaxWords {
		return fmt.Errorf("max words range [%d,%d] is empty", r.MinMaxWords, r.MaxMaxWords)
	}
	if err := r.Check(c.Render.Width, c.Render.Height, c.Render.MaxWords); err != nil {
		return fmt.Errorf("render defaults: %w", err)
	}
	return nil
}

// Check reports the first value outside its accepted range.
func (r Ranges) Check(width, height, maxWords int) error {
	if width < r.MinWidth || width > r.MaxWidth {
		return fmt.Errorf("width %d outside [%d,%d]", width, r.MinWidth, r.MaxWidth)
	}
	if height < r.MinHeight || height > r.MaxHeight {
		return fmt.Errorf("height %d outside [%d,%d]", height, r.MinHeight, r.MaxHeight)
	}
	if maxWords < r.MinMaxWords || maxWords > r.MaxMaxWords {
		return fmt.Errorf("max words %d outside [%d,%d]", maxWords, r.MinMaxWords, r.MaxMaxWords)
	}
	return nil
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c Config) Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if c.LogFormat == "console" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stderr)
	}
	return l.Level(level).With().Timestamp().Logger()
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

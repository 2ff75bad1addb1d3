package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	c, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if c.Render.Width != 800 || c.Render.Height != 400 || c.Render.MaxWords != 100 {
		t.Errorf("render defaults = %+v", c.Render)
	}
	if c.Render.Seed != 42 || c.Render.Background != "white" {
		t.Errorf("render defaults = %+v", c.Render)
	}
}

func TestLoadFileOverlayThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wordcloud.yaml")
	yaml := strings.Join([]string{
		"port: \"9090\"",
		"renderTimeout: 15s",
		"logFormat: console",
		"ranges:",
		"  maxWidth: 1200",
		"render:",
		"  width: 1000",
		"  background: black",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7070")
	t.Setenv("DEFAULT_HEIGHT", "300")

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Port != "7070" {
		t.Errorf("Port = %q, env should win over file", c.Port)
	}
	if c.RenderTimeout != 15*time.Second {
		t.Errorf("RenderTimeout = %v", c.RenderTimeout)
	}
	if c.Ranges.MaxWidth != 1200 || c.Ranges.MinWidth != 400 {
		t.Errorf("Ranges = %+v, want partial overlay", c.Ranges)
	}
	if c.Render.Width != 1000 || c.Render.Height != 300 || c.Render.Background != "black" {
		t.Errorf("Render = %+v", c.Render)
	}
	if c.Render.MaxWords != 100 {
		t.Errorf("MaxWords = %d, untouched default lost", c.Render.MaxWords)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("render: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "-3")
	t.Setenv("RENDER_TIMEOUT", "soon")
	c, err := LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if c.RateLimitBurst != 20 || c.RenderTimeout != 60*time.Second {
		t.Errorf("invalid env values applied: burst=%d timeout=%v", c.RateLimitBurst, c.RenderTimeout)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mod  func(*Config)
		ok   bool
	}{
		{"defaults", func(*Config) {}, true},
		{"short secret", func(c *Config) { c.InternalSharedSecret = "short" }, false},
		{"long secret", func(c *Config) { c.InternalSharedSecret = strings.Repeat("s", 32) }, true},
		{"inverted width range", func(c *Config) { c.Ranges.MinWidth = 3000 }, false},
		{"default outside range", func(c *Config) { c.Render.MaxWords = 500 }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"zero concurrency", func(c *Config) { c.MaxConcurrentRequests = 0 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := defaults()
			tc.mod(&c)
			if err := c.Validate(); (err == nil) != tc.ok {
				t.Fatalf("Validate() = %v, ok want %v", err, tc.ok)
			}
		})
	}
}

func TestRangesCheck(t *testing.T) {
	r := defaults().Ranges
	if err := r.Check(400, 200, 10); err != nil {
		t.Errorf("lower bounds rejected: %v", err)
	}
	if err := r.Check(2000, 1000, 200); err != nil {
		t.Errorf("upper bounds rejected: %v", err)
	}
	for _, v := range [][3]int{{399, 400, 50}, {800, 1001, 50}, {800, 400, 9}} {
		if err := r.Check(v[0], v[1], v[2]); err == nil {
			t.Errorf("Check%v accepted", v)
		}
	}
}

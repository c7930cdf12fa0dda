package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arcanaland/proxier/internal/layout"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	grid, err := cfg.Grid()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if grid != layout.DefaultGrid() {
		t.Errorf("expected the default grid, got %+v", grid)
	}

	timeout, err := cfg.Timeout()
	if err != nil || timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v (%v)", timeout, err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *cfg != *Default() {
			t.Errorf("expected defaults, got %+v", cfg)
		}
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		content := "page_size = \"a4\"\ncards_per_row = 4\nfetch_timeout = \"3s\"\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.PageSize != "a4" || cfg.CardsPerRow != 4 || cfg.CardsPerColumn != DefaultCardsPerColumn {
			t.Errorf("unexpected config %+v", cfg)
		}
		if timeout, _ := cfg.Timeout(); timeout != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", timeout)
		}
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("page_size = "), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("save then load", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "config.toml")
		want := Default()
		want.OutputDir = "/tmp/prints"
		want.MarginInches = 0.25
		if err := Save(path, want); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got, err := LoadFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *got != *want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(c *Config)
		want   error
	}{
		{"zero timeout", func(c *Config) { c.FetchTimeout = "0s" }, ErrInvalidTimeout},
		{"garbage timeout", func(c *Config) { c.FetchTimeout = "soon" }, ErrInvalidTimeout},
		{"zero columns", func(c *Config) { c.CardsPerColumn = 0 }, ErrInvalidGrid},
		{"huge margin", func(c *Config) { c.MarginInches = 5 }, ErrInvalidGrid},
		{"unknown page", func(c *Config) { c.PageSize = "napkin" }, layout.ErrUnknownPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if got := cfg.OutputPath("mine.pdf"); got != "mine.pdf" {
		t.Errorf("expected explicit path, got %s", got)
	}
	if got := cfg.OutputPath(""); got != filepath.Join("output", "cards_printable.pdf") {
		t.Errorf("unexpected default path %s", got)
	}
}

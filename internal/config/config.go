package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"

	"github.com/arcanaland/proxier/internal/layout"
)

// AppName is used for XDG directory paths.
const AppName = "proxier"

// Defaults used when neither the config file nor a flag sets a value
const (
	DefaultOutputDir      = "output"
	DefaultOutputFile     = "cards_printable.pdf"
	DefaultPageSize       = "letter"
	DefaultMarginInches   = 0.5
	DefaultCardsPerRow    = 3
	DefaultCardsPerColumn = 3
	DefaultFetchTimeout   = "10s"
	DefaultUserAgent      = "proxier/1.0 (+https://github.com/arcanaland/proxier)"
)

var (
	// ErrInvalidTimeout is returned when fetch_timeout is not a positive duration.
	ErrInvalidTimeout = errors.New("invalid fetch timeout: must be a positive duration")

	// ErrInvalidGrid is returned when the grid leaves no room for a card.
	ErrInvalidGrid = errors.New("invalid grid configuration")
)

// Config represents the application configuration
type Config struct {
	OutputDir      string  `toml:"output_dir"`
	PageSize       string  `toml:"page_size"`
	MarginInches   float64 `toml:"margin_inches"`
	CardsPerRow    int     `toml:"cards_per_row"`
	CardsPerColumn int     `toml:"cards_per_column"`
	FetchTimeout   string  `toml:"fetch_timeout"`
	UserAgent      string  `toml:"user_agent"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		OutputDir:      DefaultOutputDir,
		PageSize:       DefaultPageSize,
		MarginInches:   DefaultMarginInches,
		CardsPerRow:    DefaultCardsPerRow,
		CardsPerColumn: DefaultCardsPerColumn,
		FetchTimeout:   DefaultFetchTimeout,
		UserAgent:      DefaultUserAgent,
	}
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.toml")
}

// GetCacheDir returns the per-user cache directory
func GetCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// LoadConfig loads the config file at the default location. A missing file
// yields the defaults without creating anything.
func LoadConfig() (*Config, error) {
	return LoadFile(GetConfigFilePath())
}

// LoadFile loads a config file, filling unset fields with defaults
func LoadFile(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %v", err)
	}

	return config, nil
}

// Init writes the default config file if it doesn't exist and returns its path
func Init() (string, error) {
	configPath := GetConfigFilePath()
	if _, err := os.Stat(configPath); err == nil {
		return configPath, nil
	}
	return configPath, Save(configPath, Default())
}

// Save writes config to path as TOML
func Save(path string, config *Config) error {
	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %v", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %v", err)
	}

	return nil
}

// Timeout parses FetchTimeout
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, c.FetchTimeout)
	}
	return d, nil
}

// Grid builds the page grid described by the config
func (c *Config) Grid() (layout.Grid, error) {
	size, err := layout.ParsePageSize(c.PageSize)
	if err != nil {
		return layout.Grid{}, err
	}

	grid := layout.Grid{
		Page:           size,
		Margin:         c.MarginInches * layout.PointsPerInch,
		CardsPerRow:    c.CardsPerRow,
		CardsPerColumn: c.CardsPerColumn,
	}
	if err := grid.Validate(); err != nil {
		return layout.Grid{}, fmt.Errorf("%w: %v", ErrInvalidGrid, err)
	}
	return grid, nil
}

// Validate checks every derived setting
func (c *Config) Validate() error {
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if _, err := c.Grid(); err != nil {
		return err
	}
	return nil
}

// OutputPath resolves the document path: an explicit path wins, otherwise
// the default file name inside the configured output directory.
func (c *Config) OutputPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(c.OutputDir, DefaultOutputFile)
}

package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds the full gridboard configuration.
type Config struct {
	Grid     GridConfig     `yaml:"grid"`
	History  HistoryConfig  `yaml:"history"`
	Storage  StorageConfig  `yaml:"storage"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Canvases []string       `yaml:"canvases"`
	Types    []TypeConfig   `yaml:"types"`
}

// GridConfig sets the unit system and the fallback size limits.
type GridConfig struct {
	SizePercent      float64 `yaml:"size_percent"`
	VerticalStepPx   float64 `yaml:"vertical_step_px"`
	CanvasWidthUnits int     `yaml:"canvas_width_units"`
	MinWidth         int     `yaml:"min_width"`
	MinHeight        int     `yaml:"min_height"`
}

// HistoryConfig bounds the in-memory undo stack and the persisted journal.
type HistoryConfig struct {
	Limit        int `yaml:"limit"`
	JournalLimit int `yaml:"journal_limit"`
}

// StorageConfig selects where snapshots and the command journal live.
type StorageConfig struct {
	Driver        string `yaml:"driver"` // sqlite | postgres | mysql | mongodb
	DSN           string `yaml:"dsn"`
	MongoDatabase string `yaml:"mongo_database"`
}

// AutosaveConfig schedules periodic snapshot exports.
type AutosaveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"` // cron expression
	Snapshot string `yaml:"snapshot"`
}

// TypeConfig declares a component type and its size constraints.
type TypeConfig struct {
	Name          string         `yaml:"name"`
	DefaultWidth  int            `yaml:"default_width"`
	DefaultHeight int            `yaml:"default_height"`
	MinWidth      int            `yaml:"min_width"`
	MinHeight     int            `yaml:"min_height"`
	MaxWidth      int            `yaml:"max_width"`
	MaxHeight     int            `yaml:"max_height"`
	Config        map[string]any `yaml:"config"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			SizePercent:      2,
			VerticalStepPx:   20,
			CanvasWidthUnits: 50,
			MinWidth:         5,
			MinHeight:        4,
		},
		History: HistoryConfig{
			Limit:        100,
			JournalLimit: 200,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "gridboard.db",
		},
		Autosave: AutosaveConfig{
			Schedule: "@every 1m",
			Snapshot: "autosave",
		},
		Canvases: []string{"main"},
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Grid.SizePercent <= 0 || c.Grid.SizePercent > 100 {
		return fmt.Errorf("grid.size_percent must be in (0, 100]")
	}
	if c.Grid.VerticalStepPx <= 0 {
		return fmt.Errorf("grid.vertical_step_px must be > 0")
	}
	if c.Grid.CanvasWidthUnits <= 0 {
		return fmt.Errorf("grid.canvas_width_units must be > 0")
	}
	if c.Grid.MinWidth <= 0 || c.Grid.MinHeight <= 0 {
		return fmt.Errorf("grid.min_width and grid.min_height must be > 0")
	}
	if c.Grid.MinWidth > c.Grid.CanvasWidthUnits {
		return fmt.Errorf("grid.min_width %d exceeds canvas width %d", c.Grid.MinWidth, c.Grid.CanvasWidthUnits)
	}
	if c.History.Limit <= 0 {
		return fmt.Errorf("history.limit must be > 0")
	}
	if c.History.JournalLimit < 0 {
		return fmt.Errorf("history.journal_limit must be >= 0")
	}

	switch c.Storage.Driver {
	case "sqlite", "postgres", "mysql":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
		}
	case "mongodb":
		if c.Storage.DSN == "" || c.Storage.MongoDatabase == "" {
			return fmt.Errorf("storage.dsn and storage.mongo_database are required for mongodb")
		}
	case "none":
	default:
		return fmt.Errorf("unsupported storage.driver %q (use sqlite, postgres, mysql, mongodb or none)", c.Storage.Driver)
	}

	if c.Autosave.Enabled {
		if c.Storage.Driver == "none" {
			return errors.New("autosave requires a storage driver")
		}
		if c.Autosave.Snapshot == "" {
			return fmt.Errorf("autosave.snapshot is required")
		}
		if _, err := cron.ParseStandard(c.Autosave.Schedule); err != nil {
			return fmt.Errorf("autosave.schedule %q: %w", c.Autosave.Schedule, err)
		}
	}

	seen := make(map[string]bool, len(c.Canvases))
	for i, id := range c.Canvases {
		if id == "" {
			return fmt.Errorf("canvases[%d]: empty id", i)
		}
		if seen[id] {
			return fmt.Errorf("canvases[%d]: duplicate id %q", i, id)
		}
		seen[id] = true
	}

	names := make(map[string]bool, len(c.Types))
	for i, t := range c.Types {
		if t.Name == "" {
			return fmt.Errorf("types[%d]: name is required", i)
		}
		if names[t.Name] {
			return fmt.Errorf("types[%d]: duplicate type %q", i, t.Name)
		}
		names[t.Name] = true
		if t.MaxWidth > 0 && t.MaxWidth < t.MinWidth {
			return fmt.Errorf("types[%d]: max_width < min_width", i)
		}
		if t.MaxHeight > 0 && t.MaxHeight < t.MinHeight {
			return fmt.Errorf("types[%d]: max_height < min_height", i)
		}
		if t.MaxWidth > c.Grid.CanvasWidthUnits {
			return fmt.Errorf("types[%d]: max_width exceeds canvas width", i)
		}
	}
	return nil
}

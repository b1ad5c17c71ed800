// Package settings loads restaurant display settings and caches them with an
// explicit TTL.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata" // embed the tz database

	"github.com/menulens/menulens/internal/core/analytics"
	"gopkg.in/yaml.v3"
)

const (
	defaultRestaurantName      = "MenuLens"
	defaultTimezone            = "UTC"
	defaultTopItems            = 5
	defaultRecentActivityLimit = 20
)

// Settings are the restaurant-level display settings of the dashboard.
type Settings struct {
	RestaurantName      string `yaml:"restaurant_name" json:"restaurant_name"`
	Timezone            string `yaml:"timezone" json:"timezone"`
	UnknownItemName     string `yaml:"unknown_item_name" json:"unknown_item_name"`
	TopItems            int    `yaml:"top_items" json:"top_items"`
	RecentActivityLimit int    `yaml:"recent_activity_limit" json:"recent_activity_limit"`
}

// Defaults returns the settings used when no file is configured.
func Defaults() Settings {
	return Settings{
		RestaurantName:      defaultRestaurantName,
		Timezone:            defaultTimezone,
		UnknownItemName:     analytics.DefaultUnknownName,
		TopItems:            defaultTopItems,
		RecentActivityLimit: defaultRecentActivityLimit,
	}
}

// Validate checks the settings for sane values.
func (s Settings) Validate() error {
	if s.RestaurantName == "" {
		return fmt.Errorf("restaurant_name is required")
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", s.Timezone, err)
	}
	if s.UnknownItemName == "" {
		return fmt.Errorf("unknown_item_name is required")
	}
	if s.TopItems <= 0 {
		return fmt.Errorf("top_items must be positive, got %d", s.TopItems)
	}
	if s.RecentActivityLimit <= 0 {
		return fmt.Errorf("recent_activity_limit must be positive, got %d", s.RecentActivityLimit)
	}
	return nil
}

// Location returns the restaurant timezone, falling back to UTC.
func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Loader loads the current settings.
type Loader interface {
	Load(ctx context.Context) (Settings, error)
}

// FileLoader reads settings from a YAML file. Keys missing from the file keep
// their default value. An empty path yields Defaults.
type FileLoader struct {
	path string
}

// NewFileLoader creates a loader for path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

// Load reads and validates the file.
func (l *FileLoader) Load(_ context.Context) (Settings, error) {
	s := Defaults()
	if l.path == "" {
		return s, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("settings file %s not found: %w", l.path, err)
		}
		return Settings{}, fmt.Errorf("read settings file %s: %w", l.path, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings file %s: %w", l.path, err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in %s: %w", l.path, err)
	}

	slog.Debug("[Settings] Loaded settings file", "path", l.path)
	return s, nil
}

// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Calendar CalendarConfig  `toml:"calendar"`
	Chat     ChatConfig      `toml:"chat"`
	Serve    ServeConfig     `toml:"serve"`
	Projects []ProjectConfig `toml:"projects"`
}

// CalendarConfig maps calendar-related settings.
type CalendarConfig struct {
	User     *string `toml:"user"`
	APIBase  *string `toml:"api-base"`
	CellSize *int    `toml:"cell-size"`
	CellGap  *int    `toml:"cell-gap"`
	Counts   *bool   `toml:"counts"`
	Months   *bool   `toml:"months"`
	Days     *bool   `toml:"days"`
}

// ChatConfig maps chat client settings.
type ChatConfig struct {
	Endpoint *string `toml:"endpoint"`
	Project  *string `toml:"project"`
}

// ServeConfig maps chat endpoint settings.
type ServeConfig struct {
	Addr       *string `toml:"addr"`
	Owner      *string `toml:"owner"`
	Site       *string `toml:"site"`
	Model      *string `toml:"model"`
	BaseURL    *string `toml:"base-url"`
	RateLimit  *int    `toml:"rate-limit"`
	RateWindow *string `toml:"rate-window"`
}

// ProjectConfig describes one portfolio project usable as chat context.
type ProjectConfig struct {
	Name    string `toml:"name"`
	Title   string `toml:"title"`
	Excerpt string `toml:"excerpt"`
	GitHub  string `toml:"github"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an
// error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// FindProject looks up a configured project by name.
func (c FileConfig) FindProject(name string) (ProjectConfig, bool) {
	for _, p := range c.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return ProjectConfig{}, false
}

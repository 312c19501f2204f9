// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/keycoach/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Server   ServerConfig   `toml:"server"`
	Engine   EngineConfig   `toml:"engine"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	UserID    *int64  `toml:"user"`
	LearnMode *bool   `toml:"learn-mode"`
	EasyWords *string `toml:"easy-words"`
}

// ServerConfig maps HTTP listener settings.
type ServerConfig struct {
	Addr         *string  `toml:"addr"`
	AllowOrigins []string `toml:"allow-origins"`
}

// EngineConfig maps session checkpoint settings.
type EngineConfig struct {
	InitialWords     *int `toml:"initial-words"`
	AnalysisInterval *int `toml:"analysis-interval"`
	AnalysisChars    *int `toml:"analysis-chars"`
	HistoryLimit     *int `toml:"history-limit"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
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
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Engine resolves the engine section; unset values stay zero so the engine
// applies its own defaults.
func (c EngineConfig) Engine() model.EngineConfig {
	var out model.EngineConfig
	if c.InitialWords != nil {
		out.InitialWords = *c.InitialWords
	}
	if c.AnalysisInterval != nil {
		out.AnalysisInterval = time.Duration(*c.AnalysisInterval) * time.Second
	}
	if c.AnalysisChars != nil {
		out.AnalysisChars = *c.AnalysisChars
	}
	if c.HistoryLimit != nil {
		out.HistoryLimit = *c.HistoryLimit
	}
	return out
}

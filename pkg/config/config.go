package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ExclusiveAccount/stalemac/pkg/report"
)

// ErrInvalidConfig is wrapped by every Validate failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the staleness check configuration
type Config struct {
	Threshold     int      `json:"threshold" yaml:"threshold"`           // Months without a sighting before a host is reported
	HistoryPath   string   `json:"history" yaml:"history"`               // Switch sighting history file
	InventoryPath string   `json:"inventory" yaml:"inventory"`           // %-delimited host database
	PcapPath      string   `json:"pcap,omitempty" yaml:"pcap,omitempty"` // Optional offline capture loaded after the history
	OUIPath       string   `json:"oui,omitempty" yaml:"oui,omitempty"`   // Optional IEEE registry CSV for vendor names
	Verbose       bool     `json:"verbose" yaml:"verbose"`               // Progress messages on stderr
	Exclude       []string `json:"exclude" yaml:"exclude"`               // Host database lines matching any pattern are skipped
	Format        string   `json:"format" yaml:"format"`                 // Report format (text, json, csv)
	Output        string   `json:"output" yaml:"output"`                 // Report destination, "-" for stdout
	LogLevel      string   `json:"log_level" yaml:"log_level"`           // Log level (debug, info, warn, error)
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() Config {
	return Config{
		Threshold:     6,
		HistoryPath:   "fakehistory.txt",
		InventoryPath: "fakehosts.txt",
		Verbose:       true,
		Exclude:       []string{"host13", "host42"},
		Format:        report.FormatText,
		Output:        "-",
		LogLevel:      "info",
	}
}

// LoadConfigFromFile loads configuration from a YAML or JSON file. Keys
// missing from the file keep their default values.
func LoadConfigFromFile(filePath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", filePath, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for values the scan cannot run with
func (c Config) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative, got %d", ErrInvalidConfig, c.Threshold)
	}
	if c.HistoryPath == "" && c.PcapPath == "" {
		return fmt.Errorf("%w: a history file or pcap file is required", ErrInvalidConfig)
	}
	if c.InventoryPath == "" {
		return fmt.Errorf("%w: a host database file is required", ErrInvalidConfig)
	}
	for _, pattern := range c.Exclude {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: exclude pattern %q: %v", ErrInvalidConfig, pattern, err)
		}
	}

	format := strings.ToLower(c.Format)
	for _, known := range report.Formats {
		if format == known {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
}

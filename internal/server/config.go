// Package server implements the HTTP surface of cortexviz: snapshot
// load/save, validation, scene construction for the external renderer, and
// session-scoped selection state.
//
// This file defines the YAML configuration structs and their loader.
package server

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mseren/cortexviz/pkg/scene"
)

// Config is the top-level structure of the server configuration file.
type Config struct {
	HTTPAddr     string     `yaml:"http_addr"`
	SnapshotPath string     `yaml:"snapshot_path"`
	View         ViewConfig `yaml:"view"`
}

// ViewConfig overrides the scene ceilings. Zero values fall back to the
// defaults.
type ViewConfig struct {
	NeighborhoodNodeCap int `yaml:"neighborhood_node_cap"`
	GlobalSampleCap     int `yaml:"global_sample_cap"`
	SampleOutboundCap   int `yaml:"sample_outbound_cap"`
	LongRangeHardCap    int `yaml:"long_range_hard_cap"`
}

// Limits merges the configured overrides onto the default ceilings.
func (v ViewConfig) Limits() scene.Limits {
	lim := scene.DefaultLimits()
	if v.NeighborhoodNodeCap > 0 {
		lim.NeighborhoodNodeCap = v.NeighborhoodNodeCap
	}
	if v.GlobalSampleCap > 0 {
		lim.GlobalSampleCap = v.GlobalSampleCap
	}
	if v.SampleOutboundCap > 0 {
		lim.SampleOutboundCap = v.SampleOutboundCap
	}
	if v.LongRangeHardCap > 0 {
		lim.LongRangeHardCap = v.LongRangeHardCap
	}
	return lim
}

// LoadConfig reads and parses the YAML configuration file. Environment
// variables in the file are expanded, and Strict Mode (KnownFields) rejects
// typo'd keys instead of ignoring them.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read configuration file '%s': %w", path, err)
	}

	expandedData := os.ExpandEnv(string(data))

	var config Config
	decoder := yaml.NewDecoder(strings.NewReader(expandedData))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML syntax error in '%s': %w", path, err)
	}

	return &config, nil
}

package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/go-mdio/internal/filter"
	"github.com/robert-malhotra/go-mdio/mdio"
)

// Config is the YAML document every command reads: where the store lives and
// how the exchange file's headers map onto grid dimensions.
type Config struct {
	// Target names the block substrate holding the store.
	Target mdio.Target `yaml:"target"`

	// Import maps trace headers onto index dimensions.
	Import mdio.ImportConfig `yaml:"import"`

	// ChunkShape is one extent per grid dimension, sample axis last.
	// Empty uses the built-in default.
	ChunkShape []int `yaml:"chunk_shape,omitempty"`

	// Filter configures chunk compression.
	Filter filter.Config `yaml:"filter,omitempty"`

	// Workers bounds the import and flush worker pools.
	Workers int `yaml:"workers,omitempty"`
}

// LoadConfig reads and parses a config file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Target.Driver == "" {
		return nil, fmt.Errorf("config %s: target.driver is required", path)
	}
	return &cfg, nil
}

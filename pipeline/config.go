package pipeline

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/casefile/chunk"
)

// Config tunes the processing pipeline. The zero value is usable; defaults
// are applied on first use.
type Config struct {
	// MaxFileSize rejects input documents above this many bytes.
	MaxFileSize int `yaml:"max_file_size"`
	// ChunkMaxSize bounds the chunks produced for long event bodies.
	ChunkMaxSize int `yaml:"chunk_max_size"`
	// MinConfidence is the correlator's confidence floor.
	MinConfidence float64 `yaml:"min_confidence"`
	// AttachmentDir is where deduplicated attachments are written.
	AttachmentDir string `yaml:"attachment_dir"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = 50 << 20
	}
	if c.ChunkMaxSize == 0 {
		c.ChunkMaxSize = chunk.DefaultMaxSize
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.35
	}
	if c.AttachmentDir == "" {
		c.AttachmentDir = "attachments"
	}
	if c.DBPath == "" {
		c.DBPath = "casefile.db"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// LoadConfig reads a YAML config file and applies defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("pipeline: read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("pipeline: parse config: %w", err)
		}
	}
	cfg.defaults()
	return cfg, nil
}

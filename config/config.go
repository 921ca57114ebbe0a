// Package config provides configuration loading for the draftkit server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug       bool              `yaml:"debug"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	AI          AIConfig          `yaml:"ai"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	KB          KBConfig          `yaml:"kb"`
	Policy      PolicyConfig      `yaml:"policy"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the checkpoint/review/policy store settings.
// InMemory selects a non-durable backend; the orchestrator also falls
// back to in-memory when the durable store cannot be opened.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	InMemory     bool   `yaml:"in_memory"`
}

// AIConfig holds embedding and generation endpoint settings.
type AIConfig struct {
	EmbeddingHost   string `yaml:"embedding_host"`
	GenerationHost  string `yaml:"generation_host"`
	EmbeddingModel  string `yaml:"embedding_model"`
	GenerationModel string `yaml:"generation_model"`
	APIKey          string `yaml:"api_key"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// VectorIndexConfig holds the vector index connection settings.
type VectorIndexConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	VectorSize int    `yaml:"vector_size"`
}

// KBConfig holds chunking and retrieval settings.
type KBConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	SearchTopK   int `yaml:"search_top_k"`
}

// PolicyConfig holds the seeded defaults for the "default" workspace.
type PolicyConfig struct {
	DefaultToneLevel int      `yaml:"default_tone_level"`
	DefaultBlocklist []string `yaml:"default_blocklist"`
}

// Load reads and parses the config file at path and applies defaults.
// An empty path returns the default configuration.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// ListenAddr returns the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

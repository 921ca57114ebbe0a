package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "data/draftkit"
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = "http://localhost:11434/v1"
	}
	if cfg.AI.GenerationHost == "" {
		cfg.AI.GenerationHost = "http://localhost:11434/v1"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "text-embedding-3-small"
	}
	if cfg.AI.GenerationModel == "" {
		cfg.AI.GenerationModel = "gpt-4o-mini"
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = "none"
	}
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 60
	}
	if cfg.VectorIndex.URL == "" {
		cfg.VectorIndex.URL = "http://localhost:6333"
	}
	if cfg.VectorIndex.Collection == "" {
		cfg.VectorIndex.Collection = "draftkit_kb"
	}
	if cfg.VectorIndex.VectorSize == 0 {
		cfg.VectorIndex.VectorSize = 1536
	}
	if cfg.KB.ChunkSize == 0 {
		cfg.KB.ChunkSize = 800
	}
	if cfg.KB.ChunkOverlap == 0 {
		cfg.KB.ChunkOverlap = 200
	}
	if cfg.KB.SearchTopK == 0 {
		cfg.KB.SearchTopK = 5
	}
	if cfg.Policy.DefaultToneLevel == 0 {
		cfg.Policy.DefaultToneLevel = 3
	}
	if cfg.Policy.DefaultBlocklist == nil {
		cfg.Policy.DefaultBlocklist = []string{
			"free trial", "money back guarantee", "limited time offer",
		}
	}
}

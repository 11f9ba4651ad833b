package config

const (
	PolicyAbsolute = "absolute"
	PolicyRelative = "relative"

	MetricL2     = "l2"
	MetricCosine = "cosine"

	// MemoryIndexPath keeps the chunk index in memory for the process lifetime.
	MemoryIndexPath = ":memory:"

	// RetrievalTopK is the number of chunks retrieved per query.
	RetrievalTopK = 3

	DefaultRelativeFactor    = 1.3
	DefaultAbsoluteThreshold = 0.4
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "/usr/local/var/kotae/data/db/chunks.db"
	}
	if cfg.Storage.KeywordIndexPath == "" {
		cfg.Storage.KeywordIndexPath = "/usr/local/var/kotae/data/indices/bleve"
	}
	if cfg.Storage.RecordsPath == "" {
		cfg.Storage.RecordsPath = "/usr/local/var/kotae/data/db/queries.db"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.BaseURL == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.BaseURL = "https://api.openai.com/v1"
		case "ollama":
			cfg.Embedding.BaseURL = "http://localhost:11434"
		}
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Model = "text-embedding-3-small"
		case "ollama":
			cfg.Embedding.Model = "nomic-embed-text"
		}
	}
	if cfg.Embedding.APIKeyEnv == "" && cfg.Embedding.Provider == "openai" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Dimensions = 1536
		case "onnx", "mock":
			cfg.Embedding.Dimensions = 384
		default:
			cfg.Embedding.Dimensions = 768
		}
	}
	if cfg.Embedding.TimeoutSecs == 0 {
		cfg.Embedding.TimeoutSecs = 30
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/kotae/data/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.BaseURL == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.BaseURL = "https://api.openai.com/v1"
		case "anthropic":
			cfg.LLM.BaseURL = "https://api.anthropic.com"
		case "ollama":
			cfg.LLM.BaseURL = "http://localhost:11434"
		}
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		case "anthropic":
			cfg.LLM.Model = "claude-3-5-haiku-latest"
		case "ollama":
			cfg.LLM.Model = "llama3.2"
		}
	}
	if cfg.LLM.APIKeyEnv == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
		case "anthropic":
			cfg.LLM.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 120
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}

	if cfg.Ingest.SourceDir == "" {
		cfg.Ingest.SourceDir = "/usr/local/var/kotae/data/documents"
	}
	if cfg.Ingest.Extensions == nil {
		cfg.Ingest.Extensions = []string{".pdf"}
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 600
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 120
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 10
	}
	if cfg.Ingest.InsertWorkers == 0 {
		cfg.Ingest.InsertWorkers = 1
	}

	if cfg.Retrieval.Policy == "" {
		cfg.Retrieval.Policy = PolicyAbsolute
	}
	if cfg.Retrieval.RelativeFactor == nil {
		cfg.Retrieval.RelativeFactor = Float64(DefaultRelativeFactor)
	}
	if cfg.Retrieval.AbsoluteThreshold == nil {
		cfg.Retrieval.AbsoluteThreshold = Float64(DefaultAbsoluteThreshold)
	}
	if cfg.Retrieval.DistanceMetric == "" {
		cfg.Retrieval.DistanceMetric = MetricL2
	}

	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}

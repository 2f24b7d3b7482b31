package config

const (
	StoreJSON   = "json"
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMilvus = "milvus"

	EmbedderOpenAI = "openai"
	EmbedderHash   = "hash"
)

// Default returns the configuration used when no file or environment overrides are present.
func Default() Config {
	return Config{
		Server: Server{
			Addr:                   ":8000",
			ShutdownTimeoutSeconds: 10,
		},
		Store: Store{
			Type: StoreJSON,
			Path: "knowledge_base.json",
			Redis: Redis{
				Address: "localhost:6379",
				Key:     "kural:knowledge",
			},
			Milvus: Milvus{
				Address:    "localhost:19530",
				Collection: "kural_knowledge",
			},
		},
		Embedder: Embedder{
			Provider:  EmbedderOpenAI,
			Model:     "text-embedding-3-small",
			Dimension: 1536,
		},
		LLM: LLM{
			Model:     "gpt-4o-mini",
			MaxTokens: 2000,
		},
		Retrieval: Retrieval{
			TopK: 3,
		},
		Speech: Speech{
			OpenAIModel: "tts-1",
			OpenAIVoice: "alloy",
		},
		Log: Logging{
			Level:  "info",
			Format: "auto",
		},
	}
}

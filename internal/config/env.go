package config

import (
	"strconv"
	"strings"
)

// lookupFunc matches os.LookupEnv.
type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str("OPENAI_API_KEY", &c.OpenAIAPIKey)
	str("KURAL_ADDR", &c.Server.Addr)
	str("KURAL_STORE", &c.Store.Type)
	str("KURAL_STORE_PATH", &c.Store.Path)
	str("REDIS_ADDRESS", &c.Store.Redis.Address)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	str("MILVUS_ADDRESS", &c.Store.Milvus.Address)
	str("MILVUS_COLLECTION", &c.Store.Milvus.Collection)
	str("KURAL_EMBEDDER", &c.Embedder.Provider)
	str("KURAL_TTS_URL", &c.Speech.TamilURL)
	str("KURAL_LOG_LEVEL", &c.Log.Level)
	str("KURAL_LOG_FORMAT", &c.Log.Format)

	if v, ok := lookup("KURAL_INDEX_ANALYSES"); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			c.Store.IndexAnalyses = b
		}
	}
}

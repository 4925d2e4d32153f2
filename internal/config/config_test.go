package config_test

import (
	"testing"
	"time"

	"github.com/OFFIS-RIT/newsgraph/internal/config"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t,
		"NEWS_API_URL", "ARTICLES_BACKEND", "ARTICLES_DIR", "ARTICLES_FILE",
		"NEO4J_URI", "NEO4J_DATABASE", "AI_ADAPTER", "AI_EMBED_MODEL",
		"AI_EMBED_DIM", "AI_CHAT_QUERY_MODEL", "VECTOR_BATCH_SIZE",
		"VECTOR_MAX_RETRIES", "QUERY_TOP_K", "AI_PARALLEL_REQ", "FETCH_FULL_TEXT",
	)

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "https://newsapi.org", cfg.News.BaseURL)
	require.Equal(t, "us", cfg.News.Country)
	require.False(t, cfg.News.FetchFullText)
	require.Equal(t, "local", cfg.Articles.Backend)
	require.Equal(t, ".", cfg.Articles.Dir)
	require.Equal(t, "news_metadata.json", cfg.Articles.File)
	require.Equal(t, "neo4j", cfg.Neo4j.Database)
	require.Equal(t, "openai", cfg.AI.Adapter)
	require.Equal(t, "text-embedding-3-small", cfg.AI.EmbedModel)
	require.Equal(t, 1536, cfg.AI.EmbedDim)
	require.Equal(t, "gpt-4.1", cfg.AI.QueryModel)
	require.Equal(t, 10, cfg.Vector.BatchSize)
	require.Equal(t, 3, cfg.Vector.MaxRetries)
	require.Equal(t, 2, cfg.Vector.TopK)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ARTICLES_BACKEND", "S3")
	t.Setenv("AWS_BUCKET", "news")
	t.Setenv("AI_ADAPTER", "ollama")
	t.Setenv("AI_EMBED_DIM", "768")
	t.Setenv("VECTOR_BATCH_SIZE", "25")
	t.Setenv("VECTOR_RETRY_DELAY", "500ms")
	t.Setenv("FETCH_FULL_TEXT", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	require.Equal(t, "s3", cfg.Articles.Backend)
	require.Equal(t, "news", cfg.Articles.Bucket)
	require.Equal(t, "ollama", cfg.AI.Adapter)
	require.Equal(t, 768, cfg.AI.EmbedDim)
	require.Equal(t, 25, cfg.Vector.BatchSize)
	require.Equal(t, 500*time.Millisecond, cfg.Vector.RetryDelay)
	require.True(t, cfg.News.FetchFullText)
	require.NoError(t, cfg.RequireAI())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"ARTICLES_BACKEND": "ftp"}},
		{name: "s3 without bucket", env: map[string]string{"ARTICLES_BACKEND": "s3", "AWS_BUCKET": ""}},
		{name: "unknown adapter", env: map[string]string{"AI_ADAPTER": "bard"}},
		{name: "zero batch size", env: map[string]string{"VECTOR_BATCH_SIZE": "0"}},
		{name: "negative retries", env: map[string]string{"VECTOR_MAX_RETRIES": "-1"}},
		{name: "zero top k", env: map[string]string{"QUERY_TOP_K": "0"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.Load()
			require.Error(t, err)
		})
	}
}

func TestRequireChecks(t *testing.T) {
	clearEnv(t, "NEWS_API_KEY", "AI_ADAPTER", "AI_CHAT_KEY", "AI_EMBED_KEY", "NEO4J_PASSWORD")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Error(t, cfg.RequireNews())
	require.Error(t, cfg.RequireAI())
	require.Error(t, cfg.RequireNeo4j())

	cfg.News.APIKey = "key"
	cfg.AI.ChatKey = "chat"
	cfg.AI.EmbedKey = "embed"
	cfg.Neo4j.Password = "secret"
	require.NoError(t, cfg.RequireNews())
	require.NoError(t, cfg.RequireAI())
	require.NoError(t, cfg.RequireNeo4j())
}

func TestLoadServer(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := config.LoadServer()
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://news@localhost/news")
	t.Setenv("AUTH_URL", "")
	t.Setenv("MASTER_API_KEY", "")
	_, err = config.LoadServer()
	require.Error(t, err)

	t.Setenv("MASTER_API_KEY", "master")
	t.Setenv("PORT", "")
	s, err := config.LoadServer()
	require.NoError(t, err)
	require.Equal(t, "8080", s.Port)
	require.Equal(t, "master", s.MasterAPIKey)
}

func TestLoadQueue(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("RABBITMQ_USER", "news")
	t.Setenv("RABBITMQ_PASSWORD", "pw")
	t.Setenv("RABBITMQ_HOST", "rabbit")
	t.Setenv("RABBITMQ_PORT", "")
	require.Equal(t, "amqp://news:pw@rabbit:5672/", config.LoadQueue().URL)

	t.Setenv("RABBITMQ_URL", "amqp://other/")
	require.Equal(t, "amqp://other/", config.LoadQueue().URL)
}

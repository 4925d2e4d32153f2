package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/newsgraph/internal/util"
)

// News configures the NewsAPI client and the fetch stage.
type News struct {
	APIKey        string
	BaseURL       string
	Country       string
	Language      string
	FetchFullText bool
	Timeout       time.Duration
}

// Articles configures where the fetched article file is persisted.
type Articles struct {
	Backend string // "local" or "s3"
	Dir     string
	File    string
	Bucket  string
}

// Neo4j holds the graph store connection.
type Neo4j struct {
	URI      string
	Username string
	Password string
	Database string
}

// AI configures the chat and embedding backends.
type AI struct {
	Adapter       string // "openai" or "ollama"
	EmbedModel    string
	EmbedURL      string
	EmbedKey      string
	EmbedDim      int
	ExtractModel  string
	QueryModel    string
	ChatURL       string
	ChatKey       string
	ParallelReq   int64
	TimeoutMin    int
	MaxEmbedToken int
}

// Vector configures the indexer and similarity search.
type Vector struct {
	BatchSize  int
	MaxRetries int
	RetryDelay time.Duration
	TopK       int
}

// Config is the full pipeline configuration shared by every command.
type Config struct {
	News     News
	Articles Articles
	Neo4j    Neo4j
	AI       AI
	Vector   Vector
	Debug    bool
}

// Load reads the pipeline configuration from the environment and validates
// every value that has a default. Credentials are checked by the Require*
// methods so commands only fail on what they actually use.
func Load() (*Config, error) {
	c := &Config{
		News: News{
			APIKey:        util.GetEnv("NEWS_API_KEY"),
			BaseURL:       util.GetEnvString("NEWS_API_URL", "https://newsapi.org"),
			Country:       util.GetEnvString("NEWS_COUNTRY", "us"),
			Language:      util.GetEnvString("NEWS_LANGUAGE", "en"),
			FetchFullText: util.GetEnvBool("FETCH_FULL_TEXT", false),
			Timeout:       util.GetEnvDuration("NEWS_TIMEOUT", 30*time.Second),
		},
		Articles: Articles{
			Backend: strings.ToLower(util.GetEnvString("ARTICLES_BACKEND", "local")),
			Dir:     util.GetEnvString("ARTICLES_DIR", "."),
			File:    util.GetEnvString("ARTICLES_FILE", "news_metadata.json"),
			Bucket:  util.GetEnv("AWS_BUCKET"),
		},
		Neo4j: Neo4j{
			URI:      util.GetEnvString("NEO4J_URI", "neo4j://localhost:7687"),
			Username: util.GetEnvString("NEO4J_USERNAME", "neo4j"),
			Password: util.GetEnv("NEO4J_PASSWORD"),
			Database: util.GetEnvString("NEO4J_DATABASE", "neo4j"),
		},
		AI: AI{
			Adapter:       strings.ToLower(util.GetEnvString("AI_ADAPTER", "openai")),
			EmbedModel:    util.GetEnvString("AI_EMBED_MODEL", "text-embedding-3-small"),
			EmbedURL:      util.GetEnv("AI_EMBED_URL"),
			EmbedKey:      util.GetEnv("AI_EMBED_KEY"),
			EmbedDim:      int(util.GetEnvNumeric("AI_EMBED_DIM", 1536)),
			ExtractModel:  util.GetEnvString("AI_CHAT_EXTRACT_MODEL", "gpt-4.1"),
			QueryModel:    util.GetEnvString("AI_CHAT_QUERY_MODEL", "gpt-4.1"),
			ChatURL:       util.GetEnv("AI_CHAT_URL"),
			ChatKey:       util.GetEnv("AI_CHAT_KEY"),
			ParallelReq:   int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 4)),
			TimeoutMin:    int(util.GetEnvNumeric("AI_TIMEOUT_MIN", 5)),
			MaxEmbedToken: int(util.GetEnvNumeric("AI_EMBED_MAX_TOKENS", 8191)),
		},
		Vector: Vector{
			BatchSize:  int(util.GetEnvNumeric("VECTOR_BATCH_SIZE", 10)),
			MaxRetries: int(util.GetEnvNumeric("VECTOR_MAX_RETRIES", 3)),
			RetryDelay: util.GetEnvDuration("VECTOR_RETRY_DELAY", 2*time.Second),
			TopK:       int(util.GetEnvNumeric("QUERY_TOP_K", 2)),
		},
		Debug: util.GetEnvBool("DEBUG", false),
	}

	if c.Articles.Backend != "local" && c.Articles.Backend != "s3" {
		return nil, fmt.Errorf("ARTICLES_BACKEND must be local or s3, got %q", c.Articles.Backend)
	}
	if c.Articles.Backend == "s3" && c.Articles.Bucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET is required when ARTICLES_BACKEND=s3")
	}
	if c.AI.Adapter != "openai" && c.AI.Adapter != "ollama" {
		return nil, fmt.Errorf("AI_ADAPTER must be openai or ollama, got %q", c.AI.Adapter)
	}
	if c.AI.EmbedDim <= 0 {
		return nil, fmt.Errorf("AI_EMBED_DIM must be positive")
	}
	if c.AI.ParallelReq <= 0 {
		return nil, fmt.Errorf("AI_PARALLEL_REQ must be positive")
	}
	if c.Vector.BatchSize <= 0 {
		return nil, fmt.Errorf("VECTOR_BATCH_SIZE must be positive")
	}
	if c.Vector.MaxRetries < 0 {
		return nil, fmt.Errorf("VECTOR_MAX_RETRIES cannot be negative")
	}
	if c.Vector.TopK <= 0 {
		return nil, fmt.Errorf("QUERY_TOP_K must be positive")
	}

	return c, nil
}

// RequireNews checks the settings needed by the fetch stage.
func (c *Config) RequireNews() error {
	if c.News.APIKey == "" {
		return fmt.Errorf("NEWS_API_KEY is required")
	}
	return nil
}

// RequireAI checks the credentials of the configured AI adapter. Ollama
// runs without keys.
func (c *Config) RequireAI() error {
	if c.AI.Adapter == "ollama" {
		return nil
	}
	if c.AI.ChatKey == "" {
		return fmt.Errorf("AI_CHAT_KEY is required for the openai adapter")
	}
	if c.AI.EmbedKey == "" {
		return fmt.Errorf("AI_EMBED_KEY is required for the openai adapter")
	}
	return nil
}

// RequireNeo4j checks the graph store credentials.
func (c *Config) RequireNeo4j() error {
	if c.Neo4j.URI == "" {
		return fmt.Errorf("NEO4J_URI is required")
	}
	if c.Neo4j.Password == "" {
		return fmt.Errorf("NEO4J_PASSWORD is required")
	}
	return nil
}

// Server configures the HTTP API.
type Server struct {
	Port         string
	DatabaseURL  string
	AuthURL      string
	MasterAPIKey string
}

// LoadServer reads the HTTP server settings.
func LoadServer() (*Server, error) {
	s := &Server{
		Port:         util.GetEnvString("PORT", "8080"),
		DatabaseURL:  util.GetEnv("DATABASE_URL"),
		AuthURL:      util.GetEnv("AUTH_URL"),
		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
	}
	if s.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if s.AuthURL == "" && s.MasterAPIKey == "" {
		return nil, fmt.Errorf("either AUTH_URL or MASTER_API_KEY must be set")
	}
	return s, nil
}

// Queue configures the RabbitMQ connection used by worker and server.
type Queue struct {
	URL string
}

// LoadQueue reads the RabbitMQ settings. RABBITMQ_URL wins over the
// individual host/user/password variables.
func LoadQueue() *Queue {
	url := util.GetEnv("RABBITMQ_URL")
	if url == "" {
		url = fmt.Sprintf(
			"amqp://%s:%s@%s:%s/",
			util.GetEnvString("RABBITMQ_USER", "guest"),
			util.GetEnvString("RABBITMQ_PASSWORD", "guest"),
			util.GetEnvString("RABBITMQ_HOST", "localhost"),
			util.GetEnvString("RABBITMQ_PORT", "5672"),
		)
	}
	return &Queue{URL: url}
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/newsgraph/internal/config"
	"github.com/OFFIS-RIT/newsgraph/internal/queue"
	"github.com/OFFIS-RIT/newsgraph/internal/storage"
	"github.com/OFFIS-RIT/newsgraph/internal/timing"
	"github.com/OFFIS-RIT/newsgraph/pkg/ai"
	"github.com/OFFIS-RIT/newsgraph/pkg/graph"
	"github.com/OFFIS-RIT/newsgraph/pkg/loader/web"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
	"github.com/OFFIS-RIT/newsgraph/pkg/news"
	"github.com/OFFIS-RIT/newsgraph/pkg/query"
	"github.com/OFFIS-RIT/newsgraph/pkg/store"
	"github.com/OFFIS-RIT/newsgraph/pkg/store/neo4j"
	"github.com/OFFIS-RIT/newsgraph/pkg/vector"
)

// StageAll runs fetch, build and index in order.
const StageAll = "all"

// ArticleSource produces the articles of one fetch.
type ArticleSource interface {
	Fetch(ctx context.Context) ([]news.Article, error)
}

// ArticleStore persists fetched articles between stages.
type ArticleStore interface {
	Save(ctx context.Context, articles []news.Article) error
	Load(ctx context.Context) ([]news.Article, error)
}

// Components are the collaborators of a Pipeline. Stages whose components
// are nil fail when run.
type Components struct {
	Source   ArticleSource
	Articles ArticleStore
	Graph    store.GraphStore
	AI       ai.GraphAIClient
	Schema   graph.Schema
	Vector   config.Vector
	Timings  *timing.Recorder
}

// Pipeline sequences the fetch, build, index and ask stages.
type Pipeline struct {
	source   ArticleSource
	articles ArticleStore
	graph    store.GraphStore
	ai       ai.GraphAIClient

	builder *graph.Builder
	indexer *vector.Indexer
	chain   *query.Chain

	batchSize int
	timings   *timing.Recorder
}

// NewWithComponents wires a pipeline from ready made components.
func NewWithComponents(c Components) *Pipeline {
	p := &Pipeline{
		source:    c.Source,
		articles:  c.Articles,
		graph:     c.Graph,
		ai:        c.AI,
		batchSize: c.Vector.BatchSize,
		timings:   c.Timings,
	}
	if p.batchSize <= 0 {
		p.batchSize = vector.DefaultBatchSize
	}

	if c.Graph != nil && c.AI != nil {
		schema := c.Schema
		if len(schema.Nodes) == 0 {
			schema = graph.DefaultSchema
		}
		p.builder = graph.NewBuilder(c.Graph, graph.NewExtractor(c.AI, schema), schema)

		p.indexer = vector.NewIndexer(c.Graph, c.AI)
		if c.Vector.MaxRetries > 0 {
			p.indexer.MaxRetries = c.Vector.MaxRetries
		}
		if c.Vector.RetryDelay > 0 {
			p.indexer.RetryDelay = c.Vector.RetryDelay
		}

		p.chain = query.NewChain(vector.NewStore(c.Graph, c.AI, p.indexer.IndexName), c.Graph, c.AI)
		if c.Vector.TopK > 0 {
			p.chain.K = c.Vector.TopK
		}
	}
	return p
}

// New connects the services the given stages need. With no stages every
// service is connected.
func New(ctx context.Context, cfg *config.Config, stages ...string) (*Pipeline, error) {
	needNews, needGraph := len(stages) == 0, len(stages) == 0
	for _, s := range stages {
		switch s {
		case queue.StageFetch:
			needNews = true
		case StageAll:
			needNews, needGraph = true, true
		default:
			needGraph = true
		}
	}

	articles, err := storage.FromConfig(ctx, cfg.Articles)
	if err != nil {
		return nil, err
	}
	c := Components{Articles: articles, Schema: graph.DefaultSchema, Vector: cfg.Vector}

	if needNews {
		if err := cfg.RequireNews(); err != nil {
			return nil, err
		}
		fetcher := news.NewFetcher(news.NewClient(cfg.News.BaseURL, cfg.News.APIKey, cfg.News.Timeout), cfg.News.Country, cfg.News.Language)
		if cfg.News.FetchFullText {
			fetcher.FullText = web.NewLoader(cfg.News.Timeout)
		}
		c.Source = fetcher
	}

	if needGraph {
		if err := cfg.RequireNeo4j(); err != nil {
			return nil, err
		}
		if err := cfg.RequireAI(); err != nil {
			return nil, err
		}
		client, err := NewAIClient(cfg.AI)
		if err != nil {
			return nil, err
		}
		gs, err := neo4j.NewGraphStore(ctx, neo4j.NewGraphStoreParams{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return nil, err
		}
		c.Graph = gs
		c.AI = client
	}

	p := NewWithComponents(c)
	if p.indexer != nil {
		p.indexer.Dimensions = cfg.AI.EmbedDim
		p.indexer.MaxTokens = cfg.AI.MaxEmbedToken
	}
	return p, nil
}

// SetTimings enables persisting stage durations.
func (p *Pipeline) SetTimings(r *timing.Recorder) {
	p.timings = r
}

// AIClient returns the shared AI client, nil when no graph stage was wired.
func (p *Pipeline) AIClient() ai.GraphAIClient {
	return p.ai
}

// Close releases the graph store connection.
func (p *Pipeline) Close(ctx context.Context) error {
	if p.graph == nil {
		return nil
	}
	return p.graph.Close(ctx)
}

// Fetch retrieves the current headlines and overwrites the stored file.
func (p *Pipeline) Fetch(ctx context.Context) ([]news.Article, error) {
	if p.source == nil || p.articles == nil {
		return nil, fmt.Errorf("fetch stage is not configured")
	}
	articles, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.articles.Save(ctx, articles); err != nil {
		return nil, err
	}
	logger.Info("[Pipeline] Saved articles", "count", len(articles))
	return articles, nil
}

// Build rebuilds the graph from the stored articles.
func (p *Pipeline) Build(ctx context.Context) (graph.BuildReport, error) {
	if p.builder == nil || p.articles == nil {
		return graph.BuildReport{}, fmt.Errorf("build stage is not configured")
	}
	articles, err := p.articles.Load(ctx)
	if err != nil {
		return graph.BuildReport{}, err
	}
	logger.Info("[Pipeline] Loaded articles", "count", len(articles))
	p.timings.Predict(ctx, queue.StageBuild, len(articles))
	return p.builder.Preprocess(ctx, articles)
}

// Index creates and fills the article vector index.
func (p *Pipeline) Index(ctx context.Context) (vector.Report, error) {
	if p.indexer == nil {
		return vector.Report{}, fmt.Errorf("index stage is not configured")
	}
	_, report, err := p.indexer.Connect(ctx, p.batchSize)
	if err != nil {
		return report, err
	}
	if len(report.FailedBatches) > 0 {
		logger.Warn("[Pipeline] Some vector batches failed", "failed", len(report.FailedBatches))
	}
	return report, nil
}

// Chain returns the question answering chain, nil when not configured.
func (p *Pipeline) Chain() *query.Chain {
	return p.chain
}

// Ask answers question from the current graph and index.
func (p *Pipeline) Ask(ctx context.Context, question string) string {
	if p.chain == nil {
		logger.Error("[Pipeline] Query chain is not configured")
		return query.ErrorAnswer
	}
	return p.chain.Invoke(ctx, question)
}

// RunStage runs one stage by name. StageAll runs every stage in order.
func (p *Pipeline) RunStage(ctx context.Context, stage string) error {
	start := time.Now()
	var (
		items int
		err   error
	)

	switch stage {
	case queue.StageFetch:
		var articles []news.Article
		articles, err = p.Fetch(ctx)
		items = len(articles)
	case queue.StageBuild:
		var report graph.BuildReport
		report, err = p.Build(ctx)
		items = report.Documents
	case queue.StageIndex:
		var report vector.Report
		report, err = p.Index(ctx)
		items = report.Updated
	case StageAll:
		for _, s := range queue.Stages {
			if err := p.RunStage(ctx, s); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", queue.ErrUnknownStage, stage)
	}
	if err != nil {
		return fmt.Errorf("%s stage: %w", stage, err)
	}

	duration := time.Since(start)
	logger.Info("[Pipeline] Stage finished", "stage", stage, "items", items, "duration", duration.Round(time.Millisecond))
	p.timings.Record(ctx, stage, items, duration)
	return nil
}

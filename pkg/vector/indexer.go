package vector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/OFFIS-RIT/newsgraph/internal/util"
	"github.com/OFFIS-RIT/newsgraph/pkg/ai"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
	"github.com/OFFIS-RIT/newsgraph/pkg/store"
)

const (
	DefaultIndexName  = "news_content_embeddings"
	DefaultLabel      = "NewsArticle"
	DefaultProperty   = "content_embedding"
	DefaultTextField  = "text"
	DefaultDimensions = 1536
	DefaultBatchSize  = 10
	DefaultMaxRetries = 3
)

const articlesQuery = `
MATCH (n:NewsArticle)
WHERE n.text IS NOT NULL
RETURN n.id AS id, n.title AS title, n.text AS text
`

const updateQuery = `
UNWIND $batch AS item
MATCH (n:NewsArticle {id: item.id})
CALL db.create.setNodeVectorProperty(n, 'content_embedding', item.embedding)
RETURN count(n) AS updated
`

// Indexer embeds article text and stores the vectors on the article nodes.
type Indexer struct {
	graph  store.GraphStore
	client ai.GraphAIClient

	IndexName  string
	Dimensions int
	MaxRetries int
	RetryDelay time.Duration
	// MaxTokens truncates each input to this many tokens before embedding.
	// Zero disables truncation.
	MaxTokens int
}

// NewIndexer returns an indexer with the default index settings.
func NewIndexer(graph store.GraphStore, client ai.GraphAIClient) *Indexer {
	return &Indexer{
		graph:      graph,
		client:     client,
		IndexName:  DefaultIndexName,
		Dimensions: DefaultDimensions,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: 2 * time.Second,
		MaxTokens:  ai.MaxEmbeddingTokens,
	}
}

// BatchFailure describes a batch that was skipped after its retries ran out.
type BatchFailure struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	IDs   []string `json:"ids"`
	Error string   `json:"error"`
}

// Report summarizes one Generate run.
type Report struct {
	Total         int            `json:"total"`
	Skipped       int            `json:"skipped"`
	Updated       int            `json:"updated"`
	FailedBatches []BatchFailure `json:"failed_batches,omitempty"`
}

// EnsureIndex creates the cosine vector index if it does not exist.
func (ix *Indexer) EnsureIndex(ctx context.Context) error {
	name, err := store.QuoteIdentifier(ix.IndexName)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`
CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (n:NewsArticle) ON n.content_embedding
OPTIONS {indexConfig: {
  `+"`vector.dimensions`"+`: %d,
  `+"`vector.similarity_function`"+`: 'cosine'
}}`, name, ix.Dimensions)

	if _, err := ix.graph.Query(ctx, q, nil); err != nil {
		return fmt.Errorf("create vector index %s: %w", ix.IndexName, err)
	}
	return nil
}

type pendingArticle struct {
	id   string
	text string
}

// Generate embeds every article with text, batchSize articles per request.
// A failing batch is retried MaxRetries times and then recorded in the
// report while the remaining batches continue. Only context cancellation
// and the initial read return an error.
func (ix *Indexer) Generate(ctx context.Context, batchSize int) (Report, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	rows, err := ix.graph.Query(ctx, articlesQuery, nil)
	if err != nil {
		return Report{}, fmt.Errorf("read articles: %w", err)
	}
	report := Report{Total: len(rows)}

	err = store.ChunkRange(len(rows), batchSize, func(start, end int) error {
		pending := make([]pendingArticle, 0, end-start)
		for _, row := range rows[start:end] {
			text := store.String(row, "title") + "\n\n" + store.String(row, "text")
			if strings.TrimSpace(text) == "" {
				report.Skipped++
				continue
			}
			pending = append(pending, pendingArticle{id: store.String(row, "id"), text: ix.truncate(text)})
		}
		if len(pending) == 0 {
			return nil
		}

		var updated int
		err := util.RetryErrWithContext(ctx, ix.MaxRetries+1, ix.RetryDelay, func(ctx context.Context) error {
			n, err := ix.embedBatch(ctx, pending)
			if err != nil {
				logger.Warn("[Vector] Batch attempt failed", "start", start, "err", err)
				return err
			}
			updated = n
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			ids := make([]string, 0, len(pending))
			for _, p := range pending {
				ids = append(ids, p.id)
			}
			report.FailedBatches = append(report.FailedBatches, BatchFailure{
				Start: start, End: end, IDs: ids, Error: err.Error(),
			})
			logger.Error("[Vector] Vector index generation failed", "batch", start, "err", err)
			return nil
		}

		report.Updated += updated
		logger.Info(fmt.Sprintf("[Vector] Vector index generated: %d~%d / %d", start+1, end, len(rows)), "updated", updated)
		return nil
	})
	if err != nil {
		return report, err
	}
	return report, nil
}

func (ix *Indexer) truncate(text string) string {
	if ix.MaxTokens <= 0 {
		return text
	}
	out, err := ai.TruncateTokens(text, ai.EmbeddingEncoding, ix.MaxTokens)
	if err != nil {
		logger.Warn("[Vector] Token truncation unavailable", "err", err)
		return text
	}
	return out
}

func (ix *Indexer) embedBatch(ctx context.Context, pending []pendingArticle) (int, error) {
	texts := make([]string, len(pending))
	for i, p := range pending {
		texts[i] = p.text
	}

	embeddings, err := ix.client.GenerateEmbeddings(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if len(embeddings) != len(pending) {
		return 0, fmt.Errorf("embed: got %d vectors for %d inputs", len(embeddings), len(pending))
	}

	batch := make([]map[string]any, len(pending))
	for i, p := range pending {
		batch[i] = map[string]any{"id": p.id, "embedding": toFloat64(embeddings[i])}
	}

	rows, err := ix.graph.Query(ctx, updateQuery, map[string]any{"batch": batch})
	if err != nil {
		return 0, fmt.Errorf("update vectors: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return store.Int(rows[0], "updated"), nil
}

// Connect makes sure the index exists and is populated, then returns a
// search handle bound to it. Run it after the graph build, which drops all
// indexes.
func (ix *Indexer) Connect(ctx context.Context, batchSize int) (*Store, Report, error) {
	if err := ix.EnsureIndex(ctx); err != nil {
		return nil, Report{}, err
	}
	report, err := ix.Generate(ctx, batchSize)
	if err != nil {
		return nil, report, err
	}
	return NewStore(ix.graph, ix.client, ix.IndexName), report, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

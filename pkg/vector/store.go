package vector

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/newsgraph/pkg/ai"
	"github.com/OFFIS-RIT/newsgraph/pkg/common"
	"github.com/OFFIS-RIT/newsgraph/pkg/store"
)

const searchQuery = `
CALL db.index.vector.queryNodes($index, $k, $embedding)
YIELD node, score
RETURN node.text AS text, score, node {.*, text: null, content_embedding: null} AS metadata
ORDER BY score DESC
`

// Store answers similarity searches against an existing vector index.
type Store struct {
	graph  store.GraphStore
	client ai.GraphAIClient
	index  string
}

// NewStore binds a search handle to index without touching the database.
func NewStore(graph store.GraphStore, client ai.GraphAIClient, index string) *Store {
	if index == "" {
		index = DefaultIndexName
	}
	return &Store{graph: graph, client: client, index: index}
}

// SimilaritySearch embeds query and returns the k nearest articles. Page
// content is the article text; metadata holds the remaining node
// properties plus the score.
func (s *Store) SimilaritySearch(ctx context.Context, query string, k int) ([]common.Document, error) {
	if k <= 0 {
		k = 4
	}
	embedding, err := s.client.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := s.graph.Query(ctx, searchQuery, map[string]any{
		"index":     s.index,
		"k":         k,
		"embedding": toFloat64(embedding),
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	docs := make([]common.Document, 0, len(rows))
	for _, row := range rows {
		meta := map[string]any{}
		if m, ok := row["metadata"].(map[string]any); ok {
			for key, v := range m {
				if v != nil {
					meta[key] = v
				}
			}
		}
		meta["score"] = store.Float(row, "score")
		docs = append(docs, common.Document{
			PageContent: store.String(row, "text"),
			Metadata:    meta,
		})
	}
	return docs, nil
}

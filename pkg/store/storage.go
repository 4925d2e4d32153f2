package store

import (
	"context"

	"github.com/OFFIS-RIT/newsgraph/pkg/common"
)

// GraphStore is the graph database used by the builder, the vector indexer
// and the query chain.
type GraphStore interface {
	// Query runs a Cypher statement in its own auto-commit transaction and
	// returns every record as a map keyed by the RETURN aliases.
	Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// AddGraphDocument writes the article node, the extracted entities and
	// their relationships of doc in one transaction. With includeSource the
	// raw text is also stored as a Document node linked by HAS_SOURCE.
	AddGraphDocument(ctx context.Context, doc common.GraphDocument, includeSource bool) error

	Close(ctx context.Context) error
}

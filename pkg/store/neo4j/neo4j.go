package neo4j

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/newsgraph/pkg/common"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
	"github.com/OFFIS-RIT/newsgraph/pkg/store"

	neo4jv5 "github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// GraphStore implements store.GraphStore on a Neo4j database. The driver is
// safe for concurrent use and is kept for the lifetime of the process.
type GraphStore struct {
	driver   neo4jv5.DriverWithContext
	database string
}

// NewGraphStoreParams holds the connection settings.
type NewGraphStoreParams struct {
	URI      string
	Username string
	Password string
	Database string
}

// NewGraphStore opens a driver and verifies that the server is reachable.
func NewGraphStore(ctx context.Context, params NewGraphStoreParams) (*GraphStore, error) {
	driver, err := neo4jv5.NewDriverWithContext(
		params.URI,
		neo4jv5.BasicAuth(params.Username, params.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", params.URI, err)
	}

	logger.Debug("[Neo4j] Connected", "uri", params.URI, "database", params.Database)
	return &GraphStore{driver: driver, database: params.Database}, nil
}

var _ store.GraphStore = (*GraphStore)(nil)

func (s *GraphStore) session(ctx context.Context, mode neo4jv5.AccessMode) neo4jv5.SessionWithContext {
	return s.driver.NewSession(ctx, neo4jv5.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// Query runs cypher in an auto-commit transaction. Schema statements such as
// CREATE CONSTRAINT need this mode.
func (s *GraphStore) Query(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := s.session(ctx, neo4jv5.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect results: %w", err)
	}

	rows := make([]map[string]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.AsMap())
	}
	return rows, nil
}

// AddGraphDocument writes doc in a single write transaction.
func (s *GraphStore) AddGraphDocument(ctx context.Context, doc common.GraphDocument, includeSource bool) error {
	statements, err := graphDocumentStatements(doc, includeSource)
	if err != nil {
		return err
	}

	session := s.session(ctx, neo4jv5.AccessModeWrite)
	defer session.Close(ctx)

	_, err = session.ExecuteWrite(ctx, func(tx neo4jv5.ManagedTransaction) (any, error) {
		for _, st := range statements {
			result, err := tx.Run(ctx, st.cypher, st.params)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to add graph document %s: %w", doc.Source.MetadataString("id"), err)
	}
	return nil
}

// Close releases the driver.
func (s *GraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

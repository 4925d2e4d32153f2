package graph

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/newsgraph/pkg/common"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
	"github.com/OFFIS-RIT/newsgraph/pkg/news"
	"github.com/OFFIS-RIT/newsgraph/pkg/store"
)

// DocumentConverter produces graph documents from source documents.
type DocumentConverter interface {
	ConvertToGraphDocuments(ctx context.Context, docs []common.Document) ([]common.GraphDocument, error)
}

// Builder rebuilds the knowledge graph from fetched articles.
type Builder struct {
	store     store.GraphStore
	converter DocumentConverter
	schema    Schema
}

// NewBuilder creates a builder that writes to s.
func NewBuilder(s store.GraphStore, converter DocumentConverter, schema Schema) *Builder {
	return &Builder{store: s, converter: converter, schema: schema}
}

// Reset deletes every node and relationship, then drops all constraints and
// every index that no constraint owns. The first failing statement aborts.
func (b *Builder) Reset(ctx context.Context) error {
	if _, err := b.store.Query(ctx, "MATCH (n) DETACH DELETE n", nil); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}

	constraints, err := b.store.Query(ctx, "SHOW CONSTRAINTS", nil)
	if err != nil {
		return fmt.Errorf("list constraints: %w", err)
	}
	for _, c := range constraints {
		name := store.String(c, "name")
		if name == "" {
			continue
		}
		if _, err := b.store.Query(ctx, "DROP CONSTRAINT "+store.QuoteName(name)+" IF EXISTS", nil); err != nil {
			return fmt.Errorf("drop constraint %s: %w", name, err)
		}
		logger.Debug("[Graph] Dropped constraint", "name", name)
	}

	indexes, err := b.store.Query(ctx, "SHOW INDEXES", nil)
	if err != nil {
		return fmt.Errorf("list indexes: %w", err)
	}
	for _, idx := range indexes {
		name := store.String(idx, "name")
		if name == "" || idx["owningConstraint"] != nil {
			continue
		}
		if _, err := b.store.Query(ctx, "DROP INDEX "+store.QuoteName(name)+" IF EXISTS", nil); err != nil {
			return fmt.Errorf("drop index %s: %w", name, err)
		}
		logger.Debug("[Graph] Dropped index", "name", name)
	}

	logger.Info("[Graph] Database reset", "constraints", len(constraints), "indexes", len(indexes))
	return nil
}

// CreateConstraints creates the uniqueness constraints of the schema.
func (b *Builder) CreateConstraints(ctx context.Context) error {
	for _, c := range b.schema.Constraints() {
		label, err := store.QuoteIdentifier(c.Label)
		if err != nil {
			return err
		}
		prop, err := store.QuoteIdentifier(c.Property)
		if err != nil {
			return err
		}
		q := fmt.Sprintf("CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE", label, prop)
		if _, err := b.store.Query(ctx, q, nil); err != nil {
			return fmt.Errorf("create constraint on %s.%s: %w", c.Label, c.Property, err)
		}
	}
	logger.Info("[Graph] Constraints created")
	return nil
}

// DocumentsFromArticles wraps articles as extraction input. The page content
// is the article content; the remaining fields become metadata.
func DocumentsFromArticles(articles []news.Article) []common.Document {
	docs := make([]common.Document, 0, len(articles))
	for _, a := range articles {
		docs = append(docs, common.Document{
			PageContent: a.Content,
			Metadata: map[string]any{
				"id":     a.ID,
				"title":  a.Title,
				"source": a.Source,
				"author": a.Author,
				"date":   a.Date,
			},
		})
	}
	return docs
}

// BuildReport summarizes a build.
type BuildReport struct {
	Documents     int `json:"documents"`
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
}

// Build extracts every article and writes the result with provenance.
func (b *Builder) Build(ctx context.Context, articles []news.Article) (BuildReport, error) {
	var report BuildReport

	graphDocs, err := b.converter.ConvertToGraphDocuments(ctx, DocumentsFromArticles(articles))
	if err != nil {
		return report, err
	}
	logger.Info("[Graph] Number of graph documents", "count", len(graphDocs))

	for _, gd := range graphDocs {
		logger.Info(
			"[Graph] Extracted",
			"id", gd.Source.MetadataString("id"),
			"nodes", formatNodes(gd.Nodes),
			"relationships", formatRelationships(gd.Relationships),
		)
		if err := b.store.AddGraphDocument(ctx, gd, true); err != nil {
			return report, err
		}
		report.Documents++
		report.Nodes += len(gd.Nodes)
		report.Relationships += len(gd.Relationships)
	}
	return report, nil
}

// Preprocess runs Reset, CreateConstraints and Build in that order.
func (b *Builder) Preprocess(ctx context.Context, articles []news.Article) (BuildReport, error) {
	if err := b.Reset(ctx); err != nil {
		return BuildReport{}, err
	}
	if err := b.CreateConstraints(ctx); err != nil {
		return BuildReport{}, err
	}
	report, err := b.Build(ctx, articles)
	if err != nil {
		return report, err
	}
	logger.Info("[Graph] Graph preprocessed", "documents", report.Documents, "nodes", report.Nodes, "relationships", report.Relationships)
	return report, nil
}

func formatNodes(nodes []common.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, fmt.Sprintf("%s:%s", n.Type, n.ID))
	}
	return out
}

func formatRelationships(rels []common.Relationship) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		out = append(out, fmt.Sprintf("%s-[%s]->%s", r.Source.ID, r.Type, r.Target.ID))
	}
	return out
}

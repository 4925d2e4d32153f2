package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/newsgraph/internal/util"
	"github.com/OFFIS-RIT/newsgraph/pkg/ai"
	"github.com/OFFIS-RIT/newsgraph/pkg/common"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
	"github.com/OFFIS-RIT/newsgraph/pkg/store"
)

const (
	DefaultK = 2

	// NoDocumentsContext is the context used when the vector search finds
	// nothing that can be looked up in the graph.
	NoDocumentsContext = "No relevant documents found."
	// ErrorAnswer is returned by Invoke whenever answering fails.
	ErrorAnswer = "An error occurred while processing your question."

	maxEntityRelationships = 10
)

const entitySearchQuery = `
MATCH (article:NewsArticle)
WHERE article.id IN $doc_ids OR article.title IN $doc_ids
WITH article
OPTIONAL MATCH (article)-[r1:MENTIONS]->(entity1)
WITH article,
     COLLECT(DISTINCT {
         type: CASE WHEN entity1 IS NOT NULL THEN LABELS(entity1)[0] ELSE NULL END,
         id: CASE WHEN entity1 IS NOT NULL THEN COALESCE(entity1.id, entity1.name) ELSE NULL END,
         rel: TYPE(r1)
     }) AS directRelations
RETURN article.id AS article_id,
       article.title AS title,
       article.text AS text,
       directRelations
`

var entityRelationshipQuery = fmt.Sprintf(`
MATCH (e1)-[r]->(e2)
WHERE e1.id IN $entity_ids OR e1.name IN $entity_ids
RETURN DISTINCT
       COALESCE(e1.id, e1.name) AS from_entity,
       LABELS(e1)[0] AS from_type,
       TYPE(r) AS relation,
       COALESCE(e2.id, e2.name) AS to_entity,
       LABELS(e2)[0] AS to_type
LIMIT %d
`, maxEntityRelationships)

// Searcher finds the documents most similar to a question.
type Searcher interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]common.Document, error)
}

// Chain answers questions from the article vectors and the entity graph.
// It keeps no state between questions.
type Chain struct {
	search Searcher
	graph  store.GraphStore
	client ai.GraphAIClient

	K      int
	Model  string
	Tracer Tracer
}

// NewChain wires a chain with the default k.
func NewChain(search Searcher, graph store.GraphStore, client ai.GraphAIClient) *Chain {
	return &Chain{search: search, graph: graph, client: client, K: DefaultK}
}

// Answer is the full result of one question.
type Answer struct {
	Question string             `json:"question"`
	Answer   string             `json:"answer"`
	Context  string             `json:"context"`
	Trace    QueryTraceSnapshot `json:"trace"`
}

// Invoke answers question. Failures are logged and reported to the caller
// as ErrorAnswer.
func (c *Chain) Invoke(ctx context.Context, question string) string {
	answer, err := c.Ask(ctx, question)
	if err != nil {
		logger.Error("[Query] Error in knowledge graph RAG chain", "question", util.Truncate(question, 120), "err", err)
		return ErrorAnswer
	}
	return answer.Answer
}

// Ask answers question and returns the context and trace along with the
// model reply.
func (c *Chain) Ask(ctx context.Context, question string) (Answer, error) {
	trace := NewQueryTrace()
	contextText, err := c.context(ctx, question, MultiTracer{trace, c.Tracer})
	if err != nil {
		return Answer{}, err
	}

	opts := []ai.GenerateOption{ai.WithTemperature(0)}
	if c.Model != "" {
		opts = append(opts, ai.WithModel(c.Model))
	}
	prompt := fmt.Sprintf(ai.AnswerPrompt, contextText, question)
	reply, err := c.client.GenerateCompletion(ctx, prompt, opts...)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return Answer{
		Question: question,
		Answer:   reply,
		Context:  contextText,
		Trace:    trace.Snapshot(),
	}, nil
}

// Context builds the reference text handed to the model for question.
func (c *Chain) Context(ctx context.Context, question string) (string, error) {
	return c.context(ctx, question, c.Tracer)
}

func (c *Chain) context(ctx context.Context, question string, tracer Tracer) (string, error) {
	k := c.K
	if k <= 0 {
		k = DefaultK
	}
	docs, err := c.search.SimilaritySearch(ctx, question, k)
	if err != nil {
		return "", fmt.Errorf("similarity search: %w", err)
	}

	docIDs := make([]string, 0, len(docs))
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id := doc.MetadataString("id"); id != "" {
			docIDs = append(docIDs, id)
		} else if title := doc.MetadataString("title"); title != "" {
			docIDs = append(docIDs, title)
		}
		texts = append(texts, doc.PageContent)
	}
	if len(docIDs) == 0 {
		return NoDocumentsContext, nil
	}
	RecordConsideredSourceIDs(tracer, docIDs...)

	records, err := c.graph.Query(ctx, entitySearchQuery, map[string]any{"doc_ids": docIDs})
	if err != nil {
		return "", fmt.Errorf("graph entity search: %w", err)
	}

	kg := c.processGraphResults(ctx, records, tracer)
	return "Document information:\n" + strings.Join(texts, "\n") +
		"\n\nKnowledge graph information:\n" + kg, nil
}

type directRelation struct {
	typ, id, rel string
	hasType      bool
	hasID        bool
}

func parseRelations(record map[string]any) []directRelation {
	raw := store.Maps(record, "directRelations")
	out := make([]directRelation, 0, len(raw))
	for _, m := range raw {
		r := directRelation{
			typ: store.String(m, "type"),
			id:  fmt.Sprint(m["id"]),
			rel: store.String(m, "rel"),
		}
		r.hasType = m["type"] != nil
		r.hasID = m["id"] != nil
		out = append(out, r)
	}
	return out
}

func (c *Chain) processGraphResults(ctx context.Context, records []map[string]any, tracer Tracer) string {
	var sb strings.Builder
	for _, record := range records {
		RecordUsedSourceIDs(tracer, store.String(record, "article_id"))

		relations := parseRelations(record)
		sb.WriteString("News: " + store.String(record, "title") + "\n")
		sb.WriteString("Related Entities:\n")
		for _, r := range relations {
			if r.hasID && r.hasType {
				fmt.Fprintf(&sb, "- %s: %s (Relationship: %s)\n", r.typ, r.id, r.rel)
				RecordQueriedEntityTypes(tracer, r.typ)
			}
		}
		sb.WriteString("\n")

		sb.WriteString(c.entityRelationships(ctx, relations, tracer))
	}
	return sb.String()
}

// entityRelationships formats up to ten relationships leaving the entities
// of one article. Errors are logged and yield an empty section.
func (c *Chain) entityRelationships(ctx context.Context, relations []directRelation, tracer Tracer) string {
	ids := make([]string, 0, len(relations))
	for _, r := range relations {
		if r.hasID {
			ids = append(ids, r.id)
		}
	}
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		return ""
	}
	RecordQueriedEntities(tracer, ids...)

	rows, err := c.graph.Query(ctx, entityRelationshipQuery, map[string]any{"entity_ids": ids})
	if err != nil {
		logger.Warn("[Query] Entity relationship search error", "err", err)
		return ""
	}
	if len(rows) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Entity relationships:\n")
	for _, row := range rows {
		fmt.Fprintf(&sb, "- %s '%s' %s %s '%s'\n",
			store.String(row, "from_type"),
			store.String(row, "from_entity"),
			store.String(row, "relation"),
			store.String(row, "to_type"),
			store.String(row, "to_entity"),
		)
	}
	sb.WriteString("\n")
	return sb.String()
}

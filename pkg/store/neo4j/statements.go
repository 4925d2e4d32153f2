package neo4j

import (
	"fmt"
	"sort"

	"github.com/OFFIS-RIT/newsgraph/pkg/common"
	"github.com/OFFIS-RIT/newsgraph/pkg/store"
)

type statement struct {
	cypher string
	params map[string]any
}

const articleQuery = `
MERGE (a:NewsArticle {id: $id})
SET a += $props, a.text = $text
`

const sourceQuery = `
MATCH (a:NewsArticle {id: $id})
MERGE (d:Document {id: $id})
SET d += $props, d.text = $text
MERGE (a)-[:HAS_SOURCE]->(d)
`

const entityQuery = `
MATCH (a:NewsArticle {id: $id})
UNWIND $nodes AS node
MERGE (e:%s {name: node.name})
SET e += node.props, e.name = node.name, e.id = node.name
MERGE (a)-[:MENTIONS]->(e)
`

const relationshipQuery = `
UNWIND $rels AS rel
MATCH (s:%s {name: rel.source})
MATCH (t:%s {name: rel.target})
MERGE (s)-[r:%s]->(t)
SET r += rel.props
`

// graphDocumentStatements renders the Cypher needed to persist doc. Entities
// are grouped by label and relationships by (source label, type, target
// label) because labels cannot be parameters.
func graphDocumentStatements(doc common.GraphDocument, includeSource bool) ([]statement, error) {
	id := doc.Source.MetadataString("id")
	if id == "" {
		return nil, fmt.Errorf("graph document source has no id")
	}

	props := cleanProperties(doc.Source.Metadata)
	delete(props, "id")

	statements := []statement{{
		cypher: articleQuery,
		params: map[string]any{"id": id, "props": props, "text": doc.Source.PageContent},
	}}
	if includeSource {
		statements = append(statements, statement{
			cypher: sourceQuery,
			params: map[string]any{"id": id, "props": props, "text": doc.Source.PageContent},
		})
	}

	byLabel := map[string][]any{}
	for _, n := range doc.Nodes {
		if n.ID == "" {
			continue
		}
		nodeProps := cleanProperties(n.Properties)
		// name and id are the merge key
		delete(nodeProps, "name")
		delete(nodeProps, "id")
		byLabel[n.Type] = append(byLabel[n.Type], map[string]any{
			"name":  n.ID,
			"props": nodeProps,
		})
	}
	for _, label := range sortedKeys(byLabel) {
		quoted, err := store.QuoteIdentifier(label)
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement{
			cypher: fmt.Sprintf(entityQuery, quoted),
			params: map[string]any{"id": id, "nodes": byLabel[label]},
		})
	}

	type relKey struct{ source, rel, target string }
	byTriple := map[relKey][]any{}
	var keys []relKey
	for _, r := range doc.Relationships {
		if r.Source.ID == "" || r.Target.ID == "" {
			continue
		}
		k := relKey{r.Source.Type, r.Type, r.Target.Type}
		if _, ok := byTriple[k]; !ok {
			keys = append(keys, k)
		}
		byTriple[k] = append(byTriple[k], map[string]any{
			"source": r.Source.ID,
			"target": r.Target.ID,
			"props":  cleanProperties(r.Properties),
		})
	}
	for _, k := range keys {
		src, err := store.QuoteIdentifier(k.source)
		if err != nil {
			return nil, err
		}
		rel, err := store.QuoteIdentifier(k.rel)
		if err != nil {
			return nil, err
		}
		tgt, err := store.QuoteIdentifier(k.target)
		if err != nil {
			return nil, err
		}
		statements = append(statements, statement{
			cypher: fmt.Sprintf(relationshipQuery, src, tgt, rel),
			params: map[string]any{"rels": byTriple[k]},
		})
	}

	return statements, nil
}

// cleanProperties keeps the values Neo4j can store as properties.
func cleanProperties(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case string:
			if val != "" {
				out[k] = val
			}
		case bool, int, int64, float64:
			out[k] = val
		case float32:
			out[k] = float64(val)
		case []string:
			if len(val) > 0 {
				out[k] = val
			}
		}
	}
	return out
}

func sortedKeys(m map[string][]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

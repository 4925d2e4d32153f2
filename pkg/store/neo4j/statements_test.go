package neo4j

import (
	"errors"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/newsgraph/pkg/common"
	"github.com/OFFIS-RIT/newsgraph/pkg/store"
)

func sampleDocument() common.GraphDocument {
	openai := common.Node{ID: "OpenAI", Type: "Company", Properties: map[string]any{"industry": "AI"}}
	gpt := common.Node{ID: "GPT-5", Type: "Product", Properties: map[string]any{"version": "5", "ignored": map[string]any{}}}
	return common.GraphDocument{
		Nodes: []common.Node{openai, gpt},
		Relationships: []common.Relationship{
			{Source: openai, Target: gpt, Type: "RELEASED"},
		},
		Source: common.Document{
			PageContent: "OpenAI released GPT-5.",
			Metadata: map[string]any{
				"id":     "tech_0",
				"title":  "OpenAI releases GPT-5 - Wire",
				"source": "Wire",
				"author": "Unknown",
				"date":   "2025-08-07T17:00:00Z",
			},
		},
	}
}

func TestGraphDocumentStatements(t *testing.T) {
	statements, err := graphDocumentStatements(sampleDocument(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// article, source, Company, Product, RELEASED
	if len(statements) != 5 {
		t.Fatalf("expected 5 statements, got %d", len(statements))
	}

	article := statements[0]
	if !strings.Contains(article.cypher, "MERGE (a:NewsArticle {id: $id})") {
		t.Fatalf("unexpected article cypher: %s", article.cypher)
	}
	props := article.params["props"].(map[string]any)
	if _, ok := props["id"]; ok {
		t.Fatal("id must not be part of the property map")
	}
	if props["title"] != "OpenAI releases GPT-5 - Wire" {
		t.Fatalf("missing title in %v", props)
	}
	if article.params["text"] != "OpenAI released GPT-5." {
		t.Fatalf("unexpected text param %v", article.params["text"])
	}

	if !strings.Contains(statements[1].cypher, "HAS_SOURCE") {
		t.Fatalf("expected provenance statement, got %s", statements[1].cypher)
	}
	if !strings.Contains(statements[2].cypher, "MERGE (e:`Company` {name: node.name})") {
		t.Fatalf("unexpected entity cypher: %s", statements[2].cypher)
	}
	if !strings.Contains(statements[2].cypher, "MENTIONS") {
		t.Fatal("entity statement must link the article")
	}
	nodes := statements[3].params["nodes"].([]any)
	productProps := nodes[0].(map[string]any)["props"].(map[string]any)
	if _, ok := productProps["ignored"]; ok {
		t.Fatal("non scalar properties must be dropped")
	}

	rel := statements[4]
	if !strings.Contains(rel.cypher, "MATCH (s:`Company` {name: rel.source})") ||
		!strings.Contains(rel.cypher, "MATCH (t:`Product` {name: rel.target})") ||
		!strings.Contains(rel.cypher, "MERGE (s)-[r:`RELEASED`]->(t)") {
		t.Fatalf("unexpected relationship cypher: %s", rel.cypher)
	}
}

func TestGraphDocumentStatements_WithoutSource(t *testing.T) {
	statements, err := graphDocumentStatements(sampleDocument(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, st := range statements {
		if strings.Contains(st.cypher, "HAS_SOURCE") {
			t.Fatal("source statement must be skipped")
		}
	}
}

func TestGraphDocumentStatements_RejectsBadLabel(t *testing.T) {
	doc := sampleDocument()
	doc.Nodes = append(doc.Nodes, common.Node{ID: "x", Type: "Bad Label"})
	if _, err := graphDocumentStatements(doc, true); !errors.Is(err, store.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}

	doc = sampleDocument()
	doc.Relationships[0].Type = "DROP`"
	if _, err := graphDocumentStatements(doc, true); !errors.Is(err, store.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
}

func TestGraphDocumentStatements_MissingID(t *testing.T) {
	doc := sampleDocument()
	delete(doc.Source.Metadata, "id")
	if _, err := graphDocumentStatements(doc, true); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestGraphDocumentStatements_NamePropertyKeepsMergeKey(t *testing.T) {
	apple := common.Node{ID: "Apple", Type: "Company", Properties: map[string]any{"name": "Apple Inc.", "id": "AAPL", "industry": "Hardware"}}
	iphone := common.Node{ID: "iPhone 17", Type: "Product"}
	doc := common.GraphDocument{
		Nodes:         []common.Node{apple, iphone},
		Relationships: []common.Relationship{{Source: apple, Target: iphone, Type: "RELEASED"}},
		Source:        common.Document{PageContent: "Apple released the iPhone 17.", Metadata: map[string]any{"id": "tech_1"}},
	}

	statements, err := graphDocumentStatements(doc, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// article, Company, Product, RELEASED
	if len(statements) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(statements))
	}

	company := statements[1]
	if !strings.Contains(company.cypher, "SET e += node.props, e.name = node.name, e.id = node.name") {
		t.Fatalf("merge key must be set after the properties: %s", company.cypher)
	}
	node := company.params["nodes"].([]any)[0].(map[string]any)
	if node["name"] != "Apple" {
		t.Fatalf("unexpected merge name %v", node["name"])
	}
	props := node["props"].(map[string]any)
	if _, ok := props["name"]; ok {
		t.Fatalf("name property must not reach the node: %v", props)
	}
	if _, ok := props["id"]; ok {
		t.Fatalf("id property must not reach the node: %v", props)
	}
	if props["industry"] != "Hardware" {
		t.Fatalf("other properties must be kept: %v", props)
	}

	rels := statements[3].params["rels"].([]any)
	if rels[0].(map[string]any)["source"] != "Apple" {
		t.Fatalf("relationship must match the merged name, got %v", rels[0])
	}
}

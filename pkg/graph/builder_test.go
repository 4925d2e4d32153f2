package graph

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/OFFIS-RIT/newsgraph/internal/testutil"
	"github.com/OFFIS-RIT/newsgraph/pkg/common"
	"github.com/OFFIS-RIT/newsgraph/pkg/news"
)

// schemaSim tracks constraints and indexes the way Neo4j reports them.
type schemaSim struct {
	constraints map[string]bool
	indexes     map[string]string // name -> owning constraint, "" when none
	nextID      int
}

var createConstraintRe = regexp.MustCompile(`FOR \(n:` + "`" + `(\w+)` + "`" + `\) REQUIRE n\.` + "`" + `(\w+)` + "`")

func newSchemaSim() *schemaSim {
	return &schemaSim{
		constraints: map[string]bool{"stale_constraint": true},
		indexes: map[string]string{
			"stale_constraint":        "stale_constraint",
			"news_content_embeddings": "",
			"index_343aff4e":          "",
		},
	}
}

func (s *schemaSim) install(f *testutil.FakeGraphStore) {
	f.On("SHOW CONSTRAINTS", func(string, map[string]any) ([]map[string]any, error) {
		var rows []map[string]any
		for name := range s.constraints {
			rows = append(rows, map[string]any{"name": name})
		}
		return rows, nil
	})
	f.On("DROP CONSTRAINT", func(cypher string, _ map[string]any) ([]map[string]any, error) {
		name := between(cypher, "`", "`")
		delete(s.constraints, name)
		for idx, owner := range s.indexes {
			if owner == name {
				delete(s.indexes, idx)
			}
		}
		return nil, nil
	})
	f.On("SHOW INDEXES", func(string, map[string]any) ([]map[string]any, error) {
		var rows []map[string]any
		for name, owner := range s.indexes {
			row := map[string]any{"name": name, "owningConstraint": nil}
			if owner != "" {
				row["owningConstraint"] = owner
			}
			rows = append(rows, row)
		}
		return rows, nil
	})
	f.On("DROP INDEX", func(cypher string, _ map[string]any) ([]map[string]any, error) {
		delete(s.indexes, between(cypher, "`", "`"))
		return nil, nil
	})
	f.On("CREATE CONSTRAINT", func(cypher string, _ map[string]any) ([]map[string]any, error) {
		m := createConstraintRe.FindStringSubmatch(cypher)
		if m == nil {
			return nil, errors.New("unexpected constraint statement: " + cypher)
		}
		name := "constraint_" + m[1] + "_" + m[2]
		s.constraints[name] = true
		s.indexes[name] = name
		return nil, nil
	})
}

func between(s, open, close string) string {
	i := strings.Index(s, open)
	if i < 0 {
		return ""
	}
	rest := s[i+len(open):]
	j := strings.Index(rest, close)
	if j < 0 {
		return ""
	}
	return rest[:j]
}

func TestResetThenConstraints(t *testing.T) {
	sim := newSchemaSim()
	fake := &testutil.FakeGraphStore{}
	sim.install(fake)

	b := NewBuilder(fake, nil, DefaultSchema)
	ctx := context.Background()
	if err := b.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if len(fake.QueriesContaining("DETACH DELETE")) != 1 {
		t.Fatal("expected nodes to be deleted")
	}
	if len(sim.constraints) != 0 || len(sim.indexes) != 0 {
		t.Fatalf("reset left constraints=%v indexes=%v", sim.constraints, sim.indexes)
	}

	if err := b.CreateConstraints(ctx); err != nil {
		t.Fatalf("CreateConstraints() error = %v", err)
	}
	if len(sim.constraints) != 6 {
		t.Fatalf("expected 6 constraints, got %d", len(sim.constraints))
	}
	for _, want := range []string{"NewsArticle_id", "Company_name", "Product_name", "Technology_name", "Person_name", "Science_name"} {
		if !sim.constraints["constraint_"+want] {
			t.Fatalf("missing constraint %s", want)
		}
	}
	for name, owner := range sim.indexes {
		if owner == "" {
			t.Fatalf("index %s is not owned by a constraint", name)
		}
	}
}

func TestReset_AbortsOnFailure(t *testing.T) {
	fake := (&testutil.FakeGraphStore{}).
		On("SHOW CONSTRAINTS", testutil.Rows(map[string]any{"name": "c1"})).
		On("DROP CONSTRAINT", testutil.Fail(errors.New("boom")))

	err := NewBuilder(fake, nil, DefaultSchema).Reset(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if len(fake.QueriesContaining("SHOW INDEXES")) != 0 {
		t.Fatal("reset must stop at the first failure")
	}
}

type staticConverter struct {
	docs []common.GraphDocument
	got  []common.Document
}

func (c *staticConverter) ConvertToGraphDocuments(_ context.Context, docs []common.Document) ([]common.GraphDocument, error) {
	c.got = docs
	return c.docs, nil
}

func TestBuild_WritesEveryDocument(t *testing.T) {
	articles := []news.Article{
		{ID: "tech_0", Title: "OpenAI ships GPT-5 - Wire", Source: "Wire", Author: "Unknown", Date: "2025-08-07", Content: "OpenAI ships GPT-5"},
		{ID: "sci_0", Title: "Quantum error correction", Source: "Science", Author: "A", Date: "2025-08-08", Content: "Researchers..."},
	}
	docs := DocumentsFromArticles(articles)
	openai := common.Node{ID: "OpenAI", Type: "Company"}
	gpt := common.Node{ID: "GPT-5", Type: "Product"}
	conv := &staticConverter{docs: []common.GraphDocument{
		{Nodes: []common.Node{openai, gpt}, Relationships: []common.Relationship{{Source: openai, Target: gpt, Type: "RELEASED"}}, Source: docs[0]},
		{Source: docs[1]},
	}}
	fake := &testutil.FakeGraphStore{}

	report, err := NewBuilder(fake, conv, DefaultSchema).Build(context.Background(), articles)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if report != (BuildReport{Documents: 2, Nodes: 2, Relationships: 1}) {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(fake.Documents) != 2 {
		t.Fatalf("expected 2 written documents, got %d", len(fake.Documents))
	}
	if conv.got[0].PageContent != "OpenAI ships GPT-5" || conv.got[0].MetadataString("title") != "OpenAI ships GPT-5 - Wire" {
		t.Fatalf("unexpected converter input %+v", conv.got[0])
	}
	if conv.got[1].MetadataString("id") != "sci_0" {
		t.Fatalf("unexpected id %v", conv.got[1].Metadata["id"])
	}
}

func TestBuild_StopsAtFirstWriteError(t *testing.T) {
	docs := DocumentsFromArticles([]news.Article{{ID: "tech_0"}, {ID: "tech_1"}})
	conv := &staticConverter{docs: []common.GraphDocument{{Source: docs[0]}, {Source: docs[1]}}}
	fake := &testutil.FakeGraphStore{AddErr: errors.New("write failed")}

	if _, err := NewBuilder(fake, conv, DefaultSchema).Build(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
}

package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/newsgraph/pkg/ai"
	"github.com/OFFIS-RIT/newsgraph/pkg/common"
	"github.com/OFFIS-RIT/newsgraph/pkg/logger"
)

type extractProperty struct {
	Key   string `json:"key" jsonschema_description:"One of the allowed property keys"`
	Value string `json:"value" jsonschema_description:"Value of the property as stated in the article"`
}

type extractNode struct {
	ID         string            `json:"id" jsonschema_description:"Name of the entity as written in the article"`
	Type       string            `json:"type" jsonschema_description:"One of the allowed node labels"`
	Properties []extractProperty `json:"properties" jsonschema_description:"Allowed properties stated in the article"`
}

type extractRelationship struct {
	SourceID   string `json:"source_id" jsonschema_description:"Id of the source node"`
	SourceType string `json:"source_type" jsonschema_description:"Label of the source node"`
	TargetID   string `json:"target_id" jsonschema_description:"Id of the target node"`
	TargetType string `json:"target_type" jsonschema_description:"Label of the target node"`
	Type       string `json:"type" jsonschema_description:"One of the allowed relationship types"`
}

type extractResponse struct {
	Nodes         []extractNode         `json:"nodes" jsonschema_description:"Entities mentioned in the article"`
	Relationships []extractRelationship `json:"relationships" jsonschema_description:"Relationships between the extracted entities"`
}

// Extractor turns documents into graph documents with a language model.
type Extractor struct {
	client ai.GraphAIClient
	schema Schema
	// Strict drops everything outside the schema. Without it, unknown labels
	// and relationship types are kept, folded into identifier form.
	Strict bool
}

// NewExtractor creates a strict extractor for schema.
func NewExtractor(client ai.GraphAIClient, schema Schema) *Extractor {
	return &Extractor{client: client, schema: schema, Strict: true}
}

func (e *Extractor) prompt(text string) string {
	triples := make([]string, 0, len(e.schema.Relationships))
	for _, t := range e.schema.Relationships {
		triples = append(triples, fmt.Sprintf("- %s", t))
	}
	return fmt.Sprintf(
		ai.ExtractionPrompt,
		strings.Join(e.schema.Nodes, ", "),
		strings.Join(triples, "\n"),
		strings.Join(e.schema.Properties, ", "),
		text,
	)
}

// ConvertToGraphDocuments extracts every document in order, one model call
// per document. The first failure aborts.
func (e *Extractor) ConvertToGraphDocuments(ctx context.Context, docs []common.Document) ([]common.GraphDocument, error) {
	out := make([]common.GraphDocument, 0, len(docs))
	for _, doc := range docs {
		gd, err := e.ProcessDocument(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", doc.MetadataString("id"), err)
		}
		out = append(out, gd)
	}
	return out, nil
}

// ProcessDocument extracts a single document.
func (e *Extractor) ProcessDocument(ctx context.Context, doc common.Document) (common.GraphDocument, error) {
	var res extractResponse
	err := e.client.GenerateCompletionWithFormat(
		ctx,
		"extract_knowledge_graph",
		"Extract entities and relationships from a news article.",
		e.prompt(doc.PageContent),
		&res,
		ai.WithTemperature(0),
	)
	if err != nil {
		return common.GraphDocument{}, err
	}
	return e.toGraphDocument(res, doc), nil
}

func (e *Extractor) toGraphDocument(res extractResponse, doc common.Document) common.GraphDocument {
	gd := common.GraphDocument{Source: doc}

	type nodeKey struct{ id, label string }
	nodes := map[nodeKey]int{}
	for _, n := range res.Nodes {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			continue
		}
		label, ok := e.schema.label(n.Type)
		if !ok {
			if e.Strict {
				logger.Debug("[Extract] Dropping node with unknown label", "id", id, "type", n.Type)
				continue
			}
			if label = nodeLabel(n.Type); label == "" {
				logger.Debug("[Extract] Dropping node with unusable label", "id", id, "type", n.Type)
				continue
			}
		}

		props := map[string]any{}
		for _, p := range n.Properties {
			key := strings.TrimSpace(p.Key)
			value := strings.TrimSpace(p.Value)
			if key == "" || value == "" {
				continue
			}
			if e.Strict && !e.schema.property(key) {
				continue
			}
			props[key] = value
		}

		k := nodeKey{id, label}
		if idx, seen := nodes[k]; seen {
			for pk, pv := range props {
				gd.Nodes[idx].Properties[pk] = pv
			}
			continue
		}
		nodes[k] = len(gd.Nodes)
		gd.Nodes = append(gd.Nodes, common.Node{ID: id, Type: label, Properties: props})
	}

	seenRel := map[string]struct{}{}
	for _, r := range res.Relationships {
		srcLabel, okSrc := e.schema.label(r.SourceType)
		if !okSrc {
			srcLabel = nodeLabel(r.SourceType)
		}
		tgtLabel, okTgt := e.schema.label(r.TargetType)
		if !okTgt {
			tgtLabel = nodeLabel(r.TargetType)
		}
		relType := relationshipType(r.Type)
		if relType == "" || (relType[0] >= '0' && relType[0] <= '9') {
			continue
		}
		if e.Strict && !e.schema.relationship(srcLabel, relType, tgtLabel) {
			logger.Debug("[Extract] Dropping relationship outside schema", "source", r.SourceID, "type", r.Type, "target", r.TargetID)
			continue
		}

		srcIdx, okS := nodes[nodeKey{strings.TrimSpace(r.SourceID), srcLabel}]
		tgtIdx, okT := nodes[nodeKey{strings.TrimSpace(r.TargetID), tgtLabel}]
		if !okS || !okT {
			continue
		}

		key := fmt.Sprintf("%d|%s|%d", srcIdx, relType, tgtIdx)
		if _, dup := seenRel[key]; dup {
			continue
		}
		seenRel[key] = struct{}{}

		gd.Relationships = append(gd.Relationships, common.Relationship{
			Source: gd.Nodes[srcIdx],
			Target: gd.Nodes[tgtIdx],
			Type:   relType,
		})
	}

	return gd
}

package common

// Document is a unit of text with flat metadata. It is what the graph builder
// sends to extraction and what similarity search returns.
type Document struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata"`
}

// MetadataString returns Metadata[key] when it is a non-empty string.
func (d Document) MetadataString(key string) string {
	if d.Metadata == nil {
		return ""
	}
	s, _ := d.Metadata[key].(string)
	return s
}

// Node is an extracted entity. ID is the entity name as it appears in the
// text; Type is its graph label.
//
// A node contains:
//   - ID: human readable name, unique within its Type
//   - Type: one of the allowed entity labels (Company, Product, ...)
//   - Properties: allowed attributes such as industry or version
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Relationship is a directed, typed edge between two extracted nodes.
type Relationship struct {
	Source     Node           `json:"source"`
	Target     Node           `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
}

// GraphDocument is the extraction result for one source document.
type GraphDocument struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
	Source        Document       `json:"source"`
}

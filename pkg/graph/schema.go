package graph

import (
	"fmt"
	"strings"
)

// Triple is an allowed (source label)-[type]->(target label) combination.
type Triple struct {
	Source string
	Type   string
	Target string
}

func (t Triple) String() string {
	return fmt.Sprintf("(%s)-[:%s]->(%s)", t.Source, t.Type, t.Target)
}

// Schema restricts what extraction may produce.
type Schema struct {
	Nodes         []string
	Relationships []Triple
	Properties    []string
}

// DefaultSchema is the technology news schema.
var DefaultSchema = Schema{
	Nodes: []string{"Company", "Product", "Technology", "Person", "Science"},
	Relationships: []Triple{
		{Source: "Company", Type: "RELEASED", Target: "Product"},
		{Source: "Company", Type: "DEVELOPED", Target: "Technology"},
		{Source: "Product", Type: "USES", Target: "Technology"},
		{Source: "Technology", Type: "RELATED_TO", Target: "Science"},
	},
	Properties: []string{"industry", "version", "releaseDate", "category", "name"},
}

// ArticleLabel is the label of article nodes.
const ArticleLabel = "NewsArticle"

// UniqueConstraint is one uniqueness constraint created after a reset.
type UniqueConstraint struct {
	Label    string
	Property string
}

// Constraints returns the uniqueness constraints for s: article id plus
// name for every entity label.
func (s Schema) Constraints() []UniqueConstraint {
	out := []UniqueConstraint{{Label: ArticleLabel, Property: "id"}}
	for _, label := range s.Nodes {
		out = append(out, UniqueConstraint{Label: label, Property: "name"})
	}
	return out
}

// label maps a model supplied label onto the allowed spelling. The match is
// case-insensitive and ignores spaces and underscores.
func (s Schema) label(raw string) (string, bool) {
	key := labelKey(raw)
	for _, l := range s.Nodes {
		if labelKey(l) == key {
			return l, true
		}
	}
	return "", false
}

func (s Schema) relationship(source, relType, target string) bool {
	for _, t := range s.Relationships {
		if t.Source == source && t.Type == relType && t.Target == target {
			return true
		}
	}
	return false
}

func (s Schema) property(key string) bool {
	for _, p := range s.Properties {
		if p == key {
			return true
		}
	}
	return false
}

func labelKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, " ", "")
}

// relationshipType normalizes "related to" or "relatedTo" style types to
// RELATED_TO.
func relationshipType(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	prevLower := false
	for _, r := range raw {
		switch {
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
			prevLower = false
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteRune('_')
			}
			b.WriteRune(r)
			prevLower = false
		case isAlnum(r):
			b.WriteString(strings.ToUpper(string(r)))
			prevLower = r >= 'a' && r <= 'z'
		}
	}
	return b.String()
}

// nodeLabel folds a free-form label such as "research lab" into an
// identifier like ResearchLab. It returns "" when nothing usable remains.
func nodeLabel(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool { return !isAlnum(r) })
	var b strings.Builder
	for _, w := range words {
		r := []rune(w)
		b.WriteString(strings.ToUpper(string(r[0])))
		b.WriteString(string(r[1:]))
	}
	label := b.String()
	if label == "" || (label[0] >= '0' && label[0] <= '9') {
		return ""
	}
	return label
}

// isAlnum reports ASCII letters and digits, the characters Cypher accepts in
// an unquoted identifier.
func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

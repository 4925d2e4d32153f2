package ai

// ExtractionPrompt asks the model to turn one news article into typed nodes
// and relationships. Placeholders in order: allowed node labels, allowed
// relationship triples, allowed node properties, article text.
const ExtractionPrompt = `
# Task Context
You are a top-tier algorithm designed for extracting information in structured formats to build a knowledge graph from technology and science news.

# Background Data
Allowed node labels:
%s

Allowed relationships (source label, relationship type, target label):
%s

Allowed node properties:
%s

# Detailed Task Description & Rules
- Extract only entities that are explicitly mentioned in the article.
- Every node must use exactly one of the allowed node labels. Skip entities that fit none of them.
- Use the most complete human-readable name of the entity as the node id (e.g., "OpenAI", "GPT-4.1"). Never use integers or generated identifiers as ids.
- Relationships must use one of the allowed triples, in the given direction. Skip relationships that fit none of them.
- Source and target ids of a relationship must match the id of an extracted node.
- Only fill in properties from the allowed list when the article states the value. Leave everything else out.
- Keep entity references consistent: if an entity is mentioned several times under different names, always use the same id.

# Immediate Task Description or Request
Extract the knowledge graph of the following article:

%s

# Output Formatting
Return a JSON object with this structure:
{
  "nodes": [
    {"id": "<entity name>", "type": "<allowed label>", "properties": [{"key": "<allowed property>", "value": "<value>"}]}
  ],
  "relationships": [
    {"source_id": "<node id>", "source_type": "<label>", "target_id": "<node id>", "target_type": "<label>", "type": "<relationship type>"}
  ]
}
`

// AnswerPrompt is the instruction template for answering a question from the
// assembled document and graph context. Placeholders: context, question.
const AnswerPrompt = `
You are an expert AI assistant with knowledge about recent technology news.
Based on the provided news article content and knowledge graph information, answer the question accurately.

Knowledge graph shows relationships between technology, products, companies, people mentioned in news articles.
Use this relationship information to provide more detailed and accurate answers.

For information not found in news articles or knowledge graph, answer honestly that you don't know.
Answer should be concise and clear, but include all important details.

Reference information:
%s

Question: %s

Answer:
`

package query

import (
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventConsideredSourceIDs TraceEventKind = "considered_source_ids"
	TraceEventUsedSourceIDs       TraceEventKind = "used_source_ids"
	TraceEventQueriedEntities     TraceEventKind = "queried_entities"
	TraceEventQueriedEntityTypes  TraceEventKind = "queried_entity_types"
)

// TraceEvent is one observation made while building the answer context.
type TraceEvent struct {
	Kind TraceEventKind

	SourceIDs   []string
	Entities    []string
	EntityTypes []string
}

// Tracer is a sink for query tracing events.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func RecordConsideredSourceIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventConsideredSourceIDs, SourceIDs: ids})
}

func RecordUsedSourceIDs(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventUsedSourceIDs, SourceIDs: ids})
}

func RecordQueriedEntities(t Tracer, ids ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventQueriedEntities, Entities: ids})
}

func RecordQueriedEntityTypes(t Tracer, types ...string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventQueriedEntityTypes, EntityTypes: types})
}

// QueryTrace collects which articles and entities a question touched.
//
// QueryTrace is safe for concurrent use.
type QueryTrace struct {
	mu sync.Mutex

	sets map[TraceEventKind]map[string]struct{}
}

type QueryTraceSnapshot struct {
	ConsideredSourceIDs []string `json:"considered_source_ids"`
	UsedSourceIDs       []string `json:"used_source_ids"`
	QueriedEntities     []string `json:"queried_entities"`
	QueriedEntityTypes  []string `json:"queried_entity_types"`
}

func NewQueryTrace() *QueryTrace {
	return &QueryTrace{sets: make(map[TraceEventKind]map[string]struct{})}
}

func (t *QueryTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	var values []string
	switch event.Kind {
	case TraceEventConsideredSourceIDs, TraceEventUsedSourceIDs:
		values = event.SourceIDs
	case TraceEventQueriedEntities:
		values = event.Entities
	case TraceEventQueriedEntityTypes:
		values = event.EntityTypes
	default:
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	set, ok := t.sets[event.Kind]
	if !ok {
		set = make(map[string]struct{})
		t.sets[event.Kind] = set
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
}

func (t *QueryTrace) sorted(kind TraceEventKind) []string {
	out := make([]string, 0, len(t.sets[kind]))
	for v := range t.sets[kind] {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (t *QueryTrace) Snapshot() QueryTraceSnapshot {
	if t == nil {
		return QueryTraceSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return QueryTraceSnapshot{
		ConsideredSourceIDs: t.sorted(TraceEventConsideredSourceIDs),
		UsedSourceIDs:       t.sorted(TraceEventUsedSourceIDs),
		QueriedEntities:     t.sorted(TraceEventQueriedEntities),
		QueriedEntityTypes:  t.sorted(TraceEventQueriedEntityTypes),
	}
}

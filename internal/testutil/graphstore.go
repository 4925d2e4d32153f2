package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/newsgraph/pkg/common"
)

// QueryCall records one call to FakeGraphStore.Query.
type QueryCall struct {
	Cypher string
	Params map[string]any
}

// QueryHandler answers a query. Handlers are matched by substring of the
// Cypher text in registration order.
type QueryHandler func(cypher string, params map[string]any) ([]map[string]any, error)

type route struct {
	contains string
	handler  QueryHandler
}

// FakeGraphStore is an in-memory store.GraphStore for tests.
type FakeGraphStore struct {
	mu        sync.Mutex
	routes    []route
	Queries   []QueryCall
	Documents []common.GraphDocument
	AddErr    error
	Closed    bool
}

// On registers handler for queries whose Cypher contains substr.
func (f *FakeGraphStore) On(substr string, handler QueryHandler) *FakeGraphStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route{contains: substr, handler: handler})
	return f
}

// Rows is a QueryHandler that always returns rows.
func Rows(rows ...map[string]any) QueryHandler {
	return func(string, map[string]any) ([]map[string]any, error) {
		return rows, nil
	}
}

// Fail is a QueryHandler that always returns err.
func Fail(err error) QueryHandler {
	return func(string, map[string]any) ([]map[string]any, error) {
		return nil, err
	}
}

func (f *FakeGraphStore) Query(_ context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	f.mu.Lock()
	f.Queries = append(f.Queries, QueryCall{Cypher: cypher, Params: params})
	routes := append([]route(nil), f.routes...)
	f.mu.Unlock()

	for _, r := range routes {
		if strings.Contains(cypher, r.contains) {
			return r.handler(cypher, params)
		}
	}
	return nil, nil
}

func (f *FakeGraphStore) AddGraphDocument(_ context.Context, doc common.GraphDocument, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddErr != nil {
		return f.AddErr
	}
	f.Documents = append(f.Documents, doc)
	return nil
}

func (f *FakeGraphStore) Close(context.Context) error {
	f.Closed = true
	return nil
}

// QueriesContaining returns the recorded queries whose Cypher contains substr.
func (f *FakeGraphStore) QueriesContaining(substr string) []QueryCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []QueryCall
	for _, q := range f.Queries {
		if strings.Contains(q.Cypher, substr) {
			out = append(out, q)
		}
	}
	return out
}

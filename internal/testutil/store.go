package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/execos/execos/internal/platform"
)

// FakeStore is an in-memory document store for tests. It mimics the
// platform document API: documents are flat JSON objects carrying an
// "id" field, list filters match on string equality, and registered
// unique indexes reject duplicates with a conflict error.
type FakeStore struct {
	mu          sync.Mutex
	collections map[string][]map[string]any
	uniques     map[string][][]string
	failures    map[string]error
}

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		collections: make(map[string][]map[string]any),
		uniques:     make(map[string][][]string),
		failures:    make(map[string]error),
	}
}

// AddUniqueIndex makes Create reject a document that matches an
// existing document on all the given fields.
func (f *FakeStore) AddUniqueIndex(collection string, fields ...string) {
	f.mu.Lock()
	f.uniques[collection] = append(f.uniques[collection], fields)
	f.mu.Unlock()
}

// FailWith makes every op ("create", "get", "update", "list") against
// collection return err until cleared with a nil err.
func (f *FakeStore) FailWith(op, collection string, err error) {
	f.mu.Lock()
	key := op + "/" + collection
	if err == nil {
		delete(f.failures, key)
	} else {
		f.failures[key] = err
	}
	f.mu.Unlock()
}

// Count returns how many documents a collection holds.
func (f *FakeStore) Count(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.collections[collection])
}

// Documents decodes every document in a collection into out, which
// must be a pointer to a slice. Insertion order is preserved.
func (f *FakeStore) Documents(collection string, out any) error {
	f.mu.Lock()
	docs := f.collections[collection]
	data, err := json.Marshal(docs)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// MustCreate inserts a document and fails the test on error.
func (f *FakeStore) MustCreate(t testing.TB, collection string, document any) {
	t.Helper()
	if err := f.Create(context.Background(), collection, document); err != nil {
		t.Fatalf("failed to seed %s: %v", collection, err)
	}
}

// Create implements the document store create call.
func (f *FakeStore) Create(ctx context.Context, collection string, document any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures["create/"+collection]; err != nil {
		return err
	}

	doc, err := toDocument(document)
	if err != nil {
		return err
	}

	id, _ := doc["id"].(string)
	if id == "" {
		return &platform.APIError{Status: http.StatusBadRequest, Code: "missing_id", Message: "document id is required"}
	}

	for _, existing := range f.collections[collection] {
		if existing["id"] == id {
			return &platform.APIError{Status: http.StatusConflict, Code: "duplicate_id", Message: "document id already exists"}
		}
	}
	for _, fields := range f.uniques[collection] {
		for _, existing := range f.collections[collection] {
			if matchesAll(existing, doc, fields) {
				return &platform.APIError{
					Status:  http.StatusConflict,
					Code:    "unique_violation",
					Message: fmt.Sprintf("unique index on (%s) violated", strings.Join(fields, ", ")),
				}
			}
		}
	}

	f.collections[collection] = append(f.collections[collection], doc)
	return nil
}

// Get implements the document store get call.
func (f *FakeStore) Get(ctx context.Context, collection, id string, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures["get/"+collection]; err != nil {
		return err
	}

	for _, doc := range f.collections[collection] {
		if doc["id"] == id {
			return fromDocument(doc, out)
		}
	}
	return notFound(id)
}

// Update implements the document store partial update call.
func (f *FakeStore) Update(ctx context.Context, collection, id string, patch any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures["update/"+collection]; err != nil {
		return err
	}

	fields, err := toDocument(patch)
	if err != nil {
		return err
	}

	for _, doc := range f.collections[collection] {
		if doc["id"] == id {
			for k, v := range fields {
				if k == "id" {
					continue
				}
				doc[k] = v
			}
			return nil
		}
	}
	return notFound(id)
}

// List implements the document store list call.
func (f *FakeStore) List(ctx context.Context, collection string, q platform.Query, out any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.failures["list/"+collection]; err != nil {
		return err
	}

	var matched []map[string]any
	for _, doc := range f.collections[collection] {
		ok := true
		for _, filter := range q.Filters {
			if stringValue(doc[filter.Field]) != filter.Value {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, doc)
		}
	}

	if q.Sort != "" {
		field := q.Sort
		desc := strings.HasPrefix(field, "-")
		if desc {
			field = field[1:]
		}
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := stringValue(matched[i][field]), stringValue(matched[j][field])
			if desc {
				return a > b
			}
			return a < b
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	data, err := json.Marshal(matched)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func notFound(id string) error {
	return &platform.APIError{
		Status:  http.StatusNotFound,
		Code:    "document_not_found",
		Message: fmt.Sprintf("document %s not found", id),
	}
}

// toDocument round-trips a value through JSON into a generic map, the
// same shape the platform stores.
func toDocument(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

func fromDocument(doc map[string]any, out any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func matchesAll(a, b map[string]any, fields []string) bool {
	for _, field := range fields {
		if stringValue(a[field]) != stringValue(b[field]) {
			return false
		}
	}
	return true
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

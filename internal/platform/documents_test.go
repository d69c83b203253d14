package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

type testDoc struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestQuery_Encode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{
			"empty",
			Query{},
			"",
		},
		{
			"single filter",
			Query{Filters: []Filter{{Field: "projectId", Value: "p1"}}},
			"filter=projectId%3Ap1",
		},
		{
			"filters sort and limit",
			Query{
				Filters: []Filter{{Field: "projectId", Value: "p1"}, {Field: "userId", Value: "u1"}},
				Sort:    "-createdAt",
				Limit:   100,
			},
			"filter=projectId%3Ap1&filter=userId%3Au1&limit=100&sort=-createdAt",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.query.encode().Encode(); got != tt.want {
				t.Errorf("encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDatabases_Create(t *testing.T) {
	t.Parallel()

	var gotPath, gotMethod string
	var gotBody []byte
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	db := NewDatabases(client)
	doc := testDoc{ID: "doc-1", Name: "hello"}
	if err := db.Create(context.Background(), "projects", doc); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotPath != "/v1/collections/projects/documents" {
		t.Errorf("path = %s, want /v1/collections/projects/documents", gotPath)
	}

	var sent testDoc
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("failed to decode sent body: %v", err)
	}
	if sent != doc {
		t.Errorf("sent document = %+v, want %+v", sent, doc)
	}
}

func TestDatabases_Get(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/collections/projects/documents/doc-1" {
			t.Errorf("path = %s, want document path", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"document": testDoc{ID: "doc-1", Name: "hello"},
		})
	})

	db := NewDatabases(client)
	var got testDoc
	if err := db.Get(context.Background(), "projects", "doc-1", &got); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != "doc-1" || got.Name != "hello" {
		t.Errorf("got %+v, want doc-1/hello", got)
	}
}

func TestDatabases_Get_EmptyEnvelope(t *testing.T) {
	t.Parallel()

	// A response without the document envelope must fail loudly, never
	// decode to a zero-value entity.
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	})

	db := NewDatabases(client)
	got := testDoc{ID: "stale", Name: "stale"}
	if err := db.Get(context.Background(), "projects", "doc-1", &got); err == nil {
		t.Fatal("expected error for missing document envelope, got nil")
	}
	if got.ID != "stale" {
		t.Errorf("out was written on failure: %+v", got)
	}
}

func TestDatabases_Get_IDMismatch(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"document": testDoc{ID: "doc-2", Name: "wrong one"},
		})
	})

	db := NewDatabases(client)
	var got testDoc
	if err := db.Get(context.Background(), "projects", "doc-1", &got); err == nil {
		t.Fatal("expected error for mismatched document id, got nil")
	}
}

func TestDatabases_Update(t *testing.T) {
	t.Parallel()

	var gotMethod string
	var gotBody []byte
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	db := NewDatabases(client)
	patch := map[string]string{"status": "done"}
	if err := db.Update(context.Background(), "tasks", "task-1", patch); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("method = %s, want PATCH", gotMethod)
	}

	var sent map[string]string
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("failed to decode sent body: %v", err)
	}
	if sent["status"] != "done" {
		t.Errorf("patch status = %q, want done", sent["status"])
	}
}

func TestDatabases_List(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sort"); got != "-createdAt" {
			t.Errorf("sort = %q, want -createdAt", got)
		}
		if got := r.URL.Query().Get("limit"); got != "2" {
			t.Errorf("limit = %q, want 2", got)
		}
		if got := r.URL.Query()["filter"]; len(got) != 1 || got[0] != "projectId:p1" {
			t.Errorf("filter = %v, want [projectId:p1]", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"documents": []testDoc{{ID: "a", Name: "first"}, {ID: "b", Name: "second"}},
			"total":     2,
		})
	})

	db := NewDatabases(client)
	q := Query{
		Filters: []Filter{{Field: "projectId", Value: "p1"}},
		Sort:    "-createdAt",
		Limit:   2,
	}

	var got []testDoc
	if err := db.List(context.Background(), "tasks", q, &got); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "b" {
		t.Errorf("documents out of order: %+v", got)
	}
}

func TestDatabases_List_Empty(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"documents": []testDoc{}, "total": 0})
	})

	db := NewDatabases(client)
	var got []testDoc
	if err := db.List(context.Background(), "tasks", Query{}, &got); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

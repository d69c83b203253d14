package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Databases provides typed access to the platform's document
// collections. Documents are flat JSON objects carrying their own id.
type Databases struct {
	client *Client
}

// NewDatabases creates a Databases service over the client.
func NewDatabases(c *Client) *Databases {
	return &Databases{client: c}
}

// Filter restricts a list to documents whose field equals value.
// Matching is string equality on the JSON representation.
type Filter struct {
	Field string
	Value string
}

// Query describes a document list request.
type Query struct {
	Filters []Filter
	// Sort names the field to order by; prefix with "-" for
	// descending. Empty means the store's default ordering.
	Sort  string
	Limit int
}

func (q Query) encode() url.Values {
	v := url.Values{}
	for _, f := range q.Filters {
		v.Add("filter", f.Field+":"+f.Value)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// Create inserts a document into a collection. The document must carry
// its own id field; the platform rejects duplicates of any unique
// index with a conflict error.
func (d *Databases) Create(ctx context.Context, collection string, document any) error {
	path := fmt.Sprintf("/v1/collections/%s/documents", url.PathEscape(collection))
	return d.client.do(ctx, "documents.create", http.MethodPost, path, nil, document, nil)
}

// Get fetches a single document by id and decodes it into out. The
// platform wraps the document in an envelope, mirroring List.
func (d *Databases) Get(ctx context.Context, collection, id string, out any) error {
	path := fmt.Sprintf("/v1/collections/%s/documents/%s", url.PathEscape(collection), url.PathEscape(id))

	var resp struct {
		Document json.RawMessage `json:"document"`
	}
	if err := d.client.do(ctx, "documents.get", http.MethodGet, path, nil, nil, &resp); err != nil {
		return err
	}
	if len(resp.Document) == 0 || string(resp.Document) == "null" {
		return fmt.Errorf("malformed response for %s/%s: document envelope is empty", collection, id)
	}

	// A response carrying the wrong document must not be mistaken for
	// the requested one.
	var meta struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Document, &meta); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	if meta.ID != id {
		return fmt.Errorf("response document id %q does not match requested %q", meta.ID, id)
	}

	if err := json.Unmarshal(resp.Document, out); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// Update applies a partial update to a document. Fields absent from
// the patch keep their stored values.
func (d *Databases) Update(ctx context.Context, collection, id string, patch any) error {
	path := fmt.Sprintf("/v1/collections/%s/documents/%s", url.PathEscape(collection), url.PathEscape(id))
	return d.client.do(ctx, "documents.update", http.MethodPatch, path, nil, patch, nil)
}

// List fetches documents matching the query and decodes them into out,
// which must be a pointer to a slice.
func (d *Databases) List(ctx context.Context, collection string, q Query, out any) error {
	path := fmt.Sprintf("/v1/collections/%s/documents", url.PathEscape(collection))

	var resp struct {
		Documents json.RawMessage `json:"documents"`
		Total     int             `json:"total"`
	}
	if err := d.client.do(ctx, "documents.list", http.MethodGet, path, q.encode(), nil, &resp); err != nil {
		return err
	}
	if len(resp.Documents) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Documents, out); err != nil {
		return fmt.Errorf("failed to decode documents: %w", err)
	}
	return nil
}

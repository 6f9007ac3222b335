// Package indextest runs an in-memory stand-in for the OpenSearch REST API
// covering the calls the index package makes.
package indextest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
)

const (
	Username = "rag"
	Password = "test-password"
)

// Cluster is a fake OpenSearch cluster behind an httptest server.
type Cluster struct {
	Server *httptest.Server

	// FailDelete makes deleting the named indices answer 500.
	FailDelete map[string]bool

	mu       sync.Mutex
	indices  map[string]*fakeIndex
	requests []string
}

type fakeIndex struct {
	body json.RawMessage
	docs map[string]json.RawMessage
}

// NewCluster starts a fake cluster and closes it when the test ends.
func NewCluster(t testing.TB) *Cluster {
	t.Helper()
	c := &Cluster{
		FailDelete: map[string]bool{},
		indices:    map[string]*fakeIndex{},
	}
	c.Server = httptest.NewServer(c)
	t.Cleanup(c.Server.Close)
	return c
}

// URL is the address to hand to the client.
func (c *Cluster) URL() string {
	return c.Server.URL
}

// AddIndex creates an empty index directly.
func (c *Cluster) AddIndex(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indices[name] = &fakeIndex{docs: map[string]json.RawMessage{}}
}

// PutDocument stores a document directly.
func (c *Cluster) PutDocument(index, id string, source any) {
	data, _ := json.Marshal(source)
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.indices[index]
	if !ok {
		idx = &fakeIndex{docs: map[string]json.RawMessage{}}
		c.indices[index] = idx
	}
	idx.docs[id] = data
}

// CreateBody returns the body an index was created with.
func (c *Cluster) CreateBody(index string) json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx, ok := c.indices[index]; ok {
		return idx.body
	}
	return nil
}

// Document returns a stored document source.
func (c *Cluster) Document(index, id string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.indices[index]
	if !ok {
		return nil, false
	}
	doc, ok := idx.docs[id]
	return doc, ok
}

// DocumentCount returns how many documents an index holds.
func (c *Cluster) DocumentCount(index string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx, ok := c.indices[index]; ok {
		return len(idx.docs)
	}
	return 0
}

// Indices returns the sorted index names.
func (c *Cluster) Indices() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.names()
}

// Requests returns "METHOD /path" for every API request except the root info call.
func (c *Cluster) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

func (c *Cluster) names() []string {
	names := make([]string, 0, len(c.indices))
	for name := range c.indices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeInfo answers the root endpoint the client may call before its first request.
func writeInfo(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cluster_name": "fake",
		"version":      map[string]any{"number": "2.13.0", "distribution": "opensearch"},
	})
}

func writeError(w http.ResponseWriter, status int, kind, reason string) {
	writeJSON(w, status, map[string]any{
		"error":  map[string]any{"type": kind, "reason": reason},
		"status": status,
	})
}

func (c *Cluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	if path == "" {
		writeInfo(w)
		return
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != Username || pass != Password {
		writeError(w, http.StatusUnauthorized, "security_exception", "missing authentication credentials")
		return
	}

	body, _ := io.ReadAll(r.Body)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, r.Method+" /"+path)

	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 2 && parts[0] == "*" && parts[1] == "_alias":
		out := map[string]any{}
		for _, name := range c.names() {
			out[name] = map[string]any{"aliases": map[string]any{}}
		}
		writeJSON(w, http.StatusOK, out)

	case len(parts) == 1:
		c.handleIndex(w, r, parts[0], body)

	case len(parts) >= 3 && parts[1] == "_doc":
		c.handleDocument(w, parts[0], parts[len(parts)-1], body)

	case len(parts) == 2:
		idx, ok := c.indices[parts[0]]
		if !ok {
			writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+parts[0]+"]")
			return
		}
		switch parts[1] {
		case "_stats":
			c.handleStats(w, parts[0], idx)
		case "_mapping":
			writeJSON(w, http.StatusOK, map[string]any{parts[0]: map[string]any{"mappings": mappingOf(idx.body)}})
		case "_search":
			handleSearch(w, idx, body)
		case "_refresh":
			writeJSON(w, http.StatusOK, map[string]any{"_shards": map[string]any{"failed": 0}})
		default:
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "unsupported endpoint "+parts[1])
		}

	default:
		writeError(w, http.StatusBadRequest, "illegal_argument_exception", "unsupported path "+path)
	}
}

func (c *Cluster) handleIndex(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	switch r.Method {
	case http.MethodPut:
		if _, exists := c.indices[name]; exists {
			writeError(w, http.StatusBadRequest, "resource_already_exists_exception", "index ["+name+"] already exists")
			return
		}
		c.indices[name] = &fakeIndex{body: body, docs: map[string]json.RawMessage{}}
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true, "shards_acknowledged": true, "index": name})
	case http.MethodDelete:
		if _, exists := c.indices[name]; !exists {
			writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]")
			return
		}
		if c.FailDelete[name] {
			writeError(w, http.StatusInternalServerError, "exception", "delete failed")
			return
		}
		delete(c.indices, name)
		writeJSON(w, http.StatusOK, map[string]any{"acknowledged": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "illegal_argument_exception", r.Method+" not allowed")
	}
}

func (c *Cluster) handleDocument(w http.ResponseWriter, index, id string, body []byte) {
	idx, ok := c.indices[index]
	if !ok {
		idx = &fakeIndex{docs: map[string]json.RawMessage{}}
		c.indices[index] = idx
	}
	result := "created"
	status := http.StatusCreated
	if _, exists := idx.docs[id]; exists {
		result = "updated"
		status = http.StatusOK
	}
	idx.docs[id] = body
	writeJSON(w, status, map[string]any{"_index": index, "_id": id, "result": result})
}

func (c *Cluster) handleStats(w http.ResponseWriter, name string, idx *fakeIndex) {
	size := 0
	for _, doc := range idx.docs {
		size += len(doc)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"indices": map[string]any{
			name: map[string]any{
				"total": map[string]any{
					"docs":  map[string]any{"count": len(idx.docs)},
					"store": map[string]any{"size_in_bytes": size},
				},
			},
		},
	})
}

func mappingOf(body json.RawMessage) any {
	var created struct {
		Mappings any `json:"mappings"`
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &created)
	}
	if created.Mappings == nil {
		return map[string]any{}
	}
	return created.Mappings
}

// handleSearch answers match_all with the first size documents by ID, and
// knn with the first k documents scored 1.0, 0.9, ... without their vectors.
func handleSearch(w http.ResponseWriter, idx *fakeIndex, body []byte) {
	var req struct {
		Size  int `json:"size"`
		Query struct {
			KNN map[string]struct {
				K int `json:"k"`
			} `json:"knn"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception", err.Error())
		return
	}

	ids := make([]string, 0, len(idx.docs))
	for id := range idx.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	limit := req.Size
	knn := len(req.Query.KNN) > 0
	for _, clause := range req.Query.KNN {
		limit = clause.K
	}
	if limit <= 0 || limit > len(ids) {
		limit = len(ids)
	}

	hits := make([]map[string]any, 0, limit)
	for i, id := range ids[:limit] {
		var source map[string]any
		_ = json.Unmarshal(idx.docs[id], &source)
		score := 1.0
		if knn {
			delete(source, "vector_field")
			score = 1.0 - float64(i)*0.1
		}
		hits = append(hits, map[string]any{"_id": id, "_score": score, "_source": source})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hits": map[string]any{
			"total": map[string]any{"value": len(ids)},
			"hits":  hits,
		},
	})
}

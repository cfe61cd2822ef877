package search

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/entigraph/entigest/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	// The v7.17 client refuses responses that do not identify the server
	// as Elasticsearch, and sends a one-time product-check request (GET /)
	// before the first API call; answer it here so per-test handlers only
	// see their own API requests.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		if r.Method == http.MethodGet && r.URL.Path == "/" {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"version":{"number":"7.17.10","build_flavor":"default"},"tagline":"You Know, for Search"}`)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := model.SearchConfig{Addresses: []string{server.URL}, Index: "entities"}
	client, err := NewClient(cfg, slog.Default())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestEnsureIndex_CreatesWithMapping(t *testing.T) {
	var captured []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		if r.URL.Path != "/entities" {
			t.Errorf("path = %s, want /entities", r.URL.Path)
		}
		captured, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"acknowledged":true,"index":"entities"}`)
	})

	if err := client.EnsureIndex(context.Background(), 3, 0); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}

	var mapping map[string]any
	if err := json.Unmarshal(captured, &mapping); err != nil {
		t.Fatalf("mapping body is not JSON: %v", err)
	}
	mappings := mapping["mappings"].(map[string]any)
	properties := mappings["properties"].(map[string]any)
	popularity := properties["popularity"].(map[string]any)
	if popularity["type"] != "rank_feature" {
		t.Errorf("popularity type = %v, want rank_feature", popularity["type"])
	}
	name := properties["name"].(map[string]any)
	if name["analyzer"] != "surface_form" {
		t.Errorf("name analyzer = %v, want surface_form", name["analyzer"])
	}
}

func TestEnsureIndex_ToleratesExisting(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"type":"resource_already_exists_exception"},"status":400}`)
	})

	if err := client.EnsureIndex(context.Background(), 3, 0); err != nil {
		t.Fatalf("EnsureIndex on existing index: %v", err)
	}
}

func TestEnsureIndex_SurfacesOtherFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"type":"cluster_block_exception"},"status":500}`)
	})

	if err := client.EnsureIndex(context.Background(), 3, 0); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestIndexItem_PushesEverySurfaceForm(t *testing.T) {
	var docs []Document
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var doc Document
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			t.Errorf("document body is not JSON: %v", err)
		}
		docs = append(docs, doc)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"result":"created"}`)
	})

	item := &model.ItemRecord{
		Entity:     "Q64",
		Labels:     map[string]string{"en": "Berlin"},
		Aliases:    map[string][]string{"en": {"Berlin, Germany"}},
		Types:      map[string][]string{"P31": {"Q515"}},
		Popularity: 5,
	}
	if err := client.IndexItem(context.Background(), item); err != nil {
		t.Fatalf("IndexItem: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("got %d indexed documents, want 2", len(docs))
	}
	names := []string{docs[0].Name, docs[1].Name}
	sort.Strings(names)
	if names[0] != "Berlin" || names[1] != "Berlin, Germany" {
		t.Errorf("indexed names = %v", names)
	}
	for _, doc := range docs {
		if doc.ID != "Q64" || doc.Popularity != 5 {
			t.Errorf("document = %+v", doc)
		}
	}
}

func TestIndexItem_SurfacesRefusal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"type":"unavailable_shards_exception"},"status":503}`)
	})

	item := &model.ItemRecord{Entity: "Q64", Labels: map[string]string{"en": "Berlin"}}
	if err := client.IndexItem(context.Background(), item); err == nil {
		t.Fatal("expected error on refused document")
	}
}

func TestDocuments_ExpandsSurfaceForms(t *testing.T) {
	item := &model.ItemRecord{
		Entity:      "Q42",
		Description: "English writer",
		Labels:      map[string]string{"en": "Douglas Adams", "de": "Douglas Adams"},
		Aliases:     map[string][]string{"en": {"Douglas Noel Adams", "Douglas Adams"}},
		Types:       map[string][]string{"P31": {"Q5"}},
		Popularity:  12,
	}

	docs := Documents(item)
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}

	names := []string{docs[0].Name, docs[1].Name}
	sort.Strings(names)
	want := []string{"Douglas Adams", "Douglas Noel Adams"}
	if names[0] != want[0] || names[1] != want[1] {
		t.Errorf("names = %v, want %v", names, want)
	}

	for _, doc := range docs {
		if doc.ID != "Q42" {
			t.Errorf("ID = %q, want Q42", doc.ID)
		}
		if doc.Types != "Q5" {
			t.Errorf("Types = %q, want Q5", doc.Types)
		}
		if doc.Popularity != 12 {
			t.Errorf("Popularity = %d, want 12", doc.Popularity)
		}
		if doc.Length != len(doc.Name) {
			t.Errorf("Length = %d, want %d", doc.Length, len(doc.Name))
		}
		if doc.NTokens < 2 {
			t.Errorf("NTokens = %d, want >= 2", doc.NTokens)
		}
	}
}

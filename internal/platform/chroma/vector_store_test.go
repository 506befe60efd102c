package chroma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/findmeajob/findmeajob-backend/internal/pkg/logger"
)

func testStore(t *testing.T, handler http.Handler) (VectorStore, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("CHROMA_BASE_URL", srv.URL)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	client, err := NewClient(log)
	if err != nil {
		t.Fatalf("init client: %v", err)
	}
	store, err := NewVectorStore(log, client)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return store, srv
}

func TestAddDocumentCreatesAgentCollection(t *testing.T) {
	var createdName string
	var addBody AddRequest
	creates := 0

	store, _ := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/collections" && r.Method == http.MethodPost:
			creates++
			var body struct {
				Name        string `json:"name"`
				GetOrCreate bool   `json:"get_or_create"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode create: %v", err)
			}
			if !body.GetOrCreate {
				t.Error("expected get_or_create request")
			}
			createdName = body.Name
			json.NewEncoder(w).Encode(Collection{ID: "col-1", Name: body.Name})
		case strings.HasSuffix(r.URL.Path, "/col-1/add"):
			if err := json.NewDecoder(r.Body).Decode(&addBody); err != nil {
				t.Errorf("decode add: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	}))

	ctx := context.Background()
	if err := store.AddDocument(ctx, 7, "vec-1", "the document body", map[string]any{"url": "https://example.com"}); err != nil {
		t.Fatalf("add document: %v", err)
	}
	if createdName != "agent_7_research" {
		t.Fatalf("collection name %q", createdName)
	}
	if len(addBody.IDs) != 1 || addBody.IDs[0] != "vec-1" {
		t.Fatalf("unexpected add ids %v", addBody.IDs)
	}

	// Second add must reuse the cached collection id.
	if err := store.AddDocument(ctx, 7, "vec-2", "another", nil); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if creates != 1 {
		t.Fatalf("expected 1 collection create, got %d", creates)
	}
}

func TestQueryDocumentsFlattensResults(t *testing.T) {
	store, _ := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/collections":
			json.NewEncoder(w).Encode(Collection{ID: "col-9", Name: "agent_9_research"})
		case strings.HasSuffix(r.URL.Path, "/col-9/query"):
			var req QueryRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode query: %v", err)
			}
			if req.NResults != 2 {
				t.Errorf("expected n_results 2, got %d", req.NResults)
			}
			json.NewEncoder(w).Encode(QueryResponse{
				IDs:       [][]string{{"v1", "v2"}},
				Documents: [][]string{{"doc one", "doc two"}},
				Metadatas: [][]map[string]any{{{"url": "https://a.example"}, {"url": "https://b.example"}}},
				Distances: [][]float64{{0.1, 0.4}},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	got, err := store.QueryDocuments(context.Background(), 9, "golang jobs", 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	if got[0].ID != "v1" || got[0].Document != "doc one" || got[0].Distance != 0.1 {
		t.Fatalf("unexpected first match %+v", got[0])
	}
	if got[1].Metadata["url"] != "https://b.example" {
		t.Fatalf("unexpected second metadata %v", got[1].Metadata)
	}
}

func TestQueryDocumentsEmptyQuery(t *testing.T) {
	store, _ := testStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	}))
	got, err := store.QueryDocuments(context.Background(), 1, "   ", 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no matches, got %d", len(got))
	}
}

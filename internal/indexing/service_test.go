package indexing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/index"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/metrics"
	"github.com/gcbaptista/go-position-search/model"
	"github.com/gcbaptista/go-position-search/store"
)

// Helper to create a basic IndexSettings for tests
func newTestSettings() *config.IndexSettings {
	settings := &config.IndexSettings{
		Name:             "test_index",
		SearchableFields: []string{"title", "description", "tags"},
		PositionFields:   []string{"title"},
		Similarity:       config.SimilarityPosition,
	}
	settings.ApplyDefaults()
	return settings
}

type testIndex struct {
	service  *Service
	invIdx   *index.InvertedIndex
	docStore *store.DocumentStore
	vectors  *index.TermVectors
}

func newTestIndex(t testing.TB, settings *config.IndexSettings, collector *metrics.Collector) testIndex {
	t.Helper()
	invIdx := index.NewInvertedIndex(settings)
	docStore := &store.DocumentStore{}
	vectors := index.NewTermVectors()
	s, err := NewService(invIdx, docStore, vectors, nil, collector)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return testIndex{service: s, invIdx: invIdx, docStore: docStore, vectors: vectors}
}

func TestNewService(t *testing.T) {
	t.Run("valid initialization", func(t *testing.T) {
		_, err := NewService(index.NewInvertedIndex(newTestSettings()), &store.DocumentStore{}, index.NewTermVectors(), nil, nil)
		if err != nil {
			t.Errorf("NewService() error = %v, wantErr nil", err)
		}
	})

	t.Run("nil inverted index", func(t *testing.T) {
		_, err := NewService(nil, &store.DocumentStore{}, index.NewTermVectors(), nil, nil)
		if err == nil {
			t.Error("NewService() with nil invertedIndex, wantErr, got nil")
		}
	})

	t.Run("nil document store", func(t *testing.T) {
		_, err := NewService(index.NewInvertedIndex(newTestSettings()), nil, index.NewTermVectors(), nil, nil)
		if err == nil {
			t.Error("NewService() with nil documentStore, wantErr, got nil")
		}
	})

	t.Run("nil term vectors", func(t *testing.T) {
		_, err := NewService(index.NewInvertedIndex(newTestSettings()), &store.DocumentStore{}, nil, nil, nil)
		if err == nil {
			t.Error("NewService() with nil termVectors, wantErr, got nil")
		}
	})

	t.Run("nil inverted index settings", func(t *testing.T) {
		_, err := NewService(&index.InvertedIndex{}, &store.DocumentStore{}, index.NewTermVectors(), nil, nil)
		if err == nil {
			t.Error("NewService() with nil invertedIndex.Settings, wantErr, got nil")
		}
	})

	t.Run("maps initialized if nil", func(t *testing.T) {
		invIdx := &index.InvertedIndex{Settings: newTestSettings()}
		docStore := &store.DocumentStore{}
		vectors := &index.TermVectors{}
		s, err := NewService(invIdx, docStore, vectors, nil, nil)
		if err != nil {
			t.Fatalf("NewService() error = %v", err)
		}
		if s.invertedIndex.Index == nil {
			t.Error("s.invertedIndex.Index was not initialized")
		}
		if s.documentStore.Docs == nil || s.documentStore.ExternalIDtoInternalID == nil {
			t.Error("document store maps were not initialized")
		}
		if s.termVectors.Docs == nil {
			t.Error("s.termVectors.Docs was not initialized")
		}
	})
}

func TestAddDocuments(t *testing.T) {
	ti := newTestIndex(t, newTestSettings(), nil)

	docs := []model.Document{
		{
			"documentID":  "matrix",
			"title":       "The Matrix",
			"description": "A hacker learns about the true nature of the matrix.",
			"tags":        []string{"sci-fi", "action"},
		},
		{
			"documentID":  "reloaded",
			"title":       "The Matrix Reloaded",
			"description": "Neo learns more.",
			"tags":        []interface{}{"sci-fi", "sequel", 3},
		},
	}
	if err := ti.service.AddDocuments(docs); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	if len(ti.docStore.Docs) != 2 {
		t.Errorf("Expected 2 documents in store, got %d", len(ti.docStore.Docs))
	}
	if ti.docStore.ExternalIDtoInternalID["matrix"] != 0 || ti.docStore.ExternalIDtoInternalID["reloaded"] != 1 {
		t.Errorf("External ID mapping incorrect: %v", ti.docStore.ExternalIDtoInternalID)
	}

	t.Run("postings carry frequencies and positions", func(t *testing.T) {
		want := index.PostingList{
			{DocID: 0, FieldName: "description", Score: 1, Positions: []int{9}},
			{DocID: 0, FieldName: "title", Score: 1, Positions: []int{1}},
			{DocID: 1, FieldName: "title", Score: 1, Positions: []int{1}},
		}
		if got := ti.invIdx.Index["matrix"]; !reflect.DeepEqual(got, want) {
			t.Errorf("Index[matrix] = %#v, want %#v", got, want)
		}

		want = index.PostingList{
			{DocID: 0, FieldName: "tags", Score: 1, Positions: []int{0}},
			{DocID: 1, FieldName: "tags", Score: 1, Positions: []int{0}},
		}
		if got := ti.invIdx.Index["sci"]; !reflect.DeepEqual(got, want) {
			t.Errorf("Index[sci] = %#v, want %#v", got, want)
		}
	})

	t.Run("position fields store first-position payloads", func(t *testing.T) {
		vector := ti.vectors.Docs[1]["title"]
		if vector.Length != 3 {
			t.Errorf("title length = %d, want 3", vector.Length)
		}
		for term, wantPos := range map[string]int{"the": 0, "matrix": 1, "reloaded": 2} {
			pos, err := index.DecodePosition(vector.Payloads[term])
			if err != nil {
				t.Fatalf("DecodePosition(%q) error = %v", term, err)
			}
			if pos != wantPos {
				t.Errorf("payload position of %q = %d, want %d", term, pos, wantPos)
			}
		}
	})

	t.Run("other fields store only their length", func(t *testing.T) {
		vector := ti.vectors.Docs[0]["description"]
		if vector.Length != 10 {
			t.Errorf("description length = %d, want 10", vector.Length)
		}
		if vector.Payloads != nil {
			t.Errorf("description payloads = %v, want nil", vector.Payloads)
		}
		// Only the string items of a mixed array are indexed
		if got := ti.vectors.Docs[1]["tags"].Length; got != 3 {
			t.Errorf("tags length = %d, want 3", got)
		}
	})

	t.Run("segment resolves first positions", func(t *testing.T) {
		seg := index.NewSegment(ti.invIdx, ti.vectors, ti.docStore.NextID)
		pos, err := seg.FirstPosition(0, "title", []byte("matrix"))
		if err != nil || pos != 1 {
			t.Errorf("FirstPosition() = %d, %v; want 1, nil", pos, err)
		}
		if _, err := seg.FirstPosition(0, "description", []byte("matrix")); !errors.Is(err, apperrors.ErrUnsupportedCapability) {
			t.Errorf("FirstPosition() on a non-position field error = %v, want ErrUnsupportedCapability", err)
		}
	})
}

func TestAddDocuments_Update(t *testing.T) {
	ti := newTestIndex(t, newTestSettings(), nil)

	if err := ti.service.AddDocuments([]model.Document{{"documentID": "doc", "title": "quick brown fox"}}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}
	generation := ti.vectors.Generation

	if err := ti.service.AddDocuments([]model.Document{{"documentID": "doc", "title": "lazy fox"}}); err != nil {
		t.Fatalf("AddDocuments() update error = %v", err)
	}

	if len(ti.docStore.Docs) != 1 || ti.docStore.NextID != 1 {
		t.Errorf("update should reuse the internal ID: docs=%d nextID=%d", len(ti.docStore.Docs), ti.docStore.NextID)
	}
	if _, ok := ti.invIdx.Index["quick"]; ok {
		t.Error("token 'quick' should have been removed by the update")
	}
	if got := ti.invIdx.Index["fox"]; len(got) != 1 || !reflect.DeepEqual(got[0].Positions, []int{1}) {
		t.Errorf("Index[fox] = %#v, want one entry at position 1", got)
	}
	if _, ok := ti.vectors.Docs[0]["title"].Payloads["brown"]; ok {
		t.Error("payload for 'brown' should have been removed by the update")
	}
	if ti.vectors.Generation <= generation {
		t.Errorf("generation = %d, want > %d", ti.vectors.Generation, generation)
	}
}

func TestAddDocuments_InvalidDocumentID(t *testing.T) {
	tests := []struct {
		name string
		doc  model.Document
	}{
		{"missing", model.Document{"title": "no id"}},
		{"not a string", model.Document{"documentID": 42, "title": "numeric id"}},
		{"whitespace", model.Document{"documentID": "   ", "title": "blank id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ti := newTestIndex(t, newTestSettings(), nil)
			err := ti.service.AddDocuments([]model.Document{tt.doc})
			if !errors.Is(err, apperrors.ErrInvalidInput) {
				t.Errorf("AddDocuments() error = %v, want ErrInvalidInput", err)
			}
			if len(ti.docStore.Docs) != 0 {
				t.Errorf("no document should be stored, got %d", len(ti.docStore.Docs))
			}
		})
	}
}

func TestAddDocuments_RecordsMetrics(t *testing.T) {
	collector := metrics.NewCollector(nil)
	ti := newTestIndex(t, newTestSettings(), collector)

	docs := make([]model.Document, 25)
	for i := range docs {
		docs[i] = model.Document{"documentID": fmt.Sprintf("doc_%d", i), "title": "fox"}
	}
	if err := ti.service.AddDocuments(docs); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	expected := `
# HELP position_documents_indexed_total Total number of documents indexed
# TYPE position_documents_indexed_total counter
position_documents_indexed_total{index="test_index"} 25
`
	if err := testutil.GatherAndCompare(collector.Registry(), strings.NewReader(expected), "position_documents_indexed_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestDeleteDocument(t *testing.T) {
	ti := newTestIndex(t, newTestSettings(), nil)
	docs := []model.Document{
		{"documentID": "a", "title": "fox and dog"},
		{"documentID": "b", "title": "dog"},
	}
	if err := ti.service.AddDocuments(docs); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	if err := ti.service.DeleteDocument("a"); err != nil {
		t.Fatalf("DeleteDocument() error = %v", err)
	}

	if _, ok := ti.invIdx.Index["fox"]; ok {
		t.Error("token 'fox' should be gone")
	}
	if got := ti.invIdx.Index["dog"]; len(got) != 1 || got[0].DocID != 1 {
		t.Errorf("Index[dog] = %#v, want only doc 1", got)
	}
	if _, ok := ti.vectors.Docs[0]; ok {
		t.Error("term vectors of doc 0 should be gone")
	}
	if _, ok := ti.docStore.ExternalIDtoInternalID["a"]; ok {
		t.Error("mapping for 'a' should be gone")
	}

	err := ti.service.DeleteDocument("a")
	if !errors.Is(err, apperrors.ErrDocumentNotFound) {
		t.Errorf("DeleteDocument() twice error = %v, want ErrDocumentNotFound", err)
	}
}

func TestDeleteAllDocuments(t *testing.T) {
	ti := newTestIndex(t, newTestSettings(), nil)
	if err := ti.service.AddDocuments([]model.Document{{"documentID": "a", "title": "fox"}}); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}
	generation := ti.vectors.Generation

	if err := ti.service.DeleteAllDocuments(); err != nil {
		t.Fatalf("DeleteAllDocuments() error = %v", err)
	}

	if len(ti.docStore.Docs) != 0 || len(ti.docStore.ExternalIDtoInternalID) != 0 || ti.docStore.NextID != 0 {
		t.Error("document store was not cleared")
	}
	if len(ti.invIdx.Index) != 0 {
		t.Errorf("inverted index was not cleared: %v", ti.invIdx.Index)
	}
	if len(ti.vectors.Docs) != 0 || ti.vectors.Generation <= generation {
		t.Error("term vectors were not reset")
	}
}

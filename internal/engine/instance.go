package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/index"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/indexing"
	"github.com/gcbaptista/go-position-search/internal/metrics"
	"github.com/gcbaptista/go-position-search/internal/search"
	"github.com/gcbaptista/go-position-search/model"
	"github.com/gcbaptista/go-position-search/services"
	"github.com/gcbaptista/go-position-search/store"
)

// IndexInstance holds all components and services for a single search index.
// It implements the services.IndexAccessor interface.
type IndexInstance struct {
	settings      *config.IndexSettings
	InvertedIndex *index.InvertedIndex
	DocumentStore *store.DocumentStore
	TermVectors   *index.TermVectors
	indexer       *indexing.Service
	searcher      *search.Service
}

// NewIndexInstance creates an empty IndexInstance. logger and collector may be nil.
func NewIndexInstance(settings config.IndexSettings, logger *zap.Logger, collector *metrics.Collector) (*IndexInstance, error) {
	return newIndexInstance(&settings, index.NewInvertedIndex(&settings), store.NewDocumentStore(), index.NewTermVectors(), logger, collector)
}

// newIndexInstance wires the services of an index around existing, possibly loaded, stores.
func newIndexInstance(settings *config.IndexSettings, invIndex *index.InvertedIndex, docStore *store.DocumentStore, vectors *index.TermVectors, logger *zap.Logger, collector *metrics.Collector) (*IndexInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("index name cannot be empty in settings")
	}
	invIndex.Settings = settings

	indexerService, err := indexing.NewService(invIndex, docStore, vectors, logger, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}
	searchService, err := search.NewService(invIndex, docStore, vectors, settings, logger, collector)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &IndexInstance{
		settings:      settings,
		InvertedIndex: invIndex,
		DocumentStore: docStore,
		TermVectors:   vectors,
		indexer:       indexerService,
		searcher:      searchService,
	}, nil
}

// AddDocuments delegates to the underlying Indexer service.
func (i *IndexInstance) AddDocuments(docs []model.Document) error {
	return i.indexer.AddDocuments(docs)
}

// DeleteAllDocuments delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteAllDocuments() error {
	return i.indexer.DeleteAllDocuments()
}

// DeleteDocument delegates to the underlying Indexer service.
func (i *IndexInstance) DeleteDocument(docID string) error {
	return i.indexer.DeleteDocument(docID)
}

// Search delegates to the underlying Searcher service.
func (i *IndexInstance) Search(query services.SearchQuery) (services.SearchResult, error) {
	return i.searcher.Search(query)
}

// MultiSearch delegates to the underlying Searcher service.
func (i *IndexInstance) MultiSearch(ctx context.Context, query services.MultiSearchQuery) (*services.MultiSearchResult, error) {
	return i.searcher.MultiSearch(ctx, query)
}

// Explain delegates to the underlying Searcher service.
func (i *IndexInstance) Explain(query json.RawMessage, documentID string) (services.ExplainResult, error) {
	return i.searcher.Explain(query, documentID)
}

// GetDocument returns a copy of the stored document with the given external ID.
func (i *IndexInstance) GetDocument(documentID string) (model.Document, error) {
	doc, ok := i.DocumentStore.Get(documentID)
	if !ok {
		return nil, apperrors.NewDocumentNotFoundError(documentID, i.settings.Name)
	}
	return doc, nil
}

// Settings returns the configuration settings for this index.
func (i *IndexInstance) Settings() config.IndexSettings {
	return *i.settings
}

// reindex rebuilds postings and term vectors from the stored documents.
func (i *IndexInstance) reindex() error {
	return i.indexer.BulkReindex(indexing.DefaultBulkIndexingConfig())
}

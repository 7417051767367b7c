package services

import (
	"context"
	"encoding/json"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/model"
)

// HitResult represents a single document in the search results.
type HitResult struct {
	DocumentID  string             `json:"document_id"`
	Document    model.Document     `json:"document"`
	Score       float64            `json:"score"`                 // The overall score for this hit
	Explanation *model.Explanation `json:"explanation,omitempty"` // Set when the query asked for explanations
}

type SearchResult struct {
	Hits     []HitResult `json:"hits"`
	Total    int         `json:"total"`
	MaxScore float64     `json:"max_score"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Took     int64       `json:"took"`     // milliseconds
	QueryId  string      `json:"query_id"` // unique UUID for this search query
}

// SearchQuery is a request written in the JSON query language, e.g.
//
//	{"query": {"position_match": {"query": {"match": {"title": "quick fox"}}}}, "explain": true}
type SearchQuery struct {
	Query            json.RawMessage `json:"query"`
	Page             int             `json:"page,omitempty"`
	PageSize         int             `json:"page_size,omitempty"`
	Explain          bool            `json:"explain,omitempty"`
	RetrivableFields []string        `json:"retrivable_fields,omitempty"` // Optional: subset of document fields to return in results
}

// ExplainResult describes how a single document scores against a query.
type ExplainResult struct {
	DocumentID  string            `json:"document_id"`
	Matched     bool              `json:"matched"`
	Score       float64           `json:"score"`
	Explanation model.Explanation `json:"explanation"`
}

// MultiSearchQuery represents a request to execute multiple named search queries
type MultiSearchQuery struct {
	Queries  []NamedSearchQuery `json:"queries"`
	Page     int                `json:"page,omitempty"`
	PageSize int                `json:"page_size,omitempty"`
}

// NamedSearchQuery represents a single named search query within a multi-search request
type NamedSearchQuery struct {
	Name             string          `json:"name"`
	Query            json.RawMessage `json:"query"`
	Explain          bool            `json:"explain,omitempty"`
	RetrivableFields []string        `json:"retrivable_fields,omitempty"`
}

// MultiSearchResult represents the response from a multi-search operation
type MultiSearchResult struct {
	Results          map[string]SearchResult `json:"results"`
	TotalQueries     int                     `json:"total_queries"`
	ProcessingTimeMs float64                 `json:"processing_time_ms"`
}

// Indexer defines operations for adding data to an index
type Indexer interface {
	AddDocuments(docs []model.Document) error
	DeleteAllDocuments() error
	DeleteDocument(docID string) error
}

// Searcher defines operations for querying an index
type Searcher interface {
	Search(query SearchQuery) (SearchResult, error)
}

// MultiSearcher defines operations for performing multiple queries in a single request
type MultiSearcher interface {
	MultiSearch(ctx context.Context, query MultiSearchQuery) (*MultiSearchResult, error)
}

// Explainer explains the score of one document.
type Explainer interface {
	Explain(query json.RawMessage, documentID string) (ExplainResult, error)
}

// IndexManager manages the lifecycle of indices
type IndexManager interface {
	CreateIndex(settings config.IndexSettings) error
	GetIndex(name string) (IndexAccessor, error) // IndexAccessor combines Indexer and Searcher
	GetIndexSettings(name string) (config.IndexSettings, error)
	DeleteIndex(name string) error
	ListIndexes() []string
	PersistIndexData(indexName string) error
}

type IndexAccessor interface {
	Indexer
	Searcher
	MultiSearcher
	Explainer
	GetDocument(documentID string) (model.Document, error)
	Settings() config.IndexSettings
}

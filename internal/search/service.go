package search

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/index"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/metrics"
	"github.com/gcbaptista/go-position-search/internal/query"
	"github.com/gcbaptista/go-position-search/internal/scoring"
	"github.com/gcbaptista/go-position-search/internal/similarity"
	"github.com/gcbaptista/go-position-search/model"
	"github.com/gcbaptista/go-position-search/services"
	"github.com/gcbaptista/go-position-search/store"
)

const (
	defaultPageSize = 10
	maxPageSize     = 1000

	// DefaultDocCacheSize is the number of queries whose matching documents are cached per index.
	DefaultDocCacheSize = 256
)

// Service implements the search logic for a single index.
// It fulfills the services.Searcher and services.Explainer interfaces.
type Service struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	termVectors   *index.TermVectors
	settings      *config.IndexSettings
	logger        *zap.Logger
	metrics       *metrics.Collector
	docCache      *DocIDCache
}

// NewService creates a new search Service. logger and collector may be nil.
func NewService(invIndex *index.InvertedIndex, docStore *store.DocumentStore, termVectors *index.TermVectors, settings *config.IndexSettings, logger *zap.Logger, collector *metrics.Collector) (*Service, error) {
	if invIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if docStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if termVectors == nil {
		return nil, fmt.Errorf("term vectors cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		invertedIndex: invIndex,
		documentStore: docStore,
		termVectors:   termVectors,
		settings:      settings,
		logger:        logger.With(zap.String("index", settings.Name)),
		metrics:       collector,
		docCache:      NewDocIDCache(DefaultDocCacheSize),
	}, nil
}

// execution is a query bound to a read-only segment. The read locks are held until release.
type execution struct {
	segment *index.Segment
	query   query.Query
	weight  query.Weight
	release func()
}

// prepare parses raw, rewrites it to its primitive form and runs the two normalization phases
// against a segment opened on the current index state.
func (s *Service) prepare(raw json.RawMessage) (*execution, error) {
	if len(raw) == 0 {
		return nil, apperrors.NewValidationError("query", "query is required")
	}
	parsed, err := query.Parse(raw)
	if err != nil {
		return nil, err
	}
	rewritten := query.RewriteAll(parsed)

	s.documentStore.Mu.RLock()
	s.invertedIndex.Mu.RLock()
	s.termVectors.Mu.RLock()
	release := func() {
		s.termVectors.Mu.RUnlock()
		s.invertedIndex.Mu.RUnlock()
		s.documentStore.Mu.RUnlock()
	}

	segment := index.NewSegment(s.invertedIndex, s.termVectors, s.documentStore.NextID)

	var observer scoring.LookupObserver
	if s.metrics != nil {
		observer = s.metrics
	}
	searcher := query.NewSearcher(segment, similarity.ForIndex(s.settings, s.logger, observer), s.logger, observer)

	weight, err := rewritten.CreateWeight(searcher, query.ScoreModeComplete)
	if err != nil {
		release()
		return nil, err
	}
	// The top level has no query norm; term boosts are applied by the term weights.
	weight.Normalize(1, 1)

	return &execution{segment: segment, query: rewritten, weight: weight, release: release}, nil
}

// Search performs a search operation based on the query.
func (s *Service) Search(req services.SearchQuery) (result services.SearchResult, err error) {
	startTime := time.Now()
	defer func() {
		if s.metrics == nil {
			return
		}
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusError
		}
		s.metrics.RecordSearch(s.settings.Name, status, time.Since(startTime), result.Total)
	}()

	page := req.Page
	if page <= 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	exec, err := s.prepare(req.Query)
	if err != nil {
		return services.SearchResult{}, err
	}
	defer exec.release()

	scorer, err := exec.weight.Scorer(exec.segment)
	if err != nil {
		return services.SearchResult{}, fmt.Errorf("failed to score query %s: %w", exec.query, err)
	}

	type scoredDoc struct {
		id    uint32
		score float64
	}
	docs := s.matchingDocs(exec, scorer)
	scored := make([]scoredDoc, 0, len(docs))
	for _, id := range docs {
		scored = append(scored, scoredDoc{id: id, score: scorer.Score(id)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].id < scored[j].id
	})

	maxScore := 0.0
	if len(scored) > 0 {
		maxScore = scored[0].score
	}

	totalHits := len(scored)
	startIndex := (page - 1) * pageSize
	endIndex := startIndex + pageSize
	if startIndex > totalHits {
		startIndex = totalHits
	}
	if endIndex > totalHits {
		endIndex = totalHits
	}

	hits := make([]services.HitResult, 0, endIndex-startIndex)
	for _, sd := range scored[startIndex:endIndex] {
		doc, ok := s.documentStore.DocUnsafe(sd.id)
		if !ok {
			s.logger.Warn("matching document missing from store", zap.Uint32("internal_id", sd.id))
			continue
		}
		documentID, _ := doc.GetDocumentID()
		hit := services.HitResult{
			DocumentID: documentID,
			Document:   projectFields(doc, req.RetrivableFields),
			Score:      sd.score,
		}
		if req.Explain {
			explanation := scorer.Explain(sd.id)
			hit.Explanation = &explanation
		}
		hits = append(hits, hit)
	}

	s.logger.Debug("search completed",
		zap.Stringer("query", exec.query),
		zap.Int("total", totalHits),
		zap.Duration("took", time.Since(startTime)))

	return services.SearchResult{
		Hits:     hits,
		Total:    totalHits,
		MaxScore: maxScore,
		Page:     page,
		PageSize: pageSize,
		Took:     time.Since(startTime).Milliseconds(),
		QueryId:  uuid.New().String(),
	}, nil
}

// matchingDocs returns the documents matched by the execution's query. Only cacheable weights
// consult the cache. The cache key is the query's DSL form: String is for display and can render
// distinct queries alike, for example a field name containing ':'.
func (s *Service) matchingDocs(exec *execution, scorer query.Scorer) []uint32 {
	if !exec.weight.IsCacheable(exec.segment) {
		return scorer.Docs()
	}

	raw, err := query.Marshal(exec.query)
	if err != nil {
		return scorer.Docs()
	}
	key := string(raw)
	generation := exec.segment.Generation()
	if docs, ok := s.docCache.Get(key, generation); ok {
		s.recordCacheLookup(true)
		return docs
	}
	s.recordCacheLookup(false)

	docs := scorer.Docs()
	s.docCache.Put(key, generation, docs)
	return docs
}

func (s *Service) recordCacheLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(s.settings.Name, hit)
	}
}

// Explain describes how the document with the given external ID scores against raw.
func (s *Service) Explain(raw json.RawMessage, documentID string) (services.ExplainResult, error) {
	exec, err := s.prepare(raw)
	if err != nil {
		return services.ExplainResult{}, err
	}
	defer exec.release()

	internalID, ok := s.documentStore.LookupUnsafe(documentID)
	if !ok {
		return services.ExplainResult{}, apperrors.NewDocumentNotFoundError(documentID, s.settings.Name)
	}

	scorer, err := exec.weight.Scorer(exec.segment)
	if err != nil {
		return services.ExplainResult{}, fmt.Errorf("failed to score query %s: %w", exec.query, err)
	}
	docs := scorer.Docs()
	i := sort.Search(len(docs), func(i int) bool { return docs[i] >= internalID })
	matched := i < len(docs) && docs[i] == internalID

	explanation, err := exec.weight.Explain(exec.segment, internalID)
	if err != nil {
		return services.ExplainResult{}, fmt.Errorf("failed to explain query %s: %w", exec.query, err)
	}

	result := services.ExplainResult{
		DocumentID:  documentID,
		Matched:     matched,
		Explanation: explanation,
	}
	if matched {
		result.Score = scorer.Score(internalID)
	}
	return result, nil
}

// projectFields returns doc restricted to fields. The documentID is always kept.
func projectFields(doc model.Document, fields []string) model.Document {
	if len(fields) == 0 {
		return doc
	}
	projected := make(model.Document, len(fields)+1)
	if id, ok := doc["documentID"]; ok {
		projected["documentID"] = id
	}
	for _, field := range fields {
		if val, ok := doc[field]; ok {
			projected[field] = val
		}
	}
	return projected
}

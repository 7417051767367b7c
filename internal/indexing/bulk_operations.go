package indexing

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/model"
)

// BulkIndexingConfig contains configuration for bulk indexing operations
type BulkIndexingConfig struct {
	BatchSize        int // Number of documents written per acquisition of the write locks
	WorkerCount      int // Number of parallel workers analyzing documents
	ProgressCallback func(processed, total int, message string)
}

// DefaultBulkIndexingConfig returns sensible defaults for bulk indexing
func DefaultBulkIndexingConfig() BulkIndexingConfig {
	return BulkIndexingConfig{
		BatchSize:   500,
		WorkerCount: runtime.NumCPU(),
	}
}

// BulkIndexer analyzes documents on a pool of workers and writes them in input order.
// Tokenization runs without any lock held; only the writes take the index locks.
type BulkIndexer struct {
	service *Service
	config  BulkIndexingConfig
}

// NewBulkIndexer creates a new bulk indexer with the given configuration
func NewBulkIndexer(service *Service, config BulkIndexingConfig) *BulkIndexer {
	defaults := DefaultBulkIndexingConfig()
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}
	return &BulkIndexer{service: service, config: config}
}

type analyzeJob struct {
	pos int
	doc model.Document
}

type analyzeResult struct {
	pos      int
	analyzed analyzedDocument
	err      error
}

// BulkAddDocuments indexes docs. When a document fails validation nothing is written and the
// error names its position in docs.
func (bi *BulkIndexer) BulkAddDocuments(docs []model.Document) error {
	if len(docs) == 0 {
		return nil
	}

	logger := bi.service.logger.With(zap.String("index", bi.service.invertedIndex.Settings.Name))
	logger.Info("starting bulk indexing", zap.Int("documents", len(docs)), zap.Int("workers", bi.config.WorkerCount))
	start := time.Now()

	analyzed, err := bi.analyzeAll(docs)
	if err != nil {
		return fmt.Errorf("bulk indexing failed: %w", err)
	}

	for i := 0; i < len(analyzed); i += bi.config.BatchSize {
		end := i + bi.config.BatchSize
		if end > len(analyzed) {
			end = len(analyzed)
		}
		bi.flush(analyzed[i:end])

		if bi.config.ProgressCallback != nil {
			bi.config.ProgressCallback(end, len(docs), fmt.Sprintf("Indexed %d/%d documents", end, len(docs)))
		}
	}

	if bi.service.metrics != nil {
		bi.service.metrics.RecordDocumentsIndexed(bi.service.invertedIndex.Settings.Name, len(docs))
	}

	duration := time.Since(start)
	logger.Info("bulk indexing completed",
		zap.Int("documents", len(docs)),
		zap.Duration("took", duration),
		zap.Float64("docs_per_sec", float64(len(docs))/duration.Seconds()))
	return nil
}

// analyzeAll runs the worker pool and returns the analyzed documents in input order.
func (bi *BulkIndexer) analyzeAll(docs []model.Document) ([]analyzedDocument, error) {
	jobs := make(chan analyzeJob, bi.config.WorkerCount*2)
	results := make(chan analyzeResult, bi.config.WorkerCount*2)

	var wg sync.WaitGroup
	for i := 0; i < bi.config.WorkerCount; i++ {
		wg.Add(1)
		go bi.worker(jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, doc := range docs {
			jobs <- analyzeJob{pos: i, doc: doc}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	analyzed := make([]analyzedDocument, len(docs))
	var firstErr error
	firstErrPos := len(docs)
	for res := range results {
		if res.err != nil {
			if res.pos < firstErrPos {
				firstErr, firstErrPos = res.err, res.pos
			}
			continue
		}
		analyzed[res.pos] = res.analyzed
	}
	if firstErr != nil {
		return nil, fmt.Errorf("document at position %d: %w", firstErrPos, firstErr)
	}
	return analyzed, nil
}

func (bi *BulkIndexer) worker(jobs <-chan analyzeJob, results chan<- analyzeResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		a, err := bi.service.analyze(job.doc)
		results <- analyzeResult{pos: job.pos, analyzed: a, err: err}
	}
}

// flush writes one batch under the write locks.
func (bi *BulkIndexer) flush(batch []analyzedDocument) {
	bi.service.lockAll()
	defer bi.service.unlockAll()

	for _, a := range batch {
		bi.service.applyUnsafe(a)
	}
}

// BulkReindex rebuilds the postings and term vectors of every stored document, keeping the
// external document IDs and their relative order. It is used when an index is loaded
// without its term vectors.
func (s *Service) BulkReindex(config BulkIndexingConfig) error {
	s.documentStore.Mu.RLock()
	docs := s.documentStore.InOrderUnsafe()
	s.documentStore.Mu.RUnlock()

	if err := s.DeleteAllDocuments(); err != nil {
		return fmt.Errorf("bulk reindex failed: %w", err)
	}
	if len(docs) == 0 {
		s.logger.Info("no documents to reindex", zap.String("index", s.invertedIndex.Settings.Name))
		return nil
	}

	if err := NewBulkIndexer(s, config).BulkAddDocuments(docs); err != nil {
		return fmt.Errorf("bulk reindex failed: %w", err)
	}
	return nil
}

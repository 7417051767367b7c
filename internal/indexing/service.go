package indexing

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/index"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/metrics"
	"github.com/gcbaptista/go-position-search/internal/tokenizer"
	"github.com/gcbaptista/go-position-search/model"
	"github.com/gcbaptista/go-position-search/store"
)

// Service implements the indexing logic for a single index.
// It fulfills the services.Indexer interface.
//
// Every searchable field gets postings carrying term frequencies and positions plus a term
// vector holding the field length. Position fields additionally store the first-occurrence
// position of each distinct token as a payload.
type Service struct {
	invertedIndex *index.InvertedIndex
	documentStore *store.DocumentStore
	termVectors   *index.TermVectors
	logger        *zap.Logger
	metrics       *metrics.Collector
	// settings are accessible via invertedIndex.Settings
}

// NewService creates a new indexing Service.
// It assumes that invertedIndex.Settings is not nil. logger and collector may be nil.
func NewService(invertedIndex *index.InvertedIndex, documentStore *store.DocumentStore, termVectors *index.TermVectors, logger *zap.Logger, collector *metrics.Collector) (*Service, error) {
	if invertedIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if documentStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if termVectors == nil {
		return nil, fmt.Errorf("term vectors cannot be nil")
	}
	if invertedIndex.Settings == nil {
		return nil, fmt.Errorf("inverted index settings cannot be nil")
	}
	if invertedIndex.Index == nil {
		// Initialize the map if it's nil to prevent panics later
		invertedIndex.Index = make(map[string]index.PostingList)
	}
	if documentStore.Docs == nil {
		documentStore.Docs = make(map[uint32]model.Document)
	}
	if documentStore.ExternalIDtoInternalID == nil {
		documentStore.ExternalIDtoInternalID = make(map[string]uint32)
	}
	if termVectors.Docs == nil {
		termVectors.Docs = make(map[uint32]map[string]index.FieldTermVector)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		invertedIndex: invertedIndex,
		documentStore: documentStore,
		termVectors:   termVectors,
		logger:        logger,
		metrics:       collector,
	}, nil
}

// bulkThreshold is the batch size from which AddDocuments switches to the BulkIndexer.
const bulkThreshold = 1000

// AddDocuments adds a batch of documents to the index. A document whose documentID already
// exists replaces the stored one.
func (s *Service) AddDocuments(docs []model.Document) error {
	if len(docs) >= bulkThreshold {
		return NewBulkIndexer(s, DefaultBulkIndexingConfig()).BulkAddDocuments(docs)
	}

	// Process documents in micro-batches to minimize lock contention and allow search operations to interleave
	const microBatchSize = 10

	indexed := 0
	defer func() {
		if s.metrics != nil && indexed > 0 {
			s.metrics.RecordDocumentsIndexed(s.invertedIndex.Settings.Name, indexed)
		}
	}()

	for i := 0; i < len(docs); i += microBatchSize {
		end := i + microBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		added, err := s.addDocumentMicroBatch(docs[i:end])
		indexed += added
		if err != nil {
			return fmt.Errorf("failed to add document micro-batch starting at index %d: %w", i, err)
		}

		// Yield so pending searches can take the read locks between micro-batches
		if end < len(docs) {
			time.Sleep(1 * time.Millisecond)
		}
	}
	return nil
}

// addDocumentMicroBatch indexes a small batch under a single acquisition of the write locks.
// It returns how many documents were indexed before the first failure.
func (s *Service) addDocumentMicroBatch(docs []model.Document) (int, error) {
	analyzed := make([]analyzedDocument, 0, len(docs))
	for _, doc := range docs {
		a, err := s.analyze(doc)
		if err != nil {
			return 0, err
		}
		analyzed = append(analyzed, a)
	}

	s.lockAll()
	defer s.unlockAll()

	for _, a := range analyzed {
		s.applyUnsafe(a)
	}
	return len(analyzed), nil
}

// analyzedField is the token statistics of one searchable field.
type analyzedField struct {
	length int
	terms  map[string][]int // token -> ascending positions
}

// analyzedDocument is a document ready to be written to the index.
type analyzedDocument struct {
	id     string
	doc    model.Document
	fields map[string]analyzedField
}

// analyze tokenizes the searchable fields of doc. It needs no lock.
func (s *Service) analyze(doc model.Document) (analyzedDocument, error) {
	id, err := documentID(doc)
	if err != nil {
		return analyzedDocument{}, err
	}

	settings := s.invertedIndex.Settings
	a := analyzedDocument{id: id, doc: doc, fields: make(map[string]analyzedField)}
	for _, fieldName := range settings.SearchableFields {
		text, ok := doc.FieldText(fieldName)
		if !ok {
			if _, present := doc[fieldName]; present {
				s.logger.Warn("searchable field has unhandled type",
					zap.String("index", settings.Name),
					zap.String("document_id", id),
					zap.String("field", fieldName),
					zap.String("type", fmt.Sprintf("%T", doc[fieldName])))
			}
			continue
		}

		tokens := tokenizer.Analyze(text)
		if len(tokens) == 0 {
			continue
		}
		a.fields[fieldName] = analyzedField{length: len(tokens), terms: tokenizer.TermStats(tokens)}
	}
	return a, nil
}

func documentID(doc model.Document) (string, error) {
	value, exists := doc["documentID"]
	if !exists {
		return "", apperrors.NewValidationError("documentID", "documentID must be provided in the document data with key 'documentID'")
	}
	id, ok := value.(string)
	if !ok {
		return "", apperrors.NewValidationError("documentID", "expected a string")
	}
	if strings.TrimSpace(id) == "" {
		return "", apperrors.NewValidationError("documentID", "cannot be empty or whitespace-only")
	}
	return strings.TrimSpace(id), nil
}

// applyUnsafe writes an analyzed document, replacing any stored version of it.
// The caller holds every write lock.
func (s *Service) applyUnsafe(a analyzedDocument) {
	settings := s.invertedIndex.Settings

	internalID, existed := s.documentStore.AssignUnsafe(a.id)
	if existed {
		if oldDoc, ok := s.documentStore.DocUnsafe(internalID); ok {
			s.removeDocumentUnsafe(internalID, oldDoc)
		} else {
			s.logger.Warn("document mapped but missing from store, old tokens not cleaned up",
				zap.String("index", settings.Name),
				zap.String("document_id", a.id),
				zap.Uint32("internal_id", internalID))
		}
	}
	s.documentStore.PutUnsafe(internalID, a.doc)

	for fieldName, field := range a.fields {
		storePositions := settings.IsPositionField(fieldName)
		var payloads map[string][]byte
		if storePositions {
			payloads = make(map[string][]byte, len(field.terms))
		}

		for token, positions := range field.terms {
			s.invertedIndex.PutUnsafe(token, index.PostingEntry{
				DocID:     internalID,
				FieldName: fieldName,
				Score:     float64(len(positions)), // Term frequency within this specific field
				Positions: positions,
			})
			if storePositions {
				payloads[token] = index.EncodePosition(positions[0])
			}
		}

		s.termVectors.PutUnsafe(internalID, fieldName, index.FieldTermVector{
			Length:   field.length,
			Payloads: payloads,
		})
	}
}

// removeDocumentUnsafe drops the postings and term vectors of a stored document.
// The document store entry is left to the caller.
func (s *Service) removeDocumentUnsafe(internalID uint32, doc model.Document) {
	for _, fieldName := range s.invertedIndex.Settings.SearchableFields {
		text, ok := doc.FieldText(fieldName)
		if !ok {
			continue
		}
		for _, token := range tokenizer.Tokenize(text) {
			s.invertedIndex.RemoveUnsafe(token, internalID, fieldName)
		}
	}
	s.termVectors.RemoveDocUnsafe(internalID)
}

// DeleteAllDocuments removes all documents from the index, clearing the document store,
// the inverted index and the term vectors.
func (s *Service) DeleteAllDocuments() error {
	s.lockAll()
	defer s.unlockAll()

	s.documentStore.ResetUnsafe()
	s.invertedIndex.Index = make(map[string]index.PostingList)
	s.termVectors.ResetUnsafe()

	return nil
}

// DeleteDocument removes a specific document from the index by its external ID.
func (s *Service) DeleteDocument(docID string) error {
	s.lockAll()
	defer s.unlockAll()

	internalID, exists := s.documentStore.LookupUnsafe(docID)
	if !exists {
		return apperrors.NewDocumentNotFoundError(docID, s.invertedIndex.Settings.Name)
	}

	doc, docExists := s.documentStore.DocUnsafe(internalID)
	if !docExists {
		s.documentStore.RemoveUnsafe(docID, internalID)
		return fmt.Errorf("document with ID '%s' found in mapping but not in store (inconsistent state)", docID)
	}

	s.removeDocumentUnsafe(internalID, doc)
	s.documentStore.RemoveUnsafe(docID, internalID)

	return nil
}

// lockAll takes the write locks in the order searches take their read locks.
func (s *Service) lockAll() {
	s.documentStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	s.termVectors.Mu.Lock()
}

func (s *Service) unlockAll() {
	s.termVectors.Mu.Unlock()
	s.invertedIndex.Mu.Unlock()
	s.documentStore.Mu.Unlock()
}

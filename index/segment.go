package index

import (
	"github.com/gcbaptista/go-position-search/config"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
)

// Segment is the read-only view of one index used while executing a single search.
// It does no locking itself: whoever creates it holds the read locks of the inverted index and
// the term vectors until the search is done.
type Segment struct {
	index      *InvertedIndex
	vectors    *TermVectors
	settings   *config.IndexSettings
	maxDoc     uint32
	generation uint64

	fieldLengths map[string]int // field -> summed token count over all documents
}

// NewSegment creates a view over the given structures. maxDoc is one past the largest
// internal document ID.
func NewSegment(ii *InvertedIndex, tv *TermVectors, maxDoc uint32) *Segment {
	fieldLengths := make(map[string]int)
	for _, fields := range tv.Docs {
		for field, vector := range fields {
			fieldLengths[field] += vector.Length
		}
	}

	return &Segment{
		index:        ii,
		vectors:      tv,
		settings:     ii.Settings,
		maxDoc:       maxDoc,
		generation:   tv.Generation,
		fieldLengths: fieldLengths,
	}
}

// MaxDoc returns one past the largest internal document ID.
func (s *Segment) MaxDoc() uint32 {
	return s.maxDoc
}

// Generation identifies the state of the data the segment was opened on.
func (s *Segment) Generation() uint64 {
	return s.generation
}

// Settings returns the settings of the index the segment belongs to.
func (s *Segment) Settings() *config.IndexSettings {
	return s.settings
}

// Postings returns the postings of token restricted to field.
func (s *Segment) Postings(field, token string) PostingList {
	return s.index.Index[token].ForField(field)
}

// DocCount returns the number of live documents.
func (s *Segment) DocCount() int {
	return len(s.vectors.Docs)
}

// DocFreq returns the number of documents whose field contains token.
func (s *Segment) DocFreq(field, token string) int {
	return len(s.Postings(field, token))
}

// FieldLength returns the number of tokens of field in docID.
func (s *Segment) FieldLength(docID uint32, field string) int {
	return s.vectors.Docs[docID][field].Length
}

// AverageFieldLength returns the mean token count of field over all documents.
func (s *Segment) AverageFieldLength(field string) float64 {
	if len(s.vectors.Docs) == 0 {
		return 0
	}
	return float64(s.fieldLengths[field]) / float64(len(s.vectors.Docs))
}

// FirstPosition returns the first-occurrence position of term in field for docID, read from the
// document's term vector payload. The error is a *errors.PositionalDataError whose kind tells
// why no position is available.
func (s *Segment) FirstPosition(docID uint32, field string, term []byte) (int, error) {
	text := string(term)

	if s.settings == nil || !s.settings.IsPositionField(field) {
		return 0, apperrors.NewPositionalDataError(apperrors.ErrUnsupportedCapability, docID, field, text, nil)
	}

	vector, ok := s.vectors.Docs[docID][field]
	if !ok || vector.Payloads == nil {
		return 0, apperrors.NewPositionalDataError(apperrors.ErrMissingPositionalData, docID, field, text, nil)
	}

	payload, ok := vector.Payloads[text]
	if !ok {
		return 0, apperrors.NewPositionalDataError(apperrors.ErrTermNotPresent, docID, field, text, nil)
	}
	if payload == nil {
		return 0, apperrors.NewPositionalDataError(apperrors.ErrMissingPositionalData, docID, field, text, nil)
	}

	position, err := DecodePosition(payload)
	if err != nil {
		return 0, apperrors.NewPositionalDataError(apperrors.ErrMalformedPositionalData, docID, field, text, err)
	}
	return position, nil
}

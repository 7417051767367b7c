// Package similarity holds the per-field ranking functions used by term queries.
//
// Query-time interaction follows two phases. ComputeWeight is called once per query leaf to
// capture collection and term statistics, then Normalize passes down the query normalization
// value and the boosts of enclosing queries. Only then is a SimScorer created for the segment
// and Score called once per matching document.
package similarity

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/config"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/scoring"
	"github.com/gcbaptista/go-position-search/index"
	"github.com/gcbaptista/go-position-search/model"
)

// CollectionStats describes a field across the whole segment.
type CollectionStats struct {
	Field          string
	DocCount       int
	AvgFieldLength float64
}

// TermStats describes one query term within a field.
type TermStats struct {
	Term    string
	DocFreq int
}

// Similarity computes the score of a document for a set of query terms in one field.
type Similarity interface {
	// ComputeWeight captures the statistics needed to score a query leaf.
	ComputeWeight(boost float64, collection CollectionStats, terms ...TermStats) SimWeight
	// SimScorer creates a scorer for weight over segment.
	SimScorer(weight SimWeight, segment *index.Segment) (SimScorer, error)
}

// SimWeight is the query-level state of a similarity.
type SimWeight interface {
	ValueForNormalization() float64
	// Normalize stores the query normalization value and the boost of enclosing queries.
	Normalize(queryNorm, boost float64)
}

// SimScorer scores the documents of one segment.
type SimScorer interface {
	Score(docID uint32, freq float64) float64
	Explain(docID uint32, freq float64) model.Explanation
	ComputeSlopFactor(distance int) float64
	ComputePayloadFactor(docID uint32, start, end int, payload []byte) float64
}

// PerField dispatches to the similarity configured for each field.
type PerField struct {
	fields   map[string]Similarity
	fallback Similarity
}

// NewPerField creates a dispatcher that uses fallback for fields without their own similarity.
func NewPerField(fallback Similarity) *PerField {
	return &PerField{fields: make(map[string]Similarity), fallback: fallback}
}

// Set installs sim for field.
func (p *PerField) Set(field string, sim Similarity) {
	p.fields[field] = sim
}

// Get returns the similarity of field.
func (p *PerField) Get(field string) Similarity {
	if sim, ok := p.fields[field]; ok {
		return sim
	}
	return p.fallback
}

// ComputeWeight delegates to the similarity of collection.Field.
func (p *PerField) ComputeWeight(boost float64, collection CollectionStats, terms ...TermStats) SimWeight {
	delegate := p.Get(collection.Field)
	return &perFieldWeight{delegate: delegate, weight: delegate.ComputeWeight(boost, collection, terms...)}
}

// SimScorer delegates to the similarity that created weight.
func (p *PerField) SimScorer(weight SimWeight, segment *index.Segment) (SimScorer, error) {
	pw, ok := weight.(*perFieldWeight)
	if !ok {
		return nil, apperrors.NewConfigurationError("per_field", fmt.Sprintf("unexpected weight type %T", weight))
	}
	return pw.delegate.SimScorer(pw.weight, segment)
}

type perFieldWeight struct {
	delegate Similarity
	weight   SimWeight
}

func (w *perFieldWeight) ValueForNormalization() float64 {
	return w.weight.ValueForNormalization()
}

func (w *perFieldWeight) Normalize(queryNorm, boost float64) {
	w.weight.Normalize(queryNorm, boost)
}

// ForIndex builds the similarity of an index: BM25 everywhere, and the position similarity on the
// position fields when the settings select it.
func ForIndex(settings *config.IndexSettings, logger *zap.Logger, observer scoring.LookupObserver) *PerField {
	perField := NewPerField(NewBM25())
	if settings == nil || settings.Similarity != config.SimilarityPosition {
		return perField
	}

	position := NewPosition(
		WithDefaultPosition(settings.MissPosition()),
		WithLogger(logger),
		WithObserver(observer),
	)
	for _, field := range settings.PositionFields {
		perField.Set(field, position)
	}
	return perField
}

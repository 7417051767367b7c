package similarity

import (
	"fmt"
	"math"
	"sync/atomic"

	"go.uber.org/zap"

	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/scoring"
	"github.com/gcbaptista/go-position-search/index"
	"github.com/gcbaptista/go-position-search/model"
)

// Position scores a field by where the query terms first occur in it, ignoring term frequency.
// A term whose position cannot be read is scored as if it occurred at the default position.
type Position struct {
	defaultPosition int
	logger          *zap.Logger
	observer        scoring.LookupObserver
}

// PositionOption configures a Position similarity.
type PositionOption func(*Position)

// WithDefaultPosition sets the position substituted for unresolved terms.
func WithDefaultPosition(position int) PositionOption {
	return func(p *Position) {
		if position >= 0 {
			p.defaultPosition = position
		}
	}
}

// WithLogger sets the logger used for failed position lookups.
func WithLogger(logger *zap.Logger) PositionOption {
	return func(p *Position) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver sets the observer notified of every position lookup.
func WithObserver(observer scoring.LookupObserver) PositionOption {
	return func(p *Position) {
		p.observer = observer
	}
}

// NewPosition creates a position similarity.
func NewPosition(opts ...PositionOption) *Position {
	p := &Position{
		defaultPosition: scoring.DefaultMissPosition,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultPosition returns the position substituted for unresolved terms.
func (p *Position) DefaultPosition() int {
	return p.defaultPosition
}

// PositionWeight holds the terms captured for one field of one query and, once normalized, the
// boost applied to every term contribution.
type PositionWeight struct {
	field string
	terms scoring.TermSet
	boost float64

	totalBoost atomic.Uint64 // math.Float64bits
	ready      atomic.Bool
}

// ComputeWeight captures terms. No scoring happens until the weight is normalized.
func (p *Position) ComputeWeight(boost float64, collection CollectionStats, terms ...TermStats) SimWeight {
	set := scoring.NewTermSet()
	for _, term := range terms {
		set.Add(scoring.TermRef{Field: collection.Field, Text: term.Term})
	}
	return &PositionWeight{field: collection.Field, terms: set, boost: boost}
}

// Field returns the field the weight was computed for.
func (w *PositionWeight) Field() string {
	return w.field
}

// Terms returns the captured terms.
func (w *PositionWeight) Terms() scoring.TermSet {
	return w.terms
}

func (w *PositionWeight) ValueForNormalization() float64 {
	return w.boost * w.boost
}

// Normalize sets the total boost to queryNorm*boost and makes the weight ready for scoring.
// Calling it again replaces the previous value.
func (w *PositionWeight) Normalize(queryNorm, boost float64) {
	w.totalBoost.Store(math.Float64bits(queryNorm * boost))
	w.ready.Store(true)
}

// TotalBoost returns the normalized boost and whether Normalize has been called.
func (w *PositionWeight) TotalBoost() (float64, bool) {
	if !w.ready.Load() {
		return 0, false
	}
	return math.Float64frombits(w.totalBoost.Load()), true
}

// SimScorer creates a scorer over segment. It fails with ErrWeightNotNormalized when weight has
// not been normalized yet.
func (p *Position) SimScorer(weight SimWeight, segment *index.Segment) (SimScorer, error) {
	w, ok := weight.(*PositionWeight)
	if !ok {
		return nil, apperrors.NewConfigurationError("position-similarity", fmt.Sprintf("unexpected weight type %T", weight))
	}

	totalBoost, ready := w.TotalBoost()
	if !ready {
		return nil, fmt.Errorf("field %s: %w", w.field, apperrors.ErrWeightNotNormalized)
	}

	resolver := scoring.NewResolver(segment, p.logger, p.observer)
	return &positionScorer{
		weight:     w,
		totalBoost: totalBoost,
		aggregator: scoring.NewAggregator(resolver, scoring.MissUsesDefaultPosition(p.defaultPosition)),
	}, nil
}

type positionScorer struct {
	weight     *PositionWeight
	totalBoost float64
	aggregator *scoring.Aggregator
}

// Score sums the decay of every captured term scaled by the total boost. freq is ignored.
func (s *positionScorer) Score(docID uint32, freq float64) float64 {
	return s.aggregator.Score(docID, s.weight.terms, s.totalBoost)
}

func (s *positionScorer) Explain(docID uint32, freq float64) model.Explanation {
	total, explanation := s.aggregator.Aggregate(docID, s.weight.terms, s.totalBoost)
	return model.Match(total, fmt.Sprintf("position score(doc=%d, freq=%g), sum of:", docID, freq), explanation.Details...)
}

func (s *positionScorer) ComputeSlopFactor(distance int) float64 {
	return 1.0 / float64(distance+1)
}

func (s *positionScorer) ComputePayloadFactor(docID uint32, start, end int, payload []byte) float64 {
	return 1
}

package query

import (
	"github.com/gcbaptista/go-position-search/index"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/scoring"
	"github.com/gcbaptista/go-position-search/model"
)

// PositionMatchName is the name of the position match query in the query language.
const PositionMatchName = "position_match"

// PositionMatchQuery matches the documents of a sub-query and replaces their score with the
// position decay of the sub-query's terms. A term missing from a document contributes 0.
type PositionMatchQuery struct {
	sub Query
}

// NewPositionMatchQuery wraps sub. It fails with a configuration error when sub is nil.
func NewPositionMatchQuery(sub Query) (*PositionMatchQuery, error) {
	if sub == nil {
		return nil, apperrors.NewConfigurationError(PositionMatchName, "expecting query object")
	}
	return &PositionMatchQuery{sub: sub}, nil
}

// Sub returns the wrapped query.
func (q *PositionMatchQuery) Sub() Query {
	return q.sub
}

// Rewrite returns a new wrapper when the sub-query rewrites to a different query.
func (q *PositionMatchQuery) Rewrite() Query {
	rewritten := q.sub.Rewrite()
	if rewritten != q.sub {
		return &PositionMatchQuery{sub: rewritten}
	}
	return q
}

func (q *PositionMatchQuery) CreateWeight(searcher *Searcher, mode ScoreMode) (Weight, error) {
	sub, err := q.sub.CreateWeight(searcher, ScoreModeComplete)
	if err != nil {
		return nil, err
	}
	return &positionMatchWeight{query: q, sub: sub, searcher: searcher}, nil
}

func (q *PositionMatchQuery) Equal(other Query) bool {
	o, ok := other.(*PositionMatchQuery)
	return ok && q.sub.Equal(o.sub)
}

func (q *PositionMatchQuery) Hash() uint64 {
	return combineHash(hashStrings(PositionMatchName), q.sub.Hash())
}

func (q *PositionMatchQuery) String() string {
	return PositionMatchName + "(" + q.sub.String() + ")"
}

type positionMatchWeight struct {
	query    *PositionMatchQuery
	sub      Weight
	searcher *Searcher
}

func (w *positionMatchWeight) Query() Query {
	return w.query
}

func (w *positionMatchWeight) ExtractTerms(terms scoring.TermSet) {
	w.sub.ExtractTerms(terms)
}

func (w *positionMatchWeight) ValueForNormalization() float64 {
	return w.sub.ValueForNormalization()
}

func (w *positionMatchWeight) Normalize(queryNorm, boost float64) {
	w.sub.Normalize(queryNorm, boost)
}

func (w *positionMatchWeight) Scorer(segment *index.Segment) (Scorer, error) {
	sub, err := w.sub.Scorer(segment)
	if err != nil {
		return nil, err
	}

	terms := scoring.NewTermSet()
	w.sub.ExtractTerms(terms)

	resolver := scoring.NewResolver(segment, w.searcher.Logger, w.searcher.Observer)
	return &positionMatchScorer{
		sub:        sub,
		terms:      terms,
		aggregator: scoring.NewAggregator(resolver, scoring.MissScoresZero()),
	}, nil
}

func (w *positionMatchWeight) Explain(segment *index.Segment, docID uint32) (model.Explanation, error) {
	scorer, err := w.Scorer(segment)
	if err != nil {
		return model.Explanation{}, err
	}
	return scorer.Explain(docID), nil
}

// IsCacheable is false: scores depend on the live positional data of each document.
func (w *positionMatchWeight) IsCacheable(segment *index.Segment) bool {
	return false
}

type positionMatchScorer struct {
	sub        Scorer
	terms      scoring.TermSet
	aggregator *scoring.Aggregator
}

func (s *positionMatchScorer) Docs() []uint32 {
	return s.sub.Docs()
}

func (s *positionMatchScorer) Score(docID uint32) float64 {
	return s.aggregator.Score(docID, s.terms, 1.0)
}

func (s *positionMatchScorer) Explain(docID uint32) model.Explanation {
	_, explanation := s.aggregator.Aggregate(docID, s.terms, 1.0)
	return explanation
}

// Package query implements the queries a search executes and the JSON query language that
// describes them.
//
// A Query is rewritten to its primitive form, turned into a Weight bound to the executing
// Searcher, normalized, and finally asked for a Scorer over the segment.
package query

import (
	"hash/fnv"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/index"
	"github.com/gcbaptista/go-position-search/internal/scoring"
	"github.com/gcbaptista/go-position-search/internal/similarity"
	"github.com/gcbaptista/go-position-search/model"
)

// ScoreMode tells a query whether its scores will be consumed.
type ScoreMode int

const (
	// ScoreModeComplete asks for matches and scores.
	ScoreModeComplete ScoreMode = iota
	// ScoreModeCompleteNoScores asks for matches only.
	ScoreModeCompleteNoScores
)

// Query describes what to match.
type Query interface {
	// Rewrite returns a primitive form of the query, or the query itself when there is
	// nothing to rewrite.
	Rewrite() Query
	CreateWeight(searcher *Searcher, mode ScoreMode) (Weight, error)
	Equal(other Query) bool
	// Hash is consistent with Equal.
	Hash() uint64
	String() string
}

// Weight is the searcher-dependent state of a query.
type Weight interface {
	Query() Query
	// ExtractTerms adds every term the query can match to terms.
	ExtractTerms(terms scoring.TermSet)
	ValueForNormalization() float64
	Normalize(queryNorm, boost float64)
	Scorer(segment *index.Segment) (Scorer, error)
	Explain(segment *index.Segment, docID uint32) (model.Explanation, error)
	// IsCacheable reports whether the matching documents may be cached for segment.
	IsCacheable(segment *index.Segment) bool
}

// Scorer iterates and scores the matching documents of one segment.
type Scorer interface {
	// Docs returns the matching documents in ascending order.
	Docs() []uint32
	Score(docID uint32) float64
	Explain(docID uint32) model.Explanation
}

// Searcher carries what weights need from the executing search.
type Searcher struct {
	Segment    *index.Segment
	Similarity similarity.Similarity
	Logger     *zap.Logger
	Observer   scoring.LookupObserver
}

// NewSearcher creates a searcher over segment. logger and observer may be nil.
func NewSearcher(segment *index.Segment, sim similarity.Similarity, logger *zap.Logger, observer scoring.LookupObserver) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{Segment: segment, Similarity: sim, Logger: logger, Observer: observer}
}

// CollectionStats returns the statistics of field in the searcher's segment.
func (s *Searcher) CollectionStats(field string) similarity.CollectionStats {
	return similarity.CollectionStats{
		Field:          field,
		DocCount:       s.Segment.DocCount(),
		AvgFieldLength: s.Segment.AverageFieldLength(field),
	}
}

// RewriteAll rewrites q until it no longer changes.
func RewriteAll(q Query) Query {
	for {
		rewritten := q.Rewrite()
		if rewritten == q {
			return q
		}
		q = rewritten
	}
}

func hashStrings(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func combineHash(h1, h2 uint64) uint64 {
	return h1*31 + h2
}

// docSet indexes the documents of a scorer for membership tests.
func docSet(docs []uint32) map[uint32]struct{} {
	set := make(map[uint32]struct{}, len(docs))
	for _, doc := range docs {
		set[doc] = struct{}{}
	}
	return set
}

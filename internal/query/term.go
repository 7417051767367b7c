package query

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gcbaptista/go-position-search/index"
	"github.com/gcbaptista/go-position-search/internal/scoring"
	"github.com/gcbaptista/go-position-search/internal/similarity"
	"github.com/gcbaptista/go-position-search/model"
)

// TermQuery matches documents whose field contains the exact token Text.
// The score is computed by the similarity configured for the field.
type TermQuery struct {
	Field string
	Text  string
	Boost float64 // 0 means 1
}

// NewTermQuery creates a term query with boost 1.
func NewTermQuery(field, text string) *TermQuery {
	return &TermQuery{Field: field, Text: text, Boost: 1}
}

func (q *TermQuery) boost() float64 {
	if q.Boost == 0 {
		return 1
	}
	return q.Boost
}

func (q *TermQuery) Rewrite() Query {
	return q
}

func (q *TermQuery) CreateWeight(searcher *Searcher, mode ScoreMode) (Weight, error) {
	stats := similarity.TermStats{Term: q.Text, DocFreq: searcher.Segment.DocFreq(q.Field, q.Text)}
	return &termWeight{
		query:     q,
		searcher:  searcher,
		simWeight: searcher.Similarity.ComputeWeight(q.boost(), searcher.CollectionStats(q.Field), stats),
	}, nil
}

func (q *TermQuery) Equal(other Query) bool {
	o, ok := other.(*TermQuery)
	return ok && o.Field == q.Field && o.Text == q.Text && o.boost() == q.boost()
}

func (q *TermQuery) Hash() uint64 {
	return combineHash(hashStrings("term", q.Field, q.Text), math.Float64bits(q.boost()))
}

func (q *TermQuery) String() string {
	if q.boost() == 1 {
		return q.Field + ":" + q.Text
	}
	return q.Field + ":" + q.Text + "^" + strconv.FormatFloat(q.boost(), 'g', -1, 64)
}

type termWeight struct {
	query     *TermQuery
	searcher  *Searcher
	simWeight similarity.SimWeight
}

func (w *termWeight) Query() Query {
	return w.query
}

func (w *termWeight) ExtractTerms(terms scoring.TermSet) {
	terms.Add(scoring.TermRef{Field: w.query.Field, Text: w.query.Text})
}

func (w *termWeight) ValueForNormalization() float64 {
	return w.simWeight.ValueForNormalization()
}

func (w *termWeight) Normalize(queryNorm, boost float64) {
	w.simWeight.Normalize(queryNorm, boost*w.query.boost())
}

func (w *termWeight) Scorer(segment *index.Segment) (Scorer, error) {
	simScorer, err := w.searcher.Similarity.SimScorer(w.simWeight, segment)
	if err != nil {
		return nil, fmt.Errorf("failed to create scorer for %s: %w", w.query, err)
	}

	postings := segment.Postings(w.query.Field, w.query.Text)
	scorer := &termScorer{
		query: w.query,
		docs:  make([]uint32, 0, len(postings)),
		freqs: make(map[uint32]float64, len(postings)),
		sim:   simScorer,
	}
	for _, entry := range postings {
		scorer.docs = append(scorer.docs, entry.DocID)
		scorer.freqs[entry.DocID] = entry.Score
	}
	return scorer, nil
}

func (w *termWeight) Explain(segment *index.Segment, docID uint32) (model.Explanation, error) {
	scorer, err := w.Scorer(segment)
	if err != nil {
		return model.Explanation{}, err
	}
	return scorer.Explain(docID), nil
}

func (w *termWeight) IsCacheable(segment *index.Segment) bool {
	return true
}

type termScorer struct {
	query *TermQuery
	docs  []uint32
	freqs map[uint32]float64
	sim   similarity.SimScorer
}

func (s *termScorer) Docs() []uint32 {
	return s.docs
}

func (s *termScorer) Score(docID uint32) float64 {
	return s.sim.Score(docID, s.freqs[docID])
}

func (s *termScorer) Explain(docID uint32) model.Explanation {
	freq, ok := s.freqs[docID]
	if !ok {
		return model.NoMatch(fmt.Sprintf("no matching term for %s", s.query))
	}
	return model.Match(s.sim.Score(docID, freq), fmt.Sprintf("weight(%s in %d), result of:", s.query, docID),
		s.sim.Explain(docID, freq))
}

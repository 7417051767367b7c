package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gcbaptista/go-position-search/index"
	"github.com/gcbaptista/go-position-search/internal/scoring"
	"github.com/gcbaptista/go-position-search/model"
)

// BoolQuery combines clauses. A document matches when it matches every Must clause, at least one
// Should clause if there are no Must clauses, and no MustNot clause. Its score is the sum of the
// scores of the Must and Should clauses it matches.
type BoolQuery struct {
	Must    []Query
	Should  []Query
	MustNot []Query
}

// Rewrite unwraps a query holding a single positive clause and rewrites every clause.
func (q *BoolQuery) Rewrite() Query {
	if len(q.MustNot) == 0 && len(q.Must)+len(q.Should) == 1 {
		if len(q.Must) == 1 {
			return q.Must[0]
		}
		return q.Should[0]
	}

	must, mustChanged := rewriteClauses(q.Must)
	should, shouldChanged := rewriteClauses(q.Should)
	mustNot, mustNotChanged := rewriteClauses(q.MustNot)
	if !mustChanged && !shouldChanged && !mustNotChanged {
		return q
	}
	return &BoolQuery{Must: must, Should: should, MustNot: mustNot}
}

func rewriteClauses(clauses []Query) ([]Query, bool) {
	changed := false
	out := make([]Query, len(clauses))
	for i, clause := range clauses {
		out[i] = clause.Rewrite()
		if out[i] != clause {
			changed = true
		}
	}
	return out, changed
}

func (q *BoolQuery) CreateWeight(searcher *Searcher, mode ScoreMode) (Weight, error) {
	w := &boolWeight{query: q}
	var err error
	if w.must, err = createWeights(q.Must, searcher, mode); err != nil {
		return nil, err
	}
	if w.should, err = createWeights(q.Should, searcher, mode); err != nil {
		return nil, err
	}
	if w.mustNot, err = createWeights(q.MustNot, searcher, ScoreModeCompleteNoScores); err != nil {
		return nil, err
	}
	return w, nil
}

func createWeights(clauses []Query, searcher *Searcher, mode ScoreMode) ([]Weight, error) {
	weights := make([]Weight, 0, len(clauses))
	for _, clause := range clauses {
		w, err := clause.CreateWeight(searcher, mode)
		if err != nil {
			return nil, err
		}
		weights = append(weights, w)
	}
	return weights, nil
}

func (q *BoolQuery) Equal(other Query) bool {
	o, ok := other.(*BoolQuery)
	return ok && clausesEqual(q.Must, o.Must) && clausesEqual(q.Should, o.Should) && clausesEqual(q.MustNot, o.MustNot)
}

func clausesEqual(a, b []Query) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (q *BoolQuery) Hash() uint64 {
	h := hashStrings("bool")
	for _, group := range [][]Query{q.Must, q.Should, q.MustNot} {
		h = combineHash(h, uint64(len(group)))
		for _, clause := range group {
			h = combineHash(h, clause.Hash())
		}
	}
	return h
}

func (q *BoolQuery) String() string {
	parts := make([]string, 0, len(q.Must)+len(q.Should)+len(q.MustNot))
	for _, clause := range q.Must {
		parts = append(parts, "+"+clause.String())
	}
	for _, clause := range q.Should {
		parts = append(parts, clause.String())
	}
	for _, clause := range q.MustNot {
		parts = append(parts, "-"+clause.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

type boolWeight struct {
	query   *BoolQuery
	must    []Weight
	should  []Weight
	mustNot []Weight
}

func (w *boolWeight) Query() Query {
	return w.query
}

// ExtractTerms collects the terms of the positive clauses.
func (w *boolWeight) ExtractTerms(terms scoring.TermSet) {
	for _, clause := range w.must {
		clause.ExtractTerms(terms)
	}
	for _, clause := range w.should {
		clause.ExtractTerms(terms)
	}
}

func (w *boolWeight) ValueForNormalization() float64 {
	sum := 0.0
	for _, clause := range w.must {
		sum += clause.ValueForNormalization()
	}
	for _, clause := range w.should {
		sum += clause.ValueForNormalization()
	}
	return sum
}

func (w *boolWeight) Normalize(queryNorm, boost float64) {
	for _, group := range [][]Weight{w.must, w.should, w.mustNot} {
		for _, clause := range group {
			clause.Normalize(queryNorm, boost)
		}
	}
}

func (w *boolWeight) Scorer(segment *index.Segment) (Scorer, error) {
	s := &boolScorer{}
	var err error
	if s.must, err = clauseScorers(w.must, segment); err != nil {
		return nil, err
	}
	if s.should, err = clauseScorers(w.should, segment); err != nil {
		return nil, err
	}
	if s.mustNot, err = clauseScorers(w.mustNot, segment); err != nil {
		return nil, err
	}
	s.docs = s.matchingDocs()
	s.matched = docSet(s.docs)
	return s, nil
}

func clauseScorers(weights []Weight, segment *index.Segment) ([]clauseScorer, error) {
	scorers := make([]clauseScorer, 0, len(weights))
	for _, w := range weights {
		scorer, err := w.Scorer(segment)
		if err != nil {
			return nil, err
		}
		scorers = append(scorers, clauseScorer{Scorer: scorer, docs: docSet(scorer.Docs())})
	}
	return scorers, nil
}

func (w *boolWeight) Explain(segment *index.Segment, docID uint32) (model.Explanation, error) {
	scorer, err := w.Scorer(segment)
	if err != nil {
		return model.Explanation{}, err
	}
	return scorer.Explain(docID), nil
}

func (w *boolWeight) IsCacheable(segment *index.Segment) bool {
	for _, group := range [][]Weight{w.must, w.should, w.mustNot} {
		for _, clause := range group {
			if !clause.IsCacheable(segment) {
				return false
			}
		}
	}
	return true
}

type clauseScorer struct {
	Scorer
	docs map[uint32]struct{}
}

func (c clauseScorer) matches(docID uint32) bool {
	_, ok := c.docs[docID]
	return ok
}

type boolScorer struct {
	must    []clauseScorer
	should  []clauseScorer
	mustNot []clauseScorer
	docs    []uint32
	matched map[uint32]struct{}
}

func (s *boolScorer) matchingDocs() []uint32 {
	candidates := make(map[uint32]struct{})
	if len(s.must) > 0 {
		for doc := range s.must[0].docs {
			candidates[doc] = struct{}{}
		}
		for _, clause := range s.must[1:] {
			for doc := range candidates {
				if !clause.matches(doc) {
					delete(candidates, doc)
				}
			}
		}
	} else {
		for _, clause := range s.should {
			for doc := range clause.docs {
				candidates[doc] = struct{}{}
			}
		}
	}

	docs := make([]uint32, 0, len(candidates))
	for doc := range candidates {
		excluded := false
		for _, clause := range s.mustNot {
			if clause.matches(doc) {
				excluded = true
				break
			}
		}
		if !excluded {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i] < docs[j] })
	return docs
}

func (s *boolScorer) Docs() []uint32 {
	return s.docs
}

func (s *boolScorer) Score(docID uint32) float64 {
	score := 0.0
	for _, clause := range s.must {
		score += clause.Score(docID)
	}
	for _, clause := range s.should {
		if clause.matches(docID) {
			score += clause.Score(docID)
		}
	}
	return score
}

func (s *boolScorer) Explain(docID uint32) model.Explanation {
	if _, ok := s.matched[docID]; !ok {
		return model.NoMatch(fmt.Sprintf("no match on required clauses for doc=%d", docID))
	}

	details := make([]model.Explanation, 0, len(s.must)+len(s.should))
	for _, clause := range s.must {
		details = append(details, clause.Explain(docID))
	}
	for _, clause := range s.should {
		if clause.matches(docID) {
			details = append(details, clause.Explain(docID))
		}
	}
	return model.Match(s.Score(docID), "sum of:", details...)
}

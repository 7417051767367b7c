package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-position-search/config"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/scoring"
	"github.com/gcbaptista/go-position-search/internal/similarity"
	"github.com/gcbaptista/go-position-search/internal/tokenizer"
	"github.com/gcbaptista/go-position-search/index"
)

// buildSearcher indexes the title of each document the same way the indexing service does.
func buildSearcher(t *testing.T, simName string, titles map[uint32]string) *Searcher {
	t.Helper()
	settings := &config.IndexSettings{
		Name:             "movies",
		SearchableFields: []string{"title"},
		PositionFields:   []string{"title"},
		Similarity:       simName,
		DefaultPosition:  config.Position(config.DefaultMissPosition),
	}
	ii := index.NewInvertedIndex(settings)
	tv := index.NewTermVectors()

	var maxDoc uint32
	for docID, title := range titles {
		tokens := tokenizer.Analyze(title)
		payloads := make(map[string][]byte)
		for term, positions := range tokenizer.TermStats(tokens) {
			ii.PutUnsafe(term, index.PostingEntry{DocID: docID, FieldName: "title", Score: float64(len(positions)), Positions: positions})
			payloads[term] = index.EncodePosition(positions[0])
		}
		tv.PutUnsafe(docID, "title", index.FieldTermVector{Length: len(tokens), Payloads: payloads})
		if docID+1 > maxDoc {
			maxDoc = docID + 1
		}
	}

	seg := index.NewSegment(ii, tv, maxDoc)
	return NewSearcher(seg, similarity.ForIndex(settings, nil, nil), nil, nil)
}

var titles = map[uint32]string{
	0: "fox and dog",
	1: "the quick brown dog chased a fox",
	2: "lazy dog",
	3: "cat",
}

func execute(t *testing.T, s *Searcher, q Query) (Weight, Scorer) {
	t.Helper()
	w, err := RewriteAll(q).CreateWeight(s, ScoreModeComplete)
	require.NoError(t, err)
	w.Normalize(1, 1)
	scorer, err := w.Scorer(s.Segment)
	require.NoError(t, err)
	return w, scorer
}

func mustWrap(t *testing.T, sub Query) *PositionMatchQuery {
	t.Helper()
	q, err := NewPositionMatchQuery(sub)
	require.NoError(t, err)
	return q
}

func TestNewPositionMatchQuery_RequiresSubQuery(t *testing.T) {
	q, err := NewPositionMatchQuery(nil)
	assert.Nil(t, q)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Equal(t, "expecting query object in [position_match]", err.Error())
}

func TestRewrite(t *testing.T) {
	t.Run("match with one token becomes a term query", func(t *testing.T) {
		got := RewriteAll(NewMatchQuery("title", "Fox"))
		assert.True(t, got.Equal(NewTermQuery("title", "fox")))
	})

	t.Run("match with several tokens becomes should clauses", func(t *testing.T) {
		got := RewriteAll(NewMatchQuery("title", "quick fox quick"))
		want := &BoolQuery{Should: []Query{NewTermQuery("title", "quick"), NewTermQuery("title", "fox")}}
		assert.True(t, got.Equal(want), "got %s", got)
	})

	t.Run("bool with a single clause unwraps", func(t *testing.T) {
		got := RewriteAll(&BoolQuery{Must: []Query{NewMatchQuery("title", "fox")}})
		assert.True(t, got.Equal(NewTermQuery("title", "fox")))
	})

	t.Run("wrapper over a primitive query is a fixpoint", func(t *testing.T) {
		q := mustWrap(t, NewTermQuery("title", "fox"))
		assert.Same(t, q, q.Rewrite())
	})

	t.Run("wrapper rewrites its sub-query", func(t *testing.T) {
		q := mustWrap(t, NewMatchQuery("title", "fox"))
		once := q.Rewrite()
		assert.NotSame(t, q, once)
		assert.True(t, once.Equal(mustWrap(t, NewTermQuery("title", "fox"))))

		twice := RewriteAll(once)
		assert.Same(t, once, twice)
		assert.True(t, RewriteAll(q).Equal(once))
	})
}

func TestPositionMatchQuery_EqualAndHash(t *testing.T) {
	a := mustWrap(t, &BoolQuery{Should: []Query{NewTermQuery("title", "fox"), NewTermQuery("title", "dog")}})
	b := mustWrap(t, &BoolQuery{Should: []Query{NewTermQuery("title", "fox"), NewTermQuery("title", "dog")}})
	c := mustWrap(t, NewTermQuery("title", "fox"))

	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.Equal(t, a.Hash(), b.Hash())

	assert.False(t, a.Equal(c))
	assert.False(t, c.Equal(NewTermQuery("title", "fox")), "wrapper differs from its sub-query")
	assert.NotEqual(t, c.Hash(), NewTermQuery("title", "fox").Hash())

	assert.Equal(t, "position_match((title:fox title:dog))", a.String())
	assert.Equal(t, "position_match(title:fox^2)", mustWrap(t, &TermQuery{Field: "title", Text: "fox", Boost: 2}).String())
}

func TestPositionMatchQuery_Scores(t *testing.T) {
	s := buildSearcher(t, config.SimilarityClassic, titles)
	q := mustWrap(t, NewMatchQuery("title", "fox dog"))
	w, scorer := execute(t, s, q)

	assert.Equal(t, []uint32{0, 1, 2}, scorer.Docs(), "matching documents come from the sub-query")

	// doc 0: fox@0, dog@2
	assert.InDelta(t, 1.0+5.0/7.0, scorer.Score(0), 1e-12)
	// doc 1: dog@3, fox@6
	assert.InDelta(t, 5.0/8.0+5.0/11.0, scorer.Score(1), 1e-12)
	// doc 2: no fox, dog@1
	assert.InDelta(t, 5.0/6.0, scorer.Score(2), 1e-12)

	assert.False(t, w.IsCacheable(s.Segment))

	terms := scoring.NewTermSet()
	w.ExtractTerms(terms)
	assert.Equal(t, scoring.NewTermSet(
		scoring.TermRef{Field: "title", Text: "fox"},
		scoring.TermRef{Field: "title", Text: "dog"},
	), terms)
}

func TestPositionMatchQuery_IgnoresBoost(t *testing.T) {
	s := buildSearcher(t, config.SimilarityClassic, titles)
	q := mustWrap(t, &TermQuery{Field: "title", Text: "fox", Boost: 5})
	_, scorer := execute(t, s, q)

	assert.Equal(t, 1.0, scorer.Score(0))
}

func TestPositionMatchQuery_Explain(t *testing.T) {
	s := buildSearcher(t, config.SimilarityClassic, titles)
	q := mustWrap(t, NewMatchQuery("title", "fox dog"))
	w, scorer := execute(t, s, q)

	expl, err := w.Explain(s.Segment, 2)
	require.NoError(t, err)
	assert.Equal(t, "score(doc=2), sum of:", expl.Description)
	assert.InDelta(t, scorer.Score(2), expl.Value, 1e-12)
	require.Len(t, expl.Details, 2)
	assert.Equal(t, "score(field=title, term=dog, pos=1, func=5/(5+1))", expl.Details[0].Description)
	assert.Equal(t, "no matching terms for field=title, term=fox", expl.Details[1].Description)
	assert.False(t, expl.Details[1].Match)
	assert.Equal(t, 0.0, expl.Details[1].Value)
}

func TestPositionMatchQuery_OverPositionSimilarity(t *testing.T) {
	s := buildSearcher(t, config.SimilarityPosition, titles)
	_, scorer := execute(t, s, mustWrap(t, NewTermQuery("title", "dog")))

	assert.Equal(t, []uint32{0, 1, 2}, scorer.Docs())
	assert.InDelta(t, 5.0/7.0, scorer.Score(0), 1e-12)
}

func TestTermQuery_PositionSimilarity(t *testing.T) {
	s := buildSearcher(t, config.SimilarityPosition, titles)
	_, scorer := execute(t, s, &TermQuery{Field: "title", Text: "fox", Boost: 3})

	assert.Equal(t, []uint32{0, 1}, scorer.Docs())
	assert.Equal(t, 3.0, scorer.Score(0))
	assert.InDelta(t, 3*5.0/11.0, scorer.Score(1), 1e-12)

	expl := scorer.Explain(0)
	assert.Equal(t, "weight(title:fox^3 in 0), result of:", expl.Description)
	require.Len(t, expl.Details, 1)
	assert.Equal(t, "position score(doc=0, freq=1), sum of:", expl.Details[0].Description)

	assert.False(t, scorer.Explain(3).Match)
}

func TestTermQuery_ScorerBeforeNormalize(t *testing.T) {
	s := buildSearcher(t, config.SimilarityPosition, titles)
	w, err := NewTermQuery("title", "fox").CreateWeight(s, ScoreModeComplete)
	require.NoError(t, err)

	_, err = w.Scorer(s.Segment)
	assert.ErrorIs(t, err, apperrors.ErrWeightNotNormalized)
	assert.True(t, w.IsCacheable(s.Segment))
}

func TestBoolQuery_Matching(t *testing.T) {
	s := buildSearcher(t, config.SimilarityClassic, titles)

	tests := []struct {
		name  string
		query *BoolQuery
		want  []uint32
	}{
		{"should is a union", &BoolQuery{Should: []Query{NewTermQuery("title", "fox"), NewTermQuery("title", "cat")}}, []uint32{0, 1, 3}},
		{"must is an intersection", &BoolQuery{Must: []Query{NewTermQuery("title", "fox"), NewTermQuery("title", "dog")}}, []uint32{0, 1}},
		{"must_not excludes", &BoolQuery{Should: []Query{NewTermQuery("title", "dog")}, MustNot: []Query{NewTermQuery("title", "quick")}}, []uint32{0, 2}},
		{"should is optional next to must", &BoolQuery{Must: []Query{NewTermQuery("title", "dog")}, Should: []Query{NewTermQuery("title", "fox")}}, []uint32{0, 1, 2}},
		{"empty matches nothing", &BoolQuery{}, []uint32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, scorer := execute(t, s, tt.query)
			assert.Equal(t, tt.want, scorer.Docs())
		})
	}
}

func TestBoolQuery_ScoresSumClauses(t *testing.T) {
	s := buildSearcher(t, config.SimilarityPosition, titles)
	q := &BoolQuery{Must: []Query{NewTermQuery("title", "dog")}, Should: []Query{NewTermQuery("title", "fox")}}
	w, scorer := execute(t, s, q)

	// doc 2 has dog@1 and no fox: the fox clause does not contribute
	assert.InDelta(t, 5.0/6.0, scorer.Score(2), 1e-12)
	// doc 0: dog@2 + fox@0
	assert.InDelta(t, 5.0/7.0+1.0, scorer.Score(0), 1e-12)

	expl, err := w.Explain(s.Segment, 2)
	require.NoError(t, err)
	assert.Len(t, expl.Details, 1)
	assert.InDelta(t, scorer.Score(2), expl.Value, 1e-12)

	expl, err = w.Explain(s.Segment, 3)
	require.NoError(t, err)
	assert.False(t, expl.Match)
}

func TestBoolQuery_ExtractTermsSkipsMustNot(t *testing.T) {
	s := buildSearcher(t, config.SimilarityClassic, titles)
	q := &BoolQuery{Should: []Query{NewTermQuery("title", "dog"), NewTermQuery("title", "fox")}, MustNot: []Query{NewTermQuery("title", "quick")}}
	w, err := q.CreateWeight(s, ScoreModeComplete)
	require.NoError(t, err)

	terms := scoring.NewTermSet()
	w.ExtractTerms(terms)
	assert.Len(t, terms, 2)
	assert.False(t, terms.Contains(scoring.TermRef{Field: "title", Text: "quick"}))
}

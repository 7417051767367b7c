package similarity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-position-search/config"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/index"
)

func newTestSegment(t *testing.T) *index.Segment {
	t.Helper()
	settings := &config.IndexSettings{
		Name:             "movies",
		SearchableFields: []string{"title", "tags"},
		PositionFields:   []string{"title"},
		Similarity:       config.SimilarityPosition,
		DefaultPosition:  config.Position(config.DefaultMissPosition),
	}
	ii := index.NewInvertedIndex(settings)
	tv := index.NewTermVectors()

	// doc 0: "fox jumps over the lazy dog"
	tv.PutUnsafe(0, "title", index.FieldTermVector{Length: 6, Payloads: map[string][]byte{
		"fox": index.EncodePosition(0), "jumps": index.EncodePosition(1), "over": index.EncodePosition(2),
		"the": index.EncodePosition(3), "lazy": index.EncodePosition(4), "dog": index.EncodePosition(5),
	}})
	// doc 1: "fox fox fox"
	tv.PutUnsafe(1, "title", index.FieldTermVector{Length: 3, Payloads: map[string][]byte{"fox": index.EncodePosition(0)}})
	tv.PutUnsafe(1, "tags", index.FieldTermVector{Length: 1})

	ii.PutUnsafe("fox", index.PostingEntry{DocID: 0, FieldName: "title", Score: 1, Positions: []int{0}})
	ii.PutUnsafe("fox", index.PostingEntry{DocID: 1, FieldName: "title", Score: 3, Positions: []int{0, 1, 2}})
	ii.PutUnsafe("dog", index.PostingEntry{DocID: 0, FieldName: "title", Score: 1, Positions: []int{5}})

	return index.NewSegment(ii, tv, 2)
}

func titleStats(seg *index.Segment) CollectionStats {
	return CollectionStats{Field: "title", DocCount: seg.DocCount(), AvgFieldLength: seg.AverageFieldLength("title")}
}

func TestPosition_TotalBoost(t *testing.T) {
	seg := newTestSegment(t)
	sim := NewPosition()

	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox", DocFreq: 2})
	weight.Normalize(2.0, 3.0)

	scorer, err := sim.SimScorer(weight, seg)
	require.NoError(t, err)
	assert.Equal(t, 6.0, scorer.Score(0, 1))
}

func TestPosition_ScorerRequiresNormalize(t *testing.T) {
	seg := newTestSegment(t)
	sim := NewPosition()

	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox"})
	_, err := sim.SimScorer(weight, seg)
	assert.ErrorIs(t, err, apperrors.ErrWeightNotNormalized)

	_, ready := weight.(*PositionWeight).TotalBoost()
	assert.False(t, ready)
}

func TestPosition_NormalizeOverwrites(t *testing.T) {
	seg := newTestSegment(t)
	sim := NewPosition()

	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox"})
	weight.Normalize(2.0, 3.0)
	weight.Normalize(1.0, 1.0)

	total, ready := weight.(*PositionWeight).TotalBoost()
	assert.True(t, ready)
	assert.Equal(t, 1.0, total)

	scorer, err := sim.SimScorer(weight, seg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scorer.Score(0, 1))
}

func TestPosition_MissUsesDefaultPosition(t *testing.T) {
	seg := newTestSegment(t)

	sim := NewPosition()
	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "cat"})
	weight.Normalize(1, 1)
	scorer, err := sim.SimScorer(weight, seg)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, scorer.Score(0, 1), 1e-12, "term absent")
	assert.InDelta(t, 0.2, scorer.Score(7, 1), 1e-12, "document without term vectors")

	sim = NewPosition(WithDefaultPosition(5))
	weight = sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "cat"})
	weight.Normalize(1, 1)
	scorer, err = sim.SimScorer(weight, seg)
	require.NoError(t, err)
	assert.Equal(t, 0.5, scorer.Score(0, 1))

	sim = NewPosition(WithDefaultPosition(0))
	weight = sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "cat"})
	weight.Normalize(1, 1)
	scorer, err = sim.SimScorer(weight, seg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scorer.Score(0, 1), "a miss at position 0 scores the full boost")
}

func TestPosition_IgnoresFrequency(t *testing.T) {
	seg := newTestSegment(t)
	sim := NewPosition()

	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox"}, TermStats{Term: "dog"})
	weight.Normalize(1, 1)
	scorer, err := sim.SimScorer(weight, seg)
	require.NoError(t, err)

	assert.Equal(t, scorer.Score(0, 1), scorer.Score(0, 42))
	assert.Equal(t, 1.5, scorer.Score(0, 1))
	// doc 1 has no "dog": 1.0 + 0.2
	assert.InDelta(t, 1.2, scorer.Score(1, 3), 1e-12)
}

func TestPosition_Explain(t *testing.T) {
	seg := newTestSegment(t)
	sim := NewPosition()

	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox"}, TermStats{Term: "cat"})
	weight.Normalize(1, 2)
	scorer, err := sim.SimScorer(weight, seg)
	require.NoError(t, err)

	expl := scorer.Explain(0, 3)
	assert.Equal(t, "position score(doc=0, freq=3), sum of:", expl.Description)
	assert.InDelta(t, scorer.Score(0, 3), expl.Value, 1e-12)
	require.Len(t, expl.Details, 2)

	// sorted by term: cat, fox
	assert.Equal(t, "score(field=title, term=cat, boost=2, pos=20, func=2*5/(5+20))", expl.Details[0].Description)
	assert.Equal(t, "term not present, default position 20 used", expl.Details[0].Error)
	assert.Equal(t, "score(field=title, term=fox, boost=2, pos=0, func=2*5/(5+0))", expl.Details[1].Description)
	assert.Empty(t, expl.Details[1].Error)

	// each call returns a fresh explanation
	again := scorer.Explain(0, 3)
	assert.Len(t, again.Details, 2)
	assert.Equal(t, expl, again)
}

func TestPosition_Factors(t *testing.T) {
	seg := newTestSegment(t)
	sim := NewPosition()
	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox"})
	weight.Normalize(1, 1)
	scorer, err := sim.SimScorer(weight, seg)
	require.NoError(t, err)

	assert.Equal(t, 1.0, scorer.ComputeSlopFactor(0))
	assert.Equal(t, 0.25, scorer.ComputeSlopFactor(3))
	assert.Equal(t, 1.0, scorer.ComputePayloadFactor(0, 0, 1, []byte{0, 0, 0, 9}))
}

func TestPosition_ConcurrentScorers(t *testing.T) {
	seg := newTestSegment(t)
	sim := NewPosition()
	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox"}, TermStats{Term: "dog"})
	weight.Normalize(2, 1)

	var wg sync.WaitGroup
	scores := make([]float64, 16)
	errs := make([]error, 16)
	for i := range scores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			scorer, err := sim.SimScorer(weight, seg)
			if err != nil {
				errs[i] = err
				return
			}
			scores[i] = scorer.Score(0, 1)
		}(i)
	}
	wg.Wait()

	for i := range scores {
		assert.NoError(t, errs[i])
		assert.Equal(t, 3.0, scores[i])
	}
}

func TestBM25_Scores(t *testing.T) {
	seg := newTestSegment(t)
	sim := NewBM25()

	weight := sim.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox", DocFreq: seg.DocFreq("title", "fox")})
	weight.Normalize(1, 1)
	scorer, err := sim.SimScorer(weight, seg)
	require.NoError(t, err)

	single := scorer.Score(0, 1)
	triple := scorer.Score(1, 3)
	assert.Greater(t, single, 0.0)
	assert.Greater(t, triple, single, "higher frequency in a shorter field scores higher")

	expl := scorer.Explain(1, 3)
	assert.InDelta(t, triple, expl.Value, 1e-12)
	assert.Len(t, expl.Details, 3)

	weight.Normalize(1, 2)
	boosted, err := sim.SimScorer(weight, seg)
	require.NoError(t, err)
	assert.InDelta(t, 2*single, boosted.Score(0, 1), 1e-12)
}

func TestForIndex(t *testing.T) {
	settings := &config.IndexSettings{
		Name:             "movies",
		SearchableFields: []string{"title", "tags"},
		PositionFields:   []string{"title"},
		Similarity:       config.SimilarityClassic,
	}
	perField := ForIndex(settings, nil, nil)
	assert.IsType(t, &BM25{}, perField.Get("title"))

	settings.Similarity = config.SimilarityPosition
	settings.DefaultPosition = config.Position(10)
	perField = ForIndex(settings, nil, nil)
	require.IsType(t, &Position{}, perField.Get("title"))
	assert.Equal(t, 10, perField.Get("title").(*Position).DefaultPosition())

	settings.DefaultPosition = config.Position(0)
	perField = ForIndex(settings, nil, nil)
	assert.Equal(t, 0, perField.Get("title").(*Position).DefaultPosition(), "an explicit 0 is kept")
	assert.IsType(t, &BM25{}, perField.Get("tags"))
}

func TestPerField_Delegates(t *testing.T) {
	seg := newTestSegment(t)
	perField := ForIndex(seg.Settings(), nil, nil)

	weight := perField.ComputeWeight(1, titleStats(seg), TermStats{Term: "fox"})
	_, err := perField.SimScorer(weight, seg)
	assert.ErrorIs(t, err, apperrors.ErrWeightNotNormalized)

	weight.Normalize(1, 1)
	scorer, err := perField.SimScorer(weight, seg)
	require.NoError(t, err)
	assert.Equal(t, 1.0, scorer.Score(0, 1))

	foreign := NewBM25().ComputeWeight(1, titleStats(seg))
	_, err = perField.SimScorer(foreign, seg)
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}

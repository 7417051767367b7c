package similarity

import (
	"fmt"
	"math"

	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/index"
	"github.com/gcbaptista/go-position-search/model"
)

// BM25 parameters
const (
	DefaultK1 = 1.2 // Controls term frequency saturation
	DefaultB  = 0.75
)

// BM25 is the classic similarity: idf times a length-normalized, saturating term frequency.
type BM25 struct {
	K1 float64
	B  float64
}

// NewBM25 creates a BM25 similarity with the default parameters.
func NewBM25() *BM25 {
	return &BM25{K1: DefaultK1, B: DefaultB}
}

type bm25Weight struct {
	field          string
	idf            float64
	docCount       int
	docFreqs       []TermStats
	avgFieldLength float64
	boost          float64
}

// ComputeWeight sums the idf of terms. The weight starts with boost and is replaced on Normalize.
func (s *BM25) ComputeWeight(boost float64, collection CollectionStats, terms ...TermStats) SimWeight {
	idf := 0.0
	for _, term := range terms {
		idf += s.idf(term.DocFreq, collection.DocCount)
	}
	return &bm25Weight{
		field:          collection.Field,
		idf:            idf,
		docCount:       collection.DocCount,
		docFreqs:       terms,
		avgFieldLength: collection.AvgFieldLength,
		boost:          boost,
	}
}

// idf = ln(1 + (N - df + 0.5) / (df + 0.5))
func (s *BM25) idf(docFreq, docCount int) float64 {
	n := float64(docFreq)
	total := float64(docCount)
	return math.Log(1 + (total-n+0.5)/(n+0.5))
}

func (w *bm25Weight) ValueForNormalization() float64 {
	v := w.idf * w.boost
	return v * v
}

func (w *bm25Weight) Normalize(queryNorm, boost float64) {
	w.boost = queryNorm * boost
}

// SimScorer creates a scorer reading field lengths from segment.
func (s *BM25) SimScorer(weight SimWeight, segment *index.Segment) (SimScorer, error) {
	w, ok := weight.(*bm25Weight)
	if !ok {
		return nil, apperrors.NewConfigurationError("classic", fmt.Sprintf("unexpected weight type %T", weight))
	}
	return &bm25Scorer{sim: s, weight: w, segment: segment}, nil
}

type bm25Scorer struct {
	sim     *BM25
	weight  *bm25Weight
	segment *index.Segment
}

func (sc *bm25Scorer) tfNorm(docID uint32, freq float64) float64 {
	lengthRatio := 1.0
	if sc.weight.avgFieldLength > 0 {
		lengthRatio = float64(sc.segment.FieldLength(docID, sc.weight.field)) / sc.weight.avgFieldLength
	}
	denominator := freq + sc.sim.K1*(1-sc.sim.B+sc.sim.B*lengthRatio)
	if denominator == 0 {
		return 0
	}
	return freq * (sc.sim.K1 + 1) / denominator
}

// Score computes BM25 = boost * IDF * (tf * (k1 + 1)) / (tf + k1 * (1 - b + b * (|d| / avgdl)))
func (sc *bm25Scorer) Score(docID uint32, freq float64) float64 {
	return sc.weight.boost * sc.weight.idf * sc.tfNorm(docID, freq)
}

func (sc *bm25Scorer) Explain(docID uint32, freq float64) model.Explanation {
	idfDetails := make([]model.Explanation, 0, len(sc.weight.docFreqs))
	for _, term := range sc.weight.docFreqs {
		idfDetails = append(idfDetails, model.Match(
			sc.sim.idf(term.DocFreq, sc.weight.docCount),
			fmt.Sprintf("idf(term=%s, docFreq=%d, docCount=%d)", term.Term, term.DocFreq, sc.weight.docCount),
		))
	}

	details := []model.Explanation{
		model.Match(sc.weight.boost, "boost"),
		model.Match(sc.weight.idf, "idf, sum of:", idfDetails...),
		model.Match(sc.tfNorm(docID, freq), fmt.Sprintf("tfNorm(freq=%g, k1=%g, b=%g, fieldLength=%d, avgFieldLength=%g)",
			freq, sc.sim.K1, sc.sim.B, sc.segment.FieldLength(docID, sc.weight.field), sc.weight.avgFieldLength)),
	}
	return model.Match(sc.Score(docID, freq), fmt.Sprintf("score(doc=%d, freq=%g), product of:", docID, freq), details...)
}

func (sc *bm25Scorer) ComputeSlopFactor(distance int) float64 {
	return 1.0 / float64(distance+1)
}

func (sc *bm25Scorer) ComputePayloadFactor(docID uint32, start, end int, payload []byte) float64 {
	return 1
}

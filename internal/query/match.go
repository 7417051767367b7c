package query

import (
	"github.com/gcbaptista/go-position-search/internal/tokenizer"
)

// MatchQuery analyzes Text and matches documents whose field contains any of its tokens.
// It always rewrites to term queries.
type MatchQuery struct {
	Field string
	Text  string
}

// NewMatchQuery creates a match query.
func NewMatchQuery(field, text string) *MatchQuery {
	return &MatchQuery{Field: field, Text: text}
}

// Rewrite returns a term query for a single token, or a bool query with one should clause per
// distinct token.
func (q *MatchQuery) Rewrite() Query {
	seen := make(map[string]struct{})
	clauses := make([]Query, 0)
	for _, token := range tokenizer.Tokenize(q.Text) {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		clauses = append(clauses, NewTermQuery(q.Field, token))
	}

	if len(clauses) == 1 {
		return clauses[0]
	}
	return &BoolQuery{Should: clauses}
}

func (q *MatchQuery) CreateWeight(searcher *Searcher, mode ScoreMode) (Weight, error) {
	return RewriteAll(q).CreateWeight(searcher, mode)
}

func (q *MatchQuery) Equal(other Query) bool {
	o, ok := other.(*MatchQuery)
	return ok && o.Field == q.Field && o.Text == q.Text
}

func (q *MatchQuery) Hash() uint64 {
	return hashStrings("match", q.Field, q.Text)
}

func (q *MatchQuery) String() string {
	return "match(" + q.Field + ":" + q.Text + ")"
}

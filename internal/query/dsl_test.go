package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Query
	}{
		{
			name:  "term shorthand",
			input: `{"term": {"title": "fox"}}`,
			want:  NewTermQuery("title", "fox"),
		},
		{
			name:  "term with boost",
			input: `{"term": {"title": {"value": "fox", "boost": 2.5}}}`,
			want:  &TermQuery{Field: "title", Text: "fox", Boost: 2.5},
		},
		{
			name:  "match object",
			input: `{"match": {"title": {"query": "quick fox"}}}`,
			want:  NewMatchQuery("title", "quick fox"),
		},
		{
			name:  "bool with a single clause object",
			input: `{"bool": {"must": {"term": {"title": "fox"}}, "must_not": [{"term": {"title": "cat"}}]}}`,
			want: &BoolQuery{
				Must:    []Query{NewTermQuery("title", "fox")},
				MustNot: []Query{NewTermQuery("title", "cat")},
			},
		},
		{
			name:  "position match",
			input: `{"position_match": {"query": {"match": {"title": "fox dog"}}}}`,
			want:  &PositionMatchQuery{sub: NewMatchQuery("title", "fox dog")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		path    string
		message string
	}{
		{"malformed json", `{"term":`, "", "malformed JSON"},
		{"unknown query type", `{"fuzzy": {"title": "fox"}}`, "", "unknown query type [fuzzy]"},
		{"two keys", `{"term": {"title": "fox"}, "match": {"title": "fox"}}`, "", "expected exactly one key, found 2"},
		{"term without value", `{"term": {"title": {"boost": 2}}}`, "term.title", "[value] is required"},
		{"negative boost", `{"term": {"title": {"value": "fox", "boost": -1}}}`, "term.title", "[boost] must be a positive number"},
		{"unknown bool clause", `{"bool": {"filter": []}}`, "bool", "unknown clause [filter]"},
		{"nested error path", `{"bool": {"should": [{"term": {"title": "fox"}}, {"term": []}]}}`, "bool.should[1].term", "expected an object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidQuery)

			var parseErr *apperrors.QueryParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.path, parseErr.Path)
			assert.Equal(t, tt.message, parseErr.Message)
		})
	}
}

func TestParse_PositionMatchWithoutQuery(t *testing.T) {
	for _, input := range []string{
		`{"position_match": {}}`,
		`{"position_match": {"query": null}}`,
	} {
		_, err := Parse([]byte(input))
		require.Error(t, err, input)
		assert.ErrorIs(t, err, apperrors.ErrConfiguration, input)
		assert.Equal(t, "expecting query object in [position_match]", err.Error())
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	queries := []Query{
		NewTermQuery("title", "fox"),
		&TermQuery{Field: "title", Text: "fox", Boost: 3},
		NewMatchQuery("genre.name", "science fiction"),
		&BoolQuery{
			Must:    []Query{NewTermQuery("title", "fox")},
			Should:  []Query{NewMatchQuery("title", "quick dog"), NewTermQuery("tags", "animal")},
			MustNot: []Query{NewTermQuery("title", "cat")},
		},
		&PositionMatchQuery{sub: &BoolQuery{Should: []Query{NewTermQuery("title", "fox"), NewTermQuery("title", "dog")}}},
		NewTermQuery("2024", "fox"),
		&TermQuery{Field: "0", Text: "fox", Boost: 2},
		NewMatchQuery("0", "quick fox"),
		&PositionMatchQuery{sub: NewTermQuery(`a\b`, "fox")},
		NewTermQuery(`a.b*c?d|e#f@g`, `"quoted" \text`),
	}

	for _, q := range queries {
		t.Run(q.String(), func(t *testing.T) {
			data, err := Marshal(q)
			require.NoError(t, err)

			parsed, err := Parse(data)
			require.NoError(t, err, string(data))
			assert.True(t, parsed.Equal(q), "round trip of %s gave %s", data, parsed)
			assert.Equal(t, q.Hash(), parsed.Hash())
		})
	}
}

func TestMarshal_Shape(t *testing.T) {
	data, err := Marshal(&PositionMatchQuery{sub: NewTermQuery("title", "fox")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"position_match": {"query": {"term": {"title": "fox"}}}}`, string(data))

	data, err = Marshal(NewTermQuery("2024", "fox"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"term": {"2024": "fox"}}`, string(data), "numeric field names stay object keys")

	data, err = Marshal(&TermQuery{Field: "title", Text: "fox", Boost: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"term": {"title": {"value": "fox", "boost": 3}}}`, string(data))
}

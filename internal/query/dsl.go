package query

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
)

// Parse reads a query written in the JSON query language:
//
//	{"term": {"title": "fox"}}
//	{"term": {"title": {"value": "fox", "boost": 2}}}
//	{"match": {"title": "quick fox"}}
//	{"bool": {"must": [...], "should": [...], "must_not": [...]}}
//	{"position_match": {"query": {...}}}
func Parse(data []byte) (Query, error) {
	if !gjson.ValidBytes(data) {
		return nil, apperrors.NewQueryParseError("", "malformed JSON")
	}
	return parseNode(gjson.ParseBytes(data), "")
}

func parseNode(node gjson.Result, path string) (Query, error) {
	key, body, err := singleKey(node, path)
	if err != nil {
		return nil, err
	}

	at := joinPath(path, key)
	switch key {
	case "term":
		return parseTerm(body, at)
	case "match":
		return parseMatch(body, at)
	case "bool":
		return parseBool(body, at)
	case PositionMatchName:
		return parsePositionMatch(body, at)
	default:
		return nil, apperrors.NewQueryParseError(path, fmt.Sprintf("unknown query type [%s]", key))
	}
}

// singleKey returns the only key of an object node and its value.
func singleKey(node gjson.Result, path string) (string, gjson.Result, error) {
	if !node.IsObject() {
		return "", gjson.Result{}, apperrors.NewQueryParseError(path, "expected an object")
	}

	var key string
	var value gjson.Result
	count := 0
	node.ForEach(func(k, v gjson.Result) bool {
		key, value = k.String(), v
		count++
		return true
	})
	if count != 1 {
		return "", gjson.Result{}, apperrors.NewQueryParseError(path, fmt.Sprintf("expected exactly one key, found %d", count))
	}
	return key, value, nil
}

func parseTerm(body gjson.Result, path string) (Query, error) {
	field, value, err := singleKey(body, path)
	if err != nil {
		return nil, err
	}

	at := joinPath(path, field)
	switch {
	case value.Type == gjson.String || value.Type == gjson.Number:
		return NewTermQuery(field, value.String()), nil
	case value.IsObject():
		text := value.Get("value")
		if !text.Exists() || (text.Type != gjson.String && text.Type != gjson.Number) {
			return nil, apperrors.NewQueryParseError(at, "[value] is required")
		}
		q := NewTermQuery(field, text.String())
		if boost := value.Get("boost"); boost.Exists() {
			if boost.Type != gjson.Number || boost.Float() <= 0 {
				return nil, apperrors.NewQueryParseError(at, "[boost] must be a positive number")
			}
			q.Boost = boost.Float()
		}
		return q, nil
	default:
		return nil, apperrors.NewQueryParseError(at, "expected a string or an object")
	}
}

func parseMatch(body gjson.Result, path string) (Query, error) {
	field, value, err := singleKey(body, path)
	if err != nil {
		return nil, err
	}

	switch {
	case value.Type == gjson.String:
		return NewMatchQuery(field, value.String()), nil
	case value.IsObject() && value.Get("query").Type == gjson.String:
		return NewMatchQuery(field, value.Get("query").String()), nil
	default:
		return nil, apperrors.NewQueryParseError(joinPath(path, field), "expected a string or an object with [query]")
	}
}

func parseBool(body gjson.Result, path string) (Query, error) {
	if !body.IsObject() {
		return nil, apperrors.NewQueryParseError(path, "expected an object")
	}

	q := &BoolQuery{}
	var parseErr error
	body.ForEach(func(k, v gjson.Result) bool {
		var target *[]Query
		switch k.String() {
		case "must":
			target = &q.Must
		case "should":
			target = &q.Should
		case "must_not":
			target = &q.MustNot
		default:
			parseErr = apperrors.NewQueryParseError(path, fmt.Sprintf("unknown clause [%s]", k.String()))
			return false
		}
		*target, parseErr = parseClauses(v, joinPath(path, k.String()))
		return parseErr == nil
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return q, nil
}

// parseClauses accepts an array of queries or a single query object.
func parseClauses(node gjson.Result, path string) ([]Query, error) {
	if node.IsObject() {
		q, err := parseNode(node, path)
		if err != nil {
			return nil, err
		}
		return []Query{q}, nil
	}
	if !node.IsArray() {
		return nil, apperrors.NewQueryParseError(path, "expected an array of queries")
	}

	items := node.Array()
	clauses := make([]Query, 0, len(items))
	for i, item := range items {
		q, err := parseNode(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, q)
	}
	return clauses, nil
}

func parsePositionMatch(body gjson.Result, path string) (Query, error) {
	if !body.IsObject() {
		return nil, apperrors.NewQueryParseError(path, "expected an object")
	}

	var sub Query
	if inner := body.Get("query"); inner.Exists() && inner.Type != gjson.Null {
		var err error
		if sub, err = parseNode(inner, joinPath(path, "query")); err != nil {
			return nil, err
		}
	}
	q, err := NewPositionMatchQuery(sub)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// Marshal writes q in the JSON query language. Parse(Marshal(q)) is equal to q.
func Marshal(q Query) ([]byte, error) {
	out, err := marshal(q)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

func marshal(q Query) (string, error) {
	switch q := q.(type) {
	case *TermQuery:
		value, err := jsonString(q.Text)
		if err != nil {
			return "", err
		}
		if q.boost() != 1 {
			if value, err = sjson.SetRaw("{}", "value", value); err != nil {
				return "", err
			}
			if value, err = sjson.Set(value, "boost", q.boost()); err != nil {
				return "", err
			}
		}
		return fieldClause("term", q.Field, value)
	case *MatchQuery:
		value, err := jsonString(q.Text)
		if err != nil {
			return "", err
		}
		return fieldClause("match", q.Field, value)
	case *BoolQuery:
		out := `{"bool":{}}`
		for _, group := range []struct {
			name    string
			clauses []Query
		}{{"must", q.Must}, {"should", q.Should}, {"must_not", q.MustNot}} {
			if len(group.clauses) == 0 {
				continue
			}
			raws := make([]string, 0, len(group.clauses))
			for _, clause := range group.clauses {
				raw, err := marshal(clause)
				if err != nil {
					return "", err
				}
				raws = append(raws, raw)
			}
			var err error
			if out, err = sjson.SetRaw(out, "bool."+group.name, "["+strings.Join(raws, ",")+"]"); err != nil {
				return "", err
			}
		}
		return out, nil
	case *PositionMatchQuery:
		raw, err := marshal(q.sub)
		if err != nil {
			return "", err
		}
		return sjson.SetRaw("{}", PositionMatchName+".query", raw)
	default:
		return "", fmt.Errorf("cannot marshal query of type %T", q)
	}
}

// fieldClause builds {"<name>": {"<field>": <raw>}}. The field becomes a quoted object key
// rather than an sjson path, so digits, dots and backslashes in field names are kept as-is.
func fieldClause(name, field, raw string) (string, error) {
	key, err := jsonString(field)
	if err != nil {
		return "", err
	}
	return sjson.SetRaw("{}", name, "{"+key+":"+raw+"}")
}

// jsonString returns s as a quoted JSON string.
func jsonString(s string) (string, error) {
	out, err := sjson.Set("{}", "s", s)
	if err != nil {
		return "", err
	}
	return gjson.Get(out, "s").Raw, nil
}

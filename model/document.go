package model

import "strings"

// Document is a flexible map representing a JSON document.
// The documentID is the only required field for document identification.
// Other fields like "title" or "body" are accessed by their string keys and depend on index configuration.
type Document map[string]interface{}

// GetDocumentID returns the documentID if it's stored in the document map under "documentID" key.
func (d Document) GetDocumentID() (string, bool) {
	if id, ok := d["documentID"]; ok {
		if str, sok := id.(string); sok {
			if str != "" {
				return str, true
			}
		}
	}
	return "", false
}

// FieldText returns the text content of a field. Arrays of strings are joined with spaces;
// any other type yields false.
func (d Document) FieldText(field string) (string, bool) {
	val, ok := d[field]
	if !ok {
		return "", false
	}
	switch v := val.(type) {
	case string:
		return v, true
	case []string:
		return strings.Join(v, " "), true
	case []interface{}: // JSON arrays are unmarshalled to []interface{}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " "), true
	default:
		return "", false
	}
}

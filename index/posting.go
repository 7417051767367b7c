package index

// PostingEntry represents a document that contains a term, the field it appeared in,
// the term frequency in that field and every position the term occupies.
type PostingEntry struct {
	DocID     uint32  // Internal numeric ID for efficiency
	FieldName string  // The name of the field where the term was found (e.g., "title", "body")
	Score     float64 // Term frequency within this field for this document
	Positions []int   // Token positions of the term within the field, ascending
}

// PostingList is a slice of PostingEntry, sorted by DocID then FieldName.
type PostingList []PostingEntry

// ForField returns the entries of the list that belong to field, preserving order.
func (pl PostingList) ForField(field string) PostingList {
	out := make(PostingList, 0, len(pl))
	for _, entry := range pl {
		if entry.FieldName == field {
			out = append(out, entry)
		}
	}
	return out
}
